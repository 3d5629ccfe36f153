package services

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// dec parses a decimal literal for test fixtures
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decArg matches a decimal mock argument by value rather than representation
func decArg(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func int64Ptr(v int64) *int64 {
	return &v
}
