package entities

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RankName is one of the eight MLM ranks
type RankName string

const (
	RankShogun   RankName = "将軍"
	RankDaimyo   RankName = "大名"
	RankTairo    RankName = "大老"
	RankRoju     RankName = "老中"
	RankBugyo    RankName = "奉行"
	RankDaikan   RankName = "代官"
	RankBusho    RankName = "武将"
	RankAshigaru RankName = "足軽"
)

// String returns the string representation of the rank
func (r RankName) String() string {
	return string(r)
}

// RankTier is one row of the rank table
type RankTier struct {
	Name                RankName
	MaxLineThreshold    decimal.Decimal
	OtherLinesThreshold decimal.Decimal
	DistributionRate    decimal.Decimal  // share of the bonus pool, as a fraction
	BonusRate           *decimal.Decimal // optional extra bonus, as a fraction
}

// Qualifies reports whether both thresholds are met
func (t RankTier) Qualifies(maxLine, otherLines decimal.Decimal) bool {
	return maxLine.GreaterThanOrEqual(t.MaxLineThreshold) &&
		otherLines.GreaterThanOrEqual(t.OtherLinesThreshold)
}

// RankTable is ordered from the highest tier to the lowest
type RankTable []RankTier

func pct(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func optPct(v int64) *decimal.Decimal {
	d := pct(v)
	return &d
}

// DefaultRankTable returns the built-in eight-tier table
func DefaultRankTable() RankTable {
	return RankTable{
		{Name: RankShogun, MaxLineThreshold: decimal.NewFromInt(600000), OtherLinesThreshold: decimal.NewFromInt(500000), DistributionRate: pct(2), BonusRate: optPct(30)},
		{Name: RankDaimyo, MaxLineThreshold: decimal.NewFromInt(300000), OtherLinesThreshold: decimal.NewFromInt(150000), DistributionRate: pct(3), BonusRate: optPct(25)},
		{Name: RankTairo, MaxLineThreshold: decimal.NewFromInt(100000), OtherLinesThreshold: decimal.NewFromInt(50000), DistributionRate: pct(4), BonusRate: optPct(22)},
		{Name: RankRoju, MaxLineThreshold: decimal.NewFromInt(50000), OtherLinesThreshold: decimal.NewFromInt(25000), DistributionRate: pct(5)},
		{Name: RankBugyo, MaxLineThreshold: decimal.NewFromInt(10000), OtherLinesThreshold: decimal.NewFromInt(5000), DistributionRate: pct(6)},
		{Name: RankDaikan, MaxLineThreshold: decimal.NewFromInt(5000), OtherLinesThreshold: decimal.NewFromInt(2500), DistributionRate: pct(10)},
		{Name: RankBusho, MaxLineThreshold: decimal.NewFromInt(3000), OtherLinesThreshold: decimal.NewFromInt(1500), DistributionRate: pct(25)},
		{Name: RankAshigaru, MaxLineThreshold: decimal.Zero, OtherLinesThreshold: decimal.Zero, DistributionRate: pct(45)},
	}
}

// Classify returns the highest tier whose thresholds are both met.
// A validated table always ends in a 0/0 tier, so the lowest tier is the fallback.
func (t RankTable) Classify(maxLine, otherLines decimal.Decimal) RankTier {
	for _, tier := range t {
		if tier.Qualifies(maxLine, otherLines) {
			return tier
		}
	}
	return t[len(t)-1]
}

// Tier looks up a tier by name
func (t RankTable) Tier(name RankName) (RankTier, bool) {
	for _, tier := range t {
		if tier.Name == name {
			return tier, true
		}
	}
	return RankTier{}, false
}

// Contains reports whether the rank name is part of the table
func (t RankTable) Contains(name RankName) bool {
	_, ok := t.Tier(name)
	return ok
}

// Validate checks ordering and totality of the table
func (t RankTable) Validate() error {
	if len(t) == 0 {
		return errors.New("rank table cannot be empty")
	}

	seen := make(map[RankName]struct{}, len(t))
	for i, tier := range t {
		if tier.Name == "" {
			return fmt.Errorf("rank tier at index %d missing name", i)
		}
		if _, dup := seen[tier.Name]; dup {
			return fmt.Errorf("rank tier %s defined twice", tier.Name)
		}
		seen[tier.Name] = struct{}{}

		if tier.MaxLineThreshold.IsNegative() || tier.OtherLinesThreshold.IsNegative() {
			return fmt.Errorf("rank tier %s has a negative threshold", tier.Name)
		}
		if tier.DistributionRate.IsNegative() || tier.DistributionRate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("rank tier %s distribution rate must be within [0, 1]", tier.Name)
		}
		if i > 0 {
			prev := t[i-1]
			if tier.MaxLineThreshold.GreaterThan(prev.MaxLineThreshold) || tier.OtherLinesThreshold.GreaterThan(prev.OtherLinesThreshold) {
				return fmt.Errorf("rank tier %s thresholds exceed higher tier %s", tier.Name, prev.Name)
			}
		}
	}

	last := t[len(t)-1]
	if !last.MaxLineThreshold.IsZero() || !last.OtherLinesThreshold.IsZero() {
		return fmt.Errorf("lowest rank tier %s must have zero thresholds", last.Name)
	}

	return nil
}

// LineSummary aggregates one referral line: the subtree under a direct referral
type LineSummary struct {
	RootUserID      int64           `json:"root_user_id"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	Members         []int64         `json:"members"` // depth order, line root first
	MemberCount     int             `json:"member_count"`
}

// RankStats carries the figures the classification was based on
type RankStats struct {
	PersonalInvestment decimal.Decimal `json:"personal_investment"`
	MaxLine            decimal.Decimal `json:"max_line"`
	OtherLines         decimal.Decimal `json:"other_lines"`
	DownstreamMembers  int             `json:"downstream_members"`
	LineCount          int             `json:"line_count"`
}

// RankResult is the outcome of classifying one user
type RankResult struct {
	UserID  int64         `json:"user_id"`
	Rank    *RankName     `json:"rank"`
	Changed bool          `json:"changed"`          // the cached rank was rewritten by this classification
	Reason  string        `json:"reason,omitempty"` // set when unranked
	Stats   RankStats     `json:"stats"`
	Lines   []LineSummary `json:"lines,omitempty"`
}

// IsRanked reports whether the user reached a rank
func (r *RankResult) IsRanked() bool {
	return r.Rank != nil
}
