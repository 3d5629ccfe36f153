package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AdminCommands lists the one-shot operator subcommands handled by RunAdmin
var AdminCommands = map[string]bool{
	"seed-templates":   true,
	"accrue":           true,
	"distribute-bonus": true,
	"classify":         true,
	"refresh-ranks":    true,
	"claims":           true,
}

const adminUsage = `usage:
  shogun seed-templates
  shogun accrue [YYYY-MM-DD]
  shogun distribute-bonus <pool>
  shogun classify <user-id>
  shogun refresh-ranks
  shogun claims list [limit]
  shogun claims approve|reject <claim-id>`

var errUsage = errors.New(adminUsage)

// RunAdmin runs a single engine operation and prints its result as JSON
func RunAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	result, err := runAdminCommand(ctx, a, args)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, result)
}

func runAdminCommand(ctx context.Context, a *app, args []string) (interface{}, error) {
	switch args[0] {
	case "seed-templates":
		created, err := a.engine.SeedAssetTemplates(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"created": created}, nil

	case "accrue":
		asOf := time.Now().In(a.cfg.Location())
		if len(args) > 1 {
			parsed, err := time.ParseInLocation("2006-01-02", args[1], a.cfg.Location())
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", args[1], err)
			}
			asOf = parsed
		}
		return a.engine.RunDailyAccrual(ctx, asOf)

	case "distribute-bonus":
		if len(args) < 2 {
			return nil, errUsage
		}
		pool, err := decimal.NewFromString(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid pool amount %q: %w", args[1], err)
		}
		return a.engine.DistributeBonus(ctx, pool)

	case "classify":
		userID, err := parseIDArg(args, 1)
		if err != nil {
			return nil, err
		}
		return a.engine.ClassifyRank(ctx, userID)

	case "refresh-ranks":
		return a.engine.RefreshAllRanks(ctx)

	case "claims":
		return runClaimsCommand(ctx, a, args[1:])
	}
	return nil, fmt.Errorf("unknown command: %s\n%s", args[0], adminUsage)
}

func runClaimsCommand(ctx context.Context, a *app, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, errUsage
	}

	switch args[0] {
	case "list":
		limit := 50
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		return a.engine.ListPendingClaims(ctx, limit)
	case "approve":
		claimID, err := parseIDArg(args, 1)
		if err != nil {
			return nil, err
		}
		return a.engine.ApproveClaim(ctx, claimID)
	case "reject":
		claimID, err := parseIDArg(args, 1)
		if err != nil {
			return nil, err
		}
		return a.engine.RejectClaim(ctx, claimID)
	}
	return nil, fmt.Errorf("unknown claims command: %s\n%s", args[0], adminUsage)
}

func parseIDArg(args []string, index int) (int64, error) {
	if len(args) <= index {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[index], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[index])
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
