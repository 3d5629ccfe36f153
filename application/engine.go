package application

import (
	"context"
	"fmt"
	"time"

	"shogun/config"
	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/services"
	"shogun/infrastructure/observability"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Operation names used for logs and metrics
const (
	OpClassifyRank       = "classify_rank"
	OpRefreshAllRanks    = "refresh_all_ranks"
	OpRunDailyAccrual    = "run_daily_accrual"
	OpSubmitClaim        = "submit_claim"
	OpApproveClaim       = "approve_claim"
	OpRejectClaim        = "reject_claim"
	OpListPendingClaims  = "list_pending_claims"
	OpDistributeBonus    = "distribute_bonus"
	OpRegisterUser       = "register_user"
	OpPurchasePosition   = "purchase_position"
	OpListPositions      = "list_positions"
	OpListTemplates      = "list_templates"
	OpSeedAssetTemplates = "seed_asset_templates"
	OpLatestAccrualRun   = "latest_accrual_run"
	OpLatestBonus        = "latest_bonus_distribution"
)

// EngineOptions carries the policy the engine runs with
type EngineOptions struct {
	Catalog         *config.Catalog
	Location        *time.Location // business calendar for accrual
	RestoreOnReject bool
}

// RankRefreshResult summarises a full reclassification pass
type RankRefreshResult struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
	Ranked  int `json:"ranked"`
	Failed  int `json:"failed"`
}

// RewardEngine runs every engine operation inside its own unit of work
type RewardEngine struct {
	uowFactory      UnitOfWorkFactory
	catalog         *config.Catalog
	location        *time.Location
	restoreOnReject bool
	metrics         *observability.MetricsProvider
	now             func() time.Time
}

// NewRewardEngine creates a new reward engine
func NewRewardEngine(uowFactory UnitOfWorkFactory, opts EngineOptions, metrics *observability.MetricsProvider) *RewardEngine {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}
	return &RewardEngine{
		uowFactory:      uowFactory,
		catalog:         catalog,
		location:        location,
		restoreOnReject: opts.RestoreOnReject,
		metrics:         metrics,
		now:             time.Now,
	}
}

// Catalog returns the policy catalogue the engine was built with
func (e *RewardEngine) Catalog() *config.Catalog {
	return e.catalog
}

// ClassifyRank computes and caches a member's rank
func (e *RewardEngine) ClassifyRank(ctx context.Context, userID int64) (*entities.RankResult, error) {
	var result *entities.RankResult
	err := e.withUnitOfWork(ctx, OpClassifyRank, log.Fields{"user_id": userID}, func(uow UnitOfWork) error {
		var err error
		result, err = e.rankService(uow).ClassifyRank(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		newRank := "unranked"
		if result.Rank != nil {
			newRank = result.Rank.String()
		}
		e.metrics.RecordRankChange(newRank)
	}
	return result, nil
}

// RefreshAllRanks reclassifies every member, one transaction per member.
// A failing member is logged and counted; the pass continues.
func (e *RewardEngine) RefreshAllRanks(ctx context.Context) (*RankRefreshResult, error) {
	var ids []int64
	err := e.withUnitOfWork(ctx, OpRefreshAllRanks, nil, func(uow UnitOfWork) error {
		var err error
		ids, err = uow.UserRepository().GetAllIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := &RankRefreshResult{Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, domain.NewStorageError(err, "rank refresh interrupted")
		}

		result, err := e.ClassifyRank(ctx, id)
		if err != nil {
			summary.Failed++
			continue
		}
		if result.Changed {
			summary.Changed++
		}
		if result.IsRanked() {
			summary.Ranked++
		}
	}

	log.WithFields(log.Fields{
		"total":   summary.Total,
		"changed": summary.Changed,
		"ranked":  summary.Ranked,
		"failed":  summary.Failed,
	}).Info("Completed rank refresh")

	return summary, nil
}

// RunDailyAccrual accrues one business day of yield for asOf's date in the business timezone
func (e *RewardEngine) RunDailyAccrual(ctx context.Context, asOf time.Time) (*entities.AccrualResult, error) {
	var result *entities.AccrualResult
	err := e.withUnitOfWork(ctx, OpRunDailyAccrual, log.Fields{"as_of": asOf.Format(time.RFC3339)}, func(uow UnitOfWork) error {
		var err error
		result, err = services.NewAccrualService(
			uow.PositionRepository(),
			uow.AccrualRunRepository(),
			uow.EventBus(),
			e.location,
		).RunDailyAccrual(ctx, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordPositionsAccrued(result.ProcessedCount)
	log.WithFields(log.Fields{
		"run_date":          result.RunDate.Format("2006-01-02"),
		"processed":         result.ProcessedCount,
		"total_accrued":     result.TotalAccrued.String(),
		"skipped":           result.Skipped,
		"already_processed": result.AlreadyProcessed,
	}).Info("Daily accrual finished")

	return result, nil
}

// SubmitClaim moves a member's unclaimed yield into a pending claim
func (e *RewardEngine) SubmitClaim(ctx context.Context, userID int64, claimType entities.ClaimType, note string) (*entities.ClaimQuote, error) {
	var quote *entities.ClaimQuote
	fields := log.Fields{"user_id": userID, "claim_type": claimType}
	err := e.withUnitOfWork(ctx, OpSubmitClaim, fields, func(uow UnitOfWork) error {
		var err error
		quote, err = e.claimService(uow).SubmitClaim(ctx, userID, claimType, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordClaim(string(claimType))
	return quote, nil
}

// ApproveClaim approves a pending claim
func (e *RewardEngine) ApproveClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	var claim *entities.Claim
	err := e.withUnitOfWork(ctx, OpApproveClaim, log.Fields{"claim_id": claimID}, func(uow UnitOfWork) error {
		var err error
		claim, err = e.claimService(uow).ApproveClaim(ctx, claimID)
		return err
	})
	return claim, err
}

// RejectClaim rejects a pending claim
func (e *RewardEngine) RejectClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	var claim *entities.Claim
	err := e.withUnitOfWork(ctx, OpRejectClaim, log.Fields{"claim_id": claimID}, func(uow UnitOfWork) error {
		var err error
		claim, err = e.claimService(uow).RejectClaim(ctx, claimID)
		return err
	})
	return claim, err
}

// ListPendingClaims returns pending claims oldest first
func (e *RewardEngine) ListPendingClaims(ctx context.Context, limit int) ([]*entities.Claim, error) {
	var claims []*entities.Claim
	err := e.withUnitOfWork(ctx, OpListPendingClaims, nil, func(uow UnitOfWork) error {
		var err error
		claims, err = e.claimService(uow).ListPendingClaims(ctx, limit)
		return err
	})
	return claims, err
}

// DistributeBonus splits a bonus pool across the cached rank cohorts
func (e *RewardEngine) DistributeBonus(ctx context.Context, pool decimal.Decimal) (*entities.BonusDistribution, error) {
	var distribution *entities.BonusDistribution
	err := e.withUnitOfWork(ctx, OpDistributeBonus, log.Fields{"pool": pool.String()}, func(uow UnitOfWork) error {
		var err error
		distribution, err = services.NewBonusService(
			uow.UserRepository(),
			uow.BonusDistributionRepository(),
			uow.EventBus(),
			e.catalog.RankTable,
		).DistributeBonus(ctx, pool)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordBonusDistributed(distribution.TotalDistributed.InexactFloat64())
	log.WithFields(log.Fields{
		"distribution_id":   distribution.ID,
		"pool":              distribution.PoolAmount.String(),
		"total_distributed": distribution.TotalDistributed.String(),
	}).Info("Bonus distributed")

	return distribution, nil
}

// RegisterUser places a new member in the referral forest
func (e *RewardEngine) RegisterUser(ctx context.Context, req services.RegistrationRequest) (*entities.User, error) {
	var user *entities.User
	err := e.withUnitOfWork(ctx, OpRegisterUser, log.Fields{"login_id": req.LoginID}, func(uow UnitOfWork) error {
		var err error
		user, err = e.memberService(uow).RegisterUser(ctx, req)
		return err
	})
	return user, err
}

// PurchasePosition buys a catalogue template for a member now
func (e *RewardEngine) PurchasePosition(ctx context.Context, userID, templateID int64) (*entities.Position, error) {
	var position *entities.Position
	fields := log.Fields{"user_id": userID, "template_id": templateID}
	err := e.withUnitOfWork(ctx, OpPurchasePosition, fields, func(uow UnitOfWork) error {
		var err error
		position, err = e.memberService(uow).PurchasePosition(ctx, userID, templateID, e.now())
		return err
	})
	return position, err
}

// ListPositions returns a member's positions
func (e *RewardEngine) ListPositions(ctx context.Context, userID int64) ([]*entities.Position, error) {
	var positions []*entities.Position
	err := e.withUnitOfWork(ctx, OpListPositions, log.Fields{"user_id": userID}, func(uow UnitOfWork) error {
		var err error
		positions, err = e.memberService(uow).ListPositions(ctx, userID)
		return err
	})
	return positions, err
}

// ListTemplates returns the purchasable catalogue
func (e *RewardEngine) ListTemplates(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error) {
	var templates []*entities.AssetTemplate
	err := e.withUnitOfWork(ctx, OpListTemplates, nil, func(uow UnitOfWork) error {
		var err error
		templates, err = e.memberService(uow).ListTemplates(ctx, includeSpecial)
		return err
	})
	return templates, err
}

// SeedAssetTemplates upserts the catalogue templates and returns how many were new
func (e *RewardEngine) SeedAssetTemplates(ctx context.Context) (int, error) {
	var created int
	err := e.withUnitOfWork(ctx, OpSeedAssetTemplates, nil, func(uow UnitOfWork) error {
		var err error
		created, err = e.memberService(uow).SeedAssetTemplates(ctx, e.catalog.AssetTemplates)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"templates": len(e.catalog.AssetTemplates),
		"created":   created,
	}).Info("Asset templates seeded")
	return created, nil
}

// LatestAccrualRun returns the most recent accrual watermark, or nil before the first run
func (e *RewardEngine) LatestAccrualRun(ctx context.Context) (*entities.AccrualRun, error) {
	var run *entities.AccrualRun
	err := e.withUnitOfWork(ctx, OpLatestAccrualRun, nil, func(uow UnitOfWork) error {
		var err error
		run, err = uow.AccrualRunRepository().GetLatest(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest accrual run: %w", err)
		}
		return nil
	})
	return run, err
}

// LatestBonusDistribution returns the most recent bonus audit record, or nil if none exists
func (e *RewardEngine) LatestBonusDistribution(ctx context.Context) (*entities.BonusDistribution, error) {
	var distribution *entities.BonusDistribution
	err := e.withUnitOfWork(ctx, OpLatestBonus, nil, func(uow UnitOfWork) error {
		var err error
		distribution, err = uow.BonusDistributionRepository().GetLatest(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest bonus distribution: %w", err)
		}
		return nil
	})
	return distribution, err
}

func (e *RewardEngine) rankService(uow UnitOfWork) *services.RankService {
	return services.NewRankService(
		uow.UserRepository(),
		uow.PositionRepository(),
		uow.EventBus(),
		e.catalog.RankTable,
		e.catalog.MinQualifyingPrice,
	)
}

func (e *RewardEngine) claimService(uow UnitOfWork) *services.ClaimService {
	return services.NewClaimService(
		uow.UserRepository(),
		uow.PositionRepository(),
		uow.ClaimRepository(),
		uow.EventBus(),
		services.NewFeePolicy(e.catalog.Fees),
		e.restoreOnReject,
	)
}

func (e *RewardEngine) memberService(uow UnitOfWork) *services.MemberService {
	return services.NewMemberService(
		uow.UserRepository(),
		uow.AssetTemplateRepository(),
		uow.PositionRepository(),
		uow.EventBus(),
		e.catalog.PositionPolicy,
	)
}

// withUnitOfWork runs fn in a transaction that commits only when fn succeeds.
// Every returned error is an *domain.EngineError.
func (e *RewardEngine) withUnitOfWork(ctx context.Context, operation string, fields log.Fields, fn func(UnitOfWork) error) (err error) {
	done := e.metrics.MeasureOperation(operation)
	defer func() { done(err) }()

	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return e.fail(operation, fields, domain.NewStorageError(err, "failed to begin transaction"))
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return e.fail(operation, fields, err)
	}

	if err := uow.Commit(); err != nil {
		return e.fail(operation, fields, domain.NewStorageError(err, "failed to commit transaction"))
	}
	return nil
}

// fail classifies and logs an operation error
func (e *RewardEngine) fail(operation string, fields log.Fields, err error) error {
	engineErr := domain.AsEngineError(err)

	entry := log.WithFields(fields).WithFields(log.Fields{
		"operation":  operation,
		"error_kind": engineErr.Kind,
	})
	if engineErr.IsUserFacing() {
		entry.WithField("reason", engineErr.UserMessage).Info("Operation refused")
	} else {
		entry.WithError(err).Error("Operation failed")
	}
	return engineErr
}
