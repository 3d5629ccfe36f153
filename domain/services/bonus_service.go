package services

import (
	"context"
	"fmt"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/events"
	"shogun/domain/interfaces"

	"github.com/shopspring/decimal"
)

// bonusPrecision is the number of decimal places per-member shares are rounded to
const bonusPrecision = 8

// BonusService splits a company bonus pool across rank cohorts
type BonusService struct {
	userRepo         interfaces.UserRepository
	distributionRepo interfaces.BonusDistributionRepository
	eventPublisher   interfaces.EventPublisher
	table            entities.RankTable
}

// NewBonusService creates a new bonus service
func NewBonusService(
	userRepo interfaces.UserRepository,
	distributionRepo interfaces.BonusDistributionRepository,
	eventPublisher interfaces.EventPublisher,
	table entities.RankTable,
) *BonusService {
	return &BonusService{
		userRepo:         userRepo,
		distributionRepo: distributionRepo,
		eventPublisher:   eventPublisher,
		table:            table,
	}
}

// DistributeBonus credits each rank cohort pool × distributionRate, split evenly.
// Shares of empty ranks stay undistributed.
func (s *BonusService) DistributeBonus(ctx context.Context, pool decimal.Decimal) (*entities.BonusDistribution, error) {
	if !pool.IsPositive() {
		return nil, domain.NewValidationError("bonus pool must be greater than zero")
	}

	distribution := &entities.BonusDistribution{
		PoolAmount:       pool,
		TotalDistributed: decimal.Zero,
		Breakdown:        make([]entities.RankBonusBreakdown, 0, len(s.table)),
	}
	recipients := 0

	for _, tier := range s.table {
		members, err := s.userRepo.GetByRankForUpdate(ctx, tier.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get members ranked %s: %w", tier.Name, err)
		}

		entry := entities.RankBonusBreakdown{
			Rank:             tier.Name,
			MemberCount:      len(members),
			DistributionRate: tier.DistributionRate,
			BonusRate:        tier.BonusRate,
			RankBonus:        decimal.Zero,
			PerUserBonus:     decimal.Zero,
		}

		if len(members) > 0 {
			entry.RankBonus = pool.Mul(tier.DistributionRate)
			entry.PerUserBonus = entry.RankBonus.DivRound(decimal.NewFromInt(int64(len(members))), bonusPrecision)

			ids := make([]int64, len(members))
			for i, m := range members {
				ids[i] = m.ID
			}
			if err := s.userRepo.AddBonusBalance(ctx, ids, entry.PerUserBonus); err != nil {
				return nil, fmt.Errorf("failed to credit %s bonus: %w", tier.Name, err)
			}

			distribution.TotalDistributed = distribution.TotalDistributed.Add(
				entry.PerUserBonus.Mul(decimal.NewFromInt(int64(len(members)))))
			recipients += len(members)
		}

		distribution.Breakdown = append(distribution.Breakdown, entry)
	}

	if err := s.distributionRepo.Create(ctx, distribution); err != nil {
		return nil, fmt.Errorf("failed to record bonus distribution: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BonusDistributedEvent{
		DistributionID:   distribution.ID,
		PoolAmount:       pool,
		TotalDistributed: distribution.TotalDistributed,
		RecipientCount:   recipients,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish bonus distribution: %w", err)
	}

	return distribution, nil
}
