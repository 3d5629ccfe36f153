package services

import (
	"context"
	"fmt"
	"time"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/events"
	"shogun/domain/interfaces"
	"shogun/domain/utils"

	"github.com/shopspring/decimal"
)

// AccrualService credits one business day of yield to every operating position
type AccrualService struct {
	positionRepo   interfaces.PositionRepository
	runRepo        interfaces.AccrualRunRepository
	eventPublisher interfaces.EventPublisher
	location       *time.Location
}

// NewAccrualService creates a new accrual service.
// Business days are judged by the calendar in location.
func NewAccrualService(
	positionRepo interfaces.PositionRepository,
	runRepo interfaces.AccrualRunRepository,
	eventPublisher interfaces.EventPublisher,
	location *time.Location,
) *AccrualService {
	if location == nil {
		location = time.UTC
	}
	return &AccrualService{
		positionRepo:   positionRepo,
		runRepo:        runRepo,
		eventPublisher: eventPublisher,
		location:       location,
	}
}

// RunDailyAccrual accrues yield for asOf's business date. Weekends and dates that
// already have a run are no-ops reporting a zero count.
func (s *AccrualService) RunDailyAccrual(ctx context.Context, asOf time.Time) (*entities.AccrualResult, error) {
	local := asOf.In(s.location)
	runDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	result := &entities.AccrualResult{
		RunDate:      runDate,
		TotalAccrued: decimal.Zero,
	}

	if !utils.IsBusinessDay(local) {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("%s is not a business day", local.Weekday())
		return result, nil
	}

	run := &entities.AccrualRun{
		RunDate:          runDate,
		TotalAccrued:     decimal.Zero,
		ExecutionSummary: map[string]interface{}{},
	}
	claimed, err := s.runRepo.TryCreate(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to claim accrual run for %s: %w", runDate.Format("2006-01-02"), err)
	}
	if !claimed {
		result.AlreadyProcessed = true
		return result, nil
	}

	startedBefore := utils.DateOnly(local).AddDate(0, 0, 1)
	positions, err := s.positionRepo.GetAccruableForUpdate(ctx, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to load accruable positions: %w", err)
	}

	reachedCap := 0
	for _, position := range positions {
		if !position.IsOperating(local) {
			continue
		}

		applied, err := position.ApplyAccrual(position.DailyYield())
		if err != nil {
			return nil, domain.NewDataIntegrityError(err, fmt.Sprintf("position %d failed accrual invariants", position.ID))
		}
		if applied.IsZero() {
			continue
		}

		if err := s.positionRepo.UpdateAccrual(ctx, position.ID, position.Accrued, position.LifetimeAccrued); err != nil {
			return nil, fmt.Errorf("failed to update accrual of position %d: %w", position.ID, err)
		}

		result.ProcessedCount++
		result.TotalAccrued = result.TotalAccrued.Add(applied)
		if position.AtCap() {
			reachedCap++
		}
	}

	run.PositionsProcessed = result.ProcessedCount
	run.TotalAccrued = result.TotalAccrued
	run.ExecutionSummary = map[string]interface{}{
		"positions_scanned": len(positions),
		"positions_capped":  reachedCap,
		"business_timezone": s.location.String(),
		"as_of":             asOf.UTC().Format(time.RFC3339),
	}
	if err := s.runRepo.Complete(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record accrual run totals: %w", err)
	}

	if err := s.eventPublisher.Publish(events.AccrualCompletedEvent{
		RunDate:        runDate,
		ProcessedCount: result.ProcessedCount,
		TotalAccrued:   result.TotalAccrued,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish accrual completion: %w", err)
	}

	return result, nil
}
