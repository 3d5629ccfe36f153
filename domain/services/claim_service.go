package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/events"
	"shogun/domain/interfaces"

	"github.com/shopspring/decimal"
)

// DefaultPendingClaimsLimit caps admin claim listings when no limit is given
const DefaultPendingClaimsLimit = 100

// ClaimService turns accrued yield into pending claims and settles them
type ClaimService struct {
	userRepo        interfaces.UserRepository
	positionRepo    interfaces.PositionRepository
	claimRepo       interfaces.ClaimRepository
	eventPublisher  interfaces.EventPublisher
	feePolicy       FeePolicy
	restoreOnReject bool
	now             func() time.Time
}

// NewClaimService creates a new claim service.
// When restoreOnReject is set, rejecting a claim hands its reserved yield back to the positions.
func NewClaimService(
	userRepo interfaces.UserRepository,
	positionRepo interfaces.PositionRepository,
	claimRepo interfaces.ClaimRepository,
	eventPublisher interfaces.EventPublisher,
	feePolicy FeePolicy,
	restoreOnReject bool,
) *ClaimService {
	return &ClaimService{
		userRepo:        userRepo,
		positionRepo:    positionRepo,
		claimRepo:       claimRepo,
		eventPublisher:  eventPublisher,
		feePolicy:       feePolicy,
		restoreOnReject: restoreOnReject,
		now:             time.Now,
	}
}

// SubmitClaim gathers every position's unclaimed yield into one pending claim
func (s *ClaimService) SubmitClaim(ctx context.Context, userID int64, claimType entities.ClaimType, note string) (*entities.ClaimQuote, error) {
	if !claimType.IsValid() {
		return nil, domain.NewValidationErrorf("invalid claim type %q", claimType)
	}
	note = strings.TrimSpace(note)
	if claimType.RequiresNote() && note == "" {
		return nil, domain.NewValidationError("a note is required for payout claims")
	}

	// Locking the member row serialises concurrent submissions for the same member
	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewValidationErrorf("user %d not found", userID)
	}

	positions, err := s.positionRepo.GetByUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock positions of user %d: %w", userID, err)
	}

	gross := decimal.Zero
	allocations := make([]entities.ClaimAllocation, 0, len(positions))
	for _, position := range positions {
		if !position.HasReward() {
			continue
		}
		if err := position.CheckInvariants(); err != nil {
			return nil, domain.NewDataIntegrityError(err, fmt.Sprintf("position %d failed invariants before claim", position.ID))
		}
		allocations = append(allocations, entities.ClaimAllocation{
			PositionID: position.ID,
			Amount:     position.Accrued,
		})
		gross = gross.Add(position.Accrued)
	}
	if !gross.IsPositive() {
		return nil, domain.NewNoRewardAvailableError(userID)
	}

	fee, net := s.feePolicy.Compute(claimType, user.WalletType, gross)

	claim := &entities.Claim{
		UserID:    userID,
		ClaimType: claimType,
		Gross:     gross,
		Fee:       fee,
		Net:       net,
		Status:    entities.ClaimStatusPending,
	}
	if note != "" {
		claim.Note = &note
	}
	if err := claim.CheckAmounts(); err != nil {
		return nil, domain.NewDataIntegrityError(err, "computed claim amounts are inconsistent")
	}

	if err := s.claimRepo.Create(ctx, claim, allocations); err != nil {
		return nil, fmt.Errorf("failed to create claim for user %d: %w", userID, err)
	}

	for _, position := range positions {
		if !position.HasReward() {
			continue
		}
		position.Release()
		if err := s.positionRepo.UpdateAccrual(ctx, position.ID, position.Accrued, position.LifetimeAccrued); err != nil {
			return nil, fmt.Errorf("failed to release accrual of position %d: %w", position.ID, err)
		}
	}

	if err := s.eventPublisher.Publish(events.ClaimSubmittedEvent{
		ClaimID:   claim.ID,
		UserID:    userID,
		ClaimType: string(claimType),
		Gross:     gross,
		Fee:       fee,
		Net:       net,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish claim submission: %w", err)
	}

	return claim.Quote(), nil
}

// ApproveClaim marks a pending claim approved
func (s *ClaimService) ApproveClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	claim, err := s.lockPending(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := claim.Approve(s.now()); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := s.claimRepo.UpdateStatus(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to approve claim %d: %w", claimID, err)
	}

	if err := s.publishProcessed(claim, decimal.Zero); err != nil {
		return nil, err
	}
	return claim, nil
}

// RejectClaim marks a pending claim rejected and, when configured, restores its reserved yield
func (s *ClaimService) RejectClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	claim, err := s.lockPending(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := claim.Reject(s.now()); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	restored := decimal.Zero
	if s.restoreOnReject {
		restored, err = s.restoreAllocations(ctx, claim.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.claimRepo.UpdateStatus(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to reject claim %d: %w", claimID, err)
	}

	if err := s.publishProcessed(claim, restored); err != nil {
		return nil, err
	}
	return claim, nil
}

// ListPendingClaims returns pending claims oldest first
func (s *ClaimService) ListPendingClaims(ctx context.Context, limit int) ([]*entities.Claim, error) {
	if limit <= 0 {
		limit = DefaultPendingClaimsLimit
	}
	claims, err := s.claimRepo.ListByStatus(ctx, entities.ClaimStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}
	return claims, nil
}

func (s *ClaimService) lockPending(ctx context.Context, claimID int64) (*entities.Claim, error) {
	claim, err := s.claimRepo.GetByIDForUpdate(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock claim %d: %w", claimID, err)
	}
	if claim == nil {
		return nil, domain.NewValidationErrorf("claim %d not found", claimID)
	}
	if !claim.IsPending() {
		return nil, domain.NewValidationErrorf("claim %d is already %s", claimID, claim.Status)
	}
	return claim, nil
}

func (s *ClaimService) restoreAllocations(ctx context.Context, claimID int64) (decimal.Decimal, error) {
	allocations, err := s.claimRepo.GetAllocations(ctx, claimID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get allocations of claim %d: %w", claimID, err)
	}
	if len(allocations) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]int64, len(allocations))
	for i, a := range allocations {
		ids[i] = a.PositionID
	}
	positions, err := s.positionRepo.GetByIDsForUpdate(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to lock positions of claim %d: %w", claimID, err)
	}
	byID := make(map[int64]*entities.Position, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}

	total := decimal.Zero
	for _, a := range allocations {
		position, ok := byID[a.PositionID]
		if !ok {
			return decimal.Zero, domain.NewDataIntegrityError(nil,
				fmt.Sprintf("claim %d allocation references missing position %d", claimID, a.PositionID))
		}
		delta := position.Restore(a.Amount)
		if delta.IsZero() {
			continue
		}
		if err := position.CheckInvariants(); err != nil {
			return decimal.Zero, domain.NewDataIntegrityError(err, fmt.Sprintf("position %d failed invariants on restore", position.ID))
		}
		if err := s.positionRepo.UpdateAccrual(ctx, position.ID, position.Accrued, position.LifetimeAccrued); err != nil {
			return decimal.Zero, fmt.Errorf("failed to restore accrual of position %d: %w", position.ID, err)
		}
		total = total.Add(delta)
	}

	return total, nil
}

func (s *ClaimService) publishProcessed(claim *entities.Claim, restored decimal.Decimal) error {
	if err := s.eventPublisher.Publish(events.ClaimProcessedEvent{
		ClaimID:  claim.ID,
		UserID:   claim.UserID,
		Status:   string(claim.Status),
		Restored: restored,
	}); err != nil {
		return fmt.Errorf("failed to publish claim %d outcome: %w", claim.ID, err)
	}
	return nil
}
