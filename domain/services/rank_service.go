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

// RankService classifies members into MLM ranks from their downstream lines
type RankService struct {
	userRepo           interfaces.UserRepository
	positionRepo       interfaces.PositionRepository
	eventPublisher     interfaces.EventPublisher
	table              entities.RankTable
	minQualifyingPrice decimal.Decimal
}

// NewRankService creates a new rank service
func NewRankService(
	userRepo interfaces.UserRepository,
	positionRepo interfaces.PositionRepository,
	eventPublisher interfaces.EventPublisher,
	table entities.RankTable,
	minQualifyingPrice decimal.Decimal,
) *RankService {
	return &RankService{
		userRepo:           userRepo,
		positionRepo:       positionRepo,
		eventPublisher:     eventPublisher,
		table:              table,
		minQualifyingPrice: minQualifyingPrice,
	}
}

// ClassifyRank computes a member's rank and writes it to the cached rank column
func (s *RankService) ClassifyRank(ctx context.Context, userID int64) (*entities.RankResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewValidationErrorf("user %d not found", userID)
	}

	result, err := s.evaluate(ctx, user)
	if err != nil {
		return nil, err
	}

	changed, err := s.persist(ctx, user, result.Rank)
	if err != nil {
		return nil, err
	}
	result.Changed = changed

	return result, nil
}

func (s *RankService) evaluate(ctx context.Context, user *entities.User) (*entities.RankResult, error) {
	personal, err := s.positionRepo.SumPriceByUsers(ctx, []int64{user.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to sum investment of user %d: %w", user.ID, err)
	}

	result := &entities.RankResult{
		UserID: user.ID,
		Stats: entities.RankStats{
			PersonalInvestment: personal[user.ID],
			MaxLine:            decimal.Zero,
			OtherLines:         decimal.Zero,
		},
	}

	maxPrice, err := s.positionRepo.MaxPriceByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get largest position of user %d: %w", user.ID, err)
	}
	if maxPrice.LessThan(s.minQualifyingPrice) {
		result.Reason = fmt.Sprintf("requires a position priced at %s or more", s.minQualifyingPrice.String())
		return result, nil
	}

	graph, err := BuildReferralGraph(ctx, s.userRepo, user.ID)
	if err != nil {
		return nil, err
	}

	investments := map[int64]decimal.Decimal{}
	if members := graph.Members(); len(members) > 0 {
		investments, err = s.positionRepo.SumPriceByUsers(ctx, members)
		if err != nil {
			return nil, fmt.Errorf("failed to sum downstream investment of user %d: %w", user.ID, err)
		}
	}

	lines := graph.Lines(investments)
	maxLine, otherLines := splitLines(lines)

	tier := s.table.Classify(maxLine, otherLines)
	rank := tier.Name

	result.Rank = &rank
	result.Lines = lines
	result.Stats.MaxLine = maxLine
	result.Stats.OtherLines = otherLines
	result.Stats.DownstreamMembers = graph.DownstreamCount()
	result.Stats.LineCount = graph.LineCount()

	return result, nil
}

// splitLines returns the largest line total and the sum of every other line
func splitLines(lines []entities.LineSummary) (decimal.Decimal, decimal.Decimal) {
	maxLine := decimal.Zero
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalInvestment)
		if line.TotalInvestment.GreaterThan(maxLine) {
			maxLine = line.TotalInvestment
		}
	}
	return maxLine, total.Sub(maxLine)
}

// persist writes the rank cache and reports whether it changed
func (s *RankService) persist(ctx context.Context, user *entities.User, rank *entities.RankName) (bool, error) {
	oldRank := user.RankOrEmpty()
	var newRank entities.RankName
	if rank != nil {
		newRank = *rank
	}
	if oldRank == newRank {
		return false, nil
	}

	if err := s.userRepo.UpdateRank(ctx, user.ID, rank); err != nil {
		return false, fmt.Errorf("failed to update rank of user %d: %w", user.ID, err)
	}
	user.Rank = rank

	if err := s.eventPublisher.Publish(events.RankChangedEvent{
		UserID:  user.ID,
		OldRank: string(oldRank),
		NewRank: string(newRank),
	}); err != nil {
		return false, fmt.Errorf("failed to publish rank change: %w", err)
	}

	return true, nil
}
