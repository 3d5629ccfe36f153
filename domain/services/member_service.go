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

// MemberService registers members and manages their asset positions
type MemberService struct {
	userRepo       interfaces.UserRepository
	templateRepo   interfaces.AssetTemplateRepository
	positionRepo   interfaces.PositionRepository
	eventPublisher interfaces.EventPublisher
	policy         entities.PositionPolicy
}

// NewMemberService creates a new member service
func NewMemberService(
	userRepo interfaces.UserRepository,
	templateRepo interfaces.AssetTemplateRepository,
	positionRepo interfaces.PositionRepository,
	eventPublisher interfaces.EventPublisher,
	policy entities.PositionPolicy,
) *MemberService {
	return &MemberService{
		userRepo:       userRepo,
		templateRepo:   templateRepo,
		positionRepo:   positionRepo,
		eventPublisher: eventPublisher,
		policy:         policy,
	}
}

// RegistrationRequest carries the data needed to place a new member in the forest
type RegistrationRequest struct {
	LoginID    string
	Name       string
	ReferrerID *int64
	WalletType entities.WalletType
}

// RegisterUser creates a member under an existing referrer, or as a new root
func (s *MemberService) RegisterUser(ctx context.Context, req RegistrationRequest) (*entities.User, error) {
	loginID := strings.TrimSpace(req.LoginID)
	name := strings.TrimSpace(req.Name)
	if loginID == "" || name == "" {
		return nil, domain.NewValidationError("login id and name are required")
	}
	wallet := req.WalletType
	if wallet == "" {
		wallet = entities.WalletTypeOther
	}
	if !wallet.IsValid() {
		return nil, domain.NewValidationErrorf("invalid wallet type %q", req.WalletType)
	}

	existing, err := s.userRepo.GetByLoginID(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("failed to check login id %s: %w", loginID, err)
	}
	if existing != nil {
		return nil, domain.NewValidationErrorf("login id %s is already registered", loginID)
	}

	if req.ReferrerID != nil {
		referrer, err := s.userRepo.GetByID(ctx, *req.ReferrerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get referrer %d: %w", *req.ReferrerID, err)
		}
		if referrer == nil {
			return nil, domain.NewValidationErrorf("referrer %d not found", *req.ReferrerID)
		}
	}

	user := &entities.User{
		LoginID:      loginID,
		Name:         name,
		ReferrerID:   req.ReferrerID,
		WalletType:   wallet,
		BonusBalance: decimal.Zero,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", loginID, err)
	}

	if err := s.eventPublisher.Publish(events.UserRegisteredEvent{
		UserID:     user.ID,
		ReferrerID: user.ReferrerID,
		WalletType: string(user.WalletType),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish registration: %w", err)
	}

	return user, nil
}

// PurchasePosition buys one instance of a catalogue template for a member
func (s *MemberService) PurchasePosition(ctx context.Context, userID, templateID int64, at time.Time) (*entities.Position, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewValidationErrorf("user %d not found", userID)
	}

	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get template %d: %w", templateID, err)
	}
	if template == nil {
		return nil, domain.NewValidationErrorf("asset template %d not found", templateID)
	}
	if !template.IsPurchasable() {
		return nil, domain.NewValidationErrorf("asset template %s is not available for purchase", template.Name)
	}

	position := entities.NewPosition(userID, template, at, s.policy)
	if err := s.positionRepo.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to create position for user %d: %w", userID, err)
	}

	if err := s.eventPublisher.Publish(events.PositionPurchasedEvent{
		PositionID:       position.ID,
		UserID:           userID,
		TemplateID:       templateID,
		Price:            position.Price,
		OperationStartAt: position.OperationStartAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish purchase: %w", err)
	}

	return position, nil
}

// ListPositions returns a member's positions
func (s *MemberService) ListPositions(ctx context.Context, userID int64) ([]*entities.Position, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewValidationErrorf("user %d not found", userID)
	}

	positions, err := s.positionRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions of user %d: %w", userID, err)
	}
	return positions, nil
}

// SeedAssetTemplates upserts catalogue templates by name and returns how many were new
func (s *MemberService) SeedAssetTemplates(ctx context.Context, templates []entities.AssetTemplate) (int, error) {
	created := 0
	for i := range templates {
		template := templates[i]
		if err := template.Validate(); err != nil {
			return 0, domain.NewValidationErrorf("template %q: %v", template.Name, err)
		}
		isNew, err := s.templateRepo.Upsert(ctx, &template)
		if err != nil {
			return 0, fmt.Errorf("failed to seed template %s: %w", template.Name, err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// ListTemplates returns the purchasable catalogue
func (s *MemberService) ListTemplates(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error) {
	templates, err := s.templateRepo.List(ctx, includeSpecial)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset templates: %w", err)
	}
	return templates, nil
}
