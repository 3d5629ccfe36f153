package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserRegistered    EventType = "user_registered"
	EventTypePositionPurchased EventType = "position_purchased"
	EventTypeAccrualCompleted  EventType = "accrual_completed"
	EventTypeClaimSubmitted    EventType = "claim_submitted"
	EventTypeClaimProcessed    EventType = "claim_processed"
	EventTypeRankChanged       EventType = "rank_changed"
	EventTypeBonusDistributed  EventType = "bonus_distributed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserRegisteredEvent is raised when a member joins the referral forest
type UserRegisteredEvent struct {
	UserID     int64  `json:"user_id"`
	ReferrerID *int64 `json:"referrer_id,omitempty"`
	WalletType string `json:"wallet_type"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// PositionPurchasedEvent is raised when a template is bought
type PositionPurchasedEvent struct {
	PositionID       int64           `json:"position_id"`
	UserID           int64           `json:"user_id"`
	TemplateID       int64           `json:"template_id"`
	Price            decimal.Decimal `json:"price"`
	OperationStartAt time.Time       `json:"operation_start_at"`
}

func (e PositionPurchasedEvent) Type() EventType {
	return EventTypePositionPurchased
}

// AccrualCompletedEvent is raised once per accrued business day
type AccrualCompletedEvent struct {
	RunDate        time.Time       `json:"run_date"`
	ProcessedCount int             `json:"processed_count"`
	TotalAccrued   decimal.Decimal `json:"total_accrued"`
}

func (e AccrualCompletedEvent) Type() EventType {
	return EventTypeAccrualCompleted
}

// ClaimSubmittedEvent is raised when a claim enters the pending queue
type ClaimSubmittedEvent struct {
	ClaimID   int64           `json:"claim_id"`
	UserID    int64           `json:"user_id"`
	ClaimType string          `json:"claim_type"`
	Gross     decimal.Decimal `json:"gross"`
	Fee       decimal.Decimal `json:"fee"`
	Net       decimal.Decimal `json:"net"`
}

func (e ClaimSubmittedEvent) Type() EventType {
	return EventTypeClaimSubmitted
}

// ClaimProcessedEvent is raised when an admin approves or rejects a claim
type ClaimProcessedEvent struct {
	ClaimID  int64           `json:"claim_id"`
	UserID   int64           `json:"user_id"`
	Status   string          `json:"status"`
	Restored decimal.Decimal `json:"restored"`
}

func (e ClaimProcessedEvent) Type() EventType {
	return EventTypeClaimProcessed
}

// RankChangedEvent is raised when a classification changes the cached rank
type RankChangedEvent struct {
	UserID  int64  `json:"user_id"`
	OldRank string `json:"old_rank"`
	NewRank string `json:"new_rank"`
}

func (e RankChangedEvent) Type() EventType {
	return EventTypeRankChanged
}

// BonusDistributedEvent is raised after a pool split commits
type BonusDistributedEvent struct {
	DistributionID   int64           `json:"distribution_id"`
	PoolAmount       decimal.Decimal `json:"pool_amount"`
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	RecipientCount   int             `json:"recipient_count"`
}

func (e BonusDistributedEvent) Type() EventType {
	return EventTypeBonusDistributed
}
