package infrastructure

import (
	"fmt"

	"shogun/domain/events"
)

const (
	SubjectUserRegistered    = "members.registered"
	SubjectPositionPurchased = "positions.purchased"
	SubjectAccrualCompleted  = "rewards.accrual.completed"
	SubjectClaimSubmitted    = "rewards.claims.submitted"
	SubjectClaimProcessed    = "rewards.claims.processed"
	SubjectRankChanged       = "ranks.changed"
	SubjectBonusDistributed  = "ranks.bonus.distributed"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeUserRegistered:
		return SubjectUserRegistered
	case events.EventTypePositionPurchased:
		return SubjectPositionPurchased
	case events.EventTypeAccrualCompleted:
		return SubjectAccrualCompleted
	case events.EventTypeClaimSubmitted:
		return SubjectClaimSubmitted
	case events.EventTypeClaimProcessed:
		return SubjectClaimProcessed
	case events.EventTypeRankChanged:
		return SubjectRankChanged
	case events.EventTypeBonusDistributed:
		return SubjectBonusDistributed
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectUserRegistered:
		return events.EventTypeUserRegistered
	case SubjectPositionPurchased:
		return events.EventTypePositionPurchased
	case SubjectAccrualCompleted:
		return events.EventTypeAccrualCompleted
	case SubjectClaimSubmitted:
		return events.EventTypeClaimSubmitted
	case SubjectClaimProcessed:
		return events.EventTypeClaimProcessed
	case SubjectRankChanged:
		return events.EventTypeRankChanged
	case SubjectBonusDistributed:
		return events.EventTypeBonusDistributed
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that the engine publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectUserRegistered,
		SubjectPositionPurchased,
		SubjectAccrualCompleted,
		SubjectClaimSubmitted,
		SubjectClaimProcessed,
		SubjectRankChanged,
		SubjectBonusDistributed,
	}
}
