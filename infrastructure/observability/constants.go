package observability

// Metric name prefixes
const (
	MetricPrefix = "shogun_engine"
)

// Metric names
const (
	// Engine operation metrics
	OperationsTotal   = MetricPrefix + ".operations.total"
	OperationDuration = MetricPrefix + ".operations.duration"

	// Reward metrics
	PositionsAccruedTotal = MetricPrefix + ".accrual.positions_total"
	ClaimsTotal           = MetricPrefix + ".claims.total"

	// Rank metrics
	RankChangesTotal    = MetricPrefix + ".ranks.changes_total"
	BonusDistributedSum  = MetricPrefix + ".bonus.distributed"

	// NATS metrics
	EventsPublishedTotal = MetricPrefix + ".nats.events_published_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelRank      = "rank"
)

// Operation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)
