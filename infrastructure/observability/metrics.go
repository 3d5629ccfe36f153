package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shogun/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	operationsCounter      metric.Int64Counter
	operationDurationHist  metric.Float64Histogram
	positionsAccruedCount  metric.Int64Counter
	claimsCounter          metric.Int64Counter
	rankChangesCounter     metric.Int64Counter
	bonusDistributedSum    metric.Float64Counter
	eventsPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the exporter and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter(mp.config.OTelServiceName)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.operationsCounter, err = mp.meter.Int64Counter(
		OperationsTotal,
		metric.WithDescription("Total number of engine operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	mp.operationDurationHist, err = mp.meter.Float64Histogram(
		OperationDuration,
		metric.WithDescription("Duration of engine operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	mp.positionsAccruedCount, err = mp.meter.Int64Counter(
		PositionsAccruedTotal,
		metric.WithDescription("Total number of positions credited by daily accrual"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create positions accrued counter: %w", err)
	}

	mp.claimsCounter, err = mp.meter.Int64Counter(
		ClaimsTotal,
		metric.WithDescription("Total number of submitted claims"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create claims counter: %w", err)
	}

	mp.rankChangesCounter, err = mp.meter.Int64Counter(
		RankChangesTotal,
		metric.WithDescription("Total number of cached rank changes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rank changes counter: %w", err)
	}

	mp.bonusDistributedSum, err = mp.meter.Float64Counter(
		BonusDistributedSum,
		metric.WithDescription("Total bonus amount credited to members"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bonus distributed counter: %w", err)
	}

	mp.eventsPublishedCounter, err = mp.meter.Int64Counter(
		EventsPublishedTotal,
		metric.WithDescription("Total number of domain events published to NATS"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create events published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// MeasureOperation returns a function that records one engine operation.
// Usage:
//
//	done := mp.MeasureOperation("submit_claim")
//	defer func() { done(err) }()
func (mp *MetricsProvider) MeasureOperation(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		if !mp.isEnabled() {
			return
		}

		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
		}
		attrs := metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelOutcome, outcome),
		)
		mp.operationsCounter.Add(context.Background(), 1, attrs)
		mp.operationDurationHist.Record(context.Background(), time.Since(start).Seconds(), attrs)
	}
}

// RecordPositionsAccrued records how many positions one accrual run credited
func (mp *MetricsProvider) RecordPositionsAccrued(count int) {
	if !mp.isEnabled() {
		return
	}
	mp.positionsAccruedCount.Add(context.Background(), int64(count))
}

// RecordClaim records a submitted claim by type
func (mp *MetricsProvider) RecordClaim(claimType string) {
	if !mp.isEnabled() {
		return
	}
	mp.claimsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, claimType)),
	)
}

// RecordRankChange records a cached rank moving to a new value
func (mp *MetricsProvider) RecordRankChange(newRank string) {
	if !mp.isEnabled() {
		return
	}
	mp.rankChangesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelRank, newRank)),
	)
}

// RecordBonusDistributed records the amount credited by one distribution
func (mp *MetricsProvider) RecordBonusDistributed(amount float64) {
	if !mp.isEnabled() {
		return
	}
	mp.bonusDistributedSum.Add(context.Background(), amount)
}

// RecordEventPublished records a domain event reaching NATS
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.eventsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// isEnabled reports whether instruments exist to record into
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider; nil until initialized.
// Every Record method is safe to call on a nil provider.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
