package application

import (
	"context"
	"sync"
	"time"

	"shogun/domain/entities"
	"shogun/domain/utils"

	log "github.com/sirupsen/logrus"
)

// DailyAccruer is the engine entry point the worker triggers
type DailyAccruer interface {
	RunDailyAccrual(ctx context.Context, asOf time.Time) (*entities.AccrualResult, error)
}

// AccrualWorker fires the daily accrual once a day at a fixed hour of the business timezone.
// It is only a trigger; the per-date watermark keeps repeated or overlapping runs harmless.
type AccrualWorker struct {
	accruer  DailyAccruer
	hour     int
	location *time.Location
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

// NewAccrualWorker creates a new accrual worker
func NewAccrualWorker(accruer DailyAccruer, hour int, location *time.Location) *AccrualWorker {
	if location == nil {
		location = time.UTC
	}
	return &AccrualWorker{
		accruer:  accruer,
		hour:     hour,
		location: location,
		now:      time.Now,
		after:    time.After,
	}
}

// Start runs the worker loop in a goroutine and returns a stop function
func (w *AccrualWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		log.WithFields(log.Fields{
			"hour":     w.hour,
			"timezone": w.location.String(),
		}).Info("Accrual worker started")

		for {
			next := utils.NextRunAt(w.now(), w.hour, w.location)
			wait := next.Sub(w.now())
			log.WithField("next_run", next.Format(time.RFC3339)).Debug("Accrual worker waiting")

			select {
			case <-ctx.Done():
				log.Info("Accrual worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Accrual worker shutting down (stop requested)...")
				return
			case <-w.after(wait):
				w.runOnce(ctx)
			}
		}
	}()

	return func() {
		stopOnce.Do(func() { close(stopChan) })
	}
}

// runOnce triggers one accrual; errors are logged and the loop carries on
func (w *AccrualWorker) runOnce(ctx context.Context) {
	result, err := w.accruer.RunDailyAccrual(ctx, w.now())
	if err != nil {
		log.WithError(err).Error("Scheduled accrual failed")
		return
	}

	log.WithFields(log.Fields{
		"run_date":          result.RunDate.Format("2006-01-02"),
		"processed":         result.ProcessedCount,
		"skipped":           result.Skipped,
		"already_processed": result.AlreadyProcessed,
		"source":            "accrual_worker",
	}).Info("Scheduled accrual completed")
}
