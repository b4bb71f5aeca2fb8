package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cabshare/internal/lib/sl"
	"cabshare/internal/metrics"
)

// TripRefresher is the part of the trip service a refresh tick drives.
type TripRefresher interface {
	Reload(ctx context.Context) error
	PublishAll(ctx context.Context) error
}

// Refresher periodically reloads state from storage so changes made by
// other processes become visible, then republishes trip statuses and the
// metrics textfile.
type Refresher struct {
	trips    TripRefresher
	metrics  *metrics.Metrics
	textfile string
	interval time.Duration
	nrApp    *newrelic.Application
	log      *slog.Logger
}

// NewRefresher creates a new Refresher. An empty textfile skips writing
// metrics; a nil nrApp skips tracing.
func NewRefresher(
	trips TripRefresher,
	m *metrics.Metrics,
	textfile string,
	interval time.Duration,
	nrApp *newrelic.Application,
	log *slog.Logger,
) *Refresher {
	return &Refresher{
		trips:    trips,
		metrics:  m,
		textfile: textfile,
		interval: interval,
		nrApp:    nrApp,
		log:      log,
	}
}

// Run ticks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one refresh. Failures are logged and the next tick tries again.
func (r *Refresher) Tick(ctx context.Context) {
	const op = "app.Refresher.Tick"
	log := r.log.With(slog.String("op", op))

	if r.nrApp != nil {
		txn := r.nrApp.StartTransaction("refresh")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	if err := r.trips.Reload(ctx); err != nil {
		log.Error("failed to reload state", sl.Err(err))
		newrelic.FromContext(ctx).NoticeError(err)
		return
	}

	if err := r.trips.PublishAll(ctx); err != nil {
		log.Warn("failed to publish trip statuses", sl.Err(err))
		newrelic.FromContext(ctx).NoticeError(err)
	}

	if r.textfile != "" {
		if err := r.metrics.WriteTextfile(r.textfile); err != nil {
			log.Warn("failed to write metrics textfile", slog.String("path", r.textfile), sl.Err(err))
		}
	}

	log.Debug("refreshed")
}
