// internal/monitoring/engine.go
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nagwatch/internal/config"
	"nagwatch/internal/database"
	"nagwatch/internal/metrics"
	"nagwatch/internal/nagios"
)

// Broadcaster pushes events to live clients. The web server implements it.
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

// Engine keeps the snapshot warm, exports its metrics and announces refreshes
// and state changes. It also purges the command journal.
type Engine struct {
	config      *config.Config
	client      *nagios.Client
	store       database.Store
	metrics     *metrics.Collector
	broadcaster Broadcaster
	tracker     *StateTracker
	now         func() time.Time

	mu       sync.Mutex
	running  bool
	lastSeen time.Time
}

func NewEngine(cfg *config.Config, client *nagios.Client, store database.Store, metricsCollector *metrics.Collector) *Engine {
	return &Engine{
		config:  cfg,
		client:  client,
		store:   store,
		metrics: metricsCollector,
		tracker: NewStateTracker(),
		now:     time.Now,
	}
}

func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	e.broadcaster = b
	e.mu.Unlock()
}

// Start polls until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logrus.WithFields(logrus.Fields{
		"poll_interval":    e.config.Monitoring.PollInterval,
		"cleanup_interval": e.config.Database.CleanupInterval,
	}).Info("Starting monitoring engine")

	pollTicker := time.NewTicker(e.config.Monitoring.PollInterval)
	defer pollTicker.Stop()
	cleanupTicker := time.NewTicker(e.config.Database.CleanupInterval)
	defer cleanupTicker.Stop()

	e.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stopping monitoring engine")
			return nil
		case <-pollTicker.C:
			e.Poll(ctx)
		case <-cleanupTicker.C:
			if _, err := e.Purge(ctx); err != nil {
				logrus.WithError(err).Error("Failed to purge command history")
			}
		}
	}
}

// Poll runs one refresh cycle. Load errors are logged and reported, the
// previous snapshot stays in place.
func (e *Engine) Poll(ctx context.Context) error {
	snap, loadedAt, err := e.client.SnapshotAt()
	if err != nil {
		logrus.WithError(err).Warn("Status poll failed")
		return err
	}
	if e.metrics != nil {
		e.metrics.UpdateSnapshotAge(loadedAt, e.now())
		if err := e.metrics.UpdateSystemMetrics(ctx); err != nil {
			logrus.WithError(err).Error("Failed to update system metrics")
		}
	}

	e.mu.Lock()
	fresh := !loadedAt.Equal(e.lastSeen)
	e.lastSeen = loadedAt
	b := e.broadcaster
	e.mu.Unlock()

	if !fresh {
		return nil
	}

	changes := e.tracker.Update(snap, loadedAt)
	for _, ch := range changes {
		logrus.WithFields(logrus.Fields{
			"host":    ch.HostName,
			"service": ch.ServiceDescription,
			"from":    ch.From,
			"to":      ch.To,
		}).Info("State change reported")
	}

	if b != nil {
		b.Broadcast("snapshot_refreshed", snap.Summary())
		if len(changes) > 0 {
			b.Broadcast("state_changed", changes)
		}
	}
	return nil
}

// Purge drops journal entries older than the configured retention.
func (e *Engine) Purge(ctx context.Context) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	cutoff := e.now().Add(-e.config.Database.HistoryRetention)
	deleted, err := e.store.DeleteHistoryBefore(ctx, cutoff)
	if e.metrics != nil {
		e.metrics.RecordDatabaseOperation("purge_history", err)
	}
	return deleted, err
}
