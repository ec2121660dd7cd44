// internal/metrics/prometheus.go
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nagwatch/internal/command"
	"nagwatch/internal/database"
	"nagwatch/internal/status"
)

// Prometheus metrics
var (
	SnapshotParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nagwatch_snapshot_parse_duration_seconds",
			Help:    "Time spent reading and parsing the status file",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagwatch_snapshot_loads_total",
			Help: "Status file loads by result",
		},
		[]string{"result"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagwatch_snapshot_cache_hits_total",
			Help: "Queries answered from the cached snapshot",
		},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagwatch_snapshot_age_seconds",
			Help: "Age of the cached status snapshot",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagwatch_commands_total",
			Help: "External commands submitted, by command and result",
		},
		[]string{"command", "result"},
	)

	HostState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nagwatch_host_state",
			Help: "Current host state as reported by the daemon (0=UP, 1=DOWN, 2=UNREACHABLE)",
		},
		[]string{"host"},
	)

	ServiceState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nagwatch_service_state",
			Help: "Current service state as reported by the daemon (0=OK, 1=Warning, 2=Critical, 3=Unknown)",
		},
		[]string{"host", "service"},
	)

	HostsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagwatch_hosts_total",
			Help: "Number of hosts in the current snapshot",
		},
	)

	ServicesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagwatch_services_total",
			Help: "Number of services in the current snapshot",
		},
	)

	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagwatch_database_operations_total",
			Help: "Total database operations performed",
		},
		[]string{"operation", "status"},
	)

	JournalEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagwatch_journal_entries",
			Help: "Commands currently held in the journal",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagwatch_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

// Collector feeds the metrics above. It satisfies nagios.Observer.
type Collector struct {
	store database.Store
}

func NewCollector(store database.Store) *Collector {
	return &Collector{store: store}
}

func (c *Collector) SnapshotLoaded(snap *status.Snapshot, took time.Duration) {
	SnapshotLoads.WithLabelValues("success").Inc()
	SnapshotParseDuration.Observe(took.Seconds())
	c.UpdateSnapshotMetrics(snap)
}

func (c *Collector) SnapshotFailed(err error) {
	SnapshotLoads.WithLabelValues("error").Inc()
}

func (c *Collector) CacheHit() {
	CacheHits.Inc()
}

func (c *Collector) CommandsSubmitted(cmds []command.Command, err error) {
	result := getResultLabel(err)
	for _, cmd := range cmds {
		CommandsTotal.WithLabelValues(cmd.Name(), result).Inc()
	}
}

// UpdateSnapshotMetrics replaces the state gauges with the content of snap so
// hosts that disappeared from the file stop being exported.
func (c *Collector) UpdateSnapshotMetrics(snap *status.Snapshot) {
	HostState.Reset()
	ServiceState.Reset()

	hosts := snap.Hosts()
	for _, h := range hosts {
		HostState.WithLabelValues(h.HostName).Set(float64(h.CurrentState))
	}
	HostsTotal.Set(float64(len(hosts)))

	services := snap.AllServices()
	for _, svc := range services {
		ServiceState.WithLabelValues(svc.HostName, svc.ServiceDescription).Set(float64(svc.CurrentState))
	}
	ServicesTotal.Set(float64(len(services)))
}

func (c *Collector) UpdateSnapshotAge(loadedAt, now time.Time) {
	SnapshotAge.Set(now.Sub(loadedAt).Seconds())
}

// UpdateSystemMetrics samples the journal.
func (c *Collector) UpdateSystemMetrics(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	stats, err := c.store.GetDatabaseStats(ctx)
	if err != nil {
		DatabaseOperations.WithLabelValues("get_stats", "error").Inc()
		return err
	}
	DatabaseOperations.WithLabelValues("get_stats", "success").Inc()

	JournalEntries.Set(float64(stats.TotalCommands))
	return nil
}

func (c *Collector) RecordDatabaseOperation(operation string, err error) {
	DatabaseOperations.WithLabelValues(operation, getResultLabel(err)).Inc()
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	WebSocketConnections.Add(float64(delta))
}

func getResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
