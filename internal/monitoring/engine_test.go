package monitoring

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagwatch/internal/command"
	"nagwatch/internal/config"
	"nagwatch/internal/database"
	"nagwatch/internal/nagios"
	"nagwatch/internal/status"
)

func statusWith(hostState, serviceState string) string {
	flags := `
notifications_enabled=1
active_checks_enabled=1
passive_checks_enabled=1
obsess=1
event_handler_enabled=1
flap_detection_enabled=1`
	return "hoststatus {\nhost_name=web01\ncurrent_state=" + hostState + flags + "\n}\n" +
		"servicestatus {\nhost_name=web01\nservice_description=PING\ncheck_command=check_ping\ncurrent_state=" + serviceState + flags + "\n}\n"
}

type mutableSource struct {
	mu   sync.Mutex
	text string
}

func (s *mutableSource) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return io.NopCloser(strings.NewReader(s.text)), nil
}

func (s *mutableSource) set(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event
}

type event struct {
	Type string
	Data interface{}
}

func (b *recordingBroadcaster) Broadcast(eventType string, data interface{}) {
	b.mu.Lock()
	b.events = append(b.events, event{Type: eventType, Data: data})
	b.mu.Unlock()
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []string{}
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Monitoring.PollInterval = 10 * time.Millisecond
	cfg.Database.CleanupInterval = time.Hour
	cfg.Database.HistoryRetention = time.Hour
	return cfg
}

func TestStateTracker(t *testing.T) {
	tracker := NewStateTracker()
	at := time.Unix(1647824400, 0)

	first, err := status.Parse(strings.NewReader(statusWith("0", "0")))
	require.NoError(t, err)
	assert.Empty(t, tracker.Update(first, at), "the first snapshot only primes")
	assert.Empty(t, tracker.Update(first, at))

	second, err := status.Parse(strings.NewReader(statusWith("1", "2")))
	require.NoError(t, err)
	changes := tracker.Update(second, at)
	require.Len(t, changes, 2)
	assert.Equal(t, StateChange{HostName: "web01", From: "up", To: "down", DetectedAt: at}, changes[0])
	assert.Equal(t, "PING", changes[1].ServiceDescription)
	assert.Equal(t, "ok", changes[1].From)
	assert.Equal(t, "critical", changes[1].To)

	empty, err := status.FromBlocks(nil)
	require.NoError(t, err)
	assert.Empty(t, tracker.Update(empty, at))
	assert.Empty(t, tracker.Update(first, at), "objects that came back are new again")
}

func TestPollBroadcastsOnlyFreshSnapshots(t *testing.T) {
	src := &mutableSource{text: statusWith("0", "0")}
	client := nagios.New(src, nagios.SinkFunc(func() (io.WriteCloser, error) {
		return nil, io.ErrClosedPipe
	}), time.Hour)

	engine := NewEngine(testConfig(), client, nil, nil)
	b := &recordingBroadcaster{}
	engine.SetBroadcaster(b)

	ctx := context.Background()
	require.NoError(t, engine.Poll(ctx))
	require.NoError(t, engine.Poll(ctx))
	assert.Equal(t, []string{"snapshot_refreshed"}, b.types(), "a cached snapshot is announced once")

	src.set(statusWith("1", "0"))
	client.Invalidate()
	require.NoError(t, engine.Poll(ctx))
	assert.Equal(t, []string{"snapshot_refreshed", "snapshot_refreshed", "state_changed"}, b.types())
}

func TestPollReportsLoadErrors(t *testing.T) {
	src := &mutableSource{text: "hoststatus {\n"}
	client := nagios.New(src, nil, time.Hour)
	engine := NewEngine(testConfig(), client, nil, nil)

	err := engine.Poll(context.Background())
	assert.ErrorIs(t, err, status.ErrUnexpectedEndOfStream)
}

func TestPurge(t *testing.T) {
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Unix(1647824400, 0)
	old := database.RecordsFor([]command.Command{command.EnableHostCheckFor("web01")}, now.Add(-2*time.Hour), nil)
	recent := database.RecordsFor([]command.Command{command.EnableHostCheckFor("web01")}, now.Add(-time.Minute), nil)
	require.NoError(t, store.RecordCommands(ctx, old))
	require.NoError(t, store.RecordCommands(ctx, recent))

	engine := NewEngine(testConfig(), nagios.New(&mutableSource{}, nil, time.Hour), store, nil)
	engine.now = func() time.Time { return now }

	deleted, err := engine.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestStartStopsOnCancel(t *testing.T) {
	src := &mutableSource{text: statusWith("0", "0")}
	client := nagios.New(src, nil, time.Hour)
	engine := NewEngine(testConfig(), client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Start(ctx) }()

	require.Eventually(t, func() bool {
		_, _, err := client.Cached()
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}
