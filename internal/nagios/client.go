// internal/nagios/client.go
package nagios

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nagwatch/internal/command"
	"nagwatch/internal/status"
)

// ErrNotLoaded is returned by Cached before the first successful load.
var ErrNotLoaded = errors.New("no status snapshot loaded")

// Source opens the status stream for one parse.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Sink opens the command stream for one batch.
type Sink interface {
	Open() (io.WriteCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (io.ReadCloser, error)

func (f SourceFunc) Open() (io.ReadCloser, error) { return f() }

// SinkFunc adapts a function to Sink.
type SinkFunc func() (io.WriteCloser, error)

func (f SinkFunc) Open() (io.WriteCloser, error) { return f() }

// FileSource reads the status file at path.
type FileSource string

func (p FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, fmt.Errorf("open status file: %w", err)
	}
	return f, nil
}

// FileSink appends to the command file at path. The file must already exist;
// it is normally a named pipe owned by the daemon.
type FileSink string

func (p FileSink) Open() (io.WriteCloser, error) {
	f, err := os.OpenFile(string(p), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("open command file: %w", err)
	}
	return f, nil
}

// Observer receives reload and submission outcomes. The metrics collector
// implements it.
type Observer interface {
	SnapshotLoaded(snap *status.Snapshot, took time.Duration)
	SnapshotFailed(err error)
	CacheHit()
	CommandsSubmitted(cmds []command.Command, err error)
}

type nopObserver struct{}

func (nopObserver) SnapshotLoaded(*status.Snapshot, time.Duration) {}
func (nopObserver) SnapshotFailed(error) {}
func (nopObserver) CacheHit() {}
func (nopObserver) CommandsSubmitted([]command.Command, error) {}

type Option func(*Client)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithReaderOptions passes lexer options to every parse.
func WithReaderOptions(opts ...status.ReaderOption) Option {
	return func(c *Client) { c.readerOpts = append(c.readerOpts, opts...) }
}

// Client serves queries from a cached snapshot and reparses the status file
// once the snapshot is older than maxAge. It is safe for concurrent use.
type Client struct {
	source     Source
	sink       Sink
	maxAge     time.Duration
	now        func() time.Time
	log        *logrus.Entry
	observer   Observer
	readerOpts []status.ReaderOption

	mu         sync.Mutex
	snapshot   *status.Snapshot
	lastLoaded time.Time
}

func New(source Source, sink Sink, maxAge time.Duration, opts ...Option) *Client {
	c := &Client{
		source:   source,
		sink:     sink,
		maxAge:   maxAge,
		now:      time.Now,
		log:      logrus.WithField("component", "nagios"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached snapshot, reloading it first when none is held
// or it has reached maxAge. A failed reload returns the error and keeps the
// previous snapshot available through Cached.
func (c *Client) Snapshot() (*status.Snapshot, error) {
	snap, _, err := c.SnapshotAt()
	return snap, err
}

// SnapshotAt is Snapshot plus the time the returned snapshot was loaded,
// read under the same lock.
func (c *Client) SnapshotAt() (*status.Snapshot, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.lastLoaded) < c.maxAge {
		c.observer.CacheHit()
		return c.snapshot, c.lastLoaded, nil
	}
	snap, err := c.reloadLocked()
	if err != nil {
		return nil, time.Time{}, err
	}
	return snap, c.lastLoaded, nil
}

// Reload parses the status file regardless of the snapshot age.
func (c *Client) Reload() (*status.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked()
}

func (c *Client) reloadLocked() (*status.Snapshot, error) {
	start := c.now()
	snap, err := c.load()
	if err != nil {
		c.observer.SnapshotFailed(err)
		c.log.WithError(err).Warn("Failed to load status snapshot")
		return nil, err
	}

	took := c.now().Sub(start)
	c.snapshot = snap
	c.lastLoaded = c.now()
	c.observer.SnapshotLoaded(snap, took)
	c.log.WithFields(logrus.Fields{
		"hosts":    snap.HostCount(),
		"services": snap.ServiceCount(),
		"duration": took,
	}).Debug("Status snapshot reloaded")
	return snap, nil
}

func (c *Client) load() (*status.Snapshot, error) {
	r, err := c.source.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	snap, err := status.Parse(r, c.readerOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return snap, nil
}

// Cached returns the held snapshot and when it was loaded without touching
// the source, however old it is.
func (c *Client) Cached() (*status.Snapshot, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil, time.Time{}, ErrNotLoaded
	}
	return c.snapshot, c.lastLoaded, nil
}

// Invalidate drops the held snapshot so the next query reparses.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.lastLoaded = time.Time{}
	c.mu.Unlock()
}

func (c *Client) Info() (map[string]string, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Info(), nil
}

func (c *Client) Program() (map[string]string, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Program(), nil
}

func (c *Client) Host(name string) (status.Host, bool, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return status.Host{}, false, err
	}
	h, ok := snap.Host(name)
	return h, ok, nil
}

func (c *Client) Services(hostName string) ([]status.Service, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Services(hostName), nil
}

func (c *Client) HostsMatching(m status.Matcher) ([]status.Host, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.HostsMatching(m), nil
}

// SubmitCommands appends cmds to the command sink with one shared timestamp
// and returns that timestamp. Once any line may have reached the daemon the
// cached snapshot is dropped. When some lines were written the error is a
// *command.WriteError saying how many.
func (c *Client) SubmitCommands(cmds []command.Command) (time.Time, error) {
	if len(cmds) == 0 {
		return time.Time{}, nil
	}

	at := c.now()
	written, err := c.submit(cmds, at)
	c.observer.CommandsSubmitted(cmds, err)
	if written > 0 {
		c.Invalidate()
	}

	fields := logrus.Fields{"commands": len(cmds), "written": written}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Error("Failed to submit commands")
		return at, err
	}
	c.log.WithFields(fields).Info("Commands submitted")
	return at, nil
}

// submit reports how many lines the sink accepted along with any error.
func (c *Client) submit(cmds []command.Command, at time.Time) (int, error) {
	w, err := c.sink.Open()
	if err != nil {
		return 0, err
	}

	written := len(cmds)
	err = command.Write(w, cmds, at)
	var werr *command.WriteError
	if errors.As(err, &werr) {
		written = werr.Written
	}
	if cerr := w.Close(); err == nil && cerr != nil {
		return written, &command.WriteError{
			Written: written,
			Total:   len(cmds),
			Err:     fmt.Errorf("close command file: %w", cerr),
		}
	}
	return written, err
}
