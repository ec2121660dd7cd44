// internal/monitoring/state_tracker.go
package monitoring

import (
	"sync"
	"time"

	"nagwatch/internal/status"
)

// StateChange is a host or service whose reported state differs from the
// previous snapshot. ServiceDescription is empty for hosts.
type StateChange struct {
	HostName           string    `json:"host_name"`
	ServiceDescription string    `json:"service_description,omitempty"`
	From               string    `json:"from"`
	To                 string    `json:"to"`
	DetectedAt         time.Time `json:"detected_at"`
}

// StateTracker remembers the last reported state of every host and service.
// It only compares what the daemon reports; it does not judge it.
type StateTracker struct {
	mu     sync.Mutex
	states map[string]string
	primed bool
}

func NewStateTracker() *StateTracker {
	return &StateTracker{states: make(map[string]string)}
}

func stateKey(host, service string) string {
	if service == "" {
		return host
	}
	return host + ";" + service
}

// Update records snap and returns what changed since the previous call.
// The first call only primes the tracker. Objects that disappear are
// forgotten without a change event.
func (t *StateTracker) Update(snap *status.Snapshot, at time.Time) []StateChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]string)
	var changes []StateChange

	observe := func(host, service, state string) {
		key := stateKey(host, service)
		next[key] = state
		if !t.primed {
			return
		}
		if prev, ok := t.states[key]; ok && prev != state {
			changes = append(changes, StateChange{
				HostName:           host,
				ServiceDescription: service,
				From:               prev,
				To:                 state,
				DetectedAt:         at,
			})
		}
	}

	for _, h := range snap.Hosts() {
		observe(h.HostName, "", h.CurrentState.String())
	}
	for _, svc := range snap.AllServices() {
		observe(svc.HostName, svc.ServiceDescription, svc.CurrentState.String())
	}

	t.states = next
	t.primed = true
	return changes
}
