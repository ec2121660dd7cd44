// internal/status/snapshot.go
package status

import (
	"fmt"
	"io"
	"sort"
)

// BlockError ties a conversion failure to the block it came from.
type BlockError struct {
	Kind BlockKind
	Line int
	Err  error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s block at line %d: %v", e.Kind, e.Line, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// Matcher selects host names. *regexp.Regexp satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(string) bool

func (f MatcherFunc) MatchString(s string) bool { return f(s) }

// MatchAll matches every host.
var MatchAll Matcher = MatcherFunc(func(string) bool { return true })

// Snapshot is the parsed content of one status file. It is never modified
// after construction; a newer file produces a new Snapshot.
type Snapshot struct {
	info     map[string]string
	program  map[string]string
	hosts    map[string]Host
	services map[string][]Service
	contacts []map[string]string
	// opener line of each contact block, for error reporting
	contactLines []int
}

// Parse reads a whole status stream and builds a Snapshot from it.
func Parse(r io.Reader, opts ...ReaderOption) (*Snapshot, error) {
	blocks, err := ReadBlocks(r, opts...)
	if err != nil {
		return nil, err
	}
	return FromBlocks(blocks)
}

// FromBlocks aggregates blocks in stream order. Info and programstatus keep the
// last block seen, hosts are keyed by name with the last one winning, services
// keep their stream order per host.
func FromBlocks(blocks []Block) (*Snapshot, error) {
	s := &Snapshot{
		info:     map[string]string{},
		program:  map[string]string{},
		hosts:    make(map[string]Host),
		services: make(map[string][]Service),
	}

	for _, block := range blocks {
		switch block.Kind {
		case KindInfo:
			s.info = block.Fields
		case KindProgram:
			s.program = block.Fields
		case KindHost:
			host, err := DecodeHost(block.Fields)
			if err != nil {
				return nil, &BlockError{Kind: block.Kind, Line: block.Line, Err: err}
			}
			s.hosts[host.HostName] = host
		case KindService:
			svc, err := DecodeService(block.Fields)
			if err != nil {
				return nil, &BlockError{Kind: block.Kind, Line: block.Line, Err: err}
			}
			s.services[svc.HostName] = append(s.services[svc.HostName], svc)
		case KindContact:
			s.contacts = append(s.contacts, block.Fields)
			s.contactLines = append(s.contactLines, block.Line)
		}
	}

	return s, nil
}

func copyFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Snapshot) Info() map[string]string {
	return copyFields(s.info)
}

func (s *Snapshot) Program() map[string]string {
	return copyFields(s.program)
}

// InfoRecord decodes the info block into its typed form.
func (s *Snapshot) InfoRecord() (Info, error) {
	return DecodeInfo(s.info)
}

// ProgramRecord decodes the programstatus block into its typed form.
func (s *Snapshot) ProgramRecord() (Program, error) {
	return DecodeProgram(s.program)
}

func (s *Snapshot) Host(name string) (Host, bool) {
	h, ok := s.hosts[name]
	return h, ok
}

// Hosts returns every host sorted by name.
func (s *Snapshot) Hosts() []Host {
	return s.HostsMatching(MatchAll)
}

// HostsMatching returns the hosts whose name satisfies m, sorted by name.
func (s *Snapshot) HostsMatching(m Matcher) []Host {
	hosts := make([]Host, 0)
	for name, h := range s.hosts {
		if m.MatchString(name) {
			hosts = append(hosts, h)
		}
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].HostName < hosts[j].HostName })
	return hosts
}

// Services returns the services of a host in file order. A host without
// services yields an empty slice.
func (s *Snapshot) Services(hostName string) []Service {
	svcs := s.services[hostName]
	out := make([]Service, len(svcs))
	copy(out, svcs)
	return out
}

func (s *Snapshot) Service(hostName, description string) (Service, bool) {
	for _, svc := range s.services[hostName] {
		if svc.ServiceDescription == description {
			return svc, true
		}
	}
	return Service{}, false
}

// AllServices returns every service grouped by host name, hosts sorted,
// each host's services in file order. Services whose host has no
// hoststatus block are included.
func (s *Snapshot) AllServices() []Service {
	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Service, 0, s.ServiceCount())
	for _, name := range names {
		out = append(out, s.services[name]...)
	}
	return out
}

func (s *Snapshot) HostCount() int {
	return len(s.hosts)
}

func (s *Snapshot) ServiceCount() int {
	n := 0
	for _, svcs := range s.services {
		n += len(svcs)
	}
	return n
}

// Contacts returns the raw contactstatus blocks in file order.
func (s *Snapshot) Contacts() []map[string]string {
	out := make([]map[string]string, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, copyFields(c))
	}
	return out
}

// ContactRecords decodes every contactstatus block.
func (s *Snapshot) ContactRecords() ([]Contact, error) {
	out := make([]Contact, 0, len(s.contacts))
	for i, fields := range s.contacts {
		c, err := DecodeContact(fields)
		if err != nil {
			return nil, &BlockError{Kind: KindContact, Line: s.contactLines[i], Err: err}
		}
		out = append(out, c)
	}
	return out, nil
}

// Summary counts hosts and services per reported state.
type Summary struct {
	Hosts         int            `json:"hosts" yaml:"hosts"`
	Services      int            `json:"services" yaml:"services"`
	HostStates    map[string]int `json:"host_states" yaml:"host_states"`
	ServiceStates map[string]int `json:"service_states" yaml:"service_states"`
}

func (s *Snapshot) Summary() Summary {
	sum := Summary{
		Hosts:         len(s.hosts),
		HostStates:    map[string]int{},
		ServiceStates: map[string]int{},
	}
	for _, h := range s.hosts {
		sum.HostStates[h.CurrentState.String()]++
	}
	for _, svcs := range s.services {
		for _, svc := range svcs {
			sum.Services++
			sum.ServiceStates[svc.CurrentState.String()]++
		}
	}
	return sum
}
