// internal/command/command.go
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrArity          = errors.New("wrong number of parameters")
	ErrInvalidParam   = errors.New("parameter contains a line break")
)

// Kind is the closed set of external commands the daemon accepts from us.
type Kind int

const (
	EnableHostgroupHostChecks Kind = iota
	DisableHostgroupHostChecks
	EnableHostCheck
	DisableHostCheck
	EnableHostNotifications
	DisableHostNotifications
	EnableSvcCheck
	DisableSvcCheck
	EnableSvcNotifications
	DisableSvcNotifications
)

// Kinds lists every command in declaration order.
var Kinds = []Kind{
	EnableHostgroupHostChecks,
	DisableHostgroupHostChecks,
	EnableHostCheck,
	DisableHostCheck,
	EnableHostNotifications,
	DisableHostNotifications,
	EnableSvcCheck,
	DisableSvcCheck,
	EnableSvcNotifications,
	DisableSvcNotifications,
}

// Name is the identifier written to the command file.
func (k Kind) Name() string {
	switch k {
	case EnableHostgroupHostChecks:
		return "ENABLE_HOSTGROUP_HOST_CHECKS"
	case DisableHostgroupHostChecks:
		return "DISABLE_HOSTGROUP_HOST_CHECKS"
	case EnableHostCheck:
		return "ENABLE_HOST_CHECK"
	case DisableHostCheck:
		return "DISABLE_HOST_CHECK"
	case EnableHostNotifications:
		return "ENABLE_HOST_NOTIFICATIONS"
	case DisableHostNotifications:
		return "DISABLE_HOST_NOTIFICATIONS"
	case EnableSvcCheck:
		return "ENABLE_SVC_CHECK"
	case DisableSvcCheck:
		return "DISABLE_SVC_CHECK"
	case EnableSvcNotifications:
		return "ENABLE_SVC_NOTIFICATIONS"
	case DisableSvcNotifications:
		return "DISABLE_SVC_NOTIFICATIONS"
	}
	return ""
}

func (k Kind) String() string {
	if n := k.Name(); n != "" {
		return n
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Params names the ordered parameters of the command.
func (k Kind) Params() []string {
	switch k {
	case EnableHostgroupHostChecks, DisableHostgroupHostChecks:
		return []string{"hostgroup_name"}
	case EnableHostCheck, DisableHostCheck, EnableHostNotifications, DisableHostNotifications:
		return []string{"host_name"}
	case EnableSvcCheck, DisableSvcCheck, EnableSvcNotifications, DisableSvcNotifications:
		return []string{"host_name", "service_description"}
	}
	return nil
}

// Command is one external command with its parameters. The zero value is not
// a valid command; use a constructor or Parse.
type Command struct {
	kind   Kind
	params []string
}

func newCommand(k Kind, params ...string) Command {
	return Command{kind: k, params: params}
}

func EnableHostgroupHostChecksFor(hostgroup string) Command {
	return newCommand(EnableHostgroupHostChecks, hostgroup)
}

func DisableHostgroupHostChecksFor(hostgroup string) Command {
	return newCommand(DisableHostgroupHostChecks, hostgroup)
}

func EnableHostCheckFor(host string) Command {
	return newCommand(EnableHostCheck, host)
}

func DisableHostCheckFor(host string) Command {
	return newCommand(DisableHostCheck, host)
}

func EnableHostNotificationsFor(host string) Command {
	return newCommand(EnableHostNotifications, host)
}

func DisableHostNotificationsFor(host string) Command {
	return newCommand(DisableHostNotifications, host)
}

func EnableSvcCheckFor(host, service string) Command {
	return newCommand(EnableSvcCheck, host, service)
}

func DisableSvcCheckFor(host, service string) Command {
	return newCommand(DisableSvcCheck, host, service)
}

func EnableSvcNotificationsFor(host, service string) Command {
	return newCommand(EnableSvcNotifications, host, service)
}

func DisableSvcNotificationsFor(host, service string) Command {
	return newCommand(DisableSvcNotifications, host, service)
}

// Parse builds a command from its wire name, case-insensitively, checking the
// parameter count.
func Parse(name string, params []string) (Command, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, k := range Kinds {
		if k.Name() != upper {
			continue
		}
		if want := len(k.Params()); len(params) != want {
			return Command{}, fmt.Errorf("%s takes %d parameter(s), got %d: %w", k, want, len(params), ErrArity)
		}
		cmd := newCommand(k, append([]string(nil), params...)...)
		if err := cmd.Validate(); err != nil {
			return Command{}, err
		}
		return cmd, nil
	}
	return Command{}, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
}

func (c Command) Kind() Kind {
	return c.kind
}

func (c Command) Name() string {
	return c.kind.Name()
}

// Params returns a copy of the parameters in declaration order.
func (c Command) Params() []string {
	return append([]string(nil), c.params...)
}

// Validate rejects parameters that would split the command over several
// lines of the command file.
func (c Command) Validate() error {
	for i, p := range c.params {
		if strings.ContainsAny(p, "\r\n") {
			return fmt.Errorf("%s parameter %d %q: %w", c.kind, i+1, p, ErrInvalidParam)
		}
	}
	return nil
}

// Line renders the command as the daemon expects it. Parameters are written
// verbatim; the daemon itself does not escape semicolons. Callers writing to
// the daemon go through Write, which runs Validate first.
func (c Command) Line(ts int64) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strconv.FormatInt(ts, 10))
	b.WriteString("] ")
	b.WriteString(c.kind.Name())
	for _, p := range c.params {
		b.WriteByte(';')
		b.WriteString(p)
	}
	b.WriteByte('\n')
	return b.String()
}

func (c Command) String() string {
	return strings.Join(append([]string{c.kind.Name()}, c.params...), ";")
}
