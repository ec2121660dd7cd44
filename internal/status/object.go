// internal/status/object.go
package status

import "time"

type HostState int

const (
	HostUp HostState = iota
	HostDown
	HostUnreachable
)

var hostStates = map[string]HostState{"0": HostUp, "1": HostDown, "2": HostUnreachable}

func (s HostState) String() string {
	switch s {
	case HostUp:
		return "up"
	case HostDown:
		return "down"
	case HostUnreachable:
		return "unreachable"
	}
	return "invalid"
}

type ServiceState int

const (
	ServiceOK ServiceState = iota
	ServiceWarning
	ServiceCritical
	ServiceUnknown
)

var serviceStates = map[string]ServiceState{
	"0": ServiceOK, "1": ServiceWarning, "2": ServiceCritical, "3": ServiceUnknown,
}

func (s ServiceState) String() string {
	switch s {
	case ServiceOK:
		return "ok"
	case ServiceWarning:
		return "warning"
	case ServiceCritical:
		return "critical"
	case ServiceUnknown:
		return "unknown"
	}
	return "invalid"
}

type CheckType int

const (
	CheckActive CheckType = iota
	CheckPassive
	CheckParent
	CheckFile
	CheckOther
)

var checkTypes = map[string]CheckType{
	"0": CheckActive, "1": CheckPassive, "2": CheckParent, "3": CheckFile, "4": CheckOther,
}

func (c CheckType) String() string {
	switch c {
	case CheckActive:
		return "active"
	case CheckPassive:
		return "passive"
	case CheckParent:
		return "parent"
	case CheckFile:
		return "file"
	case CheckOther:
		return "other"
	}
	return "invalid"
}

type AcknowledgementType int

const (
	AckNone AcknowledgementType = iota
	AckNormal
	AckSticky
)

var acknowledgementTypes = map[string]AcknowledgementType{"0": AckNone, "1": AckNormal, "2": AckSticky}

func (a AcknowledgementType) String() string {
	switch a {
	case AckNone:
		return "none"
	case AckNormal:
		return "normal"
	case AckSticky:
		return "sticky"
	}
	return "invalid"
}

type StateType int

const (
	StateSoft StateType = iota
	StateHard
)

var stateTypes = map[string]StateType{"0": StateSoft, "1": StateHard}

func (s StateType) String() string {
	switch s {
	case StateSoft:
		return "soft"
	case StateHard:
		return "hard"
	}
	return "invalid"
}

// Host is one hoststatus block. Timestamps are nil when the daemon reports 0.
type Host struct {
	HostName string `json:"host_name" yaml:"host_name"`

	NotificationsEnabled bool `json:"notifications_enabled" yaml:"notifications_enabled"`
	ActiveChecksEnabled  bool `json:"active_checks_enabled" yaml:"active_checks_enabled"`
	PassiveChecksEnabled bool `json:"passive_checks_enabled" yaml:"passive_checks_enabled"`
	Obsess               bool `json:"obsess" yaml:"obsess"`
	EventHandlerEnabled  bool `json:"event_handler_enabled" yaml:"event_handler_enabled"`
	FlapDetectionEnabled bool `json:"flap_detection_enabled" yaml:"flap_detection_enabled"`

	CheckCommand               string              `json:"check_command" yaml:"check_command"`
	CheckPeriod                string              `json:"check_period" yaml:"check_period"`
	NotificationPeriod         string              `json:"notification_period" yaml:"notification_period"`
	Importance                 uint32              `json:"importance" yaml:"importance"`
	CheckInterval              float64             `json:"check_interval" yaml:"check_interval"`
	RetryInterval              float64             `json:"retry_interval" yaml:"retry_interval"`
	EventHandler               string              `json:"event_handler" yaml:"event_handler"`
	HasBeenChecked             bool                `json:"has_been_checked" yaml:"has_been_checked"`
	ShouldBeScheduled          bool                `json:"should_be_scheduled" yaml:"should_be_scheduled"`
	CheckExecutionTime         float64             `json:"check_execution_time" yaml:"check_execution_time"`
	CheckLatency               float64             `json:"check_latency" yaml:"check_latency"`
	CheckType                  CheckType           `json:"check_type" yaml:"check_type"`
	CurrentState               HostState           `json:"current_state" yaml:"current_state"`
	LastHardState              HostState           `json:"last_hard_state" yaml:"last_hard_state"`
	PluginOutput               string              `json:"plugin_output" yaml:"plugin_output"`
	LongPluginOutput           string              `json:"long_plugin_output" yaml:"long_plugin_output"`
	PerformanceData            string              `json:"performance_data" yaml:"performance_data"`
	LastCheck                  *time.Time          `json:"last_check" yaml:"last_check"`
	NextCheck                  *time.Time          `json:"next_check" yaml:"next_check"`
	CurrentAttempt             uint32              `json:"current_attempt" yaml:"current_attempt"`
	MaxAttempts                uint32              `json:"max_attempts" yaml:"max_attempts"`
	StateType                  StateType           `json:"state_type" yaml:"state_type"`
	LastStateChange            *time.Time          `json:"last_state_change" yaml:"last_state_change"`
	LastHardStateChange        *time.Time          `json:"last_hard_state_change" yaml:"last_hard_state_change"`
	LastTimeUp                 *time.Time          `json:"last_time_up" yaml:"last_time_up"`
	LastTimeDown               *time.Time          `json:"last_time_down" yaml:"last_time_down"`
	LastTimeUnreachable        *time.Time          `json:"last_time_unreachable" yaml:"last_time_unreachable"`
	LastNotification           *time.Time          `json:"last_notification" yaml:"last_notification"`
	NextNotification           *time.Time          `json:"next_notification" yaml:"next_notification"`
	NoMoreNotifications        bool                `json:"no_more_notifications" yaml:"no_more_notifications"`
	CurrentNotificationNumber  uint32              `json:"current_notification_number" yaml:"current_notification_number"`
	ProblemHasBeenAcknowledged bool                `json:"problem_has_been_acknowledged" yaml:"problem_has_been_acknowledged"`
	AcknowledgementType        AcknowledgementType `json:"acknowledgement_type" yaml:"acknowledgement_type"`
	ProcessPerformanceData     bool                `json:"process_performance_data" yaml:"process_performance_data"`
	LastUpdate                 *time.Time          `json:"last_update" yaml:"last_update"`
	IsFlapping                 bool                `json:"is_flapping" yaml:"is_flapping"`
	PercentStateChange         float64             `json:"percent_state_change" yaml:"percent_state_change"`
	ScheduledDowntimeDepth     uint32              `json:"scheduled_downtime_depth" yaml:"scheduled_downtime_depth"`
}

// DecodeHost converts a hoststatus field map. host_name is checked before
// anything else so a block without identity is reported as such.
func DecodeHost(fields map[string]string) (Host, error) {
	d := &fieldDecoder{fields: fields}
	h := Host{HostName: d.str("host_name")}

	h.NotificationsEnabled = d.boolean("notifications_enabled")
	h.ActiveChecksEnabled = d.boolean("active_checks_enabled")
	h.PassiveChecksEnabled = d.boolean("passive_checks_enabled")
	h.Obsess = d.boolean("obsess")
	h.EventHandlerEnabled = d.boolean("event_handler_enabled")
	h.FlapDetectionEnabled = d.boolean("flap_detection_enabled")

	h.CheckCommand = d.optStr("check_command")
	h.CheckPeriod = d.optStr("check_period")
	h.NotificationPeriod = d.optStr("notification_period")
	h.Importance = d.optUint("importance")
	h.CheckInterval = d.optFloat("check_interval")
	h.RetryInterval = d.optFloat("retry_interval")
	h.EventHandler = d.optStr("event_handler")
	h.HasBeenChecked = d.optBool("has_been_checked")
	h.ShouldBeScheduled = d.optBool("should_be_scheduled")
	h.CheckExecutionTime = d.optFloat("check_execution_time")
	h.CheckLatency = d.optFloat("check_latency")
	h.CheckType = decodeField(d, "check_type", false, CheckTypeOf)
	h.CurrentState = decodeField(d, "current_state", false, HostStateOf)
	h.LastHardState = decodeField(d, "last_hard_state", false, HostStateOf)
	h.PluginOutput = d.optStr("plugin_output")
	h.LongPluginOutput = d.optStr("long_plugin_output")
	h.PerformanceData = d.optStr("performance_data")
	h.LastCheck = d.optTime("last_check")
	h.NextCheck = d.optTime("next_check")
	h.CurrentAttempt = d.optUint("current_attempt")
	h.MaxAttempts = d.optUint("max_attempts")
	h.StateType = decodeField(d, "state_type", false, StateTypeOf)
	h.LastStateChange = d.optTime("last_state_change")
	h.LastHardStateChange = d.optTime("last_hard_state_change")
	h.LastTimeUp = d.optTime("last_time_up")
	h.LastTimeDown = d.optTime("last_time_down")
	h.LastTimeUnreachable = d.optTime("last_time_unreachable")
	h.LastNotification = d.optTime("last_notification")
	h.NextNotification = d.optTime("next_notification")
	h.NoMoreNotifications = d.optBool("no_more_notifications")
	h.CurrentNotificationNumber = d.optUint("current_notification_number")
	h.ProblemHasBeenAcknowledged = d.optBool("problem_has_been_acknowledged")
	h.AcknowledgementType = decodeField(d, "acknowledgement_type", false, AcknowledgementTypeOf)
	h.ProcessPerformanceData = d.optBool("process_performance_data")
	h.LastUpdate = d.optTime("last_update")
	h.IsFlapping = d.optBool("is_flapping")
	h.PercentStateChange = d.optFloat("percent_state_change")
	h.ScheduledDowntimeDepth = d.optUint("scheduled_downtime_depth")

	if d.err != nil {
		return Host{}, d.err
	}
	return h, nil
}

// Service is one servicestatus block, keyed by (HostName, ServiceDescription).
type Service struct {
	HostName           string `json:"host_name" yaml:"host_name"`
	ServiceDescription string `json:"service_description" yaml:"service_description"`
	CheckCommand       string `json:"check_command" yaml:"check_command"`

	NotificationsEnabled bool `json:"notifications_enabled" yaml:"notifications_enabled"`
	ActiveChecksEnabled  bool `json:"active_checks_enabled" yaml:"active_checks_enabled"`
	PassiveChecksEnabled bool `json:"passive_checks_enabled" yaml:"passive_checks_enabled"`
	Obsess               bool `json:"obsess" yaml:"obsess"`
	EventHandlerEnabled  bool `json:"event_handler_enabled" yaml:"event_handler_enabled"`
	FlapDetectionEnabled bool `json:"flap_detection_enabled" yaml:"flap_detection_enabled"`

	CheckPeriod                string              `json:"check_period" yaml:"check_period"`
	NotificationPeriod         string              `json:"notification_period" yaml:"notification_period"`
	CheckInterval              float64             `json:"check_interval" yaml:"check_interval"`
	RetryInterval              float64             `json:"retry_interval" yaml:"retry_interval"`
	HasBeenChecked             bool                `json:"has_been_checked" yaml:"has_been_checked"`
	ShouldBeScheduled          bool                `json:"should_be_scheduled" yaml:"should_be_scheduled"`
	CheckExecutionTime         float64             `json:"check_execution_time" yaml:"check_execution_time"`
	CheckLatency               float64             `json:"check_latency" yaml:"check_latency"`
	CheckType                  CheckType           `json:"check_type" yaml:"check_type"`
	CurrentState               ServiceState        `json:"current_state" yaml:"current_state"`
	LastHardState              ServiceState        `json:"last_hard_state" yaml:"last_hard_state"`
	CurrentAttempt             uint32              `json:"current_attempt" yaml:"current_attempt"`
	MaxAttempts                uint32              `json:"max_attempts" yaml:"max_attempts"`
	StateType                  StateType           `json:"state_type" yaml:"state_type"`
	LastStateChange            *time.Time          `json:"last_state_change" yaml:"last_state_change"`
	LastHardStateChange        *time.Time          `json:"last_hard_state_change" yaml:"last_hard_state_change"`
	LastTimeOK                 *time.Time          `json:"last_time_ok" yaml:"last_time_ok"`
	LastTimeWarning            *time.Time          `json:"last_time_warning" yaml:"last_time_warning"`
	LastTimeUnknown            *time.Time          `json:"last_time_unknown" yaml:"last_time_unknown"`
	LastTimeCritical           *time.Time          `json:"last_time_critical" yaml:"last_time_critical"`
	PluginOutput               string              `json:"plugin_output" yaml:"plugin_output"`
	LongPluginOutput           string              `json:"long_plugin_output" yaml:"long_plugin_output"`
	PerformanceData            string              `json:"performance_data" yaml:"performance_data"`
	LastCheck                  *time.Time          `json:"last_check" yaml:"last_check"`
	NextCheck                  *time.Time          `json:"next_check" yaml:"next_check"`
	LastNotification           *time.Time          `json:"last_notification" yaml:"last_notification"`
	NextNotification           *time.Time          `json:"next_notification" yaml:"next_notification"`
	NoMoreNotifications        bool                `json:"no_more_notifications" yaml:"no_more_notifications"`
	CurrentNotificationNumber  uint32              `json:"current_notification_number" yaml:"current_notification_number"`
	ProblemHasBeenAcknowledged bool                `json:"problem_has_been_acknowledged" yaml:"problem_has_been_acknowledged"`
	AcknowledgementType        AcknowledgementType `json:"acknowledgement_type" yaml:"acknowledgement_type"`
	ProcessPerformanceData     bool                `json:"process_performance_data" yaml:"process_performance_data"`
	LastUpdate                 *time.Time          `json:"last_update" yaml:"last_update"`
	IsFlapping                 bool                `json:"is_flapping" yaml:"is_flapping"`
	PercentStateChange         float64             `json:"percent_state_change" yaml:"percent_state_change"`
	ScheduledDowntimeDepth     uint32              `json:"scheduled_downtime_depth" yaml:"scheduled_downtime_depth"`
}

func DecodeService(fields map[string]string) (Service, error) {
	d := &fieldDecoder{fields: fields}
	s := Service{
		HostName:           d.str("host_name"),
		ServiceDescription: d.str("service_description"),
	}
	s.CheckCommand = d.str("check_command")

	s.NotificationsEnabled = d.boolean("notifications_enabled")
	s.ActiveChecksEnabled = d.boolean("active_checks_enabled")
	s.PassiveChecksEnabled = d.boolean("passive_checks_enabled")
	s.Obsess = d.boolean("obsess")
	s.EventHandlerEnabled = d.boolean("event_handler_enabled")
	s.FlapDetectionEnabled = d.boolean("flap_detection_enabled")

	s.CheckPeriod = d.optStr("check_period")
	s.NotificationPeriod = d.optStr("notification_period")
	s.CheckInterval = d.optFloat("check_interval")
	s.RetryInterval = d.optFloat("retry_interval")
	s.HasBeenChecked = d.optBool("has_been_checked")
	s.ShouldBeScheduled = d.optBool("should_be_scheduled")
	s.CheckExecutionTime = d.optFloat("check_execution_time")
	s.CheckLatency = d.optFloat("check_latency")
	s.CheckType = decodeField(d, "check_type", false, CheckTypeOf)
	s.CurrentState = decodeField(d, "current_state", false, ServiceStateOf)
	s.LastHardState = decodeField(d, "last_hard_state", false, ServiceStateOf)
	s.CurrentAttempt = d.optUint("current_attempt")
	s.MaxAttempts = d.optUint("max_attempts")
	s.StateType = decodeField(d, "state_type", false, StateTypeOf)
	s.LastStateChange = d.optTime("last_state_change")
	s.LastHardStateChange = d.optTime("last_hard_state_change")
	s.LastTimeOK = d.optTime("last_time_ok")
	s.LastTimeWarning = d.optTime("last_time_warning")
	s.LastTimeUnknown = d.optTime("last_time_unknown")
	s.LastTimeCritical = d.optTime("last_time_critical")
	s.PluginOutput = d.optStr("plugin_output")
	s.LongPluginOutput = d.optStr("long_plugin_output")
	s.PerformanceData = d.optStr("performance_data")
	s.LastCheck = d.optTime("last_check")
	s.NextCheck = d.optTime("next_check")
	s.LastNotification = d.optTime("last_notification")
	s.NextNotification = d.optTime("next_notification")
	s.NoMoreNotifications = d.optBool("no_more_notifications")
	s.CurrentNotificationNumber = d.optUint("current_notification_number")
	s.ProblemHasBeenAcknowledged = d.optBool("problem_has_been_acknowledged")
	s.AcknowledgementType = decodeField(d, "acknowledgement_type", false, AcknowledgementTypeOf)
	s.ProcessPerformanceData = d.optBool("process_performance_data")
	s.LastUpdate = d.optTime("last_update")
	s.IsFlapping = d.optBool("is_flapping")
	s.PercentStateChange = d.optFloat("percent_state_change")
	s.ScheduledDowntimeDepth = d.optUint("scheduled_downtime_depth")

	if d.err != nil {
		return Service{}, d.err
	}
	return s, nil
}

// Info is the info block: file creation time and daemon version data.
type Info struct {
	Created         *time.Time `json:"created" yaml:"created"`
	Version         string     `json:"version" yaml:"version"`
	LastUpdateCheck *time.Time `json:"last_update_check" yaml:"last_update_check"`
	UpdateAvailable bool       `json:"update_available" yaml:"update_available"`
	LastVersion     string     `json:"last_version" yaml:"last_version"`
	NewVersion      string     `json:"new_version" yaml:"new_version"`
}

func DecodeInfo(fields map[string]string) (Info, error) {
	d := &fieldDecoder{fields: fields}
	i := Info{
		Created:         d.optTime("created"),
		Version:         d.optStr("version"),
		LastUpdateCheck: d.optTime("last_update_check"),
		UpdateAvailable: d.optBool("update_available"),
		LastVersion:     d.optStr("last_version"),
		NewVersion:      d.optStr("new_version"),
	}
	if d.err != nil {
		return Info{}, d.err
	}
	return i, nil
}

// Program is the programstatus block: process-wide switches of the daemon.
type Program struct {
	ModifiedHostAttributes      uint32     `json:"modified_host_attributes" yaml:"modified_host_attributes"`
	ModifiedServiceAttributes   uint32     `json:"modified_service_attributes" yaml:"modified_service_attributes"`
	NagiosPID                   uint32     `json:"nagios_pid" yaml:"nagios_pid"`
	DaemonMode                  bool       `json:"daemon_mode" yaml:"daemon_mode"`
	ProgramStart                *time.Time `json:"program_start" yaml:"program_start"`
	LastLogRotation             *time.Time `json:"last_log_rotation" yaml:"last_log_rotation"`
	EnableNotifications         bool       `json:"enable_notifications" yaml:"enable_notifications"`
	ActiveServiceChecksEnabled  bool       `json:"active_service_checks_enabled" yaml:"active_service_checks_enabled"`
	PassiveServiceChecksEnabled bool       `json:"passive_service_checks_enabled" yaml:"passive_service_checks_enabled"`
	ActiveHostChecksEnabled     bool       `json:"active_host_checks_enabled" yaml:"active_host_checks_enabled"`
	PassiveHostChecksEnabled    bool       `json:"passive_host_checks_enabled" yaml:"passive_host_checks_enabled"`
	EnableEventHandlers         bool       `json:"enable_event_handlers" yaml:"enable_event_handlers"`
	ObsessOverServices          bool       `json:"obsess_over_services" yaml:"obsess_over_services"`
	ObsessOverHosts             bool       `json:"obsess_over_hosts" yaml:"obsess_over_hosts"`
	CheckServiceFreshness       bool       `json:"check_service_freshness" yaml:"check_service_freshness"`
	CheckHostFreshness          bool       `json:"check_host_freshness" yaml:"check_host_freshness"`
	EnableFlapDetection         bool       `json:"enable_flap_detection" yaml:"enable_flap_detection"`
	ProcessPerformanceData      bool       `json:"process_performance_data" yaml:"process_performance_data"`
	GlobalHostEventHandler      string     `json:"global_host_event_handler" yaml:"global_host_event_handler"`
	GlobalServiceEventHandler   string     `json:"global_service_event_handler" yaml:"global_service_event_handler"`
	NextCommentID               uint32     `json:"next_comment_id" yaml:"next_comment_id"`
	NextDowntimeID              uint32     `json:"next_downtime_id" yaml:"next_downtime_id"`
	NextEventID                 uint32     `json:"next_event_id" yaml:"next_event_id"`
	NextProblemID               uint32     `json:"next_problem_id" yaml:"next_problem_id"`
	NextNotificationID          uint32     `json:"next_notification_id" yaml:"next_notification_id"`
}

func DecodeProgram(fields map[string]string) (Program, error) {
	d := &fieldDecoder{fields: fields}
	p := Program{
		ModifiedHostAttributes:      d.optUint("modified_host_attributes"),
		ModifiedServiceAttributes:   d.optUint("modified_service_attributes"),
		NagiosPID:                   d.optUint("nagios_pid"),
		DaemonMode:                  d.optBool("daemon_mode"),
		ProgramStart:                d.optTime("program_start"),
		LastLogRotation:             d.optTime("last_log_rotation"),
		EnableNotifications:         d.optBool("enable_notifications"),
		ActiveServiceChecksEnabled:  d.optBool("active_service_checks_enabled"),
		PassiveServiceChecksEnabled: d.optBool("passive_service_checks_enabled"),
		ActiveHostChecksEnabled:     d.optBool("active_host_checks_enabled"),
		PassiveHostChecksEnabled:    d.optBool("passive_host_checks_enabled"),
		EnableEventHandlers:         d.optBool("enable_event_handlers"),
		ObsessOverServices:          d.optBool("obsess_over_services"),
		ObsessOverHosts:             d.optBool("obsess_over_hosts"),
		CheckServiceFreshness:       d.optBool("check_service_freshness"),
		CheckHostFreshness:          d.optBool("check_host_freshness"),
		EnableFlapDetection:         d.optBool("enable_flap_detection"),
		ProcessPerformanceData:      d.optBool("process_performance_data"),
		GlobalHostEventHandler:      d.optStr("global_host_event_handler"),
		GlobalServiceEventHandler:   d.optStr("global_service_event_handler"),
		NextCommentID:               d.optUint("next_comment_id"),
		NextDowntimeID:              d.optUint("next_downtime_id"),
		NextEventID:                 d.optUint("next_event_id"),
		NextProblemID:               d.optUint("next_problem_id"),
		NextNotificationID:          d.optUint("next_notification_id"),
	}
	if d.err != nil {
		return Program{}, d.err
	}
	return p, nil
}

// Contact is one contactstatus block.
type Contact struct {
	ContactName                 string     `json:"contact_name" yaml:"contact_name"`
	ModifiedAttributes          uint32     `json:"modified_attributes" yaml:"modified_attributes"`
	ModifiedHostAttributes      uint32     `json:"modified_host_attributes" yaml:"modified_host_attributes"`
	ModifiedServiceAttributes   uint32     `json:"modified_service_attributes" yaml:"modified_service_attributes"`
	HostNotificationPeriod      string     `json:"host_notification_period" yaml:"host_notification_period"`
	ServiceNotificationPeriod   string     `json:"service_notification_period" yaml:"service_notification_period"`
	LastHostNotification        *time.Time `json:"last_host_notification" yaml:"last_host_notification"`
	LastServiceNotification     *time.Time `json:"last_service_notification" yaml:"last_service_notification"`
	HostNotificationsEnabled    bool       `json:"host_notifications_enabled" yaml:"host_notifications_enabled"`
	ServiceNotificationsEnabled bool       `json:"service_notifications_enabled" yaml:"service_notifications_enabled"`
}

func DecodeContact(fields map[string]string) (Contact, error) {
	d := &fieldDecoder{fields: fields}
	c := Contact{ContactName: d.str("contact_name")}
	c.ModifiedAttributes = d.optUint("modified_attributes")
	c.ModifiedHostAttributes = d.optUint("modified_host_attributes")
	c.ModifiedServiceAttributes = d.optUint("modified_service_attributes")
	c.HostNotificationPeriod = d.optStr("host_notification_period")
	c.ServiceNotificationPeriod = d.optStr("service_notification_period")
	c.LastHostNotification = d.optTime("last_host_notification")
	c.LastServiceNotification = d.optTime("last_service_notification")
	c.HostNotificationsEnabled = d.optBool("host_notifications_enabled")
	c.ServiceNotificationsEnabled = d.optBool("service_notifications_enabled")
	if d.err != nil {
		return Contact{}, d.err
	}
	return c, nil
}
