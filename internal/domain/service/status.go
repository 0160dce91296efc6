package service

import "fmt"

// Status is the lifecycle state of a provisioned service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
	StatusBanned    Status = "banned"
)

// ValidStatuses enumerates every recognized status.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusActive:    true,
	StatusSuspended: true,
	StatusExpired:   true,
	StatusBanned:    true,
}

// statusTransitions is the allowed transition table. Expired and banned are
// terminal states reachable only through administrative action.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusExpired, StatusBanned},
	StatusActive:    {StatusSuspended, StatusExpired, StatusBanned},
	StatusSuspended: {StatusActive, StatusExpired, StatusBanned},
	StatusExpired:   {},
	StatusBanned:    {},
}

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether a transition to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseStatus validates and converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !ValidStatuses[s] {
		return "", fmt.Errorf("invalid service status: %s", raw)
	}
	return s, nil
}

// SuspendReason records why a service is suspended. The threshold enforcer
// only ever reverses bandwidth suspensions; billing suspensions belong to
// the external billing system.
type SuspendReason string

const (
	SuspendReasonNone      SuspendReason = "none"
	SuspendReasonBandwidth SuspendReason = "bandwidth"
	SuspendReasonBilling   SuspendReason = "billing"
)

// ValidSuspendReasons enumerates every recognized suspend reason.
var ValidSuspendReasons = map[SuspendReason]bool{
	SuspendReasonNone:      true,
	SuspendReasonBandwidth: true,
	SuspendReasonBilling:   true,
}

// String returns the reason as a string.
func (r SuspendReason) String() string {
	return string(r)
}

// ParseSuspendReason validates and converts a raw string. An empty string
// maps to none for rows written before the column existed.
func ParseSuspendReason(raw string) (SuspendReason, error) {
	if raw == "" {
		return SuspendReasonNone, nil
	}
	r := SuspendReason(raw)
	if !ValidSuspendReasons[r] {
		return "", fmt.Errorf("invalid suspend reason: %s", raw)
	}
	return r, nil
}
