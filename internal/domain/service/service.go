// Package service holds the service aggregate: one subscriber's provisioned
// proxy account with its traffic counters, bandwidth limit and lifecycle
// status.
package service

import (
	"fmt"
	"time"
)

// Service is the aggregate root for a provisioned proxy account.
//
// Counters are only ever increased by the usage ingestor or zeroed by a
// reset; both happen through atomic repository operations, so the in-memory
// values here are a read snapshot, not a write buffer.
type Service struct {
	id              uint
	sid             string // external, stable service identifier
	uuid            string
	tokenHash       string
	uploadBytes     uint64
	downloadBytes   uint64
	bandwidthLimit  uint64 // bytes; 0 means unlimited
	status          Status
	suspendReason   SuspendReason
	nodeGroupID     uint // 0 means the default group (all enabled nodes)
	monthlyResetDay int  // 1-28
	resetOptOut     bool
	lastResetAt     *time.Time
	version         int
	createdAt       time.Time
	updatedAt       time.Time
}

// NewService creates a new pending service.
func NewService(sid, uuid, tokenHash string, bandwidthLimit uint64, nodeGroupID uint, monthlyResetDay int) (*Service, error) {
	if sid == "" {
		return nil, fmt.Errorf("service sid is required")
	}
	if uuid == "" {
		return nil, fmt.Errorf("service uuid is required")
	}
	if monthlyResetDay < 1 || monthlyResetDay > 28 {
		return nil, fmt.Errorf("monthly reset day must be between 1 and 28, got %d", monthlyResetDay)
	}

	now := time.Now().UTC()
	return &Service{
		sid:             sid,
		uuid:            uuid,
		tokenHash:       tokenHash,
		bandwidthLimit:  bandwidthLimit,
		status:          StatusPending,
		suspendReason:   SuspendReasonNone,
		nodeGroupID:     nodeGroupID,
		monthlyResetDay: monthlyResetDay,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructService rebuilds a service from persistence.
func ReconstructService(
	id uint,
	sid, uuid, tokenHash string,
	uploadBytes, downloadBytes, bandwidthLimit uint64,
	status Status,
	suspendReason SuspendReason,
	nodeGroupID uint,
	monthlyResetDay int,
	resetOptOut bool,
	lastResetAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Service, error) {
	if id == 0 {
		return nil, fmt.Errorf("service ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("service sid is required")
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid service status: %s", status)
	}
	if !ValidSuspendReasons[suspendReason] {
		return nil, fmt.Errorf("invalid suspend reason: %s", suspendReason)
	}

	return &Service{
		id:              id,
		sid:             sid,
		uuid:            uuid,
		tokenHash:       tokenHash,
		uploadBytes:     uploadBytes,
		downloadBytes:   downloadBytes,
		bandwidthLimit:  bandwidthLimit,
		status:          status,
		suspendReason:   suspendReason,
		nodeGroupID:     nodeGroupID,
		monthlyResetDay: monthlyResetDay,
		resetOptOut:     resetOptOut,
		lastResetAt:     lastResetAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (s *Service) ID() uint                     { return s.id }
func (s *Service) SID() string                  { return s.sid }
func (s *Service) UUID() string                 { return s.uuid }
func (s *Service) TokenHash() string            { return s.tokenHash }
func (s *Service) UploadBytes() uint64          { return s.uploadBytes }
func (s *Service) DownloadBytes() uint64        { return s.downloadBytes }
func (s *Service) BandwidthLimit() uint64       { return s.bandwidthLimit }
func (s *Service) Status() Status               { return s.status }
func (s *Service) SuspendReason() SuspendReason { return s.suspendReason }
func (s *Service) NodeGroupID() uint            { return s.nodeGroupID }
func (s *Service) MonthlyResetDay() int         { return s.monthlyResetDay }
func (s *Service) ResetOptOut() bool            { return s.resetOptOut }
func (s *Service) LastResetAt() *time.Time      { return s.lastResetAt }
func (s *Service) Version() int                 { return s.version }
func (s *Service) CreatedAt() time.Time         { return s.createdAt }
func (s *Service) UpdatedAt() time.Time         { return s.updatedAt }

// TotalBytes is the derived total; it is never stored independently.
func (s *Service) TotalBytes() uint64 {
	return s.uploadBytes + s.downloadBytes
}

// Unlimited reports whether the service has no bandwidth cap.
func (s *Service) Unlimited() bool {
	return s.bandwidthLimit == 0
}

// Evaluate runs the threshold state machine against the current snapshot.
func (s *Service) Evaluate() Evaluation {
	return EvaluateStatus(s.TotalBytes(), s.bandwidthLimit, s.status, s.suspendReason)
}

// SuspendedForBilling reports whether the service is suspended for a reason
// the traffic engine does not own.
func (s *Service) SuspendedForBilling() bool {
	return s.status == StatusSuspended && s.suspendReason == SuspendReasonBilling
}

// SuspendedForBandwidth reports whether the service is in the over-quota
// suspended sub-state.
func (s *Service) SuspendedForBandwidth() bool {
	return s.status == StatusSuspended && s.suspendReason == SuspendReasonBandwidth
}

// SetID sets the service ID after insertion. Persistence layer use only.
func (s *Service) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("service ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("service ID cannot be zero")
	}
	s.id = id
	return nil
}

// Activate moves a pending or suspended service to active. Administrative
// path; the enforcer uses the repository compare-and-set instead.
func (s *Service) Activate() error {
	if s.status == StatusActive {
		return nil
	}
	if !s.status.CanTransitionTo(StatusActive) {
		return fmt.Errorf("cannot activate service with status %s", s.status)
	}
	s.status = StatusActive
	s.suspendReason = SuspendReasonNone
	s.touch()
	return nil
}

// Suspend suspends the service with the given reason.
func (s *Service) Suspend(reason SuspendReason) error {
	if reason != SuspendReasonBandwidth && reason != SuspendReasonBilling {
		return fmt.Errorf("invalid suspend reason: %s", reason)
	}
	if s.status == StatusSuspended {
		s.suspendReason = reason
		s.touch()
		return nil
	}
	if !s.status.CanTransitionTo(StatusSuspended) {
		return fmt.Errorf("cannot suspend service with status %s", s.status)
	}
	s.status = StatusSuspended
	s.suspendReason = reason
	s.touch()
	return nil
}

// MarkExpired moves the service to the terminal expired state.
func (s *Service) MarkExpired() error {
	if s.status == StatusExpired {
		return nil
	}
	if !s.status.CanTransitionTo(StatusExpired) {
		return fmt.Errorf("cannot expire service with status %s", s.status)
	}
	s.status = StatusExpired
	s.suspendReason = SuspendReasonNone
	s.touch()
	return nil
}

// Ban moves the service to the terminal banned state.
func (s *Service) Ban() error {
	if s.status == StatusBanned {
		return nil
	}
	if !s.status.CanTransitionTo(StatusBanned) {
		return fmt.Errorf("cannot ban service with status %s", s.status)
	}
	s.status = StatusBanned
	s.suspendReason = SuspendReasonNone
	s.touch()
	return nil
}

// ChangeBandwidthLimit updates the cap. The periodic sweep picks up the
// status consequence.
func (s *Service) ChangeBandwidthLimit(limit uint64) {
	if s.bandwidthLimit == limit {
		return
	}
	s.bandwidthLimit = limit
	s.touch()
}

// ChangeNodeGroup moves the service to another node group.
func (s *Service) ChangeNodeGroup(groupID uint) {
	if s.nodeGroupID == groupID {
		return
	}
	s.nodeGroupID = groupID
	s.touch()
}

// SetResetOptOut flags the service as skipped by the billing-day policy.
func (s *Service) SetResetOptOut(optOut bool) {
	if s.resetOptOut == optOut {
		return
	}
	s.resetOptOut = optOut
	s.touch()
}

func (s *Service) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}
