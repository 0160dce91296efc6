package service

import (
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("SVC-1001", "b7e2a9d4-0000-0000-0000-000000000000", "hash", 1_000_000, 0, 1)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceValidation(t *testing.T) {
	tests := []struct {
		name     string
		sid      string
		uuid     string
		resetDay int
		wantErr  bool
	}{
		{"valid", "SVC-1", "uuid-1", 1, false},
		{"valid max reset day", "SVC-1", "uuid-1", 28, false},
		{"missing sid", "", "uuid-1", 1, true},
		{"missing uuid", "SVC-1", "", 1, true},
		{"reset day zero", "SVC-1", "uuid-1", 0, true},
		{"reset day 29", "SVC-1", "uuid-1", 29, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.sid, tt.uuid, "hash", 0, 0, tt.resetDay)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewService error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServiceTotalBytes(t *testing.T) {
	now := time.Now().UTC()
	svc, err := ReconstructService(1, "SVC-1", "uuid-1", "hash",
		700_000, 350_000, 1_000_000,
		StatusActive, SuspendReasonNone, 0, 1, false, nil, 1, now, now)
	if err != nil {
		t.Fatalf("ReconstructService: %v", err)
	}

	if got := svc.TotalBytes(); got != 1_050_000 {
		t.Errorf("TotalBytes = %d, want 1050000", got)
	}

	eval := svc.Evaluate()
	if !eval.Changed || eval.NewStatus != StatusSuspended {
		t.Errorf("Evaluate = %+v, want suspension", eval)
	}
}

func TestServiceUnlimited(t *testing.T) {
	svc := newTestService(t)
	if svc.Unlimited() {
		t.Error("service with limit should not be unlimited")
	}
	svc.ChangeBandwidthLimit(0)
	if !svc.Unlimited() {
		t.Error("service with zero limit should be unlimited")
	}
}

func TestServiceLifecycle(t *testing.T) {
	svc := newTestService(t)

	if svc.Status() != StatusPending {
		t.Fatalf("new service status = %s, want pending", svc.Status())
	}

	if err := svc.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if svc.Status() != StatusActive {
		t.Errorf("status = %s, want active", svc.Status())
	}

	if err := svc.Suspend(SuspendReasonBandwidth); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if !svc.SuspendedForBandwidth() {
		t.Error("expected bandwidth suspension")
	}
	if svc.SuspendedForBilling() {
		t.Error("unexpected billing suspension")
	}

	// Reason can be escalated in place.
	if err := svc.Suspend(SuspendReasonBilling); err != nil {
		t.Fatalf("Suspend(billing): %v", err)
	}
	if !svc.SuspendedForBilling() {
		t.Error("expected billing suspension")
	}

	if err := svc.Activate(); err != nil {
		t.Fatalf("Activate from suspended: %v", err)
	}
	if svc.SuspendReason() != SuspendReasonNone {
		t.Errorf("suspend reason = %s, want none after activation", svc.SuspendReason())
	}

	if err := svc.MarkExpired(); err != nil {
		t.Fatalf("MarkExpired: %v", err)
	}
	if err := svc.Activate(); err == nil {
		t.Error("expected error activating an expired service")
	}
}

func TestServiceSuspendRejectsInvalidReason(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := svc.Suspend(SuspendReasonNone); err == nil {
		t.Error("expected error suspending with reason none")
	}
}

func TestServiceVersionBumpsOnChange(t *testing.T) {
	svc := newTestService(t)
	before := svc.Version()

	svc.ChangeBandwidthLimit(2_000_000)
	if svc.Version() != before+1 {
		t.Errorf("version = %d, want %d", svc.Version(), before+1)
	}

	// Same value is a no-op.
	svc.ChangeBandwidthLimit(2_000_000)
	if svc.Version() != before+1 {
		t.Errorf("no-op change bumped version to %d", svc.Version())
	}
}

func TestParseSuspendReason(t *testing.T) {
	if r, err := ParseSuspendReason(""); err != nil || r != SuspendReasonNone {
		t.Errorf("ParseSuspendReason(\"\") = %v, %v; want none, nil", r, err)
	}
	if _, err := ParseSuspendReason("weather"); err == nil {
		t.Error("expected error for unknown reason")
	}
}
