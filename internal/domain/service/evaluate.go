package service

// Evaluation is the outcome of running the threshold state machine.
type Evaluation struct {
	OldStatus Status
	NewStatus Status
	NewReason SuspendReason
	Changed   bool
}

// EvaluateStatus decides the over-quota transition for a service. It is a
// pure function of the current counters, limit, status and suspend reason:
//
//   - active becomes suspended(bandwidth) when total exceeds a non-zero
//     limit; a zero limit means unlimited and never suspends,
//   - suspended(bandwidth) becomes active again when total drops under the
//     limit (or the limit was lifted),
//   - suspensions for any other reason are never auto-reversed,
//   - every other combination is a no-op.
func EvaluateStatus(totalBytes, bandwidthLimit uint64, status Status, reason SuspendReason) Evaluation {
	switch status {
	case StatusActive:
		if bandwidthLimit > 0 && totalBytes > bandwidthLimit {
			return Evaluation{
				OldStatus: status,
				NewStatus: StatusSuspended,
				NewReason: SuspendReasonBandwidth,
				Changed:   true,
			}
		}
	case StatusSuspended:
		if reason == SuspendReasonBandwidth && (bandwidthLimit == 0 || totalBytes < bandwidthLimit) {
			return Evaluation{
				OldStatus: status,
				NewStatus: StatusActive,
				NewReason: SuspendReasonNone,
				Changed:   true,
			}
		}
	}
	return Evaluation{OldStatus: status, NewStatus: status, NewReason: reason, Changed: false}
}
