package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies the result of one delivery attempt.
type Status int

const (
	// StatusSuccess means the receiver accepted and persisted the record.
	StatusSuccess Status = iota
	// StatusFailure means the record was rejected, timed out, or was lost
	// to a transport error. Failures are terminal within a run.
	StatusFailure
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// DeliveryOutcome is the per-record result of a delivery attempt.
// Exactly one outcome is produced per record per run.
type DeliveryOutcome struct {
	RecordID int64
	Status   Status
	Detail   string
}

// Success builds a success outcome for the given record.
func Success(recordID int64) DeliveryOutcome {
	return DeliveryOutcome{RecordID: recordID, Status: StatusSuccess}
}

// Failure builds a failure outcome with the given detail.
func Failure(recordID int64, detail string) DeliveryOutcome {
	return DeliveryOutcome{RecordID: recordID, Status: StatusFailure, Detail: detail}
}

// RunSummary is the aggregate result of one benchmark run. Counts grow
// monotonically while the run is in flight; Elapsed is measured from run
// start to the most recent outcome.
type RunSummary struct {
	RunID          uuid.UUID
	Strategy       string
	TotalAttempted int64
	SuccessCount   int64
	FailureCount   int64
	Elapsed        time.Duration
}
