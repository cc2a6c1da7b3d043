package domain

import "errors"

// Domain errors represent fatal and recoverable conditions in the transfer
// harness. They are returned by the public API and can be checked with
// errors.Is.
var (
	// ErrSourceUnavailable is returned when the batch reader cannot page
	// further through the source store. Fatal: the run aborts with a
	// partial summary.
	ErrSourceUnavailable = errors.New("xferbench: source store unavailable")

	// ErrPartialChunkTimeout is returned when the bounded-async strategy's
	// global wait ceiling elapses with requests still outstanding.
	// Already-recorded outcomes are kept.
	ErrPartialChunkTimeout = errors.New("xferbench: chunk wait ceiling exceeded with outstanding requests")

	// ErrChannelClosed is returned when the persistent stream drops before
	// every pushed record has been acknowledged.
	ErrChannelClosed = errors.New("xferbench: stream channel closed before final acknowledgment")

	// ErrRecordRejected marks a single-record rejection by the receiver.
	// Recovered locally: the record becomes a failure outcome and the run
	// continues.
	ErrRecordRejected = errors.New("xferbench: record rejected by receiver")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("xferbench: invalid configuration")
)
