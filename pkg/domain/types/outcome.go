package types

// ConnectionOutcome represents the result classification of one connection attempt
type ConnectionOutcome string

const (
	OutcomeConnected        ConnectionOutcome = "connected"
	OutcomeAlreadyConnected ConnectionOutcome = "already_connected"
	OutcomeFailed           ConnectionOutcome = "failed"
	OutcomeSkippedMissingID ConnectionOutcome = "skipped_missing_id"
)

// String returns the string representation of the outcome
func (o ConnectionOutcome) String() string {
	return string(o)
}

// IsValid checks if the outcome is valid
func (o ConnectionOutcome) IsValid() bool {
	switch o {
	case OutcomeConnected, OutcomeAlreadyConnected, OutcomeFailed, OutcomeSkippedMissingID:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the outcome counts as a successful connection.
// An already connected organization is a success: re-running the batch
// against provisioned organizations must not be reported as failure.
func (o ConnectionOutcome) IsSuccess() bool {
	return o == OutcomeConnected || o == OutcomeAlreadyConnected
}
