package model

// ReasonTimedOut is the reason reported when a decode exceeds its budget.
const ReasonTimedOut = "timed out validating partial transaction"

// OutcomeStatus tags an Outcome.
type OutcomeStatus int

const (
	StatusPending OutcomeStatus = iota
	StatusValid
	StatusInvalid
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FailureKind classifies an invalid outcome.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureEmpty     FailureKind = "empty"
	FailureDecode    FailureKind = "decode"
	FailureTimeout   FailureKind = "timeout"
	FailureCancelled FailureKind = "cancelled"
)

// Outcome is the result of validating one input generation.
type Outcome struct {
	Status     OutcomeStatus
	Descriptor *SwapDescriptor
	Kind       FailureKind
	Reason     string
	Generation uint64
}

func Valid(d *SwapDescriptor) Outcome {
	return Outcome{Status: StatusValid, Descriptor: d}
}

func Invalid(kind FailureKind, reason string) Outcome {
	return Outcome{Status: StatusInvalid, Kind: kind, Reason: reason}
}

func Pending() Outcome {
	return Outcome{Status: StatusPending}
}

// TimedOut builds the outcome for a decode that ran past its budget.
func TimedOut() Outcome {
	return Invalid(FailureTimeout, ReasonTimedOut)
}

func (o Outcome) IsValid() bool {
	return o.Status == StatusValid && o.Descriptor != nil
}

func (o Outcome) IsTimeout() bool {
	return o.Status == StatusInvalid && o.Kind == FailureTimeout
}

// Retryable reports whether identical input should be decoded again.
func (o Outcome) Retryable() bool {
	return o.Status == StatusInvalid && (o.Kind == FailureTimeout || o.Kind == FailureCancelled)
}

// WithGeneration returns a copy of o tagged with gen.
func (o Outcome) WithGeneration(gen uint64) Outcome {
	o.Generation = gen
	return o
}

// Update is emitted each time an outcome settles.
type Update struct {
	Outcome        Outcome
	Description    TradeDescription
	ExecuteEnabled bool
}
