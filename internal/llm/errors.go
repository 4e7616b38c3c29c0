package llm

import "fmt"

// FailureReason classifies why a completion attempt produced no usable text.
type FailureReason int

const (
	FailureOther FailureReason = iota
	FailureConnectionRefused
	FailureTimeout
	FailureBadStatus
	FailureEmptyResponse
)

func (r FailureReason) String() string {
	switch r {
	case FailureConnectionRefused:
		return "connection_refused"
	case FailureTimeout:
		return "timeout"
	case FailureBadStatus:
		return "bad_status"
	case FailureEmptyResponse:
		return "empty_response"
	default:
		return "other"
	}
}

// Failure is the typed error returned by a Gateway. Callers branch on
// Reason; Status is set only for FailureBadStatus.
type Failure struct {
	Reason  FailureReason
	Status  int
	Message string
}

func (f *Failure) Error() string {
	if f.Reason == FailureBadStatus {
		return fmt.Sprintf("completion failed (%s %d): %s", f.Reason, f.Status, f.Message)
	}
	return fmt.Sprintf("completion failed (%s): %s", f.Reason, f.Message)
}

// ReasonOf extracts the failure reason from an error, FailureOther when the
// error did not come from a Gateway.
func ReasonOf(err error) FailureReason {
	if f, ok := err.(*Failure); ok {
		return f.Reason
	}
	return FailureOther
}
