package conversation

// Status is the session's position in the evaluation flow.
type Status string

const (
	AwaitingUpload   Status = "AWAITING_UPLOAD"
	AwaitingCriteria Status = "AWAITING_CRITERIA"
	ReadyToValidate  Status = "READY_TO_VALIDATE"
	Validated        Status = "VALIDATED"
)

// ParseStatus maps a stored status back to a Status. Unknown values fall back
// to AwaitingUpload, which is always safe to re-enter.
func ParseStatus(s string) Status {
	switch Status(s) {
	case AwaitingUpload, AwaitingCriteria, ReadyToValidate, Validated:
		return Status(s)
	default:
		return AwaitingUpload
	}
}

func (s Status) String() string { return string(s) }
