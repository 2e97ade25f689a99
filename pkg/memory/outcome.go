package memory

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProfileNotFound = errors.New("profile not found")
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// Outcome is the result of a memory operation. Rejected means a tier policy
// refused it before anything was written; Failed means a collaborator errored.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

func succeeded() Outcome {
	return Outcome{Status: StatusOK}
}

func rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

func failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}
