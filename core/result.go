package core

// Status is the terminal status of a session.
type Status string

const (
	// StatusApproved marks a session terminated by the reviewer with approval.
	StatusApproved Status = "approved"
	// StatusFailed marks every other terminal outcome; Reason carries the rule
	// that triggered termination.
	StatusFailed Status = "failed"
)

// Result is the caller-facing outcome of a session: final status, the output
// of the terminating agent and the full transcript for diagnosis.
type Result struct {
	Status     Status  `json:"status"`
	Output     string  `json:"output"`
	Reason     string  `json:"reason,omitempty"`
	Transcript []Entry `json:"transcript"`
}
