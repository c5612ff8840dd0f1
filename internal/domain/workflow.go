package domain

import "time"

type WorkflowState string

const (
	WorkflowStateIdle    WorkflowState = "IDLE"
	WorkflowStateInput   WorkflowState = "INPUT"
	WorkflowStateSummary WorkflowState = "SUMMARY"
	WorkflowStateSuccess WorkflowState = "SUCCESS"
)

type WorkflowErrorKind string

const (
	WorkflowErrorValidation   WorkflowErrorKind = "validation"
	WorkflowErrorDraftFailed  WorkflowErrorKind = "draft_creation_failed"
	WorkflowErrorConfirmation WorkflowErrorKind = "confirmation_failed"
)

// WorkflowError is the inline, recoverable error shown on the current step.
// It never unwinds the workflow; the user retries the same action.
type WorkflowError struct {
	Kind    WorkflowErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// WorkflowInstance is one booking flow scoped to a browser session. The
// generation counter increments on every open and close; a response from a
// call issued under an older generation is discarded instead of committed.
type WorkflowInstance struct {
	SessionID  string        `json:"session_id"`
	Generation int64         `json:"generation"`
	State      WorkflowState `json:"state"`

	LawyerID   string `json:"lawyer_id"`
	LawyerName string `json:"lawyer_name"`

	CaseDescription string     `json:"case_description"`
	PreferredTime   *time.Time `json:"preferred_time,omitempty"`

	Draft     *BookingDraft  `json:"draft,omitempty"`
	LastError *WorkflowError `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
