package workflow

import (
	"time"

	"github.com/legalbook/legalbook/internal/domain"
)

// Messages surfaced inline on the current step. The validation wording is
// part of the client-observable contract.
const (
	ValidationMessage    = "Please provide a case description and select a preferred date."
	DraftFailedMessage   = "Failed to generate summary. Please try again."
	ConfirmFailedMessage = "Payment initiation failed."
)

func newInstance(sessionID string) *domain.WorkflowInstance {
	return &domain.WorkflowInstance{
		SessionID: sessionID,
		State:     domain.WorkflowStateIdle,
	}
}

// reset clears all per-flow fields. Runs on open and on close so nothing
// leaks between booking sessions.
func reset(inst *domain.WorkflowInstance) {
	inst.LawyerID = ""
	inst.LawyerName = ""
	inst.CaseDescription = ""
	inst.PreferredTime = nil
	inst.Draft = nil
	inst.LastError = nil
}

// open moves Idle -> Input for a given lawyer. The generation bump invalidates
// any response still in flight from a previous lifecycle.
func open(inst *domain.WorkflowInstance, lawyerID, lawyerName string) {
	reset(inst)
	inst.Generation++
	inst.State = domain.WorkflowStateInput
	inst.LawyerID = lawyerID
	inst.LawyerName = lawyerName
}

// closeFlow returns to Idle from any state, with the same reset as open.
func closeFlow(inst *domain.WorkflowInstance) {
	reset(inst)
	inst.Generation++
	inst.State = domain.WorkflowStateIdle
}

// back moves Summary -> Input, dropping the draft. There is no automatic
// re-draft; the user triggers generation again.
func back(inst *domain.WorkflowInstance) {
	inst.Draft = nil
	inst.LastError = nil
	inst.State = domain.WorkflowStateInput
}

// validateInput enforces the Input -> Summary precondition: a non-empty
// description and a selected, not-yet-past preferred time. A violation keeps
// the flow in Input and no network call is made.
func validateInput(description string, preferredTime *time.Time, now time.Time) *domain.WorkflowError {
	if description == "" || preferredTime == nil || preferredTime.Before(now) {
		return &domain.WorkflowError{
			Kind:    domain.WorkflowErrorValidation,
			Message: ValidationMessage,
		}
	}
	return nil
}
