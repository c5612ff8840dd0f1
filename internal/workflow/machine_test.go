package workflow

import (
	"testing"
	"time"

	"github.com/legalbook/legalbook/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateInput(t *testing.T) {
	now := time.Now()
	future := now.Add(7 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name        string
		description string
		preferred   *time.Time
		wantErr     bool
	}{
		{"valid", "Property dispute over inherited land", &future, false},
		{"empty description", "", &future, true},
		{"no date", "Property dispute", nil, true},
		{"past date", "Property dispute", &past, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr := validateInput(tc.description, tc.preferred, now)
			if tc.wantErr {
				assert.NotNil(t, verr)
				assert.Equal(t, domain.WorkflowErrorValidation, verr.Kind)
				assert.Equal(t, ValidationMessage, verr.Message)
			} else {
				assert.Nil(t, verr)
			}
		})
	}
}

func TestOpenResetsEverything(t *testing.T) {
	inst := newInstance("s1")
	preferred := time.Now().Add(24 * time.Hour)
	inst.CaseDescription = "stale text"
	inst.PreferredTime = &preferred
	inst.Draft = &domain.BookingDraft{DraftID: "d1"}
	inst.LastError = &domain.WorkflowError{Kind: domain.WorkflowErrorDraftFailed, Message: "boom"}
	inst.State = domain.WorkflowStateSuccess
	gen := inst.Generation

	open(inst, "L1", "Adv. Meera Nair")

	assert.Equal(t, domain.WorkflowStateInput, inst.State)
	assert.Equal(t, gen+1, inst.Generation)
	assert.Equal(t, "L1", inst.LawyerID)
	assert.Equal(t, "Adv. Meera Nair", inst.LawyerName)
	assert.Empty(t, inst.CaseDescription)
	assert.Nil(t, inst.PreferredTime)
	assert.Nil(t, inst.Draft)
	assert.Nil(t, inst.LastError)
}

func TestCloseReturnsToIdleAndBumpsGeneration(t *testing.T) {
	inst := newInstance("s1")
	open(inst, "L1", "Adv. Meera Nair")
	inst.State = domain.WorkflowStateSummary
	inst.Draft = &domain.BookingDraft{DraftID: "d1"}
	gen := inst.Generation

	closeFlow(inst)

	assert.Equal(t, domain.WorkflowStateIdle, inst.State)
	assert.Equal(t, gen+1, inst.Generation)
	assert.Nil(t, inst.Draft)
	assert.Empty(t, inst.LawyerID)
}

func TestBackDropsDraftOnly(t *testing.T) {
	inst := newInstance("s1")
	open(inst, "L1", "Adv. Meera Nair")
	inst.State = domain.WorkflowStateSummary
	inst.CaseDescription = "Property dispute"
	inst.Draft = &domain.BookingDraft{DraftID: "d1"}
	gen := inst.Generation

	back(inst)

	assert.Equal(t, domain.WorkflowStateInput, inst.State)
	assert.Equal(t, gen, inst.Generation)
	assert.Nil(t, inst.Draft)
	assert.Equal(t, "Property dispute", inst.CaseDescription)
	assert.Equal(t, "L1", inst.LawyerID)
}
