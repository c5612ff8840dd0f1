package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/legalbook/legalbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fakeStore keeps instances in memory so tests can observe the state the
// service actually persisted.
type fakeStore struct {
	instances map[string]*domain.WorkflowInstance
	locked    map[string]bool
	denyLock  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		instances: make(map[string]*domain.WorkflowInstance),
		locked:    make(map[string]bool),
	}
}

func (f *fakeStore) GetWorkflow(_ context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	inst, ok := f.instances[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *inst
	return &copied, nil
}

func (f *fakeStore) SaveWorkflow(_ context.Context, instance *domain.WorkflowInstance) error {
	copied := *instance
	f.instances[instance.SessionID] = &copied
	return nil
}

func (f *fakeStore) DeleteWorkflow(_ context.Context, sessionID string) error {
	delete(f.instances, sessionID)
	return nil
}

func (f *fakeStore) AcquireActionLock(_ context.Context, sessionID string, _ time.Duration) (bool, error) {
	if f.denyLock || f.locked[sessionID] {
		return false, nil
	}
	f.locked[sessionID] = true
	return true, nil
}

func (f *fakeStore) ReleaseActionLock(_ context.Context, sessionID string) error {
	delete(f.locked, sessionID)
	return nil
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateDraft(ctx context.Context, accessToken string, req domain.BookingDraftRequest) (*domain.BookingDraft, error) {
	args := m.Called(ctx, accessToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDraft), args.Error(1)
}

func (m *MockGateway) ConfirmBooking(ctx context.Context, accessToken, draftID string) (map[string]any, error) {
	args := m.Called(ctx, accessToken, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(store Store, gw Gateway, producer Producer) *Service {
	return NewService(store, gw, producer, "booking-events", 30*time.Second, zap.NewNop(),
		WithNotificationsTopic("booking-notifications"))
}

func testSession() *domain.Session {
	return &domain.Session{ID: "s1", AccessToken: "access-token"}
}

func openFlow(t *testing.T, svc *Service) *domain.WorkflowInstance {
	t.Helper()
	inst, err := svc.Open(context.Background(), "s1", "L1", "Adv. Meera Nair")
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateInput, inst.State)
	return inst
}

func TestGenerateSummary_ValidationSkipsGateway(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	svc := newTestService(store, gw, nil)
	openFlow(t, svc)

	future := time.Now().Add(7 * 24 * time.Hour)

	cases := []struct {
		name        string
		description string
		preferred   *time.Time
	}{
		{"empty description", "", &future},
		{"missing date", "Property dispute over inherited land", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := svc.GenerateSummary(context.Background(), testSession(), tc.description, tc.preferred)
			assert.NoError(t, err)
			assert.Equal(t, domain.WorkflowStateInput, inst.State)
			assert.NotNil(t, inst.LastError)
			assert.Equal(t, domain.WorkflowErrorValidation, inst.LastError.Kind)
			assert.Equal(t, "Please provide a case description and select a preferred date.", inst.LastError.Message)
		})
	}

	gw.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateSummary_Success(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	producer := &MockProducer{}
	svc := newTestService(store, gw, producer)
	openFlow(t, svc)

	preferred := time.Now().Add(7 * 24 * time.Hour)
	draft := &domain.BookingDraft{
		DraftID:         "draft-1",
		AISummary:       "Client reports a property dispute over inherited land.",
		ConsultationFee: 2500,
	}

	gw.On("CreateDraft", mock.Anything, "access-token", mock.MatchedBy(func(req domain.BookingDraftRequest) bool {
		return req.LawyerID == "L1" && req.CaseDescription == "Property dispute over inherited land"
	})).Return(draft, nil)
	producer.On("Publish", mock.Anything, mock.Anything, "s1", mock.Anything).Return(nil)

	inst, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute over inherited land", &preferred)
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateSummary, inst.State)
	assert.Nil(t, inst.LastError)
	// The fee is displayed exactly as the gateway served it.
	assert.Equal(t, int64(2500), inst.Draft.ConsultationFee)
	assert.Equal(t, "draft-1", inst.Draft.DraftID)

	producer.AssertNumberOfCalls(t, "Publish", 2)
}

func TestGenerateSummary_GatewayFailureStaysOnInput(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	svc := newTestService(store, gw, nil)
	openFlow(t, svc)

	preferred := time.Now().Add(24 * time.Hour)
	gw.On("CreateDraft", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.GatewayError{StatusCode: 422, Detail: "case description too short"})

	inst, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateInput, inst.State)
	assert.Nil(t, inst.Draft)
	assert.Equal(t, domain.WorkflowErrorDraftFailed, inst.LastError.Kind)
	assert.Equal(t, "case description too short", inst.LastError.Message)
}

func TestGenerateSummary_StaleResponseDiscarded(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	svc := newTestService(store, gw, nil)
	openFlow(t, svc)

	preferred := time.Now().Add(24 * time.Hour)
	draft := &domain.BookingDraft{DraftID: "draft-1", ConsultationFee: 2500}

	// The user closes the flow while the draft call is still in flight.
	gw.On("CreateDraft", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			stored := store.instances["s1"]
			closeFlow(stored)
		}).
		Return(draft, nil)

	inst, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.NoError(t, err)
	assert.Nil(t, inst)

	// The torn-down flow was not resurrected by the late response.
	stored := store.instances["s1"]
	assert.Equal(t, domain.WorkflowStateIdle, stored.State)
	assert.Nil(t, stored.Draft)
}

func TestGenerateSummary_SecondCallBlockedWhileInFlight(t *testing.T) {
	store := newFakeStore()
	store.denyLock = true
	gw := &MockGateway{}
	svc := newTestService(store, gw, nil)
	openFlow(t, svc)

	preferred := time.Now().Add(24 * time.Hour)
	_, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.ErrorIs(t, err, domain.ErrActionInFlight)
	gw.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirm_RetryReusesDraft(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	producer := &MockProducer{}
	svc := newTestService(store, gw, producer)
	openFlow(t, svc)

	preferred := time.Now().Add(24 * time.Hour)
	draft := &domain.BookingDraft{DraftID: "draft-1", AISummary: "summary", ConsultationFee: 2500}
	gw.On("CreateDraft", mock.Anything, mock.Anything, mock.Anything).Return(draft, nil).Once()
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.NoError(t, err)

	// First confirm fails; the draft must survive for a retry.
	gw.On("ConfirmBooking", mock.Anything, "access-token", "draft-1").
		Return(nil, &domain.GatewayError{StatusCode: 502, Detail: "payment provider unavailable"}).Once()

	inst, err := svc.Confirm(context.Background(), testSession())
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateSummary, inst.State)
	assert.Equal(t, "draft-1", inst.Draft.DraftID)
	assert.Equal(t, domain.WorkflowErrorConfirmation, inst.LastError.Kind)
	assert.Equal(t, "payment provider unavailable", inst.LastError.Message)

	// Retry confirms with the same draft id and never re-drafts.
	gw.On("ConfirmBooking", mock.Anything, "access-token", "draft-1").
		Return(map[string]any{"order_id": "ord-1"}, nil).Once()

	inst, err = svc.Confirm(context.Background(), testSession())
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateSuccess, inst.State)
	gw.AssertNumberOfCalls(t, "CreateDraft", 1)
}

func TestConfirm_AuthExpiredPropagates(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	svc := newTestService(store, gw, nil)
	openFlow(t, svc)

	stored := store.instances["s1"]
	stored.State = domain.WorkflowStateSummary
	stored.Draft = &domain.BookingDraft{DraftID: "draft-1"}

	gw.On("ConfirmBooking", mock.Anything, mock.Anything, "draft-1").Return(nil, domain.ErrAuthExpired)

	_, err := svc.Confirm(context.Background(), testSession())
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestCloseThenReopenLeaksNothing(t *testing.T) {
	store := newFakeStore()
	gw := &MockGateway{}
	producer := &MockProducer{}
	svc := newTestService(store, gw, producer)
	openFlow(t, svc)

	preferred := time.Now().Add(24 * time.Hour)
	draft := &domain.BookingDraft{DraftID: "draft-1", ConsultationFee: 2500}
	gw.On("CreateDraft", mock.Anything, mock.Anything, mock.Anything).Return(draft, nil)
	gw.On("ConfirmBooking", mock.Anything, mock.Anything, "draft-1").Return(map[string]any{}, nil)
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.NoError(t, err)
	inst, err := svc.Confirm(context.Background(), testSession())
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateSuccess, inst.State)

	assert.NoError(t, svc.Close(context.Background(), "s1"))

	reopened, err := svc.Open(context.Background(), "s1", "L2", "Adv. Rohan Iyer")
	assert.NoError(t, err)
	assert.Equal(t, domain.WorkflowStateInput, reopened.State)
	assert.Empty(t, reopened.CaseDescription)
	assert.Nil(t, reopened.PreferredTime)
	assert.Nil(t, reopened.Draft)
	assert.Nil(t, reopened.LastError)
}

func TestTransitionsOutsideExpectedState(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &MockGateway{}, nil)
	openFlow(t, svc)

	// Back and Confirm are only reachable from Summary.
	_, err := svc.Back(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Confirm(context.Background(), testSession())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGenerateSummary_RequiresOpenFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &MockGateway{}, nil)

	preferred := time.Now().Add(24 * time.Hour)
	_, err := svc.GenerateSummary(context.Background(), testSession(), "Property dispute", &preferred)
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}
