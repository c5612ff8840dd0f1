package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/kafka"
	"go.uber.org/zap"
)

type WorkflowUseCase interface {
	Open(ctx context.Context, sessionID, lawyerID, lawyerName string) (*domain.WorkflowInstance, error)
	GenerateSummary(ctx context.Context, session *domain.Session, description string, preferredTime *time.Time) (*domain.WorkflowInstance, error)
	Back(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error)
	Confirm(ctx context.Context, session *domain.Session) (*domain.WorkflowInstance, error)
	Close(ctx context.Context, sessionID string) error
	Discard(ctx context.Context, sessionID string) error
}

type Store interface {
	GetWorkflow(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error)
	SaveWorkflow(ctx context.Context, instance *domain.WorkflowInstance) error
	DeleteWorkflow(ctx context.Context, sessionID string) error
	AcquireActionLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseActionLock(ctx context.Context, sessionID string) error
}

type Gateway interface {
	CreateDraft(ctx context.Context, accessToken string, req domain.BookingDraftRequest) (*domain.BookingDraft, error)
	ConfirmBooking(ctx context.Context, accessToken, draftID string) (map[string]any, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Service runs the booking draft workflow: one instance per browser session,
// persisted in the store, moving Input -> Summary -> Success through two
// sequential gateway calls.
type Service struct {
	store              Store
	gateway            Gateway
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	log                *zap.Logger
}

type ServiceOption func(*Service)

func WithNotificationsTopic(topic string) ServiceOption {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

func NewService(
	store Store,
	gateway Gateway,
	producer Producer,
	bookingTopic string,
	lockTTL time.Duration,
	log *zap.Logger,
	opts ...ServiceOption,
) *Service {
	service := &Service{
		store:        store,
		gateway:      gateway,
		producer:     producer,
		bookingTopic: bookingTopic,
		lockTTL:      lockTTL,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *Service) Open(ctx context.Context, sessionID, lawyerID, lawyerName string) (*domain.WorkflowInstance, error) {
	if lawyerID == "" {
		return nil, errors.New("lawyer id is required")
	}

	inst, err := s.store.GetWorkflow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		inst = newInstance(sessionID)
	}

	open(inst, lawyerID, lawyerName)
	if err := s.save(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// GenerateSummary performs the Input -> Summary transition. Validation
// failures stay in Input without any gateway call; gateway failures stay in
// Input carrying the gateway's detail message. A response that arrives after
// the flow was closed or reopened is discarded, not committed.
func (s *Service) GenerateSummary(ctx context.Context, session *domain.Session, description string, preferredTime *time.Time) (*domain.WorkflowInstance, error) {
	inst, err := s.load(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if inst.State != domain.WorkflowStateInput {
		return nil, fmt.Errorf("%w: cannot generate summary in state %s", domain.ErrInvalidTransition, inst.State)
	}

	inst.CaseDescription = description
	inst.PreferredTime = preferredTime

	if verr := validateInput(description, preferredTime, time.Now()); verr != nil {
		inst.LastError = verr
		if err := s.save(ctx, inst); err != nil {
			return nil, err
		}
		return inst, nil
	}

	locked, err := s.store.AcquireActionLock(ctx, session.ID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrActionInFlight
	}
	defer func() {
		_ = s.store.ReleaseActionLock(ctx, session.ID)
	}()

	inst.LastError = nil
	if err := s.save(ctx, inst); err != nil {
		return nil, err
	}

	generation := inst.Generation
	draft, err := s.gateway.CreateDraft(ctx, session.AccessToken, domain.BookingDraftRequest{
		LawyerID:        inst.LawyerID,
		CaseDescription: description,
		PreferredTime:   *preferredTime,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		return s.fail(ctx, session.ID, generation, domain.WorkflowErrorDraftFailed, detailOf(err, DraftFailedMessage))
	}

	current, err := s.current(ctx, session.ID, generation)
	if err != nil || current == nil {
		return current, err
	}

	current.Draft = draft
	current.State = domain.WorkflowStateSummary
	current.LastError = nil
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}

	s.publish(ctx, "draft_created", current)
	return current, nil
}

func (s *Service) Back(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	inst, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if inst.State != domain.WorkflowStateSummary {
		return nil, fmt.Errorf("%w: cannot go back in state %s", domain.ErrInvalidTransition, inst.State)
	}

	back(inst)
	if err := s.save(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Confirm performs Summary -> Success. On failure the draft is kept so the
// same draft id can be retried without re-issuing CreateDraft.
func (s *Service) Confirm(ctx context.Context, session *domain.Session) (*domain.WorkflowInstance, error) {
	inst, err := s.load(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if inst.State != domain.WorkflowStateSummary || inst.Draft == nil {
		return nil, fmt.Errorf("%w: cannot confirm in state %s", domain.ErrInvalidTransition, inst.State)
	}

	locked, err := s.store.AcquireActionLock(ctx, session.ID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.ErrActionInFlight
	}
	defer func() {
		_ = s.store.ReleaseActionLock(ctx, session.ID)
	}()

	generation := inst.Generation
	if _, err := s.gateway.ConfirmBooking(ctx, session.AccessToken, inst.Draft.DraftID); err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		return s.fail(ctx, session.ID, generation, domain.WorkflowErrorConfirmation, detailOf(err, ConfirmFailedMessage))
	}

	current, err := s.current(ctx, session.ID, generation)
	if err != nil || current == nil {
		return current, err
	}

	current.State = domain.WorkflowStateSuccess
	current.LastError = nil
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_confirmed", current)
	return current, nil
}

func (s *Service) Close(ctx context.Context, sessionID string) error {
	inst, err := s.store.GetWorkflow(ctx, sessionID)
	if err != nil {
		return err
	}
	if inst == nil {
		return nil
	}

	closeFlow(inst)
	return s.save(ctx, inst)
}

// Discard drops the persisted instance entirely. Runs on logout, where the
// generation trail is no longer needed.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.store.DeleteWorkflow(ctx, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	inst, err := s.store.GetWorkflow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if inst == nil || inst.State == domain.WorkflowStateIdle {
		return nil, domain.ErrWorkflowNotFound
	}
	return inst, nil
}

// current reloads the instance after a gateway call and checks the response is
// still relevant. A nil result means the flow moved on and the response must
// be dropped.
func (s *Service) current(ctx context.Context, sessionID string, generation int64) (*domain.WorkflowInstance, error) {
	inst, err := s.store.GetWorkflow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if inst == nil || inst.Generation != generation {
		s.log.Info("discarding stale workflow response", zap.String("session_id", sessionID), zap.Int64("generation", generation))
		return nil, nil
	}
	return inst, nil
}

func (s *Service) fail(ctx context.Context, sessionID string, generation int64, kind domain.WorkflowErrorKind, message string) (*domain.WorkflowInstance, error) {
	inst, err := s.current(ctx, sessionID, generation)
	if err != nil || inst == nil {
		return inst, err
	}

	inst.LastError = &domain.WorkflowError{Kind: kind, Message: message}
	if err := s.save(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Service) save(ctx context.Context, inst *domain.WorkflowInstance) error {
	inst.UpdatedAt = time.Now()
	return s.store.SaveWorkflow(ctx, inst)
}

func (s *Service) publish(ctx context.Context, eventType string, inst *domain.WorkflowInstance) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}

	event := kafka.WorkflowEvent{
		Type:       eventType,
		SessionID:  inst.SessionID,
		LawyerID:   inst.LawyerID,
		LawyerName: inst.LawyerName,
		State:      string(inst.State),
		OccurredAt: time.Now(),
	}
	if inst.Draft != nil {
		event.DraftID = inst.Draft.DraftID
		event.ConsultationFee = inst.Draft.ConsultationFee
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, inst.SessionID, event); err != nil {
		s.log.Warn("publish workflow event", zap.String("type", eventType), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, inst.SessionID, event); err != nil {
			s.log.Warn("publish notification event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

// detailOf prefers the gateway's own message over the generic fallback.
func detailOf(err error, fallback string) string {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && gwErr.Detail != "" {
		return gwErr.Detail
	}
	return fallback
}

var _ WorkflowUseCase = (*Service)(nil)
