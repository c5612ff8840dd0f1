package email

import (
	"context"

	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/kafka"
	"go.uber.org/zap"
)

type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

// Send delivers a booking notification for one workflow event. Delivery is
// log-backed until the mail provider is wired in.
func (s *Sender) Send(ctx context.Context, event kafka.WorkflowEvent) error {
	s.log.Info("send booking notification",
		zap.String("type", event.Type),
		zap.String("session_id", event.SessionID),
		zap.String("lawyer", event.LawyerName),
		zap.String("draft_id", event.DraftID),
		zap.String("fee", domain.FormatFee(event.ConsultationFee)),
	)
	return nil
}
