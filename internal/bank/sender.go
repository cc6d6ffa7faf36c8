package bank

import (
	"context"
	"fmt"

	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/internal/phone"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendAPI is the subset of the vendor client the sender needs.
type SendAPI interface {
	SendSMS(ctx context.Context, bank models.SimBank, tid string, channel int, toDigits, message string) error
}

// Sender transmits a message through a specific bank and slot, making the
// slot ready first.
type Sender struct {
	registry  *Registry
	readiness *ReadinessController
	api       SendAPI
}

// NewSender wires a sender from its collaborators.
func NewSender(registry *Registry, readiness *ReadinessController, api SendAPI) *Sender {
	return &Sender{registry: registry, readiness: readiness, api: api}
}

// Send resolves the bank, ensures the slot is ready, and submits the
// message. It returns the transaction id handed to the vendor. Readiness
// timeouts and vendor rejections come back as-is; the caller records the
// outbound Message only after success.
func (s *Sender) Send(ctx context.Context, bankID, slotID, toPhone, message string, progress ProgressFunc) (string, error) {
	emit := safeProgress(progress)

	simBank, err := s.registry.Get(bankID)
	if err != nil {
		return "", err
	}

	if err := s.readiness.EnsureReady(ctx, simBank, slotID, progress); err != nil {
		return "", err
	}

	channel, _, err := SplitSlot(slotID)
	if err != nil {
		return "", err
	}

	digits := phone.Digits(toPhone)
	if digits == "" {
		return "", fmt.Errorf("destination %q has no digits", toPhone)
	}

	tid := uuid.NewString()
	emit(StageSending, fmt.Sprintf("submitting through bank %s slot %s", bankID, slotID))

	if err := s.api.SendSMS(ctx, simBank, tid, channel, digits, message); err != nil {
		return "", err
	}

	logger.Info("SMS submitted",
		zap.String("bank", bankID),
		zap.String("slot", slotID),
		zap.String("tid", tid))
	return tid, nil
}
