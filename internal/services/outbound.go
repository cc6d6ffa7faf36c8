package services

import (
	"context"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/db"
	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/internal/phone"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"go.uber.org/zap"
)

// MessageSender transmits one message through a bank slot.
type MessageSender interface {
	Send(ctx context.Context, bankID, slotID, toPhone, message string, progress bank.ProgressFunc) (string, error)
}

// OutboundService wraps the hardware sender with the gateway's bookkeeping:
// the outbound Message row is recorded only after the vendor accepts the
// send, and a pending delivery-report entry is registered so the eventual
// report lands in the right thread.
type OutboundService struct {
	sender  MessageSender
	convs   db.ConversationRepository
	msgs    db.MessageRepository
	watches *WatchService
}

// NewOutboundService wires an outbound service.
func NewOutboundService(sender MessageSender, convs db.ConversationRepository, msgs db.MessageRepository, watches *WatchService) *OutboundService {
	return &OutboundService{sender: sender, convs: convs, msgs: msgs, watches: watches}
}

// Send transmits a message and returns the vendor transaction id. Bank,
// readiness, and vendor failures propagate unchanged.
func (s *OutboundService) Send(ctx context.Context, bankID, slotID, toPhone, message, sentBy string, progress bank.ProgressFunc) (string, error) {
	normalized, err := phone.Normalize(toPhone)
	if err != nil {
		return "", err
	}

	tid, err := s.sender.Send(ctx, bankID, slotID, normalized, message, progress)
	if err != nil {
		return "", err
	}

	// Bookkeeping failures after a successful transmit are logged, not
	// surfaced: the message is already on the air.
	conv, err := s.convs.FindLatestByPhone(normalized)
	if err != nil {
		logger.Warn("Conversation lookup after send failed", zap.String("to", normalized), zap.Error(err))
		return tid, nil
	}
	if conv == nil {
		logger.Debug("Outbound send to a phone with no conversation", zap.String("to", normalized))
		return tid, nil
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Direction:      models.DirectionOutbound,
		Content:        message,
		Status:         "sent",
	}
	if sentBy != "" {
		msg.SentBy = &sentBy
	}
	if err := s.msgs.Add(msg); err != nil {
		logger.Error("Failed to record outbound message", zap.Int64("conversation", conv.ID), zap.Error(err))
	}
	if err := s.convs.Touch(conv.ID); err != nil {
		logger.Warn("Failed to touch conversation", zap.Int64("conversation", conv.ID), zap.Error(err))
	}
	if conv.ThreadRef != nil {
		s.watches.TrackDelivery(normalized, *conv.ThreadRef)
	}

	return tid, nil
}
