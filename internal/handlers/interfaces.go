package handlers

import (
	"context"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/internal/services"
)

// MessageRouter routes one inbound message.
type MessageRouter interface {
	Route(ctx context.Context, in services.Inbound) (services.Result, error)
}

// OutboundSender transmits one message with progress reporting.
type OutboundSender interface {
	Send(ctx context.Context, bankID, slotID, toPhone, message, sentBy string, progress bank.ProgressFunc) (string, error)
}

// SlotLister reports the status of every slot on a bank.
type SlotLister interface {
	SlotStatuses(ctx context.Context, bank models.SimBank) ([]models.SlotStatus, error)
}
