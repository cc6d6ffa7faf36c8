package services

import (
	"context"
	"fmt"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/db"
	"github.com/edwardmsalem/sms-gateway/internal/dedupe"
	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/internal/notify"
	"github.com/edwardmsalem/sms-gateway/internal/spam"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"go.uber.org/zap"
)

// Inbound is one parsed webhook delivery.
type Inbound struct {
	BankID    string
	Sender    string
	Recipient string
	Slot      string
	Content   string
	ICCID     string
}

// Result is the terminal classification of an inbound message. These are
// successful outcomes, not errors: a duplicate or a blocked sender is a
// correctly-routed message.
type Result string

const (
	ResultOK             Result = "ok"
	ResultDuplicate      Result = "duplicate_skipped"
	ResultBlocked        Result = "blocked"
	ResultSpam           Result = "spam_filtered"
	ResultDeliveryReport Result = "delivery_report_processed"
)

// Observer records message arrivals for diagnostic tooling (slot scans,
// sweep tests). Observers never influence routing; a panicking observer is
// contained and logged.
type Observer func(in Inbound, result Result)

// InboundRouterDeps wires an InboundRouter.
type InboundRouterDeps struct {
	Dedupe              *dedupe.Window
	Conversations       db.ConversationRepository
	Messages            db.MessageRepository
	Blocklist           db.BlocklistRepository
	Classifier          spam.Classifier
	Notifier            notify.Notifier
	Watches             *WatchService
	VerificationChannel string
	SpamChannel         string
}

// InboundRouter classifies and routes one inbound message at a time.
// Processing is strictly sequential per message; distinct messages may be
// routed concurrently because the conversation store's find-or-create is
// race-safe and dedupe entries are independent per fingerprint.
type InboundRouter struct {
	deps      InboundRouterDeps
	observers []Observer
}

// NewInboundRouter creates a router from its dependencies.
func NewInboundRouter(deps InboundRouterDeps) *InboundRouter {
	return &InboundRouter{deps: deps}
}

// AddObserver attaches a diagnostic observer.
func (r *InboundRouter) AddObserver(fn Observer) {
	r.observers = append(r.observers, fn)
}

// Route runs the routing state machine for one message, terminal at the
// first matching branch.
func (r *InboundRouter) Route(ctx context.Context, in Inbound) (result Result, err error) {
	defer func() {
		if err == nil {
			r.notifyObservers(in, result)
		}
	}()

	if bank.IsDeliveryReport(in.Content) {
		return r.routeDeliveryReport(ctx, in), nil
	}

	if r.deps.Dedupe.IsDuplicate(in.Sender, in.Recipient, in.Content) {
		logger.Debug("Duplicate delivery suppressed",
			zap.String("sender", in.Sender),
			zap.String("recipient", in.Recipient))
		return ResultDuplicate, nil
	}

	blocked, err := r.deps.Blocklist.IsBlocked(in.Sender)
	if err != nil {
		return "", fmt.Errorf("blocklist check: %w", err)
	}
	if blocked {
		logger.Info("Message from blocked sender dropped", zap.String("sender", in.Sender))
		return ResultBlocked, nil
	}

	// A provisioning workflow may be waiting on this SIM's number; its
	// thread gets the message directly, classifier skipped.
	if threadRef, ok := r.deps.Watches.ActivationThread(in.Recipient); ok {
		r.postToThread(ctx, threadRef, fmt.Sprintf("[%s] %s", in.Sender, in.Content))
		return ResultOK, nil
	}

	if spam.IsVerificationCode(in.Content) {
		r.postToChannel(ctx, r.deps.VerificationChannel,
			fmt.Sprintf("Code for %s (bank %s slot %s):\n%s", in.Recipient, in.BankID, in.Slot, in.Content))
		return ResultOK, nil
	}

	verdict, err := r.deps.Classifier.Classify(ctx, in.Content, in.Sender)
	if err != nil {
		// Fail open: a classifier outage must not block legitimate traffic.
		logger.Warn("Spam classifier unavailable, treating message as ham", zap.Error(err))
		verdict = spam.Verdict{}
	}
	if verdict.Spam {
		r.postToChannel(ctx, r.deps.SpamChannel,
			fmt.Sprintf("Filtered %s from %s (%.0f%% confidence):\n%s",
				verdict.Category, in.Sender, verdict.Confidence*100, in.Content))
		return ResultSpam, nil
	}

	return r.routeToConversation(ctx, in)
}

func (r *InboundRouter) routeDeliveryReport(ctx context.Context, in Inbound) Result {
	threadRef, ok := r.deps.Watches.ResolveDelivery(in.Sender)
	if !ok {
		logger.Debug("Delivery report with no pending send", zap.String("sender", in.Sender))
		return ResultDeliveryReport
	}

	reaction := "Delivered to " + in.Sender
	if bank.DeliveryReportFailed(in.Content) {
		reaction = "Delivery to " + in.Sender + " FAILED"
	}
	r.postToThread(ctx, threadRef, reaction)
	return ResultDeliveryReport
}

func (r *InboundRouter) routeToConversation(ctx context.Context, in Inbound) (Result, error) {
	conv, err := r.deps.Conversations.FindOrCreate(in.Sender, in.Recipient, in.BankID, in.Slot)
	if err != nil {
		return "", fmt.Errorf("conversation lookup: %w", err)
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Direction:      models.DirectionInbound,
		Content:        in.Content,
		Status:         "received",
	}
	if err := r.deps.Messages.Add(msg); err != nil {
		return "", fmt.Errorf("persist message: %w", err)
	}

	// The message is classified and stored; everything past this point is
	// delivery, and delivery failures must not change the outcome.
	if conv.ThreadRef == nil {
		threadRef, err := r.deps.Notifier.PostNewThread(ctx, conv, in.Content)
		if err != nil {
			logger.Error("Failed to open chat thread",
				zap.Int64("conversation", conv.ID),
				zap.Error(err))
		} else if err := r.deps.Conversations.UpdateThreadRef(conv.ID, threadRef); err != nil {
			logger.Error("Failed to store thread ref",
				zap.Int64("conversation", conv.ID),
				zap.Error(err))
		}
	} else {
		r.postToThread(ctx, *conv.ThreadRef, in.Content)
		if err := r.deps.Conversations.Touch(conv.ID); err != nil {
			logger.Warn("Failed to touch conversation", zap.Int64("conversation", conv.ID), zap.Error(err))
		}
	}

	if in.ICCID != "" {
		if err := r.deps.Conversations.UpdateICCID(conv.ID, in.ICCID); err != nil {
			logger.Warn("Failed to store ICCID", zap.Int64("conversation", conv.ID), zap.Error(err))
		}
	}

	return ResultOK, nil
}

func (r *InboundRouter) postToThread(ctx context.Context, threadRef, content string) {
	if err := r.deps.Notifier.PostToThread(ctx, threadRef, content); err != nil {
		logger.Error("Failed to post to chat thread", zap.String("thread", threadRef), zap.Error(err))
	}
}

func (r *InboundRouter) postToChannel(ctx context.Context, channel, content string) {
	if err := r.deps.Notifier.PostToChannel(ctx, channel, content); err != nil {
		logger.Error("Failed to post to chat channel", zap.String("channel", channel), zap.Error(err))
	}
}

func (r *InboundRouter) notifyObservers(in Inbound, result Result) {
	for _, fn := range r.observers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Warn("Inbound observer panicked", zap.Any("panic", rec))
				}
			}()
			fn(in, result)
		}()
	}
}
