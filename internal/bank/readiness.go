package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"go.uber.org/zap"
)

// ProgressFunc receives incremental status while a slow operation runs,
// typically relayed to an operator waiting in a chat thread. Progress is
// best-effort: a panicking or slow sink must not affect the operation.
type ProgressFunc func(stage, detail string)

// Progress stages.
const (
	StageReady     = "ready"
	StageSwitching = "switching"
	StageWaiting   = "waiting"
	StageSending   = "sending"
)

func safeProgress(fn ProgressFunc) ProgressFunc {
	return func(stage, detail string) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("Progress sink panicked", zap.Any("panic", r), zap.String("stage", stage))
			}
		}()
		fn(stage, detail)
	}
}

// SlotAPI is the subset of the vendor client the readiness controller needs.
type SlotAPI interface {
	SlotStatus(ctx context.Context, bank models.SimBank, slotID string) (models.SlotStatus, error)
	SwitchSlot(ctx context.Context, bank models.SimBank, slotID string) error
}

// ReadinessController drives a slot to the ready state within a bounded
// time. Radio registration after a slot switch is asynchronous and
// vendor-timed; the controller cannot control it, only bound its own
// patience and surface intermediate state.
type ReadinessController struct {
	api          SlotAPI
	pollInterval time.Duration
	ceiling      time.Duration
}

// NewReadinessController builds a controller. Non-positive durations get the
// production defaults (10s poll, 90s ceiling).
func NewReadinessController(api SlotAPI, pollInterval, ceiling time.Duration) *ReadinessController {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 90 * time.Second
	}
	return &ReadinessController{api: api, pollInterval: pollInterval, ceiling: ceiling}
}

// EnsureReady returns nil once the slot reports active and registered, a
// *TimeoutError if the ceiling elapses first, or the transport error from
// the final status query if the bank became unreachable. A slot that is
// already ready returns immediately without a switch command.
func (c *ReadinessController) EnsureReady(ctx context.Context, bank models.SimBank, slotID string, progress ProgressFunc) error {
	emit := safeProgress(progress)
	start := time.Now()
	lastStatus := ""

	status, err := c.api.SlotStatus(ctx, bank, slotID)
	if err == nil {
		lastStatus = statusText(status)
		if status.Ready() {
			emit(StageReady, lastStatus)
			return nil
		}
	} else {
		logger.Warn("Initial slot status query failed, proceeding to switch",
			zap.String("bank", bank.ID),
			zap.String("slot", slotID),
			zap.Error(err))
	}

	emit(StageSwitching, fmt.Sprintf("switching bank %s to slot %s", bank.ID, slotID))
	if err := c.api.SwitchSlot(ctx, bank, slotID); err != nil {
		// Some firmware accepts the switch asynchronously and returns non-2xx
		// transiently, so a failed switch command is reported but not fatal;
		// the poll loop below decides the outcome.
		emit(StageSwitching, "switch command failed: "+err.Error())
		logger.Warn("Switch command failed, polling anyway",
			zap.String("bank", bank.ID),
			zap.String("slot", slotID),
			zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		remaining := c.ceiling - time.Since(start)
		if remaining < 0 {
			remaining = 0
		}
		emit(StageWaiting, fmt.Sprintf("waiting for registration, %s remaining", remaining.Round(time.Second)))

		status, err := c.api.SlotStatus(ctx, bank, slotID)
		if err == nil {
			lastStatus = statusText(status)
			if status.Ready() {
				emit(StageReady, lastStatus)
				return nil
			}
		} else {
			logger.Debug("Slot status poll failed",
				zap.String("bank", bank.ID),
				zap.String("slot", slotID),
				zap.Error(err))
		}

		if time.Since(start) >= c.ceiling {
			return &TimeoutError{SlotID: slotID, Elapsed: time.Since(start), LastStatus: lastStatus}
		}
	}
}

func statusText(s models.SlotStatus) string {
	return fmt.Sprintf("%s, active=%t, signal=%d", s.State, s.Active, s.Signal)
}
