package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SendHandler exposes the operator send API.
type SendHandler struct {
	outbound OutboundSender
}

// NewSendHandler creates a send handler.
func NewSendHandler(outbound OutboundSender) *SendHandler {
	return &SendHandler{outbound: outbound}
}

type sendRequest struct {
	Bank    string `json:"bank" binding:"required"`
	Slot    string `json:"slot" binding:"required"`
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// HandleSend handles POST /api/send. The response carries the progress
// trail the operator would otherwise have watched in a chat thread.
func (h *SendHandler) HandleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator := c.GetString("operatorID")

	var mu sync.Mutex
	var trail []string
	progress := func(stage, detail string) {
		mu.Lock()
		defer mu.Unlock()
		trail = append(trail, fmt.Sprintf("%s: %s", stage, detail))
	}

	tid, err := h.outbound.Send(c.Request.Context(), req.Bank, req.Slot, req.To, req.Message, operator, progress)
	if err != nil {
		status := http.StatusInternalServerError
		var timeout *bank.TimeoutError
		var vendor *bank.VendorError
		switch {
		case errors.Is(err, bank.ErrBankNotFound):
			status = http.StatusNotFound
		case errors.As(err, &timeout):
			status = http.StatusGatewayTimeout
		case errors.As(err, &vendor):
			status = http.StatusBadGateway
		}
		logger.Warn("Outbound send failed",
			zap.String("bank", req.Bank),
			zap.String("slot", req.Slot),
			zap.String("operator", operator),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error(), "progress": trail})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactionId": tid, "progress": trail})
}
