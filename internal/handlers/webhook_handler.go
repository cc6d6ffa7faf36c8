package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/phone"
	"github.com/edwardmsalem/sms-gateway/internal/services"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives deliveries from the SIM bank hardware.
type WebhookHandler struct {
	router MessageRouter
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(router MessageRouter) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// HandleSMS handles POST /webhook/sms.
func (h *WebhookHandler) HandleSMS(c *gin.Context) {
	bankID := c.Query("bank")
	// Some firmware appends a second query string to the bank value,
	// e.g. "50004?seq=12"; keep only the device identifier.
	if i := strings.Index(bankID, "?"); i >= 0 {
		bankID = bankID[:i]
	}

	rawSender := c.Query("sender")
	rawReceiver := c.Query("receiver")
	if bankID == "" || rawSender == "" || rawReceiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bank, sender and receiver are required"})
		return
	}

	sender, err := phone.Normalize(rawSender)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receiver, err := phone.Normalize(rawReceiver)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	parsed := bank.ParseInboundBody(string(raw))
	content := parsed.Content
	if content == "" {
		content = c.Query("content")
	}
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		return
	}

	result, err := h.router.Route(c.Request.Context(), services.Inbound{
		BankID:    bankID,
		Sender:    sender,
		Recipient: receiver,
		Slot:      parsed.Slot,
		Content:   content,
	})
	if err != nil {
		logger.Error("Inbound routing failed",
			zap.String("bank", bankID),
			zap.String("sender", sender),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	logger.Info("Inbound message routed",
		zap.String("bank", bankID),
		zap.String("sender", sender),
		zap.String("slot", parsed.Slot),
		zap.String("result", string(result)))
	c.JSON(http.StatusOK, gin.H{"status": string(result)})
}

// HandleHealth handles GET /webhook/health.
func (h *WebhookHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
