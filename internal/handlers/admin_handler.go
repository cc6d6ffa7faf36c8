package handlers

import (
	"net/http"
	"strconv"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/db"
	"github.com/edwardmsalem/sms-gateway/internal/phone"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes moderation and diagnostics endpoints to operators.
type AdminHandler struct {
	blocklist db.BlocklistRepository
	convs     db.ConversationRepository
	msgs      db.MessageRepository
	registry  *bank.Registry
	slots     SlotLister
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(blocklist db.BlocklistRepository, convs db.ConversationRepository, msgs db.MessageRepository, registry *bank.Registry, slots SlotLister) *AdminHandler {
	return &AdminHandler{blocklist: blocklist, convs: convs, msgs: msgs, registry: registry, slots: slots}
}

type blockRequest struct {
	Phone  string  `json:"phone" binding:"required"`
	Reason *string `json:"reason"`
}

// HandleBlock handles POST /api/block.
func (h *AdminHandler) HandleBlock(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.blocklist.Block(normalized, c.GetString("operatorID"), req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked", "phone": normalized})
}

// HandleUnblock handles DELETE /api/block/:phone.
func (h *AdminHandler) HandleUnblock(c *gin.Context) {
	normalized, err := phone.Normalize(c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.blocklist.Unblock(normalized); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked", "phone": normalized})
}

// HandleListBlocked handles GET /api/block.
func (h *AdminHandler) HandleListBlocked(c *gin.Context) {
	blocked, err := h.blocklist.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}

// HandleConversationMessages handles GET /api/conversations/:id/messages.
func (h *AdminHandler) HandleConversationMessages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conv, err := h.convs.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.msgs.ListByConversation(id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

// HandleBankSlots handles GET /api/banks/:id/slots, the operator's slot-scan
// view.
func (h *AdminHandler) HandleBankSlots(c *gin.Context) {
	simBank, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	statuses, err := h.slots.SlotStatuses(c.Request.Context(), simBank)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, gin.H{
			"port":        s.Port,
			"active":      s.Active,
			"state":       s.State.String(),
			"signal":      s.Signal,
			"balance":     s.Balance,
			"operator":    s.Operator,
			"phoneNumber": s.PhoneNumber,
			"iccid":       s.ICCID,
			"ready":       s.Ready(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"bank": simBank.ID, "slots": out})
}
