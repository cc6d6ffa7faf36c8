package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/config"
	"github.com/edwardmsalem/sms-gateway/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlocklist struct {
	blocked   map[string]string
	blockErr  error
	lastBy    string
	unblocked []string
}

func newFakeBlocklist() *fakeBlocklist {
	return &fakeBlocklist{blocked: make(map[string]string)}
}

func (f *fakeBlocklist) IsBlocked(phone string) (bool, error) {
	_, ok := f.blocked[phone]
	return ok, nil
}

func (f *fakeBlocklist) Block(phone, blockedBy string, reason *string) error {
	if f.blockErr != nil {
		return f.blockErr
	}
	f.blocked[phone] = blockedBy
	f.lastBy = blockedBy
	return nil
}

func (f *fakeBlocklist) Unblock(phone string) error {
	if _, ok := f.blocked[phone]; !ok {
		return fmt.Errorf("number not blocked")
	}
	delete(f.blocked, phone)
	f.unblocked = append(f.unblocked, phone)
	return nil
}

func (f *fakeBlocklist) List() ([]*models.BlockedNumber, error) {
	var out []*models.BlockedNumber
	for phone, by := range f.blocked {
		out = append(out, &models.BlockedNumber{Phone: phone, BlockedBy: by})
	}
	return out, nil
}

type fakeConversations struct {
	byID map[int64]*models.Conversation
}

func (f *fakeConversations) FindOrCreate(sender, recipient, bankID, simPort string) (*models.Conversation, error) {
	return nil, errors.New("not used")
}

func (f *fakeConversations) GetByPair(sender, recipient string) (*models.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) GetByID(id int64) (*models.Conversation, error) {
	return f.byID[id], nil
}

func (f *fakeConversations) FindLatestByPhone(phone string) (*models.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) UpdateThreadRef(id int64, threadRef string) error { return nil }
func (f *fakeConversations) Touch(id int64) error                             { return nil }
func (f *fakeConversations) UpdateICCID(id int64, iccid string) error         { return nil }

type fakeMessages struct {
	byConversation map[int64][]*models.Message
}

func (f *fakeMessages) Add(msg *models.Message) error { return nil }

func (f *fakeMessages) ListByConversation(conversationID int64, limit, offset int) ([]*models.Message, error) {
	return f.byConversation[conversationID], nil
}

func (f *fakeMessages) CountByConversation(conversationID int64) (int, error) {
	return len(f.byConversation[conversationID]), nil
}

type fakeSlotLister struct {
	statuses []models.SlotStatus
	err      error
	gotBank  models.SimBank
}

func (f *fakeSlotLister) SlotStatuses(ctx context.Context, bank models.SimBank) ([]models.SlotStatus, error) {
	f.gotBank = bank
	return f.statuses, f.err
}

type adminFixture struct {
	blocklist *fakeBlocklist
	convs     *fakeConversations
	msgs      *fakeMessages
	slots     *fakeSlotLister
	engine    *gin.Engine
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{
		blocklist: newFakeBlocklist(),
		convs:     &fakeConversations{byID: make(map[int64]*models.Conversation)},
		msgs:      &fakeMessages{byConversation: make(map[int64][]*models.Message)},
		slots:     &fakeSlotLister{},
	}

	registry := bank.NewRegistry([]config.BankConfig{
		{ID: "50004", Host: "10.0.0.4", Port: 80, Username: "admin", Password: "pw"},
	})
	h := NewAdminHandler(f.blocklist, f.convs, f.msgs, registry, f.slots)

	f.engine = gin.New()
	f.engine.Use(func(c *gin.Context) { c.Set("operatorID", "op-1") })
	f.engine.POST("/api/block", h.HandleBlock)
	f.engine.GET("/api/block", h.HandleListBlocked)
	f.engine.DELETE("/api/block/:phone", h.HandleUnblock)
	f.engine.GET("/api/conversations/:id/messages", h.HandleConversationMessages)
	f.engine.GET("/api/banks/:id/slots", h.HandleBankSlots)
	return f
}

func (f *adminFixture) do(method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestHandleBlockNormalizesPhone(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodPost, "/api/block", `{"phone":"5135559999","reason":"abuse"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "+15135559999")
	assert.Equal(t, "op-1", f.blocklist.blocked["+15135559999"])
}

func TestHandleBlockRejectsBadPhone(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodPost, "/api/block", `{"phone":"123"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.blocklist.blocked)
}

func TestHandleUnblock(t *testing.T) {
	f := newAdminFixture(t)
	f.blocklist.blocked["+15135559999"] = "op-1"

	w := f.do(http.MethodDelete, "/api/block/+15135559999", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"+15135559999"}, f.blocklist.unblocked)

	w = f.do(http.MethodDelete, "/api/block/+15135559999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleConversationMessages(t *testing.T) {
	f := newAdminFixture(t)
	f.convs.byID[7] = &models.Conversation{ID: 7, SenderPhone: "+17185551234", RecipientPhone: "+15135559999"}
	f.msgs.byConversation[7] = []*models.Message{
		{ID: 2, ConversationID: 7, Direction: models.DirectionOutbound, Content: "Hi back"},
		{ID: 1, ConversationID: 7, Direction: models.DirectionInbound, Content: "Hi"},
	}

	w := f.do(http.MethodGet, "/api/conversations/7/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hi back")
	assert.Contains(t, w.Body.String(), "+17185551234")

	w = f.do(http.MethodGet, "/api/conversations/99/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/conversations/abc/messages", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBankSlots(t *testing.T) {
	f := newAdminFixture(t)
	f.slots.statuses = []models.SlotStatus{
		{Port: "4.07", Active: true, State: models.StateReady, Signal: 23, Operator: "T-Mobile"},
		{Port: "4.08", Active: false, State: models.StateNoSim},
	}

	w := f.do(http.MethodGet, "/api/banks/50004/slots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50004", f.slots.gotBank.ID)
	assert.Contains(t, w.Body.String(), `"ready":true`)
	assert.Contains(t, w.Body.String(), `"no sim"`)
}

func TestHandleBankSlotsUnknownBank(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodGet, "/api/banks/nope/slots", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleBankSlotsVendorUnreachable(t *testing.T) {
	f := newAdminFixture(t)
	f.slots.err = errors.New("connection refused")

	w := f.do(http.MethodGet, "/api/banks/50004/slots", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
