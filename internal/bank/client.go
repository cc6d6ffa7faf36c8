package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to the SIM bank hardware's HTTP control API.
//
// Two underlying resty clients are used: a plain one with a short per-call
// timeout for status and switch calls (the readiness poll loop is itself the
// retry mechanism there), and a retrying one for the send command, where
// transient HTTP failures against embedded devices are common.
type Client struct {
	http *resty.Client
	send *resty.Client
}

// ClientOptions tunes the vendor client.
type ClientOptions struct {
	HTTPTimeout   time.Duration
	SendAttempts  int
	SendBaseDelay time.Duration
}

// NewClient creates a vendor client. Zero option fields get conservative
// defaults (5s per call, 3 send attempts, 1s base backoff).
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 5 * time.Second
	}
	if opts.SendAttempts < 1 {
		opts.SendAttempts = 3
	}
	if opts.SendBaseDelay <= 0 {
		opts.SendBaseDelay = time.Second
	}

	httpClient := resty.New().
		SetTimeout(opts.HTTPTimeout)

	// Resty doubles the wait per attempt up to the max, which gives the
	// bounded exponential backoff the send path needs. Vendor rejections come
	// back as 200s with an error payload, so only transport-level failures
	// and 5xx responses are retried.
	sendClient := resty.New().
		SetTimeout(opts.HTTPTimeout).
		SetRetryCount(opts.SendAttempts - 1).
		SetRetryWaitTime(opts.SendBaseDelay).
		SetRetryMaxWaitTime(opts.SendBaseDelay * 4).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Client{http: httpClient, send: sendClient}
}

func baseURL(bank models.SimBank) string {
	if strings.HasPrefix(bank.Host, "http://") || strings.HasPrefix(bank.Host, "https://") {
		return bank.Host
	}
	if bank.Port > 0 {
		return fmt.Sprintf("http://%s:%d", bank.Host, bank.Port)
	}
	return "http://" + bank.Host
}

// slotEntry is the vendor's per-slot status wire format.
type slotEntry struct {
	Port     string `json:"port"`
	Active   int    `json:"active"`
	State    int    `json:"st"`
	Signal   int    `json:"sig"`
	Balance  string `json:"bal"`
	Operator string `json:"opr"`
	Number   string `json:"num"`
	ICCID    string `json:"iccid"`
}

func (e slotEntry) toStatus() models.SlotStatus {
	return models.SlotStatus{
		Port:        e.Port,
		Active:      e.Active == 1,
		State:       models.RegistrationState(e.State),
		Signal:      e.Signal,
		Balance:     e.Balance,
		Operator:    e.Operator,
		PhoneNumber: e.Number,
		ICCID:       e.ICCID,
	}
}

// SlotStatuses queries the bank for the state of every slot.
func (c *Client) SlotStatuses(ctx context.Context, bank models.SimBank) ([]models.SlotStatus, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"username": bank.Username,
			"password": bank.Password,
			"slots":    "all",
		}).
		Get(baseURL(bank) + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("status query to bank %s: %w", bank.ID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status query to bank %s: unexpected HTTP %d", bank.ID, resp.StatusCode())
	}

	entries, err := decodeStatusBody(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("status response from bank %s: %w", bank.ID, err)
	}

	statuses := make([]models.SlotStatus, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.toStatus())
	}
	return statuses, nil
}

// decodeStatusBody normalizes the two shapes the firmware is known to emit:
// a bare array, or an object wrapping the array under a "status" key.
func decodeStatusBody(body []byte) ([]slotEntry, error) {
	var entries []slotEntry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}

	var wrapped struct {
		Status []slotEntry `json:"status"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("malformed status payload: %w", err)
	}
	return wrapped.Status, nil
}

// SlotStatus returns the status of a single slot, or an error if the bank
// does not report it.
func (c *Client) SlotStatus(ctx context.Context, bank models.SimBank, slotID string) (models.SlotStatus, error) {
	statuses, err := c.SlotStatuses(ctx, bank)
	if err != nil {
		return models.SlotStatus{}, err
	}
	for _, s := range statuses {
		if s.Port == slotID {
			return s, nil
		}
	}
	return models.SlotStatus{}, fmt.Errorf("bank %s does not report slot %s", bank.ID, slotID)
}

type commandRequest struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Ports string `json:"ports"`
}

// SwitchSlot instructs the bank to activate the given slot.
func (c *Client) SwitchSlot(ctx context.Context, bank models.SimBank, slotID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(commandRequest{Type: "command", Op: "switch", Ports: slotID}).
		Post(baseURL(bank) + "/api/command")
	if err != nil {
		return fmt.Errorf("switch command to bank %s: %w", bank.ID, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("switch command to bank %s: unexpected HTTP %d", bank.ID, resp.StatusCode())
	}
	return nil
}

type sendRequest struct {
	Type          string `json:"type"`
	TransactionID string `json:"tid"`
	Port          int    `json:"port"`
	To            string `json:"to"`
	SMS           string `json:"sms"`
}

type sendResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// SendSMS submits one message through the given channel. Both the top-level
// code and the per-task status must indicate acceptance.
//
// The transaction id is stable across HTTP retries, so a "duplicated
// transaction id" rejection on a retried attempt means the first attempt
// actually landed and only its acknowledgment was lost; that case is treated
// as success rather than surfaced as a vendor error.
func (c *Client) SendSMS(ctx context.Context, bank models.SimBank, tid string, channel int, toDigits, message string) error {
	req := c.send.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{
			Type:          "send-sms",
			TransactionID: tid,
			Port:          channel,
			To:            toDigits,
			SMS:           message,
		})

	resp, err := req.Post(baseURL(bank) + "/api/send")
	if err != nil {
		return fmt.Errorf("send command to bank %s: %w", bank.ID, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("send command to bank %s: unexpected HTTP %d", bank.ID, resp.StatusCode())
	}

	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("send response from bank %s: %w", bank.ID, err)
	}

	if out.Code != 200 {
		return &VendorError{Code: fmt.Sprintf("%d", out.Code), Reason: "device reported failure"}
	}
	if out.Status != taskAccepted {
		if out.Status == taskDuplicateTID && resp.Request.Attempt > 1 {
			logger.Warn("Send retry hit duplicate transaction id, treating original as delivered",
				zap.String("bank", bank.ID),
				zap.String("tid", tid))
			return nil
		}
		return newVendorError(out.Status)
	}
	return nil
}
