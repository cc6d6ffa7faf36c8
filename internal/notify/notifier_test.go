package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
)

func testConv() *models.Conversation {
	return &models.Conversation{
		ID:             1,
		SenderPhone:    "+17185551234",
		RecipientPhone: "+15135559999",
		BankID:         "50004",
		SimPort:        "4.07",
	}
}

func TestPostNewThread(t *testing.T) {
	var got map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threadRef":"thread-42"}`))
	}))
	defer ts.Close()

	n := NewWebhookNotifier(ts.URL, time.Second)
	ref, err := n.PostNewThread(context.Background(), testConv(), "Hello")
	if err != nil {
		t.Fatalf("PostNewThread() error = %v", err)
	}
	if ref != "thread-42" {
		t.Errorf("threadRef = %q", ref)
	}
	if got["text"] != "Hello" {
		t.Errorf("posted text = %v", got["text"])
	}
}

func TestPostNewThreadMissingRef(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	n := NewWebhookNotifier(ts.URL, time.Second)
	if _, err := n.PostNewThread(context.Background(), testConv(), "Hello"); err == nil {
		t.Fatal("expected error when webhook returns no thread reference")
	}
}

func TestPostToThreadAlreadyExistsIsBenign(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"already_exists"}`))
	}))
	defer ts.Close()

	n := NewWebhookNotifier(ts.URL, time.Second)
	if err := n.PostToThread(context.Background(), "thread-42", "hi"); err != nil {
		t.Fatalf("PostToThread() error = %v, want already_exists tolerated", err)
	}
}

func TestPostToChannelError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"channel_not_found"}`))
	}))
	defer ts.Close()

	n := NewWebhookNotifier(ts.URL, time.Second)
	if err := n.PostToChannel(context.Background(), "nope", "hi"); err == nil {
		t.Fatal("expected channel_not_found to surface as an error")
	}
}
