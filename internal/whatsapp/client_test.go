package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
)

func TestSendPostsTextMessage(t *testing.T) {
	var got sendRequest
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.OUT1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "token",
		WhatsAppPhoneNumberID: "1055",
	}, logger.New("development"))

	receipt, err := client.Send(context.Background(), "+16502530000", "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/1055/messages" || auth != "Bearer token" {
		t.Fatalf("unexpected request path=%q auth=%q", path, auth)
	}
	if got.To != "16502530000" || got.Text.Body != "Hello" || got.Type != "text" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if receipt.MessageID != "wamid.OUT1" || receipt.Status != http.StatusOK {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestSendReturnsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		WhatsAppAPIBaseURL:    srv.URL,
		WhatsAppAccessToken:   "token",
		WhatsAppPhoneNumberID: "1055",
	}, logger.New("development"))

	receipt, err := client.Send(context.Background(), "+16502530000", "Hello")
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if receipt.Status != http.StatusBadRequest || receipt.Body == "" {
		t.Fatalf("expected status and body on receipt, got %+v", receipt)
	}
}

func TestSendDemoModeWithoutCredentials(t *testing.T) {
	client := NewClient(&config.Config{}, logger.New("development"))
	receipt, err := client.Send(context.Background(), "+16502530000", "Hello")
	if err != nil || !receipt.Demo {
		t.Fatalf("expected demo receipt, got %+v err=%v", receipt, err)
	}

	var nilClient *Client
	if receipt, err := nilClient.Send(context.Background(), "+16502530000", "Hello"); err != nil || !receipt.Demo {
		t.Fatalf("expected nil client to behave as demo")
	}
}
