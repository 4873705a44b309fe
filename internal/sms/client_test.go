package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
)

func TestSendPostsForm(t *testing.T) {
	var path, to, from, body, user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		user, pass, _ = r.BasicAuth()
		_ = r.ParseForm()
		to, from, body = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		TwilioAPIBaseURL: srv.URL,
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "secret",
		TwilioFromNumber: "+15550001111",
	}, logger.New("development"))

	receipt, err := client.Send(context.Background(), "16502530000", "Hi there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/Accounts/AC1/Messages.json" || user != "AC1" || pass != "secret" {
		t.Fatalf("unexpected request path=%q user=%q", path, user)
	}
	if to != "+16502530000" || from != "+15550001111" || body != "Hi there" {
		t.Fatalf("unexpected form to=%q from=%q body=%q", to, from, body)
	}
	if receipt.MessageID != "SM123" || receipt.Status != http.StatusCreated {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestSendSurfacesTwilioMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The 'To' number is not valid."}`))
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		TwilioAPIBaseURL: srv.URL,
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "secret",
		TwilioFromNumber: "+15550001111",
	}, logger.New("development"))

	_, err := client.Send(context.Background(), "+16502530000", "Hi")
	if err == nil || err.Error() != "twilio returned 400: The 'To' number is not valid." {
		t.Fatalf("expected twilio message in error, got %v", err)
	}
}

func TestSendDemoMode(t *testing.T) {
	client := NewClient(&config.Config{TwilioAccountSID: "AC1"}, logger.New("development"))
	receipt, err := client.Send(context.Background(), "+16502530000", "Hi")
	if err != nil || !receipt.Demo || receipt.MessageID == "" {
		t.Fatalf("expected demo receipt, got %+v err=%v", receipt, err)
	}
}
