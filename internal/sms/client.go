// Package sms sends text messages through the Twilio Messages API.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *logger.Logger
}

type messageResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	timeout := cfg.GetSendTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetTwilioAPIBaseURL(), "/"),
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		from:       cfg.GetTwilioFromNumber(),
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Demo reports whether any Twilio credential is missing.
func (c *Client) Demo() bool {
	return c == nil || c.accountSID == "" || c.authToken == "" || c.from == ""
}

func (c *Client) Send(ctx context.Context, to, body string) (outbound.Receipt, error) {
	recipient := phone.NormalizeE164(to)
	if !strings.HasPrefix(recipient, "+") {
		recipient = "+" + recipient
	}
	if c.Demo() {
		if c != nil {
			c.log.Info("sms: demo mode, message not sent", "to", recipient)
		}
		return outbound.Receipt{Demo: true, MessageID: fmt.Sprintf("demo-sms-%d", time.Now().UnixMilli())}, nil
	}

	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return outbound.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return outbound.Receipt{}, fmt.Errorf("twilio request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(resp.Body)
	receipt := outbound.Receipt{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}

	var decoded messageResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := decoded.Message
		if msg == "" {
			msg = fmt.Sprintf("Twilio error %d", resp.StatusCode)
		}
		return receipt, fmt.Errorf("twilio returned %d: %s", resp.StatusCode, msg)
	}

	receipt.MessageID = decoded.SID
	c.log.Info("sms sent", "to", recipient, "sid", decoded.SID)
	return receipt, nil
}

var _ outbound.Sender = (*Client)(nil)
