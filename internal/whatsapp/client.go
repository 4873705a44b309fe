// Package whatsapp sends text messages through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"
)

const defaultTimeout = 10 * time.Second

// Client posts to /{phone_number_id}/messages. Without an access token or
// phone number id it runs in demo mode and never touches the network.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	timeout := cfg.GetSendTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.GetWhatsAppAPIBaseURL(), "/"),
		accessToken:   cfg.GetWhatsAppAccessToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: timeout},
		log:           log,
	}
}

// Demo reports whether the client is missing credentials.
func (c *Client) Demo() bool {
	return c == nil || c.accessToken == "" || c.phoneNumberID == ""
}

func (c *Client) Send(ctx context.Context, to, body string) (outbound.Receipt, error) {
	recipient := phone.Digits(phone.NormalizeE164(to))
	if c.Demo() {
		if c != nil {
			c.log.Info("whatsapp: demo mode, message not sent", "to", recipient)
		}
		return outbound.Receipt{Demo: true, MessageID: fmt.Sprintf("demo-wa-%d", time.Now().UnixMilli())}, nil
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return outbound.Receipt{}, fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return outbound.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return outbound.Receipt{}, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(resp.Body)
	receipt := outbound.Receipt{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}

	var decoded sendResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := receipt.Body
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return receipt, fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, msg)
	}

	if len(decoded.Messages) > 0 {
		receipt.MessageID = decoded.Messages[0].ID
	}
	c.log.Info("whatsapp sent", "to", recipient, "messageId", receipt.MessageID)
	return receipt, nil
}

var _ outbound.Sender = (*Client)(nil)
