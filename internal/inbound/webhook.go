package inbound

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"realestate_ai_backend/internal/leads/repository"
)

type metaWebhook struct {
	Object string      `json:"object"`
	Entry  []metaEntry `json:"entry"`
}

type metaEntry struct {
	ID      string       `json:"id"`
	Changes []metaChange `json:"changes"`
}

type metaChange struct {
	Field string    `json:"field"`
	Value metaValue `json:"value"`
}

type metaValue struct {
	Metadata struct {
		PhoneNumberID      string `json:"phone_number_id"`
		DisplayPhoneNumber string `json:"display_phone_number"`
	} `json:"metadata"`
	Messages []metaMessage `json:"messages"`
}

type metaMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
}

// ParseWhatsAppPayload flattens a Cloud API delivery into events. Status
// callbacks carry no messages; non-text messages are skipped.
func ParseWhatsAppPayload(body []byte, receivedAt time.Time) ([]InboundEvent, error) {
	var payload metaWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var events []InboundEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			destination := change.Value.Metadata.PhoneNumberID
			for _, msg := range change.Value.Messages {
				if msg.Type != "" && msg.Type != "text" {
					continue
				}
				text := ""
				if msg.Text != nil {
					text = msg.Text.Body
				}
				events = append(events, InboundEvent{
					Channel:            repository.ChannelWhatsApp,
					ProviderMessageID:  msg.ID,
					SenderAddress:      msg.From,
					DestinationAddress: destination,
					RawText:            strings.TrimSpace(text),
					ReceivedAt:         receivedAt,
					ProviderTimestamp:  msg.Timestamp,
				})
			}
		}
	}
	return events, nil
}

// ParseTwilioForm maps a Twilio messaging webhook to an event.
func ParseTwilioForm(form url.Values, receivedAt time.Time) InboundEvent {
	return InboundEvent{
		Channel:            repository.ChannelSMS,
		ProviderMessageID:  form.Get("MessageSid"),
		SenderAddress:      form.Get("From"),
		DestinationAddress: form.Get("To"),
		RawText:            strings.TrimSpace(form.Get("Body")),
		ReceivedAt:         receivedAt,
		ProviderTimestamp:  receivedAt.UTC().Format(time.RFC3339),
	}
}

// VerifyMetaSignature checks X-Hub-Signature-256 ("sha256=<hex>") against
// the raw request body.
func VerifyMetaSignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// TwilioSignature computes X-Twilio-Signature for a form POST to fullURL.
func TwilioSignature(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func VerifyTwilioSignature(authToken, fullURL string, form url.Values, header string) bool {
	if header == "" {
		return false
	}
	return hmac.Equal([]byte(TwilioSignature(authToken, fullURL, form)), []byte(header))
}
