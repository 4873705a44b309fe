package inbound

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"realestate_ai_backend/platform/httpkit"
	"realestate_ai_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	maxWebhookBody = 1 << 20
	emptyTwiML     = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
)

// WebhookConfig carries the provider secrets. Empty secrets disable the
// matching signature check.
type WebhookConfig interface {
	GetWhatsAppVerifyToken() string
	GetWhatsAppAppSecret() string
	GetTwilioAuthToken() string
	GetTwilioWebhookURL() string
}

type Processor interface {
	Process(ctx context.Context, ev InboundEvent) Outcome
	ProcessBatch(ctx context.Context, events []InboundEvent) []Outcome
}

type MessageResult struct {
	MessageID string  `json:"messageId"`
	Outcome   Outcome `json:"outcome"`
}

type WebhookResponse struct {
	OK      bool            `json:"ok"`
	Results []MessageResult `json:"results"`
}

// Handler acknowledges every authentic delivery with 200 so providers do
// not enter a redelivery loop; failures surface only in the audit trail.
type Handler struct {
	proc Processor
	cfg  WebhookConfig
	log  *logger.Logger
	now  func() time.Time
}

func NewHandler(proc Processor, cfg WebhookConfig, log *logger.Logger) *Handler {
	return &Handler{proc: proc, cfg: cfg, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/whatsapp", h.VerifyWhatsApp)
	rg.POST("/whatsapp", h.WhatsApp)
	rg.POST("/sms", h.SMS)
}

// VerifyWhatsApp answers the Meta subscription handshake.
func (h *Handler) VerifyWhatsApp(c *gin.Context) {
	token := h.cfg.GetWhatsAppVerifyToken()
	if c.Query("hub.mode") == "subscribe" && token != "" && c.Query("hub.verify_token") == token {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}
	c.String(http.StatusForbidden, "Forbidden")
}

func (h *Handler) WhatsApp(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	if secret := h.cfg.GetWhatsAppAppSecret(); secret != "" {
		if !VerifyMetaSignature(secret, body, c.GetHeader("X-Hub-Signature-256")) {
			h.log.Warn("inbound: whatsapp signature mismatch", "client_ip", c.ClientIP())
			httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
			return
		}
	}

	events, err := ParseWhatsAppPayload(body, h.now())
	if err != nil {
		h.log.Warn("inbound: unreadable whatsapp payload", "error", err)
		httpkit.OK(c, WebhookResponse{OK: true, Results: []MessageResult{}})
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	outcomes := h.proc.ProcessBatch(ctx, events)

	results := make([]MessageResult, len(events))
	for i, ev := range events {
		results[i] = MessageResult{MessageID: ev.ProviderMessageID, Outcome: outcomes[i]}
	}
	httpkit.OK(c, WebhookResponse{OK: true, Results: results})
}

func (h *Handler) SMS(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	if err := c.Request.ParseForm(); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	form := c.Request.PostForm

	if token := h.cfg.GetTwilioAuthToken(); token != "" {
		if !VerifyTwilioSignature(token, h.twilioURL(c), form, c.GetHeader("X-Twilio-Signature")) {
			h.log.Warn("inbound: twilio signature mismatch", "client_ip", c.ClientIP())
			httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
			return
		}
	}

	ev := ParseTwilioForm(form, h.now())
	h.proc.Process(context.WithoutCancel(c.Request.Context()), ev)
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(emptyTwiML))
}

// twilioURL is the URL Twilio signed: the configured public URL, or the
// request URL as seen by this server.
func (h *Handler) twilioURL(c *gin.Context) string {
	if configured := h.cfg.GetTwilioWebhookURL(); configured != "" {
		return configured
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
