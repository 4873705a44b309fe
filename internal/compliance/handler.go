package compliance

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"realestate_ai_backend/platform/apperr"
	"realestate_ai_backend/platform/httpkit"
	"realestate_ai_backend/platform/phone"
	"realestate_ai_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgTenantNotSet     = "tenant not set"
	msgEntryNotFound    = "address is not on the do-not-contact list"

	defaultPageSize = 50
	maxPageSize     = 200
)

type AddEntryRequest struct {
	Address string `json:"address" validate:"required,e164phone"`
	Reason  string `json:"reason" validate:"omitempty,max=500"`
}

type EntryResponse struct {
	Address   string    `json:"address"`
	Reason    string    `json:"reason"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type ListResponse struct {
	Items  []EntryResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Handler serves the admin DNC API.
type Handler struct {
	gate *Gatekeeper
	val  *validator.Validator
}

func NewHandler(gate *Gatekeeper, val *validator.Validator) *Handler {
	return &Handler{gate: gate, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dnc", h.List)
	rg.POST("/dnc", h.Add)
	rg.DELETE("/dnc/:address", h.Remove)
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.gate.List(c.Request.Context(), tenantID, limit, offset)
	if httpkit.HandleError(c, apperrOrNil(err)) {
		return
	}

	items := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, EntryResponse{Address: e.Address, Reason: e.Reason, Source: e.Source, CreatedAt: e.CreatedAt})
	}
	httpkit.OK(c, ListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Add(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}

	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	address := phone.NormalizeE164(req.Address)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "added by admin"
	}
	if err := h.gate.RecordOptOut(c.Request.Context(), tenantID, address, reason, SourceAdmin); httpkit.HandleError(c, apperrOrNil(err)) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, EntryResponse{Address: address, Reason: reason, Source: SourceAdmin})
}

func (h *Handler) Remove(c *gin.Context) {
	tenantID, ok := requireTenant(c)
	if !ok {
		return
	}

	address := phone.NormalizeE164(c.Param("address"))
	removed, err := h.gate.RecordOptIn(c.Request.Context(), tenantID, address, SourceAdmin)
	if httpkit.HandleError(c, apperrOrNil(err)) {
		return
	}
	if !removed {
		httpkit.HandleError(c, apperr.NotFound(msgEntryNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

func requireTenant(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, msgTenantNotSet, nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func apperrOrNil(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindInternal, "dnc store unavailable", err)
}
