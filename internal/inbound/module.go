package inbound

import (
	apphttp "realestate_ai_backend/internal/http"
	"realestate_ai_backend/platform/logger"
)

// Module mounts the provider webhooks.
type Module struct {
	handler *Handler
}

func NewModule(proc Processor, cfg WebhookConfig, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(proc, cfg, log)}
}

func (m *Module) Name() string {
	return "inbound"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks)
}

var _ apphttp.Module = (*Module)(nil)
