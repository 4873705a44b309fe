package audit

import (
	apphttp "realestate_ai_backend/internal/http"
)

// Module exposes the audit trails on the admin API.
type Module struct {
	handler *Handler
}

func NewModule(auditLog *Log) *Module {
	return &Module{handler: NewHandler(auditLog)}
}

func (m *Module) Name() string {
	return "audit"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/audit"))
}
