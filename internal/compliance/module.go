package compliance

import (
	apphttp "realestate_ai_backend/internal/http"
	"realestate_ai_backend/platform/validator"
)

// Module mounts the admin DNC API.
type Module struct {
	handler *Handler
}

func NewModule(gate *Gatekeeper, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(gate, val)}
}

func (m *Module) Name() string {
	return "compliance"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
