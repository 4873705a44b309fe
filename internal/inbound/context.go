package inbound

import (
	"context"
	"errors"

	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultHistoryWindow = 20

type contextStore interface {
	repository.LeadReader
	repository.ConversationStore
}

// Conversation is what the classifier sees about a thread.
type Conversation struct {
	History []agent.HistoryTurn
	Lead    *repository.Lead
}

// Assembler loads the recent thread and the lead. Lookup failures degrade
// to an empty conversation.
type Assembler struct {
	store  contextStore
	window int
	log    *logger.Logger
}

func NewAssembler(store contextStore, window int, log *logger.Logger) *Assembler {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Assembler{store: store, window: window, log: log}
}

func (a *Assembler) Assemble(ctx context.Context, tenantID uuid.UUID, address string) Conversation {
	var conv Conversation

	turns, err := a.store.ListRecentTurns(ctx, tenantID, address, a.window)
	if err != nil {
		a.log.Warn("inbound: history lookup failed", "address", address, "error", err)
	}
	for _, t := range turns {
		conv.History = append(conv.History, agent.HistoryTurn{Direction: t.Direction, Body: t.Body, At: t.CreatedAt})
	}

	lead, err := a.store.FindLeadByPhone(ctx, tenantID, address)
	switch {
	case err == nil:
		conv.Lead = &lead
	case !errors.Is(err, repository.ErrNotFound):
		a.log.Warn("inbound: lead lookup failed", "address", address, "error", err)
	}
	return conv
}

// Profile converts the lead into the classifier's view of it.
func (c Conversation) Profile() *agent.LeadProfile {
	if c.Lead == nil {
		return nil
	}
	l := c.Lead
	return &agent.LeadProfile{
		Name:             l.DisplayName(),
		Email:            deref(l.Email),
		PropertyAddress:  deref(l.PropertyAddress),
		PropertyType:     deref(l.PropertyType),
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		Sqft:             l.Sqft,
		OwnerGoal:        deref(l.OwnerGoal),
		Timeline:         deref(l.Timeline),
		PriceExpectation: deref(l.PriceExpectation),
		Budget:           l.Budget,
		Qualified:        l.Qualified,
	}
}

func (c Conversation) leadID() *uuid.UUID {
	if c.Lead == nil {
		return nil
	}
	id := c.Lead.ID
	return &id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
