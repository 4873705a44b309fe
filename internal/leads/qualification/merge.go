// Package qualification folds classifier output into the lead record
// without ever overwriting a value the lead already has.
package qualification

import (
	"fmt"
	"strconv"
	"strings"

	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
)

// BriefHeader introduces the agent brief inside lead notes.
const BriefHeader = "--- Agent Brief ---"

// Merge stages the fields q adds to lead. Populated fields are kept; a
// differing mention is appended to notes instead. The returned update is
// empty when there is nothing new.
func Merge(lead repository.Lead, q agent.Qualification, brief *string) repository.LeadUpdate {
	m := merger{lead: lead}

	m.update.Name = m.text("name", lead.Name, q.Name)
	m.update.Email = m.text("email", lead.Email, q.Email)
	m.update.PropertyAddress = m.text("property_address", lead.PropertyAddress, q.PropertyAddress)
	m.update.PropertyType = m.text("property_type", lead.PropertyType, q.PropertyType)
	m.update.OwnerGoal = m.text("owner_goal", lead.OwnerGoal, q.OwnerGoal)
	m.update.Timeline = m.text("timeline", lead.Timeline, q.Timeline)
	m.update.PriceExpectation = m.text("price_expectation", lead.PriceExpectation, q.PriceExpectation)
	m.update.Bedrooms = m.integer("bedrooms", lead.Bedrooms, q.Bedrooms)
	m.update.Sqft = m.integer("sqft", lead.Sqft, q.Sqft)
	m.update.Bathrooms = m.decimal("bathrooms", lead.Bathrooms, q.Bathrooms)
	m.update.Budget = m.budget(lead.Budget, q.Budget)
	for _, field := range []string{"bedrooms", "bathrooms", "sqft"} {
		if raw, ok := q.Unparsed[field]; ok {
			m.note(fmt.Sprintf("%s mentioned as %q (not a single value)", field, raw))
		}
	}

	if q.Qualified {
		m.update.MarkQualified = !lead.Qualified
		if brief != nil && strings.TrimSpace(*brief) != "" && !m.hasNote(BriefHeader) {
			m.note(BriefHeader + "\n" + strings.TrimSpace(*brief))
		}
	}

	return m.update
}

type merger struct {
	lead   repository.Lead
	update repository.LeadUpdate
}

func (m *merger) hasNote(text string) bool {
	if strings.Contains(m.lead.Notes, text) {
		return true
	}
	for _, staged := range m.update.AppendNotes {
		if strings.Contains(staged, text) {
			return true
		}
	}
	return false
}

// note appends text once; repeated mentions across turns are not duplicated.
func (m *merger) note(text string) {
	if m.hasNote(text) {
		return
	}
	m.update.AppendNotes = append(m.update.AppendNotes, text)
}

func (m *merger) conflict(field, mentioned, kept string) {
	m.note(fmt.Sprintf("%s mentioned as %s (kept %s)", field, mentioned, kept))
}

func (m *merger) text(field string, current, incoming *string) *string {
	if incoming == nil {
		return nil
	}
	value := strings.TrimSpace(*incoming)
	if value == "" {
		return nil
	}
	if current == nil || strings.TrimSpace(*current) == "" {
		return &value
	}
	if !strings.EqualFold(strings.TrimSpace(*current), value) {
		m.conflict(field, value, strings.TrimSpace(*current))
	}
	return nil
}

func (m *merger) integer(field string, current, incoming *int) *int {
	if incoming == nil {
		return nil
	}
	if current == nil {
		value := *incoming
		return &value
	}
	if *current != *incoming {
		m.conflict(field, strconv.Itoa(*incoming), strconv.Itoa(*current))
	}
	return nil
}

func (m *merger) decimal(field string, current, incoming *float64) *float64 {
	if incoming == nil {
		return nil
	}
	if current == nil {
		value := *incoming
		return &value
	}
	if *current != *incoming {
		m.conflict(field, formatDecimal(*incoming), formatDecimal(*current))
	}
	return nil
}

func (m *merger) budget(current *int64, incoming *string) *int64 {
	if incoming == nil || strings.TrimSpace(*incoming) == "" {
		return nil
	}
	raw := strings.TrimSpace(*incoming)
	amount, ok := ParsePrice(raw)
	if !ok {
		m.note(fmt.Sprintf("budget mentioned as %q (not a single amount)", raw))
		return nil
	}
	if current == nil {
		return &amount
	}
	if *current != amount {
		m.conflict("budget", strconv.FormatInt(amount, 10), strconv.FormatInt(*current, 10))
	}
	return nil
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
