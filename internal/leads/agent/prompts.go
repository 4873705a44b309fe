package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"realestate_ai_backend/platform/config"
)

func buildSystemPrompt(profile config.AgentProfile) string {
	agentLine := profile.Name
	if profile.Brokerage != "" {
		agentLine += " from " + profile.Brokerage
	}

	return fmt.Sprintf(`You are a chat assistant for a real estate agent named %s.
Your job is to:
1. Understand the property owner's latest message in the context of the conversation.
2. Decide their intent.
3. Collect the qualification checklist: property_address, property_type, bedrooms, bathrooms,
   sqft, owner_goal, timeline, price_expectation, budget.
4. Write a short, friendly reply that asks for at most one missing item, or moves toward a meeting.

Rules:
- Keep replies under %d characters.
- Always be respectful and conversational. Never mention that you are an AI.
- Only report qualification values the owner actually stated. Use null for anything unknown.
- Set qualified=true only when every checklist item is known. When qualified, write agent_brief:
  a 3-5 line summary for the agent.
- If the owner wants to meet, set meeting.requested=true. Set meeting.ready_to_book=true only when
  both a concrete date (YYYY-MM-DD) and time (HH:MM, 24h) are known; otherwise ask for the missing part.
- If they clearly do NOT want further contact, use intent "stop".
- If they ask for a human, are upset, or raise legal or pricing disputes, use intent "escalate".
- If they say maybe later, set schedule_follow_up_days to a realistic window (14, 30, 60).

Return ONLY valid JSON with this structure:
{
  "intent": "interested" | "not_interested" | "maybe_later" | "needs_more_info" | "wrong_person" | "stop" | "escalate" | "other",
  "reply": "string",
  "notes": "short internal note for the agent",
  "schedule_follow_up_days": integer or null,
  "qualification": {
    "name": string|null, "email": string|null,
    "property_address": string|null, "property_type": string|null,
    "bedrooms": integer|null, "bathrooms": number|null, "sqft": integer|null,
    "owner_goal": string|null, "timeline": string|null,
    "price_expectation": string|null, "budget": string|null,
    "missing_fields": [string], "qualified": boolean
  },
  "meeting": {
    "requested": boolean, "ready_to_book": boolean, "title": string,
    "date_suggestion": {"date": "YYYY-MM-DD", "time": "HH:MM"},
    "address": string, "description": string
  },
  "agent_brief": string|null
}`, agentLine, profile.MaxReplyChars)
}

type promptTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
	At   string `json:"at,omitempty"`
}

type promptPayload struct {
	FromNumber   string       `json:"from_number"`
	ToNumber     string       `json:"to_number"`
	OwnerMessage string       `json:"owner_message"`
	Now          string       `json:"now"`
	History      []promptTurn `json:"history,omitempty"`
	KnownLead    *LeadProfile `json:"known_lead,omitempty"`
}

func buildUserPrompt(req ClassifyRequest, loc *time.Location) string {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	payload := promptPayload{
		FromNumber:   req.SenderAddress,
		ToNumber:     req.DestinationAddress,
		OwnerMessage: req.Message,
		Now:          now.In(loc).Format("Monday 2006-01-02 15:04 MST"),
		KnownLead:    req.Lead,
	}
	for _, turn := range req.History {
		role := "owner"
		if turn.Direction == "outbound" {
			role = "agent"
		}
		entry := promptTurn{Role: role, Text: turn.Body}
		if !turn.At.IsZero() {
			entry.At = turn.At.In(loc).Format(time.RFC3339)
		}
		payload.History = append(payload.History, entry)
	}

	encoded, _ := json.MarshalIndent(payload, "", "  ")

	var b strings.Builder
	b.WriteString("Here is the latest message from the property owner with the conversation so far. ")
	b.WriteString("Resolve relative dates like \"tomorrow\" against \"now\". Respond ONLY with JSON as specified.\n\n")
	b.Write(encoded)
	return b.String()
}
