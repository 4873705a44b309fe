// Package agent wraps the language-model oracle that classifies inbound
// messages, drafts replies and extracts qualification data. Whatever the
// oracle returns, Classify yields a complete ClassificationResult.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/sanitize"
)

const rawExcerptChars = 200

type Classifier struct {
	gen     Generator
	profile config.AgentProfile
	timeout time.Duration
	log     *logger.Logger
}

func NewClassifier(gen Generator, profile config.AgentProfile, timeout time.Duration, log *logger.Logger) *Classifier {
	return &Classifier{gen: gen, profile: profile, timeout: timeout, log: log}
}

// SystemPrompt returns the instruction the generator should run with.
func SystemPrompt(profile config.AgentProfile) string {
	return buildSystemPrompt(profile)
}

// Classify never fails. Transport errors and unusable output produce the
// fallback result with the cause in Notes.
func (c *Classifier) Classify(ctx context.Context, req ClassifyRequest) ClassificationResult {
	loc := c.profile.Location()
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.gen.Generate(callCtx, req.SenderAddress, buildUserPrompt(req, loc))
	if err != nil {
		c.log.Warn("classifier: oracle call failed", "error", err)
		return c.fallback(fmt.Sprintf("Classification unavailable: %v", err))
	}

	wire, ok := decodeResult(raw)
	if !ok {
		c.log.Warn("classifier: unparseable oracle output", "bytes", len(raw))
		return c.fallback("JSON parse failed. Raw content: " + sanitize.Truncate(raw, rawExcerptChars))
	}

	return c.normalize(wire, loc)
}

func (c *Classifier) fallback(notes string) ClassificationResult {
	return ClassificationResult{
		Intent:   IntentOther,
		Reply:    c.profile.FallbackReply,
		Notes:    notes,
		Fallback: true,
	}
}

func (c *Classifier) normalize(w wireResult, loc *time.Location) ClassificationResult {
	result := ClassificationResult{
		Intent: ParseIntent(string(w.Intent)),
		Reply:  strings.TrimSpace(string(w.Reply)),
		Notes:  strings.TrimSpace(string(w.Notes)),
	}
	if result.Reply == "" {
		result.Reply = c.profile.GenericReply
	}
	if c.profile.MaxReplyChars > 0 {
		result.Reply = sanitize.Truncate(result.Reply, c.profile.MaxReplyChars)
	}

	if days := intPtr(w.ScheduleFollowUpDays); days != nil && *days > 0 {
		result.ScheduleFollowUpDays = days
	}

	if q := w.Qualification; q != nil {
		bedrooms := intPtr(q.Bedrooms)
		bathrooms := floatPtr(q.Bathrooms)
		sqft := wholeNumber(q.Sqft, true)
		mentions := map[string]string{}
		unparsed(mentions, "bedrooms", q.Bedrooms, bedrooms != nil)
		unparsed(mentions, "bathrooms", q.Bathrooms, bathrooms != nil)
		unparsed(mentions, "sqft", q.Sqft, sqft != nil)
		if len(mentions) == 0 {
			mentions = nil
		}

		result.Qualification = Qualification{
			Name:             textPtr(q.Name),
			Email:            textPtr(q.Email),
			PropertyAddress:  textPtr(q.PropertyAddress),
			PropertyType:     textPtr(q.PropertyType),
			Bedrooms:         bedrooms,
			Bathrooms:        bathrooms,
			Sqft:             sqft,
			OwnerGoal:        textPtr(q.OwnerGoal),
			Timeline:         textPtr(q.Timeline),
			PriceExpectation: textPtr(q.PriceExpectation),
			Budget:           textPtr(q.Budget),
			MissingFields:    q.MissingFields,
			Qualified:        bool(q.Qualified),
			Unparsed:         mentions,
		}
	}

	if m := w.Meeting; m != nil {
		meeting := MeetingRequest{
			Requested:   bool(m.Requested),
			Title:       strings.TrimSpace(string(m.Title)),
			Address:     strings.TrimSpace(string(m.Address)),
			Description: strings.TrimSpace(string(m.Description)),
		}
		if m.DateSuggestion != nil {
			meeting.Suggestion = DateSuggestion{
				Date: strings.TrimSpace(string(m.DateSuggestion.Date)),
				Time: strings.TrimSpace(string(m.DateSuggestion.Time)),
			}
		}
		if bool(m.ReadyToBook) {
			if startsAt, ok := meeting.Suggestion.Resolve(loc); ok {
				meeting.ReadyToBook = true
				meeting.StartsAt = startsAt
			}
		}
		meeting.Requested = meeting.Requested || meeting.ReadyToBook
		result.Meeting = meeting
	}

	if result.Qualification.Qualified {
		result.AgentBrief = textPtr(w.AgentBrief)
	}

	return result
}
