// Package scoring derives a lead's lifecycle status and 0-100 engagement
// score after each inbound reply.
package scoring

import (
	"math"
	"time"

	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
)

// Lead statuses written by the pipeline.
const (
	StatusNew              = "new"
	StatusInterested       = "interested"
	StatusQualified        = "qualified"
	StatusMeetingScheduled = "meeting_scheduled"
	StatusNotInterested    = "not_interested"
	StatusDoNotContact     = "do_not_contact"
	StatusNurture          = "nurture"
)

// Score categories.
const (
	CategoryHot  = "Hot"
	CategoryWarm = "Warm"
	CategoryCold = "Cold"
	CategoryDead = "Dead"
)

const (
	baseScore          = 50.0
	responseBonus      = 30.0
	positiveIntent     = 25.0
	negativeIntent     = -20.0
	perMessage         = 3.0
	maxEngagement      = 15.0
	completeContact    = 5.0
	decayGraceDays     = 14
	neverActivePenalty = -10.0
)

var positiveStatuses = map[string]bool{
	StatusInterested: true, StatusQualified: true, StatusMeetingScheduled: true,
}

var negativeStatuses = map[string]bool{
	StatusNotInterested: true, StatusDoNotContact: true,
}

// Breakdown lists each factor's contribution.
type Breakdown struct {
	Response     float64
	Intent       float64
	Engagement   float64
	Completeness float64
	TimeDecay    float64
}

type Result struct {
	Score     int
	Category  string
	Breakdown Breakdown
}

// NextStatus maps the turn's outcome to the lead status. Booked meetings
// win over qualification, which wins over the raw intent.
func NextStatus(current string, intent agent.Intent, qualified, meetingBooked bool) string {
	switch {
	case intent == agent.IntentStop:
		return StatusDoNotContact
	case meetingBooked:
		return StatusMeetingScheduled
	case current == StatusMeetingScheduled:
		return current
	case qualified:
		return StatusQualified
	}

	switch intent {
	case agent.IntentInterested, agent.IntentNeedsMoreInfo:
		if current == StatusQualified {
			return current
		}
		return StatusInterested
	case agent.IntentNotInterested, agent.IntentWrongPerson:
		return StatusNotInterested
	case agent.IntentMaybeLater:
		return StatusNurture
	}

	if current == "" {
		return StatusNew
	}
	return current
}

// Compute scores lead as of now.
func Compute(lead repository.Lead, now time.Time) Result {
	var b Breakdown
	score := baseScore

	if lead.ResponseCount > 0 {
		b.Response = responseBonus
	}
	switch {
	case positiveStatuses[lead.Status]:
		b.Intent = positiveIntent
	case negativeStatuses[lead.Status]:
		b.Intent = negativeIntent
	}
	b.Engagement = math.Min(float64(lead.ResponseCount)*perMessage, maxEngagement)
	if lead.Phone != "" && lead.Email != nil && *lead.Email != "" {
		b.Completeness = completeContact
	}

	if lead.LastResponseAt != nil {
		days := int(now.Sub(*lead.LastResponseAt).Hours() / 24)
		if days > decayGraceDays {
			b.TimeDecay = -float64(days - decayGraceDays)
		}
	} else if lead.ResponseCount == 0 && lead.Status != StatusNew && lead.Status != "" {
		b.TimeDecay = neverActivePenalty
	}

	score += b.Response + b.Intent + b.Engagement + b.Completeness + b.TimeDecay
	clamped := clampScore(score)
	return Result{Score: clamped, Category: Category(clamped), Breakdown: b}
}

// Category buckets a score: Hot >= 80, Warm >= 50, Cold >= 20, else Dead.
func Category(score int) string {
	switch {
	case score >= 80:
		return CategoryHot
	case score >= 50:
		return CategoryWarm
	case score >= 20:
		return CategoryCold
	default:
		return CategoryDead
	}
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
