package agent

import (
	"strings"
	"time"
)

// Intent is the classifier's reading of what the lead wants.
type Intent string

const (
	IntentInterested    Intent = "interested"
	IntentNotInterested Intent = "not_interested"
	IntentMaybeLater    Intent = "maybe_later"
	IntentNeedsMoreInfo Intent = "needs_more_info"
	IntentWrongPerson   Intent = "wrong_person"
	IntentStop          Intent = "stop"
	IntentEscalate      Intent = "escalate"
	IntentOther         Intent = "other"
)

var knownIntents = map[Intent]struct{}{
	IntentInterested: {}, IntentNotInterested: {}, IntentMaybeLater: {}, IntentNeedsMoreInfo: {},
	IntentWrongPerson: {}, IntentStop: {}, IntentEscalate: {}, IntentOther: {},
}

// ParseIntent maps free text to a known intent, defaulting to other.
func ParseIntent(raw string) Intent {
	normalized := Intent(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
	if _, ok := knownIntents[normalized]; ok {
		return normalized
	}
	return IntentOther
}

// Qualification is the partial checklist extracted from one turn.
// Budget keeps the lead's own wording; it is normalised on merge.
type Qualification struct {
	Name             *string
	Email            *string
	PropertyAddress  *string
	PropertyType     *string
	Bedrooms         *int
	Bathrooms        *float64
	Sqft             *int
	OwnerGoal        *string
	Timeline         *string
	PriceExpectation *string
	Budget           *string
	MissingFields    []string
	Qualified        bool

	// Unparsed keeps numeric mentions that were not a single value, such
	// as "3-4" bedrooms, keyed by field.
	Unparsed map[string]string
}

// DateSuggestion is the date and time the lead proposed, as written.
type DateSuggestion struct {
	Date string
	Time string
}

// MeetingRequest describes a meeting the lead asked for.
type MeetingRequest struct {
	Requested   bool
	ReadyToBook bool
	Title       string
	Suggestion  DateSuggestion
	Address     string
	Description string
	// StartsAt is set when ReadyToBook is true.
	StartsAt time.Time
}

// ClassificationResult is always fully populated, even when the oracle
// failed or returned garbage.
type ClassificationResult struct {
	Intent               Intent
	Reply                string
	Notes                string
	Qualification        Qualification
	Meeting              MeetingRequest
	AgentBrief           *string
	ScheduleFollowUpDays *int
	// Fallback is true when the result was substituted after a failure.
	Fallback bool
}

// HistoryTurn is one prior message given to the oracle.
type HistoryTurn struct {
	Direction string
	Body      string
	At        time.Time
}

// LeadProfile is the known lead state given to the oracle.
type LeadProfile struct {
	Name             string   `json:"name,omitempty"`
	Email            string   `json:"email,omitempty"`
	PropertyAddress  string   `json:"property_address,omitempty"`
	PropertyType     string   `json:"property_type,omitempty"`
	Bedrooms         *int     `json:"bedrooms,omitempty"`
	Bathrooms        *float64 `json:"bathrooms,omitempty"`
	Sqft             *int     `json:"sqft,omitempty"`
	OwnerGoal        string   `json:"owner_goal,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
	PriceExpectation string   `json:"price_expectation,omitempty"`
	Budget           *int64   `json:"budget,omitempty"`
	Qualified        bool     `json:"qualified"`
}

type ClassifyRequest struct {
	Message            string
	SenderAddress      string
	DestinationAddress string
	History            []HistoryTurn
	Lead               *LeadProfile
	Now                time.Time
}
