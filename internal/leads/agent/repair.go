package agent

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// looseText accepts a JSON string, number or bool and keeps its text.
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = looseText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		*t = ""
		return nil
	}
	*t = looseText(data)
	return nil
}

// looseBool accepts true/false and their string spellings.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var t looseText
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(string(t))) {
	case "true", "yes", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

type wireQualification struct {
	Name             *looseText `json:"name"`
	Email            *looseText `json:"email"`
	PropertyAddress  *looseText `json:"property_address"`
	PropertyType     *looseText `json:"property_type"`
	Bedrooms         *looseText `json:"bedrooms"`
	Bathrooms        *looseText `json:"bathrooms"`
	Sqft             *looseText `json:"sqft"`
	OwnerGoal        *looseText `json:"owner_goal"`
	Timeline         *looseText `json:"timeline"`
	PriceExpectation *looseText `json:"price_expectation"`
	Budget           *looseText `json:"budget"`
	MissingFields    []string   `json:"missing_fields"`
	Qualified        looseBool  `json:"qualified"`
}

type wireMeeting struct {
	Requested      looseBool `json:"requested"`
	ReadyToBook    looseBool `json:"ready_to_book"`
	Title          looseText `json:"title"`
	DateSuggestion *struct {
		Date looseText `json:"date"`
		Time looseText `json:"time"`
	} `json:"date_suggestion"`
	Address     looseText `json:"address"`
	Description looseText `json:"description"`
}

type wireResult struct {
	Intent               looseText          `json:"intent"`
	Reply                looseText          `json:"reply"`
	Notes                looseText          `json:"notes"`
	ScheduleFollowUpDays *looseText         `json:"schedule_follow_up_days"`
	Qualification        *wireQualification `json:"qualification"`
	Meeting              *wireMeeting       `json:"meeting"`
	AgentBrief           *looseText         `json:"agent_brief"`
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// extractJSONObject strips code fences and surrounding prose and returns the
// outermost {...} span. If no opening brace exists the trimmed input is returned.
func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if match := fencePattern.FindStringSubmatch(text); match != nil {
		text = strings.TrimSpace(match[1])
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return text
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		// truncated output, let the repair pass close it
		return text[start:]
	}
	return text[start : end+1]
}

// decodeResult parses the oracle output, repairing it once when needed.
func decodeResult(raw string) (wireResult, bool) {
	candidate := extractJSONObject(raw)
	if !strings.HasPrefix(candidate, "{") {
		return wireResult{}, false
	}

	var result wireResult
	if err := json.Unmarshal([]byte(candidate), &result); err == nil {
		return result, true
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return wireResult{}, false
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return wireResult{}, false
	}
	return result, true
}

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

func textPtr(t *looseText) *string {
	if t == nil {
		return nil
	}
	value := strings.TrimSpace(string(*t))
	if value == "" || strings.EqualFold(value, "null") || strings.EqualFold(value, "unknown") {
		return nil
	}
	return &value
}

var (
	unitPattern = regexp.MustCompile(`^[a-z]+`)

	sizeMultipliers = map[string]float64{
		"k":        1e3,
		"thousand": 1e3,
	}
)

// quantity reads a single non-negative amount from t. Ranges and lists such
// as "3-4" or "3 or 4" do not parse. With scaled set, a trailing k or
// thousand multiplies the amount.
func quantity(t *looseText, scaled bool) (float64, bool) {
	value := textPtr(t)
	if value == nil {
		return 0, false
	}
	text := strings.ToLower(*value)
	if len(numberPattern.FindAllString(text, -1)) != 1 {
		return 0, false
	}
	loc := numberPattern.FindStringIndex(text)
	raw := text[loc[0]:loc[1]]
	if strings.HasPrefix(raw, "-") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if scaled {
		unit := unitPattern.FindString(strings.TrimSpace(text[loc[1]:]))
		if m, ok := sizeMultipliers[unit]; ok {
			f *= m
		}
	}
	return f, true
}

func wholeNumber(t *looseText, scaled bool) *int {
	f, ok := quantity(t, scaled)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func intPtr(t *looseText) *int {
	return wholeNumber(t, false)
}

func floatPtr(t *looseText) *float64 {
	f, ok := quantity(t, false)
	if !ok {
		return nil
	}
	return &f
}

// unparsed records the lead's wording for a numeric field that did not
// read as a single value.
func unparsed(into map[string]string, field string, raw *looseText, parsed bool) {
	if parsed {
		return
	}
	if value := textPtr(raw); value != nil {
		into[field] = *value
	}
}
