package qualification

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pricePattern = regexp.MustCompile(`^\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k|m|mm|b|bn|thousand|million|billion)?\s*(?:usd|dollars)?$`)

var multipliers = map[string]float64{
	"":         1,
	"k":        1e3,
	"thousand": 1e3,
	"m":        1e6,
	"mm":       1e6,
	"million":  1e6,
	"b":        1e9,
	"bn":       1e9,
	"billion":  1e9,
}

// ParsePrice normalises a single price expression such as "$1.2M", "850k",
// "1,250,000" or "2 million" to whole currency units. Ranges and prose do
// not parse.
func ParsePrice(raw string) (int64, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = strings.TrimSuffix(text, ".")
	match := pricePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	digits := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}

	amount := math.Round(value * multipliers[match[2]])
	if amount <= 0 || amount > math.MaxInt64/2 {
		return 0, false
	}
	return int64(amount), true
}
