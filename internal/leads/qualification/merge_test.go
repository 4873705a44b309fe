package qualification

import (
	"strings"
	"testing"

	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestMergeKeepsConfirmedSqftAndNotesMention(t *testing.T) {
	lead := repository.Lead{Sqft: intPtr(3000)}
	update := Merge(lead, agent.Qualification{Sqft: intPtr(2500)}, nil)

	if update.Sqft != nil {
		t.Fatalf("expected stored sqft to be kept")
	}
	if len(update.AppendNotes) != 1 || !strings.Contains(update.AppendNotes[0], "2500") {
		t.Fatalf("expected a note mentioning 2500, got %v", update.AppendNotes)
	}
}

func TestMergeStagesEmptyFields(t *testing.T) {
	lead := repository.Lead{PropertyAddress: strPtr("12 Elm St")}
	update := Merge(lead, agent.Qualification{
		PropertyAddress: strPtr("12 elm st"),
		PropertyType:    strPtr("condo"),
		Bedrooms:        intPtr(2),
		Budget:          strPtr("$1.2M"),
	}, nil)

	if update.PropertyAddress != nil {
		t.Fatalf("expected existing address to be untouched")
	}
	if update.PropertyType == nil || *update.PropertyType != "condo" {
		t.Fatalf("expected property type staged")
	}
	if update.Bedrooms == nil || *update.Bedrooms != 2 {
		t.Fatalf("expected bedrooms staged")
	}
	if update.Budget == nil || *update.Budget != 1200000 {
		t.Fatalf("expected budget 1200000, got %v", update.Budget)
	}
	if len(update.AppendNotes) != 0 {
		t.Fatalf("expected same address in different case to produce no note, got %v", update.AppendNotes)
	}
}

func TestMergeUnparsableBudgetBecomesNote(t *testing.T) {
	update := Merge(repository.Lead{}, agent.Qualification{Budget: strPtr("somewhere around 800k-900k")}, nil)
	if update.Budget != nil {
		t.Fatalf("expected no budget to be coerced")
	}
	if len(update.AppendNotes) != 1 || !strings.Contains(update.AppendNotes[0], "800k-900k") {
		t.Fatalf("expected raw budget kept as note, got %v", update.AppendNotes)
	}
}

func TestMergeUnparsedCountBecomesNote(t *testing.T) {
	update := Merge(repository.Lead{}, agent.Qualification{Unparsed: map[string]string{"bedrooms": "3-4"}}, nil)
	if update.Bedrooms != nil {
		t.Fatalf("expected bedrooms to stay unset")
	}
	if len(update.AppendNotes) != 1 || !strings.Contains(update.AppendNotes[0], `bedrooms mentioned as "3-4"`) {
		t.Fatalf("expected ranged bedrooms kept as note, got %v", update.AppendNotes)
	}
}

func TestMergeNothingNewIsEmpty(t *testing.T) {
	lead := repository.Lead{Sqft: intPtr(3000), Notes: "sqft mentioned as 2500 (kept 3000)"}
	if !Merge(lead, agent.Qualification{Sqft: intPtr(3000)}, nil).IsEmpty() {
		t.Fatalf("expected identical value to produce no update")
	}
	if !Merge(lead, agent.Qualification{Sqft: intPtr(2500)}, nil).IsEmpty() {
		t.Fatalf("expected repeated conflict note to be skipped")
	}
}

func TestMergeAppendsBriefOnce(t *testing.T) {
	brief := strPtr("Owner of 3bd condo, wants to sell by June.")
	first := Merge(repository.Lead{}, agent.Qualification{Qualified: true}, brief)
	if !first.MarkQualified {
		t.Fatalf("expected lead to be marked qualified")
	}
	if len(first.AppendNotes) != 1 || !strings.HasPrefix(first.AppendNotes[0], BriefHeader+"\n") {
		t.Fatalf("expected brief under header, got %v", first.AppendNotes)
	}

	lead := repository.Lead{Qualified: true, Notes: first.NotesText()}
	second := Merge(lead, agent.Qualification{Qualified: true}, strPtr("Different wording"))
	if !second.IsEmpty() {
		t.Fatalf("expected repeat qualification to be a no-op, got %+v", second)
	}
}

func TestMergeIgnoresBriefWhenNotQualified(t *testing.T) {
	update := Merge(repository.Lead{}, agent.Qualification{}, strPtr("brief"))
	if !update.IsEmpty() {
		t.Fatalf("expected no update without qualification")
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"$1.2M", 1200000, true},
		{"850k", 850000, true},
		{"850 K", 850000, true},
		{"1,250,000", 1250000, true},
		{"$450,000", 450000, true},
		{"2 million", 2000000, true},
		{"1.5 billion", 1500000000, true},
		{"3B", 3000000000, true},
		{"$975,000 USD", 975000, true},
		{"800k-900k", 0, false},
		{"make me an offer", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePrice(%q) = %d, %v; expected %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
