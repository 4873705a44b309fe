package scoring

import (
	"testing"
	"time"

	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
)

func TestComputeRespondedInterestedLead(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Hour)
	email := "owner@example.com"
	lead := repository.Lead{
		Phone:          "+16502530000",
		Email:          &email,
		Status:         StatusInterested,
		ResponseCount:  2,
		LastResponseAt: &last,
	}

	result := Compute(lead, now)
	// 50 + 30 + 25 + 6 + 5 = 116, clamped
	if result.Score != 100 || result.Category != CategoryHot {
		t.Fatalf("expected 100/Hot, got %d/%s", result.Score, result.Category)
	}
}

func TestComputeDecaysAfterGracePeriod(t *testing.T) {
	now := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	last := now.Add(-20 * 24 * time.Hour)
	lead := repository.Lead{Phone: "+16502530000", Status: StatusNotInterested, ResponseCount: 1, LastResponseAt: &last}

	result := Compute(lead, now)
	// 50 + 30 - 20 + 3 - 6 = 57
	if result.Score != 57 || result.Category != CategoryWarm {
		t.Fatalf("expected 57/Warm, got %d/%s", result.Score, result.Category)
	}
	if result.Breakdown.TimeDecay != -6 {
		t.Fatalf("expected 6 days of decay, got %v", result.Breakdown.TimeDecay)
	}
}

func TestCategoryBoundaries(t *testing.T) {
	cases := map[int]string{100: CategoryHot, 80: CategoryHot, 79: CategoryWarm, 50: CategoryWarm, 49: CategoryCold, 20: CategoryCold, 19: CategoryDead, 0: CategoryDead}
	for score, want := range cases {
		if got := Category(score); got != want {
			t.Fatalf("Category(%d) = %s, expected %s", score, got, want)
		}
	}
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		current   string
		intent    agent.Intent
		qualified bool
		booked    bool
		want      string
	}{
		{"", agent.IntentOther, false, false, StatusNew},
		{StatusNew, agent.IntentInterested, false, false, StatusInterested},
		{StatusInterested, agent.IntentInterested, true, false, StatusQualified},
		{StatusQualified, agent.IntentInterested, false, true, StatusMeetingScheduled},
		{StatusMeetingScheduled, agent.IntentNeedsMoreInfo, false, false, StatusMeetingScheduled},
		{StatusQualified, agent.IntentNeedsMoreInfo, false, false, StatusQualified},
		{StatusInterested, agent.IntentMaybeLater, false, false, StatusNurture},
		{StatusInterested, agent.IntentStop, false, false, StatusDoNotContact},
		{StatusNew, agent.IntentWrongPerson, false, false, StatusNotInterested},
	}
	for _, tc := range cases {
		if got := NextStatus(tc.current, tc.intent, tc.qualified, tc.booked); got != tc.want {
			t.Fatalf("NextStatus(%q, %s, %v, %v) = %s, expected %s", tc.current, tc.intent, tc.qualified, tc.booked, got, tc.want)
		}
	}
}
