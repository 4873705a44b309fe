package email

import (
	"strings"
	"testing"
	"time"
)

func TestRenderEscalationEscapesLeadText(t *testing.T) {
	subject, content, err := renderEscalation(Escalation{
		SenderAddress: "+16502530000",
		Channel:       "whatsapp",
		Message:       "<b>call me</b>",
		Notes:         "asked for a person",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Lead needs a human: +16502530000" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if strings.Contains(content, "<b>call me</b>") || !strings.Contains(content, "&lt;b&gt;call me&lt;/b&gt;") {
		t.Fatalf("expected message to be html escaped")
	}
	if !strings.Contains(content, "asked for a person") {
		t.Fatalf("expected notes in body")
	}
}

func TestRenderMeetingBookedUsesLocation(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	subject, content, err := renderMeetingBooked(MeetingBooked{
		LeadName:        "Sam Owner",
		LeadPhone:       "+16502530000",
		Title:           "Listing consultation",
		PropertyAddress: "12 Elm St",
		ScheduledAt:     time.Date(2025, 3, 11, 22, 0, 0, 0, time.UTC),
		Location:        loc,
		Rescheduled:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Meeting moved with Sam Owner" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(content, "Tue Mar 11, 2:00 PM PST") {
		t.Fatalf("expected local meeting time in body")
	}
	if !strings.Contains(content, "Listing consultation") || !strings.Contains(content, "12 Elm St") {
		t.Fatalf("expected meeting details in body")
	}
}

func TestLeadLabelFallsBack(t *testing.T) {
	if got := leadLabel("", ""); got != fallbackLeadName {
		t.Fatalf("expected fallback label, got %q", got)
	}
}
