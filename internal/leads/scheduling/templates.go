package scheduling

import (
	"fmt"
	"strings"
	"time"

	"realestate_ai_backend/internal/leads/repository"
)

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// ReminderText is sent the day before a meeting.
func ReminderText(leadName string, meeting repository.Meeting, loc *time.Location) string {
	when := meeting.ScheduledAt.In(loc).Format("Monday, Jan 2 at 3:04 PM")
	where := ""
	if meeting.PropertyAddress != nil && *meeting.PropertyAddress != "" {
		where = " at " + *meeting.PropertyAddress
	}
	return fmt.Sprintf("Hi %s, just a reminder about our meeting tomorrow, %s%s. Reply here if you need to reschedule.",
		firstName(leadName), when, where)
}

// NurtureText is sent when a lead asked to be contacted later.
func NurtureText(leadName string) string {
	return fmt.Sprintf("Hi %s, checking back in as promised. Is now a better time to talk about your property plans?", firstName(leadName))
}
