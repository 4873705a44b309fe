package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type escalationEmailData struct {
	baseEmailData
	Escalation
}

type meetingBookedEmailData struct {
	baseEmailData
	LeadName        string
	LeadPhone       string
	MeetingTitle    string
	PropertyAddress string
	When            string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func leadLabel(name, address string) string {
	switch {
	case name != "":
		return name
	case address != "":
		return address
	default:
		return fallbackLeadName
	}
}

func formatMeetingTime(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return at.In(loc).Format(meetingTimeLayout)
}

func renderEscalation(data Escalation) (subject, content string, err error) {
	label := leadLabel(data.LeadName, data.SenderAddress)
	content, err = renderEmailTemplate("escalation.html", escalationEmailData{
		baseEmailData: baseEmailData{
			Title:      "Conversation escalated",
			Heading:    "A lead asked for a person",
			Subheading: label,
		},
		Escalation: data,
	})
	return fmt.Sprintf(subjectEscalationFmt, label), content, err
}

func renderMeetingBooked(data MeetingBooked) (subject, content string, err error) {
	label := leadLabel(data.LeadName, data.LeadPhone)
	heading := "New meeting booked"
	subjectFmt := subjectMeetingBookedFmt
	if data.Rescheduled {
		heading = "Meeting moved"
		subjectFmt = subjectMeetingMovedFmt
	}
	content, err = renderEmailTemplate("meeting_booked.html", meetingBookedEmailData{
		baseEmailData: baseEmailData{
			Title:   heading,
			Heading: heading,
		},
		LeadName:        label,
		LeadPhone:       data.LeadPhone,
		MeetingTitle:    data.Title,
		PropertyAddress: data.PropertyAddress,
		When:            formatMeetingTime(data.ScheduledAt, data.Location),
	})
	return fmt.Sprintf(subjectFmt, label), content, err
}
