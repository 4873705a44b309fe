// Package scheduling turns a classified inbound turn into side effects:
// an escalation to a human, a booked (or moved) meeting with its reminder,
// or a nurture follow-up.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

// Decision is the terminal outcome for one inbound event.
type Decision string

const (
	DecisionNoAction           Decision = "no_action"
	DecisionMeetingCreated     Decision = "meeting_created"
	DecisionMeetingRescheduled Decision = "meeting_rescheduled"
	DecisionEscalation         Decision = "escalation"
)

// ReminderLead is how far ahead of the meeting the reminder goes out:
// the previous day, one hour earlier than the meeting's time of day.
const ReminderLead = 25 * time.Hour

const defaultMeetingTitle = "Property consultation"

// Store is the persistence the coordinator needs.
type Store interface {
	repository.MeetingStore
	repository.FollowUpStore
	repository.ActivityLogger
}

// FollowUpQueue delivers a follow-up at its scheduled time.
type FollowUpQueue interface {
	EnqueueFollowUp(ctx context.Context, tenantID, followUpID uuid.UUID, runAt time.Time) error
}

type Input struct {
	TenantID uuid.UUID
	// EventKey identifies the inbound event; one meeting per key.
	EventKey string
	Channel  string
	Address  string
	Lead     *repository.Lead
	Message  string
	Result   agent.ClassificationResult
	Now      time.Time
}

type Outcome struct {
	Decision  Decision
	Meeting   *repository.Meeting
	FollowUps []repository.FollowUp
}

type Coordinator struct {
	store  Store
	queue  FollowUpQueue
	events events.Publisher
	loc    *time.Location
	log    *logger.Logger
}

func NewCoordinator(store Store, queue FollowUpQueue, publisher events.Publisher, loc *time.Location, log *logger.Logger) *Coordinator {
	if loc == nil {
		loc = time.UTC
	}
	return &Coordinator{store: store, queue: queue, events: publisher, loc: loc, log: log}
}

// Coordinate applies the classified turn. Failures are logged and leave the
// outcome at no_action; they never abort the reply.
func (c *Coordinator) Coordinate(ctx context.Context, in Input) Outcome {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	if in.Result.Intent == agent.IntentEscalate {
		c.escalate(ctx, in)
		return Outcome{Decision: DecisionEscalation}
	}

	outcome := Outcome{Decision: DecisionNoAction}
	if in.Result.Meeting.ReadyToBook && !in.Result.Meeting.StartsAt.IsZero() {
		outcome = c.book(ctx, in)
	}

	if followUp, ok := c.nurture(ctx, in); ok {
		outcome.FollowUps = append(outcome.FollowUps, followUp)
	}
	return outcome
}

func (c *Coordinator) escalate(ctx context.Context, in Input) {
	var leadID *uuid.UUID
	leadName := ""
	if in.Lead != nil {
		leadID = &in.Lead.ID
		leadName = in.Lead.DisplayName()
	}

	c.logActivity(ctx, repository.ActivityLogEntry{
		TenantID:    in.TenantID,
		EventType:   "escalation",
		Description: fmt.Sprintf("Escalated conversation with %s", in.Address),
		Status:      "pending",
		Metadata: map[string]any{
			"address": in.Address,
			"channel": in.Channel,
			"message": in.Message,
			"notes":   in.Result.Notes,
		},
	})

	if c.events != nil {
		c.events.Publish(ctx, events.EscalationRaised{
			BaseEvent:     events.NewBaseEvent(),
			TenantID:      in.TenantID,
			LeadID:        leadID,
			LeadName:      leadName,
			Channel:       in.Channel,
			SenderAddress: in.Address,
			Message:       in.Message,
			Notes:         in.Result.Notes,
		})
	}
}

func (c *Coordinator) book(ctx context.Context, in Input) Outcome {
	req := in.Result.Meeting
	existing, err := c.store.FindUpcomingMeeting(ctx, in.TenantID, in.Address, in.Now)
	switch {
	case err == nil && existing.SourceEventID == in.EventKey:
		return Outcome{Decision: DecisionMeetingCreated, Meeting: &existing}
	case err == nil:
		return c.reschedule(ctx, in, existing)
	case !errors.Is(err, repository.ErrRecordNotFound):
		c.log.Error("scheduling: upcoming meeting lookup failed", "error", err)
		return Outcome{Decision: DecisionNoAction}
	}

	params := repository.CreateMeetingParams{
		TenantID:        in.TenantID,
		LeadPhone:       in.Address,
		Title:           meetingTitle(req),
		PropertyAddress: meetingAddress(in),
		Description:     optional(req.Description),
		Notes:           optional(in.Result.Notes),
		ScheduledAt:     req.StartsAt,
		SourceEventID:   in.EventKey,
	}
	if in.Lead != nil {
		params.LeadID = &in.Lead.ID
		params.LeadName = optional(in.Lead.DisplayName())
	}

	meeting, created, err := c.store.CreateMeeting(ctx, params)
	if err != nil {
		c.log.DatabaseError("create_meeting", err)
		return Outcome{Decision: DecisionNoAction}
	}
	outcome := Outcome{Decision: DecisionMeetingCreated, Meeting: &meeting}
	if !created {
		return outcome
	}

	c.logActivity(ctx, repository.ActivityLogEntry{
		TenantID:    in.TenantID,
		EventType:   "meeting_created",
		Description: fmt.Sprintf("Meeting booked with %s for %s", in.Address, meeting.ScheduledAt.In(c.loc).Format(time.RFC1123)),
		Status:      "success",
		Metadata:    map[string]any{"meetingId": meeting.ID.String(), "sourceEventId": in.EventKey},
	})
	c.publishBooked(ctx, in, meeting, false)

	if reminder, ok := c.scheduleReminder(ctx, in, meeting); ok {
		outcome.FollowUps = append(outcome.FollowUps, reminder)
	}
	return outcome
}

func (c *Coordinator) reschedule(ctx context.Context, in Input, existing repository.Meeting) Outcome {
	moved, err := c.store.RescheduleMeeting(ctx, in.TenantID, existing.ID, in.Result.Meeting.StartsAt, optional(in.Result.Notes))
	if err != nil {
		c.log.Error("scheduling: reschedule meeting failed", "meetingId", existing.ID, "error", err)
		return Outcome{Decision: DecisionNoAction}
	}

	if _, err := c.store.CancelPendingFollowUps(ctx, in.TenantID, repository.FollowUpFilter{MeetingID: &moved.ID}, "meeting rescheduled"); err != nil {
		c.log.Warn("scheduling: cancel old reminders failed", "meetingId", moved.ID, "error", err)
	}

	c.logActivity(ctx, repository.ActivityLogEntry{
		TenantID:    in.TenantID,
		EventType:   "meeting_rescheduled",
		Description: fmt.Sprintf("Meeting with %s moved from %s to %s", in.Address, existing.ScheduledAt.In(c.loc).Format(time.RFC1123), moved.ScheduledAt.In(c.loc).Format(time.RFC1123)),
		Status:      "success",
		Metadata:    map[string]any{"meetingId": moved.ID.String(), "sourceEventId": in.EventKey},
	})
	c.publishBooked(ctx, in, moved, true)

	outcome := Outcome{Decision: DecisionMeetingRescheduled, Meeting: &moved}
	if reminder, ok := c.scheduleReminder(ctx, in, moved); ok {
		outcome.FollowUps = append(outcome.FollowUps, reminder)
	}
	return outcome
}

func (c *Coordinator) scheduleReminder(ctx context.Context, in Input, meeting repository.Meeting) (repository.FollowUp, bool) {
	if in.Lead == nil {
		return repository.FollowUp{}, false
	}
	remindAt := meeting.ScheduledAt.Add(-ReminderLead)
	if !remindAt.After(in.Now) {
		return repository.FollowUp{}, false
	}

	return c.createFollowUp(ctx, repository.CreateFollowUpParams{
		TenantID:    in.TenantID,
		LeadID:      in.Lead.ID,
		MeetingID:   &meeting.ID,
		MessageText: ReminderText(in.Lead.DisplayName(), meeting, c.loc),
		ScheduledAt: remindAt,
		Channel:     in.Channel,
	})
}

func (c *Coordinator) nurture(ctx context.Context, in Input) (repository.FollowUp, bool) {
	days := in.Result.ScheduleFollowUpDays
	if in.Result.Intent != agent.IntentMaybeLater || days == nil || *days <= 0 || in.Lead == nil {
		return repository.FollowUp{}, false
	}

	return c.createFollowUp(ctx, repository.CreateFollowUpParams{
		TenantID:    in.TenantID,
		LeadID:      in.Lead.ID,
		MessageText: NurtureText(in.Lead.DisplayName()),
		ScheduledAt: in.Now.Add(time.Duration(*days) * 24 * time.Hour),
		Channel:     in.Channel,
	})
}

func (c *Coordinator) createFollowUp(ctx context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, bool) {
	followUp, err := c.store.CreateFollowUp(ctx, params)
	if err != nil {
		c.log.DatabaseError("create_follow_up", err, "leadId", params.LeadID)
		return repository.FollowUp{}, false
	}

	if c.queue != nil {
		if err := c.queue.EnqueueFollowUp(ctx, followUp.TenantID, followUp.ID, followUp.ScheduledAt); err != nil {
			c.log.Warn("scheduling: enqueue follow-up failed", "followUpId", followUp.ID, "error", err)
		}
	}
	return followUp, true
}

func (c *Coordinator) publishBooked(ctx context.Context, in Input, meeting repository.Meeting, rescheduled bool) {
	if c.events == nil {
		return
	}
	event := events.MeetingBooked{
		BaseEvent:   events.NewBaseEvent(),
		TenantID:    in.TenantID,
		MeetingID:   meeting.ID,
		LeadID:      meeting.LeadID,
		LeadPhone:   meeting.LeadPhone,
		Title:       meeting.Title,
		ScheduledAt: meeting.ScheduledAt,
		Rescheduled: rescheduled,
	}
	if meeting.LeadName != nil {
		event.LeadName = *meeting.LeadName
	}
	if meeting.PropertyAddress != nil {
		event.PropertyAddress = *meeting.PropertyAddress
	}
	c.events.Publish(ctx, event)
}

func (c *Coordinator) logActivity(ctx context.Context, entry repository.ActivityLogEntry) {
	if err := c.store.LogActivity(ctx, entry); err != nil {
		c.log.Warn("scheduling: activity log failed", "eventType", entry.EventType, "error", err)
	}
}

func meetingTitle(req agent.MeetingRequest) string {
	if title := strings.TrimSpace(req.Title); title != "" {
		return title
	}
	return defaultMeetingTitle
}

func meetingAddress(in Input) *string {
	if addr := strings.TrimSpace(in.Result.Meeting.Address); addr != "" {
		return &addr
	}
	if in.Lead != nil && in.Lead.PropertyAddress != nil {
		return optional(*in.Lead.PropertyAddress)
	}
	return optional(derefString(in.Result.Qualification.PropertyAddress))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
