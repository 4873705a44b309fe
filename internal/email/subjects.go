package email

const (
	subjectEscalationFmt    = "Lead needs a human: %s"
	subjectMeetingBookedFmt = "Meeting booked with %s"
	subjectMeetingMovedFmt  = "Meeting moved with %s"
	fallbackLeadName        = "unknown lead"
	meetingTimeLayout       = "Mon Jan 2, 3:04 PM MST"
)
