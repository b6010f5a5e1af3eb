package reputation

// Event names a reputation event. Closed set, fixed weights: unknown
// kinds from the wire are parse errors.
type Event string

const (
	EventTimelyChatReply     Event = "TIMELY_CHAT_REPLY"
	EventQualityConversation Event = "QUALITY_CONVERSATION"
	EventPositiveFeedback    Event = "POSITIVE_FEEDBACK"
	EventMeetingAttended     Event = "MEETING_ATTENDED"
	EventVoluntaryRefund     Event = "VOLUNTARY_REFUND"

	EventHarassmentReportVerified Event = "HARASSMENT_REPORT_VERIFIED"
	EventNoShow                   Event = "NO_SHOW"
	EventAppearanceComplaint      Event = "APPEARANCE_COMPLAINT"
	EventSystemAbuse              Event = "SYSTEM_ABUSE"
	EventChargebackAbuse          Event = "CHARGEBACK_ABUSE"

	// EventAccountCreated materializes the profile at the default score.
	EventAccountCreated Event = "ACCOUNT_CREATED"

	// EventAdminOverride marks log rows written by direct score overrides.
	EventAdminOverride Event = "ADMIN_OVERRIDE"
)

type eventDef struct {
	weight  int
	counter string // user_reputation column, empty when the event has none
}

var eventDefs = map[Event]eventDef{
	EventTimelyChatReply:     {weight: 1, counter: "timely_replies"},
	EventQualityConversation: {weight: 2, counter: "quality_conversations"},
	EventPositiveFeedback:    {weight: 3, counter: "positive_feedback"},
	EventMeetingAttended:     {weight: 5, counter: "meetings_attended"},
	EventVoluntaryRefund:     {weight: 6, counter: "voluntary_refunds"},

	EventHarassmentReportVerified: {weight: -15, counter: "harassment_reports"},
	EventNoShow:                   {weight: -10, counter: "no_shows"},
	EventAppearanceComplaint:      {weight: -12, counter: "appearance_complaints"},
	EventSystemAbuse:              {weight: -20, counter: "system_abuse"},
	EventChargebackAbuse:          {weight: -25, counter: "chargeback_abuse"},

	EventAccountCreated: {weight: 0},
}

// ParseEvent validates a wire event kind
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if _, ok := eventDefs[e]; !ok {
		return "", ErrUnknownEvent
	}
	return e, nil
}

// Weight returns the fixed score delta for the event
func (e Event) Weight() int {
	return eventDefs[e].weight
}

// CounterColumn returns the profile counter the event increments, or ""
func (e Event) CounterColumn() string {
	return eventDefs[e].counter
}

// NextScore computes the clamped score after applying the event
func (e Event) NextScore(previous int) int {
	return ClampScore(previous + eventDefs[e].weight)
}
