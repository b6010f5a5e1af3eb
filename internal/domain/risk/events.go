package risk

// Event names a scoring event. The set is closed: every event carries a
// fixed weight and maps to at most one profile counter, so an unknown kind
// from the wire is a parse error, not a silent zero-weight apply.
type Event string

const (
	EventComplaint                Event = "COMPLAINT"
	EventBlockedAfterFirstMessage Event = "BLOCKED_AFTER_FIRST_MESSAGE"
	EventAppearanceMismatch       Event = "APPEARANCE_MISMATCH"
	EventPanicAlertByOther        Event = "PANIC_ALERT_TRIGGERED_BY_OTHER"
	EventBookingRejected          Event = "BOOKING_REJECTED"
	EventMinorContactAttempt      Event = "MINOR_CONTACT_ATTEMPT"

	EventPositiveConfirmation Event = "POSITIVE_CONFIRMATION"
	EventSuccessfulMeeting    Event = "SUCCESSFUL_MEETING"
	EventVoluntaryRefund      Event = "VOLUNTARY_REFUND"
	EventHighRating           Event = "HIGH_RATING"
	EventReverification       Event = "REVERIFICATION"

	// EventAdminOverride marks log rows written by direct score overrides,
	// so they stay distinguishable from organic scoring.
	EventAdminOverride Event = "ADMIN_OVERRIDE"
)

type eventDef struct {
	weight   int
	counter  string // user_risk_profiles column, empty when the event has none
	positive bool
	critical bool // applied even under degraded conditions, forces ScoreMax
}

var eventDefs = map[Event]eventDef{
	EventComplaint:                {weight: 50, counter: "complaints"},
	EventBlockedAfterFirstMessage: {weight: 40, counter: "first_message_blocks"},
	EventAppearanceMismatch:       {weight: 60, counter: "appearance_mismatches"},
	EventPanicAlertByOther:        {weight: 100, counter: "panic_alerts"},
	EventBookingRejected:          {weight: 20, counter: "booking_rejections"},
	EventMinorContactAttempt:      {weight: 1000, critical: true},

	EventPositiveConfirmation: {weight: -10, counter: "positive_confirmations", positive: true},
	EventSuccessfulMeeting:    {weight: -15, counter: "successful_meetings", positive: true},
	EventVoluntaryRefund:      {weight: -20, counter: "voluntary_refunds", positive: true},
	EventHighRating:           {weight: -25, counter: "high_ratings", positive: true},
	EventReverification:       {weight: -30, counter: "reverifications", positive: true},
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

// IsPositive reports whether the event lowers risk
func (e Event) IsPositive() bool {
	return eventDefs[e].positive
}

// IsCritical reports whether the event must never silently fail
func (e Event) IsCritical() bool {
	return eventDefs[e].critical
}

// CounterColumn returns the profile counter the event increments, or ""
func (e Event) CounterColumn() string {
	return eventDefs[e].counter
}

// NextScore computes the clamped score after applying the event.
// Critical events force the maximum regardless of the prior score.
func (e Event) NextScore(previous int) int {
	if eventDefs[e].critical {
		return ScoreMax
	}
	return ClampScore(previous + eventDefs[e].weight)
}
