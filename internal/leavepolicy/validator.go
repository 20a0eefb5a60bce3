package leavepolicy

import "time"

const (
	MessageSickTooFarBack  = "sick leave cannot be logged more than 7 days in the past."
	MessageNeedsAdvance    = "time off must be requested at least one day in advance."
	MessageEndBeforeStart  = "end date must be on or after the start date."
	MessageMissingDate     = "you must insert a date"
	MessageInvalidDate     = "invalid date format, expected YYYY-MM-DD"
	MessageUnknownType     = "leave type must be one of VACATION, SICK, PERSONAL"
	sickBackdateWindowDays = 7
)

// ValidationMessage is a user-facing policy violation attached to one field.
type ValidationMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (m *ValidationMessage) Error() string {
	return m.Message
}

const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldLeaveType = "leave_type"
)

func startMessage(msg string) *ValidationMessage {
	return &ValidationMessage{Field: FieldStartDate, Message: msg}
}

// ValidateStartDate checks start against the policy window of t. Sick leave
// may be back-dated up to seven days before today. Every other type must
// start strictly after today.
func ValidateStartDate(t LeaveType, start, today time.Time) *ValidationMessage {
	daysSinceToday := InclusiveDaySpan(today, start)

	switch t {
	case LeaveTypeSick:
		// span counts today itself, the window counts days back from it
		if daysSinceToday-1 > sickBackdateWindowDays {
			return startMessage(MessageSickTooFarBack)
		}
		return nil
	case LeaveTypeVacation, LeaveTypePersonal:
		if daysSinceToday > 0 {
			return startMessage(MessageNeedsAdvance)
		}
		return nil
	default:
		return &ValidationMessage{Field: FieldLeaveType, Message: MessageUnknownType}
	}
}

func ValidateEndDate(start, end time.Time) *ValidationMessage {
	if Midnight(start).After(Midnight(end)) {
		return &ValidationMessage{Field: FieldEndDate, Message: MessageEndBeforeStart}
	}
	return nil
}

// ValidateRange runs both date checks and returns one message slot per field.
func ValidateRange(t LeaveType, start, end, today time.Time) (startMsg, endMsg *ValidationMessage) {
	return ValidateStartDate(t, start, today), ValidateEndDate(start, end)
}
