package leavepolicy

import "time"

// ProjectBalance estimates the balance of t after a request from start to end
// is approved. It reports false when either date is unset or the range is
// empty. The result has no floor: a negative value means the request exceeds
// what is left.
func ProjectBalance(t LeaveType, current Balance, start, end time.Time) (int, bool) {
	if start.IsZero() || end.IsZero() {
		return 0, false
	}
	span := InclusiveDaySpan(end, start)
	if span <= 0 {
		return 0, false
	}
	return current.For(t) - span, true
}

type ProjectedBalance struct {
	LeaveType LeaveType `json:"leave_type"`
	DaysLeft  int       `json:"days_left"`
	Projected bool      `json:"projected"`
	Overdrawn bool      `json:"overdrawn"`
}

// ProjectAll returns one row per leave type. Only the selected type is
// projected, the others carry their stored value.
func ProjectAll(selected LeaveType, current Balance, start, end time.Time) []ProjectedBalance {
	rows := make([]ProjectedBalance, 0, 3)
	for _, t := range AllLeaveTypes() {
		row := ProjectedBalance{LeaveType: t, DaysLeft: current.For(t)}
		if t == selected {
			if v, ok := ProjectBalance(t, current, start, end); ok {
				row.DaysLeft = v
				row.Projected = true
			}
		}
		row.Overdrawn = row.DaysLeft < 0
		rows = append(rows, row)
	}
	return rows
}
