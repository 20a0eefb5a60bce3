package leavepolicy_test

import (
	"testing"
	"time"

	"go-timeoff/internal/leavepolicy"

	"github.com/stretchr/testify/assert"
)

func date(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := leavepolicy.ParseDate(v)
	assert.NoError(t, err)
	return d
}

func TestInclusiveDaySpan(t *testing.T) {
	t.Run("same day is one", func(t *testing.T) {
		for _, v := range []string{"2024-01-01", "2024-02-29", "2024-03-10", "2024-12-31"} {
			d := date(t, v)
			assert.Equal(t, 1, leavepolicy.InclusiveDaySpan(d, d), v)
		}
	})

	t.Run("week is seven", func(t *testing.T) {
		assert.Equal(t, 7, leavepolicy.InclusiveDaySpan(date(t, "2024-01-07"), date(t, "2024-01-01")))
	})

	t.Run("reversed order is negative", func(t *testing.T) {
		assert.Equal(t, -1, leavepolicy.InclusiveDaySpan(date(t, "2024-01-01"), date(t, "2024-01-03")))
	})

	t.Run("ranges beyond the duration limit", func(t *testing.T) {
		assert.Equal(t, 137332, leavepolicy.InclusiveDaySpan(date(t, "2400-01-01"), date(t, "2024-01-01")))
		assert.Equal(t, -137330, leavepolicy.InclusiveDaySpan(date(t, "2024-01-01"), date(t, "2400-01-01")))
		assert.Equal(t, 3652059, leavepolicy.InclusiveDaySpan(date(t, "9999-12-31"), date(t, "0001-01-01")))
	})

	t.Run("time of day and dst are ignored", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skip("tzdata not available")
		}
		before := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)
		after := time.Date(2024, 3, 11, 0, 15, 0, 0, loc)
		assert.Equal(t, 3, leavepolicy.InclusiveDaySpan(after, before))
	})
}

func TestValidateStartDate(t *testing.T) {
	today := date(t, "2024-01-10")

	tests := []struct {
		name      string
		leaveType leavepolicy.LeaveType
		start     string
		want      string
	}{
		{"sick seven days back", leavepolicy.LeaveTypeSick, "2024-01-03", ""},
		{"sick eight days back", leavepolicy.LeaveTypeSick, "2024-01-02", leavepolicy.MessageSickTooFarBack},
		{"sick today", leavepolicy.LeaveTypeSick, "2024-01-10", ""},
		{"sick in the future", leavepolicy.LeaveTypeSick, "2024-02-01", ""},
		{"vacation today", leavepolicy.LeaveTypeVacation, "2024-01-10", leavepolicy.MessageNeedsAdvance},
		{"vacation tomorrow", leavepolicy.LeaveTypeVacation, "2024-01-11", ""},
		{"vacation yesterday", leavepolicy.LeaveTypeVacation, "2024-01-09", leavepolicy.MessageNeedsAdvance},
		{"personal today", leavepolicy.LeaveTypePersonal, "2024-01-10", leavepolicy.MessageNeedsAdvance},
		{"personal tomorrow", leavepolicy.LeaveTypePersonal, "2024-01-11", ""},
		{"unknown type", leavepolicy.LeaveType("UNPAID"), "2024-01-11", leavepolicy.MessageUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := leavepolicy.ValidateStartDate(tt.leaveType, date(t, tt.start), today)
			if tt.want == "" {
				assert.Nil(t, msg)
				return
			}
			if assert.NotNil(t, msg) {
				assert.Equal(t, tt.want, msg.Message)
			}
		})
	}
}

func TestValidateEndDate(t *testing.T) {
	start := date(t, "2024-01-10")

	msg := leavepolicy.ValidateEndDate(start, date(t, "2024-01-09"))
	if assert.NotNil(t, msg) {
		assert.Equal(t, leavepolicy.MessageEndBeforeStart, msg.Message)
		assert.Equal(t, leavepolicy.FieldEndDate, msg.Field)
	}

	assert.Nil(t, leavepolicy.ValidateEndDate(start, date(t, "2024-01-10")))
	assert.Nil(t, leavepolicy.ValidateEndDate(start, date(t, "2024-01-11")))
}

func TestProjectBalance(t *testing.T) {
	current := leavepolicy.Balance{VacationDaysLeft: 15, SickDaysLeft: 4, PersonalDaysLeft: 2}

	t.Run("vacation five days", func(t *testing.T) {
		v, ok := leavepolicy.ProjectBalance(leavepolicy.LeaveTypeVacation, current, date(t, "2024-01-01"), date(t, "2024-01-05"))
		assert.True(t, ok)
		assert.Equal(t, 10, v)
		assert.Equal(t, 15, current.VacationDaysLeft)
	})

	t.Run("negative projection is kept", func(t *testing.T) {
		v, ok := leavepolicy.ProjectBalance(leavepolicy.LeaveTypePersonal, current, date(t, "2024-01-01"), date(t, "2024-01-05"))
		assert.True(t, ok)
		assert.Equal(t, -3, v)
	})

	t.Run("long range is counted in whole days", func(t *testing.T) {
		v, ok := leavepolicy.ProjectBalance(leavepolicy.LeaveTypeVacation, current, date(t, "2024-01-01"), date(t, "2400-01-01"))
		assert.True(t, ok)
		assert.Equal(t, 15-137332, v)
		assert.Equal(t, 137332*leavepolicy.HoursPerDay, leavepolicy.LeaveAmount(137332))
	})

	t.Run("unset date", func(t *testing.T) {
		_, ok := leavepolicy.ProjectBalance(leavepolicy.LeaveTypeSick, current, time.Time{}, date(t, "2024-01-05"))
		assert.False(t, ok)
	})

	t.Run("end before start", func(t *testing.T) {
		_, ok := leavepolicy.ProjectBalance(leavepolicy.LeaveTypeSick, current, date(t, "2024-01-05"), date(t, "2024-01-01"))
		assert.False(t, ok)
	})
}

func TestProjectAll(t *testing.T) {
	current := leavepolicy.Balance{VacationDaysLeft: 15, SickDaysLeft: 2, PersonalDaysLeft: 3}

	rows := leavepolicy.ProjectAll(leavepolicy.LeaveTypeSick, current, date(t, "2024-01-01"), date(t, "2024-01-03"))

	assert.Len(t, rows, 3)
	assert.Equal(t, leavepolicy.ProjectedBalance{LeaveType: leavepolicy.LeaveTypeVacation, DaysLeft: 15}, rows[0])
	assert.Equal(t, leavepolicy.ProjectedBalance{LeaveType: leavepolicy.LeaveTypeSick, DaysLeft: -1, Projected: true, Overdrawn: true}, rows[1])
	assert.Equal(t, leavepolicy.ProjectedBalance{LeaveType: leavepolicy.LeaveTypePersonal, DaysLeft: 3}, rows[2])
}

func TestLeaveAmount(t *testing.T) {
	assert.Equal(t, 24, leavepolicy.LeaveAmount(3))
	assert.Equal(t, 0, leavepolicy.LeaveAmount(-2))
}

func TestParseLeaveType(t *testing.T) {
	lt, err := leavepolicy.ParseLeaveType(" personal ")
	assert.NoError(t, err)
	assert.Equal(t, leavepolicy.LeaveTypePersonal, lt)

	_, err = leavepolicy.ParseLeaveType("ANNUAL")
	assert.Error(t, err)
}
