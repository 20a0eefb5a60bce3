package leaveform_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-timeoff/internal/leaveclient"
	"go-timeoff/internal/leaveform"
	"go-timeoff/internal/leavepolicy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	getBalanceFn  func(ctx context.Context, employeeID string) (leavepolicy.Balance, error)
	getRecentFn   func(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error)
	createFn      func(ctx context.Context, payload leaveclient.CreatePayload) (leaveclient.LeaveRequest, error)
	createPayload []leaveclient.CreatePayload
	calls         int
}

func (f *fakeAPI) GetLeaveBalance(ctx context.Context, employeeID string) (leavepolicy.Balance, error) {
	f.count()
	if f.getBalanceFn != nil {
		return f.getBalanceFn(ctx, employeeID)
	}
	return leavepolicy.Balance{VacationDaysLeft: 15, SickDaysLeft: 10, PersonalDaysLeft: 3}, nil
}

func (f *fakeAPI) GetRecentLeaveRequests(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error) {
	f.count()
	if f.getRecentFn != nil {
		return f.getRecentFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeAPI) CreateLeaveRequest(ctx context.Context, payload leaveclient.CreatePayload) (leaveclient.LeaveRequest, error) {
	f.mu.Lock()
	f.calls++
	f.createPayload = append(f.createPayload, payload)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, payload)
	}
	return leaveclient.LeaveRequest{
		ID:          "new-id",
		EmployeeID:  payload.EmployeeID,
		LeaveType:   payload.LeaveType,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
		LeaveAmount: payload.LeaveAmount,
		Reason:      payload.Reason,
		Status:      "PENDING",
	}, nil
}

func (f *fakeAPI) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) payloads() []leaveclient.CreatePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]leaveclient.CreatePayload(nil), f.createPayload...)
}

var today = time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newLoadedForm(t *testing.T, api *fakeAPI, opts ...leaveform.Option) *leaveform.Form {
	t.Helper()
	f := leaveform.New(api, append([]leaveform.Option{leaveform.WithClock(fixedClock)}, opts...)...)
	require.NoError(t, f.LoadEmployee(context.Background(), "emp-1"))
	return f
}

func TestForm_SubmitWithEmptyStartDate(t *testing.T) {
	api := &fakeAPI{}
	f := leaveform.New(api, leaveform.WithClock(fixedClock))

	f.SetLeaveType("VACATION")
	f.SetEndDate("2024-01-12")
	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, leaveform.ErrValidation)
	v := f.View()
	require.NotNil(t, v.StartDateMessage)
	assert.Equal(t, leavepolicy.MessageMissingDate, v.StartDateMessage.Message)
	assert.Nil(t, v.EndDateMessage)
	assert.Equal(t, leaveform.StateIdle, v.State)
	assert.Zero(t, api.totalCalls())
}

func TestForm_SubmitValidDraft(t *testing.T) {
	api := &fakeAPI{
		getRecentFn: func(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error) {
			return []leaveclient.LeaveRequest{{ID: "old", Status: "APPROVED"}}, nil
		},
	}
	f := newLoadedForm(t, api)

	f.SetLeaveType("PERSONAL")
	f.SetStartDate("2024-01-11")
	f.SetEndDate("2024-01-13")
	f.SetReason("trip")

	before := f.View()
	assert.Equal(t, 3, before.DaySpan)
	assert.Equal(t, 24, before.LeaveAmount)
	assert.Len(t, before.Requests, 1)

	created, err := f.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	payloads := api.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, leaveclient.CreatePayload{
		EmployeeID:  "emp-1",
		LeaveType:   "PERSONAL",
		StartDate:   "2024-01-11",
		EndDate:     "2024-01-13",
		Status:      "PENDING",
		Reason:      "trip",
		LeaveAmount: 24,
	}, payloads[0])

	after := f.View()
	assert.Len(t, after.Requests, 2)
	assert.Equal(t, "new-id", after.Requests[1].ID)
	assert.Equal(t, leaveform.Draft{LeaveType: leavepolicy.LeaveTypeSick}, after.Draft)
	assert.Nil(t, after.StartDateMessage)
	assert.Nil(t, after.EndDateMessage)
	assert.False(t, after.HasDaySpan)
}

func TestForm_SubmitFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{
		createFn: func(ctx context.Context, payload leaveclient.CreatePayload) (leaveclient.LeaveRequest, error) {
			return leaveclient.LeaveRequest{}, &leaveclient.APIError{Status: 500, Code: "INTERNAL_ERROR"}
		},
	}
	notifier := &recordingNotifier{}
	f := newLoadedForm(t, api, leaveform.WithNotifier(notifier))

	f.SetLeaveType("VACATION")
	f.SetStartDate("2024-01-15")
	f.SetEndDate("2024-01-16")

	_, err := f.Submit(context.Background())

	var apiErr *leaveclient.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []string{leaveform.SubmitFailedMessage}, notifier.all())

	v := f.View()
	assert.Equal(t, "2024-01-15", v.Draft.StartDate)
	assert.Equal(t, leavepolicy.LeaveTypeVacation, v.Draft.LeaveType)
	assert.Empty(t, v.Requests)
	assert.Equal(t, leaveform.StateIdle, v.State)
}

func TestForm_SubmitPolicyViolation(t *testing.T) {
	api := &fakeAPI{}
	f := newLoadedForm(t, api)
	loadCalls := api.totalCalls()

	f.SetLeaveType("VACATION")
	f.SetStartDate("2024-01-10")
	f.SetEndDate("2024-01-12")

	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, leaveform.ErrValidation)
	assert.Equal(t, loadCalls, api.totalCalls())
	require.NotNil(t, f.View().StartDateMessage)
	assert.Equal(t, leavepolicy.MessageNeedsAdvance, f.View().StartDateMessage.Message)
}

func TestForm_SubmitWithoutEmployee(t *testing.T) {
	api := &fakeAPI{}
	f := leaveform.New(api, leaveform.WithClock(fixedClock))
	f.SetStartDate("2024-01-10")
	f.SetEndDate("2024-01-10")

	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, leaveform.ErrNoEmployee)
	assert.Zero(t, api.totalCalls())
}

func TestForm_SubmitLock(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		createFn: func(ctx context.Context, payload leaveclient.CreatePayload) (leaveclient.LeaveRequest, error) {
			close(started)
			<-release
			return leaveclient.LeaveRequest{ID: "only"}, nil
		},
	}
	f := newLoadedForm(t, api)
	f.SetStartDate("2024-01-10")
	f.SetEndDate("2024-01-10")

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-started

	assert.True(t, f.View().Submitting)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, leaveform.ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, api.payloads(), 1)
	assert.False(t, f.View().Submitting)
}

func TestForm_TriggerPolicy(t *testing.T) {
	f := leaveform.New(&fakeAPI{}, leaveform.WithClock(fixedClock))

	t.Run("type change re-runs start check", func(t *testing.T) {
		f.SetLeaveType("SICK")
		f.SetStartDate("2024-01-10")
		assert.Nil(t, f.View().StartDateMessage)

		f.SetLeaveType("PERSONAL")
		require.NotNil(t, f.View().StartDateMessage)
		assert.Equal(t, leavepolicy.MessageNeedsAdvance, f.View().StartDateMessage.Message)

		f.SetLeaveType("sick")
		assert.Nil(t, f.View().StartDateMessage)
		assert.Equal(t, leavepolicy.LeaveTypeSick, f.View().Draft.LeaveType)
	})

	t.Run("start change re-runs end check", func(t *testing.T) {
		f.SetEndDate("2024-01-12")
		assert.Nil(t, f.View().EndDateMessage)

		f.SetStartDate("2024-01-13")
		require.NotNil(t, f.View().EndDateMessage)
		assert.Equal(t, leavepolicy.MessageEndBeforeStart, f.View().EndDateMessage.Message)

		f.SetStartDate("2024-01-11")
		assert.Nil(t, f.View().EndDateMessage)
		assert.Equal(t, 2, f.View().DaySpan)
	})

	t.Run("end change does not touch start slot", func(t *testing.T) {
		f.SetLeaveType("VACATION")
		f.SetStartDate("2024-01-09")
		require.NotNil(t, f.View().StartDateMessage)

		f.SetEndDate("2024-01-20")
		assert.NotNil(t, f.View().StartDateMessage)
	})

	t.Run("empty date clears its slot", func(t *testing.T) {
		f.SetStartDate("")
		assert.Nil(t, f.View().StartDateMessage)
		assert.Nil(t, f.View().EndDateMessage)
		assert.False(t, f.View().HasDaySpan)
	})

	t.Run("malformed date", func(t *testing.T) {
		f.SetStartDate("01/11/2024")
		require.NotNil(t, f.View().StartDateMessage)
		assert.Equal(t, leavepolicy.MessageInvalidDate, f.View().StartDateMessage.Message)
	})
}

func TestForm_Projection(t *testing.T) {
	f := newLoadedForm(t, &fakeAPI{})

	assert.Len(t, f.View().Balances, 3)
	assert.False(t, f.View().Balances[1].Projected)

	f.SetLeaveType("PERSONAL")
	f.SetStartDate("2024-01-11")
	f.SetEndDate("2024-01-15")

	rows := f.View().Balances
	require.Len(t, rows, 3)
	assert.Equal(t, leavepolicy.ProjectedBalance{LeaveType: leavepolicy.LeaveTypePersonal, DaysLeft: -2, Projected: true, Overdrawn: true}, rows[2])
	assert.Equal(t, 15, rows[0].DaysLeft)
	assert.Equal(t, 3, f.View().Balance.PersonalDaysLeft)
}

func TestForm_LoadEmployee(t *testing.T) {
	t.Run("independent failures", func(t *testing.T) {
		api := &fakeAPI{
			getBalanceFn: func(ctx context.Context, employeeID string) (leavepolicy.Balance, error) {
				return leavepolicy.Balance{}, errors.New("balance down")
			},
			getRecentFn: func(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error) {
				return []leaveclient.LeaveRequest{{ID: "r1"}}, nil
			},
		}
		f := leaveform.New(api, leaveform.WithClock(fixedClock))

		err := f.LoadEmployee(context.Background(), "emp-1")

		assert.ErrorContains(t, err, "balance down")
		v := f.View()
		assert.Nil(t, v.Balance)
		assert.Empty(t, v.Balances)
		assert.Error(t, v.BalanceErr)
		assert.NoError(t, v.RequestsErr)
		assert.Len(t, v.Requests, 1)
	})

	t.Run("both sections fail", func(t *testing.T) {
		api := &fakeAPI{
			getBalanceFn: func(ctx context.Context, employeeID string) (leavepolicy.Balance, error) {
				return leavepolicy.Balance{}, errors.New("balance down")
			},
			getRecentFn: func(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error) {
				return nil, errors.New("requests down")
			},
		}
		f := leaveform.New(api, leaveform.WithClock(fixedClock))

		err := f.LoadEmployee(context.Background(), "emp-1")

		require.Error(t, err)
		assert.Regexp(t, `^load leave (balance|requests): `, err.Error())
		v := f.View()
		assert.EqualError(t, v.BalanceErr, "balance down")
		assert.EqualError(t, v.RequestsErr, "requests down")
		assert.Empty(t, v.Requests)
	})

	t.Run("stale response is discarded", func(t *testing.T) {
		staleStarted := make(chan struct{})
		releaseStale := make(chan struct{})
		api := &fakeAPI{
			getBalanceFn: func(ctx context.Context, employeeID string) (leavepolicy.Balance, error) {
				if employeeID == "emp-a" {
					close(staleStarted)
					<-releaseStale
					return leavepolicy.Balance{VacationDaysLeft: 1}, nil
				}
				return leavepolicy.Balance{VacationDaysLeft: 20}, nil
			},
			getRecentFn: func(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error) {
				return []leaveclient.LeaveRequest{{ID: employeeID + "-req"}}, nil
			},
		}
		f := leaveform.New(api, leaveform.WithClock(fixedClock))

		done := make(chan error, 1)
		go func() { done <- f.LoadEmployee(context.Background(), "emp-a") }()
		<-staleStarted

		require.NoError(t, f.LoadEmployee(context.Background(), "emp-b"))
		close(releaseStale)
		require.NoError(t, <-done)

		v := f.View()
		assert.Equal(t, "emp-b", v.EmployeeID)
		require.NotNil(t, v.Balance)
		assert.Equal(t, 20, v.Balance.VacationDaysLeft)
		require.Len(t, v.Requests, 1)
		assert.Equal(t, "emp-b-req", v.Requests[0].ID)
	})
}

func TestForm_DefaultDraft(t *testing.T) {
	f := leaveform.New(&fakeAPI{},
		leaveform.WithClock(fixedClock),
		leaveform.WithDefaultDraft(leaveform.Draft{LeaveType: leavepolicy.LeaveTypeVacation, StartDate: "2024-01-11"}),
	)

	assert.Equal(t, "2024-01-11", f.View().Draft.StartDate)

	f.SetStartDate("2024-02-01")
	f.Reset()
	assert.Equal(t, leavepolicy.LeaveTypeVacation, f.View().Draft.LeaveType)
	assert.Equal(t, "2024-01-11", f.View().Draft.StartDate)
}
