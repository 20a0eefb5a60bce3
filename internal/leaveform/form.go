// Package leaveform is the state behind the time-off request form: the draft
// and its change handlers, the two inline validation messages, the live day
// span and balance projection, the submit lock and the employee loader.
//
// A Form is safe for concurrent use. Network calls are made without holding
// the form lock, so View stays responsive while a load or a submit is in
// flight.
package leaveform

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-timeoff/internal/leaveclient"
	"go-timeoff/internal/leavepolicy"

	"go.uber.org/zap"
)

// API is the REST collaborator the form consumes. *leaveclient.HTTPClient
// satisfies it.
type API interface {
	GetLeaveBalance(ctx context.Context, employeeID string) (leavepolicy.Balance, error)
	GetRecentLeaveRequests(ctx context.Context, employeeID string) ([]leaveclient.LeaveRequest, error)
	CreateLeaveRequest(ctx context.Context, payload leaveclient.CreatePayload) (leaveclient.LeaveRequest, error)
}

type Draft struct {
	LeaveType leavepolicy.LeaveType
	StartDate string
	EndDate   string
	Reason    string
}

type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

type Option func(*Form)

func WithClock(now func() time.Time) Option {
	return func(f *Form) {
		if now != nil {
			f.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(f *Form) {
		if n != nil {
			f.notifier = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l.Named("leave.form")
		}
	}
}

// WithDefaultDraft sets the draft the form starts with and returns to after
// a successful submit.
func WithDefaultDraft(d Draft) Option {
	return func(f *Form) {
		f.defaults = d
	}
}

type Form struct {
	mu sync.Mutex

	api      API
	now      func() time.Time
	notifier Notifier
	logger   *zap.Logger
	defaults Draft

	draft    Draft
	startMsg *leavepolicy.ValidationMessage
	endMsg   *leavepolicy.ValidationMessage
	state    State

	employeeID  string
	generation  uint64
	balance     *leavepolicy.Balance
	requests    []leaveclient.LeaveRequest
	balanceErr  error
	requestsErr error
}

// New builds a form whose draft starts as SICK with empty dates unless
// WithDefaultDraft says otherwise.
func New(api API, opts ...Option) *Form {
	logger := zap.L().Named("leave.form")
	f := &Form{
		api:      api,
		now:      time.Now,
		logger:   logger,
		defaults: Draft{LeaveType: leavepolicy.LeaveTypeSick},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.notifier == nil {
		f.notifier = NewZapNotifier(f.logger)
	}
	f.draft = f.defaults
	return f
}

func (f *Form) today() time.Time {
	return leavepolicy.Midnight(f.now())
}

// SetLeaveType changes the type; the start date window depends on it.
func (f *Form) SetLeaveType(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, err := leavepolicy.ParseLeaveType(v); err == nil {
		f.draft.LeaveType = t
	} else {
		f.draft.LeaveType = leavepolicy.LeaveType(strings.TrimSpace(v))
	}
	f.validateStart()
}

// SetStartDate re-runs both checks: a new start can break a valid end.
func (f *Form) SetStartDate(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.StartDate = strings.TrimSpace(v)
	f.validateStart()
	f.validateEnd()
}

func (f *Form) SetEndDate(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.EndDate = strings.TrimSpace(v)
	f.validateEnd()
}

func (f *Form) SetReason(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.Reason = v
}

// Reset drops the draft and its messages.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resetDraft()
}

func (f *Form) resetDraft() {
	f.draft = f.defaults
	f.startMsg = nil
	f.endMsg = nil
}

// validateStart fills the start slot. An empty date clears it; the missing
// date message is only raised by Submit.
func (f *Form) validateStart() {
	if f.draft.StartDate == "" {
		f.startMsg = nil
		return
	}
	start, err := leavepolicy.ParseDate(f.draft.StartDate)
	if err != nil {
		f.startMsg = &leavepolicy.ValidationMessage{Field: leavepolicy.FieldStartDate, Message: leavepolicy.MessageInvalidDate}
		return
	}
	f.startMsg = leavepolicy.ValidateStartDate(f.draft.LeaveType, start, f.today())
}

func (f *Form) validateEnd() {
	if f.draft.StartDate == "" || f.draft.EndDate == "" {
		f.endMsg = nil
		return
	}
	end, err := leavepolicy.ParseDate(f.draft.EndDate)
	if err != nil {
		f.endMsg = &leavepolicy.ValidationMessage{Field: leavepolicy.FieldEndDate, Message: leavepolicy.MessageInvalidDate}
		return
	}
	start, err := leavepolicy.ParseDate(f.draft.StartDate)
	if err != nil {
		// start slot already reports it
		f.endMsg = nil
		return
	}
	f.endMsg = leavepolicy.ValidateEndDate(start, end)
}

// span reports the inclusive day span of the draft, false while either date
// is unset or unparseable.
func (f *Form) span() (int, bool) {
	start, err := leavepolicy.ParseDate(f.draft.StartDate)
	if err != nil {
		return 0, false
	}
	end, err := leavepolicy.ParseDate(f.draft.EndDate)
	if err != nil {
		return 0, false
	}
	return leavepolicy.InclusiveDaySpan(end, start), true
}

// View is a snapshot of the form. Slices are copies.
type View struct {
	EmployeeID       string
	Draft            Draft
	StartDateMessage *leavepolicy.ValidationMessage
	EndDateMessage   *leavepolicy.ValidationMessage

	DaySpan     int
	HasDaySpan  bool
	LeaveAmount int

	// Balance is nil until the current employee's balance has loaded.
	Balance  *leavepolicy.Balance
	Balances []leavepolicy.ProjectedBalance
	Requests []leaveclient.LeaveRequest

	State       State
	Submitting  bool
	BalanceErr  error
	RequestsErr error
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := View{
		EmployeeID:       f.employeeID,
		Draft:            f.draft,
		StartDateMessage: copyMessage(f.startMsg),
		EndDateMessage:   copyMessage(f.endMsg),
		State:            f.state,
		Submitting:       f.state == StateSubmitting,
		BalanceErr:       f.balanceErr,
		RequestsErr:      f.requestsErr,
		Requests:         append([]leaveclient.LeaveRequest(nil), f.requests...),
	}
	if days, ok := f.span(); ok {
		v.DaySpan = days
		v.HasDaySpan = true
		v.LeaveAmount = leavepolicy.LeaveAmount(days)
	}
	if f.balance != nil {
		b := *f.balance
		v.Balance = &b

		start, _ := leavepolicy.ParseDate(f.draft.StartDate)
		end, _ := leavepolicy.ParseDate(f.draft.EndDate)
		v.Balances = leavepolicy.ProjectAll(f.draft.LeaveType, b, start, end)
	}
	return v
}

func copyMessage(m *leavepolicy.ValidationMessage) *leavepolicy.ValidationMessage {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
