package leaveform

import (
	"context"
	"errors"
	"fmt"

	"go-timeoff/internal/leaveclient"
	"go-timeoff/internal/leavepolicy"

	"go.uber.org/zap"
)

const SubmitFailedMessage = "failed to submit time off request"

var (
	ErrValidation       = errors.New("leave form has validation errors")
	ErrSubmitInProgress = errors.New("leave request submission already in progress")
	ErrNoEmployee       = errors.New("no employee selected")
)

// Submit validates the draft and, when it passes, creates the request. A
// draft that fails validation never reaches the API. On success the returned
// record is appended to the request list and the draft is reset; on failure
// the draft is kept and the notifier is told. There is no retry.
func (f *Form) Submit(ctx context.Context) (leaveclient.LeaveRequest, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return leaveclient.LeaveRequest{}, ErrSubmitInProgress
	}
	f.state = StateValidating

	payload, err := f.buildPayload()
	if err != nil {
		f.state = StateIdle
		f.mu.Unlock()
		return leaveclient.LeaveRequest{}, err
	}

	gen := f.generation
	f.state = StateSubmitting
	f.mu.Unlock()

	log := f.logger.With(zap.String("employee_id", payload.EmployeeID))
	log.Debug("submit leave request",
		zap.String("leave_type", payload.LeaveType),
		zap.String("start_date", payload.StartDate),
		zap.String("end_date", payload.EndDate),
		zap.Int("leave_amount", payload.LeaveAmount),
	)

	created, err := f.api.CreateLeaveRequest(ctx, payload)

	f.mu.Lock()
	f.state = StateIdle
	if err != nil {
		f.mu.Unlock()
		log.Warn("submit leave request failed", zap.Error(err))
		f.notifier.Notify(SubmitFailedMessage)
		return leaveclient.LeaveRequest{}, fmt.Errorf("create leave request: %w", err)
	}
	if f.generation == gen {
		f.requests = append(f.requests, created)
	}
	f.resetDraft()
	f.mu.Unlock()

	log.Info("submit leave request success", zap.String("leave_id", created.ID))
	return created, nil
}

// buildPayload runs the submit guard. Must be called with f.mu held.
func (f *Form) buildPayload() (leaveclient.CreatePayload, error) {
	if f.draft.StartDate == "" {
		f.startMsg = &leavepolicy.ValidationMessage{Field: leavepolicy.FieldStartDate, Message: leavepolicy.MessageMissingDate}
	} else {
		f.validateStart()
	}
	if f.draft.EndDate == "" {
		f.endMsg = &leavepolicy.ValidationMessage{Field: leavepolicy.FieldEndDate, Message: leavepolicy.MessageMissingDate}
	} else {
		f.validateEnd()
	}
	if f.startMsg != nil || f.endMsg != nil || !f.draft.LeaveType.Valid() {
		return leaveclient.CreatePayload{}, ErrValidation
	}
	if f.employeeID == "" {
		return leaveclient.CreatePayload{}, ErrNoEmployee
	}

	days, _ := f.span()
	return leaveclient.CreatePayload{
		EmployeeID:  f.employeeID,
		LeaveType:   string(f.draft.LeaveType),
		StartDate:   f.draft.StartDate,
		EndDate:     f.draft.EndDate,
		Status:      string(leavepolicy.StatusPending),
		Reason:      f.draft.Reason,
		LeaveAmount: leavepolicy.LeaveAmount(days),
	}, nil
}
