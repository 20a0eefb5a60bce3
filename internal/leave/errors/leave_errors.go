package leaveerrors

import (
	"net/http"

	"go-timeoff/internal/leavepolicy"
	"go-timeoff/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"employee does not belong to this company",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave status transition",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when status is REJECTED",
		http.StatusBadRequest,
	)
	ErrCannotDecideOwnLeave = apperror.New(
		apperror.CodeForbidden,
		"you cannot approve or reject your own leave request",
		http.StatusForbidden,
	)
	ErrCannotActForOthers = apperror.New(
		apperror.CodeForbidden,
		"you can only access your own leave requests",
		http.StatusForbidden,
	)
	ErrPolicyViolation = apperror.New(
		apperror.CodeValidationFailed,
		"leave request violates time-off policy",
		http.StatusBadRequest,
	)
)

// PolicyViolation turns policy messages into a 400 whose message is the first
// violation and whose details list all of them.
func PolicyViolation(msgs ...*leavepolicy.ValidationMessage) *apperror.AppError {
	details := make([]leavepolicy.ValidationMessage, 0, len(msgs))
	for _, m := range msgs {
		if m != nil {
			details = append(details, *m)
		}
	}
	if len(details) == 0 {
		return ErrPolicyViolation
	}
	err := ErrPolicyViolation.WithDetails(details)
	err.Message = details[0].Message
	return err
}
