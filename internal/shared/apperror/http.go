package apperror

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// HTTPError is what handlers write into the response envelope.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP maps any service error to a response. Unknown errors never leak
// their text to the client.
func ToHTTP(err error) HTTPError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		err = MapValidationError(ve)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			return HTTPError{Status: appErr.HTTPStatus, Code: appErr.Code, Message: appErr.Message}
		}
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	return HTTPError{
		Status:  ErrInternal.HTTPStatus,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
	}
}

// FromBinding maps a gin binding error. Anything that is not a validator
// error (malformed json, wrong types) becomes the generic 400.
func FromBinding(err error) HTTPError {
	return ToHTTP(MapValidationError(err))
}
