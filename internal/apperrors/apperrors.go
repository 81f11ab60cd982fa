package apperrors

import (
	"errors"
	"net/http"
)

// Error is the failure value every service and façade operation returns.
// Code is machine readable, Status is the HTTP-equivalent class, Data carries
// optional structured detail for the client.
type Error struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches errors by code so sentinel comparisons via errors.Is work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func newError(status int, code string) *Error {
	return &Error{Code: code, Status: status, Message: code}
}

// InvalidModel reports an unregistered entity name. Internal misuse, not a
// user-facing condition.
func InvalidModel(modelName string) *Error {
	err := newError(http.StatusInternalServerError, "invalid_model")
	err.Data = map[string]string{"model_name": modelName}
	return err
}

// ValidationError reports a payload that failed schema checks.
func ValidationError(details any) *Error {
	err := newError(http.StatusUnprocessableEntity, "validation_error")
	err.Data = details
	return err
}

// DuplicateKey reports a uniqueness-constraint violation on create or update.
func DuplicateKey() *Error {
	return newError(http.StatusConflict, "duplicate_key")
}

// NotFound reports that no record exists for the given id.
func NotFound() *Error {
	return newError(http.StatusNotFound, "not_found")
}

// UserDoesNotExist reports a login or reset lookup that matched no account.
func UserDoesNotExist() *Error {
	return newError(http.StatusNotFound, "user_does_not_exist")
}

// InvalidCredentials reports a password mismatch.
func InvalidCredentials() *Error {
	return newError(http.StatusUnauthorized, "invalid_credentials")
}

// ExpiredToken reports a token past its expiry.
func ExpiredToken() *Error {
	return newError(http.StatusUnauthorized, "expired_token")
}

// Unauthorized reports a malformed, tampered or wrong-secret token.
func Unauthorized() *Error {
	return newError(http.StatusUnauthorized, "unauthorized")
}

// UnableToUploadImage reports a failed avatar upload.
func UnableToUploadImage() *Error {
	return newError(http.StatusBadGateway, "unable_to_upload_image")
}

// UnknownError is the fallback for uncaught failures.
func UnknownError() *Error {
	return newError(http.StatusInternalServerError, "unknown_error")
}

// AsError extracts an *Error from err, or nil when err carries none.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
