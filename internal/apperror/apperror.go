package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)

// Stable machine-readable codes. Clients branch on these, so never rename one.
const (
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeNotFound                  = "NOT_FOUND"
	CodeInvalidArgument           = "INVALID_ARGUMENT"
	CodeInvalidURL                = "INVALID_URL"
	CodePhotoRequired             = "PHOTO_REQUIRED"
	CodeCurrentlyBuildingRequired = "CURRENTLY_BUILDING_REQUIRED"
	CodeSocialRequired            = "SOCIAL_REQUIRED"
	CodeWorkItemRequired          = "WORK_ITEM_REQUIRED"
	CodeWorkItemTitleRequired     = "WORK_ITEM_TITLE_REQUIRED"
	CodeWorkItemURLRequired       = "WORK_ITEM_URL_REQUIRED"
	CodePhotoKeyRequired          = "PHOTO_KEY_REQUIRED"
	CodePhotoLimitReached         = "PHOTO_LIMIT_REACHED"
	CodeConflict                  = "CONFLICT"
	CodeForbidden                 = "FORBIDDEN"
	CodeRateLimited               = "RATE_LIMITED"
)

type AppError struct {
	Err     error  // actual error
	Code    string // Stable code, e.g. "PHOTO_REQUIRED"
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidArgument,
		Message: message,
		Field:   field,
	}
}

// Precondition reports one unmet requirement of an operation, identified by code.
func Precondition(code, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    code,
		Message: message,
	}
}

// InvalidURL reports a value in field that is not an absolute http(s) URL.
func InvalidURL(field string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeInvalidURL,
		Message: fmt.Sprintf("%s must be a valid http(s) URL.", field),
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// LimitReached reports that a bounded collection is full.
// HTTP handlers map this to 409 Conflict.
func LimitReached(code, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    code,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for calls that need a signed-in caller.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// RateLimited reports a caller that exceeded an operation's call budget.
func RateLimited(message string) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Code:    CodeRateLimited,
		Message: message,
	}
}
