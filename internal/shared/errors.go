package shared

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before it reaches storage.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the request clashes with the current state of a record.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate indicates a unique value is already taken.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthorized indicates a missing, expired or revoked token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is one field-level reason a payload was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries the ordered field reasons of a rejected payload.
// Its message is the first reason.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError from the given reasons.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Add appends a reason.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// OrNil returns nil when no reason was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return e.Fields[0].Reason
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UserSafeMessage returns an error message that can be shown to end users.
// Domain errors are built as fmt.Errorf("%w: detail", sentinel); the detail
// after the sentinel is what the user sees. Anything else is hidden behind
// GenericErrorMessage.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	for _, sentinel := range userFacing {
		if !errors.Is(err, sentinel) {
			continue
		}
		msg := err.Error()
		marker := sentinel.Error() + ": "
		if i := strings.Index(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
		return sentinel.Error()
	}
	return GenericErrorMessage
}

var userFacing = []error{
	ErrValidation,
	ErrNotFound,
	ErrConflict,
	ErrDuplicate,
	ErrInvalidCredentials,
	ErrUnauthorized,
	ErrForbidden,
}

// GenericErrorMessage is shown when nothing more specific is known.
const GenericErrorMessage = "An error occurred"
