package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. The transport layer maps each kind to a
// fixed response; anything that is not a *Error is an infrastructure failure.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors that did not originate in the domain.
	KindUnknown Kind = iota
	// KindInvalidValue means input could not be turned into a value object.
	KindInvalidValue
	// KindBusinessRule means a well-formed request broke a business rule.
	KindBusinessRule
	// KindNotFound means a referenced aggregate does not exist.
	KindNotFound
)

// String returns the stable name of the kind, as used in API error bodies.
func (k Kind) String() string {
	switch k {
	case KindInvalidValue:
		return "invalid_value"
	case KindBusinessRule:
		return "business_rule_violation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Kind sentinels. Every *Error unwraps to exactly one of them.
var (
	ErrInvalidValue = errors.New("invalid value")
	ErrBusinessRule = errors.New("business rule violation")
	ErrNotFound     = errors.New("not found")
)

// Cause sentinels, for callers that need finer granularity than the kind.
var (
	// Value object validation
	ErrInvalidID       = errors.New("invalid identifier")
	ErrInvalidUserName = errors.New("invalid user name")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidTaskName = errors.New("invalid task name")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidState    = errors.New("invalid aggregate state")

	// Business rules
	ErrNoChanges         = errors.New("nothing to update")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrEmailInUse        = errors.New("email address already in use")

	// Lookups
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Error is a classified domain failure carrying a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // cause sentinel, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the cause sentinel to errors.Is.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidValue:
		return ErrInvalidValue
	case KindBusinessRule:
		return ErrBusinessRule
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// NewInvalidValueError builds a KindInvalidValue error.
func NewInvalidValueError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidValue, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NewBusinessRuleError builds a KindBusinessRule error.
func NewBusinessRuleError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NewNotFoundError builds a KindNotFound error.
func NewNotFoundError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Err: cause}
}

// UserNotFound reports a missing user.
func UserNotFound(id ID) *Error {
	return NewNotFoundError(ErrUserNotFound, "user not found: %s", id)
}

// TaskNotFound reports a missing task.
func TaskNotFound(id ID) *Error {
	return NewNotFoundError(ErrTaskNotFound, "task not found: %s", id)
}

// EmailInUse reports that another user already holds the address.
func EmailInUse(email Email) *Error {
	return NewBusinessRuleError(ErrEmailInUse, "this email address is already in use: %s", email)
}
