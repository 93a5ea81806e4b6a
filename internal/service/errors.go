package service

import (
	"errors"
	"fmt"

	"github.com/eleven-am/larder/internal/auth"
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/eleven-am/larder/internal/policy"
	"github.com/eleven-am/larder/internal/store"
)

// Kind classifies a domain failure. Each kind maps to one stable status.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindReferentialIntegrity Kind = "referential_integrity_violation"
	KindUnauthorized         Kind = "unauthorized"
	KindInternal             Kind = "internal_error"
)

// Error is the only error type services return
type Error struct {
	Kind    Kind
	Message string
	IDs     []int64
	Err     error
}

// Error includes the cause only for internal errors
func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Sentinels usable with errors.Is
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrReferentialIntegrity = &Error{Kind: KindReferentialIntegrity}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrInternal             = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err, KindInternal for anything foreign
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
		IDs:     []int64{id},
	}
}

// classify turns errors from the lower layers into domain errors. Anything it
// does not recognise becomes an internal error that keeps the cause for
// logging.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		se        *Error
		invalid   *models.ValidationError
		duplicate *nutrition.DuplicateIngredientError
		amount    *nutrition.InvalidAmountError
	)
	switch {
	case errors.As(err, &se):
		return se
	case errors.As(err, &invalid):
		return &Error{Kind: KindValidation, Message: invalid.Error(), Err: err}
	case errors.As(err, &duplicate):
		return &Error{Kind: KindValidation, Message: duplicate.Error(), IDs: duplicate.IDs, Err: err}
	case errors.As(err, &amount):
		return &Error{Kind: KindValidation, Message: amount.Error(), IDs: []int64{amount.FoodItemID}, Err: err}
	case errors.Is(err, policy.ErrNotOwner), errors.Is(err, policy.ErrInactive):
		return &Error{Kind: KindForbidden, Message: err.Error(), Err: err}
	case errors.Is(err, auth.ErrInvalidToken):
		return &Error{Kind: KindUnauthorized, Message: "could not validate credentials", Err: err}
	case errors.Is(err, auth.ErrPasswordTooLong):
		return &Error{Kind: KindValidation, Message: "password: must be at most 72 bytes", Err: err}
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMissingReference):
		return &Error{Kind: KindNotFound, Message: "referenced resource not found", Err: err}
	case errors.Is(err, store.ErrReferenced):
		return &Error{Kind: KindReferentialIntegrity, Message: "resource is still referenced and cannot be deleted", Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindValidation, Message: "resource already exists", Err: err}
	case errors.Is(err, store.ErrConstraint):
		return &Error{Kind: KindValidation, Message: "value violates a storage constraint", Err: err}
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}
