// Package apperr carries the error taxonomy shared by every layer of the
// service. Callers branch on the Kind with errors.Is against the exported
// sentinels, never on message text.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindInsufficientInput Kind = "insufficient_input"
	KindInvalidInput      Kind = "invalid_input"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindRateLimited       Kind = "rate_limited"
	KindUnconfigured      Kind = "unconfigured"
	KindBackend           Kind = "backend"
	KindPersistence       Kind = "persistence"
	KindGenerationFailed  Kind = "generation_failed"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindAlreadyCompleted  Kind = "already_completed"
	KindCanceled          Kind = "canceled"
	KindInternal          Kind = "internal"
)

var (
	ErrInsufficientInput = &Error{Kind: KindInsufficientInput}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrUnconfigured      = &Error{Kind: KindUnconfigured}
	ErrBackend           = &Error{Kind: KindBackend}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrGenerationFailed  = &Error{Kind: KindGenerationFailed}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrAlreadyCompleted  = &Error{Kind: KindAlreadyCompleted}
	ErrCanceled          = &Error{Kind: KindCanceled}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Msg != "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so a bare sentinel such as
// ErrNotFound matches every not-found error regardless of op or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsQuotaClass reports whether err means the language model refused the
// call for capacity reasons.
func IsQuotaClass(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrRateLimited)
}

// UseFallback reports whether a language-model failure should be recovered
// by the deterministic path instead of being surfaced.
func UseFallback(err error) bool {
	return IsQuotaClass(err) || errors.Is(err, ErrUnconfigured)
}

// Canceled wraps the context error when ctx is done, and returns nil otherwise.
func Canceled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return Wrap(KindCanceled, op, err)
	}
	return nil
}
