package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the stable categories used across
// the trading core. Validation and not-found errors flow as return values;
// integrity errors fault the owning component.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindStateTransition
	KindNotFound
	KindIntegrity
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindStateTransition:
		return "STATE_TRANSITION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindIntegrity:
		return "INTEGRITY"
	case KindProtocol:
		return "PROTOCOL"
	default:
		return "UNKNOWN"
	}
}

type kindError struct {
	kind Kind
	msg  string
	err  error
}

var _ error = (*kindError)(nil)

func (e kindError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + sep + e.err.Error()
}

func (e kindError) Unwrap() error {
	return e.err
}

func newKind(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func Validation(msg string) error {
	return newKind(KindValidation, msg)
}

func Validationf(format string, args ...any) error {
	return newKind(KindValidation, fmt.Sprintf(format, args...))
}

func StateTransition(msg string) error {
	return newKind(KindStateTransition, msg)
}

func StateTransitionf(format string, args ...any) error {
	return newKind(KindStateTransition, fmt.Sprintf(format, args...))
}

func NotFound(msg string) error {
	return newKind(KindNotFound, msg)
}

func NotFoundf(format string, args ...any) error {
	return newKind(KindNotFound, fmt.Sprintf(format, args...))
}

func Integrity(msg string) error {
	return newKind(KindIntegrity, msg)
}

func Integrityf(format string, args ...any) error {
	return newKind(KindIntegrity, fmt.Sprintf(format, args...))
}

func Protocol(msg string) error {
	return newKind(KindProtocol, msg)
}

func Protocolf(format string, args ...any) error {
	return newKind(KindProtocol, fmt.Sprintf(format, args...))
}

// WrapKind attaches a kind and message to an existing error.
func WrapKind(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, msg: msg, err: err}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

func IsValidation(err error) bool      { return KindOf(err) == KindValidation }
func IsStateTransition(err error) bool { return KindOf(err) == KindStateTransition }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsIntegrity(err error) bool       { return KindOf(err) == KindIntegrity }
func IsProtocol(err error) bool        { return KindOf(err) == KindProtocol }
