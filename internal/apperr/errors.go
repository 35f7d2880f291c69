package apperr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// TransientExchangeError: сеть, таймауты, rate limit. Шаг пропускается до следующего цикла.
type TransientExchangeError struct {
	Op  string
	Err error
}

func (e *TransientExchangeError) Error() string {
	return fmt.Sprintf("transient exchange error: %s: %v", e.Op, e.Err)
}

func (e *TransientExchangeError) Unwrap() error { return e.Err }

// ValidationError: неверный ввод оператора или параметры.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Msg
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// InvariantViolation: состояние, которого не должно быть (например, больше двух ног).
type InvariantViolation struct {
	Instrument string
	Msg        string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s: %s", e.Instrument, e.Msg)
}

func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&TransientExchangeError{Op: op, Err: err})
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func Invariant(instrument, msg string) error {
	return errors.WithStack(&InvariantViolation{Instrument: instrument, Msg: msg})
}

func IsTransient(err error) bool {
	var e *TransientExchangeError
	return stderrors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return stderrors.As(err, &e)
}

func IsInvariant(err error) bool {
	var e *InvariantViolation
	return stderrors.As(err, &e)
}

// ValidationMessage: текст для оператора без префиксов.
func ValidationMessage(err error) string {
	var e *ValidationError
	if stderrors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
