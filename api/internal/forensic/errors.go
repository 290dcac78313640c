package forensic

import (
	"errors"
	"fmt"
)

// ScanAbortedMessage is the only failure text shown for a failed analysis call.
const ScanAbortedMessage = "Scan Aborted: Sample exceeds neural complexity or contains safety-blocked data."

var (
	ErrInputRejected = errors.New("input rejected")
	ErrScanAborted   = errors.New("scan aborted")
)

// InputError: отказ в приёме входных данных до какого-либо запроса к модели.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInputRejected }

func Rejected(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// Aborted оборачивает причину сбоя вызова модели в ErrScanAborted.
// Причина остаётся доступной через errors.Unwrap для логов.
func Aborted(cause error) error {
	if cause == nil {
		return ErrScanAborted
	}
	if errors.Is(cause, ErrScanAborted) {
		return cause
	}
	return &abortError{cause: cause}
}

type abortError struct{ cause error }

func (e *abortError) Error() string   { return ErrScanAborted.Error() + ": " + e.cause.Error() }
func (e *abortError) Unwrap() []error { return []error{ErrScanAborted, e.cause} }
