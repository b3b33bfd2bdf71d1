package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks malformed caller input or a structurally invalid
	// persisted artifact. Rejected before pipeline logic runs.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResourceExhausted marks admission-control rejection. Callers should
	// retry later rather than queue.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrNotFound marks lookups for unknown task or content identifiers.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks recoverable I/O failures (download, inference,
	// upload). Re-invoking the pipeline resumes past completed stages.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks unrecoverable stage failures after retries are
	// exhausted or fallback output is still unusable.
	ErrPermanent = errors.New("permanent failure")
)

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above; a nil marker defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether re-invoking the pipeline may succeed. Transient
// failures and admission rejections qualify; everything else does not.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrResourceExhausted)
}

// Fatal reports whether the failure cannot be recovered by retrying.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPermanent) || errors.Is(err, ErrInvalidInput)
}

// ErrorDetails carries a human-readable failure message extracted from a
// wrapped stage error.
type ErrorDetails struct {
	Message string
}

// Details extracts presentation details from an error produced by Wrap.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{ErrInvalidInput, ErrResourceExhausted, ErrNotFound, ErrTransient, ErrPermanent} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
			break
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(msg)}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
