package executor

import (
	"context"
	"fmt"

	syncerrors "github.com/yuya-takeyama/strict-mtp-sync/internal/errors"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/checksum"
)

// VerifyReason says why the verification gate rejected a copy.
type VerifyReason string

const (
	ReasonMismatch   VerifyReason = "mismatch"
	ReasonUnreadable VerifyReason = "unreadable"
)

// VerifyError is returned when the remote content never matched.
type VerifyError struct {
	Name     string
	Reason   VerifyReason
	Attempts int
	Expected string
	Got      string
	Err      error
}

func (e *VerifyError) Error() string {
	if e.Reason == ReasonUnreadable {
		return fmt.Sprintf("verify %s: remote unreadable after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
	}
	return fmt.Sprintf("verify %s: checksum mismatch after %d attempt(s): expected %s, got %s",
		e.Name, e.Attempts, e.Expected, e.Got)
}

func (e *VerifyError) Unwrap() []error {
	if e.Err == nil {
		return []error{syncerrors.ErrVerification}
	}
	return []error{syncerrors.ErrVerification, e.Err}
}

// Verify re-reads name and compares its digest with expected. Mismatches and
// transient read failures are retried with an increasing delay.
func (e *Executor) Verify(ctx context.Context, name, expected string) error {
	var last *VerifyError
	for attempt := 1; ; attempt++ {
		got, err := e.readDigest(ctx, name)
		switch {
		case err != nil:
			last = &VerifyError{Reason: ReasonUnreadable, Err: err}
			if classifyError(err) == Permanent {
				return last.finish(name, expected, attempt)
			}
		case checksum.Equal(got, expected):
			return nil
		default:
			last = &VerifyError{Reason: ReasonMismatch, Got: got}
		}

		retry, wait := e.cfg.Verify.Next(attempt)
		if !retry {
			return last.finish(name, expected, attempt)
		}
		e.logger.Warn("verification failed, re-reading",
			"name", name,
			"attempt", attempt,
			"reason", last.Reason,
			"wait", wait,
		)
		if werr := e.pacer.Wait(ctx, wait); werr != nil {
			last.Err = werr
			return last.finish(name, expected, attempt)
		}
	}
}

func (e *VerifyError) finish(name, expected string, attempts int) *VerifyError {
	e.Name = name
	e.Expected = expected
	e.Attempts = attempts
	return e
}
