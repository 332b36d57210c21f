// Package executor performs the remote operations of a sync run: copy and
// delete with bounded, classified retries, and the post-copy verification
// gate. Every remote call is followed by the configured settle delay.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	syncerrors "github.com/yuya-takeyama/strict-mtp-sync/internal/errors"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/checksum"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// Op names a remote operation.
type Op string

const (
	OpCopy   Op = "copy"
	OpDelete Op = "delete"
	OpRead   Op = "read"
)

// Config holds the remote base location and the pacing of remote calls.
type Config struct {
	Base        string
	Retry       RetryPolicy
	Verify      VerifyPolicy
	SettleDelay time.Duration
}

// Executor runs remote operations one at a time.
type Executor struct {
	transport transport.Transport
	pacer     Pacer
	cfg       Config
	logger    *slog.Logger
}

// New returns an Executor. Zero attempt bounds fall back to the defaults.
func New(t transport.Transport, pacer Pacer, cfg Config, logger *slog.Logger) *Executor {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if cfg.Verify.MaxAttempts <= 0 {
		cfg.Verify.MaxAttempts = DefaultVerifyPolicy.MaxAttempts
	}
	return &Executor{
		transport: t,
		pacer:     pacer,
		cfg:       cfg,
		logger:    logger,
	}
}

// TransferError is returned once a remote operation exhausted its attempts
// or failed permanently.
type TransferError struct {
	Op       Op
	Name     string
	Attempts int
	Class    Class
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s) (%s): %s",
		e.Op, e.Name, e.Attempts, e.Class, transport.FailureText(e.Err))
}

func (e *TransferError) Unwrap() []error {
	return []error{syncerrors.ErrTransfer, e.Err}
}

// URI returns the remote URI of a decoded name.
func (e *Executor) URI(name string) string {
	return transport.JoinURI(e.cfg.Base, name)
}

// Settle blocks for the settle delay.
func (e *Executor) Settle(ctx context.Context) error {
	return e.pacer.Wait(ctx, e.cfg.SettleDelay)
}

// Copy transfers localPath to name under the base location.
func (e *Executor) Copy(ctx context.Context, localPath, name string) error {
	uri := e.URI(name)
	return e.run(ctx, OpCopy, name, func(ctx context.Context) error {
		return e.transport.Copy(ctx, localPath, uri)
	})
}

// Delete removes name from the base location.
func (e *Executor) Delete(ctx context.Context, name string) error {
	uri := e.URI(name)
	return e.run(ctx, OpDelete, name, func(ctx context.Context) error {
		return e.transport.Delete(ctx, uri)
	})
}

func (e *Executor) run(ctx context.Context, op Op, name string, call func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := call(ctx)
		settleErr := e.Settle(ctx)
		if err == nil {
			return nil
		}

		class := classifyError(err)
		retry, wait := e.cfg.Retry.Next(attempt, class)
		if !retry || settleErr != nil {
			return &TransferError{Op: op, Name: name, Attempts: attempt, Class: class, Err: err}
		}

		e.logger.Warn("remote operation failed, retrying",
			"op", op,
			"name", name,
			"attempt", attempt,
			"class", class,
			"wait", wait,
			"error", transport.FailureText(err),
		)
		if werr := e.pacer.Wait(ctx, wait); werr != nil {
			return &TransferError{Op: op, Name: name, Attempts: attempt, Class: Permanent, Err: werr}
		}
	}
}

// RemoteDigest fetches the full content of name and digests it. Failed reads
// are retried on the verification schedule unless they are permanent.
func (e *Executor) RemoteDigest(ctx context.Context, name string) (string, error) {
	for attempt := 1; ; attempt++ {
		digest, err := e.readDigest(ctx, name)
		if err == nil {
			return digest, nil
		}

		class := classifyError(err)
		retry, wait := e.cfg.Verify.Next(attempt)
		if !retry || class == Permanent {
			return "", &TransferError{Op: OpRead, Name: name, Attempts: attempt, Class: class, Err: err}
		}
		e.logger.Warn("remote read failed, retrying", "name", name, "attempt", attempt, "wait", wait, "error", transport.FailureText(err))
		if werr := e.pacer.Wait(ctx, wait); werr != nil {
			return "", &TransferError{Op: OpRead, Name: name, Attempts: attempt, Class: Permanent, Err: werr}
		}
	}
}

func (e *Executor) readDigest(ctx context.Context, name string) (string, error) {
	data, err := e.transport.ReadAll(ctx, e.URI(name))
	settleErr := e.Settle(ctx)
	if err != nil {
		return "", err
	}
	if settleErr != nil {
		return "", settleErr
	}
	return checksum.Bytes(data), nil
}
