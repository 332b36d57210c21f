package errors

import "errors"

// Run-level errors. A run cannot proceed past these.
var (
	ErrRemoteUnavailable = errors.New("remote inventory unavailable")
)

// File-level errors. They fail a single file and the run continues.
var (
	ErrNotFound     = errors.New("local file not found")
	ErrLocalRead    = errors.New("local file unreadable")
	ErrTransfer     = errors.New("transfer failed")
	ErrVerification = errors.New("verification failed")
)
