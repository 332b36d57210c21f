package executor

import (
	"context"
	"errors"
	"strings"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// Class is the retry category of a failed remote operation.
type Class int

const (
	// Permanent failures are not retried.
	Permanent Class = iota
	// Transient failures are retried after a flat delay.
	Transient
	// CacheBusy means the remote staging cache was not ready. Retries back off
	// linearly with the attempt number.
	CacheBusy
)

func (c Class) String() string {
	switch c {
	case Permanent:
		return "permanent"
	case Transient:
		return "transient"
	case CacheBusy:
		return "cache-busy"
	default:
		return "unknown"
	}
}

var cacheBusySignatures = []string{
	"object to cache",
	"failed to cache",
	"resource busy",
	"device busy",
	// S3 throttling
	"slowdown",
	"serviceunavailable",
}

var permanentSignatures = []string{
	"no such file or directory",
	"permission denied",
	"not supported",
	"no space left",
	"read-only file system",
	"is a directory",
	// S3 error codes
	"accessdenied",
	"nosuchbucket",
	"invalidbucketname",
}

// Classify maps the failure text of a remote operation to a Class. Cache
// signatures are checked first.
func Classify(text string) Class {
	lower := strings.ToLower(text)
	for _, sig := range cacheBusySignatures {
		if strings.Contains(lower, sig) {
			return CacheBusy
		}
	}
	for _, sig := range permanentSignatures {
		if strings.Contains(lower, sig) {
			return Permanent
		}
	}
	return Transient
}

func classifyError(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Permanent
	}
	return Classify(transport.FailureText(err))
}
