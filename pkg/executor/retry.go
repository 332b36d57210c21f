package executor

import "time"

// RetryPolicy bounds the attempts of a copy or delete.
type RetryPolicy struct {
	MaxAttempts int
	// RetryDelay is the flat wait after a transient failure.
	RetryDelay time.Duration
	// CacheBusyDelay is multiplied by the attempt number after a cache-busy
	// failure.
	CacheBusyDelay time.Duration
}

// DefaultRetryPolicy matches the pace a slow MTP device tolerates.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	RetryDelay:     5 * time.Second,
	CacheBusyDelay: 10 * time.Second,
}

// Next decides what follows a failed attempt. attempt is 1-based.
func (p RetryPolicy) Next(attempt int, class Class) (retry bool, wait time.Duration) {
	if class == Permanent || attempt >= p.MaxAttempts {
		return false, 0
	}
	if class == CacheBusy {
		return true, p.CacheBusyDelay * time.Duration(attempt)
	}
	return true, p.RetryDelay
}

// VerifyPolicy bounds the re-reads of the verification gate.
type VerifyPolicy struct {
	MaxAttempts int
	// Delay is multiplied by the attempt number between re-reads.
	Delay time.Duration
}

// DefaultVerifyPolicy is used when nothing else is configured.
var DefaultVerifyPolicy = VerifyPolicy{
	MaxAttempts: 3,
	Delay:       3 * time.Second,
}

// Next decides whether another read follows a failed one.
func (p VerifyPolicy) Next(attempt int) (retry bool, wait time.Duration) {
	if attempt >= p.MaxAttempts {
		return false, 0
	}
	return true, p.Delay * time.Duration(attempt)
}
