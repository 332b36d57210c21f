// Package transport defines the contract of the external transfer mechanism
// that reaches the remote target. Implementations live in subpackages.
package transport

//go:generate mockgen -destination=mock_transport.go -package=transport . Transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Transport is the external transfer mechanism. Every call is opaque and may
// be slow or flaky. A nil error only means the mechanism believes the
// operation completed.
type Transport interface {
	// List returns the raw listing of base, one line per remote entry.
	List(ctx context.Context, base string) (string, error)
	// Copy transfers the local file to remoteURI.
	Copy(ctx context.Context, localPath, remoteURI string) error
	// Delete removes remoteURI.
	Delete(ctx context.Context, remoteURI string) error
	// ReadAll fetches the full content of remoteURI.
	ReadAll(ctx context.Context, remoteURI string) ([]byte, error)
}

// CommandError describes a failed invocation of the transfer mechanism.
type CommandError struct {
	Op       string
	Target   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := e.Stderr
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s %s: exit status %d: %s", e.Op, e.Target, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Target, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// FailureText returns the text that best describes err for classification:
// the captured stderr of a CommandError, otherwise the error message.
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		return cmdErr.Stderr
	}
	return err.Error()
}

// EncodeName percent-encodes a decoded remote name for use in a URI.
func EncodeName(name string) string {
	return url.PathEscape(name)
}

// DecodeName reverses EncodeName on a name read back from a listing.
func DecodeName(encoded string) (string, error) {
	return url.PathUnescape(encoded)
}

// JoinURI forms the remote URI of a decoded name under base.
func JoinURI(base, name string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + EncodeName(name)
}

// NameFromURI extracts and decodes the last path element of a remote URI.
func NameFromURI(remoteURI string) (string, error) {
	idx := strings.LastIndex(remoteURI, "/")
	if idx < 0 || idx == len(remoteURI)-1 {
		return "", fmt.Errorf("no file name in remote URI %q", remoteURI)
	}
	return DecodeName(remoteURI[idx+1:])
}
