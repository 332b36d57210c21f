package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURI(t *testing.T) {
	tests := []struct {
		name string
		base string
		file string
		want string
	}{
		{
			name: "base with trailing slash",
			base: "mtp://tolino/Books/",
			file: "a.epub",
			want: "mtp://tolino/Books/a.epub",
		},
		{
			name: "base without trailing slash",
			base: "mtp://tolino/Books",
			file: "a.epub",
			want: "mtp://tolino/Books/a.epub",
		},
		{
			name: "spaces and umlauts are escaped",
			base: "mtp://tolino/Books/",
			file: "Der Zauberberg - Mann, Thomas.epub",
			want: "mtp://tolino/Books/Der%20Zauberberg%20-%20Mann%2C%20Thomas.epub",
		},
		{
			name: "non-ascii name",
			base: "mtp://tolino/Books/",
			file: "Müller.pdf",
			want: "mtp://tolino/Books/M%C3%BCller.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinURI(tt.base, tt.file))
		})
	}
}

func TestEncodeDecodeName(t *testing.T) {
	for _, name := range []string{"a.epub", "Der Zauberberg.epub", "50% off?.pdf", "Müller & Söhne.pdf"} {
		decoded, err := DecodeName(EncodeName(name))
		require.NoError(t, err)
		assert.Equal(t, name, decoded)
	}
}

func TestNameFromURI(t *testing.T) {
	name, err := NameFromURI("s3://bucket/books/Der%20Zauberberg.epub")
	require.NoError(t, err)
	assert.Equal(t, "Der Zauberberg.epub", name)

	_, err = NameFromURI("s3://bucket/books/")
	assert.Error(t, err)
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "", FailureText(nil))

	err := &CommandError{Op: "copy", Target: "mtp://x/a.epub", ExitCode: 1, Stderr: "Error: Failed to get object to cache"}
	assert.Equal(t, "Error: Failed to get object to cache", FailureText(err))
	assert.Contains(t, err.Error(), "exit status 1")

	plain := errors.New("connection reset")
	assert.Equal(t, "connection reset", FailureText(plain))

	cause := errors.New("executable file not found")
	withCause := &CommandError{Op: "list", Target: "mtp://x/", Err: cause}
	assert.ErrorIs(t, withCause, cause)
	assert.Equal(t, withCause.Error(), FailureText(withCause))
}
