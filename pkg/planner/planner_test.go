package planner

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncerrors "github.com/yuya-takeyama/strict-mtp-sync/internal/errors"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/checksum"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/logger"
)

type fakeDigester struct {
	digests map[string]string
	err     error
	calls   []string
}

func (d *fakeDigester) RemoteDigest(_ context.Context, name string) (string, error) {
	d.calls = append(d.calls, name)
	if d.err != nil {
		return "", d.err
	}
	return d.digests[name], nil
}

func writeFile(t *testing.T, fs afero.Fs, path string, content []byte) *LocalFile {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	f, err := Stat(fs, path)
	require.NoError(t, err)
	return f
}

func TestDecide(t *testing.T) {
	content := []byte("the magic mountain")
	sum := checksum.Bytes(content)

	tests := []struct {
		name       string
		entry      *inventory.Entry
		digests    map[string]string
		readErr    error
		want       Action
		wantReason string
		wantReads  int
	}{
		{
			name:       "new file",
			want:       ActionCopyNew,
			wantReason: "new file",
		},
		{
			name:       "size mismatch replaces without reading remote",
			entry:      &inventory.Entry{Name: "a.epub", Size: 3},
			want:       ActionReplace,
			wantReason: "size differs",
		},
		{
			name:      "identical content is skipped",
			entry:     &inventory.Entry{Name: "a.epub", Size: int64(len(content))},
			digests:   map[string]string{"a.epub": sum},
			want:      ActionSkip,
			wantReads: 1,
		},
		{
			name:       "different content is replaced",
			entry:      &inventory.Entry{Name: "a.epub", Size: int64(len(content))},
			digests:    map[string]string{"a.epub": checksum.Bytes([]byte("the magic mountaim"))},
			want:       ActionReplace,
			wantReason: "checksum differs",
			wantReads:  1,
		},
		{
			name:       "unreadable remote is replaced",
			entry:      &inventory.Entry{Name: "a.epub", Size: int64(len(content))},
			readErr:    errors.New("timeout"),
			want:       ActionReplace,
			wantReason: "remote unreadable",
			wantReads:  1,
		},
		{
			name:  "recorded checksum avoids remote read",
			entry: &inventory.Entry{Name: "a.epub", Size: int64(len(content)), Checksum: sum},
			want:  ActionSkip,
		},
		{
			name:       "recorded checksum that differs",
			entry:      &inventory.Entry{Name: "a.epub", Size: int64(len(content)), Checksum: "00"},
			want:       ActionReplace,
			wantReason: "checksum differs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			f := writeFile(t, fs, "/books/a.epub", content)

			inv := inventory.New()
			if tt.entry != nil {
				inv.Put(*tt.entry)
			}
			digester := &fakeDigester{digests: tt.digests, err: tt.readErr}

			got, err := NewPlanner(digester, logger.Null()).Decide(context.Background(), f, inv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Action)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
			assert.Len(t, digester.calls, tt.wantReads)
			assert.Equal(t, "a.epub", got.RemoteName)
			if got.Action == ActionSkip {
				assert.Equal(t, sum, got.RemoteChecksum)
			}
		})
	}
}

func TestDecideLocalReadFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := writeFile(t, fs, "/books/a.epub", []byte("12345"))
	require.NoError(t, fs.Remove("/books/a.epub"))

	inv := inventory.New()
	inv.Put(inventory.Entry{Name: "a.epub", Size: 5})
	digester := &fakeDigester{}

	_, err := NewPlanner(digester, logger.Null()).Decide(context.Background(), f, inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerrors.ErrLocalRead)
	assert.Empty(t, digester.calls)
}

func TestStat(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/books/b.pdf", make([]byte, 1200), 0o644))
	require.NoError(t, fs.MkdirAll("/books/sub.epub", 0o755))

	f, err := Stat(fs, "/books/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", f.Name)
	assert.Equal(t, int64(1200), f.Size)

	_, err = Stat(fs, "/books/missing.epub")
	assert.ErrorIs(t, err, syncerrors.ErrNotFound)

	_, err = Stat(fs, "/books/sub.epub")
	assert.ErrorIs(t, err, syncerrors.ErrNotFound)
}

func TestChecksumComputedOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := writeFile(t, fs, "/books/a.epub", []byte("first"))

	first, err := f.Checksum()
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/books/a.epub", []byte("second"), 0o644))
	again, err := f.Checksum()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, checksum.Bytes([]byte("first")), first)
}

func TestDecideUsesListedSpelling(t *testing.T) {
	const (
		listed = "B\u00fccher.epub"
		local  = "Bu\u0308cher.epub"
	)
	content := []byte("bücher")
	mfs := afero.NewMemMapFs()
	f := writeFile(t, mfs, "/books/"+local, content)

	inv := inventory.New()
	inv.Put(inventory.Entry{Name: listed, Size: int64(len(content))})
	digester := &fakeDigester{digests: map[string]string{listed: checksum.Bytes(content)}}

	got, err := NewPlanner(digester, logger.Null()).Decide(context.Background(), f, inv)
	require.NoError(t, err)
	assert.Equal(t, ActionSkip, got.Action)
	assert.Equal(t, listed, got.RemoteName)
	assert.Equal(t, []string{listed}, digester.calls)
}

// lockedFs reports metadata for every file but refuses to open any.
type lockedFs struct {
	afero.Fs
}

func (lockedFs) Open(name string) (afero.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestStatUnreadableFile(t *testing.T) {
	mfs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mfs, "/books/a.epub", []byte("12345"), 0o644))

	_, err := Stat(lockedFs{Fs: mfs}, "/books/a.epub")
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerrors.ErrLocalRead)
	assert.ErrorIs(t, err, fs.ErrPermission)
}
