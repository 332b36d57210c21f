package engine

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// fakeRemote is an in-memory remote target. Files are keyed by decoded name.
type fakeRemote struct {
	local     afero.Fs
	files     map[string][]byte
	listErr   error
	deleteErr error
	// corrupt makes copies land with one byte flipped.
	corrupt bool
	calls   []string
}

func newFakeRemote(local afero.Fs) *fakeRemote {
	return &fakeRemote{local: local, files: map[string][]byte{}}
}

func (r *fakeRemote) List(_ context.Context, base string) (string, error) {
	r.calls = append(r.calls, "list")
	if r.listErr != nil {
		return "", &transport.CommandError{Op: "list", Target: base, ExitCode: 2, Stderr: r.listErr.Error()}
	}
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s\t%d\tregular\n", transport.EncodeName(name), len(r.files[name]))
	}
	return b.String(), nil
}

func (r *fakeRemote) Copy(_ context.Context, localPath, remoteURI string) error {
	name, err := transport.NameFromURI(remoteURI)
	if err != nil {
		return err
	}
	r.calls = append(r.calls, "copy "+name)
	data, err := afero.ReadFile(r.local, localPath)
	if err != nil {
		return &transport.CommandError{Op: "copy", Target: remoteURI, ExitCode: 1, Stderr: "No such file or directory"}
	}
	if r.corrupt && len(data) > 0 {
		data = bytes.Clone(data)
		data[0] ^= 0xff
	}
	r.files[name] = data
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, remoteURI string) error {
	name, err := transport.NameFromURI(remoteURI)
	if err != nil {
		return err
	}
	r.calls = append(r.calls, "delete "+name)
	if r.deleteErr != nil {
		return &transport.CommandError{Op: "delete", Target: remoteURI, ExitCode: 1, Stderr: r.deleteErr.Error()}
	}
	delete(r.files, name)
	return nil
}

func (r *fakeRemote) ReadAll(_ context.Context, remoteURI string) ([]byte, error) {
	name, err := transport.NameFromURI(remoteURI)
	if err != nil {
		return nil, err
	}
	r.calls = append(r.calls, "read "+name)
	data, ok := r.files[name]
	if !ok {
		return nil, &transport.CommandError{Op: "read", Target: remoteURI, ExitCode: 1, Stderr: "No such file or directory"}
	}
	return bytes.Clone(data), nil
}

// callsMatching returns the recorded calls starting with prefix.
func (r *fakeRemote) callsMatching(prefix string) []string {
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

type nopPacer struct{}

func (nopPacer) Wait(context.Context, time.Duration) error { return nil }

// recordingPacer returns immediately and remembers every requested wait.
type recordingPacer struct {
	waits []time.Duration
}

func (p *recordingPacer) Wait(_ context.Context, d time.Duration) error {
	p.waits = append(p.waits, d)
	return nil
}

// unreadableFs refuses to open one path while still reporting its metadata.
type unreadableFs struct {
	afero.Fs
	path string
}

func (u unreadableFs) Open(name string) (afero.File, error) {
	if name == u.path {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return u.Fs.Open(name)
}

func (u unreadableFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == u.path {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return u.Fs.OpenFile(name, flag, perm)
}
