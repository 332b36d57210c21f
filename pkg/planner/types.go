package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	syncerrors "github.com/yuya-takeyama/strict-mtp-sync/internal/errors"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/checksum"
)

// Action is what the engine does with one local file.
type Action string

const (
	ActionSkip    Action = "skip"
	ActionCopyNew Action = "copy-new"
	ActionReplace Action = "delete-then-replace"
)

// Decision is the planned action for one local file.
type Decision struct {
	Action Action
	Reason string
	// RemoteName is the name every remote operation uses: the listed
	// spelling when the inventory has the file, the local name otherwise.
	RemoteName string
	// RemoteChecksum is set when the remote content was digested and matched.
	RemoteChecksum string
}

// LocalFile is a candidate file of the run. Its checksum is computed at most
// once.
type LocalFile struct {
	Path string
	Name string
	Size int64

	fs       afero.Fs
	once     sync.Once
	checksum string
	err      error
}

// Stat reads the metadata of path and checks that the file can be opened, so
// that an unreadable file fails before any remote operation. Anything that is
// not a regular file is reported as not found.
func Stat(fsys afero.Fs, path string) (*LocalFile, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, syncerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w: %w", path, syncerrors.ErrLocalRead, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", path, syncerrors.ErrNotFound)
	}
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, syncerrors.ErrLocalRead, err)
	}
	file.Close()

	return &LocalFile{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		fs:   fsys,
	}, nil
}

// Checksum returns the content digest, reading the file on first use.
func (f *LocalFile) Checksum() (string, error) {
	f.once.Do(func() {
		sum, err := checksum.File(f.fs, f.Path)
		if err != nil {
			f.err = fmt.Errorf("checksum %s: %w: %w", f.Path, syncerrors.ErrLocalRead, err)
			return
		}
		f.checksum = sum
	})
	return f.checksum, f.err
}
