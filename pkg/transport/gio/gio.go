// Package gio reaches the remote target through the GIO command line tool,
// which exposes MTP devices as mtp:// locations.
package gio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// Runner executes a command and returns what it wrote.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// ExecRunner runs real processes. A non-zero exit is reported through
// exitCode with a nil error.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
	}
	return stdout.Bytes(), stderr.Bytes(), 0, err
}

type Options struct {
	// Binary is the gio executable. Defaults to "gio".
	Binary string
	// OverwriteDelete deletes by copying an empty file over the remote name,
	// for devices that reject `gio remove`.
	OverwriteDelete bool
	// TempFs holds the empty file of an overwrite delete. Defaults to the OS
	// filesystem since gio reads it from disk.
	TempFs afero.Fs
}

// Transport implements transport.Transport with gio.
type Transport struct {
	runner Runner
	opts   Options
}

var _ transport.Transport = (*Transport)(nil)

func New(runner Runner, opts Options) *Transport {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Binary == "" {
		opts.Binary = "gio"
	}
	if opts.TempFs == nil {
		opts.TempFs = afero.NewOsFs()
	}
	return &Transport{runner: runner, opts: opts}
}

func (t *Transport) run(ctx context.Context, op, target string, args ...string) ([]byte, error) {
	stdout, stderr, code, err := t.runner.Run(ctx, t.opts.Binary, args...)
	if err != nil {
		return nil, &transport.CommandError{Op: op, Target: target, Err: err}
	}
	if code != 0 {
		return nil, &transport.CommandError{
			Op:       op,
			Target:   target,
			ExitCode: code,
			Stderr:   strings.TrimSpace(string(stderr)),
		}
	}
	return stdout, nil
}

// List runs `gio list -l`, which prints "name<TAB>size<TAB>(type)" lines.
func (t *Transport) List(ctx context.Context, base string) (string, error) {
	out, err := t.run(ctx, "list", base, "list", "-l", base)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Transport) Copy(ctx context.Context, localPath, remoteURI string) error {
	_, err := t.run(ctx, "copy", remoteURI, "copy", localPath, remoteURI)
	return err
}

func (t *Transport) Delete(ctx context.Context, remoteURI string) error {
	if t.opts.OverwriteDelete {
		return t.overwriteDelete(ctx, remoteURI)
	}
	_, err := t.run(ctx, "delete", remoteURI, "remove", remoteURI)
	return err
}

func (t *Transport) overwriteDelete(ctx context.Context, remoteURI string) error {
	tmp, err := afero.TempFile(t.opts.TempFs, "", "strict-mtp-sync-*"+path.Ext(remoteURI))
	if err != nil {
		return fmt.Errorf("create empty file: %w", err)
	}
	name := tmp.Name()
	defer t.opts.TempFs.Remove(name)
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close empty file: %w", err)
	}

	_, err = t.run(ctx, "delete", remoteURI, "copy", name, remoteURI)
	return err
}

// ReadAll runs `gio cat`.
func (t *Transport) ReadAll(ctx context.Context, remoteURI string) ([]byte, error) {
	return t.run(ctx, "read", remoteURI, "cat", remoteURI)
}
