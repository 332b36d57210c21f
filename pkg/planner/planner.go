// Package planner decides, per local file, whether the remote copy is kept,
// written fresh or replaced.
package planner

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/checksum"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
)

// RemoteDigester fetches and digests remote content.
type RemoteDigester interface {
	RemoteDigest(ctx context.Context, name string) (string, error)
}

// Planner turns a local file and the remote inventory into a Decision.
type Planner struct {
	digester RemoteDigester
	logger   *slog.Logger
}

// NewPlanner returns a Planner that reads remote content through digester.
func NewPlanner(digester RemoteDigester, logger *slog.Logger) *Planner {
	return &Planner{
		digester: digester,
		logger:   logger,
	}
}

// Decide plans the action for f against inv. Only a failure to read the
// local file is returned as an error. An inventory checksum recorded earlier
// in the run is trusted instead of reading the remote again.
//
// The remote may spell a name in another Unicode normal form than the local
// file. Every remote operation for f then targets the listed spelling.
func (p *Planner) Decide(ctx context.Context, f *LocalFile, inv *inventory.Inventory) (Decision, error) {
	entry, found := inv.Get(f.Name)
	name := f.Name
	if found {
		name = entry.Name
	}

	switch Compare(f.Size, entry, found) {
	case CompareNew:
		return Decision{Action: ActionCopyNew, Reason: "new file", RemoteName: name}, nil
	case CompareSizeMismatch:
		p.logger.Debug("size differs",
			"name", name,
			"local", humanize.IBytes(uint64(f.Size)),
			"remote", humanize.IBytes(uint64(entry.Size)),
		)
		return Decision{Action: ActionReplace, Reason: "size differs", RemoteName: name}, nil
	}

	local, err := f.Checksum()
	if err != nil {
		return Decision{}, err
	}

	remote := entry.Checksum
	if remote == "" {
		remote, err = p.digester.RemoteDigest(ctx, name)
		if err != nil {
			p.logger.Warn("remote unreadable, replacing", "name", name, "error", err)
			return Decision{Action: ActionReplace, Reason: "remote unreadable", RemoteName: name}, nil
		}
	}

	if !checksum.Equal(local, remote) {
		p.logger.Debug("checksum differs", "name", name, "local", local, "remote", remote)
		return Decision{Action: ActionReplace, Reason: "checksum differs", RemoteName: name}, nil
	}
	return Decision{Action: ActionSkip, Reason: "identical", RemoteName: name, RemoteChecksum: remote}, nil
}
