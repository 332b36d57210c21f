// Package engine runs one reconciliation pass of local files against the
// remote target.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/planner"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/report"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// Config is everything a run needs besides its collaborators.
type Config struct {
	Executor executor.Config
	// Include is the allow-list applied to listed remote names.
	Include []string
	// Verify enables the post-copy verification gate.
	Verify    bool
	DryRun    bool
	Randomize bool
	// Rand drives the randomised order. A nil Rand uses a random seed.
	Rand *rand.Rand
}

// Engine owns the remote inventory of a run.
type Engine struct {
	fs      afero.Fs
	reader  *inventory.Reader
	exec    *executor.Executor
	planner *planner.Planner
	cfg     Config
	logger  *slog.Logger
}

func New(t transport.Transport, fs afero.Fs, pacer executor.Pacer, cfg Config, logger *slog.Logger) *Engine {
	exec := executor.New(t, pacer, cfg.Executor, logger)
	return &Engine{
		fs:      fs,
		reader:  inventory.NewReader(t, inventory.Parser{Include: cfg.Include}, logger),
		exec:    exec,
		planner: planner.NewPlanner(exec, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// fileRun is the state of one candidate while it is processed.
type fileRun struct {
	index    int
	path     string
	local    *planner.LocalFile
	decision planner.Decision
	state    State
	err      error
}

// Run reconciles paths against the remote. When the remote cannot be listed
// no file is processed and an empty summary is returned with the error.
func (e *Engine) Run(ctx context.Context, paths []string) (*report.Summary, error) {
	summary := &report.Summary{DryRun: e.cfg.DryRun}

	inv, stats, err := e.reader.Read(ctx, e.cfg.Executor.Base)
	if err != nil {
		summary.Finalize()
		return summary, err
	}
	if err := e.exec.Settle(ctx); err != nil {
		summary.Finalize()
		return summary, err
	}
	e.logger.Info("remote inventory loaded",
		"base", e.cfg.Executor.Base,
		"entries", inv.Len(),
		"skipped", len(stats.Skipped),
	)

	var rng *rand.Rand
	if e.cfg.Randomize {
		rng = e.cfg.Rand
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}

	dups := duplicateNames(paths)
	order := planner.Order(len(paths), rng)
	for i, idx := range order {
		e.logger.Info("processing", "progress", fmt.Sprintf("%d/%d", i+1, len(order)), "path", paths[idx])
		if first, ok := dups[idx]; ok {
			summary.Record(e.duplicate(idx, paths[idx], first))
			continue
		}
		summary.Record(e.process(ctx, inv, idx, paths[idx]))
	}

	summary.Finalize()
	return summary, nil
}

// duplicateNames maps the index of every path whose remote name was already
// taken by an earlier path to that earlier path.
func duplicateNames(paths []string) map[int]string {
	first := make(map[string]string, len(paths))
	dups := make(map[int]string)
	for i, path := range paths {
		k := inventory.Key(filepath.Base(path))
		if prev, ok := first[k]; ok {
			dups[i] = prev
			continue
		}
		first[k] = path
	}
	return dups
}

func (e *Engine) duplicate(index int, path, first string) report.Outcome {
	e.logger.Error("failed", "path", path, "error", "duplicate remote name", "first", first)
	return report.Outcome{
		Index:  index,
		Path:   path,
		Name:   filepath.Base(path),
		Kind:   report.KindFailed,
		Reason: fmt.Sprintf("duplicate remote name, already used by %s", first),
	}
}

func (e *Engine) process(ctx context.Context, inv *inventory.Inventory, index int, path string) report.Outcome {
	run := &fileRun{index: index, path: path, state: StatePlanned}
	verify := e.cfg.Verify && !e.cfg.DryRun

	run.err = e.plan(ctx, run, inv)
	var op executor.Op
	run.state, op = advance(StatePlanned, run.decision.Action, verify, run.err)
	for !run.state.Terminal() {
		run.err = e.perform(ctx, run, inv, op)
		run.state, op = advance(run.state, run.decision.Action, verify, run.err)
	}
	return e.outcome(run)
}

func (e *Engine) plan(ctx context.Context, run *fileRun, inv *inventory.Inventory) error {
	local, err := planner.Stat(e.fs, run.path)
	if err != nil {
		return err
	}
	run.local = local

	decision, err := e.planner.Decide(ctx, local, inv)
	if err != nil {
		return err
	}
	run.decision = decision
	if decision.Action == planner.ActionSkip && decision.RemoteChecksum != "" {
		inv.Put(inventory.Entry{Name: decision.RemoteName, Size: local.Size, Checksum: decision.RemoteChecksum})
	}
	return nil
}

// perform runs op for run and applies its effect to inv.
func (e *Engine) perform(ctx context.Context, run *fileRun, inv *inventory.Inventory, op executor.Op) error {
	name := run.decision.RemoteName
	switch op {
	case executor.OpDelete:
		if e.cfg.DryRun {
			e.logger.Info("(dryrun) delete", "name", name, "reason", run.decision.Reason)
			return nil
		}
		e.logger.Info("delete", "name", name, "reason", run.decision.Reason)
		if err := e.exec.Delete(ctx, name); err != nil {
			return err
		}
		inv.Remove(name)
		return nil

	case executor.OpCopy:
		if e.cfg.DryRun {
			e.logger.Info("(dryrun) copy", "path", run.path, "name", name)
			return nil
		}
		e.logger.Info("copy", "path", run.path, "name", name, "size", humanize.IBytes(uint64(run.local.Size)))
		if err := e.exec.Copy(ctx, run.path, name); err != nil {
			return err
		}
		if !e.cfg.Verify {
			inv.Put(inventory.Entry{Name: name, Size: run.local.Size})
		}
		return nil

	case executor.OpRead:
		expected, err := run.local.Checksum()
		if err != nil {
			return err
		}
		if err := e.exec.Verify(ctx, name, expected); err != nil {
			return err
		}
		e.logger.Debug("verified", "name", name, "checksum", expected)
		inv.Put(inventory.Entry{Name: name, Size: run.local.Size, Checksum: expected})
		return nil
	}
	return fmt.Errorf("unexpected operation %q in state %s", op, run.state)
}

func (e *Engine) outcome(run *fileRun) report.Outcome {
	o := report.Outcome{Index: run.index, Path: run.path}
	if run.local != nil {
		o.Name = run.local.Name
		o.Size = run.local.Size
	}
	if run.decision.RemoteName != "" {
		o.Name = run.decision.RemoteName
	}

	if run.state == StateFailed {
		o.Kind = report.KindFailed
		o.Reason = run.err.Error()
		e.logger.Error("failed", "path", run.path, "error", run.err)
		return o
	}

	o.Reason = run.decision.Reason
	switch run.decision.Action {
	case planner.ActionCopyNew:
		o.Kind = report.KindCopied
	case planner.ActionReplace:
		o.Kind = report.KindReplaced
	default:
		o.Kind = report.KindSkipped
		e.logger.Info("skip", "path", run.path, "reason", run.decision.Reason)
	}
	return o
}
