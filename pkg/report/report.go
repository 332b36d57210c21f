// Package report accumulates per-file outcomes of a run into a summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// Kind is the final outcome of one local file.
type Kind string

const (
	KindSkipped  Kind = "skipped"
	KindCopied   Kind = "copied"
	KindReplaced Kind = "replaced"
	KindFailed   Kind = "failed"
)

// Outcome of one file. Index is the position of the file in the supplied
// candidate list, independent of processing order.
type Outcome struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason,omitempty"`
	Size   int64  `json:"size"`
}

type Counts struct {
	Copied   int `json:"copied"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Summary of a run.
type Summary struct {
	DryRun      bool      `json:"dryRun"`
	Counts      Counts    `json:"summary"`
	FailedPaths []string  `json:"failedPaths"`
	Files       []Outcome `json:"files"`
	// Bytes is the total size of copied and replaced files.
	Bytes uint64 `json:"bytes"`
}

// Record adds o to the summary.
func (s *Summary) Record(o Outcome) {
	switch o.Kind {
	case KindCopied:
		s.Counts.Copied++
		s.Bytes += uint64(o.Size)
	case KindReplaced:
		s.Counts.Replaced++
		s.Bytes += uint64(o.Size)
	case KindSkipped:
		s.Counts.Skipped++
	case KindFailed:
		s.Counts.Failed++
	}
	s.Files = append(s.Files, o)
}

// Finalize orders outcomes by input position and collects the failed paths.
func (s *Summary) Finalize() {
	sort.SliceStable(s.Files, func(i, j int) bool {
		return s.Files[i].Index < s.Files[j].Index
	})
	s.FailedPaths = []string{}
	for _, o := range s.Files {
		if o.Kind == KindFailed {
			s.FailedPaths = append(s.FailedPaths, o.Path)
		}
	}
}

// Total returns the number of recorded outcomes.
func (s *Summary) Total() int {
	return len(s.Files)
}

// Print writes the human-readable run summary.
func (s *Summary) Print(w io.Writer) error {
	prefix := ""
	if s.DryRun {
		prefix = "(dryrun) "
	}
	if _, err := fmt.Fprintf(w, "%sFinished: %d new, %d replaced, %d skipped, %d failed (%s transferred)\n",
		prefix, s.Counts.Copied, s.Counts.Replaced, s.Counts.Skipped, s.Counts.Failed,
		humanize.IBytes(s.Bytes)); err != nil {
		return err
	}
	if len(s.FailedPaths) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Failed files:"); err != nil {
		return err
	}
	for _, o := range s.Files {
		if o.Kind != KindFailed {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", o.Path, o.Reason); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the summary to path as indented JSON.
func (s *Summary) WriteJSON(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
