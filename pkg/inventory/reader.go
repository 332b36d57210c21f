package inventory

import (
	"context"
	"fmt"
	"log/slog"

	syncerrors "github.com/yuya-takeyama/strict-mtp-sync/internal/errors"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// Reader builds the inventory of a remote base location.
type Reader struct {
	transport transport.Transport
	parser    Parser
	logger    *slog.Logger
}

// NewReader returns a Reader listing through t.
func NewReader(t transport.Transport, parser Parser, logger *slog.Logger) *Reader {
	return &Reader{
		transport: t,
		parser:    parser,
		logger:    logger,
	}
}

// Read lists base once and parses the result. It fails only when the listing
// call itself fails; the error then wraps ErrRemoteUnavailable.
func (r *Reader) Read(ctx context.Context, base string) (*Inventory, ParseStats, error) {
	raw, err := r.transport.List(ctx, base)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("list %s: %w: %w", base, syncerrors.ErrRemoteUnavailable, err)
	}

	inv, stats := r.parser.Parse(raw)
	for _, skipped := range stats.Skipped {
		r.logger.Warn("unexpected listing line", "line", skipped.Number, "text", skipped.Line)
	}
	r.logger.Debug("remote listing parsed",
		"base", base,
		"entries", inv.Len(),
		"skipped", len(stats.Skipped),
		"ignored", stats.Ignored,
	)

	return inv, stats, nil
}
