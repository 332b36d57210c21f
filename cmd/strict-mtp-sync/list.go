package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-mtp-sync/internal/config"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
)

func newListCmd(cfg *config.Config, factory transportFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list [RemoteURI]",
		Short: "Show the remote inventory as the sync sees it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.Remote = args[0]
			}
			return runList(cmd.Context(), cfg, factory, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runList(ctx context.Context, cfg *config.Config, factory transportFactory, stdout, stderr io.Writer) error {
	t, log, err := setup(ctx, cfg, factory, stderr)
	if err != nil {
		return err
	}

	inv, stats, err := inventory.NewReader(t, inventory.Parser{Include: cfg.Include}, log).Read(ctx, cfg.Remote)
	if err != nil {
		return err
	}

	for _, e := range inv.Entries() {
		fmt.Fprintf(stdout, "%s\t%s\n", e.Name, humanize.IBytes(uint64(e.Size)))
	}
	for _, s := range stats.Skipped {
		fmt.Fprintf(stdout, "malformed line %d: %q\n", s.Number, s.Line)
	}
	fmt.Fprintf(stdout, "%d files, %d lines parsed, %d malformed, %d filtered\n",
		inv.Len(), stats.Parsed, len(stats.Skipped), stats.Ignored)
	return nil
}
