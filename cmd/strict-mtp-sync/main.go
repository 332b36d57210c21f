package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-mtp-sync/internal/config"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/engine"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/scanner"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport/gio"
	s3transport "github.com/yuya-takeyama/strict-mtp-sync/pkg/transport/s3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg, newTransport).Execute(); err != nil {
		os.Exit(1)
	}
}

// transportFactory builds the transfer mechanism of the configured backend.
type transportFactory func(ctx context.Context, cfg *config.Config) (transport.Transport, error)

func newRootCmd(cfg *config.Config, factory transportFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strict-mtp-sync <LocalDir> [RemoteURI]",
		Short: "One-way document sync to slow MTP devices with checksum verification",
		Long: `strict-mtp-sync copies documents from a local directory to a remote target
such as an e-reader reachable through gio. Files whose remote copy differs are
deleted and copied again, and every copy is verified by reading it back.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				cfg.Remote = args[1]
			}
			return runSync(cmd.Context(), cfg, factory, afero.NewOsFs(), args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "Transfer backend: gio or s3")
	flags.StringVar(&cfg.GioBinary, "gio-binary", cfg.GioBinary, "Path to the gio executable")
	flags.BoolVar(&cfg.OverwriteDelete, "overwrite-delete", cfg.OverwriteDelete, "Delete by copying an empty file over the remote name")
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile, "AWS profile to use")
	flags.StringVar(&cfg.Region, "region", cfg.Region, "AWS region (uses default if not specified)")
	flags.StringSliceVar(&cfg.Include, "include", cfg.Include, "Include patterns matched against file names (multiple allowed)")
	flags.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress non-error output")
	flags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Show debug output")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")

	syncFlags := rootCmd.Flags()
	syncFlags.StringSliceVar(&cfg.Exclude, "exclude", cfg.Exclude, "Exclude patterns matched against relative paths (multiple allowed)")
	syncFlags.BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "Descend into subdirectories")
	syncFlags.BoolVar(&cfg.Randomize, "randomize", cfg.Randomize, "Process files in random order")
	syncFlags.IntVar(&cfg.Retries, "retries", cfg.Retries, "Attempts per copy or delete")
	syncFlags.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Wait after a failed copy or delete")
	syncFlags.DurationVar(&cfg.CacheBusyDelay, "cache-busy-delay", cfg.CacheBusyDelay, "Wait unit after a cache-busy failure, multiplied by the attempt")
	syncFlags.DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "Pause after every remote operation")
	syncFlags.IntVar(&cfg.VerifyRetries, "verify-retries", cfg.VerifyRetries, "Reads of the verification gate")
	syncFlags.DurationVar(&cfg.VerifyDelay, "verify-delay", cfg.VerifyDelay, "Wait unit between verification reads, multiplied by the attempt")
	syncFlags.BoolVar(&cfg.NoVerify, "no-verify", cfg.NoVerify, "Skip reading copies back")
	syncFlags.BoolVar(&cfg.DryRun, "dryrun", cfg.DryRun, "Shows operations without executing")
	syncFlags.StringVar(&cfg.ResultJSONFile, "result-json-file", cfg.ResultJSONFile, "Path to output result as JSON file")

	rootCmd.AddCommand(newListCmd(cfg, factory))
	return rootCmd
}

func newTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	switch cfg.Backend {
	case config.BackendS3:
		var configOpts []func(*awsconfig.LoadOptions) error
		if cfg.Profile != "" {
			configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
		}
		if cfg.Region != "" {
			configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return s3transport.NewFromConfig(awsCfg), nil
	default:
		return gio.New(gio.ExecRunner{}, gio.Options{
			Binary:          cfg.GioBinary,
			OverwriteDelete: cfg.OverwriteDelete,
		}), nil
	}
}

func setup(ctx context.Context, cfg *config.Config, factory transportFactory, stderr io.Writer) (transport.Transport, *slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(stderr, cfg.LoggerOptions())
	if err != nil {
		return nil, nil, err
	}
	t, err := factory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return t, log, nil
}

func runSync(ctx context.Context, cfg *config.Config, factory transportFactory, fs afero.Fs, localDir string, stdout, stderr io.Writer) error {
	t, log, err := setup(ctx, cfg, factory, stderr)
	if err != nil {
		return err
	}

	files, err := scanner.Scan(fs, localDir, scanner.Options{
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
		Recursive: cfg.Recursive,
	})
	if err != nil {
		return fmt.Errorf("failed to gather local files: %w", err)
	}
	log.Info("local files found", "dir", localDir, "count", len(files))

	pacer := executor.NewClockPacer(clockwork.NewRealClock())
	summary, err := engine.New(t, fs, pacer, cfg.EngineConfig(), log).Run(ctx, files)
	if err != nil {
		return fmt.Errorf("cannot proceed without remote state: %w", err)
	}

	if err := summary.Print(stdout); err != nil {
		return err
	}
	if cfg.ResultJSONFile != "" {
		if err := summary.WriteJSON(fs, cfg.ResultJSONFile); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if summary.Counts.Failed > 0 {
		return fmt.Errorf("%d files failed", summary.Counts.Failed)
	}
	return nil
}
