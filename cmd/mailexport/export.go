package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mailexport/pkg/artifact"
	"mailexport/pkg/auth"
	"mailexport/pkg/checkpoint"
	"mailexport/pkg/config"
	"mailexport/pkg/export"
	"mailexport/pkg/filter"
	"mailexport/pkg/logger"
	"mailexport/pkg/mailbox"
	"mailexport/pkg/ratelimit"
	"mailexport/pkg/retry"
	"mailexport/pkg/ui"
)

var (
	// Filter flags
	filterUnread bool
	filterAll    bool
	filterRecent int
	filterFolder string
	filterSearch string

	// Run flags
	countLimit  int
	resumeRun   bool
	freshRun    bool
	startFrom   int
	dryRun      bool
	outputDir   string
	accountName string
	pageSize    int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching messages to context files",
	Long: `Export messages matching a filter to structured JSON context files.

Exactly one filter may be given; without one, unread messages are
exported. Progress is checkpointed per (account, filter) pair after
every message, so an interrupted run picks up where it left off and
never writes the same message twice.`,
	Example: `  # Export unread messages
  mailexport export

  # Export the last week's messages from a named account
  mailexport export --recent 7 --account work

  # Export up to 50 messages from the Sent folder
  mailexport export --folder sent --count 50

  # See what a search would export, without writing anything
  mailexport export --search "invoice" --dry-run

  # Discard prior progress and start over
  mailexport export --all --fresh`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&filterUnread, "unread", false, "export unread messages (default)")
	exportCmd.Flags().BoolVar(&filterAll, "all", false, "export all messages")
	exportCmd.Flags().IntVar(&filterRecent, "recent", 0, "export messages from the last N days")
	exportCmd.Flags().StringVar(&filterFolder, "folder", "", "export messages from a folder (inbox, sent, spam, trash, starred, or a raw mailbox name)")
	exportCmd.Flags().StringVar(&filterSearch, "search", "", "export messages matching a text query")

	exportCmd.Flags().IntVarP(&countLimit, "count", "n", 0, "stop after N messages (0 = unlimited)")
	exportCmd.Flags().BoolVar(&resumeRun, "resume", true, "continue from the stored checkpoint")
	exportCmd.Flags().BoolVar(&freshRun, "fresh", false, "discard any stored checkpoint and start over")
	exportCmd.Flags().IntVar(&startFrom, "start-from", 0, "ignore the stored cursor and begin at message N (1-based)")
	exportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "enumerate and count without writing artifacts or checkpoints")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for context files")
	exportCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	exportCmd.Flags().IntVar(&pageSize, "page-size", 0, "messages fetched per page")
}

// buildFilter translates the filter flags into a filter spec
func buildFilter() (filter.Spec, error) {
	var specs []filter.Spec
	if filterUnread {
		specs = append(specs, filter.Unread())
	}
	if filterAll {
		specs = append(specs, filter.All(0))
	}
	if filterRecent > 0 {
		specs = append(specs, filter.Recent(filterRecent))
	}
	if filterFolder != "" {
		specs = append(specs, filter.Folder(filterFolder))
	}
	if filterSearch != "" {
		specs = append(specs, filter.Search(filterSearch))
	}

	switch len(specs) {
	case 0:
		return filter.Unread(), nil
	case 1:
		return specs[0], nil
	default:
		return filter.Spec{}, fmt.Errorf("only one filter may be given")
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	spec, err := buildFilter()
	if err != nil {
		return err
	}

	if freshRun && startFrom > 0 {
		return fmt.Errorf("--fresh and --start-from are mutually exclusive")
	}

	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if pageSize > 0 {
		flags["page-size"] = pageSize
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Init(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}
	log := logger.GetLogger()

	account, err := resolveAccount(accountName)
	if err != nil {
		ui.PrintError("No usable account", err.Error())
		return err
	}

	server := cfg.Server
	if account.Host != "" {
		server.Host = account.Host
		server.Port = account.Port
		server.UseTLS = account.UseTLS
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.CommandsPerMinute, time.Minute)
	retryCfg := retryConfigFrom(cfg)

	client := mailbox.NewClient(server, account.Username, account.Password, limiter)
	defer client.Close()

	source := mailbox.NewSource(client, spec, cfg.Export.PageSize, retryCfg)

	store := artifact.NewStore(cfg.Export.OutputDirectory)
	processor := artifact.NewProcessor(client, store, retryCfg)

	checkpoints, err := openCheckpointStore(cfg)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		return err
	}

	progress := ui.NewProgressDisplay(!quiet)
	engine := export.NewEngine(source, processor, checkpoints, progress)

	opts := export.Options{
		Mode:            export.ModeResume,
		CountLimit:      countLimit,
		CreateArtifacts: !dryRun,
	}
	switch {
	case freshRun:
		opts.Mode = export.ModeFresh
	case startFrom > 0:
		opts.Mode = export.ModeStartFrom
		opts.StartFrom = startFrom
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Account", account.Email)
	ui.PrintInfo("Filter", spec.String())
	if dryRun {
		ui.PrintHighlight("Dry run: nothing will be written")
	}

	summary, runErr := engine.Run(ctx, accountKey(account), spec, opts)
	progress.Done()
	printSummary(summary)

	if runErr != nil {
		log.WithError(runErr).Error("Export failed")
		if export.IsCheckpointCorruption(runErr) {
			ui.PrintError("Checkpoint is corrupt", runErr.Error())
			ui.PrintWarning("Inspect or clear it, then rerun with --fresh to start over")
		} else {
			ui.PrintError("Export failed", runErr.Error())
		}
		return runErr
	}
	return nil
}

// accountKey is the checkpoint identity of an account. The email
// address survives renames of the friendly account name.
func accountKey(account *auth.Account) string {
	if account.Email != "" {
		return account.Email
	}
	return account.Username
}

// resolveAccount picks the stored account to export from
func resolveAccount(name string) (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	if name != "" {
		return manager.Retrieve(name)
	}
	return manager.RetrieveDefault()
}

// retryConfigFrom builds the page-fetch retry policy from config
func retryConfigFrom(cfg *config.Config) *retry.Config {
	return &retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		RetryIf: retry.DefaultRetryIf,
		Logger:  logger.GetLogger(),
	}
}

// openCheckpointStore opens the configured or default checkpoint dir
func openCheckpointStore(cfg *config.Config) (*checkpoint.Store, error) {
	if cfg.Export.CheckpointDirectory != "" {
		return checkpoint.NewStore(cfg.Export.CheckpointDirectory)
	}
	return checkpoint.NewDefaultStore()
}

// printSummary renders the run outcome, failures included
func printSummary(summary *export.RunSummary) {
	if summary == nil {
		return
	}

	switch summary.Status {
	case export.StatusCompleted:
		ui.PrintSuccess("Export completed")
	case export.StatusCancelled:
		ui.PrintWarning("Export cancelled; progress saved, rerun to resume")
	case export.StatusFailed:
		ui.PrintWarning("Export stopped early; progress saved")
	}

	ui.PrintInfo("Seen", fmt.Sprintf("%d", summary.TotalSeen))
	ui.PrintInfo("Exported", fmt.Sprintf("%d", summary.TotalExported))
	ui.PrintInfo("Skipped (already exported)", fmt.Sprintf("%d", summary.TotalSkippedDuplicate))
	ui.PrintInfo("Failed", fmt.Sprintf("%d", summary.TotalFailed))
	ui.PrintInfo("Duration", summary.Duration.Round(time.Millisecond).String())

	if len(summary.Failures) > 0 {
		ui.PrintWarning("Failed messages (will be retried on the next run):")
		for id, reason := range summary.Failures {
			fmt.Printf("  %s: %s\n", ui.Yellow(id), ui.Dim(reason))
		}
	}
}
