// Command syncengine runs the PMS<->WITS sync cycle, either once or on a
// fixed interval, grounded on cmd/bd/main.go's cobra root command plus
// cmd/bd/daemon.go's ticker-driven loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/syncbridge/pms-wits-sync/internal/config"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
	"github.com/syncbridge/pms-wits-sync/internal/pms"
	"github.com/syncbridge/pms-wits-sync/internal/synccycle"
	"github.com/syncbridge/pms-wits-sync/internal/wits"
)

// Version is overridden by ldflags at build time.
var Version = "dev"

var (
	configPath   string
	mappingDSN   string
	interval     time.Duration
	jsonLogs     bool
	lastSyncDate string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "syncengine",
		Short:        "syncengine - bidirectional PMS/WITS artifact sync",
		Long:         `Reconciles incidents, tasks, and requirements between the project-management service and the work item tracking system.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.ConfigFileName, "path to the instance config file")
	root.PersistentFlags().StringVar(&mappingDSN, "mapping-dsn", os.Getenv("SYNCENGINE_MAPPING_DSN"), "mapping store data source name (MySQL/Dolt-style DSN)")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured logs as JSON instead of text")
	root.PersistentFlags().StringVar(&lastSyncDate, "last-sync-date", "", "RFC3339 timestamp of the last successful sync, as tracked by the host; omit to let the engine fall back to its own local watermark")

	runFlags := &cobra.Command{
		Use:   "run",
		Short: "Run a single sync cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run sync cycles on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd.Context())
		},
	}
	watchCmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "time between sync cycles")

	validateCmd := &cobra.Command{
		Use:   "config validate",
		Short: "Validate the instance config file without running a cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("config OK: project %d, plug-in %d, WITS project %q\n", cfg.ProjectID, cfg.PlugInID, cfg.WITSProjectName)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("syncengine version %s\n", Version)
		},
	}

	root.AddCommand(runFlags, watchCmd, validateCmd, versionCmd)
	return root
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// buildClients loads the instance config and constructs the mapping
// store plus PMS/WITS HTTP clients it takes to drive one cycle.
func buildClients(ctx context.Context, logger *slog.Logger) (*config.Config, mapping.Store, *pms.Client, *wits.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if mappingDSN == "" {
		return nil, nil, nil, nil, fmt.Errorf("mapping store DSN not set (--mapping-dsn or SYNCENGINE_MAPPING_DSN)")
	}
	store, err := mapping.Open(ctx, mappingDSN, cfg.PlugInID)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open mapping store: %w", err)
	}

	pmsClient := pms.NewClient(cfg.PMSBaseURL, cfg.PMSLogin, cfg.PMSPassword)

	var witsClient *wits.Client
	if cfg.UsesNetworkCredentials() {
		witsClient = wits.NewNetworkCredentialsClient(cfg.WITSConnectionString, cfg.WITSProjectName, cfg.WindowsDomain)
	} else {
		witsClient = wits.NewClient(cfg.WITSConnectionString, cfg.WITSProjectName, cfg.WITSLogin, cfg.WITSPassword)
	}

	return cfg, store, pmsClient, witsClient, nil
}

// parseLastSyncDate parses the --last-sync-date flag, playing the role
// the host process normally fills: it alone knows the watermark it last
// advanced past, and passes nil only on its own first call for a given
// plug-in. An empty flag here means exactly that first-call case.
func parseLastSyncDate() (*time.Time, error) {
	if lastSyncDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, lastSyncDate)
	if err != nil {
		return nil, fmt.Errorf("parse --last-sync-date: %w", err)
	}
	t = t.UTC()
	return &t, nil
}

func runOnce(ctx context.Context) error {
	logger := newLogger()

	cfg, store, pmsClient, witsClient, err := buildClients(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	since, err := parseLastSyncDate()
	if err != nil {
		return err
	}
	serverDateTime := time.Now().UTC()

	status, err := synccycle.Run(ctx, cfg, store, pmsClient, witsClient, logger, since, serverDateTime)
	recordCycleMetrics(ctx, status, err)
	if err != nil {
		logger.Error("sync cycle failed", "error", err)
		return err
	}
	logger.Info("sync cycle finished", "status", status)
	if status == synccycle.StatusError {
		return fmt.Errorf("sync cycle completed with errors")
	}
	return nil
}

// runLoop drives cycles on a fixed interval until the process receives
// SIGINT/SIGTERM, mirroring cmd/bd/daemon.go's ticker loop.
func runLoop(ctx context.Context) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, store, pmsClient, witsClient, err := buildClients(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	since, err := parseLastSyncDate()
	if err != nil {
		return err
	}

	// The host, not the engine, owns lastSyncDate across calls: each
	// successful cycle's serverDateTime becomes the next cycle's
	// lastSyncDate, exactly as a real host would persist its own
	// advanced watermark between invocations.
	runCycle := func() {
		cycleCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		serverDateTime := time.Now().UTC()
		status, err := synccycle.Run(cycleCtx, cfg, store, pmsClient, witsClient, logger, since, serverDateTime)
		recordCycleMetrics(ctx, status, err)
		if err != nil {
			logger.Error("sync cycle failed", "error", err)
			return
		}
		since = &serverDateTime
		logger.Info("sync cycle finished", "status", status)
	}

	logger.Info("starting sync loop", "interval", interval)
	runCycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sync loop stopping")
			return nil
		case <-ticker.C:
			runCycle()
		}
	}
}
