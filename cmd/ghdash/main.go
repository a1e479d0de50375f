package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gradientwolf/github-multi-dashboard/internal/cache"
	"github.com/gradientwolf/github-multi-dashboard/internal/config"
	"github.com/gradientwolf/github-multi-dashboard/internal/core"
	"github.com/gradientwolf/github-multi-dashboard/internal/github"
	"github.com/gradientwolf/github-multi-dashboard/internal/render"
	"github.com/gradientwolf/github-multi-dashboard/internal/server"
)

var (
	verbose bool
	outDir  string
	addr    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ghdash",
	Short: "Combined GitHub contribution dashboard for a fixed set of accounts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch all configured users and write one SVG calendar per year",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, agg, err := buildAggregator()
		if err != nil {
			return err
		}

		data, err := agg.LoadDashboard(cmd.Context(), cfg.Users, cfg.Years)
		if err != nil {
			return fmt.Errorf("load dashboard: %w", err)
		}
		for _, notice := range data.Notices {
			logger.Warn(notice)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		for _, yd := range data.Years {
			grid := core.BuildYearGrid(yd.Year, yd.Combined, yd.PerUser, cfg.Users)
			svg, err := render.Year(grid)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, fmt.Sprintf("contributions-%d.svg", yd.Year))
			if err := os.WriteFile(path, svg, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("ghdash: wrote %s (%d contributions)\n", path, yd.Total)
		}

		fmt.Printf("ghdash: %d contributions total across %d users\n", data.GrandTotal, len(cfg.Users))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard payload as JSON over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, agg, err := buildAggregator()
		if err != nil {
			return err
		}

		if addr == "" {
			addr = cfg.Addr
		}
		srv := server.New(agg, cfg.Users, cfg.Years, logger)

		logger.Info("listening", zap.String("addr", addr))
		return http.ListenAndServe(addr, srv.Router())
	},
}

func buildAggregator() (*config.Config, *core.Aggregator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Token == "" {
		logger.Warn("GHDASH_TOKEN not set; calendar-graph source disabled, falling back to commit enumeration")
	}

	store := cache.New(cfg.CacheTTL)
	client := github.NewClient(cfg.Token, store, logger)
	agg := core.NewAggregator(client, logger, cfg.RepoScanLimit, cfg.CommitDelay)
	return cfg, agg, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	renderCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for generated SVG files")
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides GHDASH_ADDR)")

	rootCmd.AddCommand(renderCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
