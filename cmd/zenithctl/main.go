// Command zenithctl runs the analytics of the service from a terminal:
// one-off analysis, zenith scoring, replay and history backfill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"ZenithCore/internal/di"
	domrepo "ZenithCore/internal/domain/repository"
	"ZenithCore/pkg/cache"
	"ZenithCore/pkg/config"
	"ZenithCore/pkg/logger"
	"ZenithCore/pkg/metrics"
)

type rootOptions struct {
	configPath string
	logLevel   string
	noCache    bool
}

// env holds what every subcommand needs. Stores are opened per command.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	cache   cache.Service
	history domrepo.HistoryProvider
	closers []func()
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func newEnv(opts *rootOptions) (*env, error) {
	cfg, err := config.LoadWithEnv(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Log.Output = "stderr"

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	c, cleanup, err := di.ProvideCache(cfg, l)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     l,
		cache:   c,
		history: di.ProvideHistory(cfg, c, l, metrics.Nop{}),
		closers: []func(){cleanup},
	}, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "zenithctl",
		Short:         "ZenithCore analytics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")
	root.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "use an in-process cache instead of Redis")

	root.AddCommand(
		analyzeCmd(opts),
		scoreCmd(opts),
		replayCmd(opts),
		backfillCmd(opts),
	)
	return root
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
