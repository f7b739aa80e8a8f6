// Package main is the gamedex CLI: catalog import, index builds, title search,
// recommendations and the long-running index watcher.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/config"
	"github.com/kailas-cloud/gamedex/internal/domain"
	logpkg "github.com/kailas-cloud/gamedex/internal/logger"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	"github.com/kailas-cloud/gamedex/internal/version"
)

// Exit codes.
const (
	exitError         = 1
	exitConfiguration = 2
)

var (
	envName string
	cfg     config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gamedex",
	Short: "Game discovery: fuzzy title search and history-based recommendations",
	Long: `gamedex builds an approximate nearest neighbor index over the game catalog
and answers title searches and per-user recommendations against it.

Results are printed as JSON lines on stdout; logs go to stderr.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if envName == "" {
			envName = config.GetEnv()
		}
		var err error
		cfg, err = config.Load(envName)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		logger, err = logpkg.NewLogger(envName, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		metrics.Register()

		cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger.With(zap.String("command", cmd.Name()))))

		logger.Debug("Starting gamedex",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("env", envName),
			zap.String("command", cmd.Name()),
		)
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (default: $ENV or local)")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		if domain.IsConfiguration(err) {
			os.Exit(exitConfiguration)
		}
		os.Exit(exitError)
	}
}
