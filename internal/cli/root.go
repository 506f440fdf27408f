// Package cli implements the threadshift command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/logging"
)

var (
	configPath string
	debugLog   bool
)

var rootCmd = &cobra.Command{
	Use:          "threadshift",
	Short:        "Garment-driven body zone swaps between characters",
	Long:         "Validates character body maps and swaps the zones a garment covers from one character onto another, with reversal, reciprocal exchange, persisted history and a hash-chained audit log.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.threadshift/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logging.New(debugLog || cfg.Settings.EnableDebugLogging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return zap.NewNop()
	}
	return log
}

// startCore loads the config and starts an in-process core. The caller
// closes it.
func startCore(ctx context.Context) (*core.Core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c := core.New(cfg, core.WithLogger(newLogger(cfg)))
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
