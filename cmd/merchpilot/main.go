package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/merchpilot/merchpilot/internal/config"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "merchpilot",
		Short: "MerchPilot - Autonomous print-on-demand design pipeline",
		Long: `MerchPilot researches merchandise niches, generates design candidates,
screens them through IP, compliance, and quality gates, and packages the
survivors into priced, upload-ready listings.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.General.LogJSON {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.General.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.General.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.General.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
