package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/traykit/tray/internal/config"
	"github.com/traykit/tray/internal/idtype"
	"github.com/traykit/tray/internal/kernel"
)

const defaultConfigPath = "config/tray.toml"

var (
	cfgPath string
	cfg     *config.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tray",
	Short:         "Load, edit and store text datablocks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err = newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	path := defaultConfigPath
	if p := os.Getenv("TRAY_CONFIG"); p != "" {
		path = p
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", path, "path to the TOML config")
}

// loadConfig reads path. A missing default file falls back to the
// built-in configuration.
func loadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return c, err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Logs go to stderr; stdout carries command output.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// newMain builds an empty registry from the kernel config.
func newMain(kc config.KernelConfig, opts ...kernel.Option) (*kernel.Main, error) {
	opts = append(opts, kernel.WithLogger(log))
	if kc.TypesFile != "" {
		types, err := idtype.LoadTable(kc.TypesFile)
		if err != nil {
			return nil, fmt.Errorf("load types: %w", err)
		}
		opts = append(opts, kernel.WithTypes(types))
	}
	return kernel.New(opts...), nil
}

func relationsFlag(kc config.KernelConfig) kernel.RelationsFlag {
	if kc.RelationsIncludeUI {
		return kernel.RelationsIncludeUI
	}
	return 0
}
