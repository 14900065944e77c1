package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/config"
	"github.com/xob0t/CardStencil/pkg/fonts"
	"github.com/xob0t/CardStencil/pkg/logging"
	"github.com/xob0t/CardStencil/pkg/template"
)

var (
	// Global flags
	configPath  string
	catalogPath string
	verbose     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cardstencil",
	Short: "CardStencil - greeting card layout and export",
	Long: `CardStencil lays out greeting cards from a template catalog and renders
them as an SVG preview or a 1080x1920 PNG.

Examples:
  cardstencil init                           # Write sample config, catalog and card
  cardstencil templates --catalog catalog.yaml
  cardstencil preview card.json -o card.svg
  cardstencil export card.json -o card.png
  cardstencil serve --addr :9000`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadOptional(configPath)
		if err != nil {
			return err
		}
		cfg = c
		if catalogPath != "" {
			cfg.Assets.Catalog = catalogPath
		}
		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "config file (optional)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog YAML or .cardpack bundle (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// registry returns the built-in catalog merged with the configured one. The
// cleanup function releases extracted bundle assets.
func registry() (*template.Registry, func(), error) {
	reg := template.Builtin()
	if cfg.Assets.Catalog == "" {
		return reg, func() {}, nil
	}
	warnings, cleanup, err := reg.LoadFile(cfg.Assets.Catalog)
	if err != nil {
		return nil, cleanup, fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range warnings {
		logging.Logger().Warn("catalog", "warning", w)
	}
	return reg, cleanup, nil
}

// fontManager returns the embedded fonts with overrides from the font dir.
func fontManager() (*fonts.Manager, error) {
	fm, err := fonts.NewManager()
	if err != nil {
		return nil, err
	}
	if cfg.Export.FontDir != "" {
		if _, err := fm.LoadDir(cfg.Export.FontDir); err != nil {
			return nil, err
		}
	}
	return fm, nil
}

// readCard decodes a card JSON file; "-" reads stdin.
func readCard(cmd *cobra.Command, path string) (*card.Card, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read card: %w", err)
	}
	c, warnings, err := card.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse card %s: %w", path, err)
	}
	for _, w := range warnings {
		logging.Logger().Warn("card sanitized", "warning", w)
	}
	return c, nil
}
