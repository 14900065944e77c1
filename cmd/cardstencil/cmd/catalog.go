package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xob0t/CardStencil/clients/server"
	"github.com/xob0t/CardStencil/pkg/config"
	"github.com/xob0t/CardStencil/pkg/template"
)

var (
	initDir   string
	initForce bool

	serveAddr      string
	servePublicURL string
	serveAssets    string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List templates and stickers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cleanup, err := registry()
		defer cleanup()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), template.FormatCatalog(reg))
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample config, catalog and card",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing files")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "public origin for uploaded photo URLs")
	serveCmd.Flags().StringVar(&serveAssets, "assets", "", "assets directory (default from config)")

	rootCmd.AddCommand(templatesCmd, initCmd, serveCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	sample := config.Defaults()
	sample.Assets.Catalog = "catalog.yaml"
	cfgData, err := sample.Marshal()
	if err != nil {
		return err
	}
	files := []struct {
		name string
		data []byte
	}{
		{config.FileName, cfgData},
		{"catalog.yaml", []byte(template.ExampleCatalog())},
		{"card.json", []byte(template.ExampleCard())},
	}

	if err := os.MkdirAll(initDir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(initDir, f.name)
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Run: cardstencil preview card.json -o card.svg")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if servePublicURL != "" {
		cfg.Server.PublicURL = servePublicURL
	}
	if serveAssets != "" {
		cfg.Assets.Dir = serveAssets
	}
	reg, cleanup, err := registry()
	defer cleanup()
	if err != nil {
		return err
	}
	fm, err := fontManager()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, server.Options{Config: cfg, Registry: reg, Fonts: fm})
}
