package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xob0t/CardStencil/pkg/export"
	"github.com/xob0t/CardStencil/pkg/generator"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/preview"
)

var (
	exportOut    string
	exportSlug   string
	exportAssets string
	exportBase   string

	previewOut      string
	previewWidth    float64
	previewOutlines bool
)

var exportCmd = &cobra.Command{
	Use:   "export <card.json>",
	Short: "Render a card to a 1080x1920 image",
	Long: `Render a card to an image. The format follows the output extension
(.png, .bmp or .jpg). Root-relative sources such as /templates/t1.png are read
from the assets directory, or fetched from --base-url when it is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var previewCmd = &cobra.Command{
	Use:   "preview <card.json>",
	Short: "Render a card's SVG preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default card-<slug>.png)")
	exportCmd.Flags().StringVar(&exportSlug, "slug", "", "slug used for the default file name")
	exportCmd.Flags().StringVar(&exportAssets, "assets", "", "assets directory (default from config)")
	exportCmd.Flags().StringVar(&exportBase, "base-url", "", "fetch relative sources from this origin")

	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "-", "output file, - for stdout")
	previewCmd.Flags().Float64Var(&previewWidth, "width", 0, "rendered width in pixels (default from config)")
	previewCmd.Flags().BoolVar(&previewOutlines, "outlines", true, "outline empty frames")

	rootCmd.AddCommand(exportCmd, previewCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := readCard(cmd, args[0])
	if err != nil {
		return err
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

	remote := &export.HTTPLoader{Client: &http.Client{Timeout: 30 * time.Second}}
	loader := export.RouteLoader{Remote: remote}
	switch {
	case exportBase != "":
		loader.Local = &export.HTTPLoader{Client: remote.Client, BaseURL: exportBase}
	default:
		dir := exportAssets
		if dir == "" {
			dir = cfg.Assets.Dir
		}
		loader.Local = &export.FSLoader{FS: os.DirFS(dir)}
	}

	ex := export.New(export.Config{Loader: loader, Fonts: fm, Concurrency: cfg.Export.Concurrency})
	img, err := ex.Export(cmd.Context(), c, reg.Resolve(c.TemplateID))
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = generator.FileName(exportSlug)
	}
	if err := generator.Generate(out, img); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done: %s\n", out)
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	c, err := readCard(cmd, args[0])
	if err != nil {
		return err
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

	opts := preview.DefaultOptions
	opts.Width = cfg.Preview.Width
	if previewWidth > 0 {
		opts.Width = previewWidth
	}
	opts.ShowOutlines = previewOutlines
	sc := layout.Compose(c, reg.Resolve(c.TemplateID), layout.Options{Measurer: fm})

	if previewOut == "-" {
		return preview.Render(cmd.OutOrStdout(), sc, opts)
	}
	f, err := os.Create(previewOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", previewOut, err)
	}
	if err := preview.Render(f, sc, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done: %s\n", previewOut)
	return nil
}
