// File: cmd/render.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/browser/dom"
	"github.com/xkilldash9x/boxflow/internal/browser/layout"
	"github.com/xkilldash9x/boxflow/internal/browser/parser"
	"github.com/xkilldash9x/boxflow/internal/browser/style"
	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
)

// renderOptions carries the flags of the render command.
type renderOptions struct {
	htmlPath    string
	cssPaths    []string
	xml         bool
	viewport    string
	format      string
	query       string
	concurrency int
}

// newRenderCmd creates and configures the `render` command.
func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	renderCmd := &cobra.Command{
		Use:   "render --html FILE [--css FILE]...",
		Short: "Lay out a document and print its box tree",
		Long: `Parses the document and stylesheets, builds the style tree and lays it out
against the viewport. The positioned box tree is printed as json, yaml or an
indented text outline. With --query, only the geometry of the first element
matching the XPath expression is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyRenderFlagOverrides(cmd, cfg, opts); err != nil {
				return err
			}

			renderID := uuid.NewString()
			logger := observability.ForRender(renderID)

			return runRender(ctx, logger, cfg, opts, cmd.OutOrStdout())
		},
	}

	bindRenderFlags(renderCmd, opts)
	_ = renderCmd.MarkFlagRequired("html")
	return renderCmd
}

func bindRenderFlags(cmd *cobra.Command, opts *renderOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.htmlPath, "html", "", "Path to the document to render (required)")
	flags.StringArrayVar(&opts.cssPaths, "css", nil, "Path to a stylesheet. Repeat to apply several, later sheets win ties.")
	flags.BoolVar(&opts.xml, "xml", false, "Parse the document as XML instead of HTML")
	flags.StringVar(&opts.viewport, "viewport", "", "Viewport size as WIDTHxHEIGHT, e.g. 800x600 (overrides viewport.*)")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: json, yaml or text (overrides output.format)")
	flags.StringVarP(&opts.query, "query", "q", "", "XPath of an element; print only its geometry")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Workers for the style tree build (overrides style.concurrency)")
}

// applyRenderFlagOverrides copies explicitly set flags into the configuration
// and validates the result.
func applyRenderFlagOverrides(cmd *cobra.Command, cfg config.Interface, opts *renderOptions) error {
	flags := cmd.Flags()
	if flags.Changed("viewport") {
		w, h, err := parseViewport(opts.viewport)
		if err != nil {
			return err
		}
		cfg.SetViewport(w, h)
	}
	if flags.Changed("format") {
		cfg.SetOutputFormat(opts.format)
	}
	if flags.Changed("concurrency") {
		cfg.SetStyleConcurrency(opts.concurrency)
	}

	if c := cfg.Style().Concurrency; c <= 0 {
		return fmt.Errorf("--concurrency must be a positive integer, got %d", c)
	}
	if _, err := layout.ParseFormat(cfg.Output().Format); err != nil {
		return err
	}
	return nil
}

// parseViewport parses "WIDTHxHEIGHT". Both dimensions must be positive.
func parseViewport(s string) (width, height float64, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid viewport %q: want WIDTHxHEIGHT", s)
	}
	if width, err = strconv.ParseFloat(ws, 64); err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport width %q", ws)
	}
	if height, err = strconv.ParseFloat(hs, 64); err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport height %q", hs)
	}
	return width, height, nil
}

// runRender contains the core, testable logic of the render command.
func runRender(ctx context.Context, logger *zap.Logger, cfg config.Interface, opts *renderOptions, out io.Writer) error {
	start := time.Now()
	format, err := layout.ParseFormat(cfg.Output().Format)
	if err != nil {
		return err
	}

	doc, err := loadDocument(opts.htmlPath, opts.xml)
	if err != nil {
		return err
	}

	styleEngine := style.NewEngine(logger, cfg.Style().Concurrency)
	cssParser := parser.NewParser(logger)
	for _, path := range opts.cssPaths {
		data, err := readExpanded(path)
		if err != nil {
			return err
		}
		sheet, err := cssParser.Parse(data)
		if err != nil {
			// Unsupported constructs are skipped, the rest of the sheet still applies.
			logger.Warn("Stylesheet contains unsupported input", zap.String("path", path), zap.Error(err))
		}
		styleEngine.AddSheet(sheet)
	}

	styleRoot, err := styleEngine.BuildTree(ctx, doc)
	if err != nil {
		return err
	}

	vp := cfg.Viewport()
	layoutEngine := layout.NewEngine(vp.Width, vp.Height, logger)
	root, err := layoutEngine.BuildAndLayoutTree(styleRoot)
	if err != nil {
		return fmt.Errorf("failed to lay out %s: %w", opts.htmlPath, err)
	}

	if opts.query != "" {
		geom, err := layoutEngine.ElementGeometry(root, opts.query)
		if err != nil {
			return err
		}
		err = geom.Write(out, format)
		logger.Info("Render complete", zap.String("query", opts.query), zap.Duration("duration", time.Since(start)))
		return err
	}

	if err := layout.NewSnapshot(root).Write(out, format); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	logger.Info("Render complete", zap.Int("stylesheets", len(opts.cssPaths)), zap.Duration("duration", time.Since(start)))
	return nil
}

// loadDocument reads and parses the document at path. A leading ~ is expanded.
func loadDocument(path string, asXML bool) (*dom.Node, error) {
	f, err := openExpanded(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc *dom.Node
	if asXML {
		doc, err = dom.ParseXML(f)
	} else {
		doc, err = dom.ParseHTML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return doc, nil
}

// readExpanded reads a whole file. A leading ~ is expanded.
func readExpanded(path string) ([]byte, error) {
	f, err := openExpanded(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func openExpanded(path string) (*os.File, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %s: %w", path, err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
