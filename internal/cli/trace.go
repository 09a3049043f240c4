package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/pkg/fetch"
	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
	"github.com/sherafyk/vectorize-svc/pkg/preview"
)

// traceOpts holds the trace flags.
type traceOpts struct {
	output  string // "-" writes the SVG to stdout
	png     string
	pngSize int
	noCache bool
	stats   bool
	opts    pipeline.Options
	style   styleFlags
}

// traceCommand creates the trace command that vectorizes one image.
func (c *CLI) traceCommand() *cobra.Command {
	opts := traceOpts{opts: pipeline.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "trace [image|url]",
		Short: "Vectorize an image file or URL to SVG",
		Example: `  vectorize trace logo.png
  vectorize trace logo.png -o - --threshold 100 --fill '#1d4ed8'
  vectorize trace https://example.com/logo.png --png preview.png`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeImage,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTrace(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output SVG file, - for stdout (default: <input>.svg)")
	cmd.Flags().StringVar(&opts.png, "png", "", "also write a PNG preview to this file")
	cmd.Flags().IntVar(&opts.pngSize, "png-size", 0, "PNG preview size (default: --size)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print trace statistics")
	addOptionFlags(cmd, &opts.opts)
	addStyleFlags(cmd, &opts.style)

	return cmd
}

func (c *CLI) runTrace(cmd *cobra.Command, input string, opts *traceOpts) error {
	ctx := cmd.Context()
	if err := opts.opts.Validate(); err != nil {
		return err
	}

	data, err := readInput(ctx, input, opts.output == "-")
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := opts.output == "-"
	var spinner *Spinner
	if !toStdout {
		spinner = newSpinnerWithContext(ctx, "Tracing "+filepath.Base(input)+"...")
		spinner.Start()
	}
	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Execute(ctx, data, opts.opts, opts.style.style(cmd))
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("Traced " + filepath.Base(input))

	if toStdout {
		_, err := fmt.Fprintln(os.Stdout, res.SVG)
		return err
	}

	out := opts.output
	if out == "" {
		out = defaultOutput(input)
	}
	if err := os.WriteFile(out, []byte(res.SVG), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	printSuccess("Vectorized %s", filepath.Base(input))
	printFile(out)

	if opts.png != "" {
		size := opts.pngSize
		if size <= 0 {
			size = opts.opts.Size
		}
		if err := writePreview(opts.png, res.SVG, size); err != nil {
			return err
		}
		printFile(opts.png)
	}

	if opts.stats {
		fmt.Println(statsTable(res.Stats, res.CacheHit))
	} else {
		printDetail("%d curves · %d segments", res.Stats.Curves, res.Stats.Segments)
	}
	return nil
}

// readInput reads a local file, or downloads input when it is an http(s)
// URL. Downloads show a spinner unless quiet.
func readInput(ctx context.Context, input string, quiet bool) ([]byte, error) {
	if isURL(input) {
		return download(ctx, input, quiet)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func download(ctx context.Context, url string, quiet bool) ([]byte, error) {
	client := fetch.NewClient(fetch.DefaultTimeout, fetch.DefaultMaxBytes)
	if quiet {
		return client.Fetch(ctx, url)
	}

	spinner := newSpinnerWithContext(ctx, "Downloading "+url+"...")
	spinner.Start()
	data, err := client.Fetch(ctx, url)
	if err != nil {
		spinner.StopWithError("Download failed")
		return nil, err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Downloaded %s (%d bytes)", url, len(data)))
	return data, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// defaultOutput derives the SVG path from the input: "logo.png" becomes
// "logo.svg" next to it, URLs become "vectorized.svg".
func defaultOutput(input string) string {
	if isURL(input) {
		return "vectorized.svg"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
}

func writePreview(path, doc string, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(f, doc, size); err != nil {
		f.Close()
		return fmt.Errorf("render preview: %w", err)
	}
	return f.Close()
}
