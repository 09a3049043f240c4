// Package cli implements the vectorize command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/pkg/buildinfo"
	"github.com/sherafyk/vectorize-svc/pkg/cache"
	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
	"github.com/sherafyk/vectorize-svc/pkg/svg"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "vectorize"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Vectorize converts raster images into normalized SVG",
		Long:         `Vectorize traces bitmap images into closed vector curves and emits a normalized, stylable SVG document. It runs as an HTTP service or directly from the command line.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.styleCommand())
	root.AddCommand(c.tuneCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the local file cache.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger, 0), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/vectorize/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// addOptionFlags binds the tracing options to cmd. opts should hold the
// defaults.
func addOptionFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.IntVarP(&opts.Threshold, "threshold", "t", opts.Threshold, "binarization threshold (0-255), luma above is foreground")
	f.Var((*turnPolicyValue)(&opts.TurnPolicy), "turnpolicy", "turn policy: black, white, left, right, minority, majority, random")
	f.Float64Var(&opts.AlphaMax, "alphamax", opts.AlphaMax, "corner threshold")
	f.IntVar(&opts.TurdSize, "turdsize", opts.TurdSize, "suppress speckles up to this many pixels")
	f.IntVarP(&opts.Size, "size", "s", opts.Size, "output width and height")
	f.BoolVar(&opts.OptiCurve, "opticurve", opts.OptiCurve, "merge curve segments")
	f.Float64Var(&opts.OptTolerance, "opttolerance", opts.OptTolerance, "curve merge tolerance")
	f.StringVar(&opts.Background, "background", opts.Background, "composite onto this color first (name or hex)")
	f.BoolVar(&opts.Invert, "invert", opts.Invert, "trace the dark parts instead of the light ones")
	f.IntVar(&opts.Passes, "passes", opts.Passes, "smoothing passes + 1")
	f.BoolVar(&opts.Autocrop, "autocrop", opts.Autocrop, "crop to the content bounding box")
	_ = cmd.RegisterFlagCompletionFunc("turnpolicy", completeTurnPolicy)
}

// styleFlags holds the style post-processor flags.
type styleFlags struct {
	fill        string
	stroke      string
	strokeWidth float64
}

func addStyleFlags(cmd *cobra.Command, s *styleFlags) {
	f := cmd.Flags()
	f.StringVar(&s.fill, "fill", "", "path fill color")
	f.StringVar(&s.stroke, "stroke", "", "path stroke color")
	f.Float64Var(&s.strokeWidth, "stroke-width", 0, "path stroke width")
}

// style builds the svg.Style. stroke-width only counts when given.
func (s *styleFlags) style(cmd *cobra.Command) svg.Style {
	st := svg.Style{Fill: s.fill, Stroke: s.stroke}
	if cmd.Flags().Changed("stroke-width") {
		st.StrokeWidth = svg.Width(s.strokeWidth)
	}
	return st
}

// turnPolicyValue adapts trace.TurnPolicy to pflag.Value.
type turnPolicyValue trace.TurnPolicy

func (v *turnPolicyValue) String() string { return string(*v) }
func (v *turnPolicyValue) Type() string   { return "policy" }

func (v *turnPolicyValue) Set(s string) error {
	*v = turnPolicyValue(trace.ParseTurnPolicy(s))
	return nil
}
