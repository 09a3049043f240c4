package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

const (
	thresholdStep     = 5
	thresholdFineStep = 1
)

var (
	tuneKeyStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	tuneErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// tuneCommand creates the interactive tune command.
func (c *CLI) tuneCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()
	var output string

	cmd := &cobra.Command{
		Use:               "tune [image|url]",
		Short:             "Interactively adjust tracing options with live statistics",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeImage,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			data, err := readInput(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0])
			}

			m := newTuneModel(data, filepath.Base(args[0]), output, opts)
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(tuneModel); ok && fm.saved != "" {
				printSuccess("Saved %s", fm.saved)
				printNextStep("Reproduce with", fm.commandLine(args[0]))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file written when pressing s (default: <input>.svg)")
	addOptionFlags(cmd, &opts)

	return cmd
}

// =============================================================================
// tuneModel - bubbletea model
// =============================================================================

type tuneModel struct {
	data   []byte
	name   string
	output string
	opts   pipeline.Options

	traced *pipeline.Traced
	err    error
	busy   bool
	saved  string
	// gen identifies the latest trace request; older results are dropped.
	gen int
}

type tracedMsg struct {
	gen    int
	traced *pipeline.Traced
	err    error
}

type savedMsg struct {
	path string
	err  error
}

func newTuneModel(data []byte, name, output string, opts pipeline.Options) tuneModel {
	return tuneModel{data: data, name: name, output: output, opts: opts, busy: true}
}

func traceCmd(gen int, data []byte, opts pipeline.Options) tea.Cmd {
	return func() tea.Msg {
		t, err := pipeline.Trace(data, opts)
		return tracedMsg{gen: gen, traced: t, err: err}
	}
}

func saveCmd(path, doc string) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{path: path, err: os.WriteFile(path, []byte(doc), 0o644)}
	}
}

func (m tuneModel) Init() tea.Cmd {
	return traceCmd(m.gen, m.data, m.opts)
}

func (m tuneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tracedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.busy = false
		m.traced, m.err = msg.traced, msg.err
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved = msg.path
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.traced == nil {
				return m, nil
			}
			return m, saveCmd(m.output, m.traced.SVG)
		case "up", "k":
			m.opts.Threshold = min(m.opts.Threshold+thresholdStep, 255)
		case "down", "j":
			m.opts.Threshold = max(m.opts.Threshold-thresholdStep, 0)
		case "right", "l":
			m.opts.Threshold = min(m.opts.Threshold+thresholdFineStep, 255)
		case "left", "h":
			m.opts.Threshold = max(m.opts.Threshold-thresholdFineStep, 0)
		case "+", "=":
			m.opts.TurdSize++
		case "-", "_":
			m.opts.TurdSize = max(m.opts.TurdSize-1, 0)
		case "i":
			m.opts.Invert = !m.opts.Invert
		case "o":
			m.opts.OptiCurve = !m.opts.OptiCurve
		case "a":
			m.opts.Autocrop = !m.opts.Autocrop
		case "p":
			m.opts.TurnPolicy = nextTurnPolicy(m.opts.TurnPolicy)
		default:
			return m, nil
		}
		return m.retrace()
	}
	return m, nil
}

func (m tuneModel) retrace() (tea.Model, tea.Cmd) {
	m.gen++
	m.busy = true
	m.saved = ""
	return m, traceCmd(m.gen, m.data, m.opts)
}

func nextTurnPolicy(p trace.TurnPolicy) trace.TurnPolicy {
	i := slices.Index(trace.TurnPolicies, trace.ParseTurnPolicy(string(p)))
	return trace.TurnPolicies[(i+1)%len(trace.TurnPolicies)]
}

func (m tuneModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Tune " + m.name))
	b.WriteString("\n\n")

	rows := [][]string{
		{"threshold", strconv.Itoa(m.opts.Threshold), keyHint("↑/↓ ±5  ←/→ ±1")},
		{"turdsize", strconv.Itoa(m.opts.TurdSize), keyHint("+/-")},
		{"turnpolicy", string(m.opts.TurnPolicy), keyHint("p")},
		{"invert", strconv.FormatBool(m.opts.Invert), keyHint("i")},
		{"opticurve", strconv.FormatBool(m.opts.OptiCurve), keyHint("o")},
		{"autocrop", strconv.FormatBool(m.opts.Autocrop), keyHint("a")},
	}
	if m.traced != nil {
		s := m.traced.Stats
		rows = append(rows,
			[]string{"curves", strconv.Itoa(s.Curves), ""},
			[]string{"segments", fmt.Sprintf("%d (%d corner, %d smooth)", s.Segments, s.Corners, s.Smooth), ""},
			[]string{"bitmap", fmt.Sprintf("%d×%d", s.Width, s.Height), ""},
		)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return StyleDim.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(StyleDim.Render("tracing..."))
	case m.err != nil:
		b.WriteString(tuneErrorStyle.Render(m.err.Error()))
	case m.saved != "":
		b.WriteString(StyleSuccess.Render(iconSuccess + " saved " + m.saved))
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("trace took %s", m.traced.Stats.TraceTime.Round(time.Microsecond))))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("s save  q quit"))
	b.WriteString("\n")
	return b.String()
}

func keyHint(s string) string {
	return tuneKeyStyle.Render(s)
}

// commandLine returns the trace invocation matching the tuned options.
func (m tuneModel) commandLine(input string) string {
	d := pipeline.DefaultOptions()
	args := []string{appName, "trace", input}
	if m.opts.Threshold != d.Threshold {
		args = append(args, "--threshold", strconv.Itoa(m.opts.Threshold))
	}
	if m.opts.TurdSize != d.TurdSize {
		args = append(args, "--turdsize", strconv.Itoa(m.opts.TurdSize))
	}
	if m.opts.TurnPolicy != d.TurnPolicy {
		args = append(args, "--turnpolicy", string(m.opts.TurnPolicy))
	}
	if m.opts.Invert {
		args = append(args, "--invert")
	}
	if m.opts.OptiCurve != d.OptiCurve {
		args = append(args, "--opticurve="+strconv.FormatBool(m.opts.OptiCurve))
	}
	if m.opts.Autocrop {
		args = append(args, "--autocrop")
	}
	return strings.Join(args, " ")
}
