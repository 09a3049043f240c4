package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs the resulting command once, feeding its
// message back.
func step(t *testing.T, m tuneModel, msg tea.Msg) tuneModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(tuneModel)
	if cmd != nil {
		if out := cmd(); out != nil {
			next, _ = m.Update(out)
			m = next.(tuneModel)
		}
	}
	return m
}

func newTestTune(t *testing.T) (tuneModel, string) {
	t.Helper()
	dir := t.TempDir()
	data := mustRead(t, writeSample(t, dir))
	out := filepath.Join(dir, "tuned.svg")

	m := newTuneModel(data, "square.png", out, pipeline.DefaultOptions())
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(tuneModel), out
}

func TestTune_InitialTrace(t *testing.T) {
	m, _ := newTestTune(t)
	if m.busy || m.err != nil || m.traced == nil {
		t.Fatalf("busy=%v err=%v traced=%v", m.busy, m.err, m.traced)
	}
	if m.traced.Stats.Curves == 0 {
		t.Error("sample should trace to at least one curve")
	}
	if v := m.View(); !strings.Contains(v, "threshold") || !strings.Contains(v, "curves") {
		t.Errorf("view missing rows:\n%s", v)
	}
}

func TestTune_Keys(t *testing.T) {
	m, _ := newTestTune(t)

	tests := []struct {
		key   tea.KeyMsg
		check func(pipeline.Options) bool
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, func(o pipeline.Options) bool { return o.Threshold == 133 }},
		{tea.KeyMsg{Type: tea.KeyLeft}, func(o pipeline.Options) bool { return o.Threshold == 132 }},
		{runes("+"), func(o pipeline.Options) bool { return o.TurdSize == 3 }},
		{runes("i"), func(o pipeline.Options) bool { return o.Invert }},
		{runes("o"), func(o pipeline.Options) bool { return !o.OptiCurve }},
		{runes("a"), func(o pipeline.Options) bool { return o.Autocrop }},
		{runes("p"), func(o pipeline.Options) bool { return o.TurnPolicy == trace.TurnMajority }},
	}
	for _, tt := range tests {
		gen := m.gen
		m = step(t, m, tt.key)
		if !tt.check(m.opts) {
			t.Errorf("after %q: opts = %+v", tt.key.String(), m.opts)
		}
		if m.gen != gen+1 || m.busy {
			t.Errorf("after %q: gen=%d busy=%v, want a finished retrace", tt.key.String(), m.gen, m.busy)
		}
	}
}

func TestTune_ThresholdClamped(t *testing.T) {
	m, _ := newTestTune(t)
	for range 60 {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.opts.Threshold != 255 {
		t.Errorf("threshold = %d, want 255", m.opts.Threshold)
	}
	for range 60 {
		m = step(t, m, runes("-"))
	}
	if m.opts.TurdSize != 0 {
		t.Errorf("turdsize = %d, want 0", m.opts.TurdSize)
	}
}

func TestTune_StaleResultDropped(t *testing.T) {
	m, _ := newTestTune(t)
	prev := m.traced

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(tuneModel)
	next, _ = m.Update(tracedMsg{gen: m.gen - 1, traced: &pipeline.Traced{}})
	m = next.(tuneModel)

	if !m.busy || m.traced != prev {
		t.Error("a result for an older generation should be ignored")
	}
}

func TestTune_Save(t *testing.T) {
	m, out := newTestTune(t)
	m = step(t, m, runes("s"))

	if m.saved != out {
		t.Fatalf("saved = %q, want %q", m.saved, out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != m.traced.SVG {
		t.Error("saved file differs from the current trace")
	}
}

func TestTune_Quit(t *testing.T) {
	m, _ := newTestTune(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestTune_CommandLine(t *testing.T) {
	m, _ := newTestTune(t)
	m.opts.Threshold = 90
	m.opts.Invert = true
	got := m.commandLine("logo.png")
	want := "vectorize trace logo.png --threshold 90 --invert"
	if got != want {
		t.Errorf("commandLine = %q, want %q", got, want)
	}
}
