package sim

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/config"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	mi, _ := m.Update(msg)
	return mi.(tuiModel)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	ts := time.Unix(0, 0).UTC()
	if err := w.WriteStatus(telemetry.StatusRow{Tick: 3, EndToEndSINRDB: math.Inf(-1), LinkDown: true, Timestamp: ts}); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	lm, ok := p.msgs[0].(logMsg)
	if !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[0])
	}
	if !strings.Contains(lm.line, "LINK DOWN") {
		t.Fatalf("expected link down marker in %q", lm.line)
	}
	if _, ok := p.msgs[1].(statusMsg); !ok {
		t.Fatalf("expected statusMsg, got %T", p.msgs[1])
	}
	if err := w.WriteLinks([]telemetry.LinkRow{{From: "mobile", To: "operator"}}); err != nil {
		t.Fatalf("WriteLinks: %v", err)
	}
	if _, ok := p.msgs[2].(linksMsg); !ok {
		t.Fatalf("expected linksMsg, got %T", p.msgs[2])
	}
	if err := w.WriteDeployment(telemetry.DeploymentRow{RelayID: 1, Timestamp: ts}); err != nil {
		t.Fatalf("WriteDeployment: %v", err)
	}
	if _, ok := p.msgs[3].(deploymentMsg); !ok {
		t.Fatalf("expected deploymentMsg, got %T", p.msgs[3])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[4].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[4])
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTUIModel(config.Default())
	m = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 80})
	m = update(t, m, logMsg{line: "one two three four five six"})
	if n := m.vp.TotalLineCount(); n != 1 {
		t.Fatalf("expected single line before wrap, got %d", n)
	}
	m = update(t, m, keyRune('w'))
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	if n := m.vp.TotalLineCount(); n < 2 {
		t.Fatalf("expected wrapped content, got %d lines", n)
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTUIModel(nil)
	m.vp.Height = 1
	m.vp.Width = 20
	m = update(t, m, logMsg{line: "l1"})
	m = update(t, m, logMsg{line: "l2"})
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	m = update(t, m, keyRune('s'))
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	m = update(t, m, logMsg{line: "l3"})
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	m = update(t, m, keyRune('s'))
	if !m.autoscroll {
		t.Fatalf("autoscroll should be on")
	}
	if want := len(m.logs) - m.vp.Height; m.vp.YOffset != want {
		t.Fatalf("expected YOffset %d, got %d", want, m.vp.YOffset)
	}
}

func TestLinksTable(t *testing.T) {
	m := newTUIModel(nil)
	m = update(t, m, linksMsg{rows: []telemetry.LinkRow{
		{Index: 0, From: "mobile", To: "relay-1", SINRDB: 20},
		{Index: 1, From: "relay-1", To: "operator", SINRDB: math.Inf(-1), Down: true},
	}})
	rows := m.links.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 link rows, got %d", len(rows))
	}
	if rows[1][1] != "relay-1 -> operator" || rows[1][4] != "-inf" {
		t.Fatalf("unexpected row %v", rows[1])
	}
}

func TestMapView(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Operator = chain.Position{X: 50, Y: 50}
	m := newTUIModel(cfg)
	m = update(t, m, keyRune('m'))
	if !m.showMap {
		t.Fatalf("map not toggled")
	}
	if !strings.Contains(m.View(), "no interference grid") {
		t.Fatalf("expected placeholder without grid")
	}

	g, err := environment.NewGridWithSources(environment.GridConfig{Width: 3, Height: 3, CellSizeM: 100},
		[]environment.Source{{Cell: environment.Cell{X: 2, Y: 0}, PowerDBm: -95}})
	if err != nil {
		t.Fatalf("NewGridWithSources: %v", err)
	}
	m = update(t, m, gridMsg{grid: g})
	m = update(t, m, statusMsg{telemetry.StatusRow{MobileX: 250, MobileY: 250}})
	m = update(t, m, deploymentMsg{row: telemetry.DeploymentRow{RelayID: 1, X: 150, Y: 150}})
	lines := strings.Split(m.renderMap(), "\n")
	want := []string{"..D", ".R.", "O.x"}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("map row %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTUIModel(nil)
	m = update(t, m, keyRune('?'))
	if !strings.Contains(m.View(), "Key Bindings") {
		t.Fatalf("expected help view")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.help {
		t.Fatalf("help should close on esc")
	}
}
