package sim

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/config"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

type statusMsg struct{ telemetry.StatusRow }

type linksMsg struct{ rows []telemetry.LinkRow }

// deploymentMsg carries a deployment log line and row data.
type deploymentMsg struct {
	line string
	row  telemetry.DeploymentRow
}

// adminMsg reports admin server status.
type adminMsg struct{ active bool }

type gridMsg struct{ grid *environment.Grid }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.2
	linkTableHeight     = 6
)

var (
	indicatorOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	indicatorOff = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// TUIWriter renders chain reports using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI interrupts the process unless Close was called first.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteStatus implements StatusWriter.
func (w *TUIWriter) WriteStatus(row telemetry.StatusRow) error {
	sc := sinrColor(row.EndToEndSINRDB, row.LinkDown)
	line := fmt.Sprintf("%s[%s]%s %stick=%d%s %srelays=%d%s %smobile=(%.0f,%.0f)%s %smax_hop=%s%s %ssinr=%s dB capacity=%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.Tick, colorReset,
		colorMagenta, row.RelayCount, colorReset,
		colorCyan, row.MobileX, row.MobileY, colorReset,
		colorYellow, formatDistance(row.MaxHopM), colorReset,
		sc, formatSINR(row.EndToEndSINRDB), formatCapacity(row.EndToEndCapacityBps), colorReset)
	if row.LinkDown {
		line += fmt.Sprintf(" %sLINK DOWN%s", colorRed, colorReset)
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(statusMsg{row})
	return nil
}

// WriteStatuses outputs multiple status rows.
func (w *TUIWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	for _, r := range rows {
		_ = w.WriteStatus(r)
	}
	return nil
}

// WriteLinks replaces the hop table.
func (w *TUIWriter) WriteLinks(rows []telemetry.LinkRow) error {
	w.program.Send(linksMsg{rows: append([]telemetry.LinkRow(nil), rows...)})
	return nil
}

// WriteDeployment implements DeploymentWriter.
func (w *TUIWriter) WriteDeployment(row telemetry.DeploymentRow) error {
	line := fmt.Sprintf("%s[%s]%s %sRELAY%s id=%d tick=%d at=(%.0f,%.0f) hop %s -> %s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset, row.RelayID, row.Tick, row.X, row.Y,
		formatDistance(row.HopBeforeM), formatDistance(row.HopAfterM))
	w.program.Send(deploymentMsg{line: line, row: row})
	return nil
}

// SetAdminStatus updates the admin server indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetGrid sets the interference grid drawn by the map view.
func (w *TUIWriter) SetGrid(g *environment.Grid) {
	w.program.Send(gridMsg{grid: g})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	links        table.Model
	vp           viewport.Model
	depVP        viewport.Model
	logs         []string
	depLogs      []string
	status       telemetry.StatusRow
	haveStatus   bool
	relays       map[int]chain.Position
	grid         *environment.Grid
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	showMap      bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Config", Width: 16},
		{Title: "Value", Width: 12},
		{Title: "Config", Width: 16},
		{Title: "Value", Width: 12},
	}
	hop := "-"
	if cfg.Policy.Kind == "" || cfg.Policy.Kind == string(chain.PolicyDistance) {
		hop = formatDistance(cfg.Policy.MaxHopM)
	}
	rows := []table.Row{
		{"Frequency", formatHz(cfg.Channel.FrequencyHz), "Policy", cfg.Policy.Kind},
		{"Bandwidth", formatHz(cfg.Channel.BandwidthHz), "Max Hop", hop},
		{"Tx Power", fmt.Sprintf("%.1f dBm", cfg.Channel.TransmitPowerDBm), "Fading", cfg.Fading.Kind},
		{"Ticks", strconv.Itoa(cfg.Simulation.Ticks), "Interference", cfg.Interference.Mode},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))

	linkCols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Hop", Width: 20},
		{Title: "Distance", Width: 10},
		{Title: "Rx", Width: 11},
		{Title: "SINR", Width: 9},
		{Title: "Capacity", Width: 14},
	}
	lt := table.New(table.WithColumns(linkCols), table.WithHeight(linkTableHeight))

	return tuiModel{
		cfg:        cfg,
		table:      t,
		links:      lt,
		vp:         viewport.New(0, 0),
		depVP:      viewport.New(0, 0),
		relays:     make(map[int]chain.Position),
		autoscroll: true,
	}
}

func formatHz(v float64) string {
	return humanize.SIWithDigits(v, 2, "Hz")
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.links.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.depVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshDeployments()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshDeployments()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.depVP.GotoBottom()
			}
			return m, nil
		case "m":
			m.showMap = !m.showMap
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.depVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.depVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.depVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.depVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.depVP, _ = m.depVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case statusMsg:
		m.status = msg.StatusRow
		m.haveStatus = true
	case linksMsg:
		rows := make([]table.Row, 0, len(msg.rows))
		for _, r := range msg.rows {
			rows = append(rows, table.Row{
				strconv.Itoa(r.Index),
				r.From + " -> " + r.To,
				formatDistance(r.DistanceM),
				fmt.Sprintf("%.1f dBm", r.ReceivedPowerDBm),
				formatSINR(r.SINRDB),
				formatCapacity(r.CapacityBps),
			})
		}
		m.links.SetRows(rows)
	case deploymentMsg:
		m.depLogs = appendCapped(m.depLogs, msg.line)
		m.relays[msg.row.RelayID] = chain.Position{X: msg.row.X, Y: msg.row.Y}
		m.updateViewportHeight()
		m.refreshDeployments()
	case adminMsg:
		m.admin = msg.active
	case gridMsg:
		m.grid = msg.grid
	}
	return m, nil
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	depLines := len(m.depLogs)
	if depLines == 0 {
		depLines = 1
	}
	if limit := m.maxSectionLines(); depLines > limit {
		depLines = limit
	}
	m.depVP.Height = depLines

	linksHeight := lipgloss.Height(m.links.View())
	// four dividers, two section titles
	h := m.height - m.headerHeight - linksHeight - (1 + m.depVP.Height) - bottomHeight - 5
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
		m.depVP.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshDeployments() {
	content := "none"
	if len(m.depLogs) > 0 {
		content = m.wrapLines(m.depLogs, m.depVP.Width)
	}
	m.depVP.SetContent(content)
	if m.autoscroll {
		m.depVP.GotoBottom()
	}
}

func (m tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap || width <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, wordwrap.String(l, width))
	}
	return strings.Join(out, "\n")
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := dividerStyle.Render(strings.Repeat("─", m.vp.Width))
	if m.showMap {
		return strings.Join([]string{m.header, divider, m.renderMap(), divider, m.renderBottom()}, "\n")
	}
	return strings.Join([]string{
		m.header,
		divider,
		m.links.View(),
		divider,
		"Log:",
		m.vp.View(),
		divider,
		"Deployments:",
		m.depVP.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.table.View()
}

// marks places the operator, the deployed relays and the last reported
// mobile position on the map.
func (m tuiModel) marks() []environment.Mark {
	marks := []environment.Mark{{Position: m.cfg.Simulation.Operator, Symbol: 'O'}}
	for _, p := range m.relays {
		marks = append(marks, environment.Mark{Position: p, Symbol: 'R'})
	}
	if m.haveStatus {
		marks = append(marks, environment.Mark{Position: chain.Position{X: m.status.MobileX, Y: m.status.MobileY}, Symbol: 'D'})
	}
	return marks
}

func (m tuiModel) renderMap() string {
	if m.grid == nil {
		return "no interference grid configured"
	}
	legend := "D mobile  R relay  O operator  x interference source"
	return strings.TrimRight(m.grid.Render(m.marks()), "\n") + "\n" + legend
}

func indicator(on bool) string {
	if on {
		return indicatorOn.Render("●")
	}
	return indicatorOff.Render("●")
}

func (m tuiModel) renderBottom() string {
	state := "waiting for first report"
	if m.haveStatus {
		s := m.status
		state = fmt.Sprintf("%sCHAIN%s tick=%d relays=%d max_hop=%s sinr=%s dB capacity=%s",
			colorBlue, colorReset, s.Tick, s.RelayCount, formatDistance(s.MaxHopM),
			formatSINR(s.EndToEndSINRDB), formatCapacity(s.EndToEndCapacityBps))
		if s.LinkDown {
			state += " " + downStyle.Render("LINK DOWN")
		}
	}
	return fmt.Sprintf("%s | Admin %s | Wrap %s | Scroll %s | Map %s | Help %s",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.showMap), indicator(m.help))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle line wrap",
		" s  toggle auto-scroll",
		" m  toggle map view",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
