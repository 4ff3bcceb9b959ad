// ColorStdoutWriter prints human-friendly, colorized chain reports to STDOUT.
package sim

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"relaychain-sim/internal/config"
	"relaychain-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// weakSINRDB marks links that still work but have little margin.
const weakSINRDB = 10

// ColorStdoutWriter prints status, link and deployment rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
	mu   sync.Mutex
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	c := w.cfg
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frequency:\t%s\n", humanize.SIWithDigits(c.Channel.FrequencyHz, 2, "Hz"))
	fmt.Fprintf(tw, "Bandwidth:\t%s\n", humanize.SIWithDigits(c.Channel.BandwidthHz, 2, "Hz"))
	fmt.Fprintf(tw, "Transmit Power:\t%.1f dBm\n", c.Channel.TransmitPowerDBm)
	fmt.Fprintf(tw, "Policy:\t%s\n", c.Policy.Kind)
	switch c.Policy.Kind {
	case "distance", "":
		measure := c.Policy.Measure
		if measure == "" {
			measure = "operator"
		}
		fmt.Fprintf(tw, "Max Hop:\t%s (%s)\n", humanize.SIWithDigits(c.Policy.MaxHopM, 2, "m"), measure)
	default:
		fmt.Fprintf(tw, "Min Receive Power:\t%.1f dBm\n", c.Policy.MinReceiveDBm)
	}
	fmt.Fprintf(tw, "Fading:\t%s\n", c.Fading.Kind)
	fmt.Fprintf(tw, "Interference:\t%s\n", c.Interference.Mode)
	fmt.Fprintf(tw, "Ticks:\t%s\n", humanize.Comma(int64(c.Simulation.Ticks)))
	if c.Scenario != "" {
		fmt.Fprintf(tw, "Scenario:\t%s\n", c.Scenario)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func sinrColor(sinr float64, down bool) string {
	switch {
	case down || math.IsInf(sinr, -1):
		return colorRed
	case sinr < weakSINRDB:
		return colorYellow
	}
	return colorGreen
}

func formatSINR(sinr float64) string {
	if math.IsInf(sinr, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%.2f", sinr)
}

func formatCapacity(bps float64) string {
	return humanize.SIWithDigits(bps, 2, "bit/s")
}

func formatDistance(m float64) string {
	return humanize.SIWithDigits(m, 2, "m")
}

// WriteStatus outputs a single status row in colorized format.
func (w *ColorStdoutWriter) WriteStatus(row telemetry.StatusRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	sc := sinrColor(row.EndToEndSINRDB, row.LinkDown)
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorBlue, row.Tick, colorReset)
	fmt.Fprintf(w.out, "%srelays=%d%s ", colorMagenta, row.RelayCount, colorReset)
	fmt.Fprintf(w.out, "%smobile=(%.0f,%.0f)%s ", colorCyan, row.MobileX, row.MobileY, colorReset)
	fmt.Fprintf(w.out, "%smax_hop=%s%s ", colorYellow, formatDistance(row.MaxHopM), colorReset)
	fmt.Fprintf(w.out, "%ssinr=%s dB%s ", sc, formatSINR(row.EndToEndSINRDB), colorReset)
	fmt.Fprintf(w.out, "%scapacity=%s%s", sc, formatCapacity(row.EndToEndCapacityBps), colorReset)
	if row.LinkDown {
		fmt.Fprintf(w.out, " %sLINK DOWN%s", colorRed, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteLinks prints the hops of a reported tick as an indented table.
func (w *ColorStdoutWriter) WriteLinks(rows []telemetry.LinkRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s#%d%s\t%s -> %s\t%s\t%.1f dBm\t%s%s dB%s\t%s\n",
			colorGray, r.Index, colorReset, r.From, r.To,
			formatDistance(r.DistanceM), r.ReceivedPowerDBm,
			sinrColor(r.SINRDB, r.Down), formatSINR(r.SINRDB), colorReset,
			formatCapacity(r.CapacityBps))
	}
	return tw.Flush()
}

// WriteDeployment prints a relay deployment.
func (w *ColorStdoutWriter) WriteDeployment(row telemetry.DeploymentRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s[%s]%s %sRELAY%s id=%d tick=%d at=(%.0f,%.0f) relays=%d hop %s -> %s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset, row.RelayID, row.Tick, row.X, row.Y, row.RelayCount,
		formatDistance(row.HopBeforeM), formatDistance(row.HopAfterM))
	return nil
}
