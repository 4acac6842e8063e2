package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"perpscreener/internal/screener/engine"
)

// renderer prints each cycle report as plain text. It throttles redraws to
// the configured refresh rate so a fast cycle interval does not flood the
// terminal.
type renderer struct {
	mu          sync.Mutex
	w           io.Writer
	refreshRate time.Duration
	lastRender  time.Time
}

func newRenderer(w io.Writer, refreshRate time.Duration) *renderer {
	return &renderer{w: w, refreshRate: refreshRate}
}

func (r *renderer) Render(report engine.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastRender) < r.refreshRate {
		return
	}
	r.lastRender = time.Now()

	fmt.Fprintf(r.w, "\n=== %s ===\n", report.At.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\t24H VOLUME\t24H %")
	for _, e := range report.TopVolume {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%+.2f%%\n",
			e.Symbol, formatNumber(e.Price, 4), formatNumber(e.Volume24h, 0), e.Change24hPct)
	}
	tw.Flush()

	if len(report.Alerts) > 0 {
		fmt.Fprintln(r.w, "\nALERTS")
		for _, a := range report.Alerts {
			fmt.Fprintf(r.w, "  [%s] %s (score %.1f)\n", a.Time.Format("15:04:05"), a.Summary, a.Score)
		}
	}
	if len(report.Degraded) > 0 {
		fmt.Fprintf(r.w, "\ndegraded symbols: %s\n", strings.Join(report.Degraded, ", "))
	}
}

// formatNumber renders a float with thousand separators.
func formatNumber(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)

	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}
