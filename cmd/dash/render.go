package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"priceboard/internal/portfolio"
	"priceboard/internal/series"
)

// summaryMarkdown renders the book as a markdown report: status line, totals,
// one row per holding, then the per-symbol price errors if any.
func summaryMarkdown(book *portfolio.Book, status string, priceErrors map[string]string) string {
	var b strings.Builder
	t := book.Totals()

	fmt.Fprintf(&b, "# Portfolio\n\n_%s_\n\n", status)
	b.WriteString("| Total value | Total cost | PnL | PnL % |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n",
		portfolio.FormatUSD(t.Value), portfolio.FormatUSD(t.Cost), portfolio.FormatUSD(t.PnL), portfolio.FormatPct(t.PnLPct))

	b.WriteString("## Holdings\n\n")
	b.WriteString("| Asset | Type | Qty | Entry | Current | Value | PnL | PnL % | Allocation |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, a := range book.Allocations() {
		h := a.Holding
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			h.Label(), h.Type, h.Qty.String(),
			portfolio.FormatUSD(h.Entry), portfolio.FormatUSD(h.Current), portfolio.FormatUSD(a.Value),
			portfolio.FormatUSD(h.PnL()), portfolio.FormatPct(h.PnLPct()), portfolio.FormatPct(a.Pct))
	}

	if len(priceErrors) > 0 {
		b.WriteString("\n## Price errors\n\n")
		syms := make([]string, 0, len(priceErrors))
		for s := range priceErrors {
			syms = append(syms, s)
		}
		sort.Strings(syms)
		for _, s := range syms {
			fmt.Fprintf(&b, "- **%s**: %s\n", s, priceErrors[s])
		}
	}
	return b.String()
}

// marketMarkdown summarizes the two series by their last points.
func marketMarkdown(p series.Payload) string {
	var b strings.Builder
	b.WriteString("# Market\n\n")
	if p.Stale {
		b.WriteString("> stale data\n\n")
	}
	if p.Error != "" {
		fmt.Fprintf(&b, "_%s_\n\n", p.Error)
	}
	b.WriteString("| Series | Points | Last | Value |\n|---|---:|---|---:|\n")
	if n := len(p.SPY); n > 0 {
		last := p.SPY[n-1]
		fmt.Fprintf(&b, "| SPY | %d | %s | %.2f |\n", n, last.Time, last.Value)
	} else {
		b.WriteString("| SPY | 0 | - | - |\n")
	}
	if n := len(p.BTC); n > 0 {
		last := p.BTC[n-1]
		fmt.Fprintf(&b, "| BTC | %d | %d | %.2f |\n", n, last.Time, last.Value)
	} else {
		b.WriteString("| BTC | 0 | - | - |\n")
	}
	return b.String()
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning, cannot render markdown:", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
