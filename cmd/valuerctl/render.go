package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// printMarkdown renders md for the terminal. GLAMOUR_STYLE selects the style;
// on any rendering error the raw markdown is printed.
func printMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithEnvironmentConfig(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, out)
}

func valuationMarkdown(v *domain.Valuation) string {
	var b strings.Builder
	b.WriteString("# Portfolio valuation\n\n")
	b.WriteString("| Name | Ticker | Exchange | Shares | Price | Value | Weight |\n")
	b.WriteString("|:---|:---|:---|---:|---:|---:|---:|\n")
	for _, h := range v.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s | %s%% |\n",
			escapeCell(h.Name), h.Ticker, h.Exchange, h.Shares,
			optional(h.PricePerShare), optional(h.Value), h.Weight.String())
	}
	fmt.Fprintf(&b, "\n**Total:** %s\n", domain.FormatMoney(v.Total, domain.TargetCurrency))
	return b.String()
}

func exchangesMarkdown(records []domain.ExchangeRecord) string {
	var b strings.Builder
	b.WriteString("# Exchanges\n\n")
	b.WriteString("| Code | Name | Suffix | Currency |\n")
	b.WriteString("|:---|:---|:---|:---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Code, escapeCell(r.Name), r.Suffix, r.Currency)
	}
	return b.String()
}

func optional(d *domain.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
