// Package dashboard renders a session's holdings as markdown for the
// terminal.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"stocktracker/internal/ledger"
)

type View struct {
	Username     string
	Currency     string
	Positions    []ledger.Position
	Summary      ledger.Summary
	Transactions []ledger.Transaction
}

func (v View) currency() string {
	if v.Currency == "" {
		return money.USD
	}
	return v.Currency
}

// Amount formats a value in the given currency, e.g. "$1,250.00".
func Amount(value float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return decimal.NewFromFloat(value).StringFixed(2) + " " + currency
	}
	minor := decimal.NewFromFloat(value).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// Signed prefixes non-negative amounts with "+".
func Signed(value float64, currency string) string {
	s := Amount(value, currency)
	if value >= 0 {
		return "+" + s
	}
	return s
}

func Percent(p float64) string {
	s := decimal.NewFromFloat(p).StringFixed(2) + "%"
	if p >= 0 {
		return "+" + s
	}
	return s
}

func (v View) Markdown() string {
	cur := v.currency()
	var b strings.Builder

	fmt.Fprintf(&b, "# StockTracker\n\nWelcome, %s\n\n", v.Username)
	b.WriteString("| Total Investment | Current Value | Total Gain/Loss |\n|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s (%s) |\n\n",
		Amount(v.Summary.TotalInvestment, cur),
		Amount(v.Summary.CurrentValue, cur),
		Signed(v.Summary.TotalGainLoss, cur),
		Percent(v.Summary.TotalGainLossPercent))

	b.WriteString("## Your Portfolio\n\n")
	if len(v.Positions) == 0 {
		b.WriteString("No stocks in your portfolio yet. Use `buy` to add one.\n\n")
	} else {
		b.WriteString("| Symbol | Name | Quantity | Avg. Buy Price | Current Price | Total Value | Gain/Loss |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
		for _, p := range v.Positions {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %s (%s) |\n",
				p.Symbol, p.Name, p.Quantity,
				Amount(p.AverageCost, cur),
				Amount(p.LastPrice, cur),
				Amount(p.Value(), cur),
				Signed(p.GainLoss(), cur),
				Percent(p.GainLossPercent()))
		}
		b.WriteString("\n")
	}

	if len(v.Transactions) > 0 {
		b.WriteString("## Recent Transactions\n\n| Time | Type | Symbol | Quantity | Price |\n|---|---|---|---:|---:|\n")
		for _, t := range v.Transactions {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				t.Timestamp.Format("2006-01-02 15:04:05"), strings.ToUpper(string(t.Kind)), t.Symbol, t.Quantity, Amount(t.Price, cur))
		}
	}
	return b.String()
}

// Render styles the markdown for a terminal of the given width.
func (v View) Render(width int) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(v.Markdown())
}
