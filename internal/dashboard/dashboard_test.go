package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktracker/internal/ledger"
)

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$250.00", Amount(250, "USD"))
	assert.Equal(t, "$1,234.57", Amount(1234.567, "USD"))
	assert.Equal(t, "+$40.00", Signed(40, "USD"))
	assert.Equal(t, "+$0.00", Signed(0, "USD"))
	assert.Equal(t, "-$12.50", Signed(-12.5, "USD"))
	assert.Equal(t, "+8.89%", Percent(8.888888))
	assert.Equal(t, "-2.50%", Percent(-2.5))
	assert.Equal(t, "+0.00%", Percent(0))
}

func TestMarkdown(t *testing.T) {
	l := ledger.New()
	l.ApplyBuy("MSFT", 5, 50, "MSFT", 50)
	l.ApplyBuy("AAPL", 2, 100, "Apple", 90)

	v := View{
		Username:     "erin",
		Positions:    l.Positions(),
		Summary:      l.Summary(),
		Transactions: l.Transactions(),
	}
	md := v.Markdown()
	assert.Contains(t, md, "Welcome, erin")
	assert.Contains(t, md, "| $450.00 | $430.00 | -$20.00 (-4.44%) |")
	assert.Contains(t, md, "| AAPL | Apple | 2 | $100.00 | $90.00 | $180.00 | -$20.00 (-10.00%) |")
	assert.Contains(t, md, "| MSFT | MSFT | 5 | $50.00 | $50.00 | $250.00 | +$0.00 (+0.00%) |")
	assert.Contains(t, md, "| BUY | AAPL | 2 | $100.00 |")
}

func TestMarkdown_Empty(t *testing.T) {
	md := View{Username: "x", Transactions: nil}.Markdown()
	assert.Contains(t, md, "| $0.00 | $0.00 | +$0.00 (+0.00%) |")
	assert.Contains(t, md, "No stocks in your portfolio yet")
	assert.NotContains(t, md, "Recent Transactions")
}

func TestRender(t *testing.T) {
	v := View{
		Username: "erin",
		Positions: []ledger.Position{
			{Symbol: "MSFT", Name: "MSFT", Quantity: 1, AverageCost: 1, LastPrice: 2},
		},
		Transactions: []ledger.Transaction{{Kind: ledger.Buy, Symbol: "MSFT", Quantity: 1, Price: 1, Timestamp: time.Now()}},
	}
	out, err := v.Render(100)
	require.NoError(t, err)
	assert.Contains(t, out, "MSFT")
}

func TestAmount_UnknownCurrency(t *testing.T) {
	assert.Equal(t, "3.50 XYZ", Amount(3.5, "XYZ"))
}
