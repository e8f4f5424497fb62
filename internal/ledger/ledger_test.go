package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(l *Ledger) *Ledger {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	l.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	return l
}

func TestApplyBuy_FreshSymbol(t *testing.T) {
	cases := []struct {
		qty   int
		price float64
	}{
		{1, 0},
		{3, 12.5},
		{100, 0.1},
		{7, 1234.5678},
	}
	for _, c := range cases {
		l := New()
		l.ApplyBuy("AAPL", c.qty, c.price, "Apple", c.price+1)
		p, ok := l.Position("AAPL")
		require.True(t, ok)
		assert.Equal(t, c.qty, p.Quantity)
		assert.Equal(t, c.price, p.AverageCost)
		assert.Equal(t, c.price+1, p.LastPrice)
		assert.Equal(t, "Apple", p.Name)
	}
}

func TestApplyBuy_WeightedAverage(t *testing.T) {
	l := New()
	l.ApplyBuy("AAPL", 10, 100, "AAPL", 100)
	l.ApplyBuy("AAPL", 10, 200, "AAPL", 210)

	p, ok := l.Position("AAPL")
	require.True(t, ok)
	assert.Equal(t, 20, p.Quantity)
	assert.Equal(t, 150.0, p.AverageCost)
	assert.Equal(t, 210.0, p.LastPrice)
}

func TestApplyBuy_RawFloatDivision(t *testing.T) {
	l := New()
	l.ApplyBuy("X", 3, 0.1, "X", 0.1)
	l.ApplyBuy("X", 7, 0.2, "X", 0.2)

	p, _ := l.Position("X")
	assert.Equal(t, (0.1*3+0.2*7)/10, p.AverageCost)
}

func TestApplyBuy_KeepsOriginalName(t *testing.T) {
	l := New()
	l.ApplyBuy("MSFT", 1, 10, "Microsoft", 10)
	l.ApplyBuy("MSFT", 1, 10, "other", 10)
	p, _ := l.Position("MSFT")
	assert.Equal(t, "Microsoft", p.Name)
}

func TestApplySell(t *testing.T) {
	t.Run("oversell removes position", func(t *testing.T) {
		l := New()
		l.ApplyBuy("AAPL", 5, 10, "AAPL", 10)
		l.ApplySell("AAPL", 10, 12)
		_, ok := l.Position("AAPL")
		assert.False(t, ok)
		assert.Equal(t, 0, l.Len())
	})
	t.Run("exact sell removes position", func(t *testing.T) {
		l := New()
		l.ApplyBuy("AAPL", 5, 10, "AAPL", 10)
		l.ApplySell("AAPL", 5, 12)
		_, ok := l.Position("AAPL")
		assert.False(t, ok)
	})
	t.Run("partial sell keeps average cost", func(t *testing.T) {
		l := New()
		l.ApplyBuy("AAPL", 10, 100, "AAPL", 100)
		l.ApplyBuy("AAPL", 10, 200, "AAPL", 200)
		l.ApplySell("AAPL", 15, 300)
		p, ok := l.Position("AAPL")
		require.True(t, ok)
		assert.Equal(t, 5, p.Quantity)
		assert.Equal(t, 150.0, p.AverageCost)
		assert.Equal(t, 200.0, p.LastPrice)
	})
	t.Run("absent symbol is still logged", func(t *testing.T) {
		l := New()
		l.ApplySell("NOPE", 1, 5)
		assert.Equal(t, 0, l.Len())
		require.Len(t, l.Transactions(), 1)
		assert.Equal(t, Sell, l.Transactions()[0].Kind)
	})
}

func TestTransactionLog(t *testing.T) {
	l := fixedClock(New())
	l.ApplyBuy("AAPL", 10, 100, "AAPL", 100)
	l.ApplyBuy("AAPL", 10, 200, "AAPL", 250)
	l.ApplySell("AAPL", 4, 250)

	txs := l.Transactions()
	require.Len(t, txs, 3)

	assert.Equal(t, Buy, txs[0].Kind)
	assert.Equal(t, 100.0, txs[0].Price)
	assert.Equal(t, 200.0, txs[1].Price, "buy records the unit price, not the average")
	assert.Equal(t, Sell, txs[2].Kind)
	assert.Equal(t, 4, txs[2].Quantity)
	assert.Equal(t, 250.0, txs[2].Price)

	assert.True(t, txs[0].Timestamp.Before(txs[1].Timestamp))
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
	assert.Less(t, txs[1].ID, txs[2].ID)

	// the returned slice is a copy
	txs[0].Symbol = "MUTATED"
	assert.Equal(t, "AAPL", l.Transactions()[0].Symbol)
}

func TestLoadAndReset(t *testing.T) {
	l := New()
	l.ApplyBuy("OLD", 1, 1, "OLD", 1)
	l.Load([]Position{
		{Symbol: "TCS", Name: "TCS", Quantity: 2, AverageCost: 10, LastPrice: 11},
		{Symbol: "INFY", Name: "INFY", Quantity: 0, AverageCost: 10, LastPrice: 11},
		{Symbol: "AAPL", Name: "AAPL", Quantity: 1, AverageCost: 5, LastPrice: 4},
	})

	got := l.Positions()
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, "TCS", got[1].Symbol)
	_, ok := l.Position("OLD")
	assert.False(t, ok)
	assert.Len(t, l.Transactions(), 1)

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Transactions())
}
