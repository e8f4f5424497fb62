package ledger

import (
	"sort"
	"time"

	"stocktracker/internal/id"
)

type Kind string

const (
	Buy  Kind = "buy"
	Sell Kind = "sell"
)

type Position struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	AverageCost float64 `json:"avgBuyPrice"`
	LastPrice   float64 `json:"currentPrice"`
}

type Transaction struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger holds the positions and trade log of one session. It is not safe for
// concurrent mutation; the owning session serializes calls.
type Ledger struct {
	positions map[string]Position
	log       []Transaction
	now       func() time.Time
}

func New() *Ledger {
	return &Ledger{positions: map[string]Position{}, now: time.Now}
}

// MergeAverageCost folds addQty units bought at price into a holding of qty
// units at avg. The division is raw float64 with no rounding.
func MergeAverageCost(avg float64, qty int, price float64, addQty int) float64 {
	return (avg*float64(qty) + price*float64(addQty)) / float64(qty+addQty)
}

func (l *Ledger) ApplyBuy(symbol string, quantity int, unitPrice float64, name string, currentPrice float64) {
	if p, ok := l.positions[symbol]; ok {
		p.AverageCost = MergeAverageCost(p.AverageCost, p.Quantity, unitPrice, quantity)
		p.Quantity += quantity
		p.LastPrice = currentPrice
		l.positions[symbol] = p
	} else {
		l.positions[symbol] = Position{
			Symbol:      symbol,
			Name:        name,
			Quantity:    quantity,
			AverageCost: unitPrice,
			LastPrice:   currentPrice,
		}
	}
	l.record(Buy, symbol, quantity, unitPrice)
}

// ApplySell trusts its input: selling more than is held removes the position
// rather than failing. The average cost of a partially sold position is kept.
func (l *Ledger) ApplySell(symbol string, quantity int, currentPrice float64) {
	if p, ok := l.positions[symbol]; ok {
		if left := p.Quantity - quantity; left <= 0 {
			delete(l.positions, symbol)
		} else {
			p.Quantity = left
			l.positions[symbol] = p
		}
	}
	l.record(Sell, symbol, quantity, currentPrice)
}

func (l *Ledger) record(kind Kind, symbol string, quantity int, price float64) {
	ts := l.now()
	l.log = append(l.log, Transaction{
		ID:        id.New(ts),
		Kind:      kind,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Timestamp: ts,
	})
}

// Load replaces every position with the given snapshot. The trade log is left
// alone.
func (l *Ledger) Load(snapshot []Position) {
	l.positions = make(map[string]Position, len(snapshot))
	for _, p := range snapshot {
		if p.Quantity <= 0 {
			continue
		}
		l.positions[p.Symbol] = p
	}
}

func (l *Ledger) Reset() {
	l.positions = map[string]Position{}
	l.log = nil
}

func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	return p, ok
}

// Positions returns the holdings ordered by symbol.
func (l *Ledger) Positions() []Position {
	res := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	return res
}

func (l *Ledger) Len() int { return len(l.positions) }

func (l *Ledger) Transactions() []Transaction {
	res := make([]Transaction, len(l.log))
	copy(res, l.log)
	return res
}
