package ledger

type Summary struct {
	TotalInvestment      float64 `json:"totalInvestment"`
	CurrentValue         float64 `json:"currentValue"`
	TotalGainLoss        float64 `json:"totalGainLoss"`
	TotalGainLossPercent float64 `json:"totalGainLossPercent"`
}

func (p Position) Cost() float64     { return p.AverageCost * float64(p.Quantity) }
func (p Position) Value() float64    { return p.LastPrice * float64(p.Quantity) }
func (p Position) GainLoss() float64 { return p.Value() - p.Cost() }

// GainLossPercent is the price move against average cost; 0 for a zero cost.
func (p Position) GainLossPercent() float64 {
	if p.AverageCost <= 0 {
		return 0
	}
	return (p.LastPrice - p.AverageCost) / p.AverageCost * 100
}

// Totals are summed in symbol order so repeated reads give bit-identical
// results.
func (l *Ledger) TotalInvestment() float64 {
	var total float64
	for _, p := range l.Positions() {
		total += p.Cost()
	}
	return total
}

func (l *Ledger) CurrentValue() float64 {
	var total float64
	for _, p := range l.Positions() {
		total += p.Value()
	}
	return total
}

// Summary is recomputed from the positions on every call.
func (l *Ledger) Summary() Summary {
	s := Summary{
		TotalInvestment: l.TotalInvestment(),
		CurrentValue:    l.CurrentValue(),
	}
	s.TotalGainLoss = s.CurrentValue - s.TotalInvestment
	if s.TotalInvestment > 0 {
		s.TotalGainLossPercent = s.TotalGainLoss / s.TotalInvestment * 100
	}
	return s
}
