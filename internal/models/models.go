package models

// Credentials is the body of both auth endpoints.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type User struct {
	ID       string `db:"id" json:"id,omitempty"`
	Email    string `db:"email" json:"email,omitempty"`
	Username string `db:"username" json:"username"`
}

// Stock is one portfolio entry on the wire. The portfolio snapshot is a map
// keyed by symbol, so Symbol may be empty there.
type Stock struct {
	Symbol       string  `json:"symbol,omitempty"`
	Name         string  `json:"name,omitempty"`
	Quantity     int     `json:"quantity"`
	AvgBuyPrice  float64 `json:"avgBuyPrice"`
	CurrentPrice float64 `json:"currentPrice,omitempty"`
}
