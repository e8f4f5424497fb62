package database

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInsufficientShares = errors.New("cannot sell more shares than owned")
)

type UserRecord struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Holding struct {
	Username      string    `db:"username" json:"-"`
	Symbol        string    `db:"symbol" json:"symbol"`
	Name          string    `db:"name" json:"name"`
	Quantity      int       `db:"quantity" json:"quantity"`
	PurchasePrice float64   `db:"purchase_price" json:"avgBuyPrice"`
	LastUpdated   time.Time `db:"last_updated" json:"-"`
}
