package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/ledger"
)

//go:embed schema.sql
var schema string

// Repo stores users, holdings and quotes. Queries are written with ?
// placeholders and rebound for the driver, so the same code runs on
// postgres and sqlite3.
type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) q(query string) string {
	return r.db.Rebind(query)
}

// lockRows is appended to selects inside write transactions; sqlite locks
// the whole database instead.
func (r *Repo) lockRows() string {
	if r.db.DriverName() == "postgres" {
		return " FOR UPDATE"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (r *Repo) CreateUser(ctx context.Context, username, passwordHash string) (UserRecord, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.q(`SELECT COUNT(*) FROM users WHERE username = ?`), username); err != nil {
		return UserRecord{}, err
	}
	if n > 0 {
		return UserRecord{}, ErrUsernameTaken
	}

	u := UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return UserRecord{}, ErrUsernameTaken
		}
		return UserRecord{}, err
	}
	return u, nil
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (UserRecord, error) {
	var u UserRecord
	err := r.db.GetContext(ctx, &u, r.q(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, ErrNotFound
	}
	return u, err
}

const holdingColumns = `p.username, p.symbol, COALESCE(s.name, p.symbol) AS name, p.quantity, p.purchase_price, p.last_updated`

func (r *Repo) GetHoldings(ctx context.Context, username string) ([]Holding, error) {
	rows, err := r.db.QueryxContext(ctx, r.q(`SELECT `+holdingColumns+` FROM portfolio p LEFT JOIN stocks s ON s.symbol = p.symbol WHERE p.username = ? ORDER BY p.symbol`), username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Holding{}
	for rows.Next() {
		var h Holding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r *Repo) getHolding(ctx context.Context, tx *sqlx.Tx, username, symbol string) (Holding, error) {
	var h Holding
	err := tx.GetContext(ctx, &h, r.q(`SELECT username, symbol, symbol AS name, quantity, purchase_price, last_updated FROM portfolio WHERE username = ? AND symbol = ?`+r.lockRows()), username, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return Holding{}, ErrNotFound
	}
	return h, err
}

// AddStock buys quantity shares at price, folding them into an existing
// holding with the weighted-average cost rule.
func (r *Repo) AddStock(ctx context.Context, username, symbol string, quantity int, price float64) (Holding, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Holding{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	h, err := r.getHolding(ctx, tx, username, symbol)
	switch {
	case errors.Is(err, ErrNotFound):
		h = Holding{Username: username, Symbol: symbol, Name: symbol, Quantity: quantity, PurchasePrice: price, LastUpdated: now}
		r.log.Infof("inserting %s for %s: quantity %d avg %v", symbol, username, quantity, price)
		_, err = tx.ExecContext(ctx, r.q(`INSERT INTO portfolio (username, symbol, quantity, purchase_price, last_updated) VALUES (?, ?, ?, ?, ?)`),
			username, symbol, quantity, price, now)
	case err == nil:
		h.PurchasePrice = ledger.MergeAverageCost(h.PurchasePrice, h.Quantity, price, quantity)
		h.Quantity += quantity
		h.LastUpdated = now
		r.log.Infof("updating %s for %s: quantity %d avg %v", symbol, username, h.Quantity, h.PurchasePrice)
		_, err = tx.ExecContext(ctx, r.q(`UPDATE portfolio SET quantity = ?, purchase_price = ?, last_updated = ? WHERE username = ? AND symbol = ?`),
			h.Quantity, h.PurchasePrice, now, username, symbol)
	}
	if err != nil {
		return Holding{}, err
	}
	if err := tx.Commit(); err != nil {
		return Holding{}, err
	}
	return h, nil
}

// SellStock removes quantity shares. Unlike the client ledger it refuses to
// oversell. A holding that reaches zero is deleted; the returned holding then
// has Quantity 0.
func (r *Repo) SellStock(ctx context.Context, username, symbol string, quantity int) (Holding, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Holding{}, err
	}
	defer tx.Rollback()

	h, err := r.getHolding(ctx, tx, username, symbol)
	if err != nil {
		return Holding{}, err
	}
	if h.Quantity < quantity {
		return Holding{}, ErrInsufficientShares
	}

	h.Quantity -= quantity
	h.LastUpdated = time.Now().UTC()
	if h.Quantity == 0 {
		_, err = tx.ExecContext(ctx, r.q(`DELETE FROM portfolio WHERE username = ? AND symbol = ?`), username, symbol)
	} else {
		_, err = tx.ExecContext(ctx, r.q(`UPDATE portfolio SET quantity = ?, last_updated = ? WHERE username = ? AND symbol = ?`),
			h.Quantity, h.LastUpdated, username, symbol)
	}
	if err != nil {
		return Holding{}, err
	}
	if err := tx.Commit(); err != nil {
		return Holding{}, err
	}
	return h, nil
}

func (r *Repo) GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	var row struct {
		Price     decimal.Decimal `db:"price"`
		Timestamp time.Time       `db:"timestamp"`
	}
	err := r.db.GetContext(ctx, &row, r.q(`SELECT price, timestamp FROM price_history WHERE symbol = ? ORDER BY timestamp DESC LIMIT 1`), symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, time.Time{}, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return row.Price, row.Timestamp, nil
}

func (r *Repo) UpsertPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO price_history (symbol, price, timestamp) VALUES (?, ?, ?)`), symbol, price.StringFixed(4), ts.UTC())
	return err
}

// GetAllSymbols lists every symbol the refresher should keep quoted: the
// known stocks plus anything held in a portfolio.
func (r *Repo) GetAllSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT symbol FROM stocks UNION SELECT DISTINCT symbol FROM portfolio ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan symbol failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *Repo) EnsureStockExists(ctx context.Context, symbol, name string) error {
	_, err := r.db.ExecContext(ctx, r.q(`INSERT INTO stocks (symbol, name) VALUES (?, ?) ON CONFLICT (symbol) DO NOTHING`), symbol, name)
	return err
}
