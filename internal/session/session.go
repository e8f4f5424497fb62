// Package session owns the per-user state of the tracker: who is logged in
// and their ledger. A Session is created by Service.Login or Service.Signup
// and torn down by Logout; nothing here is global.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"stocktracker/internal/ledger"
	"stocktracker/internal/models"
)

const minPasswordLen = 6

// API is the slice of the remote service a session needs.
type API interface {
	Signup(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	Price(ctx context.Context, symbol string) (float64, error)
	Portfolio(ctx context.Context, username string) (map[string]models.Stock, error)
	AddStock(ctx context.Context, username string, s models.Stock) error
	SellStock(ctx context.Context, username string, s models.Stock) error
}

type User struct {
	ID    string
	Email string
	Name  string
}

type Quote struct {
	Symbol string
	Name   string
	Price  float64
}

type Service struct {
	api API
	log *logrus.Logger
}

func NewService(api API, log *logrus.Logger) *Service {
	return &Service{api: api, log: log}
}

func (s *Service) Signup(ctx context.Context, username, password, confirm string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("Please enter a username")
	}
	if password != confirm {
		return nil, invalid("Passwords do not match")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("Password must be at least %d characters long", minPasswordLen)
	}

	u, err := s.api.Signup(ctx, username, password)
	if err != nil {
		s.log.Warnf("signup failed for %s: %v", username, err)
		return nil, err
	}
	s.log.Infof("signed up %s", username)
	return s.open(u, username), nil
}

// Login authenticates and rebuilds the ledger from the remote portfolio. A
// failed portfolio fetch leaves the ledger empty but does not fail the login.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("Please enter a username and password")
	}

	u, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.log.Warnf("login failed for %s: %v", username, err)
		return nil, err
	}
	sess := s.open(u, username)

	snapshot, err := s.api.Portfolio(ctx, sess.user.Name)
	if err != nil {
		s.log.Errorf("fetch portfolio for %s: %v", sess.user.Name, err)
		return sess, nil
	}
	sess.ledger.Load(positionsFromSnapshot(snapshot))
	s.log.Infof("logged in %s with %d positions", sess.user.Name, sess.ledger.Len())
	return sess, nil
}

func (s *Service) open(u models.User, username string) *Session {
	user := User{ID: u.ID, Email: u.Email, Name: u.Username}
	if user.ID == "" {
		user.ID = username
	}
	if user.Name == "" {
		user.Name = username
	}
	return &Session{api: s.api, log: s.log, user: user, ledger: ledger.New()}
}

func positionsFromSnapshot(snapshot map[string]models.Stock) []ledger.Position {
	res := make([]ledger.Position, 0, len(snapshot))
	for symbol, st := range snapshot {
		name := st.Name
		if name == "" {
			name = symbol
		}
		res = append(res, ledger.Position{
			Symbol:      symbol,
			Name:        name,
			Quantity:    st.Quantity,
			AverageCost: st.AvgBuyPrice,
			LastPrice:   st.CurrentPrice,
		})
	}
	return res
}

// Session is one logged-in user. Remote operations are serialized: while one
// is in flight, the others fail fast with ErrBusy.
type Session struct {
	api API
	log *logrus.Logger

	inflight sync.Mutex

	mu     sync.RWMutex
	user   User
	ledger *ledger.Ledger
	closed bool
}

func (s *Session) User() User { return s.user }

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Session) Positions() []ledger.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Positions()
}

func (s *Session) Position(symbol string) (ledger.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Position(normalize(symbol))
}

func (s *Session) Transactions() []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Transactions()
}

func (s *Session) Summary() ledger.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Summary()
}

// Logout clears the ledger and the trade log. The session cannot be reused.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ledger.Reset()
	s.closed = true
	s.log.Infof("logged out %s", s.user.Name)
}

func (s *Session) begin() error {
	if !s.Active() {
		return ErrLoggedOut
	}
	if !s.inflight.TryLock() {
		return ErrBusy
	}
	return nil
}

func (s *Session) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return Quote{}, invalid("Please enter a stock symbol")
	}
	if err := s.begin(); err != nil {
		return Quote{}, err
	}
	defer s.inflight.Unlock()

	price, err := s.api.Price(ctx, symbol)
	if err != nil {
		s.log.Warnf("price lookup for %s failed: %v", symbol, err)
		return Quote{}, err
	}
	return Quote{Symbol: symbol, Name: symbol, Price: price}, nil
}

// Buy records quantity shares at the quoted price remotely and, once the
// server has accepted, in the local ledger.
func (s *Session) Buy(ctx context.Context, q Quote, quantity int) error {
	symbol := normalize(q.Symbol)
	if symbol == "" || quantity <= 0 {
		return invalid("Please enter a valid quantity")
	}
	if q.Price < 0 {
		return invalid("Invalid price for %s", symbol)
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.inflight.Unlock()

	err := s.api.AddStock(ctx, s.user.Name, models.Stock{Symbol: symbol, Quantity: quantity, AvgBuyPrice: q.Price})
	if err != nil {
		s.log.Errorf("buy %d %s failed: %v", quantity, symbol, err)
		return err
	}

	name := q.Name
	if name == "" {
		name = symbol
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrLoggedOut
	}
	s.ledger.ApplyBuy(symbol, quantity, q.Price, name, q.Price)
	s.log.Infof("bought %d %s at %v", quantity, symbol, q.Price)
	return nil
}

// Sell checks the requested quantity against the holding, asks the server to
// sell and then updates the ledger at the last known price.
func (s *Session) Sell(ctx context.Context, symbol string, quantity int) error {
	symbol = normalize(symbol)
	pos, ok := s.Position(symbol)
	if !ok || quantity <= 0 {
		return invalid("Please enter a valid quantity")
	}
	if quantity > pos.Quantity {
		return invalid("You can only sell up to %d shares", pos.Quantity)
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.inflight.Unlock()

	err := s.api.SellStock(ctx, s.user.Name, models.Stock{
		Symbol:       symbol,
		Quantity:     quantity,
		AvgBuyPrice:  pos.AverageCost,
		CurrentPrice: pos.LastPrice,
	})
	if err != nil {
		s.log.Errorf("sell %d %s failed: %v", quantity, symbol, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrLoggedOut
	}
	s.ledger.ApplySell(symbol, quantity, pos.LastPrice)
	s.log.Infof("sold %d %s at %v", quantity, symbol, pos.LastPrice)
	return nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
