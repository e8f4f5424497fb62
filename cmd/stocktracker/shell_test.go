package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktracker/internal/database"
	"stocktracker/internal/handlers"
)

type fixedPrices map[string]decimal.Decimal

func (f fixedPrices) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	p, ok := f[symbol]
	if !ok {
		return decimal.Zero, time.Time{}, database.ErrNotFound
	}
	return p, time.Now(), nil
}

func (f fixedPrices) Start(ctx context.Context, interval time.Duration) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	r := database.New(db, log)
	require.NoError(t, r.Migrate(context.Background()))
	h := handlers.NewHandler(r, fixedPrices{"MSFT": decimal.NewFromInt(50)}, log)
	srv := httptest.NewServer(h.Router(handlers.Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, input string, args ...string) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestShell_Session(t *testing.T) {
	srv := newTestServer(t)
	script := strings.Join([]string{
		"signup erin secret1 secret1",
		"price msft",
		"buy 5",
		"dashboard",
		"sell MSFT 2",
		"history",
		"sell MSFT 10",
		"buy 1 NOPE",
		"logout",
		"price MSFT",
		"quit",
	}, "\n")

	out := runCLI(t, script, "--api-url", srv.URL, "shell", "--plain")

	assert.Contains(t, out, "Welcome, erin")
	assert.Contains(t, out, "MSFT  $50.00")
	assert.Contains(t, out, "Bought 5 MSFT at $50.00")
	assert.Contains(t, out, "| $250.00 | $250.00 | +$0.00 (+0.00%) |")
	assert.Contains(t, out, "Sold 2 MSFT")
	assert.Contains(t, out, "| SELL | MSFT | 2 | $50.00 |")
	assert.Contains(t, out, "You can only sell up to 3 shares")
	assert.Contains(t, out, "Stock not found.")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "User not logged in.")
}

func TestShell_LoginRestoresPortfolio(t *testing.T) {
	srv := newTestServer(t)
	runCLI(t, "signup erin secret1 secret1\nbuy 3 MSFT\nquit\n", "--api-url", srv.URL, "shell", "--plain")

	out := runCLI(t, "login erin wrong1\nlogin erin secret1\ndashboard\n", "--api-url", srv.URL, "shell", "--plain")
	assert.Contains(t, out, "Invalid username or password.")
	assert.Contains(t, out, "| MSFT | MSFT | 3 | $50.00 | $50.00 | $150.00 |")
}

func TestShell_Usage(t *testing.T) {
	sh := &shell{out: &bytes.Buffer{}}
	buf := sh.out.(*bytes.Buffer)

	assert.True(t, sh.exec(context.Background(), nil))
	assert.True(t, sh.exec(context.Background(), []string{"login", "only-user"}))
	assert.Contains(t, buf.String(), "usage: login USER PASSWORD")
	assert.True(t, sh.exec(context.Background(), []string{"frobnicate"}))
	assert.Contains(t, buf.String(), `unknown command "frobnicate"`)
	assert.True(t, sh.exec(context.Background(), []string{"dashboard"}))
	assert.Contains(t, buf.String(), "User not logged in.")
	assert.False(t, sh.exec(context.Background(), []string{"QUIT"}))
}

func TestPriceCommand(t *testing.T) {
	srv := newTestServer(t)
	out := runCLI(t, "", "--api-url", srv.URL, "price", "msft")
	assert.Equal(t, "MSFT\t$50.00\n", out)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--api-url", srv.URL, "price", "NOPE"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, "NOPE: Stock not found.", err.Error())
}
