// e2e_test drives a running server through the client and session layers:
// signup, buy, sell and a fresh login that must see the same holdings.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"stocktracker/internal/client"
	"stocktracker/internal/config"
	"stocktracker/internal/session"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := cfg.NewLogger()
	api := client.New(cfg.Client.BaseURL,
		client.WithToken(cfg.Client.Token),
		client.WithLogger(logger),
		client.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	svc := session.NewService(api, logger)

	ctx := context.Background()
	waitHealthy(ctx, cfg.Client.BaseURL)

	username := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	sess, err := svc.Signup(ctx, username, "secret1", "secret1")
	check("signup", err)

	q, err := sess.Quote(ctx, "msft")
	check("price", err)
	fmt.Printf("MSFT quoted at %.2f\n", q.Price)

	check("buy", sess.Buy(ctx, q, 5))
	expect(sess.Summary().TotalInvestment == 5*q.Price, "total investment %.2f, want %.2f", sess.Summary().TotalInvestment, 5*q.Price)

	check("sell", sess.Sell(ctx, "MSFT", 2))
	pos, ok := sess.Position("MSFT")
	expect(ok && pos.Quantity == 3, "position after sell: %+v", pos)
	expect(len(sess.Transactions()) == 2, "transactions: %d", len(sess.Transactions()))

	sess.Logout()
	_, err = sess.Quote(ctx, "MSFT")
	expect(err == session.ErrLoggedOut, "quote after logout returned %v", err)

	again, err := svc.Login(ctx, username, "secret1")
	check("login", err)
	pos, ok = again.Position("MSFT")
	expect(ok && pos.Quantity == 3, "position after re-login: %+v", pos)

	_, err = svc.Login(ctx, username, "wrong-password")
	expect(session.Message("login", err) == "Invalid username or password.", "bad login: %v", err)

	fmt.Println("ALL TESTS PASSED")
}

func waitHealthy(ctx context.Context, base string) {
	for i := 0; i < 20; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatalf("server at %s never became healthy", base)
}

func check(step string, err error) {
	if err != nil {
		log.Fatalf("%s failed: %s (%v)", step, session.Message(step, err), err)
	}
	fmt.Printf("%s ok\n", step)
}

func expect(ok bool, format string, args ...interface{}) {
	if !ok {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		os.Exit(1)
	}
}
