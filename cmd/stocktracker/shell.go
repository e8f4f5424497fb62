package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stocktracker/internal/dashboard"
	"stocktracker/internal/session"
)

const shellHelp = `commands:
  signup USER PASSWORD CONFIRM   create an account and log in
  login USER PASSWORD            log in
  logout                         end the session
  price SYMBOL                   look up a quote
  buy QUANTITY [SYMBOL]          buy at the last quote (or quote SYMBOL first)
  sell SYMBOL QUANTITY           sell shares you own
  dashboard                      show holdings and totals
  history                        show this session's transactions
  help                           show this text
  quit                           exit`

func newShellCmd(opts *rootOptions) *cobra.Command {
	var plain bool
	var width int
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive portfolio shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := opts.connect()
			if err != nil {
				return err
			}
			sh := &shell{
				svc:   session.NewService(c, log),
				out:   cmd.OutOrStdout(),
				plain: plain,
				width: width,
			}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown instead of styled output")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width for styled output")
	return cmd
}

type shell struct {
	svc   *session.Service
	sess  *session.Session
	quote *session.Quote
	out   io.Writer
	plain bool
	width int
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := bufio.NewScanner(in)
	fmt.Fprintln(sh.out, `StockTracker shell, type "help" for commands`)
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !sc.Scan() {
			fmt.Fprintln(sh.out)
			return sc.Err()
		}
		if !sh.exec(ctx, strings.Fields(sc.Text())) {
			return nil
		}
	}
}

func (sh *shell) prompt() string {
	if sh.sess != nil && sh.sess.Active() {
		return sh.sess.User().Name + "> "
	}
	return "> "
}

// exec runs one command line and reports whether the shell should keep going.
func (sh *shell) exec(ctx context.Context, f []string) bool {
	if len(f) == 0 {
		return true
	}
	cmd, args := strings.ToLower(f[0]), f[1:]
	switch cmd {
	case "quit", "exit":
		return false
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "signup":
		if len(args) != 3 {
			sh.usage("signup USER PASSWORD CONFIRM")
			return true
		}
		sess, err := sh.svc.Signup(ctx, args[0], args[1], args[2])
		sh.start(sess, "signup", err)
	case "login":
		if len(args) != 2 {
			sh.usage("login USER PASSWORD")
			return true
		}
		sess, err := sh.svc.Login(ctx, args[0], args[1])
		sh.start(sess, "login", err)
	case "logout":
		if sh.sess != nil {
			sh.sess.Logout()
		}
		sh.sess, sh.quote = nil, nil
		fmt.Fprintln(sh.out, "Logged out.")
	case "price", "quote":
		if len(args) != 1 {
			sh.usage("price SYMBOL")
			return true
		}
		sh.lookup(ctx, args[0])
	case "buy":
		sh.buy(ctx, args)
	case "sell":
		sh.sell(ctx, args)
	case "dashboard", "portfolio":
		sh.dashboard(false)
	case "history":
		sh.dashboard(true)
	default:
		fmt.Fprintf(sh.out, "unknown command %q, type \"help\"\n", cmd)
	}
	return true
}

func (sh *shell) usage(s string) { fmt.Fprintln(sh.out, "usage: "+s) }

func (sh *shell) fail(op string, err error) {
	fmt.Fprintln(sh.out, session.Message(op, err))
}

func (sh *shell) start(sess *session.Session, op string, err error) {
	if err != nil {
		sh.fail(op, err)
		return
	}
	if sh.sess != nil {
		sh.sess.Logout()
	}
	sh.sess, sh.quote = sess, nil
	fmt.Fprintf(sh.out, "Welcome, %s\n", sess.User().Name)
}

func (sh *shell) active() bool {
	if sh.sess == nil || !sh.sess.Active() {
		sh.fail("", session.ErrLoggedOut)
		return false
	}
	return true
}

func (sh *shell) lookup(ctx context.Context, symbol string) bool {
	if !sh.active() {
		return false
	}
	q, err := sh.sess.Quote(ctx, symbol)
	if err != nil {
		sh.fail("price", err)
		return false
	}
	sh.quote = &q
	fmt.Fprintf(sh.out, "%s  %s\n", q.Symbol, dashboard.Amount(q.Price, "USD"))
	return true
}

func (sh *shell) buy(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		sh.usage("buy QUANTITY [SYMBOL]")
		return
	}
	if !sh.active() {
		return
	}
	qty, err := strconv.Atoi(args[0])
	if err != nil {
		qty = 0
	}
	if len(args) == 2 && (sh.quote == nil || !strings.EqualFold(sh.quote.Symbol, args[1])) {
		if !sh.lookup(ctx, args[1]) {
			return
		}
	}
	if sh.quote == nil {
		fmt.Fprintln(sh.out, "Look up a price first.")
		return
	}
	if err := sh.sess.Buy(ctx, *sh.quote, qty); err != nil {
		sh.fail("buy", err)
		return
	}
	fmt.Fprintf(sh.out, "Bought %d %s at %s\n", qty, sh.quote.Symbol, dashboard.Amount(sh.quote.Price, "USD"))
}

func (sh *shell) sell(ctx context.Context, args []string) {
	if len(args) != 2 {
		sh.usage("sell SYMBOL QUANTITY")
		return
	}
	if !sh.active() {
		return
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		qty = 0
	}
	if err := sh.sess.Sell(ctx, args[0], qty); err != nil {
		sh.fail("sell", err)
		return
	}
	fmt.Fprintf(sh.out, "Sold %d %s\n", qty, strings.ToUpper(args[0]))
}

func (sh *shell) dashboard(history bool) {
	if !sh.active() {
		return
	}
	v := dashboard.View{
		Username:  sh.sess.User().Name,
		Positions: sh.sess.Positions(),
		Summary:   sh.sess.Summary(),
	}
	if history {
		v.Transactions = sh.sess.Transactions()
	}
	if sh.plain {
		fmt.Fprintln(sh.out, v.Markdown())
		return
	}
	s, err := v.Render(sh.width)
	if err != nil {
		fmt.Fprintln(sh.out, v.Markdown())
		return
	}
	fmt.Fprint(sh.out, s)
}
