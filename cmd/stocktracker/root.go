package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stocktracker/internal/client"
	"stocktracker/internal/config"
)

type rootOptions struct {
	configPath string
	apiURL     string
	token      string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "stocktracker",
		Short: "Track a stock portfolio against the StockTracker API",
		Long: `stocktracker talks to a StockTracker server. Use "shell" to log in,
look up quotes, buy and sell shares and watch your dashboard, or "price"
for a one-off quote.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (.toml or .yaml)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "server base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "API key sent as a bearer token")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout, 0 for none")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(
		newShellCmd(opts),
		newPriceCmd(opts),
	)
	return cmd
}

// connect resolves the config and builds the API client shared by the
// subcommands.
func (o *rootOptions) connect() (*client.Client, *logrus.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	log := cfg.NewLogger()
	log.SetOutput(os.Stderr)
	if !o.verbose {
		log.SetOutput(io.Discard)
	}

	base := cfg.Client.BaseURL
	if o.apiURL != "" {
		base = o.apiURL
	}
	token := cfg.Client.Token
	if o.token != "" {
		token = o.token
	}
	c := client.New(base,
		client.WithToken(token),
		client.WithLogger(log),
		client.WithHTTPClient(&http.Client{Timeout: o.timeout}))
	return c, log, nil
}
