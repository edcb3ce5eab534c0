package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/google/subcommands"

	"priceboard/internal/client"
	"priceboard/internal/config"
	"priceboard/internal/httpx"
	"priceboard/internal/portfolio"
)

type pricesCmd struct {
	save bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "refresh prices once and show the portfolio" }
func (*pricesCmd) Usage() string {
	return `dash prices [-save=false]

  Resolves every holding against the server, falls back to remembered prices
  for symbols that cannot be priced, and prints the summary.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.save, "save", true, "write the refreshed prices back to the holdings file")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openPriced(ctx)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	status := s.ref.Refresh(ctx)
	s.ref.View(func(b *portfolio.Book, errs map[string]string) {
		printMarkdown(summaryMarkdown(b, status.String(), errs))
	})
	if c.save {
		if err := s.save(); err != nil {
			fail("%v", err)
			return subcommands.ExitFailure
		}
	}
	if status.Kind == client.Failed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type marketCmd struct {
	raw bool
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "show the SPY and BTC market series" }
func (*marketCmd) Usage() string {
	return `dash market [-json]

  Fetches /market and prints the last point of each series.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "json", false, "print the raw payload")
}

func (c *marketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fail("config: %v", err)
		return subcommands.ExitFailure
	}
	p, err := newClient(cfg).Market(ctx)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	if c.raw {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(p)
		return subcommands.ExitSuccess
	}
	printMarkdown(marketMarkdown(p))
	return subcommands.ExitSuccess
}

func newClient(cfg config.Config) *client.Client {
	return client.New(cfg.Client.Server, httpx.New(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second))
}
