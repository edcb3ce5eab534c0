package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"priceboard/internal/asset"
	"priceboard/internal/portfolio"
	"priceboard/internal/pricestore"
)

type addCmd struct {
	name, symbol, typ   string
	entry, current, qty string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a holding" }
func (*addCmd) Usage() string {
	return `dash add -s <symbol> -t <type> [-n <name>] [-entry <price>] [-qty <n>] [-current <price>]

  Appends a holding to the holdings file. With no flags a blank "Other" row
  is added. Without -current the remembered price of the symbol, if any, is
  used. Types: Crypto, Stock, Metal, Forex, Other.
  Suggested symbols: ` + strings.Join(portfolio.Suggestions, ", ") + `
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "display name")
	f.StringVar(&c.symbol, "s", "", "symbol, e.g. BTC, AAPL, XAU, EURUSD")
	f.StringVar(&c.typ, "t", "Other", "asset type")
	f.StringVar(&c.entry, "entry", "0", "entry price per unit")
	f.StringVar(&c.current, "current", "", "current price per unit (defaults to the remembered price)")
	f.StringVar(&c.qty, "qty", "0", "quantity")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openBook()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	h := c.holding()
	if strings.TrimSpace(c.current) == "" && h.Symbol != "" {
		if p, ok := rememberedPrice(ctx, s, h.Symbol); ok {
			h.Current = p
		}
	}
	id := s.book.Add(h)
	if err := s.save(); err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("added %s to %s\n", id, s.cfg.Client.HoldingsFile)
	return subcommands.ExitSuccess
}

func (c *addCmd) holding() portfolio.Holding {
	return portfolio.NewHolding(c.name, c.symbol, asset.ParseType(c.typ),
		portfolio.ParseAmount(c.entry), portfolio.ParseAmount(c.current), portfolio.ParseAmount(c.qty))
}

// rememberedPrice looks symbol up in the local price store. A store that
// cannot be opened only costs the default.
func rememberedPrice(ctx context.Context, s *session, symbol string) (decimal.Decimal, bool) {
	store, err := pricestore.Open(s.cfg.Client.StorePath, s.log)
	if err != nil {
		s.log.Warnf("price store: %v", err)
		return decimal.Zero, false
	}
	defer store.Close()
	e, ok, err := store.Get(ctx, symbol)
	if err != nil || !ok {
		return decimal.Zero, false
	}
	return portfolio.FromFloat(e.Price)
}

type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove holdings by id or symbol" }
func (*removeCmd) Usage() string {
	return `dash remove <id|symbol>...

  Removes every holding whose id or symbol matches an argument.
`
}

func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail("remove needs at least one id or symbol")
		return subcommands.ExitUsageError
	}
	s, err := openBook()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	n := removeMatching(s.book, f.Args())
	if err := s.save(); err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("removed %d holding(s)\n", n)
	return subcommands.ExitSuccess
}

// removeMatching drops holdings matching any key by id or normalized symbol.
func removeMatching(book *portfolio.Book, keys []string) int {
	var ids []string
	for _, h := range book.Holdings {
		for _, k := range keys {
			if h.ID == k || (h.Symbol != "" && h.Symbol == asset.NormalizeSymbol(k)) {
				ids = append(ids, h.ID)
				break
			}
		}
	}
	n := 0
	for _, id := range ids {
		if book.Remove(id) {
			n++
		}
	}
	return n
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list holdings with their ids" }
func (*listCmd) Usage() string    { return "dash list\n" }
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openBook()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	for _, h := range s.book.Holdings {
		fmt.Printf("%s  %-8s %-6s qty=%s entry=%s\n", h.ID, h.Label(), h.Type, h.Qty, portfolio.FormatUSD(h.Entry))
	}
	return subcommands.ExitSuccess
}
