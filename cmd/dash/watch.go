package main

import (
	"context"
	"flag"
	"fmt"
	"sync/atomic"

	"github.com/google/subcommands"

	"priceboard/internal/client"
	"priceboard/internal/portfolio"
)

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show the portfolio from the holdings file, offline" }
func (*summaryCmd) Usage() string {
	return `dash summary

  Renders totals, allocations and PnL using the current prices saved in the
  holdings file. Nothing is fetched.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openBook()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(summaryMarkdown(s.book, client.Status{}.String(), nil))
	return subcommands.ExitSuccess
}

type watchCmd struct {
	schedule string
	clear    bool
	count    int
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "keep the portfolio priced on a schedule" }
func (*watchCmd) Usage() string {
	return `dash watch [-every <cron spec>] [-clear] [-n <refreshes>]

  Refreshes now and then on the schedule (client.poll, "@every 5m" by
  default) until interrupted. Every refresh is saved to the holdings file.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.schedule, "every", "", "cron spec, overrides client.poll")
	f.BoolVar(&c.clear, "clear", true, "clear the screen between refreshes")
	f.IntVar(&c.count, "n", 0, "stop after n refreshes (0 runs until interrupted)")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openPriced(ctx)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var runs atomic.Int32

	spec := s.cfg.Client.Poll
	if c.schedule != "" {
		spec = c.schedule
	}
	err = s.ref.Schedule(ctx, spec, func(st client.Status) {
		if c.clear {
			fmt.Print("\033[2J\033[H")
		}
		s.ref.View(func(b *portfolio.Book, errs map[string]string) {
			printMarkdown(summaryMarkdown(b, st.String(), errs))
		})
		if st.Kind == client.Updated {
			if err := s.save(); err != nil {
				fail("%v", err)
			}
		}
		if c.count > 0 && int(runs.Add(1)) >= c.count {
			cancel()
		}
	})
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
