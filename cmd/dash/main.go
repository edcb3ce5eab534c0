// Command dash is the terminal price board: it keeps a holdings file priced
// against a running server and renders the portfolio summary.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&pricesCmd{}, "prices")
	commander.Register(&summaryCmd{}, "prices")
	commander.Register(&watchCmd{}, "prices")
	commander.Register(&marketCmd{}, "prices")
	commander.Register(&addCmd{}, "holdings")
	commander.Register(&removeCmd{}, "holdings")
	commander.Register(&listCmd{}, "holdings")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}
