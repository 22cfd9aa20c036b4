package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/jsonfile"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/memory"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

type valueCmd struct {
	newService serviceFactory
	out        io.Writer

	file   string
	format string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a holdings file in GBP" }
func (*valueCmd) Usage() string {
	return `valuerctl value -f <holdings.json> [-format markdown|json]

  Prices every holding in the file and prints the valuation.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "data/holdings.json", "holdings file")
	f.StringVar(&c.format, "format", formatMarkdown, "output format (markdown, json)")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != formatMarkdown && c.format != formatJSON {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	repo := jsonfile.NewHoldingsRepository(c.file)
	holdings, err := repo.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	service, err := c.newService(ctx, repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	valuation, err := service.ValueHoldings(ctx, holdings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.format == formatJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(valuation); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(c.out, valuationMarkdown(valuation))
	return subcommands.ExitSuccess
}

type defaultsCmd struct {
	newService serviceFactory
	out        io.Writer

	file string
}

func (*defaultsCmd) Name() string     { return "defaults" }
func (*defaultsCmd) Synopsis() string { return "refresh the default prices stored in a holdings file" }
func (*defaultsCmd) Usage() string {
	return `valuerctl defaults -f <holdings.json>

  Looks up a live price for every holding and writes it back as its
  defaultPrice. Holdings without a live price keep their old default.
`
}

func (c *defaultsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "data/holdings.json", "holdings file")
}

func (c *defaultsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, err := c.newService(ctx, jsonfile.NewHoldingsRepository(c.file))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	count, err := service.RefreshStoredDefaults(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.out, "Updated %d holdings in %s\n", count, c.file)
	return subcommands.ExitSuccess
}

type priceCmd struct {
	newService serviceFactory
	out        io.Writer

	exchange string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "print the GBP price of one ticker" }
func (*priceCmd) Usage() string {
	return `valuerctl price [-exchange <code>] <ticker>

  Prints the live price per share in GBP.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.exchange, "exchange", "", "exchange code, e.g. XLON")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: price takes exactly one ticker")
		return subcommands.ExitUsageError
	}
	ticker := domain.NormalizeCode(f.Arg(0))

	service, err := c.newService(ctx, memory.NewHoldingsRepository())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	price, ok := service.Price(ctx, ticker, c.exchange)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: price not available for %s\n", ticker)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.out, "%s\t%s\n", ticker, price.String())
	return subcommands.ExitSuccess
}

type exchangesCmd struct {
	newService serviceFactory
	out        io.Writer
}

func (*exchangesCmd) Name() string     { return "exchanges" }
func (*exchangesCmd) Synopsis() string { return "list the supported exchanges" }
func (*exchangesCmd) Usage() string {
	return `valuerctl exchanges

  Lists the exchanges a holding can reference.
`
}

func (c *exchangesCmd) SetFlags(*flag.FlagSet) {}

func (c *exchangesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	service, err := c.newService(ctx, memory.NewHoldingsRepository())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(c.out, exchangesMarkdown(service.Exchanges()))
	return subcommands.ExitSuccess
}
