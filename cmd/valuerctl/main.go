// Command valuerctl values, refreshes and inspects holdings files from the
// terminal, using the same configuration as the API server.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/jmanzanog/holdings-valuer/internal/application"
	"github.com/jmanzanog/holdings-valuer/internal/bootstrap"
	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/config"
)

// serviceFactory builds a valuation service over repo.
type serviceFactory func(ctx context.Context, repo domain.HoldingsRepository) (*application.ValuationService, error)

func configuredService(ctx context.Context, repo domain.HoldingsRepository) (*application.ValuationService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: bootstrap.ParseLevel(cfg.LogLevel)})))
	return bootstrap.NewService(cfg, repo)
}

func commands(newService serviceFactory, out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&valueCmd{newService: newService, out: out},
		&defaultsCmd{newService: newService, out: out},
		&priceCmd{newService: newService, out: out},
		&exchangesCmd{newService: newService, out: out},
	}
}

func main() {
	// Logs stay quiet until the configuration says otherwise.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(configuredService, os.Stdout) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
