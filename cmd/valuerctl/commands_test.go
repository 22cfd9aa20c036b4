package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanzanog/holdings-valuer/internal/application"
	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/jsonfile"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

type stubPrices map[string]string

func (s stubPrices) Price(_ context.Context, ticker, exchange string) (domain.Decimal, bool) {
	p, ok := s[domain.PriceKey(ticker, exchange)]
	if !ok {
		return domain.Zero, false
	}
	return domain.MustDecimal(p), true
}

func stubFactory(prices stubPrices) serviceFactory {
	return func(_ context.Context, repo domain.HoldingsRepository) (*application.ValuationService, error) {
		return application.NewValuationService(prices, repo, domain.DefaultExchangeRegistry()), nil
	}
}

func runCommand(t *testing.T, factory serviceFactory, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	t.Setenv("GLAMOUR_STYLE", "notty")

	var out bytes.Buffer
	fs := flag.NewFlagSet("valuerctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "valuerctl")
	for _, c := range commands(factory, &out) {
		commander.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))

	return commander.Execute(context.Background()), out.String()
}

func writeHoldings(t *testing.T, holdings string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdings.json")
	require.NoError(t, os.WriteFile(path, []byte(holdings), 0o600))
	return path
}

const sampleHoldings = `[
	{"name":"Apple","ticker":"AAPL","exchange":"XNAS","shares":10},
	{"name":"Cash","ticker":"CASH","value":500}
]`

func TestValueCmd_JSON(t *testing.T) {
	path := writeHoldings(t, sampleHoldings)
	prices := stubPrices{"AAPL||XNAS": "160"}

	status, out := runCommand(t, stubFactory(prices), "value", "-f", path, "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)

	var got domain.Valuation
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Total.Equal(domain.MustDecimal("2100")))
	require.Len(t, got.Holdings, 2)
	assert.True(t, got.Holdings[0].Weight.Equal(domain.MustDecimal("76.2")))
	assert.True(t, got.Holdings[1].Weight.Equal(domain.MustDecimal("23.8")))
}

func TestValueCmd_Markdown(t *testing.T) {
	path := writeHoldings(t, sampleHoldings)

	status, out := runCommand(t, stubFactory(stubPrices{}), "value", "-f", path)
	require.Equal(t, subcommands.ExitSuccess, status)

	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "£500.00")
}

func TestValueCmd_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		status, _ := runCommand(t, stubFactory(nil), "value", "-format", "xml")
		assert.Equal(t, subcommands.ExitUsageError, status)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")
		status, _ := runCommand(t, stubFactory(nil), "value", "-f", path)
		assert.Equal(t, subcommands.ExitFailure, status)
	})

	t.Run("service unavailable", func(t *testing.T) {
		path := writeHoldings(t, sampleHoldings)
		failing := func(context.Context, domain.HoldingsRepository) (*application.ValuationService, error) {
			return nil, errors.New("bad config")
		}
		status, _ := runCommand(t, failing, "value", "-f", path)
		assert.Equal(t, subcommands.ExitFailure, status)
	})
}

func TestDefaultsCmd(t *testing.T) {
	path := writeHoldings(t, `[
		{"name":"Apple","ticker":"AAPL","exchange":"XNAS","shares":10},
		{"name":"Shell","ticker":"SHEL","exchange":"XLON","shares":5,"defaultPrice":27},
		{"name":"Cash","ticker":"CASH","value":500}
	]`)
	prices := stubPrices{"AAPL||XNAS": "160"}

	status, out := runCommand(t, stubFactory(prices), "defaults", "-f", path)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Updated 3 holdings")

	stored, err := jsonfile.NewHoldingsRepository(path).List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)

	require.NotNil(t, stored[0].DefaultPrice)
	assert.True(t, stored[0].DefaultPrice.Equal(domain.MustDecimal("160")))
	require.NotNil(t, stored[1].DefaultPrice)
	assert.True(t, stored[1].DefaultPrice.Equal(domain.MustDecimal("27")))
	require.NotNil(t, stored[2].DefaultPrice)
	assert.True(t, stored[2].DefaultPrice.Equal(domain.MustDecimal("1")))
}

func TestPriceCmd(t *testing.T) {
	prices := stubPrices{"SHEL||XLON": "27.5"}

	status, out := runCommand(t, stubFactory(prices), "price", "-exchange", "xlon", "shel")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "SHEL\t27.5\n", out)

	status, out = runCommand(t, stubFactory(prices), "price", "CASH")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "CASH\t1\n", out)

	status, _ = runCommand(t, stubFactory(prices), "price", "NOPE")
	assert.Equal(t, subcommands.ExitFailure, status)

	status, _ = runCommand(t, stubFactory(prices), "price")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestExchangesCmd(t *testing.T) {
	status, out := runCommand(t, stubFactory(nil), "exchanges")
	require.Equal(t, subcommands.ExitSuccess, status)

	for _, r := range domain.DefaultExchanges() {
		assert.Contains(t, out, r.Code)
	}
}
