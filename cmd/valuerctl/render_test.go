package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

func TestValuationMarkdown(t *testing.T) {
	value, price := domain.MustDecimal("1600"), domain.MustDecimal("160")
	v, err := domain.NewValuation([]domain.ValuationResult{
		{Name: "Apple | Inc", Ticker: "AAPL", Exchange: "XNAS", Shares: 10, Value: &value, PricePerShare: &price},
		{Name: "Gone", Ticker: "GONE", Shares: 1},
	})
	assert.NoError(t, err)

	md := valuationMarkdown(v)
	assert.Contains(t, md, `| Apple \| Inc | AAPL | XNAS | 10 | 160 | 1600 | 100% |`)
	assert.Contains(t, md, "| Gone | GONE |  | 1 | n/a | n/a | 0% |")
	assert.Contains(t, md, "**Total:** £1,600.00")
}

func TestExchangesMarkdown(t *testing.T) {
	md := exchangesMarkdown([]domain.ExchangeRecord{
		{Code: "XLON", Name: "London Stock Exchange", Suffix: ".L", Currency: domain.CurrencyGBX},
	})
	assert.Contains(t, md, "| XLON | London Stock Exchange | .L | GBX |")
}
