package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exchanges.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadExchanges_FromFile(t *testing.T) {
	path := writeFile(t, `[
		{"code": "xlon", "name": "London", "suffix": ".L", "currency": "gbx"},
		{"code": "XSWX", "name": "SIX Swiss", "suffix": ".SW", "currency": "CHF"}
	]`)

	registry := LoadExchanges(path)

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "XLON", all[0].Code)
	assert.Equal(t, domain.CurrencyGBX, all[0].Currency)

	rec, ok := registry.Lookup("xswx")
	require.True(t, ok)
	assert.Equal(t, domain.Currency("CHF"), rec.Currency)

	_, ok = registry.Lookup("XNAS")
	assert.False(t, ok)
}

func TestLoadExchanges_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"empty path", func(t *testing.T) string { return "" }},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"malformed", func(t *testing.T) string { return writeFile(t, `{not json`) }},
		{"empty list", func(t *testing.T) string { return writeFile(t, `[]`) }},
		{"duplicate codes", func(t *testing.T) string {
			return writeFile(t, `[{"code":"XLON","currency":"GBX"},{"code":"xlon","currency":"GBX"}]`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := LoadExchanges(tt.path(t))
			assert.Equal(t, domain.DefaultExchanges(), registry.All())
		})
	}
}

func TestReadExchanges_ReportsErrors(t *testing.T) {
	_, err := ReadExchanges(writeFile(t, `[{"code":"","currency":"USD"}]`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ReadExchanges(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading exchanges file")
}

func TestReadExchanges_ShippedFile(t *testing.T) {
	registry, err := ReadExchanges(filepath.Join("..", "..", "..", "data", "exchanges.json"))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultExchanges(), registry.All())
}
