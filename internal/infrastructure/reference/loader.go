// Package reference loads the exchange reference table from disk.
package reference

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// ReadExchanges parses an exchange file into a registry.
func ReadExchanges(path string) (*domain.ExchangeRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exchanges file: %w", err)
	}

	var records []domain.ExchangeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding exchanges file: %w", err)
	}

	return domain.NewExchangeRegistry(records)
}

// LoadExchanges never fails: any problem with the file is logged and the
// built-in exchanges are used instead.
func LoadExchanges(path string) *domain.ExchangeRegistry {
	if path == "" {
		return domain.DefaultExchangeRegistry()
	}

	registry, err := ReadExchanges(path)
	if err != nil {
		slog.Warn("Using built-in exchanges", "path", path, "error", err)
		return domain.DefaultExchangeRegistry()
	}

	for _, rec := range registry.All() {
		if !rec.Currency.Known() {
			slog.Warn("Exchange has unknown currency, pricing it as USD", "code", rec.Code, "currency", rec.Currency)
		}
	}

	slog.Info("Exchanges loaded", "path", path, "count", len(registry.All()))
	return registry
}
