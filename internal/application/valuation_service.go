package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// PriceSource resolves a target-currency price per share. A false result means
// no usable price, never an error.
type PriceSource interface {
	Price(ctx context.Context, ticker, exchange string) (domain.Decimal, bool)
}

type ValuationService struct {
	prices   PriceSource
	repo     domain.HoldingsRepository
	registry *domain.ExchangeRegistry
	validate *validator.Validate
}

func NewValuationService(prices PriceSource, repo domain.HoldingsRepository, registry *domain.ExchangeRegistry) *ValuationService {
	return &ValuationService{
		prices:   prices,
		repo:     repo,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

var one = domain.NewDecimalFromInt(1)

// ValueHoldings prices every distinct equity once, then values the holdings in
// input order. Holdings that cannot be priced get a nil value.
func (s *ValuationService) ValueHoldings(ctx context.Context, holdings []domain.Holding) (*domain.Valuation, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: holdings array is required", domain.ErrValidation)
	}

	normalized, err := s.normalize(holdings)
	if err != nil {
		return nil, err
	}

	prices := s.resolvePrices(ctx, domain.DistinctEquityPairs(normalized))

	results := make([]domain.ValuationResult, 0, len(normalized))
	for _, h := range normalized {
		var (
			r   domain.ValuationResult
			err error
		)
		if h.IsCash() {
			r, err = valueCash(h)
		} else {
			r, err = valueEquity(h, prices)
		}
		if err != nil {
			// One unvaluable holding never sinks the batch.
			slog.WarnContext(ctx, "Holding could not be valued", "ticker", h.Ticker, "error", err)
			r.Value, r.PricePerShare = nil, nil
		}
		results = append(results, r)
	}

	valuation, err := domain.NewValuation(results)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Holdings valued",
		"holdings", len(results),
		"priced", len(prices),
		"total", valuation.Total.String(),
	)
	return valuation, nil
}

func (s *ValuationService) normalize(holdings []domain.Holding) ([]domain.Holding, error) {
	out := make([]domain.Holding, len(holdings))
	for i, h := range holdings {
		h = h.Normalized()
		if err := s.validate.Struct(h); err != nil {
			return nil, fmt.Errorf("%w: holding %d must include name and ticker: %v", domain.ErrValidation, i, err)
		}
		if err := h.CheckBounds(); err != nil {
			return nil, fmt.Errorf("%w: holding %d (%s): %v", domain.ErrValidation, i, h.Ticker, err)
		}
		out[i] = h
	}
	return out, nil
}

func valueCash(h domain.Holding) (domain.ValuationResult, error) {
	r := domain.ValuationResult{
		Name:     h.Name,
		Ticker:   h.Ticker,
		Shares:   0,
		Exchange: "",
	}

	raw := domain.NewDecimalFromInt(h.Shares)
	if h.Value != nil {
		raw = *h.Value
	}
	value, err := raw.Round(0)
	if err != nil {
		return r, err
	}
	value = value.ClampZero()
	price := one

	r.Value = &value
	r.PricePerShare = &price
	return r, nil
}

func valueEquity(h domain.Holding, prices map[string]domain.Decimal) (domain.ValuationResult, error) {
	r := domain.ValuationResult{
		Name:     h.Name,
		Ticker:   h.Ticker,
		Shares:   h.Shares,
		Exchange: h.Exchange,
	}

	price, ok := prices[h.Pair().Key()]
	if !ok && h.DefaultPrice != nil && h.DefaultPrice.IsPositive() {
		price, ok = *h.DefaultPrice, true
	}
	if !ok {
		return r, nil
	}

	gross, err := price.Mul(domain.NewDecimalFromInt(h.Shares))
	if err != nil {
		return r, err
	}
	value, err := gross.Round(0)
	if err != nil {
		return r, err
	}
	value = value.ClampZero()

	r.Value = &value
	r.PricePerShare = &price
	return r, nil
}

// RefreshDefaultPrices returns a copy of holdings with defaultPrice set to the
// live price where one is available. Known defaults are never cleared.
func (s *ValuationService) RefreshDefaultPrices(ctx context.Context, holdings []domain.Holding) []domain.Holding {
	out := make([]domain.Holding, len(holdings))
	copy(out, holdings)

	prices := s.resolvePrices(ctx, domain.DistinctEquityPairs(out))

	for i := range out {
		h := &out[i]
		if domain.NormalizeCode(h.Ticker) == domain.CashTicker {
			price := one
			h.DefaultPrice = &price
			continue
		}
		if price, ok := prices[h.Pair().Key()]; ok {
			h.DefaultPrice = &price
		}
	}
	return out
}

// RefreshStoredDefaults refreshes the default prices of the stored holdings
// and writes them back. It returns the number of holdings written.
func (s *ValuationService) RefreshStoredDefaults(ctx context.Context) (int, error) {
	current, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: reading holdings: %w", domain.ErrStore, err)
	}

	updated := s.RefreshDefaultPrices(ctx, current)
	if err := s.repo.ReplaceAll(ctx, updated); err != nil {
		return 0, fmt.Errorf("%w: writing holdings: %w", domain.ErrStore, err)
	}

	slog.InfoContext(ctx, "Default prices refreshed", "count", len(updated))
	return len(updated), nil
}

func (s *ValuationService) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	holdings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading holdings: %w", domain.ErrStore, err)
	}
	return holdings, nil
}

// ReplaceHoldings stores holdings as the new portfolio. An incoming holding
// without a defaultPrice inherits the stored one of the same ticker.
func (s *ValuationService) ReplaceHoldings(ctx context.Context, holdings []domain.Holding) error {
	if holdings == nil {
		return fmt.Errorf("%w: holdings array is required", domain.ErrValidation)
	}

	cleaned, err := s.normalize(holdings)
	if err != nil {
		return err
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading holdings: %w", domain.ErrStore, err)
	}
	previous := make(map[string]*domain.Decimal, len(existing))
	for _, h := range existing {
		t := domain.NormalizeCode(h.Ticker)
		if _, seen := previous[t]; !seen && h.DefaultPrice != nil {
			previous[t] = h.DefaultPrice
		}
	}

	for i := range cleaned {
		h := &cleaned[i]
		if h.Shares < 0 {
			h.Shares = 0
		}
		if h.DefaultPrice == nil {
			h.DefaultPrice = previous[h.Ticker]
		}
	}

	if err := s.repo.ReplaceAll(ctx, cleaned); err != nil {
		return fmt.Errorf("%w: writing holdings: %w", domain.ErrStore, err)
	}

	slog.InfoContext(ctx, "Holdings replaced", "count", len(cleaned))
	return nil
}

// Price looks up a single price. Cash is always worth 1.
func (s *ValuationService) Price(ctx context.Context, ticker, exchange string) (domain.Decimal, bool) {
	ticker = domain.NormalizeCode(ticker)
	if ticker == domain.CashTicker {
		return one, true
	}
	return s.prices.Price(ctx, ticker, domain.NormalizeCode(exchange))
}

func (s *ValuationService) Exchanges() []domain.ExchangeRecord {
	return s.registry.All()
}
