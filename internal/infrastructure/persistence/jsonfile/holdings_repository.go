// Package jsonfile stores the portfolio as a JSON array on disk, the format
// operators edit by hand and the CLI works against.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

type HoldingsRepository struct {
	mu   sync.Mutex
	path string
}

func NewHoldingsRepository(path string) *HoldingsRepository {
	return &HoldingsRepository{path: path}
}

// List reads the file. A missing file is an empty portfolio. Both a bare
// array and an object with a "holdings" array are accepted.
func (r *HoldingsRepository) List(ctx context.Context) ([]domain.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Holding{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}

	holdings, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", r.path, err)
	}
	return holdings, nil
}

// ReplaceAll writes to a temp file in the same directory and renames it over the target.
func (r *HoldingsRepository) ReplaceAll(ctx context.Context, holdings []domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holdings == nil {
		holdings = []domain.Holding{}
	}
	data, err := json.MarshalIndent(holdings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding holdings: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".holdings-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing %s: %w", r.path, err)
	}
	return nil
}

// Decode parses either a bare holdings array or {"holdings": [...]}.
func Decode(data []byte) ([]domain.Holding, error) {
	var holdings []domain.Holding
	if err := json.Unmarshal(data, &holdings); err == nil {
		return holdings, nil
	}

	var wrapped struct {
		Holdings []domain.Holding `json:"holdings"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Holdings == nil {
		return nil, errors.New(`expected an array or an object with a "holdings" array`)
	}
	return wrapped.Holdings, nil
}
