package ioingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Ticker is one entry of the ingest universe.
type Ticker struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name,omitempty"`
}

type tickerFile struct {
	Tickers []Ticker `yaml:"tickers"`
}

// LoadTickers reads the ingest universe from a YAML file. Entries
// without a symbol are rejected so a malformed file fails loudly
// instead of silently shrinking the universe.
func LoadTickers(path string) ([]Ticker, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tickers file: %w", err)
	}

	var f tickerFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tickers file: %w", err)
	}

	for i, t := range f.Tickers {
		if t.Symbol == "" {
			return nil, fmt.Errorf(
				"tickers file %s: entry %d has no symbol", path, i,
			)
		}
	}
	return f.Tickers, nil
}
