package source

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/internal/csvparser"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// CSVSnapshot reads the local cache from a CSV dump. The file is re-read on
// every query so a fresh dump is picked up without a restart.
type CSVSnapshot struct {
	path     string
	settings config.CSVSettings
	n        *normalize.Normalizer
}

// NewCSVSnapshot creates a CSVSnapshot over the file at path.
func NewCSVSnapshot(path string, settings config.CSVSettings, n *normalize.Normalizer) *CSVSnapshot {
	return &CSVSnapshot{path: path, settings: settings, n: n}
}

// Loads implements Local.
func (s *CSVSnapshot) Loads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := csvparser.Parse(s.path, s.settings)
	if err != nil {
		return nil, fmt.Errorf("csv snapshot %s: %w", s.path, err)
	}
	return filterScope(data.Records, scope, s.n), nil
}
