// Package source resolves the raw load records an export works from. It
// prefers the collection client's local cache and falls back to the remote
// service only when the cache holds no confirmed loads.
package source

import (
	"context"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// Local is the collection client's on-device cache. An empty scope means
// every project.
type Local interface {
	Loads(ctx context.Context, scope string) ([]types.RawRecord, error)
}

// Remote is the authoritative load service. It is asked for confirmed loads
// only.
type Remote interface {
	ConfirmedLoads(ctx context.Context, scope string) ([]types.RawRecord, error)
}

// Prober reports whether the remote service is reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// filterScope keeps the records whose resolved project ID equals scope.
// An empty scope keeps everything.
func filterScope(records []types.RawRecord, scope string, n *normalize.Normalizer) []types.RawRecord {
	if scope == "" {
		return records
	}
	var out []types.RawRecord
	for _, rec := range records {
		if n.ProjectID(rec) == scope {
			out = append(out, rec)
		}
	}
	return out
}
