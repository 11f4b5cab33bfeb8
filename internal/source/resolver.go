package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/loadexport/internal/logger"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// DefaultRemoteTimeout bounds a remote query.
const DefaultRemoteTimeout = 15 * time.Second

// ErrNoData is returned when neither source yields a confirmed load.
var ErrNoData = errors.New("no confirmed loads")

// NoDataError carries the scope that resolved empty. It matches ErrNoData
// under errors.Is.
type NoDataError struct {
	Scope string
}

func (e *NoDataError) Error() string {
	if e.Scope == "" {
		return "no confirmed loads found for any project; verify the collection client has synchronized"
	}
	return fmt.Sprintf("no confirmed loads found for project %q; verify the collection client has synchronized", e.Scope)
}

func (e *NoDataError) Unwrap() error { return ErrNoData }

// Resolution is the outcome of a successful resolve.
type Resolution struct {
	Records []types.RawRecord
	Origin  Decision
}

// Resolver applies the local-first selection rule.
type Resolver struct {
	local   Local
	remote  Remote
	probe   Prober
	n       *normalize.Normalizer
	timeout time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRemote enables the remote fallback.
func WithRemote(remote Remote, probe Prober) ResolverOption {
	return func(r *Resolver) {
		r.remote = remote
		r.probe = probe
	}
}

// WithRemoteTimeout overrides DefaultRemoteTimeout.
func WithRemoteTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver creates a Resolver over local. A nil local behaves as an
// empty cache.
func NewResolver(local Local, n *normalize.Normalizer, opts ...ResolverOption) *Resolver {
	r := &Resolver{local: local, n: n, timeout: DefaultRemoteTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the confirmed raw records for scope, where an empty scope
// means every project.
//
// Local failures and remote failures or timeouts are logged and treated as
// empty results. The only error returned is a *NoDataError.
func (r *Resolver) Resolve(ctx context.Context, scope string) (*Resolution, error) {
	log := logger.FromContext(ctx).With().Str("scope", scopeLabel(scope)).Logger()

	local := r.confirmed(r.queryLocal(ctx, scope))

	// Connectivity only matters once the local cache has come up empty.
	online := len(local) == 0 && r.remote != nil && r.probe != nil && r.probe.Online(ctx)
	decision := Decide(len(local), online)
	log.Debug().Int("local_confirmed", len(local)).Bool("online", online).Stringer("decision", decision).Msg("resolved source")

	switch decision {
	case UseLocal:
		return &Resolution{Records: local, Origin: UseLocal}, nil
	case QueryRemote:
		if remote := r.queryRemote(ctx, scope); len(remote) > 0 {
			return &Resolution{Records: remote, Origin: QueryRemote}, nil
		}
	}
	return nil, &NoDataError{Scope: scope}
}

func (r *Resolver) queryLocal(ctx context.Context, scope string) []types.RawRecord {
	if r.local == nil {
		return nil
	}
	records, err := r.local.Loads(ctx, scope)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("local source unavailable")
		return nil
	}
	return records
}

func (r *Resolver) queryRemote(ctx context.Context, scope string) []types.RawRecord {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.remote.ConfirmedLoads(ctx, scope)
	if err != nil {
		event := logger.FromContext(ctx).Warn().Err(err)
		if errors.Is(err, context.DeadlineExceeded) {
			event.Dur("timeout", r.timeout).Msg("remote source timed out")
		} else {
			event.Msg("remote source unavailable")
		}
		return nil
	}
	return r.confirmed(filterScope(records, scope, r.n))
}

// confirmed drops drafts and loads pending upload.
func (r *Resolver) confirmed(records []types.RawRecord) []types.RawRecord {
	var out []types.RawRecord
	for _, rec := range records {
		if !Unconfirmed(r.n.Status(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "all"
	}
	return scope
}
