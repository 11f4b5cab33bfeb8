package source

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

type fakeLocal struct {
	records []types.RawRecord
	err     error
}

func (f fakeLocal) Loads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	return filterScope(f.records, scope, normalize.New()), f.err
}

type fakeRemote struct {
	records []types.RawRecord
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeRemote) ConfirmedLoads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

type staticProbe bool

func (p staticProbe) Online(context.Context) bool { return bool(p) }

type countingProbe struct {
	online bool
	calls  atomic.Int32
}

func (p *countingProbe) Online(context.Context) bool {
	p.calls.Add(1)
	return p.online
}

func TestDecide(t *testing.T) {
	tests := []struct {
		local  int
		online bool
		want   Decision
	}{
		{3, true, UseLocal},
		{3, false, UseLocal},
		{0, true, QueryRemote},
		{0, false, NoSource},
	}
	for _, tt := range tests {
		if got := Decide(tt.local, tt.online); got != tt.want {
			t.Errorf("Decide(%d, %v) = %v, want %v", tt.local, tt.online, got, tt.want)
		}
	}
}

func TestUnconfirmed(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"draft", true},
		{"DRAFT", true},
		{"pending upload", true},
		{"pending_upload", true},
		{"Pending-Upload", true},
		{"pendingUpload", true},
		{"  pending   upload ", true},
		{"confirmed", false},
		{"synced", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Unconfirmed(tt.status); got != tt.want {
			t.Errorf("Unconfirmed(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestResolve_LocalConfirmedSkipsRemote(t *testing.T) {
	local := fakeLocal{records: []types.RawRecord{
		{"id": "1", "status": "confirmed"},
		{"id": "2", "status": "confirmed"},
		{"id": "3"},
		{"id": "4", "status": "draft"},
		{"id": "5", "sync_status": "pending_upload"},
	}}
	remote := &fakeRemote{records: []types.RawRecord{{"id": "R"}}}
	probe := &countingProbe{online: true}

	r := NewResolver(local, normalize.New(), WithRemote(remote, probe))
	res, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Records) != 3 || res.Origin != UseLocal {
		t.Fatalf("got %d records from %v, want 3 from local", len(res.Records), res.Origin)
	}
	if remote.calls.Load() != 0 {
		t.Fatal("remote must not be queried when local has confirmed loads")
	}
	if probe.calls.Load() != 0 {
		t.Fatalf("connectivity checked %d time(s) with local loads present", probe.calls.Load())
	}
}

func TestResolve_EmptyLocalChecksConnectivityOnce(t *testing.T) {
	remote := &fakeRemote{}
	probe := &countingProbe{online: false}

	r := NewResolver(fakeLocal{}, normalize.New(), WithRemote(remote, probe))
	if _, err := r.Resolve(context.Background(), "alpha"); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
	if probe.calls.Load() != 1 {
		t.Errorf("probe calls = %d, want 1", probe.calls.Load())
	}
	if remote.calls.Load() != 0 {
		t.Error("remote queried while offline")
	}
}

func TestResolve_FallsBackToRemote(t *testing.T) {
	local := fakeLocal{records: []types.RawRecord{{"id": "1", "status": "draft"}}}
	remote := &fakeRemote{records: []types.RawRecord{
		{"id": "R1", "projectId": "alpha"},
		{"id": "R2", "projectId": "beta"},
	}}

	r := NewResolver(local, normalize.New(), WithRemote(remote, staticProbe(true)))
	res, err := r.Resolve(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Origin != QueryRemote || len(res.Records) != 1 || res.Records[0]["id"] != "R1" {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestResolve_NoData(t *testing.T) {
	tests := []struct {
		name   string
		local  Local
		remote *fakeRemote
		online bool
	}{
		{"offline and only drafts", fakeLocal{records: []types.RawRecord{{"status": "draft"}}}, &fakeRemote{records: []types.RawRecord{{"id": "R"}}}, false},
		{"local error and offline", fakeLocal{err: errors.New("disk gone")}, &fakeRemote{}, false},
		{"remote error", fakeLocal{}, &fakeRemote{err: errors.New("502")}, true},
		{"remote empty", fakeLocal{}, &fakeRemote{}, true},
		{"nil local", nil, &fakeRemote{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.local, normalize.New(), WithRemote(tt.remote, staticProbe(tt.online)))
			_, err := r.Resolve(context.Background(), "alpha")
			if !errors.Is(err, ErrNoData) {
				t.Fatalf("want ErrNoData, got %v", err)
			}
			var nd *NoDataError
			if !errors.As(err, &nd) || nd.Scope != "alpha" {
				t.Fatalf("want *NoDataError for alpha, got %#v", err)
			}
			if !tt.online && tt.remote.calls.Load() != 0 {
				t.Fatal("remote must not be queried offline")
			}
		})
	}
}

func TestResolve_RemoteTimeout(t *testing.T) {
	remote := &fakeRemote{records: []types.RawRecord{{"id": "R"}}, delay: time.Second}
	r := NewResolver(nil, normalize.New(),
		WithRemote(remote, staticProbe(true)),
		WithRemoteTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := r.Resolve(context.Background(), "")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("timeout not honored, took %v", elapsed)
	}
	if remote.calls.Load() != 1 {
		t.Fatalf("remote called %d times, want exactly 1", remote.calls.Load())
	}
}

func TestResolve_RemoteDraftsDropped(t *testing.T) {
	remote := &fakeRemote{records: []types.RawRecord{{"id": "R", "status": "draft"}}}
	r := NewResolver(nil, normalize.New(), WithRemote(remote, staticProbe(true)))
	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestNoDataError_Message(t *testing.T) {
	if msg := (&NoDataError{}).Error(); msg == "" || !strings.Contains(msg, "synchronized") {
		t.Errorf("unexpected message %q", msg)
	}
	if msg := (&NoDataError{Scope: "alpha"}).Error(); !strings.Contains(msg, `"alpha"`) {
		t.Errorf("scope missing from %q", msg)
	}
}
