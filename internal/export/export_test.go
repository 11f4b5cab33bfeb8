package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ginjaninja78/loadexport/internal/converter"
	"github.com/ginjaninja78/loadexport/internal/delivery"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/source"
	"github.com/ginjaninja78/loadexport/internal/summary"
	"github.com/ginjaninja78/loadexport/internal/types"
	"github.com/ginjaninja78/loadexport/pkg/utils"
)

var fixedNow = time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)

func alphaRecords() []types.RawRecord {
	return []types.RawRecord{
		{"id": "L1", "ticketNumber": "T-1", "projectId": "alpha", "projectName": "Alpha",
			"date": "2026-04-01T10:00:00Z", "weightTons": 2.5, "hauler": "Acme", "status": "confirmed"},
		{"id": "L2", "projectId": "alpha", "projectName": "Alpha",
			"date": "2026-04-01T15:00:00Z", "weightTons": 1.0, "status": "confirmed"},
		{"id": "L3", "project_id": "beta", "project_name": `The "Big" Job`,
			"load_date": "2026-04-02", "weight_lbs": 4000},
		{"id": "L4", "projectId": "alpha", "status": "draft", "weightTons": 99},
	}
}

func newService(t *testing.T, local source.Local, opts ...Option) *Service {
	t.Helper()
	n := normalize.New(normalize.WithClock(func() time.Time { return fixedNow }))
	copts := converter.DefaultOptions()
	copts.Location = time.UTC
	resolver := source.NewResolver(local, n)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(resolver, converter.New(n, copts), opts...)
}

func TestExportIIF_AlphaScope(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...))

	r := svc.ExportIIF(context.Background(), "alpha")
	if !r.Success {
		t.Fatalf("export failed: %s", r.Error)
	}
	if r.Filename != "loads_alpha_2026-04-15.iif" {
		t.Errorf("filename = %s", r.Filename)
	}
	if r.LoadCount != 2 || r.InvoiceCount != 1 || r.Source != "local" {
		t.Errorf("counts = %d loads, %d invoices, source %s", r.LoadCount, r.InvoiceCount, r.Source)
	}
	if !strings.Contains(r.Document, "\tINV-1001\t") || !strings.Contains(r.Document, "\t437.50\t") {
		t.Errorf("unexpected document:\n%s", r.Document)
	}
	if len(r.Summaries) != 1 || r.Summaries[0].Revenue != "$437.50" {
		t.Errorf("unexpected summaries %+v", r.Summaries)
	}
	if r.ExportID == "" {
		t.Error("missing export id")
	}
}

func TestExportQBO_AllScopes(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...))

	r := svc.ExportQBO(context.Background(), "")
	if !r.Success {
		t.Fatalf("export failed: %s", r.Error)
	}
	if r.Filename != "loads_all_2026-04-15.csv" {
		t.Errorf("filename = %s", r.Filename)
	}
	if r.LoadCount != 3 || r.InvoiceCount != 2 {
		t.Errorf("counts = %d loads, %d invoices", r.LoadCount, r.InvoiceCount)
	}
	if !strings.Contains(r.Document, `"INV-1002","The ""Big"" Job"`) {
		t.Errorf("quoted customer missing:\n%s", r.Document)
	}
}

func TestSummariesIdenticalAcrossFormats(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...))
	ctx := context.Background()

	iif := svc.ExportIIF(ctx, "")
	qbo := svc.ExportQBO(ctx, "")
	preview := svc.Preview(ctx, "")

	if !reflect.DeepEqual(display(iif.Summaries), display(qbo.Summaries)) {
		t.Fatalf("summaries differ:\niif: %+v\nqbo: %+v", iif.Summaries, qbo.Summaries)
	}
	if !reflect.DeepEqual(display(iif.Summaries), display(preview.Summaries)) {
		t.Fatalf("preview differs:\niif: %+v\npreview: %+v", iif.Summaries, preview.Summaries)
	}
}

func TestExport_NoData(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), types.RawRecord{"projectId": "alpha", "status": "draft"}))

	for _, r := range []Result{
		svc.ExportIIF(context.Background(), "alpha"),
		svc.ExportQBO(context.Background(), "alpha"),
		svc.Preview(context.Background(), "alpha"),
	} {
		if r.Success || !r.NoData() || !errors.Is(r.Err(), source.ErrNoData) {
			t.Errorf("%s: want NoData failure, got %+v", r.Format, r)
		}
		if r.Document != "" || r.Filename != "" {
			t.Errorf("%s: failed result carries output", r.Format)
		}
		if !strings.Contains(r.Error, "synchronized") {
			t.Errorf("%s: unexpected message %q", r.Format, r.Error)
		}
	}
}

// display keeps the caller-visible fields of each summary.
func display(summaries []summary.ProjectSummary) []summary.ProjectSummary {
	out := make([]summary.ProjectSummary, len(summaries))
	for i, s := range summaries {
		out[i] = summary.ProjectSummary{
			ProjectID:        s.ProjectID,
			ProjectName:      s.ProjectName,
			LoadCount:        s.LoadCount,
			TotalTons:        s.TotalTons,
			Revenue:          s.Revenue,
			EmissionsAvoided: s.EmissionsAvoided,
		}
	}
	return out
}

type countingLocal struct {
	inner source.Local
	calls atomic.Int32
}

func (c *countingLocal) Loads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	c.calls.Add(1)
	return c.inner.Loads(ctx, scope)
}

func TestExportAll(t *testing.T) {
	local := &countingLocal{inner: source.NewMemory(normalize.New(), alphaRecords()...)}
	svc := newService(t, local)

	iif, qbo := svc.ExportAll(context.Background())
	if !iif.Success || !qbo.Success {
		t.Fatalf("ExportAll failed: %q / %q", iif.Error, qbo.Error)
	}
	if iif.Format != FormatIIF || qbo.Format != FormatQBO {
		t.Errorf("formats = %s, %s", iif.Format, qbo.Format)
	}
	if iif.ExportID == qbo.ExportID {
		t.Error("each pipeline needs its own export id")
	}
	if local.calls.Load() != 2 {
		t.Errorf("local queried %d times, want one resolution per pipeline", local.calls.Load())
	}
	if !reflect.DeepEqual(display(iif.Summaries), display(qbo.Summaries)) {
		t.Error("summaries differ between formats")
	}
}

func TestPreview(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...))

	r := svc.Preview(context.Background(), "beta")
	if !r.Success || r.Document != "" || r.Filename != "" {
		t.Fatalf("unexpected preview %+v", r)
	}
	if r.LoadCount != 1 || len(r.Summaries) != 1 || r.Summaries[0].TotalTons != "2.00" {
		t.Fatalf("unexpected summaries %+v", r.Summaries)
	}
}

func TestShip(t *testing.T) {
	root := t.TempDir()
	d := delivery.NewFileDeliverer(utils.NewFileManager(filepath.Join(root, "out"), filepath.Join(root, "archive")))
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...), WithDeliverer(d))

	r := svc.ExportIIF(context.Background(), "alpha")
	location, err := svc.Ship(context.Background(), r)
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	got, err := os.ReadFile(location)
	if err != nil || string(got) != r.Document {
		t.Fatalf("shipped file mismatch: %v", err)
	}

	if _, err := svc.Ship(context.Background(), Result{ExportID: "x"}); err == nil {
		t.Error("shipping a failed result must error")
	}
}

func TestShip_NoDeliverer(t *testing.T) {
	svc := newService(t, source.NewMemory(normalize.New(), alphaRecords()...))
	r := svc.ExportIIF(context.Background(), "")
	if _, err := svc.Ship(context.Background(), r); err == nil {
		t.Fatal("expected error without a deliverer")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		scope  string
		format Format
		want   string
	}{
		{"", FormatIIF, "loads_all_2026-04-15.iif"},
		{"alpha", FormatQBO, "loads_alpha_2026-04-15.csv"},
		{"Site 12/North", FormatIIF, "loads_Site_12_North_2026-04-15.iif"},
		{"../etc", FormatIIF, "loads_etc_2026-04-15.iif"},
		{"***", FormatQBO, "loads_project_2026-04-15.csv"},
	}
	for _, tt := range tests {
		if got := Filename(tt.scope, tt.format, fixedNow); got != tt.want {
			t.Errorf("Filename(%q, %s) = %s, want %s", tt.scope, tt.format, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" IIF "); err != nil || f != FormatIIF {
		t.Errorf("ParseFormat(IIF) = %s, %v", f, err)
	}
	if f, err := ParseFormat("qbo"); err != nil || f != FormatQBO {
		t.Errorf("ParseFormat(qbo) = %s, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}
