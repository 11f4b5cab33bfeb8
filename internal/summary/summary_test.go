package summary

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

var rate = decimal.RequireFromString("125.00")

func alphaBeta() []types.RawRecord {
	return []types.RawRecord{
		{"id": "1", "projectId": "alpha", "projectName": "Alpha", "weightTons": 2.5, "co2Avoided": 0.1},
		{"id": "2", "project_id": "alpha", "weight_tons": 1.0, "co2_avoided": 0.025},
		{"id": "3", "projectId": "beta", "projectName": "Beta", "weightLbs": 4000},
		{"id": "4"},
	}
}

func TestAggregateRecords(t *testing.T) {
	got := AggregateRecords(alphaBeta(), normalize.New(), rate)
	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}

	tests := []struct {
		idx                            int
		id, name                       string
		count                          int
		tons, revenue, emissionsAvoided string
	}{
		{0, "alpha", "Alpha", 2, "3.50", "$437.50", "0.13 tons CO2e"},
		{1, "beta", "Beta", 1, "2.00", "$250.00", "0.00 tons CO2e"},
		{2, types.UnassignedProject, types.UnassignedProject, 1, "0.00", "$0.00", "0.00 tons CO2e"},
	}
	for _, tt := range tests {
		s := got[tt.idx]
		if s.ProjectID != tt.id || s.ProjectName != tt.name || s.LoadCount != tt.count {
			t.Errorf("summary %d identity = %s/%s/%d", tt.idx, s.ProjectID, s.ProjectName, s.LoadCount)
		}
		if s.TotalTons != tt.tons || s.Revenue != tt.revenue || s.EmissionsAvoided != tt.emissionsAvoided {
			t.Errorf("summary %d = %s, %s, %s; want %s, %s, %s", tt.idx,
				s.TotalTons, s.Revenue, s.EmissionsAvoided, tt.tons, tt.revenue, tt.emissionsAvoided)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil, normalize.New(), rate); len(got) != 0 {
		t.Fatalf("want no summaries, got %v", got)
	}
}

func TestTotal(t *testing.T) {
	total := Total(AggregateRecords(alphaBeta(), normalize.New(), rate), rate)
	if total.LoadCount != 4 || total.TotalTons != "5.50" || total.Revenue != "$687.50" {
		t.Fatalf("unexpected total %+v", total)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "$0.00"},
		{"437.5", "$437.50"},
		{"1234567.891", "$1,234,567.89"},
		{"999.999", "$1,000.00"},
		{"-12.3", "-$12.30"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCurrency(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWriteWorkbook(t *testing.T) {
	summaries := AggregateRecords(alphaBeta(), normalize.New(), rate)

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, summaries, rate); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != SheetName {
		t.Fatalf("sheet = %q, want %q", name, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want header + 3 projects + total", len(rows))
	}
	if rows[0][0] != "Project ID" || rows[1][0] != "alpha" || rows[1][4] != "437.5" {
		t.Errorf("unexpected rows %v", rows[:2])
	}
	if rows[4][1] != "All projects" || rows[4][2] != "4" {
		t.Errorf("unexpected totals row %v", rows[4])
	}
}
