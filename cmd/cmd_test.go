package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/loadexport/internal/config"
)

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "loads.csv")
	body := "id,ticket_number,project_id,project_name,load_date,weight_tons,status\n" +
		"L1,T-1,alpha,Alpha,2026-04-01,2.5,confirmed\n" +
		"L2,T-2,alpha,Alpha,2026-04-01,1.0,confirmed\n" +
		"L3,T-3,alpha,Alpha,2026-04-02,9,draft\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.CSVPath = writeSnapshot(t, dir)
	cfg.Billing.TimeZone = "UTC"
	cfg.Output.OutputDir = filepath.Join(dir, "out")
	cfg.Output.ArchiveDir = filepath.Join(dir, "archive")
	return cfg
}

func TestNewApp_CSVSnapshot(t *testing.T) {
	cfg := testConfig(t)

	a, err := newApp(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	r := a.service.ExportIIF(context.Background(), "alpha")
	if !r.Success {
		t.Fatalf("export failed: %s", r.Error)
	}
	if r.LoadCount != 2 || !strings.Contains(r.Document, "\t437.50\t") {
		t.Fatalf("unexpected result %+v", r)
	}

	location, err := a.service.Ship(context.Background(), r)
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if filepath.Dir(location) != cfg.Output.OutputDir {
		t.Errorf("shipped to %s", location)
	}
}

func TestNewApp_OfflineWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Kind = "none"
	cfg.Source.RemoteEndpoint = "http://127.0.0.1:1"
	cfg.Source.Offline = true

	a, err := newApp(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if r := a.service.Preview(context.Background(), ""); r.Success || !r.NoData() {
		t.Fatalf("want NoData, got %+v", r)
	}
}

func TestVersionCommand(t *testing.T) {
	saved := Version
	Version = "9.9.9"
	t.Cleanup(func() {
		Version = saved
		versionShort = false
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"full", []string{"version"}, []string{"loadexport 9.9.9\n", "  formats: iif (.iif), qbo (.csv)\n"}},
		{"short", []string{"version", "--short"}, []string{"9.9.9\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tt.args)

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
		})
	}
}

func TestBuildVersion_Unstamped(t *testing.T) {
	saved := Version
	Version = ""
	t.Cleanup(func() { Version = saved })

	if got := buildVersion(); got == "" {
		t.Fatal("unstamped build reported an empty version")
	}
}

func TestPrintSummaries(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	r := a.service.Preview(context.Background(), "")
	var out bytes.Buffer
	printSummaries(&out, r.Summaries, a.service.Rate())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header, one project and totals, got %q", out.String())
	}
	if !strings.Contains(lines[1], "Alpha (alpha)") || !strings.Contains(lines[1], "$437.50") {
		t.Errorf("unexpected project line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "All projects") {
		t.Errorf("unexpected totals line %q", lines[2])
	}
}
