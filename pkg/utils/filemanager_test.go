package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "out"), filepath.Join(root, "archive"))
	fm.now = func() time.Time { return time.Date(2026, 4, 15, 10, 15, 0, 0, time.UTC) }
	return fm
}

func TestWriteOutput_NewFile(t *testing.T) {
	fm := newTestManager(t)

	path, archived, err := fm.WriteOutput("loads_all_2026-04-15.iif", strings.NewReader("doc"))
	if err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	if archived != "" {
		t.Errorf("nothing to archive, got %q", archived)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "doc" {
		t.Fatalf("read back %q, %v", got, err)
	}

	entries, _ := os.ReadDir(fm.OutputDir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestWriteOutput_ArchivesPrevious(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true

	if _, _, err := fm.WriteOutput("loads_all_2026-04-15.csv", strings.NewReader("first")); err != nil {
		t.Fatal(err)
	}
	path, archived, err := fm.WriteOutput("loads_all_2026-04-15.csv", strings.NewReader("second"))
	if err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}

	if got, _ := os.ReadFile(path); string(got) != "second" {
		t.Errorf("output = %q, want second", got)
	}
	if got, _ := os.ReadFile(archived); string(got) != "first" {
		t.Errorf("archive = %q, want first", got)
	}

	wantDir := filepath.Join(fm.ArchiveDir, "2026", "04", "15")
	if filepath.Dir(archived) != wantDir {
		t.Errorf("archive dir = %s, want %s", filepath.Dir(archived), wantDir)
	}
	base := filepath.Base(archived)
	if !strings.HasPrefix(base, "loads_all_2026-04-15_20260415_101500_") || !strings.HasSuffix(base, ".csv") {
		t.Errorf("unexpected archive name %s", base)
	}
}

func TestWriteOutput_RejectsPaths(t *testing.T) {
	fm := newTestManager(t)
	for _, name := range []string{"", "../escape.iif", "sub/dir.iif", ".."} {
		if _, _, err := fm.WriteOutput(name, strings.NewReader("x")); err == nil {
			t.Errorf("WriteOutput(%q) succeeded, want error", name)
		}
	}
}
