package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/pkg/utils"
)

func TestFileDeliverer(t *testing.T) {
	root := t.TempDir()
	d := NewFileDeliverer(utils.NewFileManager(filepath.Join(root, "out"), filepath.Join(root, "archive")))

	path, err := d.Deliver(context.Background(), "loads_alpha_2026-04-15.iif", "text/plain", "doc\r\n")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if want := filepath.Join(root, "out", "loads_alpha_2026-04-15.iif"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "doc\r\n" {
		t.Fatalf("read back %q, %v", got, err)
	}
}

func TestFileDeliverer_CanceledContext(t *testing.T) {
	root := t.TempDir()
	d := NewFileDeliverer(utils.NewFileManager(root, root))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Deliver(ctx, "x.iif", "", "doc"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	d, err := FromConfig(context.Background(), config.OutputConfig{Delivery: "file", OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := d.(*FileDeliverer); !ok {
		t.Errorf("got %T, want *FileDeliverer", d)
	}

	if _, err := FromConfig(context.Background(), config.OutputConfig{Delivery: "ftp"}); err == nil {
		t.Error("expected error for unknown delivery")
	}
}

type memWriter struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (w *memWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestGCSDeliverer(t *testing.T) {
	var (
		gotObject, gotType string
		w                  = &memWriter{}
	)
	d := &GCSDeliverer{
		bucket: "exports",
		prefix: "/loads/",
		newWriter: func(ctx context.Context, object, contentType string) io.WriteCloser {
			gotObject, gotType = object, contentType
			return w
		},
	}

	uri, err := d.Deliver(context.Background(), "loads_all_2026-04-15.csv", "text/csv", "a,b\r\n")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if uri != "gs://exports/loads/loads_all_2026-04-15.csv" {
		t.Errorf("uri = %s", uri)
	}
	if gotObject != "loads/loads_all_2026-04-15.csv" || gotType != "text/csv" {
		t.Errorf("object=%s type=%s", gotObject, gotType)
	}
	if w.String() != "a,b\r\n" || !w.closed {
		t.Errorf("upload body %q closed=%v", w.String(), w.closed)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close without client: %v", err)
	}
}

func TestGCSDeliverer_FinalizeError(t *testing.T) {
	d := &GCSDeliverer{
		bucket: "exports",
		newWriter: func(context.Context, string, string) io.WriteCloser {
			return &memWriter{closeErr: errors.New("permission denied")}
		},
	}
	if _, err := d.Deliver(context.Background(), "x.iif", "", "doc"); err == nil {
		t.Fatal("expected finalize error")
	}
}
