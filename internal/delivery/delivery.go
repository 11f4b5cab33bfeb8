// Package delivery ships finished export documents to their destination:
// the local output directory or a Cloud Storage bucket.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/pkg/utils"
)

// Deliverer hands a document to its destination and returns where it went.
type Deliverer interface {
	Deliver(ctx context.Context, filename, contentType, document string) (string, error)
	Close() error
}

// FromConfig builds the Deliverer selected by cfg.Delivery.
func FromConfig(ctx context.Context, cfg config.OutputConfig) (Deliverer, error) {
	switch cfg.Delivery {
	case "", "file":
		return NewFileDeliverer(utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir)), nil
	case "gcs":
		return NewGCSDeliverer(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return nil, fmt.Errorf("unknown delivery %q", cfg.Delivery)
	}
}

// FileDeliverer writes documents into the output directory.
type FileDeliverer struct {
	fm *utils.FileManager
}

// NewFileDeliverer creates a FileDeliverer over fm.
func NewFileDeliverer(fm *utils.FileManager) *FileDeliverer {
	return &FileDeliverer{fm: fm}
}

// Deliver implements Deliverer. It returns the written path.
func (d *FileDeliverer) Deliver(ctx context.Context, filename, _ string, document string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, _, err := d.fm.WriteOutput(filename, strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("deliver %s: %w", filename, err)
	}
	return path, nil
}

// Close implements Deliverer.
func (d *FileDeliverer) Close() error { return nil }
