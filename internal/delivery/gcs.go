package delivery

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// GCSDeliverer uploads documents to a Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCSDeliverer struct {
	bucket    string
	prefix    string
	client    *storage.Client
	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
}

// NewGCSDeliverer creates a storage client for bucket. Objects are named
// prefix/filename.
func NewGCSDeliverer(ctx context.Context, bucket, prefix string) (*GCSDeliverer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	d := &GCSDeliverer{bucket: bucket, prefix: prefix, client: client}
	d.newWriter = func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return d, nil
}

// Deliver implements Deliverer. It returns the gs:// URI of the object.
func (d *GCSDeliverer) Deliver(ctx context.Context, filename, contentType, document string) (string, error) {
	object := d.objectName(filename)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := d.newWriter(ctx, object, contentType)
	if _, err := io.Copy(w, strings.NewReader(document)); err != nil {
		w.Close()
		return "", fmt.Errorf("copy %s to GCS writer: %w", filename, err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload of %s: %w", filename, err)
	}

	return "gs://" + d.bucket + "/" + object, nil
}

// Close releases the storage client.
func (d *GCSDeliverer) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *GCSDeliverer) objectName(filename string) string {
	prefix := strings.Trim(d.prefix, "/")
	if prefix == "" {
		return filename
	}
	return path.Join(prefix, filename)
}
