package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Uploader pushes an uploaded image (plus generated thumbnails) to the object
// store and deletes stored variants by key. Implemented against GCS; handler
// tests substitute a fake.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) ([]Variant, error)
	DeleteKeys(ctx context.Context, keys []string) error
}

type ClientUploader struct {
	cl         *gcs.Client
	projectID  string
	bucketName string
	uploadPath string
}

func NewClientUploader(ctx context.Context, projectID, bucketName string) (*ClientUploader, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &ClientUploader{
		cl:         client,
		projectID:  projectID,
		bucketName: bucketName,
		uploadPath: "memories/",
	}, nil
}

// Upload stores the original and its thumbnails and returns every stored
// variant. The caller decides which variant drives record creation; all keys
// are retained for compensating deletion.
func (c *ClientUploader) Upload(ctx context.Context, r io.Reader, filename string) ([]Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %v", err)
	}

	blobs, err := buildVariants(data, filename, c.uploadPath+uuid.NewString())
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, len(blobs))
	for _, b := range blobs {
		if err := c.writeObject(ctx, b.key, b.data); err != nil {
			return nil, err
		}
		variants = append(variants, Variant{
			Key:      b.key,
			URL:      c.publicURL(b.key),
			Original: b.original,
		})
	}

	return variants, nil
}

func (c *ClientUploader) writeObject(ctx context.Context, key string, data []byte) error {
	wc := c.cl.Bucket(c.bucketName).Object(key).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		return fmt.Errorf("Writer.Write: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %v", err)
	}
	return nil
}

func (c *ClientUploader) publicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, key)
}

// DeleteKeys removes every stored variant for a deleted memory. GCS has no
// server-side batch delete, so objects are removed one by one and errors are
// aggregated; a missing object is not an error.
func (c *ClientUploader) DeleteKeys(ctx context.Context, keys []string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	var errs []error
	for _, key := range keys {
		err := c.cl.Bucket(c.bucketName).Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %v", key, err))
		}
	}

	return errors.Join(errs...)
}
