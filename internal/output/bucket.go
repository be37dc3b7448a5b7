package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/compliancedocs/internal/gcp"
)

// BucketSink stores documents as objects in a GCS bucket.
type BucketSink struct {
	bucket          *storage.BucketHandle
	bucketName      string
	prefix          string
	downloadBaseURL string
}

func NewBucketSink(client *storage.Client, bucket, prefix, downloadBaseURL string) *BucketSink {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BucketSink{
		bucket:          client.Bucket(bucket),
		bucketName:      bucket,
		prefix:          prefix,
		downloadBaseURL: downloadBaseURL,
	}
}

func (s *BucketSink) Locate(filename string) Location {
	return Location{
		Filename:    filename,
		Path:        fmt.Sprintf("gs://%s/%s%s", s.bucketName, s.prefix, filename),
		DownloadURL: downloadURL(s.downloadBaseURL, filename),
	}
}

func (s *BucketSink) Save(ctx context.Context, filename string, content []byte) error {
	if !validFilename(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}
	err := gcp.SaveToGCSAtomically(ctx, s.bucket, s.prefix+filename, content, contentTypePDF)
	if errors.Is(err, gcp.ErrObjectExists) {
		return fmt.Errorf("%w: %s", ErrExists, filename)
	}
	return err
}

func (s *BucketSink) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if !validFilename(filename) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, filename)
	}
	reader, err := s.bucket.Object(s.prefix + filename).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s%s: %w", s.bucketName, s.prefix, filename, err)
	}
	return reader, nil
}

func (s *BucketSink) Delete(ctx context.Context, filename string) error {
	if !validFilename(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}
	err := s.bucket.Object(s.prefix + filename).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete gs://%s/%s%s: %w", s.bucketName, s.prefix, filename, err)
	}
	return nil
}
