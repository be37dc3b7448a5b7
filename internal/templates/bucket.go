package templates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// BucketStore reads templates from a GCS bucket, optionally below a prefix.
// Objects in nested "directories" below the prefix are not templates.
type BucketStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

func NewBucketStore(client *storage.Client, bucket, prefix string) *BucketStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BucketStore{
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
		prefix:     prefix,
	}
}

func (s *BucketStore) Exists(ctx context.Context, name string) (bool, error) {
	if !ValidName(name) {
		return false, nil
	}
	_, err := s.bucket.Object(s.prefix + name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get attrs for gs://%s/%s%s: %w", s.bucketName, s.prefix, name, err)
	}
	return true, nil
}

func (s *BucketStore) List(ctx context.Context) ([]string, error) {
	query := &storage.Query{Prefix: s.prefix, Delimiter: "/"}
	it := s.bucket.Objects(ctx, query)

	names := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list templates in gs://%s/%s: %w", s.bucketName, s.prefix, err)
		}
		// Synthetic directory entries only carry a Prefix.
		if attrs.Prefix != "" {
			continue
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if strings.HasSuffix(name, Extension) && ValidName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *BucketStore) Read(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	reader, err := s.bucket.Object(s.prefix + name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s%s: %w", s.bucketName, s.prefix, name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return content, nil
}
