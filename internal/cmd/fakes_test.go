package cmd

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/services"
)

// memStore is an in-memory object store with real delimiter listing.
// Continuation tokens are offsets into the combined folder/file sequence.
type memStore struct {
	mu       sync.Mutex
	created  time.Time
	buckets  map[string]map[string]string
	profiles []models.ConnectionProfile
}

func newMemStore() *memStore {
	return &memStore{
		created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		buckets: make(map[string]map[string]string),
	}
}

func (s *memStore) put(bucket, key, body string) *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string]string)
	}
	s.buckets[bucket][key] = body
	return s
}

func (s *memStore) NewClient(profile models.ConnectionProfile) (services.StoreClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, profile)
	return s, nil
}

func (s *memStore) ListBuckets(ctx context.Context) ([]services.BucketEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]services.BucketEntry, 0, len(names))
	for _, name := range names {
		out = append(out, services.BucketEntry{Name: name, CreationDate: s.created})
	}
	return out, nil
}

type memEntry struct {
	folder string
	object services.ObjectEntry
}

func (s *memStore) ListObjects(ctx context.Context, opts services.ListObjectsOptions) (services.ListObjectsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[opts.Bucket]
	if !ok {
		return services.ListObjectsResult{}, minio.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}
	}

	keys := make([]string, 0, len(objects))
	for key := range objects {
		if strings.HasPrefix(key, opts.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var entries []memEntry
	seen := make(map[string]bool)
	for _, key := range keys {
		rest := key[len(opts.Prefix):]
		if i := strings.Index(rest, opts.Delimiter); opts.Delimiter != "" && i >= 0 {
			folder := opts.Prefix + rest[:i+1]
			if !seen[folder] {
				seen[folder] = true
				entries = append(entries, memEntry{folder: folder})
			}
			continue
		}
		entries = append(entries, memEntry{object: services.ObjectEntry{
			Key:          key,
			Size:         int64(len(objects[key])),
			LastModified: s.created,
			ETag:         `"` + strconv.Itoa(len(objects[key])) + `"`,
			StorageClass: "STANDARD",
		}})
	}

	start := 0
	if opts.ContinuationToken != "" {
		start, _ = strconv.Atoi(opts.ContinuationToken)
	}
	end := start + opts.MaxKeys
	if end > len(entries) {
		end = len(entries)
	}

	var res services.ListObjectsResult
	for _, e := range entries[start:end] {
		if e.folder != "" {
			res.CommonPrefixes = append(res.CommonPrefixes, e.folder)
		} else {
			res.Contents = append(res.Contents, e.object)
		}
	}
	if end < len(entries) {
		res.IsTruncated = true
		res.NextContinuationToken = strconv.Itoa(end)
	}
	return res, nil
}

func (s *memStore) GetObject(ctx context.Context, bucket, key string) (*services.ObjectStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.buckets[bucket][key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return &services.ObjectStream{
		Body:        io.NopCloser(strings.NewReader(body)),
		ContentType: "text/plain",
		Size:        int64(len(body)),
	}, nil
}
