package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/damacus/bucket-explorer/internal/models"
)

// Store drivers accepted by NewStoreClientFactory
const (
	DriverMinio = "minio"
	DriverAWS   = "aws"
)

// ListObjectsOptions describes one delimiter listing request
type ListObjectsOptions struct {
	Bucket            string
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int
}

// ObjectEntry is a raw object summary as reported by the store
type ObjectEntry struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	StorageClass string
}

// ListObjectsResult is one raw page from the store
type ListObjectsResult struct {
	CommonPrefixes        []string
	Contents              []ObjectEntry
	IsTruncated           bool
	NextContinuationToken string
}

// BucketEntry is a raw bucket summary as reported by the store
type BucketEntry struct {
	Name         string
	CreationDate time.Time
}

// ObjectStream is an open object body. Callers must close Body.
type ObjectStream struct {
	Body               io.ReadCloser
	ContentDisposition string
	ContentType        string
	Size               int64
}

// StoreClient is the object-store surface the gateway consumes
type StoreClient interface {
	ListBuckets(ctx context.Context) ([]BucketEntry, error)
	ListObjects(ctx context.Context, opts ListObjectsOptions) (ListObjectsResult, error)
	GetObject(ctx context.Context, bucket, key string) (*ObjectStream, error)
}

// StoreClientFactory creates clients bound to a connection profile
type StoreClientFactory interface {
	NewClient(profile models.ConnectionProfile) (StoreClient, error)
}

// NewStoreClientFactory returns the factory for the named driver
func NewStoreClientFactory(driver string) (StoreClientFactory, error) {
	switch driver {
	case "", DriverMinio:
		return &MinioFactory{}, nil
	case DriverAWS:
		return &AWSFactory{}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
