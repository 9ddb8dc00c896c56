package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// WrappedMinioClient wraps minio.Core to implement StoreClient
type WrappedMinioClient struct {
	core *minio.Core
}

func (c *WrappedMinioClient) ListBuckets(ctx context.Context) ([]BucketEntry, error) {
	buckets, err := c.core.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]BucketEntry, 0, len(buckets))
	for _, b := range buckets {
		entries = append(entries, BucketEntry{Name: b.Name, CreationDate: b.CreationDate})
	}
	return entries, nil
}

type minioListing struct {
	res minio.ListBucketV2Result
	err error
}

// ListObjects issues a single ListObjectsV2 request. minio.Core does not take
// a context for listings, so the request runs in its own goroutine and ctx
// only bounds how long the caller waits for it.
func (c *WrappedMinioClient) ListObjects(ctx context.Context, opts ListObjectsOptions) (ListObjectsResult, error) {
	if err := ctx.Err(); err != nil {
		return ListObjectsResult{}, err
	}

	done := make(chan minioListing, 1)
	go func() {
		res, err := c.core.ListObjectsV2(opts.Bucket, opts.Prefix, "", opts.ContinuationToken, opts.Delimiter, opts.MaxKeys)
		done <- minioListing{res: res, err: err}
	}()

	var res minio.ListBucketV2Result
	select {
	case <-ctx.Done():
		return ListObjectsResult{}, ctx.Err()
	case l := <-done:
		if l.err != nil {
			return ListObjectsResult{}, l.err
		}
		res = l.res
	}

	result := ListObjectsResult{
		CommonPrefixes:        make([]string, 0, len(res.CommonPrefixes)),
		Contents:              make([]ObjectEntry, 0, len(res.Contents)),
		IsTruncated:           res.IsTruncated,
		NextContinuationToken: res.NextContinuationToken,
	}
	for _, p := range res.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, p.Prefix)
	}
	for _, obj := range res.Contents {
		result.Contents = append(result.Contents, ObjectEntry{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
			StorageClass: obj.StorageClass,
		})
	}
	return result, nil
}

func (c *WrappedMinioClient) GetObject(ctx context.Context, bucket, key string) (*ObjectStream, error) {
	body, info, header, err := c.core.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return &ObjectStream{
		Body:               body,
		ContentDisposition: header.Get("Content-Disposition"),
		ContentType:        info.ContentType,
		Size:               info.Size,
	}, nil
}

// MinioFactory is the default StoreClientFactory, backed by minio-go
type MinioFactory struct{}

// shouldUseSSL determines if SSL should be used for a scheme-less endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	// Local development endpoints
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, ...) without dots
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

// parseEndpoint splits a profile endpoint into the host[:port] minio-go
// expects and whether TLS should be used. An explicit scheme wins; without
// one the local-development heuristics of shouldUseSSL apply.
func parseEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		host := strings.TrimSuffix(endpoint, "/")
		if host == "" || strings.Contains(host, "/") {
			return "", false, fmt.Errorf("invalid endpoint %q", endpoint)
		}
		return host, shouldUseSSL(host), nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("invalid endpoint %q: path is not supported", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (f *MinioFactory) NewClient(profile models.ConnectionProfile) (StoreClient, error) {
	host, secure, err := parseEndpoint(profile.Endpoint)
	if err != nil {
		return nil, &APIError{Code: CodeInvalidProfile, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	}

	lookup := minio.BucketLookupAuto
	if profile.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(host, &minio.Options{
		Creds:        credentials.NewStaticV4(profile.AccessKeyID, profile.SecretAccessKey, ""),
		Secure:       secure,
		Region:       profile.Region,
		BucketLookup: lookup,
		// retries are an explicit user action
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}
	return &WrappedMinioClient{core: core}, nil
}
