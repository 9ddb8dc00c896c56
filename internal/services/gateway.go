package services

import (
	"context"
	"io"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/metrics"
	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/utils"
)

const (
	// DefaultMaxKeys is the page size used when the caller gives none
	DefaultMaxKeys = 200

	// MaxAllowedKeys is the protocol maximum for one listing page
	MaxAllowedKeys = 1000

	// Delimiter separates folder levels in object keys
	Delimiter = "/"

	// DefaultDownloadName is used when no filename can be derived
	DefaultDownloadName = "download"
)

// ClampMaxKeys applies the default page size to values below 1 and caps the
// result at MaxAllowedKeys.
func ClampMaxKeys(n int) int {
	if n < 1 {
		return DefaultMaxKeys
	}
	if n > MaxAllowedKeys {
		return MaxAllowedKeys
	}
	return n
}

// ListObjectsRequest is one navigator fetch intent
type ListObjectsRequest struct {
	Bucket            string
	Prefix            string
	ContinuationToken string
	MaxKeys           int
}

// Download is an open object body with a filename hint. Callers must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Gateway translates browse operations into store calls and normalizes the
// results. Every error it returns is an *APIError. Nothing is retried.
type Gateway struct {
	factory StoreClientFactory
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records store calls on m
func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// WithTimeout bounds listing calls. Zero disables the bound.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// NewGateway creates a Gateway over the given client factory
func NewGateway(factory StoreClientFactory, opts ...GatewayOption) *Gateway {
	g := &Gateway{factory: factory, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// validate checks the profile, then each named value in order, before any
// client is built
func validate(profile models.ConnectionProfile, checks ...func() *APIError) *APIError {
	if err := ValidateProfile(profile); err != nil {
		return NormalizeError(err)
	}
	for _, check := range checks {
		if apiErr := check(); apiErr != nil {
			return apiErr
		}
	}
	return nil
}

func requireBucket(bucket string) func() *APIError {
	return func() *APIError {
		if bucket == "" {
			return ErrMissingBucket()
		}
		return nil
	}
}

func requireKey(key string) func() *APIError {
	return func() *APIError {
		if key == "" {
			return ErrMissingKey()
		}
		return nil
	}
}

func (g *Gateway) client(profile models.ConnectionProfile, checks ...func() *APIError) (StoreClient, *APIError) {
	if apiErr := validate(profile, checks...); apiErr != nil {
		return nil, apiErr
	}
	client, err := g.factory.NewClient(NormalizeProfile(profile))
	if err != nil {
		return nil, NormalizeError(err)
	}
	return client, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) finish(op string, start time.Time, err error, fields ...zap.Field) *APIError {
	apiErr := NormalizeError(err)
	code := "OK"
	if apiErr != nil {
		code = apiErr.Code
		g.logger.Warn("store call failed",
			append(fields, zap.String("op", op), zap.String("code", code), zap.String("message", apiErr.Message))...)
	} else {
		g.logger.Debug("store call", append(fields, zap.String("op", op), zap.Duration("elapsed", time.Since(start)))...)
	}
	g.metrics.Observe(op, code, time.Since(start))
	return apiErr
}

// TestConnection lists buckets to verify the profile. An access-denied
// response still counts as connected: the key is valid but may not list
// buckets.
func (g *Gateway) TestConnection(ctx context.Context, profile models.ConnectionProfile) (models.ConnectionResult, error) {
	client, apiErr := g.client(profile)
	if apiErr != nil {
		return models.ConnectionResult{}, apiErr
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, err := client.ListBuckets(ctx)
	if apiErr := g.finish("TestConnection", start, err); apiErr != nil {
		if accessDeniedCodes[apiErr.Code] {
			return models.ConnectionResult{
				Connected:          true,
				LimitedPermissions: true,
				Message:            "Connected, but this key cannot list buckets. You can still browse known buckets.",
			}, nil
		}
		return models.ConnectionResult{}, apiErr
	}

	return models.ConnectionResult{Connected: true, Message: "Connection successful."}, nil
}

// ListBuckets returns the buckets visible to the profile, skipping unnamed entries
func (g *Gateway) ListBuckets(ctx context.Context, profile models.ConnectionProfile) ([]models.Bucket, error) {
	client, apiErr := g.client(profile)
	if apiErr != nil {
		return nil, apiErr
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	entries, err := client.ListBuckets(ctx)
	if apiErr := g.finish("ListBuckets", start, err); apiErr != nil {
		return nil, apiErr
	}

	buckets := make([]models.Bucket, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		buckets = append(buckets, models.Bucket{
			Name:         e.Name,
			CreationDate: utils.ISOTimestamp(e.CreationDate),
		})
	}
	return buckets, nil
}

// ListObjects fetches one delimiter page. Folder and file order is the
// store's; the directory marker object (key == prefix) is dropped.
func (g *Gateway) ListObjects(ctx context.Context, profile models.ConnectionProfile, req ListObjectsRequest) (*models.ListingPage, error) {
	bucket := strings.TrimSpace(req.Bucket)
	client, apiErr := g.client(profile, requireBucket(bucket))
	if apiErr != nil {
		return nil, apiErr
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := client.ListObjects(ctx, ListObjectsOptions{
		Bucket:            bucket,
		Prefix:            req.Prefix,
		Delimiter:         Delimiter,
		ContinuationToken: req.ContinuationToken,
		MaxKeys:           ClampMaxKeys(req.MaxKeys),
	})
	if apiErr := g.finish("ListObjects", start, err, zap.String("bucket", bucket), zap.String("prefix", req.Prefix)); apiErr != nil {
		return nil, apiErr
	}

	return mapListing(bucket, req.Prefix, res), nil
}

func mapListing(bucket, prefix string, res ListObjectsResult) *models.ListingPage {
	page := &models.ListingPage{
		Bucket:                bucket,
		Prefix:                prefix,
		Folders:               make([]string, 0, len(res.CommonPrefixes)),
		Files:                 make([]models.ObjectFile, 0, len(res.Contents)),
		IsTruncated:           res.IsTruncated,
		NextContinuationToken: utils.StringOrNil(res.NextContinuationToken),
	}
	for _, p := range res.CommonPrefixes {
		if p == "" {
			continue
		}
		page.Folders = append(page.Folders, p)
	}
	for _, obj := range res.Contents {
		if obj.Key == "" || obj.Key == prefix {
			continue
		}
		page.Files = append(page.Files, models.ObjectFile{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: utils.ISOTimestamp(obj.LastModified),
			ETag:         utils.StringOrNil(obj.ETag),
			StorageClass: utils.StringOrNil(obj.StorageClass),
		})
	}
	return page
}

// DownloadObject opens the object body unmodified. The request timeout is not
// applied because the body is consumed after this call returns.
func (g *Gateway) DownloadObject(ctx context.Context, profile models.ConnectionProfile, bucket, key string) (*Download, error) {
	bucket = strings.TrimSpace(bucket)
	key = strings.TrimSpace(key)
	client, apiErr := g.client(profile, requireBucket(bucket), requireKey(key))
	if apiErr != nil {
		return nil, apiErr
	}

	start := time.Now()
	obj, err := client.GetObject(ctx, bucket, key)
	if apiErr := g.finish("DownloadObject", start, err, zap.String("bucket", bucket), zap.String("key", key)); apiErr != nil {
		return nil, apiErr
	}

	return &Download{
		Body:        obj.Body,
		Filename:    DownloadFilename(obj.ContentDisposition, key),
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}, nil
}

// DownloadFilename picks the filename from a content-disposition header,
// else the last non-empty segment of key, else DefaultDownloadName.
func DownloadFilename(contentDisposition, key string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}

	segments := strings.Split(key, Delimiter)
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return DefaultDownloadName
}
