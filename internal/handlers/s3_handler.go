package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/services"
)

// Gateway is the object-store surface used by the handlers
type Gateway interface {
	TestConnection(ctx context.Context, profile models.ConnectionProfile) (models.ConnectionResult, error)
	ListBuckets(ctx context.Context, profile models.ConnectionProfile) ([]models.Bucket, error)
	ListObjects(ctx context.Context, profile models.ConnectionProfile, req services.ListObjectsRequest) (*models.ListingPage, error)
	DownloadObject(ctx context.Context, profile models.ConnectionProfile, bucket, key string) (*services.Download, error)
}

// S3Handler serves the stateless RPC routes. Every request carries its own
// profile.
type S3Handler struct {
	gateway Gateway
	logger  *zap.Logger
}

func NewS3Handler(gateway Gateway, logger *zap.Logger) *S3Handler {
	return &S3Handler{gateway: gateway, logger: logger}
}

// TestConnection checks the profile by listing buckets
func (h *S3Handler) TestConnection(c echo.Context) error {
	b := readBody(c)
	result, err := h.gateway.TestConnection(c.Request().Context(), b.object("profile").profile())
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, result)
}

// ListBuckets returns {buckets: [...]}
func (h *S3Handler) ListBuckets(c echo.Context) error {
	b := readBody(c)
	buckets, err := h.gateway.ListBuckets(c.Request().Context(), b.object("profile").profile())
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, map[string]interface{}{"buckets": buckets})
}

// ListObjects returns one delimiter page
func (h *S3Handler) ListObjects(c echo.Context) error {
	b := readBody(c)
	page, err := h.gateway.ListObjects(c.Request().Context(), b.object("profile").profile(), services.ListObjectsRequest{
		Bucket:            b.str("bucket"),
		Prefix:            b.str("prefix"),
		ContinuationToken: b.str("continuationToken"),
		MaxKeys:           b.maxKeys(),
	})
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, page)
}

// DownloadObject streams the object body as an attachment
func (h *S3Handler) DownloadObject(c echo.Context) error {
	b := readBody(c)
	dl, err := h.gateway.DownloadObject(c.Request().Context(), b.object("profile").profile(), b.str("bucket"), b.str("key"))
	if err != nil {
		return Fail(c, err)
	}
	return streamDownload(c, dl, h.logger)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

// ContentDisposition formats an attachment header for filename
func ContentDisposition(filename string) string {
	return `attachment; filename="` + quoteEscaper.Replace(filename) + `"`
}

func streamDownload(c echo.Context, dl *services.Download, logger *zap.Logger) error {
	defer func() {
		if err := dl.Body.Close(); err != nil {
			logger.Debug("failed to close object body", zap.Error(err))
		}
	}()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, ContentDisposition(dl.Filename))
	if dl.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(dl.Size, 10))
	}
	return c.Stream(http.StatusOK, contentType, dl.Body)
}
