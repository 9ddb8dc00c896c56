package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/damacus/bucket-explorer/internal/kvstore"
	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) TestConnection(ctx context.Context, profile models.ConnectionProfile) (models.ConnectionResult, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(models.ConnectionResult), args.Error(1)
}

func (m *MockGateway) ListBuckets(ctx context.Context, profile models.ConnectionProfile) ([]models.Bucket, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bucket), args.Error(1)
}

func (m *MockGateway) ListObjects(ctx context.Context, profile models.ConnectionProfile, req services.ListObjectsRequest) (*models.ListingPage, error) {
	args := m.Called(ctx, profile, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListingPage), args.Error(1)
}

func (m *MockGateway) DownloadObject(ctx context.Context, profile models.ConnectionProfile, bucket, key string) (*services.Download, error) {
	args := m.Called(ctx, profile, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Download), args.Error(1)
}

var testProfile = models.ConnectionProfile{
	ID:              "p1",
	Name:            "local",
	Endpoint:        "http://localhost:9000",
	Region:          models.DefaultRegion,
	AccessKeyID:     "admin",
	SecretAccessKey: "password",
	ForcePathStyle:  true,
}

func newProfileStore(t *testing.T, seed ...models.ConnectionProfile) *profiles.Store {
	t.Helper()
	store, err := profiles.Open(context.Background(), kvstore.NewMemory())
	require.NoError(t, err)
	for _, p := range seed {
		_, err := store.Save(context.Background(), p)
		require.NoError(t, err)
	}
	return store
}

func jsonContext(method, target, payload string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// okPage is a convenience listing page for gateway mocks
func okPage(bucket, prefix string, token *string, folders ...string) *models.ListingPage {
	return &models.ListingPage{
		Bucket:                bucket,
		Prefix:                prefix,
		Folders:               append([]string{}, folders...),
		Files:                 []models.ObjectFile{},
		IsTruncated:           token != nil,
		NextContinuationToken: token,
	}
}

