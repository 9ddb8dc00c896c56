package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/kvstore"
	"github.com/damacus/bucket-explorer/internal/metrics"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
)

const testProfileJSON = `{"endpoint":"http://localhost:9000","accessKeyId":"admin","secretAccessKey":"password"}`

type journey struct {
	t     *testing.T
	e     *echo.Echo
	store *profiles.Store
	objs  *memStore
	token string
}

func newJourney(t *testing.T, accessToken string) *journey {
	t.Helper()
	objs := newMemStore().
		put("docs", "readme.txt", "hello").
		put("docs", "reports/", "").
		put("docs", "reports/q1.pdf", "quarter one").
		put("docs", "reports/q2.pdf", "quarter two").
		put("docs", "reports/2024/summary.pdf", "summary").
		put("logs", "app.log", "line")

	store, err := profiles.Open(context.Background(), kvstore.NewMemory())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	gw := services.NewGateway(objs, services.WithMetrics(metrics.New(reg)))

	e := newServer(serverDeps{
		gateway:     gw,
		store:       store,
		registry:    reg,
		logger:      zap.NewNop(),
		pageSize:    2,
		accessToken: accessToken,
	})
	return &journey{t: t, e: e, store: store, objs: objs, token: accessToken}
}

func (j *journey) do(method, target, body string) *httptest.ResponseRecorder {
	j.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if j.token != "" {
		req.Header.Set("X-Explorer-Token", j.token)
	}
	rec := httptest.NewRecorder()
	j.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (j *journey) data(rec *httptest.ResponseRecorder, v interface{}) {
	j.t.Helper()
	var env envelope
	require.NoError(j.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(j.t, env.OK, rec.Body.String())
	if v != nil {
		require.NoError(j.t, json.Unmarshal(env.Data, v))
	}
}

func (j *journey) failure(rec *httptest.ResponseRecorder) string {
	j.t.Helper()
	var env envelope
	require.NoError(j.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.False(j.t, env.OK)
	require.NotNil(j.t, env.Error)
	return env.Error.Code
}

func TestJourney_HealthAndHeaders(t *testing.T) {
	j := newJourney(t, "")

	rec := j.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = j.do(http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", j.failure(rec))
}

func TestJourney_StatelessRPC(t *testing.T) {
	j := newJourney(t, "")

	rec := j.do(http.MethodPost, "/api/s3/test-connection", `{"profile":`+testProfileJSON+`}`)
	var conn struct {
		Connected bool   `json:"connected"`
		Message   string `json:"message"`
	}
	j.data(rec, &conn)
	assert.True(t, conn.Connected)
	assert.Equal(t, "Connection successful.", conn.Message)

	rec = j.do(http.MethodPost, "/api/s3/list-buckets", `{"profile":`+testProfileJSON+`}`)
	assert.JSONEq(t, `{"ok":true,"data":{"buckets":[
		{"name":"docs","creationDate":"2024-01-02T03:04:05.000Z"},
		{"name":"logs","creationDate":"2024-01-02T03:04:05.000Z"}
	]}}`, rec.Body.String())

	rec = j.do(http.MethodPost, "/api/s3/list-objects", `{"profile":`+testProfileJSON+`,"bucket":"docs","prefix":"reports/","maxKeys":10}`)
	var page struct {
		Folders []string `json:"folders"`
		Files   []struct {
			Key string `json:"key"`
		} `json:"files"`
		IsTruncated bool `json:"isTruncated"`
	}
	j.data(rec, &page)
	assert.Equal(t, []string{"reports/2024/"}, page.Folders)
	require.Len(t, page.Files, 2, "directory marker is dropped")
	assert.Equal(t, "reports/q1.pdf", page.Files[0].Key)
	assert.False(t, page.IsTruncated)

	rec = j.do(http.MethodPost, "/api/s3/list-objects", `{"profile":`+testProfileJSON+`,"bucket":"missing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NoSuchBucket", j.failure(rec))

	rec = j.do(http.MethodPost, "/api/s3/list-objects", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.CodeInvalidProfile, j.failure(rec))

	rec = j.do(http.MethodPost, "/api/s3/download-object", `{"profile":`+testProfileJSON+`,"bucket":"docs","key":"reports/q1.pdf"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quarter one", rec.Body.String())
	assert.Equal(t, `attachment; filename="q1.pdf"`, rec.Header().Get("Content-Disposition"))

	for _, p := range j.objs.profiles {
		assert.Equal(t, "us-east-1", p.Region)
		assert.True(t, p.ForcePathStyle)
	}
}

func TestJourney_BrowseWithSavedProfile(t *testing.T) {
	j := newJourney(t, "")

	var saved struct {
		ID string `json:"id"`
	}
	j.data(j.do(http.MethodPost, "/api/profiles", testProfileJSON), &saved)
	require.NotEmpty(t, saved.ID)
	base := "/api/browse/" + saved.ID

	var snap navigator.Snapshot
	j.data(j.do(http.MethodPost, base+"/open-bucket", `{"bucket":"docs"}`), &snap)
	assert.Equal(t, []string{"readme.txt"}, fileNames(snap))
	assert.Equal(t, "reports", snap.Folders[0].Name)
	assert.False(t, snap.CanLoadNext)

	// page size two: the directory marker and the 2024 folder fill the first page
	j.data(j.do(http.MethodPost, base+"/open-folder", `{"prefix":"reports/"}`), &snap)
	assert.Equal(t, "reports/", snap.Prefix)
	assert.Equal(t, "2024", snap.Folders[0].Name)
	assert.Empty(t, fileNames(snap))
	assert.True(t, snap.CanLoadNext)

	j.data(j.do(http.MethodPost, base+"/next", ""), &snap)
	assert.Empty(t, snap.Folders)
	assert.Equal(t, []string{"q1.pdf", "q2.pdf"}, fileNames(snap))
	assert.True(t, snap.CanLoadFirst)
	assert.False(t, snap.CanLoadNext)

	rec := j.do(http.MethodPost, base+"/next", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	j.data(j.do(http.MethodPost, base+"/first", ""), &snap)
	assert.Empty(t, fileNames(snap))
	assert.False(t, snap.CanLoadFirst)

	j.data(j.do(http.MethodPost, base+"/open-folder", `{"prefix":"reports/2024/"}`), &snap)
	assert.Equal(t, "reports/", snap.ParentPrefix)
	require.Len(t, snap.Breadcrumbs, 3)
	assert.Equal(t, "reports/2024/", snap.Breadcrumbs[2].Path)

	j.data(j.do(http.MethodPost, base+"/goto", `{"prefix":""}`), &snap)
	assert.Equal(t, "", snap.Prefix)

	rec = j.do(http.MethodGet, "/api/profiles/"+saved.ID+"/view", "")
	assert.JSONEq(t, `{"ok":true,"data":{"bucket":"docs","prefix":"","manualBucketName":"docs"}}`, rec.Body.String())

	rec = j.do(http.MethodPost, base+"/open-bucket", `{"bucket":"missing"}`)
	assert.Equal(t, "NoSuchBucket", j.failure(rec))
	j.data(j.do(http.MethodGet, base, ""), &snap)
	assert.Equal(t, "docs", snap.Bucket, "failed navigation keeps the last page")

	rec = j.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `explorer_store_requests_total{code="NoSuchBucket",op="ListObjects"} 1`)

	rec = j.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "readme.txt")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = j.do(http.MethodDelete, "/api/profiles/"+saved.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = j.do(http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJourney_AccessToken(t *testing.T) {
	j := newJourney(t, "s3cret")

	assert.Equal(t, http.StatusOK, j.do(http.MethodGet, "/api/profiles", "").Code)

	j.token = ""
	rec := j.do(http.MethodGet, "/api/profiles", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", j.failure(rec))
	assert.Equal(t, http.StatusUnauthorized, j.do(http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, j.do(http.MethodGet, "/health", "").Code)
}

func TestJourney_CSRFRejectsFormPost(t *testing.T) {
	j := newJourney(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/profiles", strings.NewReader("endpoint=x"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	j.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, j.store.List())
}

func fileNames(snap navigator.Snapshot) []string {
	names := make([]string, 0, len(snap.Files))
	for _, f := range snap.Files {
		names = append(names, f.Name)
	}
	return names
}
