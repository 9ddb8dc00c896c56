package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "minio error response",
			err:        minio.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist"},
			wantCode:   "NoSuchBucket",
			wantMsg:    "The specified bucket does not exist",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped minio error",
			err:        fmt.Errorf("list: %w", minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."}),
			wantCode:   "AccessDenied",
			wantMsg:    "Access Denied.",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "smithy api error",
			err:        &smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "key not found"},
			wantCode:   "InvalidAccessKeyId",
			wantMsg:    "key not found",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "smithy api error without message",
			err:        &smithy.GenericAPIError{Code: "NoSuchKey"},
			wantCode:   "NoSuchKey",
			wantMsg:    "S3 request failed.",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "canceled",
			err:        context.Canceled,
			wantCode:   CodeRequestCanceled,
			wantMsg:    "Request was canceled.",
			wantStatus: http.StatusRequestTimeout,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("get: %w", context.DeadlineExceeded),
			wantCode:   CodeTransportError,
			wantMsg:    "Timed out talking to the object store.",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "network",
			err:        &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			wantCode:   CodeTransportError,
			wantMsg:    "dial tcp: connection refused",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown",
			err:        errors.New("something odd"),
			wantCode:   CodeUnknownError,
			wantMsg:    "something odd",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestNormalizeError_Nil(t *testing.T) {
	assert.Nil(t, NormalizeError(nil))
}

func TestNormalizeError_PassesAPIErrorThrough(t *testing.T) {
	original := ErrMissingBucket()
	got := NormalizeError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestIsAccessDenied(t *testing.T) {
	assert.True(t, IsAccessDenied(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.True(t, IsAccessDenied(&smithy.GenericAPIError{Code: "AccessDeniedException"}))
	assert.False(t, IsAccessDenied(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, IsAccessDenied(errors.New("AccessDenied")))
	assert.False(t, IsAccessDenied(nil))
}

func TestAPIError_Error(t *testing.T) {
	err := ErrInvalidProfile()
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Contains(t, err.Error(), CodeInvalidProfile)
}
