package services

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// Error codes produced by the gateway itself. Store codes (AccessDenied,
// NoSuchBucket, SignatureDoesNotMatch, ...) are passed through unchanged.
const (
	CodeInvalidProfile  = "InvalidProfile"
	CodeMissingBucket   = "MissingBucket"
	CodeMissingKey      = "MissingKey"
	CodeTransportError  = "TransportError"
	CodeRequestCanceled = "RequestCanceled"
	CodeUnknownError    = "UnknownError"
)

// APIError is the normalized failure shape surfaced to callers
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Status is the HTTP status used when the error crosses the RPC boundary
	Status int   `json:"-"`
	Err    error `json:"-"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newValidationError(code, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: http.StatusBadRequest}
}

// ErrInvalidProfile is returned before any store call when credentials are incomplete
func ErrInvalidProfile() *APIError {
	return newValidationError(CodeInvalidProfile, "Invalid profile. endpoint, accessKeyId, and secretAccessKey are required.")
}

// ErrMissingBucket is returned when a bucket name is required but empty
func ErrMissingBucket() *APIError {
	return newValidationError(CodeMissingBucket, "Bucket is required.")
}

// ErrMissingKey is returned when an object key is required but empty
func ErrMissingKey() *APIError {
	return newValidationError(CodeMissingKey, "Object key is required.")
}

// accessDeniedCodes are the store codes treated as a limited-permission
// connection by TestConnection.
var accessDeniedCodes = map[string]bool{
	"AccessDenied":          true,
	"AccessDeniedException": true,
}

// IsAccessDenied reports whether err carries an access-denied store code
func IsAccessDenied(err error) bool {
	apiErr := NormalizeError(err)
	return apiErr != nil && accessDeniedCodes[apiErr.Code]
}

// NormalizeError maps any failure from a store client into an APIError.
// Store-reported codes are preserved; network failures become TransportError;
// everything else becomes UnknownError. A nil error yields nil.
func NormalizeError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) && minioErr.Code != "" {
		msg := minioErr.Message
		if msg == "" {
			msg = minioErr.Error()
		}
		return storeError(minioErr.Code, msg, err)
	}

	var smithyErr smithy.APIError
	if errors.As(err, &smithyErr) && smithyErr.ErrorCode() != "" {
		return storeError(smithyErr.ErrorCode(), smithyErr.ErrorMessage(), err)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &APIError{Code: CodeRequestCanceled, Message: "Request was canceled.", Status: http.StatusRequestTimeout, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: CodeTransportError, Message: "Timed out talking to the object store.", Status: http.StatusBadGateway, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &APIError{Code: CodeTransportError, Message: err.Error(), Status: http.StatusBadGateway, Err: err}
	}

	msg := err.Error()
	if msg == "" {
		msg = "Unexpected error while talking to S3."
	}
	return &APIError{Code: CodeUnknownError, Message: msg, Status: http.StatusInternalServerError, Err: err}
}

func storeError(code, message string, err error) *APIError {
	if message == "" {
		message = "S3 request failed."
	}
	return &APIError{Code: code, Message: message, Status: http.StatusBadRequest, Err: err}
}
