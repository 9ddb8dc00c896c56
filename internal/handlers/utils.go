package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
	"github.com/damacus/bucket-explorer/internal/utils"
)

// Error codes produced at the HTTP layer
const (
	CodeProfileNotFound  = "ProfileNotFound"
	CodeNoBucket         = "NoBucket"
	CodeNoNextPage       = "NoNextPage"
	CodeAlreadyFirstPage = "AlreadyFirstPage"
	CodeSuperseded       = "Superseded"
	CodeBadRequest       = "BadRequest"
)

type successEnvelope struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type failureEnvelope struct {
	OK    bool      `json:"ok"`
	Error errorBody `json:"error"`
}

// OK writes the success envelope
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, successEnvelope{OK: true, Data: data})
}

// Fail writes the failure envelope for err with its mapped status
func Fail(c echo.Context, err error) error {
	status, body := describeError(err)
	return c.JSON(status, failureEnvelope{Error: body})
}

func describeError(err error) (int, errorBody) {
	var apiErr *services.APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return status, errorBody{Message: apiErr.Message, Code: apiErr.Code}
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound, errorBody{Message: "Profile not found.", Code: CodeProfileNotFound}
	case errors.Is(err, navigator.ErrNoBucket):
		return http.StatusBadRequest, errorBody{Message: "Open a bucket first.", Code: CodeNoBucket}
	case errors.Is(err, navigator.ErrNoNextPage):
		return http.StatusConflict, errorBody{Message: "There is no next page.", Code: CodeNoNextPage}
	case errors.Is(err, navigator.ErrAlreadyFirstPage):
		return http.StatusConflict, errorBody{Message: "Already on the first page.", Code: CodeAlreadyFirstPage}
	case errors.Is(err, navigator.ErrSuperseded):
		return http.StatusConflict, errorBody{Message: "A newer navigation replaced this one.", Code: CodeSuperseded}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorBody{Message: msg, Code: codeForStatus(httpErr.Code)}
	default:
		apiErr = services.NormalizeError(err)
		return apiErr.Status, errorBody{Message: apiErr.Message, Code: apiErr.Code}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NotFound"
	case http.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusRequestEntityTooLarge:
		return "PayloadTooLarge"
	}
	if status >= http.StatusInternalServerError {
		return services.CodeUnknownError
	}
	return CodeBadRequest
}

// HTTPErrorHandler renders every unhandled error, routing errors included, as
// the failure envelope.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := describeError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, failureEnvelope{Error: body})
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

// GetProfile retrieves the profile resolved by ProfileLoader
func GetProfile(c echo.Context) (*models.ConnectionProfile, error) {
	val := c.Get(utils.ContextKeyProfile)
	if val == nil {
		return nil, profiles.ErrNotFound
	}
	profile, ok := val.(*models.ConnectionProfile)
	if !ok {
		return nil, profiles.ErrNotFound
	}
	return profile, nil
}

// ProfileLoader resolves the :id route parameter into a stored profile
func ProfileLoader(store *profiles.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile, ok := store.Get(c.Param("id"))
			if !ok {
				return Fail(c, profiles.ErrNotFound)
			}
			c.Set(utils.ContextKeyProfile, &profile)
			return next(c)
		}
	}
}
