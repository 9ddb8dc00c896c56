package handlers

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/services"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// body is a loosely decoded JSON object. Anything that is not an object
// decodes to an empty body.
type body map[string]interface{}

func readBody(c echo.Context) body {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return body{}
	}
	var b body
	if err := json.Unmarshal(raw, &b); err != nil || b == nil {
		return body{}
	}
	return b
}

// str returns the field when it is a string, else ""
func (b body) str(key string) string {
	s, _ := b[key].(string)
	return s
}

// object returns the nested object at key, or an empty body
func (b body) object(key string) body {
	m, ok := b[key].(map[string]interface{})
	if !ok {
		return body{}
	}
	return body(m)
}

// has reports whether key is present with a string value
func (b body) has(key string) bool {
	_, ok := b[key].(string)
	return ok
}

// profile reads the connection fields. Non-string fields read as empty and
// forcePathStyle is on unless it is literally false.
func (b body) profile() models.ConnectionProfile {
	pathStyle, isBool := b["forcePathStyle"].(bool)
	return models.ConnectionProfile{
		ID:              b.str("id"),
		Name:            strings.TrimSpace(b.str("name")),
		Endpoint:        b.str("endpoint"),
		Region:          b.str("region"),
		AccessKeyID:     b.str("accessKeyId"),
		SecretAccessKey: b.str("secretAccessKey"),
		ForcePathStyle:  !isBool || pathStyle,
	}
}

// maxKeys accepts any JSON number. Missing, non-numeric or values below 1
// yield the default; others are floored and capped.
func (b body) maxKeys() int {
	n, ok := b["maxKeys"].(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n < 1 {
		return services.DefaultMaxKeys
	}
	return services.ClampMaxKeys(int(math.Min(math.Floor(n), services.MaxAllowedKeys)))
}

// viewPatch reads the string fields present in the body
func (b body) viewPatch() models.ViewPatch {
	var patch models.ViewPatch
	if b.has("bucket") {
		v := b.str("bucket")
		patch.Bucket = &v
	}
	if b.has("prefix") {
		v := b.str("prefix")
		patch.Prefix = &v
	}
	if b.has("manualBucketName") {
		v := b.str("manualBucketName")
		patch.ManualBucketName = &v
	}
	return patch
}
