package profiles

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/damacus/bucket-explorer/internal/models"
)

// decodeProfiles parses the persisted profile list. Anything that is not a
// JSON array reads as empty; non-object entries are skipped; scalar fields
// of other JSON types are converted to strings. generated reports whether
// any entry was missing an id.
func decodeProfiles(raw string) (profiles []models.ConnectionProfile, generated bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}

	out := make([]models.ConnectionProfile, 0, len(items))
	for _, item := range items {
		var rec map[string]any
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			continue
		}

		p := models.ConnectionProfile{
			ID:              stringField(rec, "id", ""),
			Name:            stringField(rec, "name", ""),
			Endpoint:        stringField(rec, "endpoint", ""),
			Region:          stringField(rec, "region", models.DefaultRegion),
			AccessKeyID:     stringField(rec, "accessKeyId", ""),
			SecretAccessKey: stringField(rec, "secretAccessKey", ""),
			ForcePathStyle:  true,
		}
		if v, ok := rec["forcePathStyle"].(bool); ok && !v {
			p.ForcePathStyle = false
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
			generated = true
		}
		out = append(out, p)
	}
	return out, generated
}

// decodeViews parses the persisted profile id to ViewState map. Entries that
// are not objects are skipped and non-string fields read as empty.
func decodeViews(raw string) map[string]models.ViewState {
	views := make(map[string]models.ViewState)

	var record map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return views
	}

	for id, value := range record {
		var rec map[string]any
		if err := json.Unmarshal(value, &rec); err != nil || rec == nil {
			continue
		}
		views[id] = models.ViewState{
			Bucket:           onlyString(rec["bucket"]),
			Prefix:           onlyString(rec["prefix"]),
			ManualBucketName: onlyString(rec["manualBucketName"]),
		}
	}
	return views
}

func stringField(rec map[string]any, key, def string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

func onlyString(v any) string {
	s, _ := v.(string)
	return s
}

// deriveName returns the endpoint host, or the endpoint itself when it does
// not parse.
func deriveName(endpoint string) string {
	normalized := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		normalized = "https://" + endpoint
	}
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
