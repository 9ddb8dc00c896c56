package navigator

import (
	"strings"

	"github.com/damacus/bucket-explorer/internal/models"
)

const (
	// DefaultPageSize is requested when no page size is configured
	DefaultPageSize = 200

	// MaxPageSize is the listing protocol maximum
	MaxPageSize = 1000

	delimiter = "/"
)

// ClampPageSize falls back to DefaultPageSize below 1 and caps at MaxPageSize
func ClampPageSize(n int) int {
	switch {
	case n < 1:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// ParentPrefix returns the prefix one level above prefix, ignoring empty
// segments. The root is its own parent.
func ParentPrefix(prefix string) string {
	segments := segmentsOf(prefix)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], delimiter) + delimiter
}

// Breadcrumbs returns one crumb per non-empty segment of prefix. The bucket
// root crumb (path "") is not included.
func Breadcrumbs(prefix string) []models.Breadcrumb {
	segments := segmentsOf(prefix)
	crumbs := make([]models.Breadcrumb, 0, len(segments))
	for i, s := range segments {
		crumbs = append(crumbs, models.Breadcrumb{
			Name: s,
			Path: strings.Join(segments[:i+1], delimiter) + delimiter,
		})
	}
	return crumbs
}

func segmentsOf(prefix string) []string {
	var segments []string
	for _, s := range strings.Split(prefix, delimiter) {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// FileDisplayName strips the current prefix from key. Keys outside prefix
// are shown unmodified.
func FileDisplayName(key, prefix string) string {
	if prefix != "" && strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
		return key[len(prefix):]
	}
	return key
}

// FolderDisplayName returns the last non-empty segment of folder relative
// to prefix.
func FolderDisplayName(folder, prefix string) string {
	rel := strings.TrimSuffix(folder, delimiter)
	if prefix != "" {
		rel = strings.TrimPrefix(rel, prefix)
	}

	segments := strings.Split(rel, delimiter)
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return folder
}
