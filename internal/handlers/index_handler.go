package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
)

// csrfContextKey matches the context key of echo's CSRF middleware
const csrfContextKey = "csrf"

type IndexHandler struct {
	store    *profiles.Store
	sessions *navigator.Sessions
}

func NewIndexHandler(store *profiles.Store, sessions *navigator.Sessions) *IndexHandler {
	return &IndexHandler{store: store, sessions: sessions}
}

// Index renders the profile list and the listing of the selected profile
func (h *IndexHandler) Index(c echo.Context) error {
	list := h.store.List()
	redacted := make([]models.ConnectionProfile, 0, len(list))
	for _, p := range list {
		redacted = append(redacted, redact(p))
	}

	listing := navigator.State{}.Snapshot()
	var selectedID string
	if selected, ok := h.store.Selected(); ok {
		selectedID = selected.ID
		if nav, err := h.sessions.Get(selected.ID); err == nil {
			listing = nav.Snapshot()
		}
	}

	token, _ := c.Get(csrfContextKey).(string)
	return c.Render(http.StatusOK, "index", map[string]interface{}{
		"Title":      "Browse",
		"CSRFToken":  token,
		"Profiles":   redacted,
		"SelectedID": selectedID,
		"Listing":    listing,
	})
}

// Health reports liveness
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
