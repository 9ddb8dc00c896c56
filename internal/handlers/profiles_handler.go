package handlers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
)

// ProfilesHandler exposes the profile store. Secrets are never returned.
type ProfilesHandler struct {
	store    *profiles.Store
	sessions *navigator.Sessions
	logger   *zap.Logger
}

func NewProfilesHandler(store *profiles.Store, sessions *navigator.Sessions, logger *zap.Logger) *ProfilesHandler {
	return &ProfilesHandler{store: store, sessions: sessions, logger: logger}
}

type profileList struct {
	Profiles   []models.ConnectionProfile `json:"profiles"`
	SelectedID string                     `json:"selectedId"`
}

func redact(p models.ConnectionProfile) models.ConnectionProfile {
	p.SecretAccessKey = ""
	return p
}

// List returns every profile, newest first, and the selected id
func (h *ProfilesHandler) List(c echo.Context) error {
	list := h.store.List()
	out := profileList{Profiles: make([]models.ConnectionProfile, 0, len(list))}
	for _, p := range list {
		out.Profiles = append(out.Profiles, redact(p))
	}
	if selected, ok := h.store.Selected(); ok {
		out.SelectedID = selected.ID
	}
	return OK(c, out)
}

// Save creates or replaces a profile and selects it. Updating an existing
// profile with a blank secret keeps the stored one.
func (h *ProfilesHandler) Save(c echo.Context) error {
	ctx := c.Request().Context()
	profile := readBody(c).profile()

	if profile.ID != "" && profile.SecretAccessKey == "" {
		if existing, ok := h.store.Get(profile.ID); ok {
			profile.SecretAccessKey = existing.SecretAccessKey
		}
	}

	saved, err := h.store.Save(ctx, profile)
	if err != nil {
		return Fail(c, err)
	}
	h.sessions.Drop(saved.ID)

	if err := h.store.Select(ctx, saved.ID); err != nil {
		h.logger.Warn("failed to select saved profile", zap.String("profile", saved.ID), zap.Error(err))
	}
	return OK(c, redact(saved))
}

// Delete removes a profile with its view and live session
func (h *ProfilesHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return Fail(c, err)
	}
	h.sessions.Drop(id)
	return OK(c, map[string]string{"id": id})
}

// GetView returns the remembered view of the profile
func (h *ProfilesHandler) GetView(c echo.Context) error {
	profile, err := GetProfile(c)
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, h.store.GetView(profile.ID))
}

// UpdateView merges the string fields of the body into the stored view
func (h *ProfilesHandler) UpdateView(c echo.Context) error {
	profile, err := GetProfile(c)
	if err != nil {
		return Fail(c, err)
	}
	view, err := h.store.UpdateView(c.Request().Context(), profile.ID, readBody(c).viewPatch())
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, view)
}

// Selected returns the selected profile or null
func (h *ProfilesHandler) Selected(c echo.Context) error {
	selected, ok := h.store.Selected()
	if !ok {
		return OK(c, nil)
	}
	p := redact(selected)
	return OK(c, &p)
}

// Select changes the selected profile. An empty id clears the selection.
func (h *ProfilesHandler) Select(c echo.Context) error {
	id := readBody(c).str("id")
	if err := h.store.Select(c.Request().Context(), id); err != nil {
		return Fail(c, err)
	}
	return h.Selected(c)
}
