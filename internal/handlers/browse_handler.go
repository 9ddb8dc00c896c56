package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
)

// NewBrowseSessions builds one navigator per stored profile. Each navigator
// lists through gateway and records its view in store.
func NewBrowseSessions(gateway Gateway, store *profiles.Store, pageSize int, logger *zap.Logger) *navigator.Sessions {
	return navigator.NewSessions(func(profileID string) (*navigator.Navigator, error) {
		if _, ok := store.Get(profileID); !ok {
			return nil, profiles.ErrNotFound
		}

		lister := navigator.ListerFunc(func(ctx context.Context, f navigator.Fetch, maxKeys int) (*models.ListingPage, error) {
			profile, ok := store.Get(profileID)
			if !ok {
				return nil, profiles.ErrNotFound
			}
			return gateway.ListObjects(ctx, profile, services.ListObjectsRequest{
				Bucket:            f.Bucket,
				Prefix:            f.Prefix,
				ContinuationToken: f.ContinuationToken,
				MaxKeys:           maxKeys,
			})
		})
		recorder := navigator.ViewRecorderFunc(func(ctx context.Context, view models.ViewState) error {
			return store.RecordView(ctx, profileID, view)
		})

		return navigator.New(lister,
			navigator.WithRecorder(recorder),
			navigator.WithPageSize(pageSize),
			navigator.WithLogger(logger.With(zap.String("profile", profileID))),
			navigator.WithManualBucketName(store.GetView(profileID).ManualBucketName),
		), nil
	})
}

// BrowseHandler drives the server-side navigator of a profile
type BrowseHandler struct {
	sessions *navigator.Sessions
	store    *profiles.Store
}

func NewBrowseHandler(sessions *navigator.Sessions, store *profiles.Store) *BrowseHandler {
	return &BrowseHandler{sessions: sessions, store: store}
}

func (h *BrowseHandler) session(c echo.Context) (*navigator.Navigator, error) {
	profile, err := GetProfile(c)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(profile.ID)
}

// respond renders the navigator snapshot. On a failed navigation the error
// envelope is returned and the session keeps its previous page.
func (h *BrowseHandler) respond(c echo.Context, nav *navigator.Navigator, err error) error {
	if err != nil {
		return Fail(c, err)
	}
	snap := nav.Snapshot()
	if c.QueryParam("format") == "html" {
		return c.Render(http.StatusOK, "listing", snap)
	}
	return OK(c, snap)
}

func (h *BrowseHandler) run(c echo.Context, do func(ctx context.Context, nav *navigator.Navigator, b body) error) error {
	nav, err := h.session(c)
	if err != nil {
		return Fail(c, err)
	}
	return h.respond(c, nav, do(c.Request().Context(), nav, readBody(c)))
}

// Snapshot returns the current navigation state
func (h *BrowseHandler) Snapshot(c echo.Context) error {
	nav, err := h.session(c)
	if err != nil {
		return Fail(c, err)
	}
	return h.respond(c, nav, nil)
}

// OpenBucket opens {bucket} at its root
func (h *BrowseHandler) OpenBucket(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, b body) error {
		_, err := nav.OpenBucket(ctx, b.str("bucket"))
		return err
	})
}

// OpenFolder descends into {prefix}
func (h *BrowseHandler) OpenFolder(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, b body) error {
		_, err := nav.OpenFolder(ctx, b.str("prefix"))
		return err
	})
}

func (h *BrowseHandler) Up(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, _ body) error {
		_, err := nav.UpOneLevel(ctx)
		return err
	})
}

// Goto jumps to a breadcrumb {prefix}
func (h *BrowseHandler) Goto(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, b body) error {
		_, err := nav.NavigateToPrefix(ctx, b.str("prefix"))
		return err
	})
}

func (h *BrowseHandler) Next(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, _ body) error {
		_, err := nav.LoadNextPage(ctx)
		return err
	})
}

func (h *BrowseHandler) First(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, _ body) error {
		_, err := nav.LoadFirstPage(ctx)
		return err
	})
}

func (h *BrowseHandler) Refresh(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, _ body) error {
		_, err := nav.Refresh(ctx)
		return err
	})
}

// Resume reopens the remembered view of the profile
func (h *BrowseHandler) Resume(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, _ body) error {
		profile, err := GetProfile(c)
		if err != nil {
			return err
		}
		_, err = nav.Resume(ctx, h.store.GetView(profile.ID))
		return err
	})
}

// SetManualBucket stores the free-text bucket name without fetching
func (h *BrowseHandler) SetManualBucket(c echo.Context) error {
	return h.run(c, func(ctx context.Context, nav *navigator.Navigator, b body) error {
		nav.SetManualBucketName(ctx, b.str("name"))
		return nil
	})
}
