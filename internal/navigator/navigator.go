// Package navigator turns a flat, paginated, delimiter-based object listing
// into hierarchical folder browsing.
//
// The state machine is expressed as pure functions: Plan computes the fetch a
// user action requires and Apply folds a fetched page into a new State. The
// Navigator type drives those functions against a Lister, serializes
// navigation, and discards responses that were superseded by a newer action.
package navigator

import (
	"errors"
	"strings"

	"github.com/damacus/bucket-explorer/internal/models"
)

var (
	ErrNoBucket         = errors.New("no bucket is open")
	ErrNoNextPage       = errors.New("there is no next page")
	ErrAlreadyFirstPage = errors.New("already on the first page")
	ErrSuperseded       = errors.New("navigation superseded by a newer request")
)

// State is a navigation position. The zero value is Unopened.
type State struct {
	Bucket           string
	Prefix           string
	Page             *models.ListingPage
	Cursor           models.Cursor
	ManualBucketName string
}

// Opened reports whether a page has been loaded
func (s State) Opened() bool {
	return s.Page != nil
}

// Fetch is a single listing request computed by Plan. An empty
// ContinuationToken requests the first page.
type Fetch struct {
	Bucket            string
	Prefix            string
	ContinuationToken string
}

// Action is a user navigation intent
type Action interface {
	plan(s State) (Fetch, error)
}

// OpenBucket opens a bucket at its root
type OpenBucket struct{ Name string }

// OpenFolder descends into a folder prefix taken from the current page
type OpenFolder struct{ Prefix string }

// UpOneLevel moves to the parent prefix; at the root it refreshes
type UpOneLevel struct{}

// NavigateToPrefix jumps to a breadcrumb target
type NavigateToPrefix struct{ Prefix string }

// LoadNextPage follows the continuation token of the current page
type LoadNextPage struct{}

// LoadFirstPage returns from a continuation page to the first page
type LoadFirstPage struct{}

// Refresh reloads the first page of the current prefix
type Refresh struct{}

// restore reopens a remembered position together with its manual bucket text
type restore struct{ bucket, prefix, manual string }

// namer is implemented by actions that also set the manual bucket text once
// their fetch has been applied
type namer interface {
	manualBucketName(f Fetch) string
}

func (OpenBucket) manualBucketName(f Fetch) string { return f.Bucket }

func (a restore) manualBucketName(Fetch) string { return a.manual }

func (a OpenBucket) plan(State) (Fetch, error) {
	return Fetch{Bucket: strings.TrimSpace(a.Name)}, nil
}

func (a OpenFolder) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	return Fetch{Bucket: s.Bucket, Prefix: a.Prefix}, nil
}

func (UpOneLevel) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	return Fetch{Bucket: s.Bucket, Prefix: ParentPrefix(s.Prefix)}, nil
}

func (a NavigateToPrefix) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	return Fetch{Bucket: s.Bucket, Prefix: folderPrefix(a.Prefix)}, nil
}

func (LoadNextPage) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	if s.Cursor.Token == nil {
		return Fetch{}, ErrNoNextPage
	}
	return Fetch{Bucket: s.Bucket, Prefix: s.Prefix, ContinuationToken: *s.Cursor.Token}, nil
}

func (LoadFirstPage) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	if !s.Cursor.IsContinuation {
		return Fetch{}, ErrAlreadyFirstPage
	}
	return Fetch{Bucket: s.Bucket, Prefix: s.Prefix}, nil
}

func (Refresh) plan(s State) (Fetch, error) {
	if !s.Opened() {
		return Fetch{}, ErrNoBucket
	}
	return Fetch{Bucket: s.Bucket, Prefix: s.Prefix}, nil
}

func (a restore) plan(State) (Fetch, error) {
	return Fetch{Bucket: strings.TrimSpace(a.bucket), Prefix: folderPrefix(a.prefix)}, nil
}

// folderPrefix terminates a non-root prefix with the delimiter
func folderPrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, delimiter) {
		return prefix + delimiter
	}
	return prefix
}

// Plan computes the fetch required to perform a from s
func Plan(s State, a Action) (Fetch, error) {
	return a.plan(s)
}

// Apply returns the state reached when a's fetch f completed with page
func Apply(s State, a Action, f Fetch, page *models.ListingPage) State {
	next := State{
		Bucket:           f.Bucket,
		Prefix:           f.Prefix,
		Page:             page,
		ManualBucketName: s.ManualBucketName,
		Cursor:           models.Cursor{IsContinuation: f.ContinuationToken != ""},
	}
	if page != nil && page.NextContinuationToken != nil && *page.NextContinuationToken != "" {
		token := *page.NextContinuationToken
		next.Cursor.Token = &token
	}
	if n, ok := a.(namer); ok {
		next.ManualBucketName = n.manualBucketName(f)
	}
	return next
}

// View is the ViewState recorded after a successful navigation
func (s State) View() models.ViewState {
	manual := s.ManualBucketName
	if manual == "" {
		manual = s.Bucket
	}
	return models.ViewState{Bucket: s.Bucket, Prefix: s.Prefix, ManualBucketName: manual}
}
