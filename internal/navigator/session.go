package navigator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
)

// Lister fetches one listing page
type Lister interface {
	ListPage(ctx context.Context, f Fetch, maxKeys int) (*models.ListingPage, error)
}

// ListerFunc adapts a function to Lister
type ListerFunc func(ctx context.Context, f Fetch, maxKeys int) (*models.ListingPage, error)

func (fn ListerFunc) ListPage(ctx context.Context, f Fetch, maxKeys int) (*models.ListingPage, error) {
	return fn(ctx, f, maxKeys)
}

// ViewRecorder persists the browsing position after each successful navigation
type ViewRecorder interface {
	RecordView(ctx context.Context, view models.ViewState) error
}

// ViewRecorderFunc adapts a function to ViewRecorder
type ViewRecorderFunc func(ctx context.Context, view models.ViewState) error

func (fn ViewRecorderFunc) RecordView(ctx context.Context, view models.ViewState) error {
	return fn(ctx, view)
}

// Option configures a Navigator
type Option func(*Navigator)

// WithRecorder records the view after every successful navigation
func WithRecorder(r ViewRecorder) Option {
	return func(n *Navigator) { n.recorder = r }
}

// WithPageSize sets the requested page size, clamped by ClampPageSize
func WithPageSize(size int) Option {
	return func(n *Navigator) { n.pageSize = ClampPageSize(size) }
}

// WithLogger sets the logger used for recorder failures
func WithLogger(logger *zap.Logger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithManualBucketName seeds the manual bucket text, usually from a stored view
func WithManualBucketName(name string) Option {
	return func(n *Navigator) { n.state.ManualBucketName = name }
}

// Navigator is one browsing session. Each action is tagged with a sequence
// number; starting an action cancels the fetch of the previous one, and a
// response that is not for the latest issued action is discarded with
// ErrSuperseded. A failed fetch leaves the state unchanged.
type Navigator struct {
	lister   Lister
	recorder ViewRecorder
	logger   *zap.Logger
	pageSize int

	mu       sync.Mutex
	state    State
	seq      uint64
	inFlight context.CancelFunc
}

// New creates an Unopened navigator over lister
func New(lister Lister, opts ...Option) *Navigator {
	n := &Navigator{
		lister:   lister,
		logger:   zap.NewNop(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns the current state
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Snapshot returns the presentation view of the current state
func (n *Navigator) Snapshot() Snapshot {
	return n.State().Snapshot()
}

// Do performs a and returns the resulting state. On error the returned state
// is the unchanged current state.
func (n *Navigator) Do(ctx context.Context, a Action) (State, error) {
	n.mu.Lock()
	f, err := Plan(n.state, a)
	if err != nil {
		s := n.state
		n.mu.Unlock()
		return s, err
	}

	n.seq++
	seq := n.seq
	if n.inFlight != nil {
		n.inFlight()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	n.inFlight = cancel
	pageSize := n.pageSize
	n.mu.Unlock()

	page, err := n.lister.ListPage(fetchCtx, f, pageSize)

	n.mu.Lock()
	defer n.mu.Unlock()
	cancel()

	if seq != n.seq {
		return n.state, ErrSuperseded
	}
	n.inFlight = nil
	if err != nil {
		return n.state, err
	}

	n.state = Apply(n.state, a, f, page)
	// recorded under the lock so writes for this session stay ordered
	n.record(ctx, n.state.View())
	return n.state, nil
}

func (n *Navigator) record(ctx context.Context, view models.ViewState) {
	if n.recorder == nil {
		return
	}
	if err := n.recorder.RecordView(context.WithoutCancel(ctx), view); err != nil {
		n.logger.Warn("failed to record view",
			zap.String("bucket", view.Bucket),
			zap.String("prefix", view.Prefix),
			zap.Error(err))
	}
}

func (n *Navigator) OpenBucket(ctx context.Context, name string) (State, error) {
	return n.Do(ctx, OpenBucket{Name: name})
}

func (n *Navigator) OpenFolder(ctx context.Context, prefix string) (State, error) {
	return n.Do(ctx, OpenFolder{Prefix: prefix})
}

func (n *Navigator) UpOneLevel(ctx context.Context) (State, error) {
	return n.Do(ctx, UpOneLevel{})
}

func (n *Navigator) NavigateToPrefix(ctx context.Context, prefix string) (State, error) {
	return n.Do(ctx, NavigateToPrefix{Prefix: prefix})
}

func (n *Navigator) LoadNextPage(ctx context.Context) (State, error) {
	return n.Do(ctx, LoadNextPage{})
}

func (n *Navigator) LoadFirstPage(ctx context.Context) (State, error) {
	return n.Do(ctx, LoadFirstPage{})
}

func (n *Navigator) Refresh(ctx context.Context) (State, error) {
	return n.Do(ctx, Refresh{})
}

// Resume reopens a remembered view. The manual bucket text is restored only
// once the fetch succeeds. A view without a bucket only restores the manual
// bucket text and issues no fetch.
func (n *Navigator) Resume(ctx context.Context, view models.ViewState) (State, error) {
	if view.Bucket == "" {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.state.ManualBucketName = view.ManualBucketName
		return n.state, nil
	}
	return n.Do(ctx, restore{bucket: view.Bucket, prefix: view.Prefix, manual: view.ManualBucketName})
}

// SetManualBucketName updates the manual bucket text and records it
func (n *Navigator) SetManualBucketName(ctx context.Context, name string) State {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state.ManualBucketName = name
	n.record(ctx, models.ViewState{
		Bucket:           n.state.Bucket,
		Prefix:           n.state.Prefix,
		ManualBucketName: name,
	})
	return n.state
}
