// Package profiles persists connection profiles, the last selected profile
// and each profile's browsing view.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/services"
)

// Persisted record keys
const (
	ProfilesKey    = "s3-explorer:profiles:v1"
	LastProfileKey = "s3-explorer:last-profile:v1"
	ViewsKey       = "s3-explorer:profile-view:v1"
)

var ErrNotFound = errors.New("profile not found")

// KV is the persistence port
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Option func(*Store)

// WithSealer seals secret access keys before they are written
func WithSealer(sealer *services.SecretSealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store holds the profile records in memory and writes every change through
// to the KV. Mutations are serialized, so the last writer for a key wins.
type Store struct {
	kv     KV
	sealer *services.SecretSealer
	logger *zap.Logger

	mu       sync.Mutex
	profiles []models.ConnectionProfile
	selected string
	views    map[string]models.ViewState
}

// Open loads all three records from kv. Malformed records read as empty.
func Open(ctx context.Context, kv KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, logger: zap.NewNop(), views: map[string]models.ViewState{}}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Get(ctx, ProfilesKey)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	rewrite := false
	if ok {
		var list []models.ConnectionProfile
		list, rewrite = decodeProfiles(raw)
		s.profiles = s.openSecrets(list)
	}

	raw, ok, err = kv.Get(ctx, ViewsKey)
	if err != nil {
		return nil, fmt.Errorf("load profile views: %w", err)
	}
	if ok {
		s.views = decodeViews(raw)
	}

	stored, _, err := kv.Get(ctx, LastProfileKey)
	if err != nil {
		return nil, fmt.Errorf("load last profile: %w", err)
	}
	s.selected = s.resolveSelected(stored)

	// ids generated while decoding are written back so they stay stable
	if rewrite && len(s.profiles) > 0 {
		if err := s.writeProfiles(ctx); err != nil {
			return nil, err
		}
	}
	if s.selected != stored {
		if err := s.writeSelected(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) openSecrets(list []models.ConnectionProfile) []models.ConnectionProfile {
	out := make([]models.ConnectionProfile, 0, len(list))
	for _, p := range list {
		if s.sealer != nil {
			secret, err := s.sealer.Open(p.SecretAccessKey)
			if err != nil {
				s.logger.Warn("dropping profile with unreadable secret", zap.String("id", p.ID), zap.Error(err))
				continue
			}
			p.SecretAccessKey = secret
		}
		if p.Endpoint == "" || p.AccessKeyID == "" || p.SecretAccessKey == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Store) resolveSelected(id string) string {
	if s.indexOf(id) >= 0 {
		return id
	}
	if len(s.profiles) > 0 {
		return s.profiles[0].ID
	}
	return ""
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) writeProfiles(ctx context.Context) error {
	list := make([]models.ConnectionProfile, len(s.profiles))
	copy(list, s.profiles)
	if s.sealer != nil {
		for i := range list {
			sealed, err := s.sealer.Seal(list[i].SecretAccessKey)
			if err != nil {
				return fmt.Errorf("seal secret: %w", err)
			}
			list[i].SecretAccessKey = sealed
		}
	}

	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := s.kv.Set(ctx, ProfilesKey, string(b)); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

func (s *Store) writeViews(ctx context.Context) error {
	b, err := json.Marshal(s.views)
	if err != nil {
		return fmt.Errorf("marshal profile views: %w", err)
	}
	if err := s.kv.Set(ctx, ViewsKey, string(b)); err != nil {
		return fmt.Errorf("save profile views: %w", err)
	}
	return nil
}

func (s *Store) writeSelected(ctx context.Context) error {
	var err error
	if s.selected == "" {
		err = s.kv.Delete(ctx, LastProfileKey)
	} else {
		err = s.kv.Set(ctx, LastProfileKey, s.selected)
	}
	if err != nil {
		return fmt.Errorf("save last profile: %w", err)
	}
	return nil
}

// List returns the profiles, most recently created first
func (s *Store) List() []models.ConnectionProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConnectionProfile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

func (s *Store) Get(id string) (models.ConnectionProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.profiles[i], true
	}
	return models.ConnectionProfile{}, false
}

// Save replaces the profile with the same id in place, or prepends it.
// Fields are trimmed, a missing id is generated and a blank name is derived
// from the endpoint host. With no current selection the saved profile
// becomes selected.
func (s *Store) Save(ctx context.Context, p models.ConnectionProfile) (models.ConnectionProfile, error) {
	if err := services.ValidateProfile(p); err != nil {
		return models.ConnectionProfile{}, err
	}
	p = services.NormalizeProfile(p)
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = deriveName(p.Endpoint)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.profiles[i] = p
	} else {
		s.profiles = append([]models.ConnectionProfile{p}, s.profiles...)
	}
	if err := s.writeProfiles(ctx); err != nil {
		return models.ConnectionProfile{}, err
	}
	if s.indexOf(s.selected) < 0 {
		s.selected = p.ID
		if err := s.writeSelected(ctx); err != nil {
			return models.ConnectionProfile{}, err
		}
	}
	return p, nil
}

// Delete removes the profile and its view. Deleting the selected profile
// clears the selection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.profiles = append(s.profiles[:i:i], s.profiles[i+1:]...)
	if err := s.writeProfiles(ctx); err != nil {
		return err
	}

	if _, ok := s.views[id]; ok {
		delete(s.views, id)
		if err := s.writeViews(ctx); err != nil {
			return err
		}
	}

	if s.selected == id {
		s.selected = ""
		if err := s.writeSelected(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Selected returns the selected profile, if any
func (s *Store) Selected() (models.ConnectionProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(s.selected); i >= 0 {
		return s.profiles[i], true
	}
	return models.ConnectionProfile{}, false
}

// Select persists id as the last selected profile. An empty id clears it.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.indexOf(id) < 0 {
		return ErrNotFound
	}
	s.selected = id
	return s.writeSelected(ctx)
}

// GetView returns the stored view for id, or the empty default
func (s *Store) GetView(id string) models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[id]
}

// UpdateView merges patch into the view for id and persists the result
func (s *Store) UpdateView(ctx context.Context, id string, patch models.ViewPatch) (models.ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := patch.Apply(s.views[id])
	s.views[id] = view
	if err := s.writeViews(ctx); err != nil {
		return models.ViewState{}, err
	}
	return view, nil
}

// RecordView stores a complete view for id
func (s *Store) RecordView(ctx context.Context, id string, view models.ViewState) error {
	_, err := s.UpdateView(ctx, id, models.ViewPatch{
		Bucket:           &view.Bucket,
		Prefix:           &view.Prefix,
		ManualBucketName: &view.ManualBucketName,
	})
	return err
}
