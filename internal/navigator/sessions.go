package navigator

import "sync"

// Sessions keeps one Navigator per profile id, created on first use
type Sessions struct {
	mu     sync.Mutex
	create func(profileID string) (*Navigator, error)
	navs   map[string]*Navigator
}

// NewSessions creates a registry that builds navigators with create
func NewSessions(create func(profileID string) (*Navigator, error)) *Sessions {
	return &Sessions{create: create, navs: make(map[string]*Navigator)}
}

// Get returns the navigator for profileID, creating it if needed
func (s *Sessions) Get(profileID string) (*Navigator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nav, ok := s.navs[profileID]; ok {
		return nav, nil
	}
	nav, err := s.create(profileID)
	if err != nil {
		return nil, err
	}
	s.navs[profileID] = nav
	return nav, nil
}

// Drop forgets the navigator for profileID. Call it when the profile changes
// or is deleted.
func (s *Sessions) Drop(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.navs, profileID)
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.navs)
}
