package form

import "sync"

// Stations keeps one in-memory draft per logged-in collector.
type Stations struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewStations() *Stations {
	return &Stations{drafts: make(map[string]Draft)}
}

func (s *Stations) Get(user string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[user]
	return d, ok
}

func (s *Stations) Delete(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, user)
}

// Update applies fn to the user's draft, starting from init when there is none.
// The draft is stored only when fn succeeds.
func (s *Stations) Update(user string, init func() Draft, fn func(Draft) (Draft, error)) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[user]
	if !ok {
		d = init()
	}
	d, err := fn(d)
	if err != nil {
		return d, err
	}
	s.drafts[user] = d
	return d, nil
}
