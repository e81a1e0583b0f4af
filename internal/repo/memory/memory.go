package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/craftwatch/internal/domain"
	"github.com/hamed0406/craftwatch/internal/repo"
)

var _ repo.ServerStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)

// Store keeps everything in process memory. It backs tests and runs without
// a configured database path. All methods are safe for concurrent use.
type Store struct {
	// Now is the clock used for assigned timestamps. Tests may replace it.
	Now func() time.Time

	mu           sync.RWMutex
	nextServerID int64
	nextResultID int64
	servers      map[int64]*domain.Server
	results      []domain.PingResult
}

func New() *Store {
	return &Store{
		Now:     time.Now,
		servers: make(map[int64]*domain.Server),
		results: make([]domain.PingResult, 0, 128),
	}
}

// ---- ServerStore ----

func (m *Store) Add(ctx context.Context, s *domain.Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextServerID++
	s.ID = m.nextServerID
	if s.CreatedAt == "" {
		s.CreatedAt = m.Now().UTC().Format(domain.TimeLayout)
	}
	cp := *s
	m.servers[s.ID] = &cp
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.Server, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Server, 0, len(m.servers))
	for _, s := range m.servers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) GetByID(ctx context.Context, id int64) (*domain.Server, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.servers[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *Store) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.servers, id)
	kept := m.results[:0]
	for _, r := range m.results {
		if r.ServerID != id {
			kept = append(kept, r)
		}
	}
	m.results = kept
	return nil
}

// ---- ResultStore ----

func (m *Store) Append(ctx context.Context, r *domain.PingResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextResultID++
	r.ID = m.nextResultID
	r.PingedAt = m.Now().UTC().Format(domain.TimeLayout)
	m.results = append(m.results, *r)
	return r.ID, nil
}

func (m *Store) History(ctx context.Context, serverID int64, sinceID *int64, windowSeconds *int64) ([]domain.PingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := ""
	if sinceID == nil && windowSeconds != nil {
		cutoff = m.Now().UTC().
			Add(-time.Duration(*windowSeconds) * time.Second).
			Format(domain.TimeLayout)
	}

	// results are held in append order and the store assigns timestamps,
	// so a linear filter already yields ascending pinged_at with ties in
	// insertion order.
	out := make([]domain.PingResult, 0, 32)
	for _, r := range m.results {
		if r.ServerID != serverID {
			continue
		}
		if sinceID != nil {
			if r.ID <= *sinceID {
				continue
			}
		} else if cutoff != "" && r.PingedAt < cutoff {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Store) Last(ctx context.Context, serverID int64) (*domain.PingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].ServerID == serverID {
			cp := m.results[i]
			return &cp, nil
		}
	}
	return nil, nil
}
