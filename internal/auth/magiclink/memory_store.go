package magiclink

import (
	"context"
	"time"

	"github.com/smallbiznis/roi/internal/cache"
	"github.com/smallbiznis/roi/internal/clock"
)

// MemoryStore keeps links in process memory. Links do not survive restarts
// and are not shared between replicas.
type MemoryStore struct {
	links *cache.TTLCache[string, Link]
}

func NewMemoryStore(c clock.Clock) *MemoryStore {
	return &MemoryStore{links: cache.NewTTLCacheWithClock[string, Link](c.Now)}
}

func (s *MemoryStore) Save(ctx context.Context, token string, link Link) error {
	s.links.Set(token, link, 0)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (Link, bool, error) {
	link, ok := s.links.Get(token)
	return link, ok, nil
}

func (s *MemoryStore) MarkUsed(ctx context.Context, token string) (bool, error) {
	flipped := false
	s.links.Update(token, func(link Link) Link {
		if !link.Used {
			link.Used = true
			flipped = true
		}
		return link
	})
	return flipped, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.links.Delete(token)
	return nil
}

func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return s.links.Sweep(func(link Link) bool {
		return link.Used || link.Expired(now)
	}), nil
}
