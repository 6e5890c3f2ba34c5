package reveal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrUnknownPage is returned for page ids that were never registered or
// have expired.
var ErrUnknownPage = errors.New("unknown page")

// DefaultTTL is how long an idle page load keeps its observer.
const DefaultTTL = 30 * time.Minute

type page struct {
	obs     *Observer
	expires time.Time
}

// Registry keeps the observers of live page loads, keyed by page id.
type Registry struct {
	mu     sync.Mutex
	ttl    time.Duration
	pages  map[string]*page
	now    func() time.Time
	logger *slog.Logger
}

// NewRegistry returns a registry whose pages expire after ttl without
// activity. A non-positive ttl uses DefaultTTL.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		ttl:    ttl,
		pages:  make(map[string]*page),
		now:    time.Now,
		logger: logger,
	}
}

// Register stores obs under a fresh page id and returns the id.
func (r *Registry) Register(obs *Observer) string {
	id := ulid.Make().String()
	r.mu.Lock()
	r.pages[id] = &page{obs: obs, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return id
}

// Observer returns the observer of pageID.
func (r *Registry) Observer(pageID string) (*Observer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[pageID]
	if !ok || r.now().After(p.expires) {
		return nil, ErrUnknownPage
	}
	p.expires = r.now().Add(r.ttl)
	return p.obs, nil
}

// Intersect forwards entries to the observer of pageID. A page whose
// elements are all revealed is dropped.
func (r *Registry) Intersect(pageID string, entries []Entry) ([]string, error) {
	obs, err := r.Observer(pageID)
	if err != nil {
		return nil, err
	}
	revealed := obs.Intersect(entries)
	if len(obs.Pending()) == 0 {
		r.mu.Lock()
		delete(r.pages, pageID)
		r.mu.Unlock()
	}
	return revealed, nil
}

// Sweep drops expired pages and returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, p := range r.pages {
		if now.After(p.expires) {
			delete(r.pages, id)
			n++
		}
	}
	return n
}

// Len returns the number of live pages.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("expired reveal pages", "count", n, "live", r.Len())
			}
		}
	}
}
