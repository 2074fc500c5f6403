package lookup

import (
	"sync"
	"time"
)

// StoreConfig configures page eviction.
type StoreConfig struct {
	// TTL is how long a page may sit idle before it is evicted.
	TTL time.Duration

	// CleanupInterval is how often idle pages are swept.
	CleanupInterval time.Duration
}

// DefaultStoreConfig returns sensible defaults
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		TTL:             30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Store holds one Page per session ID.
type Store struct {
	config StoreConfig
	pages  map[string]*Page
	mu     sync.Mutex
	stop   chan struct{}
	once   sync.Once
}

// NewStore creates a store and starts its cleanup goroutine.
func NewStore(config StoreConfig) *Store {
	def := DefaultStoreConfig()
	if config.TTL <= 0 {
		config.TTL = def.TTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	s := &Store{
		config: config,
		pages:  make(map[string]*Page),
		stop:   make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Get returns the page for sessionID, creating it on first use.
func (s *Store) Get(sessionID string) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[sessionID]
	if !ok {
		page = NewPage()
		s.pages[sessionID] = page
		return page
	}
	page.touch(time.Now())
	return page
}

// Peek returns the page for sessionID without creating one. An existing
// page is touched so viewing keeps it alive.
func (s *Store) Peek(sessionID string) (*Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[sessionID]
	if ok {
		page.touch(time.Now())
	}
	return page, ok
}

// Len returns the number of live pages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Sweep evicts pages idle at now and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, page := range s.pages {
		if page.idle(now, s.config.TTL) {
			delete(s.pages, id)
			removed++
		}
	}
	return removed
}

func (s *Store) cleanup() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.Sweep(now)
		case <-s.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stop) })
}
