package lookup

import (
	"sync"
	"time"
)

// Page is the UI state of one browser session: the error banner, the
// accumulated display regions, and whether a lookup is in flight.
type Page struct {
	mu           sync.Mutex
	errorVisible bool
	regions      []DisplayRegion
	inFlight     bool
	lastUsed     time.Time
}

// PageView is a consistent copy of a Page for rendering.
type PageView struct {
	ErrorVisible bool
	Regions      []DisplayRegion
	Busy         bool
}

// NewPage returns a page with the banner hidden and no regions.
func NewPage() *Page {
	return &Page{lastUsed: time.Now()}
}

// ShowError makes the banner visible. It reports whether the state changed.
func (p *Page) ShowError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.errorVisible {
		return false
	}
	p.errorVisible = true
	return true
}

// HideError hides the banner. It reports whether the state changed.
func (p *Page) HideError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.errorVisible {
		return false
	}
	p.errorVisible = false
	return true
}

// ErrorVisible reports whether the banner is shown.
func (p *Page) ErrorVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorVisible
}

// AppendRegion adds a region after all existing ones.
func (p *Page) AppendRegion(r DisplayRegion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regions = append(p.regions, r)
}

// Regions returns the regions in insertion order.
func (p *Page) Regions() []DisplayRegion {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]DisplayRegion, len(p.regions))
	copy(out, p.regions)
	return out
}

// Snapshot returns the page state under a single lock.
func (p *Page) Snapshot() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()

	regions := make([]DisplayRegion, len(p.regions))
	copy(regions, p.regions)
	return PageView{
		ErrorVisible: p.errorVisible,
		Regions:      regions,
		Busy:         p.inFlight,
	}
}

// begin marks a lookup as in flight. It returns false if one already is.
func (p *Page) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight {
		return false
	}
	p.inFlight = true
	p.lastUsed = time.Now()
	return true
}

func (p *Page) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	p.lastUsed = time.Now()
}

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastUsed = now
	p.mu.Unlock()
}

// idle reports whether the page has gone unused for longer than ttl.
// A page with a lookup in flight is never idle.
func (p *Page) idle(now time.Time, ttl time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inFlight && now.Sub(p.lastUsed) > ttl
}
