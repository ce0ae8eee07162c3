package index

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/dashboard"
)

// Factory builds a fresh page for a browser session id.
type Factory func(sid string) *dashboard.Page

type entry struct {
	page     *dashboard.Page
	lastSeen time.Time
	ready    chan struct{}
}

// DefaultPageLimit bounds the number of live pages when no limit is given.
const DefaultPageLimit = 10000

// PageIndex keeps one dashboard page per browser session in memory.
// Pages are created lazily and closed once they sit idle. When the index is
// full the least recently seen page is evicted; it is rebuilt from the
// stored session on the next visit.
type PageIndex struct {
	mu    sync.RWMutex
	pages map[string]*entry
	limit int
	now   func() time.Time
}

// NewPageIndex creates an empty page index holding at most DefaultPageLimit pages
func NewPageIndex() *PageIndex {
	return NewBoundedPageIndex(DefaultPageLimit)
}

// NewBoundedPageIndex creates an empty page index holding at most limit
// pages. A non-positive limit falls back to DefaultPageLimit.
func NewBoundedPageIndex(limit int) *PageIndex {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &PageIndex{
		pages: make(map[string]*entry),
		limit: limit,
		now:   time.Now,
	}
}

// Acquire returns the page for sid, building and initialising it on first use.
// Every call marks the page as seen.
func (idx *PageIndex) Acquire(ctx context.Context, sid string, factory Factory) *dashboard.Page {
	now := idx.now()

	idx.mu.Lock()
	if e, ok := idx.pages[sid]; ok {
		e.lastSeen = now
		idx.mu.Unlock()
		<-e.ready
		return e.page
	}
	evicted := idx.evictLocked()
	e := &entry{page: factory(sid), lastSeen: now, ready: make(chan struct{})}
	idx.pages[sid] = e
	idx.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}

	// concurrent callers wait until the first one has initialised the page
	e.page.Init(ctx)
	close(e.ready)
	return e.page
}

// evictLocked drops the least recently seen initialised page when the index
// is full and returns it for closing. Pages still initialising are skipped.
func (idx *PageIndex) evictLocked() *dashboard.Page {
	if len(idx.pages) < idx.limit {
		return nil
	}

	var (
		oldestSID string
		oldest    *entry
	)
	for sid, e := range idx.pages {
		select {
		case <-e.ready:
		default:
			continue
		}
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestSID, oldest = sid, e
		}
	}
	if oldest == nil {
		return nil
	}
	delete(idx.pages, oldestSID)
	return oldest.page
}

// Get returns the page for sid without creating it
func (idx *PageIndex) Get(sid string) (*dashboard.Page, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.pages[sid]
	if !ok {
		return nil, false
	}
	return e.page, true
}

// Remove closes and drops the page for sid
func (idx *PageIndex) Remove(sid string) {
	idx.mu.Lock()
	e, ok := idx.pages[sid]
	delete(idx.pages, sid)
	idx.mu.Unlock()

	if ok {
		e.page.Close()
	}
}

// Count returns the number of live pages
func (idx *PageIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.pages)
}

// CollectIdle closes every page not seen since now-ttl and returns how many were removed.
func (idx *PageIndex) CollectIdle(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	idx.mu.Lock()
	var idle []*dashboard.Page
	for sid, e := range idx.pages {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.page)
			delete(idx.pages, sid)
		}
	}
	idx.mu.Unlock()

	for _, p := range idle {
		p.Close()
	}
	return len(idle)
}

// CloseAll tears down every page, used on shutdown.
func (idx *PageIndex) CloseAll() {
	idx.mu.Lock()
	pages := idx.pages
	idx.pages = make(map[string]*entry)
	idx.mu.Unlock()

	for _, e := range pages {
		e.page.Close()
	}
}
