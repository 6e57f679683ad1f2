package catalog

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pager throttles page navigation. The store applies responses in arrival
// order with no sequencing, so rapid page flips must be debounced on the
// caller side; Pager drops flips that arrive faster than the interval.
type Pager struct {
	store   *Store
	limiter *rate.Limiter
}

// NewPager allows at most one fetch per interval, with no burst.
func NewPager(store *Store, interval time.Duration) *Pager {
	return &Pager{
		store:   store,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// GoTo fetches page n, clamped to [1, total_pages]. It reports false when
// the flip was dropped by the throttle; the current page stays visible.
func (p *Pager) GoTo(ctx context.Context, n int) (bool, error) {
	info := p.store.PageInfo()
	if n < 1 {
		n = 1
	}
	if info.TotalPages > 0 && n > info.TotalPages {
		n = info.TotalPages
	}
	if !p.limiter.Allow() {
		return false, nil
	}
	return true, p.store.FetchPage(ctx, n)
}

// Next advances one page when the server says one exists.
func (p *Pager) Next(ctx context.Context) (bool, error) {
	info := p.store.PageInfo()
	if !info.HasNext {
		return false, nil
	}
	return p.GoTo(ctx, info.CurrentPage+1)
}

// Prev steps back one page when the server says one exists.
func (p *Pager) Prev(ctx context.Context) (bool, error) {
	info := p.store.PageInfo()
	if !info.HasPre {
		return false, nil
	}
	return p.GoTo(ctx, info.CurrentPage-1)
}
