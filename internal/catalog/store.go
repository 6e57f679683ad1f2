// Package catalog holds the product list a view renders from: the current
// admin page with its pagination block and page-scoped facets, and the
// public storefront list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/ui"
)

var ErrInvalidPage = errors.New("page must be >= 1")

// Store caches the server's view of the catalog. Responses are applied in
// arrival order: for interleaved fetches the last response to arrive wins,
// even when it belongs to an older request. There is no request sequencing
// or cancellation; callers that page rapidly go through Pager instead.
type Store struct {
	client  *apiclient.Client
	tracker *ui.Tracker
	log     *zap.Logger

	mu         sync.RWMutex
	products   []Product
	pageInfo   PageInfo
	categories []string
	units      []string
	all        []Product
}

func NewStore(client *apiclient.Client, tracker *ui.Tracker, log *zap.Logger) *Store {
	return &Store{
		client:  client,
		tracker: tracker,
		log:     log.Named("catalog"),
	}
}

type pageResponse struct {
	Products   []Product `json:"products"`
	Pagination PageInfo  `json:"pagination"`
}

// FetchPage loads admin page n and replaces the product list, page info and
// facet lists with whatever the server returned.
func (s *Store) FetchPage(ctx context.Context, n int) error {
	if n < 1 {
		return ErrInvalidPage
	}

	s.tracker.Begin("loading products")
	defer s.tracker.End()

	var resp pageResponse
	path := s.client.Scoped("admin/products?page=%d", n)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		s.log.Error("fetch page failed", zap.Int("page", n), zap.Error(err))
		return fmt.Errorf("fetch catalog page %d: %w", n, err)
	}

	s.mu.Lock()
	s.products = resp.Products
	s.pageInfo = resp.Pagination
	s.categories = distinct(resp.Products, func(p Product) string { return p.Category })
	s.units = distinct(resp.Products, func(p Product) string { return p.Unit })
	s.mu.Unlock()

	s.log.Debug("catalog page replaced",
		zap.Int("page", resp.Pagination.CurrentPage),
		zap.Int("products", len(resp.Products)))
	return nil
}

// Refresh re-fetches the page currently held, defaulting to page 1 before
// any fetch has happened.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	page := s.pageInfo.CurrentPage
	s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	return s.FetchPage(ctx, page)
}

// SetEnabled writes the full product record with only is_enabled changed,
// then re-fetches the current page so the list reflects server state. On
// failure the list is left untouched.
func (s *Store) SetEnabled(ctx context.Context, p Product, enabled bool) error {
	if enabled {
		p.IsEnabled = 1
	} else {
		p.IsEnabled = 0
	}

	s.tracker.Begin("updating product")
	defer s.tracker.End()

	body := map[string]Product{"data": p}
	path := s.client.Scoped("admin/product/%s", p.ID)
	if err := s.client.Do(ctx, http.MethodPut, path, body, nil); err != nil {
		s.log.Error("enable toggle failed", zap.String("product", p.ID), zap.Error(err))
		return fmt.Errorf("set enabled on %q: %w", p.Title, err)
	}
	return s.Refresh(ctx)
}

type listResponse struct {
	Products []Product `json:"products"`
}

// FetchAll loads the public storefront list.
func (s *Store) FetchAll(ctx context.Context) error {
	s.tracker.Begin("loading products")
	defer s.tracker.End()

	var resp listResponse
	if err := s.client.Do(ctx, http.MethodGet, s.client.Scoped("products/all"), nil, &resp); err != nil {
		s.log.Error("fetch all failed", zap.Error(err))
		return fmt.Errorf("fetch public catalog: %w", err)
	}

	s.mu.Lock()
	s.all = resp.Products
	s.mu.Unlock()
	return nil
}

type detailResponse struct {
	Product Product `json:"product"`
}

// FetchDetail loads one product by id.
func (s *Store) FetchDetail(ctx context.Context, id string) (Product, error) {
	s.tracker.Begin("loading product")
	defer s.tracker.End()

	var resp detailResponse
	path := s.client.Scoped("product/%s", id)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		s.log.Error("fetch detail failed", zap.String("product", id), zap.Error(err))
		return Product{}, fmt.Errorf("fetch product %s: %w", id, err)
	}
	return resp.Product, nil
}

// Neighbors returns the ids before and after id within the public list, for
// previous/next navigation on the detail view. Empty string means no
// neighbor on that side.
func (s *Store) Neighbors(id string) (prev, next string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, p := range s.all {
		if p.ID != id {
			continue
		}
		if i > 0 {
			prev = s.all[i-1].ID
		}
		if i < len(s.all)-1 {
			next = s.all[i+1].ID
		}
		return prev, next
	}
	return "", ""
}

// Products returns the current admin page.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// All returns the public storefront list.
func (s *Store) All() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all
}

// PageInfo returns the pagination block of the current page.
func (s *Store) PageInfo() PageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageInfo
}

// Facets returns the distinct categories and units of the current page
// only; they feed the editor's quick-select badges.
func (s *Store) Facets() (categories, units []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories, s.units
}

// distinct keeps first-seen order, matching how the facet badges render.
func distinct(products []Product, key func(Product) string) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		k := key(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
