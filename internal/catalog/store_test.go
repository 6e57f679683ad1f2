package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/ui"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, *ui.Tracker) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := apiclient.New(server.URL, "tenant", nil, zap.NewNop())
	tracker := ui.NewTracker()
	return NewStore(client, tracker, zap.NewNop()), tracker
}

func pagePayload(page int, products ...Product) []byte {
	raw, _ := json.Marshal(pageResponse{
		Products: products,
		Pagination: PageInfo{
			TotalPages:  3,
			CurrentPage: page,
			HasPre:      page > 1,
			HasNext:     page < 3,
		},
	})
	return raw
}

// ============================================
// FetchPage
// ============================================

func TestStore_FetchPage_ReplacesListAndFacets(t *testing.T) {
	store, tracker := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tenant/admin/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write(pagePayload(2,
			Product{ID: "a", Title: "Latte", Category: "coffee", Unit: "cup"},
			Product{ID: "b", Title: "Mocha", Category: "coffee", Unit: "cup"},
			Product{ID: "c", Title: "Scone", Category: "bakery", Unit: "piece"},
		))
	}))

	require.NoError(t, store.FetchPage(context.Background(), 2))

	assert.Len(t, store.Products(), 3)
	assert.Equal(t, 2, store.PageInfo().CurrentPage)
	categories, units := store.Facets()
	assert.Equal(t, []string{"coffee", "bakery"}, categories)
	assert.Equal(t, []string{"cup", "piece"}, units)

	busy, _ := tracker.Status()
	assert.False(t, busy, "indicator must be released after the fetch")
}

func TestStore_FetchPage_RejectsPageBelowOne(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid page")
	}))

	assert.ErrorIs(t, store.FetchPage(context.Background(), 0), ErrInvalidPage)
}

func TestStore_FetchPage_FailureKeepsStateAndReleasesTracker(t *testing.T) {
	calls := 0
	store, tracker := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write(pagePayload(1, Product{ID: "a", Title: "Latte", Category: "coffee", Unit: "cup"}))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	require.NoError(t, store.FetchPage(context.Background(), 1))
	err := store.FetchPage(context.Background(), 2)

	require.Error(t, err)
	assert.Len(t, store.Products(), 1, "failed fetch must not clobber the list")
	assert.Equal(t, 1, store.PageInfo().CurrentPage)
	busy, _ := tracker.Status()
	assert.False(t, busy)
}

// The store applies responses in arrival order with no sequencing: when an
// older request's response arrives after a newer one, the older response
// wins. Rapid paging goes through Pager, which drops the excess flips.
func TestStore_FetchPage_LastResponseWinsEvenWhenStale(t *testing.T) {
	pageOneArrived := make(chan struct{})
	releasePageOne := make(chan struct{})
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			close(pageOneArrived)
			<-releasePageOne
			w.Write(pagePayload(1, Product{ID: "old", Title: "Stale", Category: "c", Unit: "u"}))
		case "2":
			w.Write(pagePayload(2, Product{ID: "new", Title: "Fresh", Category: "c", Unit: "u"}))
		}
	}))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- store.FetchPage(context.Background(), 1)
	}()

	<-pageOneArrived
	// The newer request completes while the older one is still in flight.
	require.NoError(t, store.FetchPage(context.Background(), 2))
	assert.Equal(t, 2, store.PageInfo().CurrentPage)

	close(releasePageOne)
	require.NoError(t, <-firstDone)

	// The stale page-1 response arrived last, so it is what the view shows.
	assert.Equal(t, 1, store.PageInfo().CurrentPage)
	require.Len(t, store.Products(), 1)
	assert.Equal(t, "old", store.Products()[0].ID)
}

// ============================================
// SetEnabled
// ============================================

func TestStore_SetEnabled_FullUpdateThenRefetch(t *testing.T) {
	var gotBody struct {
		Data Product `json:"data"`
	}
	var refetched bool
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			assert.Equal(t, "/api/tenant/admin/product/a", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodGet:
			refetched = true
			w.Write(pagePayload(1, Product{ID: "a", Title: "Latte", IsEnabled: 1}))
		}
	}))

	p := Product{ID: "a", Title: "Latte", Category: "coffee", Unit: "cup", Price: 120, IsEnabled: 0}
	require.NoError(t, store.SetEnabled(context.Background(), p, true))

	assert.Equal(t, 1, gotBody.Data.IsEnabled)
	assert.Equal(t, "Latte", gotBody.Data.Title, "record is written in full, not patched")
	assert.True(t, refetched)
	assert.Equal(t, 1, store.Products()[0].IsEnabled)
}

func TestStore_SetEnabled_FailureLeavesListUnchanged(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"nope"}`))
			return
		}
		w.Write(pagePayload(1, Product{ID: "a", IsEnabled: 0}))
	}))
	require.NoError(t, store.FetchPage(context.Background(), 1))

	err := store.SetEnabled(context.Background(), store.Products()[0], true)

	require.Error(t, err)
	assert.Equal(t, 0, store.Products()[0].IsEnabled)
}

// ============================================
// Public list and detail
// ============================================

func TestStore_FetchAllAndNeighbors(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tenant/products/all", r.URL.Path)
		raw, _ := json.Marshal(listResponse{Products: []Product{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		}})
		w.Write(raw)
	}))

	require.NoError(t, store.FetchAll(context.Background()))
	require.Len(t, store.All(), 3)

	prev, next := store.Neighbors("b")
	assert.Equal(t, "a", prev)
	assert.Equal(t, "c", next)

	prev, next = store.Neighbors("a")
	assert.Empty(t, prev)
	assert.Equal(t, "b", next)

	prev, next = store.Neighbors("c")
	assert.Equal(t, "b", prev)
	assert.Empty(t, next)

	prev, next = store.Neighbors("missing")
	assert.Empty(t, prev)
	assert.Empty(t, next)
}

func TestStore_FetchDetail(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tenant/product/a", r.URL.Path)
		raw, _ := json.Marshal(detailResponse{Product: Product{ID: "a", Title: "Latte"}})
		w.Write(raw)
	}))

	p, err := store.FetchDetail(context.Background(), "a")

	require.NoError(t, err)
	assert.Equal(t, "Latte", p.Title)
}

// ============================================
// Pager
// ============================================

func TestPager_DropsRapidFlips(t *testing.T) {
	fetches := 0
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		page := r.URL.Query().Get("page")
		n := 1
		fmt.Sscanf(page, "%d", &n)
		w.Write(pagePayload(n))
	}))
	pager := NewPager(store, time.Hour)

	fetched, err := pager.GoTo(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, fetched)

	fetched, err = pager.GoTo(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, fetched, "a flip inside the throttle window is dropped")
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, store.PageInfo().CurrentPage)
}

func TestPager_ClampsToKnownRange(t *testing.T) {
	var requested []string
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Query().Get("page"))
		w.Write(pagePayload(1))
	}))
	pager := NewPager(store, 0)

	_, err := pager.GoTo(context.Background(), 1)
	require.NoError(t, err)

	// total_pages is 3 after the first fetch; out-of-range flips clamp.
	_, err = pager.GoTo(context.Background(), 99)
	require.NoError(t, err)
	_, err = pager.GoTo(context.Background(), -5)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3", "1"}, requested)
}

func TestPager_NextPrevFollowServerFlags(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &n)
		w.Write(pagePayload(n))
	}))
	pager := NewPager(store, 0)

	// Before any fetch has_pre/has_next are false; nothing moves.
	moved, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = pager.GoTo(context.Background(), 1)
	require.NoError(t, err)

	moved, err = pager.Prev(context.Background())
	require.NoError(t, err)
	assert.False(t, moved, "page 1 has no predecessor")

	moved, err = pager.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, store.PageInfo().CurrentPage)
}
