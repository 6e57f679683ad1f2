// Package cart holds the cart aggregate. The server is the sole authority
// for quantities and totals: every mutation ends by re-fetching the whole
// aggregate, never by local arithmetic.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/catalog"
	"github.com/example/storefront-client/internal/ui"
)

var ErrQuantityTooLow = errors.New("quantity must be >= 1")

// Item is one cart line. Total is server-computed; the client never derives
// it from price and quantity.
type Item struct {
	ID      string          `json:"id"`
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
	Total   float64         `json:"total"`
}

// Cart is the aggregate, replaced wholesale after every mutating call.
// final_total never exceeds total; discounts only subtract.
type Cart struct {
	Carts      []Item  `json:"carts"`
	Total      float64 `json:"total"`
	FinalTotal float64 `json:"final_total"`
}

// OrderUser is the checkout contact block.
type OrderUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Tel     string `json:"tel"`
	Address string `json:"address"`
}

// Store owns the cart aggregate for the cart and checkout views.
type Store struct {
	client   *apiclient.Client
	tracker  *ui.Tracker
	notifier *ui.Notifier
	log      *zap.Logger

	// Dialogs the store closes as part of its mutations: the detail viewer
	// after a successful add, the confirmation dialog around removals.
	detail  *ui.Modal
	confirm *ui.Modal

	mu       sync.RWMutex
	cart     Cart
	addingID string
}

func NewStore(client *apiclient.Client, tracker *ui.Tracker, notifier *ui.Notifier, log *zap.Logger) *Store {
	return &Store{
		client:   client,
		tracker:  tracker,
		notifier: notifier,
		log:      log.Named("cart"),
	}
}

// BindDialogs attaches the view's detail and confirmation dialogs. Either
// may be nil for views that do not render one.
func (s *Store) BindDialogs(detail, confirm *ui.Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detail = detail
	s.confirm = confirm
}

type cartResponse struct {
	Data Cart `json:"data"`
}

// Fetch replaces the aggregate with the server's. Triggered on view entry
// and after every mutation.
func (s *Store) Fetch(ctx context.Context) error {
	s.tracker.Begin("loading cart")
	defer s.tracker.End()

	var resp cartResponse
	if err := s.client.Do(ctx, http.MethodGet, s.client.Scoped("cart"), nil, &resp); err != nil {
		s.log.Error("fetch cart failed", zap.Error(err))
		return fmt.Errorf("fetch cart: %w", err)
	}

	s.mu.Lock()
	s.cart = resp.Data
	s.mu.Unlock()
	return nil
}

type lineRequest struct {
	Data struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	} `json:"data"`
}

func newLineRequest(productID string, qty int) lineRequest {
	var req lineRequest
	req.Data.ProductID = productID
	req.Data.Qty = qty
	return req
}

// AddItem posts a new line for the product. qty is coerced to at least 1.
// On success it clears the per-product adding flag, closes the detail
// dialog when one is open, and re-fetches the aggregate.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, qty int) error {
	if qty < 1 {
		qty = 1
	}

	// The storefront row shows its own inline spinner via the adding flag;
	// the full-viewport indicator stays out of this one call.
	s.mu.Lock()
	s.addingID = p.ID
	s.mu.Unlock()

	err := s.client.Do(ctx, http.MethodPost, s.client.Scoped("cart"), newLineRequest(p.ID, qty), nil)

	s.mu.Lock()
	s.addingID = ""
	detail := s.detail
	s.mu.Unlock()

	if err != nil {
		s.log.Error("add item failed", zap.String("product", p.ID), zap.Error(err))
		return fmt.Errorf("add %q to cart: %w", p.Title, err)
	}

	s.notifier.Show(fmt.Sprintf("[%s] added to cart, %d %s", p.Title, qty, p.Unit))
	if detail != nil && detail.IsOpen() {
		_ = detail.Close()
	}
	return s.Fetch(ctx)
}

// CanDecrement reports whether the decrement control should be enabled; it
// is false exactly when the line is at quantity 1 so a 0-or-negative update
// can never be issued.
func (s *Store) CanDecrement(item Item) bool {
	return item.Qty > 1
}

// SetQuantity updates one line to qty. Quantities below 1 are rejected
// locally without any request. The displayed quantity only changes through
// the re-fetch; a rejected update leaves it as it was.
func (s *Store) SetQuantity(ctx context.Context, item Item, qty int) error {
	if qty < 1 {
		return ErrQuantityTooLow
	}

	s.tracker.Begin("updating cart")
	defer s.tracker.End()

	path := s.client.Scoped("cart/%s", item.ID)
	if err := s.client.Do(ctx, http.MethodPut, path, newLineRequest(item.Product.ID, qty), nil); err != nil {
		s.log.Error("set quantity failed", zap.String("item", item.ID), zap.Error(err))
		return fmt.Errorf("update quantity of %q: %w", item.Product.Title, err)
	}

	s.notifier.Show(fmt.Sprintf("[%s] quantity updated to %d %s", item.Product.Title, qty, item.Product.Unit))
	return s.Fetch(ctx)
}

// RemoveItem deletes one line, closes the confirmation dialog, then
// re-fetches.
func (s *Store) RemoveItem(ctx context.Context, item Item) error {
	s.tracker.Begin("removing from cart")
	defer s.tracker.End()

	path := s.client.Scoped("cart/%s", item.ID)
	if err := s.client.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		s.log.Error("remove item failed", zap.String("item", item.ID), zap.Error(err))
		return fmt.Errorf("remove %q from cart: %w", item.Product.Title, err)
	}

	s.closeConfirm()
	s.notifier.Show(fmt.Sprintf("[%s] removed from cart", item.Product.Title))
	return s.Fetch(ctx)
}

// Clear deletes every line, closes the confirmation dialog, then re-fetches.
func (s *Store) Clear(ctx context.Context) error {
	s.tracker.Begin("clearing cart")
	defer s.tracker.End()

	if err := s.client.Do(ctx, http.MethodDelete, s.client.Scoped("carts"), nil, nil); err != nil {
		s.log.Error("clear cart failed", zap.Error(err))
		return fmt.Errorf("clear cart: %w", err)
	}

	s.closeConfirm()
	s.notifier.Show("cart cleared")
	return s.Fetch(ctx)
}

type orderRequest struct {
	Data struct {
		User    OrderUser `json:"user"`
		Message string    `json:"message"`
	} `json:"data"`
}

// Checkout submits the order form, then re-fetches the now-empty aggregate.
// Failures surface as a blocking error at the call site; the form state is
// the caller's to keep.
func (s *Store) Checkout(ctx context.Context, user OrderUser, message string) error {
	s.tracker.Begin("submitting order")
	defer s.tracker.End()

	var req orderRequest
	req.Data.User = user
	req.Data.Message = message
	if err := s.client.Do(ctx, http.MethodPost, s.client.Scoped("order"), req, nil); err != nil {
		s.log.Error("checkout failed", zap.Error(err))
		return fmt.Errorf("checkout: %w", err)
	}

	s.notifier.Show("order submitted, continue shopping from the product list")
	return s.Fetch(ctx)
}

// Cart returns the current aggregate.
func (s *Store) Cart() Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// Adding reports the product id an add call is currently in flight for;
// the storefront list disables that row's button while set.
func (s *Store) Adding() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addingID, s.addingID != ""
}

func (s *Store) closeConfirm() {
	s.mu.RLock()
	confirm := s.confirm
	s.mu.RUnlock()
	if confirm != nil && confirm.IsOpen() {
		_ = confirm.Close()
	}
}
