// Package controllers holds the two page controllers of the account service:
// the order list and the profile editor. Both follow the same consistency
// model: every mutation issues a single intent request to the backend and
// then reloads authoritative state, never patching local copies in place.
package controllers

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/models"
	"storefront/internal/notify"
)

// OrderBackend is the slice of the backend surface the order list needs.
type OrderBackend interface {
	ActiveOrders(ctx context.Context, userID string) ([]models.Order, error)
	Order(ctx context.Context, orderID string) (*models.Order, error)
	AddNote(ctx context.Context, orderID, note string) error
	UpdateAddress(ctx context.Context, orderID, address string) error
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID string) error
	AddCartItem(ctx context.Context, userID string, item backend.CartItem) error
}

// Summary is the derived roll-up over the loaded order set.
type Summary struct {
	WaitingCount   int             `json:"waitingCount"`
	ShippingCount  int             `json:"shippingCount"`
	CancelledCount int             `json:"cancelledCount"`
	// TotalOutstanding sums totalPrice over waiting and shipping orders only;
	// cancelled and received orders never contribute.
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
}

// OrderView is one order as presented to the UI, with its derived actions.
type OrderView struct {
	models.Order
	Actions       []models.Action `json:"actions"`
	NotesExpanded bool            `json:"notesExpanded"`
}

// OrderListView is the full view-state snapshot of the order list page.
type OrderListView struct {
	Orders  []OrderView `json:"orders"`
	Summary Summary     `json:"summary"`
	Loading bool        `json:"loading"`
}

// OrderListController owns the order list page state for one user.
type OrderListController struct {
	userID   string
	backend  OrderBackend
	notifier notify.Notifier

	// fetching is the in-flight guard for list loads: a second load while
	// one is outstanding is silently dropped, not queued.
	fetching atomic.Bool

	mu       sync.Mutex
	orders   []models.Order
	expanded map[string]bool
	loading  bool
}

// NewOrderListController creates a controller for the given user. An empty
// userID is allowed: loads then yield an empty set rather than an error.
func NewOrderListController(userID string, b OrderBackend, n notify.Notifier) *OrderListController {
	return &OrderListController{
		userID:   userID,
		backend:  b,
		notifier: n,
		expanded: make(map[string]bool),
	}
}

// Load fetches the user's active orders and replaces the working set
// wholesale, sorted newest first. Concurrent calls are deduplicated: while
// one load is outstanding any further call is a no-op.
func (c *OrderListController) Load(ctx context.Context) error {
	if c.userID == "" {
		c.mu.Lock()
		c.orders = nil
		c.loading = false
		c.mu.Unlock()
		return nil
	}

	if !c.fetching.CompareAndSwap(false, true) {
		return nil
	}
	defer c.fetching.Store(false)

	c.setLoading(true)
	defer c.setLoading(false)

	orders, err := c.backend.ActiveOrders(ctx, c.userID)
	if err != nil {
		log.Printf("Error loading active orders for user %s: %v", c.userID, err)
		c.mu.Lock()
		c.orders = nil
		c.mu.Unlock()
		return err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	c.mu.Lock()
	c.orders = orders
	c.mu.Unlock()
	return nil
}

// Summarize derives the status counters and the outstanding total from the
// loaded set. Pure: same set in, same summary out.
func Summarize(orders []models.Order) Summary {
	counts := lo.CountValuesBy(orders, func(o models.Order) models.OrderStatus {
		return o.Status
	})

	payable := lo.Filter(orders, func(o models.Order, _ int) bool {
		return o.Status == models.OrderStatusWaiting || o.Status == models.OrderStatusShipping
	})
	total := lo.Reduce(payable, func(acc decimal.Decimal, o models.Order, _ int) decimal.Decimal {
		return acc.Add(o.TotalPrice)
	}, decimal.Zero)

	return Summary{
		WaitingCount:     counts[models.OrderStatusWaiting],
		ShippingCount:    counts[models.OrderStatusShipping],
		CancelledCount:   counts[models.OrderStatusCancelled],
		TotalOutstanding: total,
	}
}

// View returns a snapshot of the page state for rendering.
func (c *OrderListController) View() OrderListView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]OrderView, 0, len(c.orders))
	for _, o := range c.orders {
		views = append(views, OrderView{
			Order:         o,
			Actions:       models.MutatingActions(o.Status),
			NotesExpanded: c.expanded[o.ID],
		})
	}
	return OrderListView{
		Orders:  views,
		Summary: Summarize(c.orders),
		Loading: c.loading,
	}
}

// Orders returns a copy of the current working set.
func (c *OrderListController) Orders() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// ToggleNotes flips the notes panel for one order. Pure UI state, no backend
// call; available regardless of status.
func (c *OrderListController) ToggleNotes(orderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded[orderID] = !c.expanded[orderID]
	return c.expanded[orderID]
}

// Cancel requests the waiting→cancelled transition for the order and reloads.
func (c *OrderListController) Cancel(ctx context.Context, orderID string) error {
	return c.run(ctx, "Order cancelled", "The order has been cancelled.", func(ctx context.Context) error {
		return c.backend.UpdateStatus(ctx, orderID, models.OrderStatusCancelled)
	})
}

// ChangeAddress patches the order's delivery address and reloads. The new
// address only has to be non-blank; content is not validated client-side.
func (c *OrderListController) ChangeAddress(ctx context.Context, orderID, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		c.notifier.Error("Invalid address", "Please enter a new delivery address.")
		return validationError("delivery address must not be empty")
	}
	return c.run(ctx, "Address updated", "The delivery address has been updated.", func(ctx context.Context) error {
		return c.backend.UpdateAddress(ctx, orderID, address)
	})
}

// AddNote appends a free-text note to the order and reloads. Notes are
// additive only; prior notes are never edited or removed.
func (c *OrderListController) AddNote(ctx context.Context, orderID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		c.notifier.Error("Invalid note", "Please enter a note.")
		return validationError("note must not be empty")
	}
	return c.run(ctx, "Note added", "The note has been added to the order.", func(ctx context.Context) error {
		return c.backend.AddNote(ctx, orderID, text)
	})
}

// Reorder rebuilds the user's cart from a cancelled order and then deletes
// it: fetch the order detail, add every resolvable line to the cart strictly
// in sequence with quantity and price carried over verbatim, delete the
// order, reload. The sequence is not transactional: a mid-sequence failure
// leaves the cart partially populated and the order in place, reported as a
// single aggregate failure.
func (c *OrderListController) Reorder(ctx context.Context, orderID string) error {
	if c.userID == "" {
		return validationError("no resolved user identity")
	}
	return c.run(ctx, "Reorder complete", "All items were added to your cart and the old order was removed.", func(ctx context.Context) error {
		order, err := c.backend.Order(ctx, orderID)
		if err != nil {
			return err
		}

		for _, item := range order.Items {
			if !item.Product.Resolvable() {
				continue
			}
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			err := c.backend.AddCartItem(ctx, c.userID, backend.CartItem{
				ProductID: item.Product.ID,
				Quantity:  quantity,
				Price:     item.Price,
			})
			if err != nil {
				return err
			}
		}

		return c.backend.DeleteOrder(ctx, orderID)
	})
}

// run executes one mutating command: loading flag on, issue the intent, on
// success reload the list and notify, on failure notify and leave the list
// untouched. The loading flag is cleared on every path.
func (c *OrderListController) run(ctx context.Context, title, message string, fn func(context.Context) error) error {
	c.setLoading(true)
	defer c.setLoading(false)

	if err := fn(ctx); err != nil {
		log.Printf("Order command failed for user %s: %v", c.userID, err)
		c.notifier.Error("Action failed", userMessage(err))
		return err
	}

	if err := c.Load(ctx); err != nil {
		c.notifier.Error("Refresh failed", userMessage(err))
		return err
	}

	c.notifier.Success(title, message)
	return nil
}

func (c *OrderListController) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// userMessage picks the server-provided message when there is one and falls
// back to a generic failure text otherwise.
func userMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return "Something went wrong. Please try again."
}
