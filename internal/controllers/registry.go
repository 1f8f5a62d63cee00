package controllers

import (
	"sync"

	"storefront/internal/notify"
)

// Registry hands out the per-user controller instances. A controller lives
// for the duration of the user's page-view session and is dropped when the
// session state is reset.
type Registry struct {
	orderBackend   OrderBackend
	profileBackend ProfileBackend
	mirror         MirrorStore
	bus            Publisher
	notifier       notify.Notifier

	mu       sync.Mutex
	orders   map[string]*OrderListController
	profiles map[string]*ProfileController
}

// NewRegistry creates an empty controller registry.
func NewRegistry(ob OrderBackend, pb ProfileBackend, mirror MirrorStore, bus Publisher, n notify.Notifier) *Registry {
	return &Registry{
		orderBackend:   ob,
		profileBackend: pb,
		mirror:         mirror,
		bus:            bus,
		notifier:       n,
		orders:         make(map[string]*OrderListController),
		profiles:       make(map[string]*ProfileController),
	}
}

// Orders returns the user's order list controller, creating it on demand.
func (r *Registry) Orders(userID string) *OrderListController {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.orders[userID]; ok {
		return c
	}
	c := NewOrderListController(userID, r.orderBackend, r.notifier)
	r.orders[userID] = c
	return c
}

// Profile returns the user's profile controller, creating it on demand.
func (r *Registry) Profile(userID string) (*ProfileController, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.profiles[userID]; ok {
		return c, nil
	}
	c, err := NewProfileController(userID, r.profileBackend, r.mirror, r.bus, r.notifier)
	if err != nil {
		return nil, err
	}
	r.profiles[userID] = c
	return c, nil
}

// Drop discards the user's controllers, ending the page-view session.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, userID)
	delete(r.profiles, userID)
}
