package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"manglistore-backend/internal/models"
)

// ProductLookup resolves a catalog product by id
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// CartView is a cart together with its derived totals
type CartView struct {
	Session   string             `json:"session"`
	Items     []models.CartItem  `json:"items"`
	ItemCount int                `json:"itemCount"`
	Totals    models.OrderTotals `json:"totals"`
}

// CartService owns the per-session carts. Storage is the source of truth:
// every operation loads the cart, applies the change and saves it while
// holding that session's lock. A cart whose last save failed is kept in
// memory until a later save succeeds.
type CartService struct {
	storage  CartStorage
	products ProductLookup
	pricing  PricingConfig
	locks    *sessionLocks

	unsavedMu sync.Mutex
	unsaved   map[string]*models.Cart
}

// NewCartService creates a new cart service
func NewCartService(storage CartStorage, products ProductLookup, pricing PricingConfig) *CartService {
	return &CartService{
		storage:  storage,
		products: products,
		pricing:  pricing,
		locks:    newSessionLocks(),
		unsaved:  make(map[string]*models.Cart),
	}
}

// sessionLocks hands out one mutex per session, dropped once nobody holds or waits on it
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// lock blocks until session is free and returns the matching unlock.
func (l *sessionLocks) lock(session string) func() {
	l.mu.Lock()
	sl, ok := l.locks[session]
	if !ok {
		sl = &sessionLock{}
		l.locks[session] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, session)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// load returns the session cart. Callers must hold the session lock.
func (s *CartService) load(ctx context.Context, session string) *models.Cart {
	s.unsavedMu.Lock()
	c, ok := s.unsaved[session]
	s.unsavedMu.Unlock()
	if ok {
		return c
	}

	c = &models.Cart{}
	data, err := s.storage.Load(ctx, CartKey(session))
	switch {
	case errors.Is(err, ErrCartNotStored):
	case err != nil:
		log.Printf("⚠️  Failed to load cart %s, starting empty: %v", session, err)
	default:
		if err := json.Unmarshal(data, c); err != nil {
			log.Printf("⚠️  Discarding corrupt cart %s: %v", session, err)
			c = &models.Cart{}
		}
	}
	return c
}

func (s *CartService) view(session string, c *models.Cart) *CartView {
	items := c.Items()
	return &CartView{
		Session:   session,
		Items:     items,
		ItemCount: c.ItemCount(),
		Totals:    s.pricing.ComputeTotals(items),
	}
}

// persist saves the cart. On failure the cart is held in memory so the
// session keeps seeing its change. Callers must hold the session lock.
func (s *CartService) persist(ctx context.Context, session string, c *models.Cart) error {
	data, err := json.Marshal(c)
	if err == nil {
		err = s.storage.Save(ctx, CartKey(session), data)
	}

	s.unsavedMu.Lock()
	defer s.unsavedMu.Unlock()
	if err != nil {
		s.unsaved[session] = c
		return fmt.Errorf("%w: %w", ErrCartNotPersisted, err)
	}
	delete(s.unsaved, session)
	return nil
}

// mutate applies fn to the session cart, recomputes totals and persists, all under the session lock.
func (s *CartService) mutate(ctx context.Context, session string, fn func(*models.Cart)) (*CartView, error) {
	unlock := s.locks.lock(session)
	defer unlock()

	c := s.load(ctx, session)
	fn(c)
	view := s.view(session, c)
	if err := s.persist(ctx, session, c); err != nil {
		return view, err
	}
	return view, nil
}

// Get returns the cart and totals for a session.
func (s *CartService) Get(ctx context.Context, session string) (*CartView, error) {
	unlock := s.locks.lock(session)
	defer unlock()

	return s.view(session, s.load(ctx, session)), nil
}

// Add puts one unit of the product in the cart. Unknown and out-of-stock
// products are rejected.
func (s *CartService) Add(ctx context.Context, session, productID string) (*CartView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, ErrOutOfStock
	}
	if product.Unit == "" {
		product.Unit = models.DefaultUnit
	}

	return s.mutate(ctx, session, func(c *models.Cart) {
		c.Add(*product)
	})
}

// Remove deletes the product from the cart; absent ids are a no-op.
func (s *CartService) Remove(ctx context.Context, session, productID string) (*CartView, error) {
	return s.mutate(ctx, session, func(c *models.Cart) {
		c.Remove(productID)
	})
}

// SetQuantity replaces the quantity; zero or less removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, session, productID string, quantity int) (*CartView, error) {
	return s.mutate(ctx, session, func(c *models.Cart) {
		c.SetQuantity(productID, quantity)
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, session string) (*CartView, error) {
	return s.mutate(ctx, session, func(c *models.Cart) {
		c.Clear()
	})
}

// Checkout hands the current items to submit and clears the cart once
// submit succeeds. The session lock is held throughout, so mutations from
// other requests wait and land in the emptied cart. A failed submit leaves
// the cart untouched. A clear that cannot be saved is reported as
// ErrCartNotPersisted after submit has already succeeded.
func (s *CartService) Checkout(ctx context.Context, session string, submit func(items []models.CartItem) error) error {
	unlock := s.locks.lock(session)
	defer unlock()

	c := s.load(ctx, session)
	if err := submit(c.Items()); err != nil {
		return err
	}
	c.Clear()
	return s.persist(ctx, session, c)
}

// Pricing returns the pricing configuration used for totals.
func (s *CartService) Pricing() PricingConfig {
	return s.pricing
}
