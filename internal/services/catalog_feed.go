package services

import (
	"context"
	"sync"
	"time"

	"manglistore-backend/internal/models"
)

// Catalog event types
const (
	EventProductCreated   = "product_created"
	EventProductUpdated   = "product_updated"
	EventProductDeleted   = "product_deleted"
	EventSettingsUpdated  = "settings_updated"
	EventCatalogReseeded  = "catalog_reseeded"
	EventCatalogSnapshot  = "snapshot"
	catalogSubscriberSize = 32
)

// CatalogEvent describes one change to products or store settings
type CatalogEvent struct {
	Type      string                `json:"type"`
	ProductID string                `json:"productId,omitempty"`
	Product   *models.Product       `json:"product,omitempty"`
	Settings  *models.StoreSettings `json:"settings,omitempty"`
	At        time.Time             `json:"at"`
}

// CatalogSnapshot is the full current state a new subscriber starts from
type CatalogSnapshot struct {
	Products []*models.Product     `json:"products"`
	Settings *models.StoreSettings `json:"settings"`
}

// CatalogDataSource is what storefront code reads the catalog through.
// Snapshot gives the current state, Subscribe streams later changes.
type CatalogDataSource interface {
	Snapshot(ctx context.Context) (*CatalogSnapshot, error)
	Subscribe() (<-chan CatalogEvent, func())
}

// CatalogBroker fans catalog events out to subscribers. Subscribers that
// fall behind lose events rather than block writers.
type CatalogBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan CatalogEvent
}

func NewCatalogBroker() *CatalogBroker {
	return &CatalogBroker{subs: make(map[int]chan CatalogEvent)}
}

// Subscribe registers a listener; the returned func unsubscribes and closes the channel.
func (b *CatalogBroker) Subscribe() (<-chan CatalogEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan CatalogEvent, catalogSubscriberSize)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *CatalogBroker) Publish(event CatalogEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *CatalogBroker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
