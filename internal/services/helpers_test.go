package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"manglistore-backend/database"
	"manglistore-backend/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Initialize(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// productMap is a ProductLookup over a fixed set of products
type productMap map[string]models.Product

func (m productMap) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func testProducts() productMap {
	return productMap{
		"rice":    {ID: "rice", Name: "Basmati Rice", Price: 100, Unit: "Kg", InStock: true},
		"milk":    {ID: "milk", Name: "Milk", Price: 50, InStock: true},
		"saffron": {ID: "saffron", Name: "Saffron", Price: 2500, Unit: "Gram", InStock: true},
		"mango":   {ID: "mango", Name: "Mango", Price: 80, Unit: "Kg", InStock: false},
	}
}

// failingStorage loads nothing and fails every save
type failingStorage struct{ err error }

func (f failingStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCartNotStored
}

func (f failingStorage) Save(ctx context.Context, key string, data []byte) error {
	return f.err
}

// recordingRepository keeps created orders in memory
type recordingRepository struct {
	mu     sync.Mutex
	orders []*models.Order
	err    error
	calls  int
	// onCreate runs before the order is stored
	onCreate func(order *models.Order)
}

func (r *recordingRepository) Create(ctx context.Context, order *models.Order) error {
	if r.onCreate != nil {
		r.onCreate(order)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.orders = append(r.orders, order)
	return nil
}

func (r *recordingRepository) List(ctx context.Context, limit int) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders, nil
}

// stubNotifier records calls and returns a fixed result or error
type stubNotifier struct {
	channel string
	link    string
	err     error
	calls   int
}

func (n *stubNotifier) Channel() string { return n.channel }

func (n *stubNotifier) Notify(ctx context.Context, order *models.Order) (*NotificationResult, error) {
	n.calls++
	if n.err != nil {
		return nil, n.err
	}
	return &NotificationResult{Channel: n.channel, Link: n.link}, nil
}
