package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"manglistore-backend/database"
	"manglistore-backend/internal/models"
	"manglistore-backend/internal/utils"
)

// AllCategories is the pseudo category that disables filtering
const AllCategories = "All"

const seedCategory = "Groceries"

// ImageLimits caps inline (data URL) image sizes in bytes
type ImageLimits struct {
	ProductBytes  int64
	BrandingBytes int64
}

// CatalogService handles products and store settings
type CatalogService struct {
	db      *sql.DB
	broker  *CatalogBroker
	limits  ImageLimits
	now     utils.Clock
	randInt func(n int) int

	// serialises read-modify-write of the settings row
	settingsMu sync.Mutex
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *sql.DB, broker *CatalogBroker, limits ImageLimits) *CatalogService {
	if broker == nil {
		broker = NewCatalogBroker()
	}
	return &CatalogService{
		db:      db,
		broker:  broker,
		limits:  limits,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

const productColumns = `id, name, price, original_price, description, image_url, category, unit,
	in_stock, is_discounted, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var original sql.NullFloat64
	if err := row.Scan(
		&p.ID, &p.Name, &p.Price, &original, &p.Description, &p.ImageURL, &p.Category, &p.Unit,
		&p.InStock, &p.IsDiscounted, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if original.Valid {
		v := original.Float64
		p.OriginalPrice = &v
	}
	if p.Unit == "" {
		p.Unit = models.DefaultUnit
	}
	return &p, nil
}

// ListProducts returns products, newest first. An empty category or "All" returns everything.
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	var args []any
	if category != "" && category != AllCategories {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) checkImage(field, imageURL string, limit int64) error {
	size, err := utils.InlineImageSize(imageURL)
	if err != nil {
		var errs utils.ValidationErrors
		errs.Add(field, err.Error())
		return errs
	}
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: %s exceeds %d KB", ErrImageTooLarge, field, limit/1024)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	var errs utils.ValidationErrors
	if strings.TrimSpace(p.Name) == "" {
		errs.Add("name", "name is required")
	}
	if p.Price < 0 {
		errs.Add("price", "price must not be negative")
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < 0 {
		errs.Add("originalPrice", "original price must not be negative")
	}
	return errs.OrNil()
}

// CreateProduct adds a product to the catalog. An image is required.
func (s *CatalogService) CreateProduct(ctx context.Context, creation *models.ProductCreation) (*models.Product, error) {
	if strings.TrimSpace(creation.ImageURL) == "" {
		return nil, ErrImageRequired
	}
	if err := s.checkImage("imageUrl", creation.ImageURL, s.limits.ProductBytes); err != nil {
		return nil, err
	}

	now := s.now()
	product := &models.Product{
		ID:            uuid.New().String(),
		Name:          utils.SanitizeString(creation.Name),
		OriginalPrice: creation.OriginalPrice,
		Description:   utils.SanitizeString(creation.Description),
		ImageURL:      creation.ImageURL,
		Category:      strings.TrimSpace(creation.Category),
		Unit:          strings.TrimSpace(creation.Unit),
		InStock:       true,
		IsDiscounted:  creation.IsDiscounted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if creation.Price != nil {
		product.Price = *creation.Price
	}
	if creation.InStock != nil {
		product.InStock = *creation.InStock
	}
	if product.Unit == "" {
		product.Unit = models.DefaultUnit
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.insertProduct(ctx, s.db, product); err != nil {
		return nil, err
	}

	s.broker.Publish(CatalogEvent{Type: EventProductCreated, ProductID: product.ID, Product: product})
	return product, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *CatalogService) insertProduct(ctx context.Context, db execer, p *models.Product) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, original_price, description, image_url, category, unit,
			in_stock, is_discounted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price, p.OriginalPrice, p.Description, p.ImageURL, p.Category, p.Unit,
		p.InStock, p.IsDiscounted, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *CatalogService) saveProduct(ctx context.Context, p *models.Product) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = ?, price = ?, original_price = ?, description = ?, image_url = ?,
			category = ?, unit = ?, in_stock = ?, is_discounted = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Price, p.OriginalPrice, p.Description, p.ImageURL,
		p.Category, p.Unit, p.InStock, p.IsDiscounted, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateProduct applies a partial edit to a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, update *models.ProductUpdate) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.ImageURL != nil {
		if strings.TrimSpace(*update.ImageURL) == "" {
			return nil, ErrImageRequired
		}
		if err := s.checkImage("imageUrl", *update.ImageURL, s.limits.ProductBytes); err != nil {
			return nil, err
		}
	}

	update.Apply(product)
	product.Name = utils.SanitizeString(product.Name)
	product.Description = utils.SanitizeString(product.Description)
	if strings.TrimSpace(product.Unit) == "" {
		product.Unit = models.DefaultUnit
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now()

	if err := s.saveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.broker.Publish(CatalogEvent{Type: EventProductUpdated, ProductID: product.ID, Product: product})
	return product, nil
}

// ToggleStock flips the in-stock flag of a product
func (s *CatalogService) ToggleStock(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.InStock = !product.InStock
	product.UpdatedAt = s.now()

	if err := s.saveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.broker.Publish(CatalogEvent{Type: EventProductUpdated, ProductID: product.ID, Product: product})
	return product, nil
}

// DeleteProduct removes a product from the catalog
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	s.broker.Publish(CatalogEvent{Type: EventProductDeleted, ProductID: id})
	return nil
}

// Seed inserts one in-stock placeholder product per entry of the embedded
// seed catalog, with a fresh id and a random price in [50, 149].
func (s *CatalogService) Seed(ctx context.Context) ([]*models.Product, error) {
	entries, err := database.SeedProducts()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	products := make([]*models.Product, 0, len(entries))
	for _, entry := range entries {
		unit := entry.Unit
		if unit == "" {
			unit = models.DefaultUnit
		}
		p := &models.Product{
			ID:          uuid.New().String(),
			Name:        entry.Name,
			Price:       float64(s.randInt(100) + 50),
			Description: fmt.Sprintf("Premium quality %s for your kitchen.", strings.ToLower(entry.Name)),
			ImageURL:    entry.ImageURL,
			Category:    seedCategory,
			Unit:        unit,
			InStock:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.insertProduct(ctx, tx, p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed: %w", err)
	}

	log.Printf("🌱 Seeded %d placeholder products", len(products))
	s.broker.Publish(CatalogEvent{Type: EventCatalogReseeded})
	return products, nil
}

// GetSettings returns the singleton store settings
func (s *CatalogService) GetSettings(ctx context.Context) (*models.StoreSettings, error) {
	var hero, logo sql.NullString
	var categories string
	settings := &models.StoreSettings{}

	err := s.db.QueryRowContext(ctx,
		"SELECT hero_image_url, logo_image_url, categories, updated_at FROM settings WHERE id = ?",
		models.StoreSettingsID,
	).Scan(&hero, &logo, &categories, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		settings.Categories = []string{}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store settings: %w", err)
	}

	if hero.Valid {
		settings.HeroImageURL = &hero.String
	}
	if logo.Valid {
		settings.LogoImageURL = &logo.String
	}
	if err := json.Unmarshal([]byte(categories), &settings.Categories); err != nil {
		log.Printf("⚠️  Invalid categories in store settings, ignoring: %v", err)
	}
	if settings.Categories == nil {
		settings.Categories = []string{}
	}
	return settings, nil
}

func (s *CatalogService) saveSettings(ctx context.Context, settings *models.StoreSettings) error {
	categories, err := json.Marshal(settings.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	settings.UpdatedAt = s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, hero_image_url, logo_image_url, categories, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hero_image_url = excluded.hero_image_url,
			logo_image_url = excluded.logo_image_url,
			categories = excluded.categories,
			updated_at = excluded.updated_at`,
		models.StoreSettingsID, settings.HeroImageURL, settings.LogoImageURL, string(categories), settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save store settings: %w", err)
	}

	s.broker.Publish(CatalogEvent{Type: EventSettingsUpdated, Settings: settings})
	return nil
}

// UpdateBranding replaces the hero and/or logo image
func (s *CatalogService) UpdateBranding(ctx context.Context, update *models.BrandingUpdate) (*models.StoreSettings, error) {
	if update.HeroImageURL != nil {
		if err := s.checkImage("heroImageUrl", *update.HeroImageURL, s.limits.BrandingBytes); err != nil {
			return nil, err
		}
	}
	if update.LogoImageURL != nil {
		if err := s.checkImage("logoImageUrl", *update.LogoImageURL, s.limits.BrandingBytes); err != nil {
			return nil, err
		}
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if update.HeroImageURL != nil {
		settings.HeroImageURL = utils.SafeStringPointer(*update.HeroImageURL)
	}
	if update.LogoImageURL != nil {
		settings.LogoImageURL = utils.SafeStringPointer(*update.LogoImageURL)
	}

	if err := s.saveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func cleanCategory(name string) (string, error) {
	name = utils.SanitizeString(name)
	if name == "" {
		var errs utils.ValidationErrors
		errs.Add("name", "category name is required")
		return "", errs
	}
	if strings.EqualFold(name, AllCategories) {
		var errs utils.ValidationErrors
		errs.Add("name", "\"All\" is reserved")
		return "", errs
	}
	return name, nil
}

// AddCategory appends a category label to the store settings
func (s *CatalogService) AddCategory(ctx context.Context, name string) (*models.StoreSettings, error) {
	name, err := cleanCategory(name)
	if err != nil {
		return nil, err
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if utils.Contains(settings.Categories, name) {
		return nil, ErrCategoryExists
	}
	settings.Categories = append(settings.Categories, name)

	if err := s.saveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// RenameCategory renames a category label in place. Products keep their old category string.
func (s *CatalogService) RenameCategory(ctx context.Context, oldName, newName string) (*models.StoreSettings, error) {
	newName, err := cleanCategory(newName)
	if err != nil {
		return nil, err
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, c := range settings.Categories {
		if c == oldName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCategoryNotFound
	}
	if newName != oldName && utils.Contains(settings.Categories, newName) {
		return nil, ErrCategoryExists
	}
	settings.Categories[idx] = newName

	if err := s.saveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// DeleteCategory removes a category label from the store settings
func (s *CatalogService) DeleteCategory(ctx context.Context, name string) (*models.StoreSettings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(settings.Categories))
	for _, c := range settings.Categories {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(settings.Categories) {
		return nil, ErrCategoryNotFound
	}
	settings.Categories = kept

	if err := s.saveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ListCategories returns "All" followed by the configured categories, or by
// the distinct product categories when none are configured.
func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	categories := settings.Categories
	if len(categories) == 0 {
		rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM products WHERE category != ''")
		if err != nil {
			return nil, fmt.Errorf("failed to query product categories: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				return nil, fmt.Errorf("failed to scan category: %w", err)
			}
			categories = append(categories, c)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		sort.Strings(categories)
	}

	return append([]string{AllCategories}, utils.RemoveDuplicates(categories)...), nil
}

// Snapshot returns all products and the store settings.
func (s *CatalogService) Snapshot(ctx context.Context) (*CatalogSnapshot, error) {
	products, err := s.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogSnapshot{Products: products, Settings: settings}, nil
}

// Subscribe streams catalog change events.
func (s *CatalogService) Subscribe() (<-chan CatalogEvent, func()) {
	return s.broker.Subscribe()
}
