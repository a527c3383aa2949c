package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Initialize creates and returns a database connection
func Initialize(databaseURL string) (*sql.DB, error) {
	inMemory := strings.Contains(databaseURL, ":memory:")

	// Add SQLite-specific parameters for better concurrent access
	if !inMemory && !strings.Contains(databaseURL, "?") {
		databaseURL += "?_busy_timeout=30000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"
	}

	db, err := sql.Open("sqlite3", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if inMemory {
		// Every new connection to :memory: is a fresh, empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = memory",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set pragma %s: %v", pragma, err)
		}
	}

	log.Println("Database connection established successfully")
	return db, nil
}

// Migrate runs database migrations
func Migrate(db *sql.DB) error {
	migrations := []string{
		createProductsTable,
		createOrdersTable,
		createSettingsTable,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}

	if err := NewMigrationManager(db).RunMigrations(); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	price REAL NOT NULL CHECK (price >= 0),
	original_price REAL,
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT 'Unit',
	in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	is_discounted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL,
	phone TEXT NOT NULL,
	address TEXT NOT NULL,
	items TEXT NOT NULL,
	subtotal REAL NOT NULL,
	delivery_charge REAL NOT NULL,
	grand_total REAL NOT NULL,
	delivery_note TEXT NOT NULL DEFAULT '',
	after_hours BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const createSettingsTable = `
CREATE TABLE IF NOT EXISTS settings (
	id TEXT PRIMARY KEY,
	hero_image_url TEXT,
	logo_image_url TEXT,
	categories TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// MigrationManager runs named, one-shot migrations tracked in the migrations table
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// RunMigrations executes all pending migrations
func (m *MigrationManager) RunMigrations() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	steps := []struct {
		name string
		fn   func(tx *sql.Tx) error
	}{
		{"insert_default_store_settings", insertDefaultStoreSettings},
		{"create_catalog_indexes", createCatalogIndexes},
	}

	for _, step := range steps {
		if err := m.runMigration(step.name, step.fn); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", step.name, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table
func (m *MigrationManager) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			migration VARCHAR(255) NOT NULL UNIQUE,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.Exec(query)
	return err
}

// runMigration executes a migration if it hasn't been run before
func (m *MigrationManager) runMigration(name string, migrationFunc func(tx *sql.Tx) error) error {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM migrations WHERE migration = ?", name).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	log.Printf("🔧 Running migration: %s", name)

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrationFunc(tx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO migrations (migration) VALUES (?)", name); err != nil {
		return err
	}

	return tx.Commit()
}

// AppliedMigrations lists executed migration names in execution order
func (m *MigrationManager) AppliedMigrations() ([]string, error) {
	rows, err := m.db.Query("SELECT migration FROM migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func insertDefaultStoreSettings(tx *sql.Tx) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO settings (id, categories) VALUES (?, ?)`,
		"store", `["Groceries"]`,
	)
	return err
}

func createCatalogIndexes(tx *sql.Tx) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
	}
	for _, q := range indexes {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
