// Package sqlitestore implements the ledger, audit, expense, and catalog
// storage interfaces on SQLite. It is selected when POS_DB_PATH is set; the
// in-memory implementations remain the default. Reservations are transient by
// design and never touch this store.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps one sqlite database shared by the per-aggregate stores.
type DB struct {
	sql *sql.DB

	mu            sync.Mutex
	nextSaleID    int64
	nextExpenseID int64
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The ledger serializes its own writes; a single connection keeps the
	// sqlite driver out of SQLITE_BUSY territory.
	conn.SetMaxOpenConns(1)

	d := &DB{sql: conn}
	if err := d.createTables(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := d.loadCounters(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Sales returns the sale storage backed by this database.
func (d *DB) Sales() *SaleStore { return &SaleStore{db: d} }

// Audit returns the audit log backed by this database.
func (d *DB) Audit() *AuditStore { return &AuditStore{db: d} }

// Expenses returns the expense storage backed by this database.
func (d *DB) Expenses() *ExpenseStore { return &ExpenseStore{db: d} }

// Catalog returns the product catalog backed by this database.
func (d *DB) Catalog() *CatalogStore { return &CatalogStore{db: d} }

func (d *DB) createTables() error {
	tx, err := d.sql.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			unit_price REAL NOT NULL,
			unit_cost REAL NOT NULL DEFAULT 0,
			stock REAL NOT NULL DEFAULT 0,
			low_stock_threshold REAL NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER,
			status TEXT NOT NULL,
			total REAL NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sale_lines (
			sale_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			name TEXT,
			grams REAL NOT NULL,
			unit_price REAL NOT NULL,
			subtotal REAL NOT NULL,
			FOREIGN KEY(sale_id) REFERENCES sales(id)
		);`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			actor TEXT,
			at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY,
			date DATETIME NOT NULL,
			category TEXT NOT NULL,
			description TEXT,
			amount REAL NOT NULL,
			payment_method TEXT,
			status TEXT NOT NULL
		);`,
	}
	for _, stmt := range tables {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

func (d *DB) loadCounters() error {
	if err := d.sql.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM sales`).Scan(&d.nextSaleID); err != nil {
		return fmt.Errorf("failed to load sale counter: %w", err)
	}
	if err := d.sql.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM expenses`).Scan(&d.nextExpenseID); err != nil {
		return fmt.Errorf("failed to load expense counter: %w", err)
	}
	return nil
}
