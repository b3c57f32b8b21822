package sqlitestore

import (
	"database/sql"
	"fmt"

	"pos_ledger/internal/ledger"
)

// SaleStore implements ledger.Storage on sqlite.
type SaleStore struct {
	db *DB
}

func (s *SaleStore) NextID() int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextSaleID++
	return s.db.nextSaleID
}

// Set upserts a sale and its lines in one transaction, enforcing the same
// version check as the in-memory storage.
func (s *SaleStore) Set(sale *ledger.Sale) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedVersion int
	err = tx.QueryRow(`SELECT version FROM sales WHERE id = ?`, sale.ID).Scan(&storedVersion)
	switch {
	case err == sql.ErrNoRows:
		// new sale
	case err != nil:
		return fmt.Errorf("failed to read sale version: %w", err)
	case storedVersion != sale.Version:
		return ledger.ErrConcurrentModification
	}

	var customerID sql.NullInt64
	if sale.CustomerID != nil {
		customerID = sql.NullInt64{Int64: *sale.CustomerID, Valid: true}
	}
	newVersion := sale.Version + 1
	_, err = tx.Exec(`
		INSERT INTO sales (id, customer_id, status, total, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			status = excluded.status,
			total = excluded.total,
			updated_at = excluded.updated_at,
			version = excluded.version`,
		sale.ID, customerID, string(sale.Status), sale.Total, sale.CreatedAt, sale.UpdatedAt, newVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM sale_lines WHERE sale_id = ?`, sale.ID); err != nil {
		return fmt.Errorf("failed to clear sale lines: %w", err)
	}
	for _, l := range sale.Lines {
		_, err := tx.Exec(`
			INSERT INTO sale_lines (sale_id, product_id, name, grams, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sale.ID, l.ProductID, l.Name, l.Grams, l.UnitPrice, l.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to save sale line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sale: %w", err)
	}
	sale.Version = newVersion
	return nil
}

func (s *SaleStore) Read(id int64) (*ledger.Sale, error) {
	row := s.db.sql.QueryRow(`
		SELECT id, customer_id, status, total, created_at, updated_at, version
		FROM sales WHERE id = ?`, id)
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sale: %w", err)
	}
	if err := s.loadLines(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *SaleStore) GetAll() ([]*ledger.Sale, error) {
	rows, err := s.db.sql.Query(`
		SELECT id, customer_id, status, total, created_at, updated_at, version
		FROM sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*ledger.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, sale := range sales {
		if err := s.loadLines(sale); err != nil {
			return nil, err
		}
	}
	if sales == nil {
		sales = []*ledger.Sale{}
	}
	return sales, nil
}

func (s *SaleStore) loadLines(sale *ledger.Sale) error {
	rows, err := s.db.sql.Query(`
		SELECT product_id, name, grams, unit_price, subtotal
		FROM sale_lines WHERE sale_id = ? ORDER BY rowid`, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to load sale lines: %w", err)
	}
	defer rows.Close()

	sale.Lines = []ledger.LineItem{}
	for rows.Next() {
		var l ledger.LineItem
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Grams, &l.UnitPrice, &l.Subtotal); err != nil {
			return fmt.Errorf("failed to scan sale line: %w", err)
		}
		sale.Lines = append(sale.Lines, l)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(r rowScanner) (*ledger.Sale, error) {
	var sale ledger.Sale
	var customerID sql.NullInt64
	var status string
	err := r.Scan(&sale.ID, &customerID, &status, &sale.Total, &sale.CreatedAt, &sale.UpdatedAt, &sale.Version)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = &customerID.Int64
	}
	sale.Status = ledger.Status(status)
	return &sale, nil
}
