package sqlitestore

import (
	"fmt"

	"pos_ledger/internal/inventory"
)

// CatalogStore implements inventory.Catalog on sqlite. The in-memory
// inventory store writes products through here and loads them at startup.
type CatalogStore struct {
	db *DB
}

func (c *CatalogStore) SaveProduct(p inventory.Product) error {
	_, err := c.db.sql.Exec(`
		INSERT INTO products (id, name, category, unit_price, unit_cost, stock, low_stock_threshold, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			unit_price = excluded.unit_price,
			unit_cost = excluded.unit_cost,
			stock = excluded.stock,
			low_stock_threshold = excluded.low_stock_threshold,
			active = excluded.active`,
		p.ID, p.Name, p.Category, p.UnitPrice, p.UnitCost, p.Stock, p.LowStockThreshold, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (c *CatalogStore) LoadProducts() ([]inventory.Product, error) {
	rows, err := c.db.sql.Query(`
		SELECT id, name, category, unit_price, unit_cost, stock, low_stock_threshold, active
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	defer rows.Close()

	var products []inventory.Product
	for rows.Next() {
		var p inventory.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.UnitPrice, &p.UnitCost, &p.Stock, &p.LowStockThreshold, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
