package inventory

// Product is a catalog entry sold by gram quantity.
type Product struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	UnitPrice         float64 `json:"unit_price"`
	UnitCost          float64 `json:"unit_cost"`
	Stock             float64 `json:"stock"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
	Active            bool    `json:"active"`
}

// ProductUpdate carries the editable fields for an existing product. Stock is
// deliberately absent: stock only moves through the reservation protocol or
// Restock.
type ProductUpdate struct {
	Name              *string  `json:"name,omitempty"`
	Category          *string  `json:"category,omitempty"`
	UnitPrice         *float64 `json:"unit_price,omitempty"`
	UnitCost          *float64 `json:"unit_cost,omitempty"`
	LowStockThreshold *float64 `json:"low_stock_threshold,omitempty"`
}
