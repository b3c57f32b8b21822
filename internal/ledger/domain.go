package ledger

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a sale. Transitions are monotonic:
// pending → completed | cancelled; completed → cancelled; cancelled is final.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CartLine is a caller-submitted request for grams of one product, before any
// price has been attached.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Grams     float64 `json:"grams"`
}

// LineItem is one settled line of a sale. UnitPrice is snapshotted at sale
// time and never changes afterwards, so later price edits on the product
// cannot rewrite historical sales.
type LineItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Grams     float64 `json:"grams"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// Sale is the aggregate root of a sales transaction.
type Sale struct {
	ID         int64      `json:"id"`
	CustomerID *int64     `json:"customer_id,omitempty"`
	Lines      []LineItem `json:"lines"`
	Status     Status     `json:"status"`
	Total      float64    `json:"total"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int        `json:"version"`
}

// ComputeTotal sums the line subtotals.
func (s *Sale) ComputeTotal() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.Subtotal
	}
	return total
}

// CheckTotal verifies the stored total against the line items.
func (s *Sale) CheckTotal() error {
	if got := s.ComputeTotal(); got != s.Total {
		return fmt.Errorf("sale %d total %.2f does not match line items %.2f", s.ID, s.Total, got)
	}
	return nil
}

// Clone returns a deep copy so callers can hand sales across goroutines
// without aliasing the stored line slice.
func (s *Sale) Clone() *Sale {
	c := *s
	c.Lines = make([]LineItem, len(s.Lines))
	copy(c.Lines, s.Lines)
	if s.CustomerID != nil {
		id := *s.CustomerID
		c.CustomerID = &id
	}
	return &c
}

// MergeLines collapses duplicate product ids by summing their grams, keeping
// first-appearance order. Merging happens before validation so a split
// submission cannot produce ambiguous partial reservations.
func MergeLines(lines []CartLine) []CartLine {
	merged := make([]CartLine, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Grams += l.Grams
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}
