package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
)

func storedSale(t *testing.T, st *ledger.LocalStorage, status ledger.Status, customerID *int64, createdAt time.Time, lines ...ledger.LineItem) *ledger.Sale {
	t.Helper()
	s := &ledger.Sale{
		ID:         st.NextID(),
		CustomerID: customerID,
		Lines:      lines,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	s.Total = s.ComputeTotal()
	if err := st.Set(s); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	return s
}

func line(productID int64, grams, unitPrice float64) ledger.LineItem {
	return ledger.LineItem{
		ProductID: productID,
		Grams:     grams,
		UnitPrice: unitPrice,
		Subtotal:  grams * unitPrice,
	}
}

func TestMonthlyRevenueBuckets(t *testing.T) {
	sales := ledger.NewLocalStorage()
	products := inventory.NewStore(nil, zaptest.NewLogger(t))
	p, _ := products.AddProduct(inventory.Product{Name: "OG Kush", UnitPrice: 10, UnitCost: 4, Stock: 100})
	noCost, _ := products.AddProduct(inventory.Product{Name: "Promo", UnitPrice: 5, Stock: 100})

	// Month boundaries matter: the last minute of January stays in January.
	jan31 := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 1, 0, 0, time.UTC)

	storedSale(t, sales, ledger.StatusCompleted, nil, jan31, line(p.ID, 10, 10))     // 100 revenue, 40 cost
	storedSale(t, sales, ledger.StatusCompleted, nil, jan31, line(noCost.ID, 10, 5)) // 50 revenue, no cost basis
	storedSale(t, sales, ledger.StatusCompleted, nil, feb1, line(p.ID, 7, 10))       // 70 revenue, 28 cost
	storedSale(t, sales, ledger.StatusCancelled, nil, feb1, line(p.ID, 99, 10))      // excluded
	storedSale(t, sales, ledger.StatusPending, nil, feb1, line(p.ID, 99, 10))        // excluded

	agg := NewAggregator(sales, expense.NewLocalStorage(), products)
	buckets, err := agg.MonthlyRevenue()
	assert.NoError(t, err)
	assert.Equal(t, []MonthBucket{
		{Month: "2026-01", Revenue: 150, Margin: 110},
		{Month: "2026-02", Revenue: 70, Margin: 42},
	}, buckets)
}

func TestTopProducts(t *testing.T) {
	sales := ledger.NewLocalStorage()
	now := time.Now()
	storedSale(t, sales, ledger.StatusCompleted, nil, now, line(1, 10, 10))
	storedSale(t, sales, ledger.StatusCompleted, nil, now, line(2, 15, 5))
	storedSale(t, sales, ledger.StatusCancelled, nil, now, line(1, 100, 10)) // excluded

	agg := NewAggregator(sales, expense.NewLocalStorage(), nil)

	top, err := agg.TopProducts(1)
	assert.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, int64(2), top[0].ProductID)
	assert.Equal(t, 15.0, top[0].Grams)

	all, err := agg.TopProducts(10)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ProductID)
	assert.Equal(t, int64(1), all[1].ProductID)
}

func TestTopProductsTieBreaksByID(t *testing.T) {
	sales := ledger.NewLocalStorage()
	now := time.Now()
	storedSale(t, sales, ledger.StatusCompleted, nil, now, line(9, 5, 10), line(3, 5, 10))

	agg := NewAggregator(sales, expense.NewLocalStorage(), nil)
	top, err := agg.TopProducts(2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), top[0].ProductID)
	assert.Equal(t, int64(9), top[1].ProductID)
}

func TestCustomerDistribution(t *testing.T) {
	sales := ledger.NewLocalStorage()
	now := time.Now()
	customerID := int64(7)
	storedSale(t, sales, ledger.StatusCompleted, &customerID, now, line(1, 1, 10))
	storedSale(t, sales, ledger.StatusCompleted, nil, now, line(1, 1, 10))
	storedSale(t, sales, ledger.StatusCompleted, nil, now, line(1, 1, 10))
	storedSale(t, sales, ledger.StatusCancelled, &customerID, now, line(1, 1, 10)) // excluded

	agg := NewAggregator(sales, expense.NewLocalStorage(), nil)
	mix, err := agg.CustomerDistribution()
	assert.NoError(t, err)
	assert.Equal(t, 1, mix.Known)
	assert.Equal(t, 2, mix.Anonymous)
	assert.InDelta(t, 33.33, mix.KnownPct, 0.01)
	assert.InDelta(t, 66.67, mix.AnonymousPct, 0.01)
}

func TestExpenseByCategory(t *testing.T) {
	expenses := expense.NewLocalStorage()
	add := func(category expense.Category, amount float64, status expense.Status) {
		e := &expense.Expense{
			ID:       expenses.NextID(),
			Date:     time.Now(),
			Category: category,
			Amount:   amount,
			Status:   status,
		}
		expenses.Set(e)
	}
	add(expense.CategoryRent, 1200, expense.StatusCompleted)
	add(expense.CategorySalaries, 800, expense.StatusCompleted)
	add(expense.CategorySalaries, 700, expense.StatusPending)
	add(expense.CategoryRent, 9999, expense.StatusCancelled) // excluded

	agg := NewAggregator(ledger.NewLocalStorage(), expenses, nil)
	totals, err := agg.ExpenseByCategory()
	assert.NoError(t, err)
	assert.Equal(t, []CategoryTotal{
		{Category: expense.CategorySalaries, Total: 1500},
		{Category: expense.CategoryRent, Total: 1200},
	}, totals)
}

func TestEmptyHistory(t *testing.T) {
	agg := NewAggregator(ledger.NewLocalStorage(), expense.NewLocalStorage(), nil)

	buckets, err := agg.MonthlyRevenue()
	assert.NoError(t, err)
	assert.Empty(t, buckets)

	top, err := agg.TopProducts(5)
	assert.NoError(t, err)
	assert.Empty(t, top)

	mix, err := agg.CustomerDistribution()
	assert.NoError(t, err)
	assert.Equal(t, CustomerMix{}, mix)

	totals, err := agg.ExpenseByCategory()
	assert.NoError(t, err)
	assert.Empty(t, totals)
}
