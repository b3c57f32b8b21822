package sqlitestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pos.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSaleRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	store := db.Sales()

	customerID := int64(7)
	sale := &ledger.Sale{
		ID:         store.NextID(),
		CustomerID: &customerID,
		Lines: []ledger.LineItem{
			{ProductID: 1, Name: "OG Kush", Grams: 3.5, UnitPrice: 10, Subtotal: 35},
			{ProductID: 2, Name: "Amnesia", Grams: 7, UnitPrice: 5, Subtotal: 35},
		},
		Status:    ledger.StatusCompleted,
		Total:     70,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Set(sale))
	assert.Equal(t, 1, sale.Version)

	got, err := store.Read(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, int64(7), *got.CustomerID)
	assert.Equal(t, ledger.StatusCompleted, got.Status)
	assert.Equal(t, 70.0, got.Total)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "OG Kush", got.Lines[0].Name)
	assert.Equal(t, 3.5, got.Lines[0].Grams)
	assert.NoError(t, got.CheckTotal())

	_, err = store.Read(999)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSaleVersionConflict(t *testing.T) {
	db, _ := openTestDB(t)
	store := db.Sales()

	sale := &ledger.Sale{
		ID:        store.NextID(),
		Status:    ledger.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Set(sale))

	a, err := store.Read(sale.ID)
	require.NoError(t, err)
	b, err := store.Read(sale.ID)
	require.NoError(t, err)

	a.Status = ledger.StatusCompleted
	require.NoError(t, store.Set(a))

	b.Status = ledger.StatusCancelled
	assert.ErrorIs(t, store.Set(b), ledger.ErrConcurrentModification)

	got, err := store.Read(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, got.Status)
}

func TestSaleCounterSurvivesReopen(t *testing.T) {
	db, path := openTestDB(t)
	store := db.Sales()

	sale := &ledger.Sale{
		ID:        store.NextID(),
		Status:    ledger.StatusCompleted,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Set(sale))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Greater(t, reopened.Sales().NextID(), sale.ID)
}

func TestAuditAppendAndHistory(t *testing.T) {
	db, _ := openTestDB(t)
	audit := db.Audit()

	e1, err := audit.Append(1, ledger.ActionCreate, "sale created", "ana")
	require.NoError(t, err)
	_, err = audit.Append(2, ledger.ActionCreate, "sale created", "ana")
	require.NoError(t, err)
	e3, err := audit.Append(1, ledger.ActionDelete, "sale cancelled", "luis")
	require.NoError(t, err)
	assert.Greater(t, e3.ID, e1.ID)

	var entries []ledger.AuditEntry
	for e := range audit.HistoryFor(1) {
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.ActionCreate, entries[0].Action)
	assert.Equal(t, ledger.ActionDelete, entries[1].Action)
	assert.Equal(t, "luis", entries[1].Actor)
}

func TestExpenseRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	store := db.Expenses()

	e := &expense.Expense{
		ID:            store.NextID(),
		Date:          time.Now().UTC(),
		Category:      expense.CategoryRent,
		Description:   "September rent",
		Amount:        1200,
		PaymentMethod: "transfer",
		Status:        expense.StatusCompleted,
	}
	require.NoError(t, store.Set(e))

	got, err := store.Read(e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.CategoryRent, got.Category)
	assert.Equal(t, 1200.0, got.Amount)

	got.Status = expense.StatusCancelled
	require.NoError(t, store.Set(got))

	all, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, expense.StatusCancelled, all[0].Status)

	_, err = store.Read(999)
	assert.ErrorIs(t, err, expense.ErrNotFound)
}

func TestCatalogRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	catalog := db.Catalog()

	p := inventory.Product{
		ID: 1, Name: "OG Kush", Category: "flower",
		UnitPrice: 10, UnitCost: 4, Stock: 100, LowStockThreshold: 5, Active: true,
	}
	require.NoError(t, catalog.SaveProduct(p))

	p.Stock = 96.5
	require.NoError(t, catalog.SaveProduct(p))

	products, err := catalog.LoadProducts()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 96.5, products[0].Stock)
	assert.True(t, products[0].Active)
}

func TestInventoryWriteThrough(t *testing.T) {
	db, _ := openTestDB(t)
	store := inventory.NewStore(db.Catalog(), nil)

	p, err := store.AddProduct(inventory.Product{Name: "OG Kush", UnitPrice: 10, Stock: 100})
	require.NoError(t, err)

	r, err := store.Reserve(p.ID, 60)
	require.NoError(t, err)
	store.Commit(r)

	// A fresh store loading from the same catalog sees the committed stock.
	fresh := inventory.NewStore(db.Catalog(), nil)
	require.NoError(t, fresh.Load())
	got, err := fresh.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.Stock)
}
