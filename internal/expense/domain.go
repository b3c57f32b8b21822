package expense

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Category is the bucket an operating expense is reported under.
type Category string

const (
	CategoryRent       Category = "rent"
	CategorySalaries   Category = "salaries"
	CategoryTaxes      Category = "taxes"
	CategoryProduct    Category = "product"
	CategoryBeverages  Category = "beverages"
	CategoryUtilities  Category = "utilities"
	CategoryMarketing  Category = "marketing"
	CategoryAffiliates Category = "affiliates"
	CategoryOther      Category = "other"
)

// Categories lists every recognized category.
func Categories() []Category {
	return []Category{
		CategoryRent, CategorySalaries, CategoryTaxes, CategoryProduct,
		CategoryBeverages, CategoryUtilities, CategoryMarketing,
		CategoryAffiliates, CategoryOther,
	}
}

// Valid reports whether c is a recognized category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Status mirrors the sale lifecycle but the aggregates stay independent:
// expenses never reference sales.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Expense is one operating expense record.
type Expense struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	Category      Category  `json:"category"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        Status    `json:"status"`
}

// ErrNotFound is returned when an expense with the given ID is not found.
var ErrNotFound = errors.New("expense not found")

// Storage is the interface for the expense storage layer.
type Storage interface {
	Set(e *Expense) error
	Read(id int64) (*Expense, error)
	GetAll() ([]*Expense, error)
	NextID() int64
}

// LocalStorage provides an in-memory implementation for storing expenses.
type LocalStorage struct {
	mu     sync.Mutex
	m      map[int64]*Expense
	nextID int64
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{m: map[int64]*Expense{}}
}

func (l *LocalStorage) NextID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return l.nextID
}

func (l *LocalStorage) Set(e *Expense) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored := *e
	l.m[e.ID] = &stored
	return nil
}

func (l *LocalStorage) Read(id int64) (*Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (l *LocalStorage) GetAll() ([]*Expense, error) {
	l.mu.Lock()
	expenses := make([]*Expense, 0, len(l.m))
	for _, e := range l.m {
		copied := *e
		expenses = append(expenses, &copied)
	}
	l.mu.Unlock()

	sort.Slice(expenses, func(i, j int) bool { return expenses[i].ID < expenses[j].ID })
	return expenses, nil
}
