package ledger

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrConcurrentModification is returned when a write carries a stale version,
// meaning another writer got there first. Safe to retry from a fresh read.
var ErrConcurrentModification = errors.New("sale modified concurrently")

// Storage is the main interface for the sale storage layer. Set performs an
// optimistic-concurrency write: an update whose Version does not match the
// stored sale fails with ErrConcurrentModification, and a successful write
// bumps the version.
type Storage interface {
	Set(sale *Sale) error
	Read(id int64) (*Sale, error)
	GetAll() ([]*Sale, error)
	NextID() int64
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu     sync.Mutex
	m      map[int64]*Sale
	nextID int64
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[int64]*Sale{},
	}
}

// NextID reserves and returns the next monotonically increasing sale id.
func (l *LocalStorage) NextID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return l.nextID
}

// Set stores a copy of the sale. New sales are written at version 1; updates
// must carry the currently stored version.
func (l *LocalStorage) Set(sale *Sale) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.m[sale.ID]
	if ok && existing.Version != sale.Version {
		return ErrConcurrentModification
	}
	stored := sale.Clone()
	stored.Version++
	l.m[sale.ID] = stored
	sale.Version = stored.Version
	return nil
}

// Read retrieves a copy of a sale by ID. Returns ErrNotFound if absent.
func (l *LocalStorage) Read(id int64) (*Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// GetAll retrieves all sales ordered by id.
func (l *LocalStorage) GetAll() ([]*Sale, error) {
	l.mu.Lock()
	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		sales = append(sales, s.Clone())
	}
	l.mu.Unlock()

	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
	return sales, nil
}
