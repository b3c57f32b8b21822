package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when the referenced product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrProductInactive is returned when reserving stock on a deactivated product.
var ErrProductInactive = errors.New("product is inactive")

// ErrInvalidGrams is returned when a quantity is zero or negative.
var ErrInvalidGrams = errors.New("grams must be greater than zero")

// ErrProductExists is returned when adding a product whose id is already
// taken. Replacing a live product would orphan its outstanding reservations.
var ErrProductExists = errors.New("product id already exists")

// ErrInvalidProduct is returned when a product field fails validation.
var ErrInvalidProduct = errors.New("price, cost, and threshold must not be negative")

// InsufficientStockError reports a reservation that asked for more grams than
// the product has available once outstanding reservations are counted.
type InsufficientStockError struct {
	ProductID int64
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %.2fg, available %.2fg", e.ProductID, e.Requested, e.Available)
}

// Shortfall is the amount by which the request exceeded available stock.
func (e *InsufficientStockError) Shortfall() float64 {
	return e.Requested - e.Available
}

type reservationState int

const (
	reservationHeld reservationState = iota
	reservationCommitted
	reservationReleased
)

// Reservation is a transient hold on a product's stock. It is never persisted;
// it lives only between Reserve and the matching Commit or Release.
type Reservation struct {
	ID        uuid.UUID
	ProductID int64
	Grams     float64

	state reservationState // guarded by the owning product's mutex
}

// Catalog persists product records. The in-memory store writes through to it on
// every stock or attribute change so a durable backend stays current.
type Catalog interface {
	SaveProduct(p Product) error
	LoadProducts() ([]Product, error)
}

// productState pairs a product with its own mutex so reservations on one
// product never block operations on another.
type productState struct {
	mu       sync.Mutex
	product  Product
	reserved float64 // grams held by outstanding reservations
}

// Store holds current stock per product and arbitrates reservations.
type Store struct {
	mu       sync.RWMutex // guards the products map and nextID, not product state
	products map[int64]*productState
	nextID   int64

	catalog Catalog
	logger  *zap.Logger
}

// NewStore creates an empty Store. catalog may be nil for purely in-memory use.
func NewStore(catalog Catalog, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		products: map[int64]*productState{},
		catalog:  catalog,
		logger:   logger,
	}
}

// Load replaces the in-memory catalog with the catalog backend's contents.
// Called once at startup when a durable backend is configured.
func (s *Store) Load() error {
	if s.catalog == nil {
		return nil
	}
	products, err := s.catalog.LoadProducts()
	if err != nil {
		return fmt.Errorf("failed to load product catalog: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = map[int64]*productState{}
	for _, p := range products {
		s.products[p.ID] = &productState{product: p}
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return nil
}

// AddProduct registers a new product, assigning the next id when p.ID is
// zero. An explicit id that is already taken is rejected: swapping the state
// under a live product would detach its outstanding reservations and corrupt
// the availability accounting.
func (s *Store) AddProduct(p Product) (Product, error) {
	if p.Stock < 0 {
		return Product{}, ErrInvalidGrams
	}
	if p.UnitPrice < 0 || p.UnitCost < 0 || p.LowStockThreshold < 0 {
		return Product{}, ErrInvalidProduct
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	} else {
		if _, ok := s.products[p.ID]; ok {
			return Product{}, ErrProductExists
		}
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	p.Active = true
	s.products[p.ID] = &productState{product: p}
	s.save(p)
	return p, nil
}

// Get returns a copy of the product.
func (s *Store) Get(id int64) (Product, error) {
	ps, err := s.state(id)
	if err != nil {
		return Product{}, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.product, nil
}

// List returns all products, active and inactive, ordered by id.
func (s *Store) List() []Product {
	s.mu.RLock()
	states := make([]*productState, 0, len(s.products))
	for _, ps := range s.products {
		states = append(states, ps)
	}
	s.mu.RUnlock()

	products := make([]Product, 0, len(states))
	for _, ps := range states {
		ps.mu.Lock()
		products = append(products, ps.product)
		ps.mu.Unlock()
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

// LowStock returns active products at or below their low-stock threshold,
// counting outstanding reservations against availability.
func (s *Store) LowStock() []Product {
	var low []Product
	for _, p := range s.List() {
		if !p.Active {
			continue
		}
		available, err := s.Available(p.ID)
		if err == nil && available <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low
}

// Update applies the editable fields to a product.
func (s *Store) Update(id int64, upd ProductUpdate) (Product, error) {
	if (upd.UnitPrice != nil && *upd.UnitPrice < 0) ||
		(upd.UnitCost != nil && *upd.UnitCost < 0) ||
		(upd.LowStockThreshold != nil && *upd.LowStockThreshold < 0) {
		return Product{}, ErrInvalidProduct
	}
	ps, err := s.state(id)
	if err != nil {
		return Product{}, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if upd.Name != nil {
		ps.product.Name = *upd.Name
	}
	if upd.Category != nil {
		ps.product.Category = *upd.Category
	}
	if upd.UnitPrice != nil {
		ps.product.UnitPrice = *upd.UnitPrice
	}
	if upd.UnitCost != nil {
		ps.product.UnitCost = *upd.UnitCost
	}
	if upd.LowStockThreshold != nil {
		ps.product.LowStockThreshold = *upd.LowStockThreshold
	}
	p := ps.product
	s.save(p)
	return p, nil
}

// Deactivate soft-deletes a product. Historical sales keep referencing it;
// new reservations fail with ErrProductInactive.
func (s *Store) Deactivate(id int64) (Product, error) {
	ps, err := s.state(id)
	if err != nil {
		return Product{}, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.product.Active = false
	p := ps.product
	s.save(p)
	return p, nil
}

// Reserve places a hold on grams of the product's stock. The hold counts
// against availability immediately, so concurrent reservations competing for
// the same grams cannot both succeed.
func (s *Store) Reserve(productID int64, grams float64) (*Reservation, error) {
	if grams <= 0 {
		return nil, ErrInvalidGrams
	}
	ps, err := s.state(productID)
	if err != nil {
		return nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.product.Active {
		return nil, ErrProductInactive
	}
	available := ps.product.Stock - ps.reserved
	if available < grams {
		return nil, &InsufficientStockError{ProductID: productID, Requested: grams, Available: available}
	}
	ps.reserved += grams
	return &Reservation{
		ID:        uuid.New(),
		ProductID: productID,
		Grams:     grams,
		state:     reservationHeld,
	}, nil
}

// Commit turns a held reservation into a real stock deduction. Committing the
// same reservation twice deducts only once; committing a released reservation
// does nothing.
func (s *Store) Commit(r *Reservation) {
	ps, err := s.state(r.ProductID)
	if err != nil {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if r.state != reservationHeld {
		return
	}
	r.state = reservationCommitted
	ps.reserved -= r.Grams
	ps.product.Stock -= r.Grams
	s.save(ps.product)
}

// Release discards a held reservation without touching persisted stock.
// Always safe: releasing a committed or already-released reservation is a
// no-op.
func (s *Store) Release(r *Reservation) {
	ps, err := s.state(r.ProductID)
	if err != nil {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if r.state != reservationHeld {
		return
	}
	r.state = reservationReleased
	ps.reserved -= r.Grams
}

// Restock adds grams back onto a product's persisted stock. This is the
// compensating action for cancelling a completed sale, so it works on
// inactive products too.
func (s *Store) Restock(productID int64, grams float64) error {
	if grams <= 0 {
		return ErrInvalidGrams
	}
	ps, err := s.state(productID)
	if err != nil {
		return err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.product.Stock += grams
	s.save(ps.product)
	return nil
}

// Available returns the product's stock minus all outstanding reservations.
// Reservation checks use this figure, never raw persisted stock.
func (s *Store) Available(productID int64) (float64, error) {
	ps, err := s.state(productID)
	if err != nil {
		return 0, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.product.Stock - ps.reserved, nil
}

func (s *Store) state(id int64) (*productState, error) {
	s.mu.RLock()
	ps, ok := s.products[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrProductNotFound
	}
	return ps, nil
}

// save writes a product through to the durable catalog. Callers must hold the
// product's mutex (or the map lock for new products) so snapshots reach the
// catalog in mutation order; a stale snapshot persisted last would resurrect
// sold stock on the next Load. A write-through failure is flagged for
// out-of-band reconciliation rather than failing the in-memory mutation that
// already happened.
func (s *Store) save(p Product) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.SaveProduct(p); err != nil {
		s.logger.Error("failed to persist product",
			zap.Int64("product_id", p.ID),
			zap.Bool("reconcile", true),
			zap.Error(err),
		)
	}
}
