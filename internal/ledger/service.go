package ledger

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pos_ledger/internal/inventory"
)

// ErrEmptyCart is returned when a sale is submitted with no lines.
var ErrEmptyCart = errors.New("sale must contain at least one line")

// ErrCustomerNotFound is returned when the referenced customer does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrNotPending is returned when a draft-only operation targets a settled sale.
var ErrNotPending = errors.New("sale is not pending")

// ErrSaleCancelled is returned when editing a cancelled sale.
var ErrSaleCancelled = errors.New("sale is cancelled")

// ErrSaleSettled is returned when a caller tries to edit quantities on a
// completed sale. Settled quantities only change via cancel + re-create, so
// the inventory ledger and audit trail stay consistent.
var ErrSaleSettled = errors.New("cannot edit lines of a settled sale; cancel and create a new sale")

// CustomerDirectory checks whether a customer id refers to a real customer.
type CustomerDirectory interface {
	Exists(id int64) (bool, error)
}

// casRetries bounds how often a status transition is retried after losing a
// version race.
const casRetries = 3

// Service owns the sale lifecycle and coordinates the inventory store and
// audit log so a sale and its stock deduction succeed or fail together.
type Service struct {
	storage   Storage
	inventory *inventory.Store
	audit     AuditLog
	customers CustomerDirectory // nil means any customer id is accepted
	logger    *zap.Logger
}

// NewService creates a new Service.
func NewService(storage Storage, inv *inventory.Store, audit AuditLog, customers CustomerDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage:   storage,
		inventory: inv,
		audit:     audit,
		customers: customers,
		logger:    logger,
	}
}

// CreateSale runs the full commit protocol: merge and validate the cart,
// reserve every line, snapshot prices, persist the sale as completed, commit
// the reservations and append a create audit entry. If any reservation fails,
// every reservation acquired so far is released and nothing is persisted.
func (s *Service) CreateSale(customerID *int64, lines []CartLine, actor string) (*Sale, error) {
	merged, err := s.validateCart(customerID, lines)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reserveAll(merged)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &Sale{
		ID:         s.storage.NextID(),
		CustomerID: customerID,
		Lines:      s.snapshotLines(merged),
		Status:     StatusCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sale.Total = sale.ComputeTotal()

	if err := s.storage.Set(sale); err != nil {
		for i := len(reservations) - 1; i >= 0; i-- {
			s.inventory.Release(reservations[i])
		}
		s.logger.Error("failed to save sale", zap.Int64("sale_id", sale.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	for _, r := range reservations {
		s.inventory.Commit(r)
	}

	s.appendAudit(sale.ID, ActionCreate,
		fmt.Sprintf("sale created: %d line(s), total %.2f", len(sale.Lines), sale.Total), actor)
	s.logger.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.Int("lines", len(sale.Lines)),
		zap.Float64("total", sale.Total),
	)
	return sale, nil
}

// CreateDraft records a pending sale without touching inventory. Prices are
// snapshotted and stock reserved only when the draft is finalized.
func (s *Service) CreateDraft(customerID *int64, lines []CartLine, actor string) (*Sale, error) {
	merged, err := s.validateCart(customerID, lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &Sale{
		ID:         s.storage.NextID(),
		CustomerID: customerID,
		Lines:      draftLines(merged),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.storage.Set(sale); err != nil {
		s.logger.Error("failed to save draft", zap.Int64("sale_id", sale.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	s.appendAudit(sale.ID, ActionCreate, fmt.Sprintf("draft created: %d line(s)", len(sale.Lines)), actor)
	return sale, nil
}

// UpdateDraftLines replaces the cart of a pending sale. Settled sales cannot
// have their lines edited.
func (s *Service) UpdateDraftLines(saleID int64, lines []CartLine, actor string) (*Sale, error) {
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == StatusCompleted {
		return nil, ErrSaleSettled
	}
	if sale.Status != StatusPending {
		return nil, ErrNotPending
	}
	merged, err := s.validateCart(nil, lines)
	if err != nil {
		return nil, err
	}

	sale.Lines = draftLines(merged)
	sale.Total = 0
	sale.UpdatedAt = time.Now()
	if err := s.storage.Set(sale); err != nil {
		return nil, err
	}

	s.appendAudit(saleID, ActionUpdate, fmt.Sprintf("draft lines replaced: %d line(s)", len(sale.Lines)), actor)
	return sale, nil
}

// FinalizeSale settles a pending draft through the same reserve-all protocol
// as CreateSale.
func (s *Service) FinalizeSale(saleID int64, actor string) (*Sale, error) {
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != StatusPending {
		return nil, ErrNotPending
	}

	cart := make([]CartLine, len(sale.Lines))
	for i, l := range sale.Lines {
		cart[i] = CartLine{ProductID: l.ProductID, Grams: l.Grams}
	}
	reservations, err := s.reserveAll(cart)
	if err != nil {
		return nil, err
	}

	sale.Lines = s.snapshotLines(cart)
	sale.Total = sale.ComputeTotal()
	sale.Status = StatusCompleted
	sale.UpdatedAt = time.Now()
	if err := s.storage.Set(sale); err != nil {
		for i := len(reservations) - 1; i >= 0; i-- {
			s.inventory.Release(reservations[i])
		}
		s.logger.Error("failed to finalize sale", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, err
	}

	for _, r := range reservations {
		s.inventory.Commit(r)
	}

	s.appendAudit(saleID, ActionUpdate,
		fmt.Sprintf("draft finalized: %d line(s), total %.2f", len(sale.Lines), sale.Total), actor)
	s.logger.Info("sale finalized", zap.Int64("sale_id", saleID), zap.Float64("total", sale.Total))
	return sale, nil
}

// ReassignCustomer changes the customer on a sale. This is the only field
// edit allowed on a completed sale since it does not touch inventory.
func (s *Service) ReassignCustomer(saleID int64, customerID *int64, actor string) (*Sale, error) {
	if err := s.checkCustomer(customerID); err != nil {
		return nil, err
	}
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == StatusCancelled {
		return nil, ErrSaleCancelled
	}

	sale.CustomerID = customerID
	sale.UpdatedAt = time.Now()
	if err := s.storage.Set(sale); err != nil {
		return nil, err
	}

	s.appendAudit(saleID, ActionUpdate, "customer reassigned", actor)
	return sale, nil
}

// CancelSale moves a sale to cancelled. Cancelling a completed sale restocks
// each line's grams as a compensating action. Cancelling an already-cancelled
// sale is a no-op.
func (s *Service) CancelSale(saleID int64, actor string) (*Sale, error) {
	for attempt := 0; ; attempt++ {
		sale, err := s.storage.Read(saleID)
		if err != nil {
			return nil, err
		}
		if sale.Status == StatusCancelled {
			return sale, nil
		}

		wasCompleted := sale.Status == StatusCompleted
		sale.Status = StatusCancelled
		sale.UpdatedAt = time.Now()
		if err := s.storage.Set(sale); err != nil {
			if errors.Is(err, ErrConcurrentModification) && attempt < casRetries {
				continue
			}
			return nil, err
		}

		// The CAS winner owns the compensation, so restock happens once.
		if wasCompleted {
			for _, l := range sale.Lines {
				if err := s.inventory.Restock(l.ProductID, l.Grams); err != nil {
					s.logger.Error("failed to restock cancelled line",
						zap.Int64("sale_id", saleID),
						zap.Int64("product_id", l.ProductID),
						zap.Bool("reconcile", true),
						zap.Error(err),
					)
				}
			}
		}

		s.appendAudit(saleID, ActionDelete, fmt.Sprintf("sale cancelled, total %.2f", sale.Total), actor)
		s.logger.Info("sale cancelled", zap.Int64("sale_id", saleID), zap.Bool("restocked", wasCompleted))
		return sale, nil
	}
}

// GetSale returns one sale, verifying the total invariant on the way out.
func (s *Service) GetSale(saleID int64) (*Sale, error) {
	sale, err := s.storage.Read(saleID)
	if err != nil {
		return nil, err
	}
	if err := sale.CheckTotal(); err != nil {
		s.logger.Error("sale total invariant violated", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, err
	}
	return sale, nil
}

// ListSales returns every sale ordered by id.
func (s *Service) ListSales() ([]*Sale, error) {
	return s.storage.GetAll()
}

// History returns the audit trail of a sale oldest-first.
func (s *Service) History(saleID int64) ([]AuditEntry, error) {
	if _, err := s.storage.Read(saleID); err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0)
	for e := range s.audit.HistoryFor(saleID) {
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Service) validateCart(customerID *int64, lines []CartLine) ([]CartLine, error) {
	merged := MergeLines(lines)
	if len(merged) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range merged {
		if l.Grams <= 0 {
			return nil, inventory.ErrInvalidGrams
		}
	}
	if err := s.checkCustomer(customerID); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Service) checkCustomer(customerID *int64) error {
	if customerID == nil || s.customers == nil {
		return nil
	}
	exists, err := s.customers.Exists(*customerID)
	if err != nil {
		s.logger.Error("error validating customer", zap.Int64p("customer_id", customerID), zap.Error(err))
		return fmt.Errorf("error validating customer: %w", err)
	}
	if !exists {
		return ErrCustomerNotFound
	}
	return nil
}

// reserveAll acquires a reservation per line, releasing everything acquired
// so far (in reverse order) on the first failure.
func (s *Service) reserveAll(lines []CartLine) ([]*inventory.Reservation, error) {
	reservations := make([]*inventory.Reservation, 0, len(lines))
	for _, l := range lines {
		r, err := s.inventory.Reserve(l.ProductID, l.Grams)
		if err != nil {
			for i := len(reservations) - 1; i >= 0; i-- {
				s.inventory.Release(reservations[i])
			}
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, nil
}

// snapshotLines freezes each line's unit price at the product's current price.
func (s *Service) snapshotLines(lines []CartLine) []LineItem {
	items := make([]LineItem, len(lines))
	for i, l := range lines {
		p, err := s.inventory.Get(l.ProductID)
		if err != nil {
			// Products are soft-deleted only, and a reservation exists, so
			// the lookup cannot miss outside a process crash.
			s.logger.Error("product vanished during snapshot", zap.Int64("product_id", l.ProductID), zap.Error(err))
		}
		items[i] = LineItem{
			ProductID: l.ProductID,
			Name:      p.Name,
			Grams:     l.Grams,
			UnitPrice: p.UnitPrice,
			Subtotal:  l.Grams * p.UnitPrice,
		}
	}
	return items
}

// appendAudit is called after the transaction has committed. A failed append
// never rolls the sale back; it is flagged for reconciliation instead.
func (s *Service) appendAudit(saleID int64, action Action, detail, actor string) {
	if _, err := s.audit.Append(saleID, action, detail, actor); err != nil {
		s.logger.Error("failed to append audit entry",
			zap.Int64("sale_id", saleID),
			zap.String("action", string(action)),
			zap.Bool("reconcile", true),
			zap.Error(err),
		)
	}
}

func draftLines(lines []CartLine) []LineItem {
	items := make([]LineItem, len(lines))
	for i, l := range lines {
		items[i] = LineItem{ProductID: l.ProductID, Grams: l.Grams}
	}
	return items
}
