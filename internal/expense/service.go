package expense

import (
	"errors"
	"fmt"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pos_ledger/pkg/validator"
)

// ErrInvalidCategory is returned for a category outside the recognized set.
var ErrInvalidCategory = errors.New("invalid expense category")

// ErrInvalidStatus is returned for a status outside the recognized set.
var ErrInvalidStatus = errors.New("invalid status value")

func init() {
	validator.RegisterRule("expense_category", func(fl govalidator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
}

// CreateRequest is the payload for recording a new expense.
type CreateRequest struct {
	Date          time.Time `json:"date"`
	Category      string    `json:"category" validate:"required,expense_category"`
	Description   string    `json:"description" validate:"required"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
	Status        string    `json:"status"`
}

// Service provides expense management on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, logger: logger}
}

// Record validates and stores a new expense. Status defaults to completed.
func (s *Service) Record(req CreateRequest) (*Expense, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		if first.Tag == "expense_category" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
		}
		return nil, fmt.Errorf("validation failed: field %s failed on %s", first.FailedField, first.Tag)
	}

	status := StatusCompleted
	if req.Status != "" {
		status = Status(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	e := &Expense{
		ID:            s.storage.NextID(),
		Date:          date,
		Category:      Category(req.Category),
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
	}
	if err := s.storage.Set(e); err != nil {
		s.logger.Error("failed to save expense", zap.Int64("expense_id", e.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.logger.Info("expense recorded",
		zap.Int64("expense_id", e.ID),
		zap.String("category", string(e.Category)),
		zap.Float64("amount", e.Amount),
	)
	return e, nil
}

// Cancel marks an expense cancelled. Cancelling twice is a no-op.
func (s *Service) Cancel(id int64) (*Expense, error) {
	e, err := s.storage.Read(id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusCancelled {
		return e, nil
	}
	e.Status = StatusCancelled
	if err := s.storage.Set(e); err != nil {
		return nil, err
	}
	s.logger.Info("expense cancelled", zap.Int64("expense_id", id))
	return e, nil
}

// List returns every expense ordered by id.
func (s *Service) List() ([]*Expense, error) {
	return s.storage.GetAll()
}
