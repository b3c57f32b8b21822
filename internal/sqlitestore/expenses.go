package sqlitestore

import (
	"database/sql"
	"fmt"

	"pos_ledger/internal/expense"
)

// ExpenseStore implements expense.Storage on sqlite.
type ExpenseStore struct {
	db *DB
}

func (s *ExpenseStore) NextID() int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextExpenseID++
	return s.db.nextExpenseID
}

func (s *ExpenseStore) Set(e *expense.Expense) error {
	_, err := s.db.sql.Exec(`
		INSERT INTO expenses (id, date, category, description, amount, payment_method, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			category = excluded.category,
			description = excluded.description,
			amount = excluded.amount,
			payment_method = excluded.payment_method,
			status = excluded.status`,
		e.ID, e.Date, string(e.Category), e.Description, e.Amount, e.PaymentMethod, string(e.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

func (s *ExpenseStore) Read(id int64) (*expense.Expense, error) {
	var e expense.Expense
	var category, status string
	err := s.db.sql.QueryRow(`
		SELECT id, date, category, description, amount, payment_method, status
		FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Date, &category, &e.Description, &e.Amount, &e.PaymentMethod, &status)
	if err == sql.ErrNoRows {
		return nil, expense.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read expense: %w", err)
	}
	e.Category = expense.Category(category)
	e.Status = expense.Status(status)
	return &e, nil
}

func (s *ExpenseStore) GetAll() ([]*expense.Expense, error) {
	rows, err := s.db.sql.Query(`
		SELECT id, date, category, description, amount, payment_method, status
		FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*expense.Expense{}
	for rows.Next() {
		var e expense.Expense
		var category, status string
		if err := rows.Scan(&e.ID, &e.Date, &category, &e.Description, &e.Amount, &e.PaymentMethod, &status); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Category = expense.Category(category)
		e.Status = expense.Status(status)
		expenses = append(expenses, &e)
	}
	return expenses, rows.Err()
}
