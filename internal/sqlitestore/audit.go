package sqlitestore

import (
	"fmt"
	"iter"
	"time"

	"pos_ledger/internal/ledger"
)

// AuditStore implements ledger.AuditLog on sqlite. The table is insert-only;
// no update or delete statement exists anywhere in this package.
type AuditStore struct {
	db *DB
}

func (a *AuditStore) Append(saleID int64, action ledger.Action, detail, actor string) (ledger.AuditEntry, error) {
	e := ledger.AuditEntry{
		SaleID: saleID,
		Action: action,
		Detail: detail,
		Actor:  actor,
		At:     time.Now(),
	}
	res, err := a.db.sql.Exec(`
		INSERT INTO audit_log (sale_id, action, detail, actor, at)
		VALUES (?, ?, ?, ?, ?)`,
		e.SaleID, string(e.Action), e.Detail, e.Actor, e.At,
	)
	if err != nil {
		return ledger.AuditEntry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.AuditEntry{}, fmt.Errorf("failed to read audit entry id: %w", err)
	}
	e.ID = id
	return e, nil
}

// HistoryFor re-queries the log on every iteration, so the sequence is
// restartable and reflects appends made between iterations.
func (a *AuditStore) HistoryFor(saleID int64) iter.Seq[ledger.AuditEntry] {
	return func(yield func(ledger.AuditEntry) bool) {
		rows, err := a.db.sql.Query(`
			SELECT id, sale_id, action, detail, actor, at
			FROM audit_log WHERE sale_id = ? ORDER BY at, id`, saleID)
		if err != nil {
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e ledger.AuditEntry
			var action string
			if err := rows.Scan(&e.ID, &e.SaleID, &action, &e.Detail, &e.Actor, &e.At); err != nil {
				return
			}
			e.Action = ledger.Action(action)
			if !yield(e) {
				return
			}
		}
	}
}
