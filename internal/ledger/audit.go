package ledger

import (
	"iter"
	"sort"
	"sync"
	"time"
)

// Action is the kind of lifecycle event an audit entry records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AuditEntry is an immutable record of a lifecycle action taken on a sale.
// Entries are never updated or deleted; corrections are recorded as new
// entries against the same sale.
type AuditEntry struct {
	ID     int64     `json:"id"`
	SaleID int64     `json:"sale_id"`
	Action Action    `json:"action"`
	Detail string    `json:"detail"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// AuditLog is an append-only per-sale history.
type AuditLog interface {
	Append(saleID int64, action Action, detail, actor string) (AuditEntry, error)
	// HistoryFor yields the entries for one sale oldest-first, ordered by
	// timestamp with ties broken by id. The sequence is restartable: each
	// range re-reads the log.
	HistoryFor(saleID int64) iter.Seq[AuditEntry]
}

// MemoryAuditLog keeps the audit trail in process memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	nextID  int64
}

// NewMemoryAuditLog creates an empty in-memory audit log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

// Append records a new entry with a fresh strictly-increasing id and the
// current timestamp.
func (l *MemoryAuditLog) Append(saleID int64, action Action, detail, actor string) (AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	e := AuditEntry{
		ID:     l.nextID,
		SaleID: saleID,
		Action: action,
		Detail: detail,
		Actor:  actor,
		At:     time.Now(),
	}
	l.entries = append(l.entries, e)
	return e, nil
}

func (l *MemoryAuditLog) HistoryFor(saleID int64) iter.Seq[AuditEntry] {
	return func(yield func(AuditEntry) bool) {
		l.mu.Lock()
		matched := make([]AuditEntry, 0)
		for _, e := range l.entries {
			if e.SaleID == saleID {
				matched = append(matched, e)
			}
		}
		l.mu.Unlock()

		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].At.Equal(matched[j].At) {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].At.Before(matched[j].At)
		})
		for _, e := range matched {
			if !yield(e) {
				return
			}
		}
	}
}
