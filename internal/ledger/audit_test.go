package ledger

import (
	"testing"
)

func TestAuditAppendOrdering(t *testing.T) {
	log := NewMemoryAuditLog()

	log.Append(1, ActionCreate, "sale created", "ana")
	log.Append(2, ActionCreate, "sale created", "ana")
	log.Append(1, ActionUpdate, "customer reassigned", "luis")
	log.Append(1, ActionDelete, "sale cancelled", "ana")

	var entries []AuditEntry
	for e := range log.HistoryFor(1) {
		entries = append(entries, e)
	}
	if len(entries) != 3 {
		t.Fatalf("entries for sale 1 = %d, want 3", len(entries))
	}
	wantActions := []Action{ActionCreate, ActionUpdate, ActionDelete}
	for i, e := range entries {
		if e.SaleID != 1 {
			t.Errorf("entry %d belongs to sale %d", i, e.SaleID)
		}
		if e.Action != wantActions[i] {
			t.Errorf("entry %d action = %s, want %s", i, e.Action, wantActions[i])
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID <= entries[i-1].ID {
			t.Errorf("ids not strictly increasing: %d after %d", entries[i].ID, entries[i-1].ID)
		}
		if entries[i].At.Before(entries[i-1].At) {
			t.Errorf("timestamps out of order at entry %d", i)
		}
	}
}

func TestAuditHistoryIsRestartable(t *testing.T) {
	log := NewMemoryAuditLog()
	log.Append(1, ActionCreate, "sale created", "ana")

	seq := log.HistoryFor(1)

	var first int
	for range seq {
		first++
	}

	// Appends between iterations are visible on the next pass.
	log.Append(1, ActionUpdate, "draft finalized", "ana")
	var second int
	for range seq {
		second++
	}

	if first != 1 || second != 2 {
		t.Errorf("iteration counts = %d then %d, want 1 then 2", first, second)
	}
}

func TestAuditHistoryEarlyStop(t *testing.T) {
	log := NewMemoryAuditLog()
	for i := 0; i < 5; i++ {
		log.Append(1, ActionUpdate, "detail", "ana")
	}

	var seen int
	for range log.HistoryFor(1) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("early stop consumed %d entries, want 2", seen)
	}
}
