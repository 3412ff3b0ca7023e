package worker

import (
	"context"
	"errors"
	"testing"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/storage"
)

type fakeLedger struct {
	appended map[string][]core.Transaction
	err      error
	failFor  map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{appended: make(map[string][]core.Transaction)}
}

func (f *fakeLedger) AppendTransactions(_ context.Context, householdID string, records []core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	if err := f.failFor[householdID]; err != nil {
		return err
	}
	f.appended[householdID] = append(f.appended[householdID], records...)
	return nil
}

func seedGroup(t *testing.T, store *storage.MemoryStore) (string, []core.Transaction) {
	t.Helper()
	ctx := context.Background()

	hh, err := store.CreateHousehold(ctx, "Casa")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	acc, err := store.CreateAccount(ctx, core.Account{HouseholdID: hh, Name: "Nubank", Type: core.Credit, CloseDay: 10})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := store.CreateCategory(ctx, core.Category{HouseholdID: hh, Name: "Eletrônicos", Type: core.Despesa})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	draft := core.TransactionDraft{
		HouseholdID:  hh,
		UserID:       "user-1",
		AccountID:    acc.ID,
		CategoryID:   cat.ID,
		Description:  "Notebook",
		Amount:       core.Money{Cents: 30000},
		Type:         core.Despesa,
		Installments: 3,
	}
	group, err := store.CreateInstallmentGroup(ctx, core.PlanInstallments(draft, core.NewDate(2024, 3, 5)))
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return hh, group
}

func TestHandleTransactionEventExportsWholeGroup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh, group := seedGroup(t, store)

	ledger := newFakeLedger()
	w := NewLedgerWorker(store, ledger, 10)

	event := amqp.NewTransactionCreatedEvent(hh, group[0].ID, 3)
	if err := w.HandleTransactionEvent(ctx, event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(ledger.appended[hh]) != 3 {
		t.Fatalf("expected 3 exported rows, got %d", len(ledger.appended[hh]))
	}

	pending, err := store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending rows after export, got %d", len(pending))
	}
}

func TestHandleTransactionEventRedelivery(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh, group := seedGroup(t, store)

	ledger := newFakeLedger()
	w := NewLedgerWorker(store, ledger, 10)

	event := amqp.NewTransactionCreatedEvent(hh, group[0].ID, 3)
	for i := 0; i < 2; i++ {
		if err := w.HandleTransactionEvent(ctx, event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	// The second delivery finds nothing pending and must not append again.
	if len(ledger.appended[hh]) != 3 {
		t.Errorf("expected 3 exported rows after redelivery, got %d", len(ledger.appended[hh]))
	}
}

func TestHandleTransactionEventAfterSweepIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh, group := seedGroup(t, store)

	ledger := newFakeLedger()
	w := NewLedgerWorker(store, ledger, 10)

	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(ledger.appended[hh]) != 3 {
		t.Fatalf("sweep exported %d rows, want 3", len(ledger.appended[hh]))
	}

	// The backlog event for rows the sweep already exported arrives late.
	event := amqp.NewTransactionCreatedEvent(hh, group[0].ID, 3)
	if err := w.HandleTransactionEvent(ctx, event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(ledger.appended[hh]) != 3 {
		t.Errorf("expected 3 exported rows after late event, got %d", len(ledger.appended[hh]))
	}
}

func TestHandleTransactionEventUnknownIDDropped(t *testing.T) {
	w := NewLedgerWorker(storage.NewMemoryStore(), newFakeLedger(), 10)
	event := amqp.NewTransactionCreatedEvent("hh", "missing", 0)
	if err := w.HandleTransactionEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown ids must be dropped, not requeued: %v", err)
	}
}

func TestHandleTransactionEventLedgerFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh, group := seedGroup(t, store)

	ledger := newFakeLedger()
	ledger.err = errors.New("sheets unavailable")
	w := NewLedgerWorker(store, ledger, 10)

	event := amqp.NewTransactionCreatedEvent(hh, group[0].ID, 3)
	if err := w.HandleTransactionEvent(ctx, event); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}

	// Rows are flagged, not silently left pending.
	pending, err := store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed rows must leave the pending queue, got %d", len(pending))
	}
}

func TestProcessPendingExports(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh, _ := seedGroup(t, store)

	ledger := newFakeLedger()
	w := NewLedgerWorker(store, ledger, 2)

	// Batch size 2 over 3 pending rows: two sweeps drain the queue.
	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}

	if len(ledger.appended[hh]) != 3 {
		t.Errorf("expected 3 exported rows, got %d", len(ledger.appended[hh]))
	}
	pending, err := store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected drained queue, got %d", len(pending))
	}
}

func TestProcessPendingExportsContinuesAcrossHouseholds(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hh1, _ := seedGroup(t, store)
	hh2, _ := seedGroup(t, store)

	ledger := newFakeLedger()
	ledger.failFor = map[string]error{hh1: errors.New("sheets unavailable")}
	w := NewLedgerWorker(store, ledger, 10)

	if err := w.ProcessPendingExports(ctx); err != nil {
		t.Fatalf("sweep must not fail on one household: %v", err)
	}

	if len(ledger.appended[hh2]) != 3 {
		t.Errorf("healthy household got %d exported rows, want 3", len(ledger.appended[hh2]))
	}
	if len(ledger.appended[hh1]) != 0 {
		t.Errorf("failing household got %d exported rows, want 0", len(ledger.appended[hh1]))
	}

	// The failed rows are flagged, not left pending for a tight retry loop.
	pending, err := store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected drained queue, got %d pending", len(pending))
	}
}

func TestProcessPendingExportsEmptyQueue(t *testing.T) {
	w := NewLedgerWorker(storage.NewMemoryStore(), newFakeLedger(), 10)
	if err := w.ProcessPendingExports(context.Background()); err != nil {
		t.Fatalf("empty queue must be a no-op: %v", err)
	}
}
