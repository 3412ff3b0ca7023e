package worker

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/export"
	"contas/internal/storage"
)

// LedgerWorker mirrors committed transactions to the external ledger. It is
// driven by AMQP events and by a periodic sweep of rows the events missed.
type LedgerWorker struct {
	store     storage.Store
	ledger    export.LedgerWriter
	batchSize int
}

func NewLedgerWorker(store storage.Store, ledger export.LedgerWriter, batchSize int) *LedgerWorker {
	return &LedgerWorker{
		store:     store,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleTransactionEvent exports the group rows the event's transaction
// anchors that are still pending. The event body is just a pointer; the rows
// and their export state are re-read from storage, so a replayed or
// already-swept delivery finds nothing pending and is acked without writing.
func (w *LedgerWorker) HandleTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"op", event.Op,
		"transaction_id", event.TransactionID,
		"household_id", event.HouseholdID)

	records, err := w.store.ListPendingInGroup(ctx, event.TransactionID)
	if err != nil {
		return fmt.Errorf("load pending group rows: %w", err)
	}
	if len(records) == 0 {
		slog.InfoContext(ctx, "No pending rows for event, dropping",
			"transaction_id", event.TransactionID)
		return nil
	}

	return w.exportRecords(ctx, event.HouseholdID, records)
}

// ProcessPendingExports sweeps rows still marked pending, in batches. It
// catches anything that was committed while the broker was unreachable.
func (w *LedgerWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	byHousehold := make(map[string][]core.Transaction)
	for _, t := range pending {
		byHousehold[t.HouseholdID] = append(byHousehold[t.HouseholdID], t)
	}
	// One household's broken spreadsheet must not starve the others; the
	// failed rows are flagged and the failure is only logged.
	for householdID, records := range byHousehold {
		if err := w.exportRecords(ctx, householdID, records); err != nil {
			slog.ErrorContext(ctx, "Household export failed, continuing with others",
				"household_id", householdID, "rows", len(records), "error", err)
		}
	}
	return nil
}

func (w *LedgerWorker) exportRecords(ctx context.Context, householdID string, records []core.Transaction) error {
	if err := w.ledger.AppendTransactions(ctx, householdID, records); err != nil {
		for _, t := range records {
			if markErr := w.store.MarkExportError(ctx, t.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error",
					"id", t.ID, "error", markErr)
			}
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	for _, t := range records {
		if err := w.store.MarkExported(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark exported", "id", t.ID, "error", err)
		}
	}
	return nil
}
