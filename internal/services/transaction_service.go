package services

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/finance"
	"contas/internal/storage"
)

// EventPublisher is the outbound port for change events. *amqp.Client
// satisfies it; a nil publisher disables events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// TransactionService turns a user-entered draft into committed ledger rows:
// validate, pin the calendar date, resolve the billing cycle, plan the
// installment chain when requested, persist, then resynchronize the read
// model in full.
type TransactionService struct {
	store   storage.Store
	events  EventPublisher
	finance *finance.Service
}

func NewTransactionService(store storage.Store, events EventPublisher, fin *finance.Service) *TransactionService {
	return &TransactionService{
		store:   store,
		events:  events,
		finance: fin,
	}
}

// Submit runs the whole submission flow and returns the stored parent
// record. Validation and date errors surface before anything is written;
// persistence errors abort with nothing committed (installment groups are
// written atomically by the store).
func (s *TransactionService) Submit(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	purchaseDate, err := core.ParseLocalDate(draft.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	account, err := s.store.GetAccount(ctx, draft.AccountID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve account: %w", err)
	}
	if account.HouseholdID != draft.HouseholdID {
		return core.Transaction{}, fmt.Errorf("account %s: %w", draft.AccountID, storage.ErrNotFound)
	}

	billing := core.BillingDate(purchaseDate, account.Type, account.CloseDay)

	var parent core.Transaction
	if draft.Installments > 1 {
		planned := core.PlanInstallments(draft, billing)
		stored, err := s.store.CreateInstallmentGroup(ctx, planned)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("save installment group: %w", err)
		}
		parent = stored[0]
	} else {
		parent, err = s.store.InsertTransaction(ctx, core.BuildTransaction(draft, billing))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
		}
	}

	// Events and the read-model refresh are best-effort: the rows are
	// committed, so a failure here must not fail the submission.
	s.publishCreated(ctx, parent)
	if _, err := s.finance.Refresh(ctx, draft.HouseholdID); err != nil {
		slog.ErrorContext(ctx, "Read model refresh failed after submit",
			"household_id", draft.HouseholdID, "error", err)
	}

	return parent, nil
}

func (s *TransactionService) publishCreated(ctx context.Context, parent core.Transaction) {
	if s.events == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event")
		return
	}
	event := amqp.NewTransactionCreatedEvent(parent.HouseholdID, parent.ID, parent.TotalParcelas)
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", parent.ID, "error", err)
	}
}
