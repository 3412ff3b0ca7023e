package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/finance"
	"contas/internal/storage"
)

type capturedEvents struct {
	events []*amqp.TransactionEvent
	err    error
}

func (c *capturedEvents) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

type env struct {
	store    *storage.MemoryStore
	events   *capturedEvents
	finance  *finance.Service
	service  *TransactionService
	hh       string
	credit   core.Account
	checking core.Account
	category core.Category
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	hh, err := store.CreateHousehold(ctx, "Casa")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	credit, err := store.CreateAccount(ctx, core.Account{HouseholdID: hh, Name: "Nubank", Type: core.Credit, CloseDay: 10})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}
	checking, err := store.CreateAccount(ctx, core.Account{HouseholdID: hh, Name: "Itaú", Type: core.Checking})
	if err != nil {
		t.Fatalf("create checking: %v", err)
	}
	cat, err := store.CreateCategory(ctx, core.Category{HouseholdID: hh, Name: "Eletrônicos", Type: core.Despesa})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	events := &capturedEvents{}
	fin := finance.NewService(store)
	return &env{
		store:    store,
		events:   events,
		finance:  fin,
		service:  NewTransactionService(store, events, fin),
		hh:       hh,
		credit:   credit,
		checking: checking,
		category: cat,
	}
}

func (e *env) draft(accountID string) core.TransactionDraft {
	return core.TransactionDraft{
		HouseholdID: e.hh,
		UserID:      "user-1",
		AccountID:   accountID,
		CategoryID:  e.category.ID,
		Description: "Notebook",
		Amount:      core.Money{Cents: 30000},
		Date:        "2024-03-05",
		Type:        core.Despesa,
	}
}

func TestSubmitOrdinaryBeforeCloseDay(t *testing.T) {
	e := newEnv(t)
	tx, err := e.service.Submit(context.Background(), e.draft(e.credit.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.Date.String() != "2024-03-05" {
		t.Errorf("billing date = %s, want purchase date kept", tx.Date)
	}
	if tx.Amount.Cents != 30000 {
		t.Errorf("amount = %d, want full amount", tx.Amount.Cents)
	}
	if tx.TotalParcelas != 0 || tx.ParcelaAtual != 0 {
		t.Errorf("ordinary transaction carries group fields: %+v", tx)
	}
}

func TestSubmitAfterCloseDayRollsBillingMonth(t *testing.T) {
	e := newEnv(t)
	d := e.draft(e.credit.ID)
	d.Date = "2024-03-15"
	tx, err := e.service.Submit(context.Background(), d)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.Date.String() != "2024-04-15" {
		t.Errorf("billing date = %s, want 2024-04-15", tx.Date)
	}
}

func TestSubmitNonCreditKeepsDate(t *testing.T) {
	e := newEnv(t)
	d := e.draft(e.checking.ID)
	d.Date = "2024-06-20"
	tx, err := e.service.Submit(context.Background(), d)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.Date.String() != "2024-06-20" {
		t.Errorf("billing date = %s, want unchanged", tx.Date)
	}
}

func TestSubmitInstallments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.draft(e.credit.ID)
	d.Installments = 3

	parent, err := e.service.Submit(ctx, d)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	group, err := e.store.GetInstallmentGroup(ctx, parent.ID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if len(group) != 3 {
		t.Fatalf("expected 3 records, got %d", len(group))
	}
	wantDates := []string{"2024-03-05", "2024-04-05", "2024-05-05"}
	for i, rec := range group {
		if rec.Amount.Cents != 10000 {
			t.Errorf("parcela %d: amount = %d, want 10000", i+1, rec.Amount.Cents)
		}
		if rec.Date.String() != wantDates[i] {
			t.Errorf("parcela %d: date = %s, want %s", i+1, rec.Date, wantDates[i])
		}
	}
	for _, rec := range group[1:] {
		if rec.ParentID != parent.ID {
			t.Errorf("child references %q, want parent %q", rec.ParentID, parent.ID)
		}
	}

	if len(e.events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(e.events.events))
	}
	if ev := e.events.events[0]; ev.TransactionID != parent.ID || ev.TotalParcelas != 3 {
		t.Errorf("event = %+v", ev)
	}

	// The read model was fully resynchronized as part of the submission.
	snap, err := e.finance.Snapshot(ctx, e.hh)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 3 {
		t.Errorf("read model has %d transactions, want 3", len(snap.Transactions))
	}
}

func TestSubmitInstallmentsAfterCloseDayInDecember(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.draft(e.credit.ID)
	d.Date = "2024-12-15"
	d.Installments = 2

	parent, err := e.service.Submit(ctx, d)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	group, err := e.store.GetInstallmentGroup(ctx, parent.ID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	// Year rollover applies before installment spacing.
	if group[0].Date.String() != "2025-01-15" {
		t.Errorf("parcela 1 date = %s, want 2025-01-15", group[0].Date)
	}
	if group[1].Date.String() != "2025-02-15" {
		t.Errorf("parcela 2 date = %s, want 2025-02-15", group[1].Date)
	}
}

func TestSubmitValidationFailureWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d := e.draft(e.credit.ID)
	d.Description = ""
	if _, err := e.service.Submit(ctx, d); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("err = %v, want ErrEmptyDescription", err)
	}

	d = e.draft(e.credit.ID)
	d.Date = "15/03/2024"
	if _, err := e.service.Submit(ctx, d); !errors.Is(err, core.ErrInvalidDateFormat) {
		t.Fatalf("err = %v, want ErrInvalidDateFormat", err)
	}

	all, err := e.store.ListTransactions(ctx, e.hh)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("failed submissions must not write, got %d rows", len(all))
	}
	if len(e.events.events) != 0 {
		t.Errorf("failed submissions must not publish, got %d events", len(e.events.events))
	}
}

func TestSubmitUnknownAccount(t *testing.T) {
	e := newEnv(t)
	d := e.draft("missing-account")
	if _, err := e.service.Submit(context.Background(), d); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitPublishFailureStillSucceeds(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("broker down")

	tx, err := e.service.Submit(context.Background(), e.draft(e.credit.ID))
	if err != nil {
		t.Fatalf("submit must succeed when publishing fails: %v", err)
	}
	if tx.ID == "" {
		t.Error("expected stored transaction")
	}
}

func TestSubmitWithoutPublisher(t *testing.T) {
	e := newEnv(t)
	svc := NewTransactionService(e.store, nil, e.finance)
	if _, err := svc.Submit(context.Background(), e.draft(e.credit.ID)); err != nil {
		t.Fatalf("submit without publisher: %v", err)
	}
}
