package finance

import (
	"context"
	"testing"

	"contas/internal/core"
	"contas/internal/storage"
)

func seedStore(t *testing.T) (*storage.MemoryStore, string, core.Account, core.Category, core.Category) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	hh, err := store.CreateHousehold(ctx, "Casa")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	acc, err := store.CreateAccount(ctx, core.Account{HouseholdID: hh, Name: "Nubank", Type: core.Credit, CloseDay: 10})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	mercado, err := store.CreateCategory(ctx, core.Category{HouseholdID: hh, Name: "Mercado", Type: core.Despesa})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	salario, err := store.CreateCategory(ctx, core.Category{HouseholdID: hh, Name: "Salário", Type: core.Receita})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return store, hh, acc, mercado, salario
}

func insert(t *testing.T, store *storage.MemoryStore, hh string, acc core.Account, cat core.Category, tipo core.TransactionType, cents int64, date core.Date) {
	t.Helper()
	_, err := store.InsertTransaction(context.Background(), core.Transaction{
		HouseholdID: hh,
		UserID:      "user-1",
		AccountID:   acc.ID,
		CategoryID:  cat.ID,
		Description: "x",
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Type:        tipo,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestSnapshotCachesUntilRefresh(t *testing.T) {
	ctx := context.Background()
	store, hh, acc, mercado, _ := seedStore(t)
	svc := NewService(store)

	first, err := svc.Snapshot(ctx, hh)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(first.Transactions) != 0 {
		t.Fatalf("expected empty ledger, got %d", len(first.Transactions))
	}

	insert(t, store, hh, acc, mercado, core.Despesa, 1000, core.NewDate(2024, 3, 5))

	// Cached snapshot still serves the old view.
	cached, err := svc.Snapshot(ctx, hh)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(cached.Transactions) != 0 {
		t.Error("snapshot mutated without an explicit refresh")
	}

	refreshed, err := svc.Refresh(ctx, hh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(refreshed.Transactions) != 1 {
		t.Errorf("refresh missed the new transaction, got %d", len(refreshed.Transactions))
	}
	if len(refreshed.Accounts) != 1 || len(refreshed.Categories) != 2 {
		t.Errorf("refresh must reload everything: %d accounts, %d categories",
			len(refreshed.Accounts), len(refreshed.Categories))
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	ctx := context.Background()
	store, hh, acc, mercado, _ := seedStore(t)
	svc := NewService(store)

	if _, err := svc.Snapshot(ctx, hh); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	insert(t, store, hh, acc, mercado, core.Despesa, 1000, core.NewDate(2024, 3, 5))
	svc.Invalidate(hh)

	snap, err := svc.Snapshot(ctx, hh)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("expected reload after invalidate, got %d transactions", len(snap.Transactions))
	}
}

func TestMonthOverview(t *testing.T) {
	ctx := context.Background()
	store, hh, acc, mercado, salario := seedStore(t)
	svc := NewService(store)

	insert(t, store, hh, acc, mercado, core.Despesa, 5000, core.NewDate(2024, 3, 5))
	insert(t, store, hh, acc, mercado, core.Despesa, 2500, core.NewDate(2024, 3, 20))
	insert(t, store, hh, acc, salario, core.Receita, 300000, core.NewDate(2024, 3, 1))
	insert(t, store, hh, acc, mercado, core.Despesa, 9999, core.NewDate(2024, 4, 5))

	overview, err := svc.MonthOverview(ctx, hh, 2024, 3)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Expense.Cents != 7500 {
		t.Errorf("expense = %d, want 7500", overview.Expense.Cents)
	}
	if overview.Income.Cents != 300000 {
		t.Errorf("income = %d, want 300000", overview.Income.Cents)
	}
	if overview.Balance() != 292500 {
		t.Errorf("balance = %d, want 292500", overview.Balance())
	}
	if len(overview.ByCategory) != 1 {
		t.Fatalf("expected 1 expense category, got %d", len(overview.ByCategory))
	}
	if overview.ByCategory[0].Name != "Mercado" || overview.ByCategory[0].Amount.Cents != 7500 {
		t.Errorf("category breakdown: %+v", overview.ByCategory[0])
	}
}
