// Package finance is the read model: immutable per-household snapshots of
// accounts, categories and transactions, refreshed wholesale from storage.
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/storage"
)

// Snapshot is one household's data at a point in time. It is a value; the
// service never mutates a snapshot after handing it out.
type Snapshot struct {
	HouseholdID  string
	Accounts     []core.Account
	Categories   []core.Category
	Transactions []core.Transaction
	LoadedAt     time.Time
}

// Service loads snapshots on demand and caches them per household. A refresh
// always re-fetches everything; the read model is never patched in place.
type Service struct {
	store storage.Store
	cache *cache.LRU[Snapshot]
}

func NewService(store storage.Store) *Service {
	return &Service{
		store: store,
		cache: cache.NewLRU[Snapshot](100, 5*time.Minute),
	}
}

// Snapshot returns the cached snapshot for the household, loading it from
// storage on a miss.
func (s *Service) Snapshot(ctx context.Context, householdID string) (Snapshot, error) {
	if snap, ok := s.cache.Get(householdID); ok {
		return snap, nil
	}
	return s.Refresh(ctx, householdID)
}

// Refresh discards whatever is cached and re-fetches the full household
// state from storage.
func (s *Service) Refresh(ctx context.Context, householdID string) (Snapshot, error) {
	accounts, err := s.store.ListAccounts(ctx, householdID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh accounts: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, householdID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh categories: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, householdID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh transactions: %w", err)
	}

	snap := Snapshot{
		HouseholdID:  householdID,
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		LoadedAt:     time.Now(),
	}
	s.cache.Set(householdID, snap)

	slog.InfoContext(ctx, "Read model refreshed",
		"household_id", householdID,
		"accounts", len(accounts),
		"categories", len(categories),
		"transactions", len(transactions))

	return snap, nil
}

// Invalidate drops the cached snapshot without reloading.
func (s *Service) Invalidate(householdID string) {
	s.cache.Delete(householdID)
}

// MonthOverview aggregates one billing month of the household's ledger.
func (s *Service) MonthOverview(ctx context.Context, householdID string, year, month int) (core.MonthOverview, error) {
	transactions, err := s.store.ListTransactionsByMonth(ctx, householdID, year, month)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("month overview: %w", err)
	}

	overview := core.MonthOverview{Year: year, Month: month}
	byCategory := make(map[string]int64)
	for _, t := range transactions {
		switch t.Type {
		case core.Receita:
			overview.Income.Cents += t.Amount.Cents
		default:
			overview.Expense.Cents += t.Amount.Cents
			byCategory[t.CategoryID] += t.Amount.Cents
		}
	}

	names := make(map[string]string)
	if len(byCategory) > 0 {
		categories, err := s.store.ListCategories(ctx, householdID)
		if err != nil {
			return core.MonthOverview{}, fmt.Errorf("month overview categories: %w", err)
		}
		for _, c := range categories {
			names[c.ID] = c.Name
		}
	}
	for id, cents := range byCategory {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			CategoryID: id,
			Name:       names[id],
			Amount:     core.Money{Cents: cents},
		})
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		return overview.ByCategory[i].Amount.Cents > overview.ByCategory[j].Amount.Cents
	})

	return overview, nil
}
