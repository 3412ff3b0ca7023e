package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"contas/internal/core"
)

// MemoryStore is an in-memory Store used by the memory backend and by tests.
// Semantics mirror the SQLite repository, including all-or-nothing
// installment groups.
type MemoryStore struct {
	mu           sync.RWMutex
	households   map[string]string
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions []core.Transaction
	exportStatus map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		households:   make(map[string]string),
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		exportStatus: make(map[string]string),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateHousehold(_ context.Context, nome string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.households[id] = nome
	return id, nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, householdID string) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.HouseholdID == householdID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListCategories(_ context.Context, householdID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.HouseholdID == householdID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.transactions = append(s.transactions, t)
	s.exportStatus[t.ID] = ExportPending
	return t, nil
}

func (s *MemoryStore) CreateInstallmentGroup(_ context.Context, records []core.Transaction) ([]core.Transaction, error) {
	if len(records) == 0 {
		return nil, errors.New("empty installment group")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	parentID := uuid.NewString()
	stored := make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		if i == 0 {
			rec.ID = parentID
			rec.ParentID = ""
		} else {
			rec.ID = uuid.NewString()
			rec.ParentID = parentID
		}
		stored = append(stored, rec)
	}
	s.transactions = append(s.transactions, stored...)
	for _, rec := range stored {
		s.exportStatus[rec.ID] = ExportPending
	}
	return stored, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) GetInstallmentGroup(_ context.Context, id string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.ID == id || t.ParentID == id {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParcelaAtual < out[j].ParcelaAtual })
	return out, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, householdID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.HouseholdID == householdID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *MemoryStore) ListTransactionsByMonth(_ context.Context, householdID string, year, month int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.HouseholdID == householdID && t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *MemoryStore) ListPendingExport(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if s.exportStatus[t.ID] == ExportPending {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPendingInGroup(_ context.Context, id string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if (t.ID == id || t.ParentID == id) && s.exportStatus[t.ID] == ExportPending {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParcelaAtual < out[j].ParcelaAtual })
	return out, nil
}

func (s *MemoryStore) MarkExported(_ context.Context, id string) error {
	return s.setExportStatus(id, ExportDone)
}

func (s *MemoryStore) MarkExportError(_ context.Context, id string) error {
	return s.setExportStatus(id, ExportError)
}

func (s *MemoryStore) setExportStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exportStatus[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	s.exportStatus[id] = status
	return nil
}
