package storage

import (
	"context"
	"errors"

	"contas/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ExportStatus tracks whether a committed transaction has reached the
// external ledger yet.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportError   = "error"
)

// Store is the storage port for the transaction flow. Implementations assign
// row IDs on insert and return the stored record.
type Store interface {
	CreateHousehold(ctx context.Context, nome string) (string, error)
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)

	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context, householdID string) ([]core.Account, error)
	ListCategories(ctx context.Context, householdID string) ([]core.Category, error)

	InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	// CreateInstallmentGroup writes a planned installment chain as a unit:
	// either every record lands or none does. The first record becomes the
	// parent, later records get its id as id_transacao_pai.
	CreateInstallmentGroup(ctx context.Context, records []core.Transaction) ([]core.Transaction, error)

	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	// GetInstallmentGroup returns the parent and all children of the group
	// the given transaction anchors, ordered by parcela_atual. For an
	// ordinary transaction it returns just that record.
	GetInstallmentGroup(ctx context.Context, id string) ([]core.Transaction, error)
	ListTransactions(ctx context.Context, householdID string) ([]core.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, householdID string, year, month int) ([]core.Transaction, error)

	ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error)
	// ListPendingInGroup returns the members of the given transaction's group
	// that are still marked pending, ordered by parcela_atual. Rows already
	// exported (or flagged with an export error) are excluded, which is what
	// makes replayed export events harmless.
	ListPendingInGroup(ctx context.Context, id string) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error

	Close() error
}
