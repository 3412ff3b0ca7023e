// Package export defines the outbound port for mirroring committed
// transactions to an external ledger.
package export

import (
	"context"

	"contas/internal/core"
)

// LedgerWriter appends committed transactions to the household's ledger.
// Implementations must tolerate being called twice for the same record
// (delivery is at-least-once).
type LedgerWriter interface {
	AppendTransactions(ctx context.Context, householdID string, records []core.Transaction) error
}
