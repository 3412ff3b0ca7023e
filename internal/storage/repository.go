package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"contas/internal/core"
)

// SQLiteRepository implements Store on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateHousehold(ctx context.Context, nome string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO households (id, nome) VALUES (?, ?)`, id, nome)
	if err != nil {
		return "", fmt.Errorf("create household: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()

	var closeDay any
	if a.CloseDay != 0 {
		closeDay = a.CloseDay
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, household_id, nome_conta, tipo, close_day) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.HouseholdID, a.Name, string(a.Type), closeDay)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, household_id, nome, tipo) VALUES (?, ?, ?, ?)`,
		c.ID, c.HouseholdID, c.Name, string(c.Type))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, household_id, nome_conta, tipo, close_day FROM accounts WHERE id = ?`, id)

	var a core.Account
	var tipo string
	var closeDay sql.NullInt64
	if err := row.Scan(&a.ID, &a.HouseholdID, &a.Name, &tipo, &closeDay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.Type = core.AccountType(tipo)
	a.CloseDay = int(closeDay.Int64)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, householdID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, nome_conta, tipo, close_day FROM accounts
		 WHERE household_id = ? ORDER BY nome_conta`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var tipo string
		var closeDay sql.NullInt64
		if err := rows.Scan(&a.ID, &a.HouseholdID, &a.Name, &tipo, &closeDay); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(tipo)
		a.CloseDay = int(closeDay.Int64)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, householdID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, nome, tipo FROM categories
		 WHERE household_id = ? ORDER BY nome`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var tipo string
		if err := rows.Scan(&c.ID, &c.HouseholdID, &c.Name, &tipo); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(tipo)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const insertTransactionSQL = `
INSERT INTO transactions (
	id, household_id, user_id, account_id, category_id, descricao, valor_cents,
	data, tipo, total_parcelas, parcela_atual, id_transacao_pai, observacoes, is_recorrente
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func transactionArgs(t core.Transaction) []any {
	var totalParcelas, parcelaAtual, parentID any
	if t.TotalParcelas != 0 {
		totalParcelas = t.TotalParcelas
	}
	if t.ParcelaAtual != 0 {
		parcelaAtual = t.ParcelaAtual
	}
	if t.ParentID != "" {
		parentID = t.ParentID
	}
	return []any{
		t.ID, t.HouseholdID, t.UserID, t.AccountID, t.CategoryID, t.Description,
		t.Amount.Cents, t.Date.String(), string(t.Type),
		totalParcelas, parcelaAtual, parentID, t.Notes, t.Recurring,
	}
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx, insertTransactionSQL, transactionArgs(t)...); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"household_id", t.HouseholdID,
		"descricao", t.Description,
		"valor_cents", t.Amount.Cents,
		"data", t.Date.String())

	return t, nil
}

// CreateInstallmentGroup writes the whole chain inside one SQL transaction.
// The parent gets its id first so children can reference it; any failure
// rolls everything back and the caller sees a single error.
func (r *SQLiteRepository) CreateInstallmentGroup(ctx context.Context, records []core.Transaction) ([]core.Transaction, error) {
	if len(records) == 0 {
		return nil, errors.New("empty installment group")
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin installment group: %w", err)
	}
	defer dbTx.Rollback()

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
		if _, err := dbTx.ExecContext(ctx, insertTransactionSQL, transactionArgs(rec)...); err != nil {
			return nil, fmt.Errorf("insert parcela %d/%d: %w", rec.ParcelaAtual, rec.TotalParcelas, err)
		}
		stored = append(stored, rec)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit installment group: %w", err)
	}

	slog.InfoContext(ctx, "Installment group saved",
		"parent_id", parentID,
		"household_id", records[0].HouseholdID,
		"total_parcelas", records[0].TotalParcelas,
		"valor_cents", records[0].Amount.Cents)

	return stored, nil
}

const selectTransactionSQL = `
SELECT id, household_id, user_id, account_id, category_id, descricao, valor_cents,
       data, tipo, total_parcelas, parcela_atual, id_transacao_pai, observacoes, is_recorrente
FROM transactions`

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var t core.Transaction
	var data, tipo string
	var totalParcelas, parcelaAtual sql.NullInt64
	var parentID sql.NullString
	err := scan(&t.ID, &t.HouseholdID, &t.UserID, &t.AccountID, &t.CategoryID,
		&t.Description, &t.Amount.Cents, &data, &tipo,
		&totalParcelas, &parcelaAtual, &parentID, &t.Notes, &t.Recurring)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseLocalDate(data)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", data, err)
	}
	t.Date = date
	t.Type = core.TransactionType(tipo)
	t.TotalParcelas = int(totalParcelas.Int64)
	t.ParcelaAtual = int(parcelaAtual.Int64)
	t.ParentID = parentID.String
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransactionSQL+` WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetInstallmentGroup(ctx context.Context, id string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE id = ? OR id_transacao_pai = ?
		 ORDER BY COALESCE(parcela_atual, 1)`, id, id)
	if err != nil {
		return nil, fmt.Errorf("get installment group: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, householdID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE household_id = ? ORDER BY data DESC, created_at DESC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, householdID string, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE household_id = ? AND substr(data, 1, 7) = ?
		 ORDER BY data DESC, created_at DESC`, householdID, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE export_status = ? ORDER BY created_at LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListPendingInGroup(ctx context.Context, id string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE (id = ? OR id_transacao_pai = ?) AND export_status = ?
		 ORDER BY COALESCE(parcela_atual, 1)`, id, id, ExportPending)
	if err != nil {
		return nil, fmt.Errorf("list pending in group: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if err := r.setExportStatus(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if err := r.setExportStatus(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
