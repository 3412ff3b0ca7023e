package core

import (
	"errors"
	"strings"
)

const (
	Credit     AccountType = "credit"
	Checking   AccountType = "checking"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"
)

const (
	Despesa TransactionType = "despesa"
	Receita TransactionType = "receita"
)

type (
	AccountType string

	TransactionType string

	// Account is a payment instrument owned by a household. Accounts are
	// created and edited elsewhere; the transaction flow only reads them.
	Account struct {
		ID          string
		HouseholdID string
		Name        string
		Type        AccountType
		CloseDay    int // statement closing day 1-31, meaningful only for credit accounts
	}

	Category struct {
		ID          string
		HouseholdID string
		Name        string
		Type        TransactionType
	}

	// Transaction is one row of the household ledger. Installment fields are
	// zero-valued on ordinary transactions: TotalParcelas and ParcelaAtual are
	// set on every record of an installment group, ParentID only on children.
	Transaction struct {
		ID            string
		HouseholdID   string
		UserID        string
		AccountID     string
		CategoryID    string
		Description   string
		Amount        Money
		Date          Date // billing date, calendar day only
		Type          TransactionType
		TotalParcelas int
		ParcelaAtual  int
		ParentID      string
		Notes         string
		Recurring     bool
	}

	// TransactionDraft is the user-entered form before any temporal
	// resolution. Date is the raw calendar date as typed (YYYY-MM-DD).
	TransactionDraft struct {
		HouseholdID  string
		UserID       string
		AccountID    string
		CategoryID   string
		Description  string
		Amount       Money
		Date         string
		Type         TransactionType
		Installments int // total parcelas requested; 0 or 1 means a plain transaction
		Notes        string
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrMissingAccount     = errors.New("missing account")
	ErrMissingCategory    = errors.New("missing category")
	ErrMissingHousehold   = errors.New("missing household")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCloseDay    = errors.New("invalid close day")
	ErrInvalidParcelas    = errors.New("invalid installment count")
	ErrInvalidDateFormat  = errors.New("invalid date format")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Valid() bool {
	return t == Despesa || t == Receita
}

func (a AccountType) Valid() bool {
	switch a {
	case Credit, Checking, Cash, Investment:
		return true
	default:
		return false
	}
}

func (a Account) Validate() error {
	if !a.Type.Valid() {
		return errors.New("invalid account type: " + string(a.Type))
	}
	if a.CloseDay != 0 && (a.CloseDay < 1 || a.CloseDay > 31) {
		return ErrInvalidCloseDay
	}
	return nil
}

// Validate checks the draft before any write is attempted. Date format is
// checked separately by ParseLocalDate.
func (d TransactionDraft) Validate() error {
	if strings.TrimSpace(d.HouseholdID) == "" {
		return ErrMissingHousehold
	}
	if strings.TrimSpace(d.AccountID) == "" {
		return ErrMissingAccount
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if len(d.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if d.Installments < 0 || d.Installments > 24 {
		return ErrInvalidParcelas
	}
	return nil
}
