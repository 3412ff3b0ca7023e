package core

import "fmt"

// PlanInstallments materializes the full installment chain for a purchase.
//
// Every record carries the same per-installment amount, the split is never
// reconciled against the total (see Money.SplitEqual). Record i is dated
// i-1 whole months after the billing date and children are described with a
// "(i/N)" suffix. IDs and the parent back-reference are assigned at persist
// time; the planner only fixes ordering and content.
//
// A count below 2 degenerates to a single plain transaction with no group
// fields, the same record BuildTransaction produces.
func PlanInstallments(draft TransactionDraft, billing Date) []Transaction {
	n := draft.Installments
	if n < 2 {
		return []Transaction{BuildTransaction(draft, billing)}
	}

	per := draft.Amount.SplitEqual(n)
	records := make([]Transaction, 0, n)
	for i := 1; i <= n; i++ {
		description := draft.Description
		if i > 1 {
			description = fmt.Sprintf("%s (%d/%d)", draft.Description, i, n)
		}
		records = append(records, Transaction{
			HouseholdID:   draft.HouseholdID,
			UserID:        draft.UserID,
			AccountID:     draft.AccountID,
			CategoryID:    draft.CategoryID,
			Description:   description,
			Amount:        per,
			Date:          billing.AddMonths(i - 1),
			Type:          draft.Type,
			TotalParcelas: n,
			ParcelaAtual:  i,
			Notes:         draft.Notes,
		})
	}
	return records
}

// BuildTransaction turns a draft into a single ordinary transaction dated at
// the resolved billing date.
func BuildTransaction(draft TransactionDraft, billing Date) Transaction {
	return Transaction{
		HouseholdID: draft.HouseholdID,
		UserID:      draft.UserID,
		AccountID:   draft.AccountID,
		CategoryID:  draft.CategoryID,
		Description: draft.Description,
		Amount:      draft.Amount,
		Date:        billing,
		Type:        draft.Type,
		Notes:       draft.Notes,
	}
}
