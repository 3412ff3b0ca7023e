package core

// BillingDate maps a purchase date to the statement it belongs to.
//
// Non-credit accounts keep the purchase date unchanged, and so do credit
// accounts without a configured closing day. On a credit account, a purchase
// made after the closing day rolls to the next statement month with the day
// of month preserved; a purchase on or before the closing day stays in the
// current month. Month arithmetic normalizes per Date.AddMonths.
func BillingDate(purchase Date, accountType AccountType, closeDay int) Date {
	if accountType != Credit || closeDay == 0 {
		return purchase
	}
	if purchase.Day() > closeDay {
		return purchase.AddMonths(1)
	}
	return purchase
}
