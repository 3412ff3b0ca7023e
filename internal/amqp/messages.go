package amqp

import (
	"encoding/json"
	"time"
)

// Transaction event operations.
const (
	OpCreated = "created"
)

// TransactionEvent tells consumers that a household's ledger changed. It is
// intentionally thin: the worker re-reads the records from storage, so a
// stale event can never overwrite newer data.
type TransactionEvent struct {
	Op            string    `json:"op"`
	HouseholdID   string    `json:"household_id"`
	TransactionID string    `json:"transaction_id"`
	TotalParcelas int       `json:"total_parcelas,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreatedEvent(householdID, transactionID string, totalParcelas int) *TransactionEvent {
	return &TransactionEvent{
		Op:            OpCreated,
		HouseholdID:   householdID,
		TransactionID: transactionID,
		TotalParcelas: totalParcelas,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
