package domain

import (
	"time"
)

// OrderRecord is the persisted history row of a ledger entry (write-only audit trail)
type OrderRecord struct {
	TxHash     string    `gorm:"primaryKey" json:"tx_hash"`
	Handle     string    `json:"handle"` // hex ciphertext handle
	FromSymbol string    `json:"from_symbol"`
	ToSymbol   string    `json:"to_symbol"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status" gorm:"index"`
	PlacedAt   time.Time `json:"placed_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewOrderRecord converts a ledger entry into its history row.
func NewOrderRecord(o Order) *OrderRecord {
	rec := &OrderRecord{
		TxHash:     o.TxHash.Hex(),
		FromSymbol: o.FromToken.Symbol,
		ToSymbol:   o.ToToken.Symbol,
		Amount:     o.Amount,
		Status:     string(o.Status),
		PlacedAt:   o.Timestamp,
	}
	if o.Handle != nil {
		rec.Handle = "0x" + o.Handle.Text(16)
	}
	return rec
}
