package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus is the tri-state status of an order once it lives in the ledger.
// It is empty while the order is owned by the state machine.
type OrderStatus string

const (
	OrderStatusExecuting OrderStatus = "EXECUTING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// Token is a symbolic token identifier bound to its contract address.
type Token struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals int32          `json:"decimals"`
}

// PoolKey identifies the AMM pool the market order hook is attached to.
// Field names follow the on-chain tuple so the ABI packer can map them.
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

// ZeroForOne reports the swap direction when selling the given token.
func (k PoolKey) ZeroForOne(from common.Address) bool {
	return from == k.Currency0
}

// Order represents one confidential trade in flight or in the ledger.
// TxHash is the zero hash until the order has been submitted.
type Order struct {
	TxHash    common.Hash `json:"tx_hash"`
	Handle    *big.Int    `json:"handle"` // ciphertext handle, never a plaintext
	FromToken Token       `json:"from_token"`
	ToToken   Token       `json:"to_token"`
	Amount    string      `json:"amount"`          // as entered, display only
	Block     uint64      `json:"block,omitempty"` // block of OrderPlaced, zero before
	Timestamp time.Time   `json:"timestamp"`
	Status    OrderStatus `json:"status,omitempty"`
}

// ID returns the ledger key of the order.
func (o *Order) ID() string {
	return o.TxHash.Hex()
}

// IsSubmitted reports whether a transaction hash has been assigned.
func (o *Order) IsSubmitted() bool {
	return o.TxHash != (common.Hash{})
}

// Clone returns a deep copy safe to hand across component boundaries.
func (o Order) Clone() Order {
	if o.Handle != nil {
		o.Handle = new(big.Int).Set(o.Handle)
	}
	return o
}

// SameHandle compares two ciphertext handles, treating nil as absent.
func SameHandle(a, b *big.Int) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Cmp(b) == 0
}
