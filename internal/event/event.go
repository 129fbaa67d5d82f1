package event

import (
	"math/big"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Type identifies an inbox event.
type Type int

const (
	TypeStartOrder Type = iota + 1
	TypeReset
	TypeSubmitted
	TypeSubmitFailed
	TypeLogs
	TypeReceipt
	TypeDecryptStatus
	TypeTimer
	TypeBackfill
	TypeResync
)

func (t Type) String() string {
	switch t {
	case TypeStartOrder:
		return "start_order"
	case TypeReset:
		return "reset"
	case TypeSubmitted:
		return "submitted"
	case TypeSubmitFailed:
		return "submit_failed"
	case TypeLogs:
		return "logs"
	case TypeReceipt:
		return "receipt"
	case TypeDecryptStatus:
		return "decrypt_status"
	case TypeTimer:
		return "timer"
	case TypeBackfill:
		return "backfill"
	case TypeResync:
		return "resync"
	default:
		return "unknown"
	}
}

// Event is anything the coordinator loop consumes.
type Event interface {
	GetType() Type
	GetTs() time.Time
}

// BaseEvent carries the fields shared by all events.
// Gen is the order generation the event belongs to; zero means not order scoped.
type BaseEvent struct {
	Ts  time.Time
	Gen uint64
}

func (e BaseEvent) GetTs() time.Time { return e.Ts }

// StartOrderEvent is the request half of PlaceOrder.
type StartOrderEvent struct {
	BaseEvent
	Order domain.Order
	Input domain.EncryptedInput
	Reply chan error
}

func (e *StartOrderEvent) GetType() Type { return TypeStartOrder }

// ResetEvent is the request half of Reset.
type ResetEvent struct {
	BaseEvent
	Reply chan struct{}
}

func (e *ResetEvent) GetType() Type { return TypeReset }

// SubmittedEvent reports a broadcast order transaction.
type SubmittedEvent struct {
	BaseEvent
	TxHash common.Hash
}

func (e *SubmittedEvent) GetType() Type { return TypeSubmitted }

// SubmitFailedEvent reports that PlaceMarketOrder failed.
type SubmitFailedEvent struct {
	BaseEvent
	Err error
}

func (e *SubmitFailedEvent) GetType() Type { return TypeSubmitFailed }

// LogsEvent carries raw market hook logs from the live subscription.
type LogsEvent struct {
	BaseEvent
	Logs []types.Log
}

func (e *LogsEvent) GetType() Type { return TypeLogs }

// ReceiptEvent carries the mined receipt of the tracked transaction.
type ReceiptEvent struct {
	BaseEvent
	TxHash  common.Hash
	Receipt *types.Receipt
	Err     error
}

func (e *ReceiptEvent) GetType() Type { return TypeReceipt }

// DecryptStatusEvent is one successful getOrderDecryptStatus result.
type DecryptStatusEvent struct {
	BaseEvent
	Handle    *big.Int
	Decrypted bool
}

func (e *DecryptStatusEvent) GetType() Type { return TypeDecryptStatus }

// TimerKind names the coordinator's timers.
type TimerKind int

const (
	TimerGrace TimerKind = iota + 1
	TimerAutoReset
	TimerSettleDeadline
)

// TimerEvent fires when a scheduled delay elapses.
type TimerEvent struct {
	BaseEvent
	Kind TimerKind
}

func (e *TimerEvent) GetType() Type { return TypeTimer }

// BackfillEvent carries OrderSettled logs read from chain history.
// Deadline is set when the scan was triggered by the settle deadline of
// the order generation Gen.
type BackfillEvent struct {
	BaseEvent
	Logs     []types.Log
	Err      error
	Deadline bool
}

func (e *BackfillEvent) GetType() Type { return TypeBackfill }

// ResyncEvent is posted by the log subscriber after a reconnect; logs
// emitted while it was down are only recoverable from history.
type ResyncEvent struct {
	BaseEvent
}

func (e *ResyncEvent) GetType() Type { return TypeResync }
