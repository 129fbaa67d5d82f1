package engine

import (
	"math/big"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// State is the single active-order slot. It is owned by the coordinator
// goroutine and only changed through Machine.
type State struct {
	Progress      domain.Progress
	Order         domain.Order
	Processing    bool
	DecryptStatus *bool // last observed poll result, nil before the first
	Err           error // submission failure shown until reset
	Gen           uint64
}

// EffectKind names a side effect requested by a transition.
type EffectKind int

const (
	EffectSubmitOrder EffectKind = iota + 1
	EffectWatchReceipt
	EffectStartDecryptPoll
	EffectStopDecryptPoll
	EffectScheduleGrace
	EffectScheduleAutoReset
	EffectHandoffToLedger
	EffectCancelTimers
	EffectScheduleSettleDeadline
)

func (k EffectKind) String() string {
	switch k {
	case EffectSubmitOrder:
		return "submit_order"
	case EffectWatchReceipt:
		return "watch_receipt"
	case EffectStartDecryptPoll:
		return "start_decrypt_poll"
	case EffectStopDecryptPoll:
		return "stop_decrypt_poll"
	case EffectScheduleGrace:
		return "schedule_grace"
	case EffectScheduleAutoReset:
		return "schedule_auto_reset"
	case EffectHandoffToLedger:
		return "handoff_to_ledger"
	case EffectCancelTimers:
		return "cancel_timers"
	case EffectScheduleSettleDeadline:
		return "schedule_settle_deadline"
	default:
		return "unknown"
	}
}

// Effect is executed by the coordinator after the state has been replaced.
type Effect struct {
	Kind    EffectKind
	Order   domain.Order
	Input   domain.EncryptedInput // SubmitOrder only
	Settled bool                  // HandoffToLedger: settlement was observed
}

// StartInput is a freshly encrypted order ready for submission.
type StartInput struct {
	Order domain.Order
	Input domain.EncryptedInput
}

// Machine holds the pure transition functions of the order lifecycle.
// No method performs I/O; every change of the outside world is an Effect.
type Machine struct {
	AutoResetOnError bool
}

// Start accepts a new order. Encryption has already happened, so Encrypt is
// Success and Confirm is Loading before the submission is awaited.
func (m Machine) Start(s State, in StartInput) (State, []Effect, error) {
	if s.Processing {
		return s, nil, domain.ErrOrderInFlight
	}
	if in.Input.CtHash == nil {
		return s, nil, domain.ErrNoEncryptedHandle
	}

	order := in.Order.Clone()
	order.TxHash = common.Hash{}
	order.Handle = new(big.Int).Set(in.Input.CtHash) // provisional until OrderPlaced
	order.Status = ""

	next := State{
		Order:      order,
		Processing: true,
		Gen:        s.Gen + 1,
	}
	next.Progress.Advance(domain.StageEncrypt, domain.StateSuccess)
	next.Progress.Advance(domain.StageConfirm, domain.StateLoading)

	return next, []Effect{
		{Kind: EffectCancelTimers},
		{Kind: EffectSubmitOrder, Order: order.Clone(), Input: in.Input},
	}, nil
}

// Submitted records the broadcast transaction hash.
func (m Machine) Submitted(s State, txHash common.Hash) (State, []Effect) {
	if !s.Processing || s.Order.IsSubmitted() || s.Progress.Get(domain.StageConfirm) != domain.StateLoading {
		return s, nil
	}
	s.Order.TxHash = txHash
	return s, []Effect{{Kind: EffectWatchReceipt, Order: s.Order.Clone()}}
}

// SubmitFailed marks Confirm as Error. The error remains visible until reset
// unless auto reset is configured.
func (m Machine) SubmitFailed(s State, err error) (State, []Effect) {
	if !s.Processing || !s.Progress.Advance(domain.StageConfirm, domain.StateError) {
		return s, nil
	}
	s.Processing = false
	s.Err = err
	if m.AutoResetOnError {
		return s, []Effect{{Kind: EffectScheduleAutoReset, Order: s.Order.Clone()}}
	}
	return s, nil
}

// Receipt inspects the mined receipt of the tracked transaction. Event
// extraction is the correlator's job; only a revert is handled here.
func (m Machine) Receipt(s State, r *types.Receipt) (State, []Effect) {
	if r == nil || r.TxHash != s.Order.TxHash || r.Status != types.ReceiptStatusFailed {
		return s, nil
	}
	return m.SubmitFailed(s, &domain.SubmissionError{Kind: domain.SubmissionReverted, Err: domain.ErrReceiptReverted})
}

// OrderPlaced confirms the order on-chain. The event handle is authoritative.
func (m Machine) OrderPlaced(s State, ev domain.OrderPlaced) (State, []Effect) {
	if !s.Processing || s.Progress.Get(domain.StageConfirm) != domain.StateLoading || ev.Handle == nil {
		return s, nil
	}
	s.Progress.Advance(domain.StageConfirm, domain.StateSuccess)
	s.Progress.Advance(domain.StageDecrypt, domain.StateLoading)
	s.Order.Handle = new(big.Int).Set(ev.Handle)
	s.Order.Block = ev.BlockNumber
	return s, []Effect{{Kind: EffectStartDecryptPoll, Order: s.Order.Clone()}}
}

// DecryptObserved applies one poll result. false keeps Decrypt at Loading
// with no effects; true moves the pipeline to Execute/Settle.
func (m Machine) DecryptObserved(s State, handle *big.Int, decrypted bool) (State, []Effect) {
	if !s.Processing || !domain.SameHandle(handle, s.Order.Handle) {
		return s, nil
	}
	if s.Progress.Get(domain.StageConfirm) != domain.StateSuccess ||
		s.Progress.Get(domain.StageDecrypt) != domain.StateLoading {
		return s, nil
	}

	v := decrypted
	s.DecryptStatus = &v
	if !decrypted {
		return s, nil
	}

	s.Progress.Advance(domain.StageDecrypt, domain.StateSuccess)
	s.Progress.Advance(domain.StageExecute, domain.StateLoading)
	s.Progress.Advance(domain.StageSettle, domain.StateLoading)
	return s, []Effect{{Kind: EffectStopDecryptPoll}, {Kind: EffectScheduleSettleDeadline, Order: s.Order.Clone()}}
}

// Settled completes the order when the event matches the active (user, handle).
// The caller has already checked the user.
func (m Machine) Settled(s State, ev domain.OrderSettled) (State, []Effect) {
	if !s.Processing || !domain.SameHandle(ev.Handle, s.Order.Handle) {
		return s, nil
	}
	if s.Progress.Get(domain.StageConfirm) != domain.StateSuccess || s.Progress.Get(domain.StageSettle).IsFinal() {
		return s, nil
	}

	var effects []Effect
	if s.Progress.Get(domain.StageDecrypt) == domain.StateLoading {
		// settlement implies decryption; keep the pipeline ordered
		s.Progress.Advance(domain.StageDecrypt, domain.StateSuccess)
		v := true
		s.DecryptStatus = &v
		effects = append(effects, Effect{Kind: EffectStopDecryptPoll})
	}
	s.Progress.Advance(domain.StageExecute, domain.StateSuccess)
	s.Progress.Advance(domain.StageSettle, domain.StateSuccess)

	return s, append(effects, Effect{Kind: EffectScheduleGrace, Order: s.Order.Clone()})
}

// GraceElapsed hands the settled order to the ledger and then resets.
func (m Machine) GraceElapsed(s State) (State, []Effect) {
	if !s.Processing || s.Progress.Get(domain.StageSettle) != domain.StateSuccess {
		return s, nil
	}
	handoff := Effect{Kind: EffectHandoffToLedger, Order: s.Order.Clone(), Settled: true}
	next, effects := m.Reset(s)
	return next, append([]Effect{handoff}, effects...)
}

// SettleTimedOut releases the slot when OrderSettled did not show up in
// time after decryption. The order moves to the ledger as Executing; a later
// settlement completes it there and expiry fails it.
func (m Machine) SettleTimedOut(s State) (State, []Effect) {
	if !s.Processing || s.Progress.Get(domain.StageDecrypt) != domain.StateSuccess ||
		s.Progress.Get(domain.StageSettle) != domain.StateLoading {
		return s, nil
	}
	handoff := Effect{Kind: EffectHandoffToLedger, Order: s.Order.Clone()}
	next, effects := m.Reset(s)
	return next, append([]Effect{handoff}, effects...)
}

// Reset clears the active-order slot. It is idempotent; the generation is
// bumped so late results of the old order are discarded.
func (m Machine) Reset(s State) (State, []Effect) {
	return State{Gen: s.Gen + 1}, []Effect{
		{Kind: EffectStopDecryptPoll},
		{Kind: EffectCancelTimers},
	}
}
