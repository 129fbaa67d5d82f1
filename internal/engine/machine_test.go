package engine

import (
	"errors"
	"math/big"
	"testing"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func hasEffect(effects []Effect, kind EffectKind) bool {
	for _, e := range effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func startedState(t *testing.T, m Machine) State {
	t.Helper()
	s, effects, err := m.Start(State{}, StartInput{
		Order: domain.Order{Amount: "100"},
		Input: domain.EncryptedInput{CtHash: big.NewInt(0xABC)},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !hasEffect(effects, EffectSubmitOrder) {
		t.Fatal("Start must request submission")
	}
	return s
}

func TestMachine_Start(t *testing.T) {
	m := Machine{}
	s := startedState(t, m)

	if s.Progress.Get(domain.StageEncrypt) != domain.StateSuccess {
		t.Error("Encrypt should be Success")
	}
	if s.Progress.Get(domain.StageConfirm) != domain.StateLoading {
		t.Error("Confirm should be Loading before submission resolves")
	}
	if s.Order.Handle == nil || s.Order.Handle.Int64() != 0xABC {
		t.Error("provisional handle should come from the encryption result")
	}

	if _, _, err := m.Start(s, StartInput{Input: domain.EncryptedInput{CtHash: big.NewInt(1)}}); !errors.Is(err, domain.ErrOrderInFlight) {
		t.Errorf("expected ErrOrderInFlight, got %v", err)
	}
	if _, _, err := m.Start(State{}, StartInput{}); !errors.Is(err, domain.ErrNoEncryptedHandle) {
		t.Errorf("expected ErrNoEncryptedHandle, got %v", err)
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m := Machine{}
	tx := common.HexToHash("0x123")
	handle := big.NewInt(0xABC)

	s := startedState(t, m)
	s, effects := m.Submitted(s, tx)
	if !hasEffect(effects, EffectWatchReceipt) || s.Order.TxHash != tx {
		t.Fatal("Submitted should record the hash and watch the receipt")
	}

	s, effects = m.OrderPlaced(s, domain.OrderPlaced{Handle: handle, TxHash: tx})
	if s.Progress.Get(domain.StageConfirm) != domain.StateSuccess || s.Progress.Get(domain.StageDecrypt) != domain.StateLoading {
		t.Fatalf("unexpected progress after OrderPlaced: %+v", s.Progress)
	}
	if !hasEffect(effects, EffectStartDecryptPoll) {
		t.Fatal("OrderPlaced should start polling")
	}

	s, effects = m.DecryptObserved(s, handle, false)
	if len(effects) != 0 || s.Progress.Get(domain.StageDecrypt) != domain.StateLoading {
		t.Fatal("false must keep Decrypt Loading without side effects")
	}

	s, effects = m.DecryptObserved(s, handle, true)
	if !hasEffect(effects, EffectStopDecryptPoll) {
		t.Fatal("true must stop polling")
	}
	if !hasEffect(effects, EffectScheduleSettleDeadline) {
		t.Fatal("true must arm the settle deadline")
	}
	if s.Progress.Get(domain.StageDecrypt) != domain.StateSuccess || s.Progress.Get(domain.StageSettle) != domain.StateLoading {
		t.Fatalf("unexpected progress after decrypt: %+v", s.Progress)
	}

	s, effects = m.Settled(s, domain.OrderSettled{Handle: handle})
	if !hasEffect(effects, EffectScheduleGrace) {
		t.Fatal("Settled should schedule the grace delay")
	}
	if s.Progress.Get(domain.StageExecute) != domain.StateSuccess || s.Progress.Get(domain.StageSettle) != domain.StateSuccess {
		t.Fatalf("unexpected progress after settle: %+v", s.Progress)
	}

	next, effects := m.GraceElapsed(s)
	if len(effects) == 0 || effects[0].Kind != EffectHandoffToLedger {
		t.Fatal("handoff must come before reset")
	}
	if effects[0].Order.TxHash != tx || !effects[0].Settled {
		t.Error("handoff should carry the settled order")
	}
	if next.Processing || next.Order.IsSubmitted() || next.Progress.Get(domain.StageEncrypt) != domain.StateReady {
		t.Errorf("machine should be reset, got %+v", next)
	}
}

func TestMachine_Monotonic(t *testing.T) {
	m := Machine{}
	tx := common.HexToHash("0x123")
	handle := big.NewInt(0xABC)

	s := startedState(t, m)
	s, _ = m.Submitted(s, tx)
	s, _ = m.OrderPlaced(s, domain.OrderPlaced{Handle: handle})
	s, _ = m.DecryptObserved(s, handle, true)

	// duplicate OrderPlaced and decrypt regression are ignored
	again, effects := m.OrderPlaced(s, domain.OrderPlaced{Handle: handle})
	if len(effects) != 0 || again.Progress != s.Progress {
		t.Error("duplicate OrderPlaced must be suppressed")
	}
	again, effects = m.DecryptObserved(s, handle, false)
	if len(effects) != 0 || again.Progress.Get(domain.StageDecrypt) != domain.StateSuccess {
		t.Error("Decrypt must not regress after Success")
	}
}

func TestMachine_IgnoresForeignHandles(t *testing.T) {
	m := Machine{}
	handle := big.NewInt(0xABC)

	s := startedState(t, m)
	s, _ = m.Submitted(s, common.HexToHash("0x123"))

	// poll result before Confirm=Success
	if _, effects := m.DecryptObserved(s, handle, true); len(effects) != 0 {
		t.Error("decrypt results before confirmation must be ignored")
	}

	s, _ = m.OrderPlaced(s, domain.OrderPlaced{Handle: handle})
	if next, _ := m.DecryptObserved(s, big.NewInt(0xDEF), true); next.Progress.Get(domain.StageDecrypt) != domain.StateLoading {
		t.Error("stale handle must be ignored")
	}
	if next, effects := m.Settled(s, domain.OrderSettled{Handle: big.NewInt(0xDEF)}); len(effects) != 0 || next.Progress.Get(domain.StageSettle) != domain.StateReady {
		t.Error("settlement of another order must not complete this one")
	}
}

func TestMachine_SettledBeforeDecrypt(t *testing.T) {
	m := Machine{}
	handle := big.NewInt(0xABC)

	s := startedState(t, m)
	s, _ = m.Submitted(s, common.HexToHash("0x123"))
	s, _ = m.OrderPlaced(s, domain.OrderPlaced{Handle: handle})

	s, effects := m.Settled(s, domain.OrderSettled{Handle: handle})
	if !hasEffect(effects, EffectStopDecryptPoll) {
		t.Error("settling while decrypting must stop the poller")
	}
	for _, st := range []domain.Stage{domain.StageDecrypt, domain.StageExecute, domain.StageSettle} {
		if s.Progress.Get(st) != domain.StateSuccess {
			t.Errorf("%s should be Success", st)
		}
	}
}

func TestMachine_SubmitFailed(t *testing.T) {
	failure := &domain.SubmissionError{Kind: domain.SubmissionRejected, Err: errors.New("user rejected")}

	t.Run("persists by default", func(t *testing.T) {
		m := Machine{}
		s, effects := m.SubmitFailed(startedState(t, m), failure)
		if len(effects) != 0 {
			t.Error("no auto reset by default")
		}
		if s.Progress.Get(domain.StageConfirm) != domain.StateError || s.Err == nil || s.Processing {
			t.Errorf("unexpected state: %+v", s)
		}
	})

	t.Run("auto reset", func(t *testing.T) {
		m := Machine{AutoResetOnError: true}
		_, effects := m.SubmitFailed(startedState(t, m), failure)
		if !hasEffect(effects, EffectScheduleAutoReset) {
			t.Error("expected auto reset to be scheduled")
		}
	})

	t.Run("reverted receipt", func(t *testing.T) {
		m := Machine{}
		tx := common.HexToHash("0x123")
		s, _ := m.Submitted(startedState(t, m), tx)
		s, _ = m.Receipt(s, &types.Receipt{TxHash: tx, Status: types.ReceiptStatusFailed})

		var se *domain.SubmissionError
		if !errors.As(s.Err, &se) || se.Kind != domain.SubmissionReverted {
			t.Errorf("expected reverted submission error, got %v", s.Err)
		}
	})
}

func TestMachine_ResetIdempotent(t *testing.T) {
	m := Machine{}
	s := startedState(t, m)

	once, _ := m.Reset(s)
	twice, effects := m.Reset(once)

	if twice.Processing || twice.Progress != (domain.Progress{}) {
		t.Error("second reset should leave a clean slot")
	}
	if !hasEffect(effects, EffectStopDecryptPoll) || !hasEffect(effects, EffectCancelTimers) {
		t.Error("reset should always cancel background work")
	}
	if twice.Gen <= s.Gen {
		t.Error("reset must bump the generation")
	}
}

func TestMachine_SettleTimedOut(t *testing.T) {
	m := Machine{}
	tx := common.HexToHash("0x123")
	handle := big.NewInt(0xABC)

	s := startedState(t, m)
	s, _ = m.Submitted(s, tx)

	if _, effects := m.SettleTimedOut(s); len(effects) != 0 {
		t.Fatal("timeout before decryption must be ignored")
	}

	s, _ = m.OrderPlaced(s, domain.OrderPlaced{Handle: handle, TxHash: tx, BlockNumber: 42})
	if s.Order.Block != 42 {
		t.Errorf("placement block should be recorded, got %d", s.Order.Block)
	}
	s, _ = m.DecryptObserved(s, handle, true)

	next, effects := m.SettleTimedOut(s)
	if len(effects) == 0 || effects[0].Kind != EffectHandoffToLedger {
		t.Fatal("timeout must hand the order to the ledger")
	}
	if effects[0].Settled {
		t.Error("a timed out order is handed off unsettled")
	}
	if effects[0].Order.TxHash != tx || effects[0].Order.Block != 42 {
		t.Errorf("handoff should carry the order, got %+v", effects[0].Order)
	}
	if next.Processing || next.Gen == s.Gen {
		t.Errorf("slot should be released with a new generation, got %+v", next)
	}

	settled, _ := m.Settled(s, domain.OrderSettled{Handle: handle})
	if _, effects := m.SettleTimedOut(settled); len(effects) != 0 {
		t.Error("timeout after settlement must be ignored")
	}
}
