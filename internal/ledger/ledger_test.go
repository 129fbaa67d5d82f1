package ledger

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

type recordingSink struct {
	mu    sync.Mutex
	saved []domain.Order
}

func (s *recordingSink) SaveOrder(o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, o)
	return nil
}

func testOrder(hash string, handle int64) domain.Order {
	return domain.Order{
		TxHash:    common.HexToHash(hash),
		Handle:    big.NewInt(handle),
		FromToken: domain.Token{Symbol: "CPH"},
		ToToken:   domain.Token{Symbol: "MSK"},
		Amount:    "100",
		Timestamp: time.Now(),
	}
}

func TestLedger_DuplicateGuard(t *testing.T) {
	l := New(nil, nil)
	hash := common.HexToHash("0x123")

	if l.HasOrder(hash) {
		t.Fatal("HasOrder should be false before AddOrder")
	}
	if !l.AddOrder(testOrder("0x123", 0xABC)) {
		t.Fatal("first AddOrder should succeed")
	}
	if !l.HasOrder(hash) {
		t.Fatal("HasOrder should be true after AddOrder")
	}

	if l.AddOrder(testOrder("0x123", 0xABC)) {
		t.Error("second AddOrder should be a no-op")
	}
	if l.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", l.Len())
	}
}

func TestLedger_StatusTransitions(t *testing.T) {
	l := New(nil, nil)
	hash := common.HexToHash("0x123")
	l.AddOrder(testOrder("0x123", 1))

	o, _ := l.Get(hash)
	if o.Status != domain.OrderStatusExecuting {
		t.Fatalf("new entries must be Executing, got %s", o.Status)
	}

	if err := l.UpdateStatus(hash, domain.OrderStatusCompleted); err != nil {
		t.Fatalf("Executing -> Completed failed: %v", err)
	}
	// idempotent
	if err := l.UpdateStatus(hash, domain.OrderStatusCompleted); err != nil {
		t.Errorf("repeating Completed should be a no-op, got %v", err)
	}
	if err := l.UpdateStatus(hash, domain.OrderStatusFailed); !errors.Is(err, domain.ErrTerminalStatus) {
		t.Errorf("expected ErrTerminalStatus, got %v", err)
	}
	if err := l.UpdateStatus(hash, domain.OrderStatusExecuting); err == nil {
		t.Error("moving back to Executing must fail")
	}
	if err := l.UpdateStatus(common.HexToHash("0x999"), domain.OrderStatusCompleted); !errors.Is(err, domain.ErrUnknownOrder) {
		t.Errorf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestLedger_IdempotentSettlement(t *testing.T) {
	l := New(nil, nil)
	l.AddOrder(testOrder("0x123", 0xABC))

	// the same (user, handle) settlement observed twice
	for i := 0; i < 2; i++ {
		o, ok := l.FindByHandle(big.NewInt(0xABC))
		if !ok {
			t.Fatal("FindByHandle should find the entry")
		}
		if err := l.UpdateStatus(o.TxHash, domain.OrderStatusCompleted); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
	}

	orders := l.ListOrders()
	if len(orders) != 1 || orders[0].Status != domain.OrderStatusCompleted {
		t.Errorf("expected one Completed entry, got %+v", orders)
	}
	if l.QueuedCount() != 0 {
		t.Errorf("expected 0 queued, got %d", l.QueuedCount())
	}
}

func TestLedger_InsertionOrder(t *testing.T) {
	l := New(nil, nil)
	l.AddOrder(testOrder("0x3", 3))
	l.AddOrder(testOrder("0x1", 1))
	l.AddOrder(testOrder("0x2", 2))

	orders := l.ListOrders()
	want := []string{"0x3", "0x1", "0x2"}
	for i, w := range want {
		if orders[i].TxHash != common.HexToHash(w) {
			t.Errorf("position %d: got %s, want %s", i, orders[i].TxHash.Hex(), w)
		}
	}
}

func TestLedger_Expire(t *testing.T) {
	l := New(nil, nil)
	old := testOrder("0x1", 1)
	old.Timestamp = time.Now().Add(-time.Hour)
	l.AddOrder(old)
	l.AddOrder(testOrder("0x2", 2))

	if n := l.Expire(time.Now(), 0); n != 0 {
		t.Errorf("expiry disabled should change nothing, got %d", n)
	}
	if n := l.Expire(time.Now(), 10*time.Minute); n != 1 {
		t.Errorf("expected 1 expired, got %d", n)
	}

	o, _ := l.Get(common.HexToHash("0x1"))
	if o.Status != domain.OrderStatusFailed {
		t.Errorf("expected Failed, got %s", o.Status)
	}
	if l.QueuedCount() != 1 {
		t.Errorf("expected 1 queued, got %d", l.QueuedCount())
	}
}

func TestLedger_Sink(t *testing.T) {
	sink := &recordingSink{}
	l := New(sink, nil)
	hash := common.HexToHash("0x123")

	l.AddOrder(testOrder("0x123", 1))
	l.AddOrder(testOrder("0x123", 1))
	l.UpdateStatus(hash, domain.OrderStatusCompleted)

	if len(sink.saved) != 2 {
		t.Fatalf("expected 2 sink writes, got %d", len(sink.saved))
	}
	if sink.saved[1].Status != domain.OrderStatusCompleted {
		t.Errorf("expected last write to be Completed, got %s", sink.saved[1].Status)
	}
}

func TestLedger_RejectsUnsubmitted(t *testing.T) {
	l := New(nil, nil)
	if l.AddOrder(domain.Order{Amount: "1"}) {
		t.Error("orders without a hash must be rejected")
	}
}

func TestDedup(t *testing.T) {
	orders := []domain.Order{
		testOrder("0x1", 1),
		testOrder("0x2", 2),
		testOrder("0x1", 1),
	}

	got := Dedup(orders, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].TxHash != common.HexToHash("0x1") || got[1].TxHash != common.HexToHash("0x2") {
		t.Error("Dedup must keep first occurrences in order")
	}
}

func TestLedger_OldestExecutingBlock(t *testing.T) {
	l := New(nil, nil)
	if _, ok := l.OldestExecutingBlock(); ok {
		t.Fatal("empty ledger has no executing block")
	}

	for _, o := range []struct {
		tx    string
		block uint64
	}{{"0x1", 120}, {"0x2", 0}, {"0x3", 90}, {"0x4", 150}} {
		order := testOrder(o.tx, 1)
		order.Block = o.block
		l.AddOrder(order)
	}
	l.UpdateStatus(common.HexToHash("0x3"), domain.OrderStatusCompleted)

	block, ok := l.OldestExecutingBlock()
	if !ok || block != 120 {
		t.Errorf("expected block 120, got %d (ok=%v)", block, ok)
	}
}
