package storage

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

func setupTestDB(t *testing.T) *History {
	h, err := NewHistory(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func testOrder(hash string, status domain.OrderStatus, placed time.Time) domain.Order {
	return domain.Order{
		TxHash:    common.HexToHash(hash),
		Handle:    big.NewInt(0xABC),
		FromToken: domain.Token{Symbol: "CPH"},
		ToToken:   domain.Token{Symbol: "MSK"},
		Amount:    "100",
		Timestamp: placed,
		Status:    status,
	}
}

func TestSaveAndGetOrder(t *testing.T) {
	h := setupTestDB(t)
	o := testOrder("0x123", domain.OrderStatusExecuting, time.Now())

	if err := h.SaveOrder(o); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	rec, err := h.GetOrder(o.TxHash.Hex())
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if rec == nil {
		t.Fatal("fetched record is nil")
	}
	if rec.Handle != "0xabc" || rec.FromSymbol != "CPH" || rec.Amount != "100" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Status != string(domain.OrderStatusExecuting) {
		t.Errorf("expected EXECUTING, got %s", rec.Status)
	}
}

func TestSaveOrder_UpdatesStatus(t *testing.T) {
	h := setupTestDB(t)
	o := testOrder("0x123", domain.OrderStatusExecuting, time.Now())

	if err := h.SaveOrder(o); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}
	first, _ := h.GetOrder(o.TxHash.Hex())

	o.Status = domain.OrderStatusCompleted
	if err := h.SaveOrder(o); err != nil {
		t.Fatalf("SaveOrder update failed: %v", err)
	}

	recs, err := h.ListOrders()
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected a single row, got %d", len(recs))
	}
	if recs[0].Status != string(domain.OrderStatusCompleted) {
		t.Errorf("expected COMPLETED, got %s", recs[0].Status)
	}
	if !recs[0].CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at must survive an update")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	h := setupTestDB(t)

	rec, err := h.GetOrder("0xdead")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Error("expected nil record")
	}
}

func TestListOrders_Ordering(t *testing.T) {
	h := setupTestDB(t)
	base := time.Now()

	h.SaveOrder(testOrder("0x2", domain.OrderStatusCompleted, base.Add(time.Minute)))
	h.SaveOrder(testOrder("0x1", domain.OrderStatusExecuting, base))
	h.SaveOrder(testOrder("0x3", domain.OrderStatusCompleted, base.Add(2*time.Minute)))

	recs, err := h.ListOrders()
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(recs))
	}
	if recs[0].TxHash != common.HexToHash("0x1").Hex() {
		t.Errorf("expected oldest first, got %s", recs[0].TxHash)
	}

	n, err := h.CountByStatus(domain.OrderStatusCompleted)
	if err != nil || n != 2 {
		t.Errorf("expected 2 completed, got %d (%v)", n, err)
	}
}
