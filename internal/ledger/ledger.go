package ledger

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Sink receives a copy of every stored entry and status change.
// It is write-only; nothing is read back into the ledger.
type Sink interface {
	SaveOrder(order domain.Order) error
}

// Ledger is the session-scoped list of orders that left the active-order slot.
// Entries are keyed by transaction hash and kept in insertion order.
type Ledger struct {
	mu     sync.RWMutex
	orders []*domain.Order
	index  map[common.Hash]int

	sink   Sink
	logger *slog.Logger
}

// New creates an empty ledger. sink may be nil.
func New(sink Sink, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		index:  make(map[common.Hash]int),
		sink:   sink,
		logger: logger.With(slog.String("module", "ledger")),
	}
}

// AddOrder stores the order as Executing. It is a logged no-op when an entry
// with the same hash exists, and reports whether the order was added.
func (l *Ledger) AddOrder(order domain.Order) bool {
	if !order.IsSubmitted() {
		l.logger.Warn("Refusing ledger entry without transaction hash")
		return false
	}

	l.mu.Lock()
	if _, ok := l.index[order.TxHash]; ok {
		l.mu.Unlock()
		l.logger.Info("Order already in ledger, skipping", slog.String("tx", order.TxHash.Hex()))
		return false
	}

	entry := order.Clone()
	entry.Status = domain.OrderStatusExecuting
	l.index[entry.TxHash] = len(l.orders)
	l.orders = append(l.orders, &entry)
	saved := entry.Clone()
	l.mu.Unlock()

	l.logger.Info("Order added to ledger", slog.String("tx", saved.TxHash.Hex()))
	l.persist(saved)
	return true
}

// HasOrder reports whether the hash is in the ledger.
func (l *Ledger) HasOrder(txHash common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.index[txHash]
	return ok
}

// UpdateStatus moves an Executing entry to Completed or Failed. Repeating the
// current status is a no-op.
func (l *Ledger) UpdateStatus(txHash common.Hash, status domain.OrderStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("invalid target status %q", status)
	}

	l.mu.Lock()
	i, ok := l.index[txHash]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnknownOrder, txHash.Hex())
	}
	entry := l.orders[i]
	if entry.Status == status {
		l.mu.Unlock()
		return nil
	}
	if entry.Status.IsTerminal() {
		current := entry.Status
		l.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrTerminalStatus, txHash.Hex(), current)
	}
	entry.Status = status
	saved := entry.Clone()
	l.mu.Unlock()

	l.logger.Info("Ledger status updated", slog.String("tx", txHash.Hex()), slog.String("status", string(status)))
	l.persist(saved)
	return nil
}

// Get returns a copy of one entry.
func (l *Ledger) Get(txHash common.Hash) (domain.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[txHash]
	if !ok {
		return domain.Order{}, false
	}
	return l.orders[i].Clone(), true
}

// FindByHandle returns the entry carrying the ciphertext handle.
func (l *Ledger) FindByHandle(handle *big.Int) (domain.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, o := range l.orders {
		if domain.SameHandle(o.Handle, handle) {
			return o.Clone(), true
		}
	}
	return domain.Order{}, false
}

// ListOrders returns copies of all entries in insertion order.
func (l *Ledger) ListOrders() []domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]domain.Order, len(l.orders))
	for i, o := range l.orders {
		result[i] = o.Clone()
	}
	return result
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// QueuedCount returns the number of Executing entries.
func (l *Ledger) QueuedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, o := range l.orders {
		if o.Status == domain.OrderStatusExecuting {
			n++
		}
	}
	return n
}

// OldestExecutingBlock returns the lowest placement block of Executing
// entries. Entries without a block are skipped.
func (l *Ledger) OldestExecutingBlock() (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var oldest uint64
	found := false
	for _, o := range l.orders {
		if o.Status != domain.OrderStatusExecuting || o.Block == 0 {
			continue
		}
		if !found || o.Block < oldest {
			oldest, found = o.Block, true
		}
	}
	return oldest, found
}

// Expire marks Executing entries older than maxAge as Failed and returns how
// many changed. A non-positive maxAge disables expiry.
func (l *Ledger) Expire(now time.Time, maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	var expired []common.Hash
	l.mu.RLock()
	for _, o := range l.orders {
		if o.Status == domain.OrderStatusExecuting && now.Sub(o.Timestamp) > maxAge {
			expired = append(expired, o.TxHash)
		}
	}
	l.mu.RUnlock()

	n := 0
	for _, h := range expired {
		if err := l.UpdateStatus(h, domain.OrderStatusFailed); err == nil {
			n++
		}
	}
	if n > 0 {
		l.logger.Warn("Expired executing orders", slog.Int("count", n))
	}
	return n
}

func (l *Ledger) persist(order domain.Order) {
	if l.sink == nil {
		return
	}
	if err := l.sink.SaveOrder(order); err != nil {
		l.logger.Warn("Failed to persist ledger entry", slog.String("tx", order.TxHash.Hex()), slog.Any("error", err))
	}
}

// Dedup drops repeated ids before display, keeping the first occurrence and
// warning for each duplicate.
func Dedup(orders []domain.Order, logger *slog.Logger) []domain.Order {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[common.Hash]struct{}, len(orders))
	result := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.TxHash]; ok {
			logger.Warn("Duplicate order detected in display list", slog.String("tx", o.TxHash.Hex()))
			continue
		}
		seen[o.TxHash] = struct{}{}
		result = append(result, o)
	}
	return result
}
