package engine

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testUser  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	otherUser = common.HexToAddress("0x2222222222222222222222222222222222222222")

	placedTopic  = common.HexToHash("0x01")
	settledTopic = common.HexToHash("0x02")

	errNotThisEvent = errors.New("not this event")
)

// stubDecoder reads (user, handle) straight from topics 1 and 2.
type stubDecoder struct{}

func (stubDecoder) ParseOrderPlaced(l types.Log) (domain.OrderPlaced, error) {
	if len(l.Topics) != 3 || l.Topics[0] != placedTopic {
		return domain.OrderPlaced{}, errNotThisEvent
	}
	return domain.OrderPlaced{
		User:        common.BytesToAddress(l.Topics[1].Bytes()),
		Handle:      l.Topics[2].Big(),
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
	}, nil
}

func (stubDecoder) ParseOrderSettled(l types.Log) (domain.OrderSettled, error) {
	if len(l.Topics) != 3 || l.Topics[0] != settledTopic {
		return domain.OrderSettled{}, errNotThisEvent
	}
	return domain.OrderSettled{
		User:        common.BytesToAddress(l.Topics[1].Bytes()),
		Handle:      l.Topics[2].Big(),
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
	}, nil
}

func placedLog(user common.Address, handle int64, tx common.Hash) types.Log {
	return types.Log{
		Topics: []common.Hash{placedTopic, common.BytesToHash(user.Bytes()), common.BigToHash(big.NewInt(handle))},
		TxHash: tx,
	}
}

func placedLogAt(user common.Address, handle int64, tx common.Hash, block uint64) types.Log {
	l := placedLog(user, handle, tx)
	l.BlockNumber = block
	return l
}

func settledLog(user common.Address, handle int64, tx common.Hash) types.Log {
	return types.Log{
		Topics: []common.Hash{settledTopic, common.BytesToHash(user.Bytes()), common.BigToHash(big.NewInt(handle))},
		TxHash: tx,
	}
}

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

func (s *recordingSink) statuses() []domain.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderStatus, len(s.saved))
	for i, o := range s.saved {
		out[i] = o.Status
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timeout waiting for %s", what)
}
