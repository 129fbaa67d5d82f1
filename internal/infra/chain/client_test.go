package chain

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestABI_PacksTupleArguments(t *testing.T) {
	key := domain.PoolKey{
		Currency0:   common.HexToAddress("0x2f4eD4942BdF443aE5da11ac3cAB7bee8d6FaF45"),
		Currency1:   common.HexToAddress("0xbD313aDE73Cc114184CdBEf96788dd55118d4911"),
		Fee:         big.NewInt(3000),
		TickSpacing: big.NewInt(60),
		Hooks:       common.HexToAddress("0x31f5b2DbC1497fA726C0240417E6E2c6089EC080"),
	}
	in := domain.EncryptedInput{CtHash: big.NewInt(0xABC), UType: domain.FheUint128}

	if _, err := marketOrderABI.Pack("placeMarketOrder", toPoolKeyArg(key), true, toEncryptedArg(in)); err != nil {
		t.Errorf("placeMarketOrder pack failed: %v", err)
	}
	params := quoteParamsArg{PoolKey: toPoolKeyArg(key), ZeroForOne: true, ExactAmount: big.NewInt(100), HookData: []byte{}}
	if _, err := quoterABI.Pack("quoteExactInputSingle", params); err != nil {
		t.Errorf("quoteExactInputSingle pack failed: %v", err)
	}
	if _, err := erc20ABI.Pack("approve", key.Hooks, domain.MaxUint256); err != nil {
		t.Errorf("approve pack failed: %v", err)
	}
}

func TestClassifySubmitError(t *testing.T) {
	tests := []struct {
		msg  string
		kind domain.SubmissionKind
	}{
		{"User rejected the request.", domain.SubmissionRejected},
		{"insufficient funds for gas * price + value", domain.SubmissionGas},
		{"intrinsic gas too low", domain.SubmissionGas},
		{"execution reverted: pool not initialized", domain.SubmissionReverted},
		{"dial tcp: connection refused", domain.SubmissionRPC},
	}

	for _, test := range tests {
		t.Run(test.msg, func(t *testing.T) {
			var se *domain.SubmissionError
			if !errors.As(ClassifySubmitError(errors.New(test.msg)), &se) {
				t.Fatal("expected SubmissionError")
			}
			if se.Kind != test.kind {
				t.Errorf("expected %s, got %s", test.kind, se.Kind)
			}
		})
	}

	already := &domain.SubmissionError{Kind: domain.SubmissionGas, Err: errors.New("x")}
	if got := ClassifySubmitError(already); got != already {
		t.Error("classified errors must be passed through")
	}
}

type fakeReceipts struct {
	calls   atomic.Int32
	minedAt int32
	err     error
}

func (f *fakeReceipts) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	n := f.calls.Add(1)
	if n < f.minedAt {
		if f.err != nil {
			return nil, f.err
		}
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful}, nil
}

func TestWaitReceipt(t *testing.T) {
	tx := common.HexToHash("0x123")

	t.Run("polls until mined", func(t *testing.T) {
		src := &fakeReceipts{minedAt: 3}
		r, err := waitReceipt(context.Background(), src, tx, time.Millisecond, slog.Default())
		if err != nil {
			t.Fatalf("waitReceipt failed: %v", err)
		}
		if r.TxHash != tx || src.calls.Load() != 3 {
			t.Errorf("unexpected result after %d calls", src.calls.Load())
		}
	})

	t.Run("transient errors are retried", func(t *testing.T) {
		src := &fakeReceipts{minedAt: 2, err: errors.New("503 service unavailable")}
		if _, err := waitReceipt(context.Background(), src, tx, time.Millisecond, slog.Default()); err != nil {
			t.Fatalf("waitReceipt failed: %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		src := &fakeReceipts{minedAt: 1 << 30}
		if _, err := waitReceipt(ctx, src, tx, time.Millisecond, slog.Default()); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

type fakeLogs struct {
	query ethereum.FilterQuery
	logs  []types.Log
	err   error
}

func (f *fakeLogs) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.query = q
	return f.logs, f.err
}

func TestFilterSettled(t *testing.T) {
	hook := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	user := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	src := &fakeLogs{logs: []types.Log{{BlockNumber: 130}}}
	logs, err := filterSettled(context.Background(), src, hook, user, 120)
	if err != nil {
		t.Fatalf("filterSettled failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}

	q := src.query
	if q.FromBlock == nil || q.FromBlock.Uint64() != 120 || q.ToBlock != nil {
		t.Errorf("unexpected block range %v..%v", q.FromBlock, q.ToBlock)
	}
	if len(q.Addresses) != 1 || q.Addresses[0] != hook {
		t.Errorf("unexpected addresses %v", q.Addresses)
	}
	if len(q.Topics) != 2 || q.Topics[0][0] != marketOrderABI.Events["OrderSettled"].ID {
		t.Fatalf("unexpected topics %v", q.Topics)
	}
	if q.Topics[1][0] != common.BytesToHash(user.Bytes()) {
		t.Errorf("user topic not set: %v", q.Topics[1])
	}

	src = &fakeLogs{err: errors.New("429 too many requests")}
	_, err = filterSettled(context.Background(), src, hook, user, 0)
	var ne *domain.NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("expected a network error, got %v", err)
	}
}
