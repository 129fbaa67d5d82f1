package domain

//go:generate mockgen -source=interfaces.go -destination=mock/interfaces.go -package=mock

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StreamWorker defines the interface for long-lived websocket connectors
type StreamWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// EncryptionOracle encrypts plaintexts for the connected account.
type EncryptionOracle interface {
	Encrypt(ctx context.Context, items []Encryptable) ([]EncryptedInput, error)
}

// OracleSession binds the oracle to an account and chain. It must succeed
// before Encrypt is usable.
type OracleSession interface {
	Initialize(ctx context.Context, account common.Address, chainID *big.Int) error
}

// MarketContract is the market order hook.
type MarketContract interface {
	PlaceMarketOrder(ctx context.Context, key PoolKey, zeroForOne bool, amount EncryptedInput) (common.Hash, error)
	OrderDecryptStatus(ctx context.Context, handle *big.Int) (bool, error)
}

// ReceiptWaiter blocks until a transaction is mined.
type ReceiptWaiter interface {
	WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TokenContract is the ERC-20 surface the allowance guard needs.
type TokenContract interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// SettlementScanner reads past OrderSettled logs of user from fromBlock on.
// It backfills settlements the live subscription missed.
type SettlementScanner interface {
	FilterSettledLogs(ctx context.Context, user common.Address, fromBlock uint64) ([]types.Log, error)
}

// Quoter simulates an exact-input swap. Implementations should return once
// ctx is done; a result arriving after that is dropped.
type Quoter interface {
	QuoteExactInputSingle(ctx context.Context, key PoolKey, zeroForOne bool, exactAmount *big.Int) (*big.Int, error)
}
