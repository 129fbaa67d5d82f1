package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const defaultReceiptPoll = time.Second

// Options configures Dial.
type Options struct {
	RPCURL      string
	ChainID     *big.Int
	PrivateKey  string // hex, with or without 0x
	Hook        common.Address
	Quoter      common.Address
	ReceiptPoll time.Duration
	Logger      *slog.Logger
}

// receiptSource is the part of ethclient used while waiting for a receipt.
type receiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// logSource is the part of ethclient used to backfill hook logs.
type logSource interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Client implements the market hook, ERC-20, quoter and receipt ports on
// top of a JSON-RPC endpoint. Transactions are signed with a local key.
type Client struct {
	eth         *ethclient.Client
	receipts    receiptSource
	logs        logSource
	hookAddr    common.Address
	chainID     *big.Int
	key         *ecdsa.PrivateKey
	account     common.Address
	hook        *bind.BoundContract
	quoter      *bind.BoundContract
	receiptPoll time.Duration
	logger      *slog.Logger
}

var _ domain.SettlementScanner = (*Client)(nil)

// Dial connects to the RPC endpoint and checks the chain id.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReceiptPoll <= 0 {
		opts.ReceiptPoll = defaultReceiptPoll
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(opts.PrivateKey), "0x"))
	if err != nil {
		return nil, &domain.ConfigError{Field: "CIPHER_PRIVATE_KEY", Err: errors.New("invalid private key")}
	}

	eth, err := ethclient.DialContext(ctx, opts.RPCURL)
	if err != nil {
		return nil, domain.NewNetworkError("dial", fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err))
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, domain.NewNetworkError("eth_chainId", err)
	}
	if opts.ChainID != nil && chainID.Cmp(opts.ChainID) != 0 {
		eth.Close()
		return nil, &domain.ConfigError{Field: "chain.chain_id", Err: fmt.Errorf("endpoint serves chain %s, expected %s", chainID, opts.ChainID)}
	}

	c := &Client{
		eth:         eth,
		receipts:    eth,
		logs:        eth,
		hookAddr:    opts.Hook,
		chainID:     chainID,
		key:         key,
		account:     crypto.PubkeyToAddress(key.PublicKey),
		hook:        bind.NewBoundContract(opts.Hook, marketOrderABI, eth, eth, eth),
		quoter:      bind.NewBoundContract(opts.Quoter, quoterABI, eth, eth, eth),
		receiptPoll: opts.ReceiptPoll,
		logger:      opts.Logger.With(slog.String("module", "chain")),
	}
	c.logger.Info("Chain client connected",
		slog.String("chain_id", chainID.String()),
		slog.String("account", c.account.Hex()),
	)
	return c, nil
}

// Account is the signing account.
func (c *Client) Account() common.Address { return c.account }

// ChainID is the chain served by the endpoint.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// PlaceMarketOrder submits the encrypted market order.
func (c *Client) PlaceMarketOrder(ctx context.Context, key domain.PoolKey, zeroForOne bool, amount domain.EncryptedInput) (common.Hash, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Hash{}, &domain.SubmissionError{Kind: domain.SubmissionRejected, Err: err}
	}
	opts.GasLimit = placeMarketOrderGas

	tx, err := c.hook.Transact(opts, "placeMarketOrder", toPoolKeyArg(key), zeroForOne, toEncryptedArg(amount))
	if err != nil {
		return common.Hash{}, ClassifySubmitError(err)
	}
	c.logger.Info("placeMarketOrder sent", slog.String("tx", tx.Hash().Hex()), slog.Bool("zero_for_one", zeroForOne))
	return tx.Hash(), nil
}

// OrderDecryptStatus reads getOrderDecryptStatus(handle).
func (c *Client) OrderDecryptStatus(ctx context.Context, handle *big.Int) (bool, error) {
	var out []interface{}
	if err := c.hook.Call(&bind.CallOpts{Context: ctx}, &out, "getOrderDecryptStatus", handle); err != nil {
		return false, domain.NewNetworkError("getOrderDecryptStatus", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// QuoteExactInputSingle simulates the swap and returns the output amount.
func (c *Client) QuoteExactInputSingle(ctx context.Context, key domain.PoolKey, zeroForOne bool, exactAmount *big.Int) (*big.Int, error) {
	params := quoteParamsArg{
		PoolKey:     toPoolKeyArg(key),
		ZeroForOne:  zeroForOne,
		ExactAmount: exactAmount,
		HookData:    []byte{},
	}
	var out []interface{}
	if err := c.quoter.Call(&bind.CallOpts{Context: ctx, From: c.account}, &out, "quoteExactInputSingle", params); err != nil {
		return nil, domain.NewNetworkError("quoteExactInputSingle", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) erc20(token common.Address) *bind.BoundContract {
	return bind.NewBoundContract(token, erc20ABI, c.eth, c.eth, c.eth)
}

// Allowance reads allowance(owner, spender) of token.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.erc20(token).Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, domain.NewNetworkError("allowance", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// BalanceOf reads balanceOf(owner) of token.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.erc20(token).Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, domain.NewNetworkError("balanceOf", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve sends approve(spender, amount) for token.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	tx, err := c.erc20(token).Transact(opts, "approve", spender, amount)
	if err != nil {
		return common.Hash{}, ClassifySubmitError(err)
	}
	c.logger.Info("approve sent", slog.String("tx", tx.Hash().Hex()), slog.String("token", token.Hex()))
	return tx.Hash(), nil
}

// WaitReceipt polls for the receipt until it is mined or ctx is done.
func (c *Client) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return waitReceipt(ctx, c.receipts, txHash, c.receiptPoll, c.logger)
}

func waitReceipt(ctx context.Context, src receiptSource, txHash common.Hash, interval time.Duration, logger *slog.Logger) (*types.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := src.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Receipt query failed", slog.String("tx", txHash.Hex()), slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// FilterSettledLogs returns the OrderSettled logs of user mined at or after
// fromBlock.
func (c *Client) FilterSettledLogs(ctx context.Context, user common.Address, fromBlock uint64) ([]types.Log, error) {
	logs, err := filterSettled(ctx, c.logs, c.hookAddr, user, fromBlock)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Settlement backfill", slog.Uint64("from_block", fromBlock), slog.Int("logs", len(logs)))
	return logs, nil
}

func settledQuery(hook, user common.Address, fromBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{hook},
		Topics: [][]common.Hash{
			{marketOrderABI.Events["OrderSettled"].ID},
			{common.BytesToHash(user.Bytes())},
		},
	}
}

func filterSettled(ctx context.Context, src logSource, hook, user common.Address, fromBlock uint64) ([]types.Log, error) {
	logs, err := src.FilterLogs(ctx, settledQuery(hook, user, fromBlock))
	if err != nil {
		return nil, domain.NewNetworkError("eth_getLogs", err)
	}
	return logs, nil
}

// ClassifySubmitError maps a transaction send failure onto a SubmissionError.
func ClassifySubmitError(err error) error {
	var se *domain.SubmissionError
	if errors.As(err, &se) {
		return se
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"), strings.Contains(msg, "rejected by signer"):
		return &domain.SubmissionError{Kind: domain.SubmissionRejected, Err: err}
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "intrinsic gas"),
		strings.Contains(msg, "gas required exceeds"), strings.Contains(msg, "max fee per gas less than block base fee"):
		return &domain.SubmissionError{Kind: domain.SubmissionGas, Err: err}
	case strings.Contains(msg, "execution reverted"):
		return &domain.SubmissionError{Kind: domain.SubmissionReverted, Err: err}
	default:
		return &domain.SubmissionError{Kind: domain.SubmissionRPC, Err: err}
	}
}
