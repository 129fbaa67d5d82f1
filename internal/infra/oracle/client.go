package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/infra"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 1 * time.Second
)

// Options configures the coprocessor client.
type Options struct {
	URL          string
	Timeout      time.Duration
	Retries      int
	RetryDelay   time.Duration
	SecurityZone uint8
	Logger       *slog.Logger
}

type initRequest struct {
	Account common.Address `json:"account"`
	ChainID *hexutil.Big   `json:"chainId"`
}

type encryptItem struct {
	UType domain.FheType `json:"utype"`
	Value *hexutil.Big   `json:"value"`
}

type encryptRequest struct {
	Account      common.Address `json:"account"`
	ChainID      *hexutil.Big   `json:"chainId"`
	SecurityZone uint8          `json:"securityZone"`
	Items        []encryptItem  `json:"items"`
}

type encryptedItem struct {
	CtHash       *hexutil.Big   `json:"ctHash"`
	SecurityZone uint8          `json:"securityZone"`
	UType        domain.FheType `json:"utype"`
	Signature    hexutil.Bytes  `json:"signature"`
}

type encryptResponse struct {
	Inputs []encryptedItem `json:"inputs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the encryption coprocessor over HTTP. Initialize binds
// it to an account and chain; Encrypt is rejected before that.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retries      int
	retryDelay   time.Duration
	securityZone uint8
	logger       *slog.Logger

	mu          sync.RWMutex
	account     common.Address
	chainID     *big.Int
	initialized bool
}

var (
	_ domain.EncryptionOracle = (*Client)(nil)
	_ domain.OracleSession    = (*Client)(nil)
)

// New creates an uninitialized client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.URL, "/"),
		httpClient:   &http.Client{Timeout: opts.Timeout},
		retries:      opts.Retries,
		retryDelay:   opts.RetryDelay,
		securityZone: opts.SecurityZone,
		logger:       opts.Logger.With(slog.String("module", "oracle")),
	}
}

// Initialize binds the client to account and chain with bounded retries.
// The last failure is returned to the caller.
func (c *Client) Initialize(ctx context.Context, account common.Address, chainID *big.Int) error {
	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()

	req := initRequest{Account: account, ChainID: (*hexutil.Big)(chainID)}
	err := infra.Retry(ctx, c.retries, c.retryDelay, c.logger, func(ctx context.Context) error {
		return c.post(ctx, "/v1/init", req, nil)
	})
	if err != nil {
		c.logger.Error("Oracle initialization failed", slog.Any("error", err))
		return err
	}

	c.mu.Lock()
	c.account = account
	c.chainID = new(big.Int).Set(chainID)
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("Oracle initialized", slog.String("account", account.Hex()), slog.String("chain_id", chainID.String()))
	return nil
}

// IsInitialized reports whether Initialize succeeded.
func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Encrypt asks the coprocessor to encrypt the items.
func (c *Client) Encrypt(ctx context.Context, items []domain.Encryptable) ([]domain.EncryptedInput, error) {
	c.mu.RLock()
	initialized, account, chainID := c.initialized, c.account, c.chainID
	c.mu.RUnlock()
	if !initialized {
		return nil, domain.ErrOracleUninitialized
	}

	req := encryptRequest{
		Account:      account,
		ChainID:      (*hexutil.Big)(chainID),
		SecurityZone: c.securityZone,
		Items:        make([]encryptItem, len(items)),
	}
	for i, it := range items {
		req.Items[i] = encryptItem{UType: it.Type, Value: (*hexutil.Big)(it.Value)}
	}

	var resp encryptResponse
	if err := c.post(ctx, "/v1/encrypt", req, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.EncryptedInput, len(resp.Inputs))
	for i, r := range resp.Inputs {
		out[i] = domain.EncryptedInput{
			CtHash:       r.CtHash.ToInt(),
			SecurityZone: r.SecurityZone,
			UType:        r.UType,
			Signature:    r.Signature,
		}
	}
	return out, nil
}

// post sends a JSON request. 4xx answers are rejections; network failures
// and 5xx answers are retriable.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.NewFatalNetworkError(path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError(path, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return domain.NewNetworkError(path, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return domain.NewFatalNetworkError(path, fmt.Errorf("%w: %s", domain.ErrOracleRejected, rejectionReason(resp.StatusCode, data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewFatalNetworkError(path, fmt.Errorf("%w: malformed response: %v", domain.ErrOracleRejected, err))
	}
	return nil
}

func rejectionReason(status int, body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("status %d", status)
}
