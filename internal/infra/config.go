package infra

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cipher_go/internal/domain"

	"github.com/caarlos0/env/v6"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TokenConfig is one tradable token of the market.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

// Secrets are never read from the yaml file.
type Secrets struct {
	PrivateKey string `env:"CIPHER_PRIVATE_KEY"`
	RPCURL     string `env:"CIPHER_RPC_URL"`
	WSURL      string `env:"CIPHER_WS_URL"`
	OracleURL  string `env:"CIPHER_ORACLE_URL"`
	LogLevel   string `env:"CIPHER_LOG_LEVEL"`
}

// Config holds every setting of the application.
// After LoadConfig the environment overrides secrets and endpoints.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Chain struct {
		RPCURL          string `yaml:"rpc_url"`
		WSURL           string `yaml:"ws_url"`
		ChainID         int64  `yaml:"chain_id"`
		MarketOrderHook string `yaml:"market_order_hook"`
		Quoter          string `yaml:"quoter"`
		ReceiptPollMS   int    `yaml:"receipt_poll_ms"`
		Pool            struct {
			Fee         int64 `yaml:"fee"`
			TickSpacing int64 `yaml:"tick_spacing"`
		} `yaml:"pool"`
		Tokens []TokenConfig `yaml:"tokens"`
	} `yaml:"chain"`

	Oracle struct {
		URL          string `yaml:"url"`
		TimeoutMS    int    `yaml:"timeout_ms"`
		InitRetries  int    `yaml:"init_retries"`
		SecurityZone int32  `yaml:"security_zone"`
	} `yaml:"oracle"`

	Order struct {
		InboxSize        int  `yaml:"inbox_size"`
		DecryptPollMS    int  `yaml:"decrypt_poll_ms"`
		GraceDelayMS     int  `yaml:"grace_delay_ms"`
		SettleTimeoutMS  int  `yaml:"settle_timeout_ms"`
		AutoResetOnError bool `yaml:"auto_reset_on_error"`
		AutoResetDelayMS int  `yaml:"auto_reset_delay_ms"`
	} `yaml:"order"`

	Quote struct {
		TimeoutMS int `yaml:"timeout_ms"`
	} `yaml:"quote"`

	Ledger struct {
		HistoryPath   string `yaml:"history_path"`
		ExpireAfterMS int    `yaml:"expire_after_ms"`
	} `yaml:"ledger"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Secrets Secrets `yaml:"-"`
}

// LoadConfig reads the yaml file, loads an optional .env next to it and
// applies environment overrides before validating.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// .env is optional; real environment variables win
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	if err := env.Parse(&cfg.Secrets); err != nil {
		return nil, fmt.Errorf("error parsing env secrets: %w", err)
	}
	cfg.applySecrets()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applySecrets() {
	if c.Secrets.RPCURL != "" {
		c.Chain.RPCURL = c.Secrets.RPCURL
	}
	if c.Secrets.WSURL != "" {
		c.Chain.WSURL = c.Secrets.WSURL
	}
	if c.Secrets.OracleURL != "" {
		c.Oracle.URL = c.Secrets.OracleURL
	}
	if c.Secrets.LogLevel != "" {
		c.Logging.Level = c.Secrets.LogLevel
	}
}

func (c *Config) applyDefaults() {
	if c.Chain.ReceiptPollMS <= 0 {
		c.Chain.ReceiptPollMS = 1000
	}
	if c.Oracle.TimeoutMS <= 0 {
		c.Oracle.TimeoutMS = 10000
	}
	if c.Oracle.InitRetries <= 0 {
		c.Oracle.InitRetries = 3
	}
	if c.Order.InboxSize <= 0 {
		c.Order.InboxSize = 256
	}
	if c.Order.DecryptPollMS <= 0 {
		c.Order.DecryptPollMS = 2000
	}
	if c.Order.GraceDelayMS <= 0 {
		c.Order.GraceDelayMS = 3000
	}
	if c.Order.SettleTimeoutMS <= 0 {
		c.Order.SettleTimeoutMS = 60000
	}
	if c.Order.AutoResetDelayMS <= 0 {
		c.Order.AutoResetDelayMS = 3000
	}
	if c.Quote.TimeoutMS <= 0 {
		c.Quote.TimeoutMS = 2000
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9464"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.Chain.RPCURL, "http://") && !hasPrefix(c.Chain.RPCURL, "https://") {
		return &domain.ConfigError{Field: "chain.rpc_url", Err: fmt.Errorf("invalid RPC URL: %q", c.Chain.RPCURL)}
	}
	if c.Chain.WSURL != "" && !hasPrefix(c.Chain.WSURL, "ws://") && !hasPrefix(c.Chain.WSURL, "wss://") {
		return &domain.ConfigError{Field: "chain.ws_url", Err: fmt.Errorf("invalid WS URL: %q", c.Chain.WSURL)}
	}
	if c.Chain.ChainID <= 0 {
		return &domain.ConfigError{Field: "chain.chain_id", Err: errors.New("must be positive")}
	}
	if !common.IsHexAddress(c.Chain.MarketOrderHook) {
		return &domain.ConfigError{Field: "chain.market_order_hook", Err: fmt.Errorf("invalid address: %q", c.Chain.MarketOrderHook)}
	}
	if !common.IsHexAddress(c.Chain.Quoter) {
		return &domain.ConfigError{Field: "chain.quoter", Err: fmt.Errorf("invalid address: %q", c.Chain.Quoter)}
	}
	if c.Chain.Pool.Fee <= 0 || c.Chain.Pool.TickSpacing <= 0 {
		return &domain.ConfigError{Field: "chain.pool", Err: errors.New("fee and tick spacing must be positive")}
	}
	if len(c.Chain.Tokens) != 2 {
		return &domain.ConfigError{Field: "chain.tokens", Err: fmt.Errorf("exactly two pool tokens are required, got %d", len(c.Chain.Tokens))}
	}
	seen := make(map[string]bool)
	for _, t := range c.Chain.Tokens {
		sym := strings.ToUpper(t.Symbol)
		if sym == "" || seen[sym] {
			return &domain.ConfigError{Field: "chain.tokens", Err: fmt.Errorf("missing or duplicate symbol: %q", t.Symbol)}
		}
		seen[sym] = true
		if !common.IsHexAddress(t.Address) {
			return &domain.ConfigError{Field: "chain.tokens." + t.Symbol, Err: fmt.Errorf("invalid address: %q", t.Address)}
		}
		if t.Decimals < 0 || t.Decimals > 36 {
			return &domain.ConfigError{Field: "chain.tokens." + t.Symbol, Err: fmt.Errorf("invalid decimals: %d", t.Decimals)}
		}
	}
	if !hasPrefix(c.Oracle.URL, "http://") && !hasPrefix(c.Oracle.URL, "https://") {
		return &domain.ConfigError{Field: "oracle.url", Err: fmt.Errorf("invalid oracle URL: %q", c.Oracle.URL)}
	}
	if c.Ledger.ExpireAfterMS < 0 {
		return &domain.ConfigError{Field: "ledger.expire_after_ms", Err: errors.New("must not be negative")}
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// Token looks up a configured token by symbol, case-insensitively.
func (c *Config) Token(symbol string) (domain.Token, bool) {
	for _, t := range c.Chain.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return domain.Token{
				Symbol:   strings.ToUpper(t.Symbol),
				Address:  common.HexToAddress(t.Address),
				Decimals: t.Decimals,
			}, true
		}
	}
	return domain.Token{}, false
}

// PoolKey builds the pool key with currencies sorted by address.
func (c *Config) PoolKey() domain.PoolKey {
	a := common.HexToAddress(c.Chain.Tokens[0].Address)
	b := common.HexToAddress(c.Chain.Tokens[1].Address)
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return domain.PoolKey{
		Currency0:   a,
		Currency1:   b,
		Fee:         big.NewInt(c.Chain.Pool.Fee),
		TickSpacing: big.NewInt(c.Chain.Pool.TickSpacing),
		Hooks:       common.HexToAddress(c.Chain.MarketOrderHook),
	}
}

// Millis converts a configured millisecond value.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
