package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"cipher_go/internal/engine"
	"cipher_go/internal/infra"
	"cipher_go/internal/infra/chain"
	"cipher_go/internal/infra/oracle"
	"cipher_go/internal/infra/storage"
	"cipher_go/internal/ledger"
	"cipher_go/internal/service"
	"cipher_go/internal/session"

	"github.com/ethereum/go-ethereum/common"
)

// Bootstrap handles the application startup sequence
type Bootstrap struct {
	ConfigPath string

	// Optional observers, set before Initialize
	OnOrderUpdate func(engine.Snapshot)
	OnQuoteUpdate func(service.QuoteState)

	Config      *infra.Config
	Logger      *slog.Logger
	Metrics     *infra.Metrics
	Session     *session.Context
	Chain       *chain.Client
	Oracle      *oracle.Client
	History     *storage.History // nil when history is disabled
	Ledger      *ledger.Ledger
	Coordinator *engine.Coordinator
	Subscriber  *chain.Subscriber // nil without a websocket endpoint
	Encryption  *service.EncryptionGateway
	Allowance   *service.AllowanceGuard
	Quotes      *service.QuoteFeed
}

// NewBootstrap creates a new bootstrap instance
func NewBootstrap(configPath string) *Bootstrap {
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	return &Bootstrap{ConfigPath: configPath}
}

// Initialize loads configuration, connects to the chain and the oracle and
// wires the order pipeline. A failed oracle handshake is not fatal: the
// session stays uninitialized and encryption is refused.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	cfg, err := infra.LoadConfig(b.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	b.Config = cfg

	b.Logger = infra.NewLogger(cfg)
	slog.SetDefault(b.Logger)
	b.Logger.Info("🚀 Bootstrapping...", slog.String("version", cfg.App.Version))

	b.Metrics = infra.NewMetrics()
	b.Session = session.New()
	b.Logger = b.Logger.With(slog.String("session", b.Session.ID()))
	slog.SetDefault(b.Logger)

	chainID := big.NewInt(cfg.Chain.ChainID)
	b.Chain, err = chain.Dial(ctx, chain.Options{
		RPCURL:      cfg.Chain.RPCURL,
		ChainID:     chainID,
		PrivateKey:  cfg.Secrets.PrivateKey,
		Hook:        common.HexToAddress(cfg.Chain.MarketOrderHook),
		Quoter:      common.HexToAddress(cfg.Chain.Quoter),
		ReceiptPoll: infra.Millis(cfg.Chain.ReceiptPollMS),
		Logger:      b.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect chain: %w", err)
	}
	b.Session.Bind(b.Chain.Account(), b.Chain.ChainID())
	b.Logger.Info("✅ Wallet connected", slog.String("account", b.Chain.Account().Hex()))

	b.Oracle = oracle.New(oracle.Options{
		URL:          cfg.Oracle.URL,
		Timeout:      infra.Millis(cfg.Oracle.TimeoutMS),
		Retries:      cfg.Oracle.InitRetries,
		SecurityZone: uint8(cfg.Oracle.SecurityZone),
		Logger:       b.Logger,
	})
	initErr := b.Oracle.Initialize(ctx, b.Chain.Account(), b.Chain.ChainID())
	b.Session.MarkInitialized(initErr)
	if initErr != nil {
		b.Logger.Error("❌ Encryption oracle unavailable", slog.Any("error", initErr))
	} else {
		b.Logger.Info("✅ Encryption oracle initialized")
	}

	var sink ledger.Sink
	if cfg.Ledger.HistoryPath != "" {
		history, err := storage.NewHistory(cfg.Ledger.HistoryPath)
		if err != nil {
			b.Close()
			return fmt.Errorf("failed to open order history: %w", err)
		}
		b.History = history
		sink = history
		b.Logger.Info("✅ Order history opened", slog.String("path", cfg.Ledger.HistoryPath))
	}
	b.Ledger = ledger.New(sink, b.Logger)

	pool := cfg.PoolKey()
	b.Coordinator = engine.NewCoordinator(engine.Config{
		User:             b.Chain.Account(),
		Pool:             pool,
		InboxSize:        cfg.Order.InboxSize,
		PollInterval:     infra.Millis(cfg.Order.DecryptPollMS),
		GraceDelay:       infra.Millis(cfg.Order.GraceDelayMS),
		SettleTimeout:    infra.Millis(cfg.Order.SettleTimeoutMS),
		AutoResetOnError: cfg.Order.AutoResetOnError,
		AutoResetDelay:   infra.Millis(cfg.Order.AutoResetDelayMS),
	}, engine.Deps{
		Market:   b.Chain,
		Receipts: b.Chain,
		Scanner:  b.Chain,
		Decoder:  chain.NewDecoder(),
		Ledger:   b.Ledger,
		Metrics:  b.Metrics,
		Logger:   b.Logger,
	}, b.OnOrderUpdate)

	if cfg.Chain.WSURL != "" {
		b.Subscriber = chain.NewSubscriber(
			cfg.Chain.WSURL,
			common.HexToAddress(cfg.Chain.MarketOrderHook),
			chain.NewDecoder().Topics(),
			b.Coordinator.Inbox(),
			b.Metrics,
			b.Logger,
		)
		b.Subscriber.FilterUser(b.Chain.Account())
	} else {
		b.Logger.Warn("No websocket endpoint configured, relying on receipts for placement")
	}

	b.Encryption = service.NewEncryptionGateway(b.Oracle, b.Session, b.Logger)
	b.Allowance = service.NewAllowanceGuard(b.Chain, b.Chain, b.Logger)
	b.Quotes = service.NewQuoteFeed(b.Chain, pool, infra.Millis(cfg.Quote.TimeoutMS), b.Metrics, b.Logger, b.OnQuoteUpdate)

	b.Logger.Info("✅ Order pipeline wired")
	return nil
}

// Close releases resources that outlive the run context.
func (b *Bootstrap) Close() {
	if b.Quotes != nil {
		b.Quotes.Close()
	}
	if b.History != nil {
		if err := b.History.Close(); err != nil {
			slog.Warn("Failed to close order history", slog.Any("error", err))
		}
	}
	if b.Chain != nil {
		b.Chain.Close()
	}
}
