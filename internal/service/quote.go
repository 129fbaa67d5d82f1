package service

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/infra"

	"github.com/shopspring/decimal"
)

// DefaultQuoteTimeout bounds a single quote request.
const DefaultQuoteTimeout = 2 * time.Second

// QuoteParams are the inputs the feed re-evaluates on.
type QuoteParams struct {
	From   domain.Token
	To     domain.Token
	Amount string
}

// QuoteState is the latest output of the feed.
type QuoteState struct {
	Params  QuoteParams
	Amount  decimal.Decimal // expected output, zero when cleared
	Raw     *big.Int
	Loading bool
	Err     error
}

// QuoteFeed keeps a live expected-output quote for the current parameters.
// Each Update supersedes the previous request; stale answers are dropped.
type QuoteFeed struct {
	quoter   domain.Quoter
	pool     domain.PoolKey
	timeout  time.Duration
	metrics  *infra.Metrics
	logger   *slog.Logger
	onUpdate func(QuoteState)

	mu     sync.Mutex
	state  QuoteState
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQuoteFeed creates a feed. A non-positive timeout uses DefaultQuoteTimeout.
func NewQuoteFeed(quoter domain.Quoter, pool domain.PoolKey, timeout time.Duration, metrics *infra.Metrics, logger *slog.Logger, onUpdate func(QuoteState)) *QuoteFeed {
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteFeed{
		quoter:   quoter,
		pool:     pool,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger.With(slog.String("module", "quote")),
		onUpdate: onUpdate,
		state:    QuoteState{Amount: decimal.Zero},
	}
}

// State returns the latest quote state.
func (f *QuoteFeed) State() QuoteState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Update re-evaluates the quote for new parameters. Invalid parameters clear
// the output without issuing a request.
func (f *QuoteFeed) Update(ctx context.Context, p QuoteParams) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	exact, ok := quoteInput(p)
	if !ok {
		f.state = QuoteState{Params: p, Amount: decimal.Zero}
		snap := f.state
		f.mu.Unlock()
		f.notify(snap)
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = QuoteState{Params: p, Amount: decimal.Zero, Loading: true}
	snap := f.state
	f.wg.Add(1)
	f.mu.Unlock()

	f.notify(snap)
	go f.request(reqCtx, cancel, gen, p, exact)
}

// Close cancels the in-flight request and waits for its bookkeeping to stop.
// A quoter call still running is abandoned; its result is dropped.
func (f *QuoteFeed) Close() {
	f.mu.Lock()
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mu.Unlock()
	f.wg.Wait()
}

type quoteResult struct {
	amount *big.Int
	err    error
}

func (f *QuoteFeed) request(ctx context.Context, cancel context.CancelFunc, gen uint64, p QuoteParams, exact *big.Int) {
	defer f.wg.Done()
	defer cancel()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	// untracked so Close never waits on the quoter itself
	resultCh := make(chan quoteResult, 1)
	go func() {
		v, err := f.quoter.QuoteExactInputSingle(ctx, f.pool, f.pool.ZeroForOne(p.From.Address), exact)
		resultCh <- quoteResult{amount: v, err: err}
	}()

	select {
	case <-ctx.Done():
		// superseded or closed
		return
	case <-timer.C:
		cancel()
		f.metrics.RecordQuote("timeout")
		f.finish(gen, nil, &domain.QuoteError{Timeout: true, Err: domain.ErrQuoteTimeout})
	case res := <-resultCh:
		if res.err != nil {
			f.metrics.RecordQuote("error")
			f.logger.Warn("Quote failed", slog.Any("error", res.err))
			f.finish(gen, nil, &domain.QuoteError{Err: res.err})
			return
		}
		f.metrics.RecordQuote("ok")
		f.finish(gen, res.amount, nil)
	}
}

func (f *QuoteFeed) finish(gen uint64, amount *big.Int, err error) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.state.Loading = false
	f.state.Err = err
	if amount != nil {
		f.state.Raw = amount
		f.state.Amount = domain.FormatUnits(amount, tokenDecimals(f.state.Params.To))
	}
	snap := f.state
	f.mu.Unlock()
	f.notify(snap)
}

func (f *QuoteFeed) notify(s QuoteState) {
	if f.onUpdate != nil {
		f.onUpdate(s)
	}
}

// quoteInput converts the entered amount to base units of the input token.
func quoteInput(p QuoteParams) (*big.Int, bool) {
	if p.Amount == "" || p.From == p.To {
		return nil, false
	}
	v, err := domain.ParseUnits(p.Amount, tokenDecimals(p.From))
	if err != nil || v.Sign() <= 0 {
		return nil, false
	}
	return v, true
}

func tokenDecimals(t domain.Token) int32 {
	if t.Decimals > 0 {
		return t.Decimals
	}
	return domain.DefaultTokenDecimals
}
