package engine

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/infra"
)

// DecryptEmitter receives successful poll results. It must return promptly
// once ctx is done.
type DecryptEmitter func(ctx context.Context, handle *big.Int, decrypted bool)

// DecryptPoller queries getOrderDecryptStatus immediately and then on every
// interval until the handle reports decrypted or Stop is called.
type DecryptPoller struct {
	market   domain.MarketContract
	interval time.Duration
	metrics  *infra.Metrics
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDecryptPoller creates an idle poller.
func NewDecryptPoller(market domain.MarketContract, interval time.Duration, metrics *infra.Metrics, logger *slog.Logger) *DecryptPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecryptPoller{
		market:   market,
		interval: interval,
		metrics:  metrics,
		logger:   logger.With(slog.String("module", "decrypt_poller")),
	}
}

// Start begins polling the handle, stopping any previous run first.
func (p *DecryptPoller) Start(ctx context.Context, handle *big.Int, emit DecryptEmitter) {
	p.Stop()

	ctx, p.cancel = context.WithCancel(ctx)
	handle = new(big.Int).Set(handle)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Decrypt poller panic recovered", slog.Any("panic", r))
			}
		}()

		p.logger.Info("Decrypt polling started", slog.String("handle", handle.Text(16)))

		// Query immediately on start
		if p.poll(ctx, handle, emit) {
			return
		}

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Decrypt polling stopped")
				return
			case <-ticker.C:
				if p.poll(ctx, handle, emit) {
					return
				}
			}
		}
	}()
}

// poll issues one query and reports whether polling is over.
func (p *DecryptPoller) poll(ctx context.Context, handle *big.Int, emit DecryptEmitter) bool {
	decrypted, err := p.market.OrderDecryptStatus(ctx, handle)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.metrics.RecordDecryptPoll("error")
		p.logger.Warn("Decrypt status poll failed", slog.Any("error", err))
		return false
	}

	if decrypted {
		p.metrics.RecordDecryptPoll("decrypted")
		p.logger.Info("Decryption complete, stopping polling", slog.String("handle", handle.Text(16)))
	} else {
		p.metrics.RecordDecryptPoll("pending")
	}
	emit(ctx, handle, decrypted)
	return decrypted || ctx.Err() != nil
}

// Stop cancels polling and waits for the goroutine to exit.
func (p *DecryptPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
		p.cancel = nil
	}
}
