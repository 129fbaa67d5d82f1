package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/event"
	"cipher_go/internal/infra"
	"cipher_go/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errCoordinatorStopped = errors.New("coordinator stopped")

// Config holds the coordinator's timing and identity.
type Config struct {
	User             common.Address
	Pool             domain.PoolKey
	InboxSize        int
	PollInterval     time.Duration
	GraceDelay       time.Duration
	AutoResetOnError bool
	AutoResetDelay   time.Duration
	// SettleTimeout bounds the wait for OrderSettled after decryption.
	SettleTimeout time.Duration
}

// DefaultConfig returns the deployment timings: 2s polling, 3s grace.
func DefaultConfig() Config {
	return Config{
		InboxSize:      256,
		PollInterval:   2 * time.Second,
		GraceDelay:     3 * time.Second,
		AutoResetDelay: 3 * time.Second,
		SettleTimeout:  60 * time.Second,
	}
}

// Deps are the collaborators of the coordinator.
type Deps struct {
	Market   domain.MarketContract
	Receipts domain.ReceiptWaiter
	Scanner  domain.SettlementScanner // optional settlement backfill
	Decoder  LogDecoder
	Ledger   *ledger.Ledger
	Metrics  *infra.Metrics
	Logger   *slog.Logger
}

// OrderRequest is an encrypted order ready to be placed.
type OrderRequest struct {
	From   domain.Token
	To     domain.Token
	Amount string
	Input  domain.EncryptedInput
}

// Snapshot is an external read of the active-order slot.
type Snapshot struct {
	Progress      domain.Progress
	Order         domain.Order
	Processing    bool
	DecryptStatus *bool
	Err           error
}

// CanSubmit reports whether a new order may be placed.
func (s Snapshot) CanSubmit() bool {
	return !s.Processing
}

// ActiveStage returns the first stage that has not succeeded.
func (s Snapshot) ActiveStage() domain.Stage {
	return s.Progress.ActiveStage()
}

// Coordinator is the single-threaded owner of the order lifecycle. Every
// signal (commands, submission results, logs, receipts, poll results, timers)
// enters through the inbox and is applied by Machine on the Run goroutine.
type Coordinator struct {
	cfg     Config
	deps    Deps
	logger  *slog.Logger
	machine Machine

	inbox chan event.Event
	done  chan struct{}

	// Loop-owned. Never touched outside Run.
	state       State
	correlator  *Correlator
	poller      *DecryptPoller
	graceTimer  *Timer
	resetTimer  *Timer
	settleTimer *Timer
	watchCancel context.CancelFunc
	runCtx      context.Context
	wg          sync.WaitGroup

	// Boundary: used to notify the CLI of state changes
	onStateUpdate func(Snapshot)

	mu       sync.RWMutex // Used only for external reads
	snapshot Snapshot
}

// NewCoordinator creates a coordinator. Run must be started before commands
// are accepted.
func NewCoordinator(cfg Config, deps Deps, onUpdate func(Snapshot)) *Coordinator {
	def := DefaultConfig()
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = def.InboxSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = def.GraceDelay
	}
	if cfg.AutoResetDelay <= 0 {
		cfg.AutoResetDelay = def.AutoResetDelay
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = def.SettleTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		cfg:           cfg,
		deps:          deps,
		logger:        logger.With(slog.String("module", "coordinator")),
		machine:       Machine{AutoResetOnError: cfg.AutoResetOnError},
		inbox:         make(chan event.Event, cfg.InboxSize),
		done:          make(chan struct{}),
		correlator:    NewCorrelator(cfg.User, deps.Decoder, logger),
		poller:        NewDecryptPoller(deps.Market, cfg.PollInterval, deps.Metrics, logger),
		onStateUpdate: onUpdate,
	}
}

// Inbox returns the event channel. External workers send events here.
func (c *Coordinator) Inbox() chan<- event.Event {
	return c.inbox
}

// Done is closed once Run has returned and all background work has stopped.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Run starts the main event loop. This MUST be run in a single goroutine.
// On return the poller, timers and receipt watchers are stopped.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("Coordinator started", slog.String("user", c.cfg.User.Hex()))

	c.runCtx = ctx
	defer c.teardown()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Coordinator stopping...")
			return nil
		case ev := <-c.inbox:
			c.processEvent(ev)
		}
	}
}

func (c *Coordinator) teardown() {
	c.poller.Stop()
	c.cancelTimers()
	c.wg.Wait()
	close(c.done)
	c.logger.Info("Coordinator stopped")
}

// PlaceOrder hands an encrypted order to the loop. It returns once the order
// is accepted (Confirm is Loading); submission continues in the background.
func (c *Coordinator) PlaceOrder(ctx context.Context, req OrderRequest) error {
	reply := make(chan error, 1)
	ev := &event.StartOrderEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now()},
		Order: domain.Order{
			FromToken: req.From,
			ToToken:   req.To,
			Amount:    req.Amount,
			Timestamp: time.Now(),
		},
		Input: req.Input,
		Reply: reply,
	}
	if err := c.send(ctx, ev); err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errCoordinatorStopped
	}
}

// Reset clears the active order. It is safe to call at any time.
func (c *Coordinator) Reset(ctx context.Context) error {
	reply := make(chan struct{}, 1)
	if err := c.send(ctx, &event.ResetEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}, Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errCoordinatorStopped
	}
}

// Snapshot returns the current active-order view (external read).
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snapshot
	s.Order = s.Order.Clone()
	if s.DecryptStatus != nil {
		v := *s.DecryptStatus
		s.DecryptStatus = &v
	}
	return s
}

func (c *Coordinator) send(ctx context.Context, ev event.Event) error {
	select {
	case c.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errCoordinatorStopped
	}
}

// post is used by background goroutines; it gives up once the loop is gone.
func (c *Coordinator) post(ctx context.Context, ev event.Event) {
	select {
	case c.inbox <- ev:
	case <-ctx.Done():
	case <-c.done:
	}
}

func (c *Coordinator) processEvent(ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Coordinator panic recovered", slog.Any("panic", r), slog.String("event", ev.GetType().String()))
		}
	}()

	switch e := ev.(type) {
	case *event.StartOrderEvent:
		c.handleStart(e)
	case *event.ResetEvent:
		next, effects := c.machine.Reset(c.state)
		c.apply(next, effects)
		e.Reply <- struct{}{}
	case *event.SubmittedEvent:
		if c.stale(e.Gen) {
			return
		}
		c.logger.Info("Order transaction submitted", slog.String("tx", e.TxHash.Hex()))
		c.apply(c.machine.Submitted(c.state, e.TxHash))
	case *event.SubmitFailedEvent:
		if c.stale(e.Gen) {
			return
		}
		c.handleSubmitFailed(e.Err)
	case *event.ReceiptEvent:
		if c.stale(e.Gen) {
			return
		}
		c.handleReceipt(e)
	case *event.LogsEvent:
		c.applySignals(c.correlator.OnLogs(e.Logs))
	case *event.DecryptStatusEvent:
		if c.stale(e.Gen) {
			return
		}
		c.apply(c.machine.DecryptObserved(c.state, e.Handle, e.Decrypted))
	case *event.TimerEvent:
		if c.stale(e.Gen) {
			return
		}
		c.handleTimer(e)
	case *event.BackfillEvent:
		c.handleBackfill(e)
	case *event.ResyncEvent:
		c.resync()
	default:
		c.logger.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}
}

func (c *Coordinator) stale(gen uint64) bool {
	if gen != c.state.Gen {
		c.logger.Debug("Discarding stale event", slog.Uint64("gen", gen), slog.Uint64("current", c.state.Gen))
		return true
	}
	return false
}

func (c *Coordinator) handleStart(e *event.StartOrderEvent) {
	next, effects, err := c.machine.Start(c.state, StartInput{Order: e.Order, Input: e.Input})
	if err != nil {
		c.logger.Warn("Order rejected", slog.Any("error", err))
		e.Reply <- err
		return
	}
	c.deps.Metrics.RecordOrderStarted()
	c.logger.Info("Order accepted",
		slog.String("from", e.Order.FromToken.Symbol),
		slog.String("to", e.Order.ToToken.Symbol),
		slog.String("amount", e.Order.Amount),
	)
	c.apply(next, effects)
	e.Reply <- nil
}

func (c *Coordinator) handleSubmitFailed(err error) {
	var se *domain.SubmissionError
	if !errors.As(err, &se) {
		se = &domain.SubmissionError{Kind: domain.SubmissionRPC, Err: err}
	}
	c.deps.Metrics.RecordSubmissionError(string(se.Kind))
	c.logger.Error("Order submission failed", slog.String("kind", string(se.Kind)), slog.Any("error", se.Err))
	c.apply(c.machine.SubmitFailed(c.state, se))
}

func (c *Coordinator) handleReceipt(e *event.ReceiptEvent) {
	if e.Err != nil {
		// the subscription may still deliver OrderPlaced
		c.logger.Warn("Receipt watch failed", slog.String("tx", e.TxHash.Hex()), slog.Any("error", e.Err))
		return
	}
	if e.Receipt.Status == types.ReceiptStatusFailed {
		c.deps.Metrics.RecordSubmissionError(string(domain.SubmissionReverted))
		c.logger.Error("Order transaction reverted", slog.String("tx", e.TxHash.Hex()))
		c.apply(c.machine.Receipt(c.state, e.Receipt))
		return
	}
	c.applySignals(c.correlator.OnReceipt(e.Receipt))
}

// applySignals applies OrderPlaced before any settlement of the same batch.
func (c *Coordinator) applySignals(sig Signals) {
	if sig.Placed != nil {
		c.apply(c.machine.OrderPlaced(c.state, *sig.Placed))
	}
	for _, ev := range sig.Settled {
		c.handleSettled(ev)
	}
}

// handleSettled completes the active order when (user, handle) match, and
// otherwise marks the matching ledger entry Completed.
func (c *Coordinator) handleSettled(ev domain.OrderSettled) {
	if c.state.Processing && domain.SameHandle(ev.Handle, c.state.Order.Handle) {
		before := c.state.Progress.Get(domain.StageSettle)
		c.apply(c.machine.Settled(c.state, ev))
		if before != domain.StateSuccess && c.state.Progress.Get(domain.StageSettle) == domain.StateSuccess {
			c.deps.Metrics.RecordOrderSettled()
			c.logger.Info("OrderSettled detected for active order", slog.String("tx", c.state.Order.TxHash.Hex()))
		}
		return
	}

	if c.deps.Ledger == nil || ev.Handle == nil {
		return
	}
	if o, ok := c.deps.Ledger.FindByHandle(ev.Handle); ok {
		if err := c.deps.Ledger.UpdateStatus(o.TxHash, domain.OrderStatusCompleted); err != nil {
			c.logger.Warn("Ledger settlement update failed", slog.String("tx", o.TxHash.Hex()), slog.Any("error", err))
		}
		return
	}
	c.logger.Debug("OrderSettled for unknown handle", slog.String("handle", ev.Handle.Text(16)))
}

func (c *Coordinator) handleTimer(e *event.TimerEvent) {
	switch e.Kind {
	case event.TimerGrace:
		c.apply(c.machine.GraceElapsed(c.state))
	case event.TimerAutoReset:
		if c.state.Progress.Get(domain.StageConfirm) != domain.StateError {
			return
		}
		c.logger.Info("Auto reset after submission error")
		c.apply(c.machine.Reset(c.state))
	case event.TimerSettleDeadline:
		if c.state.Progress.Get(domain.StageSettle) != domain.StateLoading {
			return
		}
		if c.deps.Scanner == nil {
			c.settleTimedOut()
			return
		}
		c.logger.Warn("OrderSettled overdue, scanning chain history", slog.String("tx", c.state.Order.TxHash.Hex()))
		c.backfill(c.state.Gen, c.state.Order.Block, true)
	}
}

// handleBackfill feeds scanned logs through the live path. When the scan was
// the settle deadline and the order is still unsettled, the slot is released.
func (c *Coordinator) handleBackfill(e *event.BackfillEvent) {
	if e.Err != nil {
		c.logger.Warn("Settlement backfill failed", slog.Any("error", e.Err))
	} else if len(e.Logs) > 0 {
		c.logger.Info("Settlement backfill found logs", slog.Int("count", len(e.Logs)))
		c.applySignals(c.correlator.OnLogs(e.Logs))
	}

	if !e.Deadline || c.stale(e.Gen) {
		return
	}
	if c.state.Progress.Get(domain.StageSettle) == domain.StateLoading {
		c.settleTimedOut()
	}
}

func (c *Coordinator) settleTimedOut() {
	c.logger.Warn("OrderSettled not observed, tracking order in the ledger",
		slog.String("tx", c.state.Order.TxHash.Hex()),
		slog.Duration("timeout", c.cfg.SettleTimeout),
	)
	c.apply(c.machine.SettleTimedOut(c.state))
}

// resync scans history after the subscription was down. It covers the
// active order once placed and every Executing ledger entry.
func (c *Coordinator) resync() {
	if c.deps.Scanner == nil {
		return
	}
	var from uint64
	found := false
	if c.state.Processing && c.state.Progress.Get(domain.StageConfirm) == domain.StateSuccess && c.state.Order.Block > 0 {
		from, found = c.state.Order.Block, true
	}
	if c.deps.Ledger != nil {
		if b, ok := c.deps.Ledger.OldestExecutingBlock(); ok && (!found || b < from) {
			from, found = b, true
		}
	}
	if !found {
		return
	}
	c.logger.Info("Subscription resumed, scanning for missed settlements", slog.Uint64("from_block", from))
	c.backfill(c.state.Gen, from, false)
}

func (c *Coordinator) backfill(gen uint64, fromBlock uint64, deadline bool) {
	ctx := c.runCtx
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logs, err := c.deps.Scanner.FilterSettledLogs(ctx, c.cfg.User, fromBlock)
		if ctx.Err() != nil {
			return
		}
		c.post(ctx, &event.BackfillEvent{
			BaseEvent: event.BaseEvent{Ts: time.Now(), Gen: gen},
			Logs:      logs,
			Err:       err,
			Deadline:  deadline,
		})
	}()
}

// apply replaces the state, runs effects in order and publishes a snapshot.
func (c *Coordinator) apply(next State, effects []Effect) {
	c.state = next
	for _, eff := range effects {
		c.runEffect(eff)
	}
	c.publish()
}

func (c *Coordinator) runEffect(eff Effect) {
	gen := c.state.Gen
	switch eff.Kind {
	case EffectSubmitOrder:
		c.submit(gen, eff)
	case EffectWatchReceipt:
		c.watchReceipt(gen, eff.Order.TxHash)
	case EffectStartDecryptPoll:
		c.poller.Start(c.runCtx, eff.Order.Handle, func(ctx context.Context, handle *big.Int, decrypted bool) {
			c.post(ctx, &event.DecryptStatusEvent{
				BaseEvent: event.BaseEvent{Ts: time.Now(), Gen: gen},
				Handle:    handle,
				Decrypted: decrypted,
			})
		})
	case EffectStopDecryptPoll:
		c.poller.Stop()
	case EffectScheduleGrace:
		c.graceTimer.Stop()
		c.graceTimer = c.schedule(gen, event.TimerGrace, c.cfg.GraceDelay)
	case EffectScheduleAutoReset:
		c.resetTimer.Stop()
		c.resetTimer = c.schedule(gen, event.TimerAutoReset, c.cfg.AutoResetDelay)
	case EffectScheduleSettleDeadline:
		c.settleTimer.Stop()
		c.settleTimer = c.schedule(gen, event.TimerSettleDeadline, c.cfg.SettleTimeout)
	case EffectHandoffToLedger:
		c.handoff(eff.Order, eff.Settled)
	case EffectCancelTimers:
		c.cancelTimers()
		c.correlator.Clear()
	}
}

func (c *Coordinator) submit(gen uint64, eff Effect) {
	ctx := c.runCtx
	zeroForOne := c.cfg.Pool.ZeroForOne(eff.Order.FromToken.Address)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		hash, err := c.deps.Market.PlaceMarketOrder(ctx, c.cfg.Pool, zeroForOne, eff.Input)
		base := event.BaseEvent{Ts: time.Now(), Gen: gen}
		if err != nil {
			c.post(ctx, &event.SubmitFailedEvent{BaseEvent: base, Err: err})
			return
		}
		c.post(ctx, &event.SubmittedEvent{BaseEvent: base, TxHash: hash})
	}()
}

func (c *Coordinator) watchReceipt(gen uint64, txHash common.Hash) {
	c.correlator.Track(txHash)
	if c.deps.Receipts == nil {
		return
	}
	if c.watchCancel != nil {
		c.watchCancel()
	}
	ctx, cancel := context.WithCancel(c.runCtx)
	c.watchCancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		receipt, err := c.deps.Receipts.WaitReceipt(ctx, txHash)
		if ctx.Err() != nil {
			return
		}
		if err == nil && receipt == nil {
			err = fmt.Errorf("empty receipt for %s", txHash.Hex())
		}
		c.post(ctx, &event.ReceiptEvent{
			BaseEvent: event.BaseEvent{Ts: time.Now(), Gen: gen},
			TxHash:    txHash,
			Receipt:   receipt,
			Err:       err,
		})
	}()
}

func (c *Coordinator) schedule(gen uint64, kind event.TimerKind, d time.Duration) *Timer {
	ctx := c.runCtx
	return AfterFunc(d, func() {
		c.post(ctx, &event.TimerEvent{BaseEvent: event.BaseEvent{Ts: time.Now(), Gen: gen}, Kind: kind})
	})
}

func (c *Coordinator) cancelTimers() {
	c.graceTimer.Stop()
	c.resetTimer.Stop()
	c.settleTimer.Stop()
	c.graceTimer, c.resetTimer, c.settleTimer = nil, nil, nil
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
}

// handoff migrates the order into the ledger as Executing. When settlement
// has already been observed the entry completes immediately.
func (c *Coordinator) handoff(order domain.Order, settled bool) {
	if c.deps.Ledger == nil {
		return
	}
	c.deps.Ledger.AddOrder(order)
	if settled {
		if err := c.deps.Ledger.UpdateStatus(order.TxHash, domain.OrderStatusCompleted); err != nil {
			c.logger.Warn("Ledger completion failed", slog.String("tx", order.TxHash.Hex()), slog.Any("error", err))
		}
	}
	c.deps.Metrics.RecordHandoff()
	c.logger.Info("Order handed off to ledger", slog.String("tx", order.TxHash.Hex()), slog.Bool("settled", settled))
}

func (c *Coordinator) publish() {
	snap := Snapshot{
		Progress:      c.state.Progress,
		Order:         c.state.Order.Clone(),
		Processing:    c.state.Processing,
		DecryptStatus: c.state.DecryptStatus,
		Err:           c.state.Err,
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	if c.onStateUpdate != nil {
		c.onStateUpdate(snap)
	}
}
