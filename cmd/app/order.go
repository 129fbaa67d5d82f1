package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"cipher_go/internal/app"
	"cipher_go/internal/domain"
	"cipher_go/internal/engine"
	"cipher_go/internal/ledger"
	"cipher_go/internal/service"

	"github.com/ethereum/go-ethereum/common"
)

const (
	settlePollInterval = 200 * time.Millisecond
	balanceTimeout     = 5 * time.Second
)

type orderFlags struct {
	From      string
	To        string
	Amount    string
	Unlimited bool
}

// runOrder places one order end to end and returns once it is in the ledger.
func runOrder(ctx context.Context, b *app.Bootstrap, progress *progressPrinter, f orderFlags) error {
	from, ok := b.Config.Token(f.From)
	if !ok {
		return fmt.Errorf("unknown token %q", f.From)
	}
	to, ok := b.Config.Token(f.To)
	if !ok {
		return fmt.Errorf("unknown token %q", f.To)
	}
	if from.Address == to.Address {
		return errors.New("from and to must be different tokens")
	}
	raw, err := domain.ParseUnits(f.Amount, from.Decimals)
	if err != nil {
		return err
	}
	if raw.Sign() == 0 {
		return errors.New("amount must be positive")
	}

	account := b.Chain.Account()
	hook := common.HexToAddress(b.Config.Chain.MarketOrderHook)

	activityCtx, stopActivity := context.WithCancel(ctx)
	defer stopActivity()
	go watchActivity(activityCtx, progress.w, activityInterval,
		busyFlag{label: "Approving", busy: b.Allowance.IsApproving},
		busyFlag{label: "Encrypting", busy: b.Encryption.IsEncrypting},
	)

	balance, err := b.Chain.BalanceOf(ctx, from.Address, account)
	if err != nil {
		return fmt.Errorf("failed to read %s balance: %w", from.Symbol, err)
	}
	if balance.Cmp(raw) < 0 {
		return fmt.Errorf("insufficient %s balance: %s", from.Symbol, domain.FormatBalance(balance, from.Decimals))
	}

	enough, err := b.Allowance.CheckAllowance(ctx, account, hook, from.Address, raw)
	if err != nil {
		return err
	}
	if !enough {
		res, err := b.Allowance.Approve(ctx, service.ApprovalRequest{
			Owner:     account,
			Spender:   hook,
			Token:     from.Address,
			Amount:    raw,
			Unlimited: f.Unlimited,
		})
		if err != nil {
			return err
		}
		if !res.HasEnough {
			return fmt.Errorf("allowance still below %s %s after approval", f.Amount, from.Symbol)
		}
	}

	if q := waitQuote(ctx, b.Quotes, service.QuoteParams{From: from, To: to, Amount: f.Amount}); q.Err != nil {
		slog.Warn("Quote unavailable", slog.Any("error", q.Err))
	} else {
		slog.Info("💱 Expected output", slog.String("amount", q.Amount.String()), slog.String("token", to.Symbol))
	}

	if !b.Session.IsInitialized() {
		slog.Info("Retrying encryption oracle handshake")
		initErr := b.Oracle.Initialize(ctx, account, b.Chain.ChainID())
		b.Session.MarkInitialized(initErr)
		if initErr != nil {
			return fmt.Errorf("encryption oracle unavailable: %w", initErr)
		}
	}

	input, err := b.Encryption.Encrypt(ctx, domain.FheUint128, raw)
	if err != nil {
		return err
	}

	if err := b.Coordinator.PlaceOrder(ctx, engine.OrderRequest{From: from, To: to, Amount: f.Amount, Input: input}); err != nil {
		return err
	}
	return waitSettled(ctx, b.Ledger, progress)
}

// waitQuote refreshes the quote and waits for its outcome.
func waitQuote(ctx context.Context, feed *service.QuoteFeed, p service.QuoteParams) service.QuoteState {
	feed.Update(ctx, p)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		s := feed.State()
		if !s.Loading {
			return s
		}
		select {
		case <-ctx.Done():
			return service.QuoteState{Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// waitSettled blocks until the submitted order is completed in the ledger or
// the active order fails.
func waitSettled(ctx context.Context, l *ledger.Ledger, progress *progressPrinter) error {
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		tx, err := progress.Result()
		if err != nil {
			return err
		}
		if tx != (common.Hash{}) {
			if order, ok := l.Get(tx); ok && order.Status == domain.OrderStatusCompleted {
				slog.Info("🎉 Order completed", slog.String("tx", tx.Hex()))
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// progressPrinter renders step changes and remembers the outcome of the
// active order. OnUpdate runs on the coordinator goroutine.
type progressPrinter struct {
	w io.Writer

	mu   sync.Mutex
	last string
	tx   common.Hash
	err  error
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) OnUpdate(s engine.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Order.IsSubmitted() {
		p.tx = s.Order.TxHash
	}
	if s.Err != nil && p.err == nil {
		p.err = s.Err
	}
	if !s.Processing && s.Err == nil {
		return
	}

	line := fmt.Sprintf("[%s] %s", s.ActiveStage(), renderSteps(s.Progress.Steps()))
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.w, line)
}

// Result returns the last submitted transaction and the first failure.
func (p *progressPrinter) Result() (common.Hash, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx, p.err
}

func renderSteps(steps []domain.Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Title, s.State))
	}
	return strings.Join(parts, " | ")
}

// printLedger writes the session ledger and the current token balances.
func printLedger(w io.Writer, b *app.Bootstrap) {
	orders := ledger.Dedup(b.Ledger.ListOrders(), b.Logger)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TX\tPAIR\tAMOUNT\tSTATUS\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\t%s\n",
			shortHash(o.TxHash), o.FromToken.Symbol, o.ToToken.Symbol, o.Amount, o.Status, o.Timestamp.Format(time.RFC3339))
	}
	tw.Flush()
	fmt.Fprintf(w, "Queued: %d\n", b.Ledger.QueuedCount())
	if b.History != nil {
		printHistory(w, b.History)
	}

	ctx, cancel := context.WithTimeout(context.Background(), balanceTimeout)
	defer cancel()
	account := b.Chain.Account()
	for _, tc := range b.Config.Chain.Tokens {
		token, _ := b.Config.Token(tc.Symbol)
		bal, err := b.Chain.BalanceOf(ctx, token.Address, account)
		if err != nil {
			slog.Warn("Failed to read balance", slog.String("token", token.Symbol), slog.Any("error", err))
			continue
		}
		fmt.Fprintf(w, "%s balance: %s\n", token.Symbol, domain.FormatBalance(bal, token.Decimals))
	}
}

// historyCounter is the part of the order history printed at exit.
type historyCounter interface {
	CountByStatus(status domain.OrderStatus) (int64, error)
}

func printHistory(w io.Writer, h historyCounter) {
	parts := make([]string, 0, 3)
	for _, st := range []domain.OrderStatus{domain.OrderStatusExecuting, domain.OrderStatusCompleted, domain.OrderStatusFailed} {
		n, err := h.CountByStatus(st)
		if err != nil {
			slog.Warn("Failed to count order history", slog.String("status", string(st)), slog.Any("error", err))
			return
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(st))))
	}
	fmt.Fprintf(w, "History: %s\n", strings.Join(parts, ", "))
}

func shortHash(h common.Hash) string {
	s := h.Hex()
	return s[:10] + "…" + s[len(s)-6:]
}
