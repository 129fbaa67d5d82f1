package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ApprovalRequest describes one ERC-20 approve call.
type ApprovalRequest struct {
	Owner     common.Address
	Spender   common.Address
	Token     common.Address
	Amount    *big.Int
	Unlimited bool // approve 2^256-1 instead of Amount
}

// ApprovalResult reports the mined approval and the re-read allowance.
type ApprovalResult struct {
	TxHash    common.Hash
	Allowance *big.Int
	HasEnough bool
}

// AllowanceGuard checks and raises token allowances before an order.
// Failures are surfaced, never retried.
type AllowanceGuard struct {
	tokens    domain.TokenContract
	receipts  domain.ReceiptWaiter
	logger    *slog.Logger
	approving atomic.Bool
}

// NewAllowanceGuard creates a guard.
func NewAllowanceGuard(tokens domain.TokenContract, receipts domain.ReceiptWaiter, logger *slog.Logger) *AllowanceGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllowanceGuard{
		tokens:   tokens,
		receipts: receipts,
		logger:   logger.With(slog.String("module", "allowance")),
	}
}

// IsApproving reports whether an approval is in flight.
func (g *AllowanceGuard) IsApproving() bool {
	return g.approving.Load()
}

// CheckAllowance reports whether spender may move at least required tokens.
// A zero requirement never touches the network.
func (g *AllowanceGuard) CheckAllowance(ctx context.Context, owner, spender, token common.Address, required *big.Int) (bool, error) {
	if required == nil || required.Sign() <= 0 {
		return true, nil
	}
	current, err := g.tokens.Allowance(ctx, token, owner, spender)
	if err != nil {
		return false, &domain.AllowanceError{Op: "allowance", Err: err}
	}
	return current.Cmp(required) >= 0, nil
}

// Approve sends approve, waits for the receipt and re-reads the allowance.
func (g *AllowanceGuard) Approve(ctx context.Context, req ApprovalRequest) (ApprovalResult, error) {
	amount := req.Amount
	if req.Unlimited {
		amount = domain.MaxUint256
	}
	if amount == nil || amount.Sign() <= 0 {
		return ApprovalResult{}, &domain.AllowanceError{Op: "approve", Err: fmt.Errorf("amount must be positive")}
	}

	if !g.approving.CompareAndSwap(false, true) {
		return ApprovalResult{}, &domain.AllowanceError{Op: "approve", Err: fmt.Errorf("approval already in progress")}
	}
	defer g.approving.Store(false)

	g.logger.Info("Sending approval",
		slog.String("token", req.Token.Hex()),
		slog.String("spender", req.Spender.Hex()),
		slog.Bool("unlimited", req.Unlimited),
	)

	txHash, err := g.tokens.Approve(ctx, req.Token, req.Spender, amount)
	if err != nil {
		return ApprovalResult{}, &domain.AllowanceError{Op: "approve", Err: err}
	}

	receipt, err := g.receipts.WaitReceipt(ctx, txHash)
	if err != nil {
		return ApprovalResult{TxHash: txHash}, &domain.AllowanceError{Op: "approve", Err: err}
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return ApprovalResult{TxHash: txHash}, &domain.AllowanceError{Op: "approve", Err: domain.ErrReceiptReverted}
	}

	current, err := g.tokens.Allowance(ctx, req.Token, req.Owner, req.Spender)
	if err != nil {
		return ApprovalResult{TxHash: txHash}, &domain.AllowanceError{Op: "allowance", Err: err}
	}

	required := req.Amount
	if required == nil {
		required = new(big.Int)
	}
	res := ApprovalResult{TxHash: txHash, Allowance: current, HasEnough: current.Cmp(required) >= 0}
	g.logger.Info("Approval confirmed", slog.String("tx", txHash.Hex()), slog.Bool("has_enough", res.HasEnough))
	return res, nil
}
