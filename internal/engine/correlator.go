package engine

import (
	"log/slog"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const maxBufferedSettled = 16

// LogDecoder turns raw market hook logs into typed events.
// Both methods fail for logs of another event or with malformed topics.
type LogDecoder interface {
	ParseOrderPlaced(l types.Log) (domain.OrderPlaced, error)
	ParseOrderSettled(l types.Log) (domain.OrderSettled, error)
}

// Signals is what the correlator extracted from one batch of logs.
type Signals struct {
	Placed  *domain.OrderPlaced
	Settled []domain.OrderSettled
}

// Correlator matches market hook logs against the tracked transaction.
// OrderPlaced is accepted once per tracked hash, either from the live
// subscription or from the receipt logs, whichever comes first.
// It is owned by the coordinator goroutine.
type Correlator struct {
	user    common.Address
	decoder LogDecoder
	logger  *slog.Logger

	txHash     common.Hash
	placedSeen bool
	buffered   []domain.OrderSettled
}

// NewCorrelator creates a correlator for the given account.
func NewCorrelator(user common.Address, decoder LogDecoder, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		user:    user,
		decoder: decoder,
		logger:  logger.With(slog.String("module", "correlator")),
	}
}

// Track starts correlating a newly submitted transaction.
func (c *Correlator) Track(txHash common.Hash) {
	c.txHash = txHash
	c.placedSeen = false
	c.buffered = nil
}

// Clear stops tracking.
func (c *Correlator) Clear() {
	c.Track(common.Hash{})
}

// PlacedSeen reports whether OrderPlaced was accepted for the tracked hash.
func (c *Correlator) PlacedSeen() bool {
	return c.placedSeen
}

// OnLogs handles logs from the live subscription.
func (c *Correlator) OnLogs(logs []types.Log) Signals {
	var sig Signals
	for _, l := range logs {
		if l.Removed {
			c.logger.Debug("Ignoring removed log", slog.String("tx", l.TxHash.Hex()))
			continue
		}

		if placed, err := c.decoder.ParseOrderPlaced(l); err == nil {
			if placed.User != c.user {
				continue
			}
			if c.txHash == (common.Hash{}) || placed.TxHash != c.txHash {
				c.logger.Debug("OrderPlaced for untracked transaction", slog.String("tx", placed.TxHash.Hex()))
				continue
			}
			c.handleOrderPlaced(placed, &sig, "subscription")
			continue
		}

		if settled, err := c.decoder.ParseOrderSettled(l); err == nil {
			if settled.User != c.user {
				continue
			}
			if c.txHash != (common.Hash{}) && !c.placedSeen {
				c.buffer(settled)
			}
			sig.Settled = append(sig.Settled, settled)
			continue
		}

		c.logger.Debug("Undecodable market log", slog.String("tx", l.TxHash.Hex()), slog.Uint64("index", uint64(l.Index)))
	}
	return sig
}

// OnReceipt is the fallback path: when the subscription has not delivered
// OrderPlaced yet, the receipt logs are decoded locally.
func (c *Correlator) OnReceipt(r *types.Receipt) Signals {
	var sig Signals
	if r == nil || r.TxHash != c.txHash || c.placedSeen {
		return sig
	}
	if r.Status != types.ReceiptStatusSuccessful {
		return sig
	}

	for _, l := range r.Logs {
		if l == nil {
			continue
		}
		placed, err := c.decoder.ParseOrderPlaced(*l)
		if err != nil || placed.User != c.user {
			continue
		}
		placed.TxHash = r.TxHash
		c.handleOrderPlaced(placed, &sig, "receipt")
		break
	}
	return sig
}

// handleOrderPlaced is shared by both paths. Buffered settlements are
// replayed after the placement.
func (c *Correlator) handleOrderPlaced(ev domain.OrderPlaced, sig *Signals, source string) {
	if c.placedSeen {
		c.logger.Debug("Duplicate OrderPlaced suppressed", slog.String("source", source))
		return
	}
	if ev.Handle == nil {
		c.logger.Warn("OrderPlaced without handle", slog.String("tx", ev.TxHash.Hex()))
		return
	}

	c.placedSeen = true
	placed := ev
	sig.Placed = &placed
	c.logger.Info("OrderPlaced detected",
		slog.String("source", source),
		slog.String("tx", ev.TxHash.Hex()),
		slog.String("handle", ev.Handle.Text(16)),
	)

	if len(c.buffered) > 0 {
		sig.Settled = append(sig.Settled, c.buffered...)
		c.buffered = nil
	}
}

func (c *Correlator) buffer(ev domain.OrderSettled) {
	if len(c.buffered) >= maxBufferedSettled {
		c.buffered = c.buffered[1:]
	}
	c.buffered = append(c.buffered, ev)
}
