package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"

	"cipher_go/internal/domain"
)

// SessionState is the part of the session the gateway depends on.
type SessionState interface {
	IsInitialized() bool
}

// EncryptionGateway turns plaintext order parameters into ciphertext handles
// through the coprocessor. One encryption runs at a time.
type EncryptionGateway struct {
	oracle     domain.EncryptionOracle
	session    SessionState
	logger     *slog.Logger
	encrypting atomic.Bool
}

// NewEncryptionGateway creates a gateway bound to the session.
func NewEncryptionGateway(oracle domain.EncryptionOracle, session SessionState, logger *slog.Logger) *EncryptionGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &EncryptionGateway{
		oracle:  oracle,
		session: session,
		logger:  logger.With(slog.String("module", "encryption")),
	}
}

// IsEncrypting reports whether an oracle call is in progress.
func (g *EncryptionGateway) IsEncrypting() bool {
	return g.encrypting.Load()
}

// Encrypt validates and encrypts one plaintext.
func (g *EncryptionGateway) Encrypt(ctx context.Context, fheType domain.FheType, plaintext *big.Int) (domain.EncryptedInput, error) {
	if err := fheType.Validate(plaintext); err != nil {
		return domain.EncryptedInput{}, err
	}
	if g.session == nil || !g.session.IsInitialized() {
		return domain.EncryptedInput{}, &domain.EncryptionError{Err: domain.ErrOracleUninitialized}
	}
	if !g.encrypting.CompareAndSwap(false, true) {
		return domain.EncryptedInput{}, domain.ErrEncryptionInProgress
	}
	defer g.encrypting.Store(false)

	g.logger.Debug("Encrypting input", slog.String("type", fheType.String()))

	out, err := g.oracle.Encrypt(ctx, []domain.Encryptable{{Type: fheType, Value: new(big.Int).Set(plaintext)}})
	if err != nil {
		g.logger.Warn("Encryption failed", slog.Any("error", err))
		return domain.EncryptedInput{}, classifyOracleError(err)
	}
	if len(out) != 1 || out[0].CtHash == nil {
		return domain.EncryptedInput{}, &domain.EncryptionError{
			Err: fmt.Errorf("%w: expected one ciphertext, got %d", domain.ErrOracleRejected, len(out)),
		}
	}

	g.logger.Info("Input encrypted", slog.String("type", fheType.String()), slog.String("ct_hash", out[0].CtHash.Text(16)))
	return out[0], nil
}

// classifyOracleError keeps uninitialized sessions apart from rejections.
func classifyOracleError(err error) error {
	var ee *domain.EncryptionError
	if errors.As(err, &ee) {
		return ee
	}
	if errors.Is(err, domain.ErrOracleUninitialized) {
		return &domain.EncryptionError{Err: err}
	}
	if errors.Is(err, domain.ErrOracleRejected) {
		return &domain.EncryptionError{Err: err}
	}
	return &domain.EncryptionError{Err: fmt.Errorf("%w: %w", domain.ErrOracleRejected, err)}
}
