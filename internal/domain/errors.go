package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "dial", "eth_call", "encrypt")
	Err       error
	Retriable bool
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// EncryptionError is returned by the encryption gateway. Err is one of the
// oracle sentinels below, possibly wrapping the transport failure.
type EncryptionError struct {
	Err error
}

func (e *EncryptionError) Error() string {
	return "encryption failed: " + e.Err.Error()
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// AllowanceError is returned by allowance reads and approvals.
type AllowanceError struct {
	Op  string // "allowance" or "approve"
	Err error
}

func (e *AllowanceError) Error() string {
	return "allowance " + e.Op + ": " + e.Err.Error()
}

func (e *AllowanceError) Unwrap() error {
	return e.Err
}

// SubmissionKind classifies why an order transaction did not go through.
type SubmissionKind string

const (
	SubmissionRejected SubmissionKind = "rejected" // signer refused
	SubmissionRPC      SubmissionKind = "rpc"
	SubmissionGas      SubmissionKind = "gas"
	SubmissionReverted SubmissionKind = "reverted"
)

// SubmissionError is the only error the state machine receives for a failed
// PlaceMarketOrder.
type SubmissionError struct {
	Kind SubmissionKind
	Err  error
}

func (e *SubmissionError) Error() string {
	return "order submission " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) IsRetriable() bool {
	return e.Kind == SubmissionRPC
}

// QuoteError is surfaced by the quote feed. Timeout distinguishes the local
// timer from an upstream failure.
type QuoteError struct {
	Timeout bool
	Err     error
}

func (e *QuoteError) Error() string {
	return "quote: " + e.Err.Error()
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

var (
	// ErrConnectionFailed is returned when websocket connection fails. It's usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")

	ErrOracleUninitialized  = errors.New("encryption oracle not initialized")
	ErrOracleRejected       = errors.New("encryption oracle rejected request")
	ErrEncryptionInProgress = errors.New("encryption already in progress")
	ErrUnsupportedType      = errors.New("unsupported encrypted type")
	ErrValueOutOfRange      = errors.New("plaintext out of range")

	ErrQuoteTimeout = errors.New("quote timeout")

	// ErrOrderInFlight is returned when a second order is started while one is processing.
	ErrOrderInFlight     = errors.New("an order is already in flight")
	ErrNoEncryptedHandle = errors.New("order has no encrypted handle")

	ErrUnknownOrder   = errors.New("order not found")
	ErrTerminalStatus = errors.New("order status is terminal")

	ErrReceiptReverted = errors.New("transaction reverted")
)
