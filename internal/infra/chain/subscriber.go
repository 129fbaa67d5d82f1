package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cipher_go/internal/domain"
	"cipher_go/internal/event"
	"cipher_go/internal/infra"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"
)

const (
	wsMaxRetries   = 10
	wsBaseDelay    = 1 * time.Second
	wsMaxDelay     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type logFilter struct {
	Address []common.Address `json:"address"`
	Topics  [][]common.Hash  `json:"topics"`
}

// rpcMessage covers both the subscribe response and notifications.
type rpcMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Subscriber streams market hook logs over eth_subscribe and posts them to
// the coordinator inbox. It reconnects with exponential backoff.
type Subscriber struct {
	url     string
	filter  logFilter
	inbox   chan<- event.Event
	metrics *infra.Metrics
	logger  *slog.Logger

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	subID     string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ domain.StreamWorker = (*Subscriber)(nil)

// NewSubscriber creates a subscriber for logs of hook with the given topics.
func NewSubscriber(url string, hook common.Address, topics []common.Hash, inbox chan<- event.Event, metrics *infra.Metrics, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		url:     url,
		filter:  logFilter{Address: []common.Address{hook}, Topics: [][]common.Hash{topics}},
		inbox:   inbox,
		metrics: metrics,
		logger:  logger.With(slog.String("module", "subscriber")),
	}
}

// FilterUser narrows the subscription to logs whose first indexed argument
// is user. It must be called before Connect.
func (s *Subscriber) FilterUser(user common.Address) {
	s.filter.Topics = [][]common.Hash{s.filter.Topics[0], {common.BytesToHash(user.Bytes())}}
}

// Connect starts the WebSocket connection with automatic reconnection
func (s *Subscriber) Connect(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.connectionLoop(ctx)

	return nil
}

// connectionLoop handles connection and reconnection with exponential backoff
func (s *Subscriber) connectionLoop(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Subscriber panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	connected := false
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Subscriber connection loop stopped")
			return
		default:
		}

		if err := s.connect(ctx); err != nil {
			s.logger.Warn("Log subscription failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := infra.CalculateBackoff(wsBaseDelay, wsMaxDelay, retryCount)
			retryCount++
			if retryCount > wsMaxRetries {
				s.logger.Error("Subscriber max retries exceeded, resetting counter")
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		if connected {
			s.requestResync(ctx)
		}
		connected = true
		s.readLoop(ctx)
	}
}

// connect dials and waits for the eth_subscribe response.
func (s *Subscriber) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := s.subscribe(conn); err != nil {
		s.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	s.metrics.SetStreamConnected(true)

	s.logger.Info("Log subscription established", slog.String("subscription", s.subID))
	return nil
}

func (s *Subscriber) subscribe(conn *websocket.Conn) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []interface{}{"logs", s.filter},
	}
	msg, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := s.threadSafeWrite(websocket.TextMessage, msg); err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	var resp rpcMessage
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("eth_subscribe: %s (%d)", resp.Error.Message, resp.Error.Code)
	}
	var id string
	if err := json.Unmarshal(resp.Result, &id); err != nil || id == "" {
		return errors.New("eth_subscribe: missing subscription id")
	}

	s.mu.Lock()
	s.subID = id
	s.mu.Unlock()
	return nil
}

// threadSafeWrite sends a message to the WebSocket connection in a thread-safe manner
func (s *Subscriber) threadSafeWrite(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return errors.New("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

// readLoop reads notifications until the connection fails.
func (s *Subscriber) readLoop(ctx context.Context) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	s.wg.Add(1)
	go s.pingLoop(ctx, pingDone)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Subscriber read error", slog.Any("error", err))
			}
			s.closeConnection()
			return
		}

		s.handleMessage(ctx, message)
	}
}

func (s *Subscriber) pingLoop(ctx context.Context, done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := s.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("Ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

// handleMessage decodes a log notification and posts it without blocking.
func (s *Subscriber) handleMessage(ctx context.Context, message []byte) {
	var msg rpcMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.logger.Debug("Subscriber message parse error", slog.Any("error", err))
		return
	}
	if msg.Method != "eth_subscription" || len(msg.Params.Result) == 0 {
		return
	}

	var l types.Log
	if err := json.Unmarshal(msg.Params.Result, &l); err != nil {
		s.logger.Debug("Subscriber log parse error", slog.Any("error", err))
		return
	}

	ev := &event.LogsEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}, Logs: []types.Log{l}}
	select {
	case s.inbox <- ev:
	case <-ctx.Done():
	default:
		s.metrics.RecordDroppedEvent()
		s.logger.Warn("Inbox full, dropping log", slog.String("tx", l.TxHash.Hex()))
	}
}

// requestResync asks the coordinator to backfill what was missed while the
// subscription was down.
func (s *Subscriber) requestResync(ctx context.Context) {
	ev := &event.ResyncEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}}
	select {
	case s.inbox <- ev:
		s.logger.Info("Log subscription restored, requesting resync")
	case <-ctx.Done():
	default:
		s.metrics.RecordDroppedEvent()
		s.logger.Warn("Inbox full, dropping resync request")
	}
}

// closeConnection safely closes the WebSocket connection
func (s *Subscriber) closeConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.connected {
		s.metrics.SetStreamConnected(false)
	}
	s.connected = false
	s.subID = ""
}

// Disconnect closes the WebSocket connection
func (s *Subscriber) Disconnect() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeConnection()
	s.wg.Wait()
	s.logger.Info("Subscriber disconnected")
}

// IsConnected returns connection status
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}
