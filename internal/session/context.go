package session

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Environment is the coprocessor environment derived from the chain id.
type Environment string

const (
	EnvMainnet Environment = "MAINNET"
	EnvTestnet Environment = "TESTNET"
	EnvMock    Environment = "MOCK"
	EnvUnknown Environment = "UNKNOWN"
)

// EnvironmentFor maps a chain id onto its coprocessor environment.
func EnvironmentFor(chainID *big.Int) Environment {
	if chainID == nil || !chainID.IsUint64() {
		return EnvUnknown
	}
	switch chainID.Uint64() {
	case 1, 42161: // ethereum, arbitrum one
		return EnvMainnet
	case 11155111, 421614: // sepolia, arbitrum sepolia
		return EnvTestnet
	case 31337: // local hardhat/anvil
		return EnvMock
	default:
		return EnvUnknown
	}
}

// State is a copy of the session at one point in time.
type State struct {
	ID          string
	Account     common.Address
	ChainID     *big.Int
	Environment Environment
	Initialized bool
	InitErr     error
}

// Context is the injected session shared by the gateway and the CLI.
// Subscribe is its only notification point.
type Context struct {
	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// New creates an unbound session with a fresh id.
func New() *Context {
	return &Context{
		state: State{ID: uuid.New().String(), Environment: EnvUnknown},
		subs:  make(map[int]chan State),
	}
}

// State returns a copy of the current session.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

// ID returns the session id.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ID
}

// IsInitialized reports whether the oracle session is ready.
func (c *Context) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Initialized
}

// Bind sets the connected account and chain. Any previous initialization is
// invalidated.
func (c *Context) Bind(account common.Address, chainID *big.Int) {
	c.update(func(s *State) {
		s.Account = account
		if chainID != nil {
			s.ChainID = new(big.Int).Set(chainID)
		} else {
			s.ChainID = nil
		}
		s.Environment = EnvironmentFor(chainID)
		s.Initialized = false
		s.InitErr = nil
	})
}

// MarkInitialized records the oracle initialization outcome.
func (c *Context) MarkInitialized(err error) {
	c.update(func(s *State) {
		s.Initialized = err == nil
		s.InitErr = err
	})
}

// Subscribe returns a channel receiving the latest state after each change
// and a cancel func. Slow readers only miss intermediate states.
func (c *Context) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Context) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(&c.state)
	snap := c.copyLocked()
	for _, ch := range c.subs {
		// latest wins
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Context) copyLocked() State {
	s := c.state
	if s.ChainID != nil {
		s.ChainID = new(big.Int).Set(s.ChainID)
	}
	return s
}
