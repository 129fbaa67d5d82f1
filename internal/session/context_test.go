package session

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestEnvironmentFor(t *testing.T) {
	tests := []struct {
		chainID int64
		want    Environment
	}{
		{1, EnvMainnet},
		{42161, EnvMainnet},
		{11155111, EnvTestnet},
		{421614, EnvTestnet},
		{31337, EnvMock},
		{10, EnvUnknown},
	}
	for _, tt := range tests {
		if got := EnvironmentFor(big.NewInt(tt.chainID)); got != tt.want {
			t.Errorf("EnvironmentFor(%d) = %s, want %s", tt.chainID, got, tt.want)
		}
	}
	if EnvironmentFor(nil) != EnvUnknown {
		t.Error("nil chain id should be UNKNOWN")
	}
}

func TestContext_BindAndInitialize(t *testing.T) {
	c := New()
	if c.ID() == "" {
		t.Fatal("session id should be set")
	}

	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	c.Bind(account, big.NewInt(11155111))
	if c.IsInitialized() {
		t.Fatal("bind must not mark the session initialized")
	}

	c.MarkInitialized(nil)
	s := c.State()
	if !s.Initialized || s.Account != account || s.Environment != EnvTestnet {
		t.Errorf("unexpected state: %+v", s)
	}

	c.MarkInitialized(errors.New("permit rejected"))
	if c.IsInitialized() {
		t.Error("failed initialization must clear the flag")
	}
	if c.State().InitErr == nil {
		t.Error("InitErr should be surfaced")
	}
}

func TestContext_Subscribe(t *testing.T) {
	c := New()
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Bind(common.Address{}, big.NewInt(31337))
	c.MarkInitialized(nil)

	select {
	case s := <-ch:
		if !s.Initialized {
			t.Errorf("expected latest state to be initialized, got %+v", s)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for session update")
	}

	cancel()
	cancel() // idempotent
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
}
