package chain

import (
	"errors"
	"fmt"
	"math/big"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrUnknownEvent is returned for logs of another event.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformedLog is returned when topics or data do not match the event.
	ErrMalformedLog = errors.New("malformed log")
)

// Decoder turns market hook logs into typed events.
type Decoder struct {
	placed  abi.Event
	settled abi.Event
}

// NewDecoder creates a decoder for the market order hook events.
func NewDecoder() *Decoder {
	return &Decoder{
		placed:  marketOrderABI.Events["OrderPlaced"],
		settled: marketOrderABI.Events["OrderSettled"],
	}
}

// Topics returns the event signatures a log subscription should filter on.
func (d *Decoder) Topics() []common.Hash {
	return []common.Hash{d.placed.ID, d.settled.ID}
}

// ParseOrderPlaced decodes an OrderPlaced log.
func (d *Decoder) ParseOrderPlaced(l types.Log) (domain.OrderPlaced, error) {
	user, handle, err := d.parseUserHandle(d.placed, l)
	if err != nil {
		return domain.OrderPlaced{}, err
	}
	return domain.OrderPlaced{User: user, Handle: handle, TxHash: l.TxHash, BlockNumber: l.BlockNumber}, nil
}

// ParseOrderSettled decodes an OrderSettled log.
func (d *Decoder) ParseOrderSettled(l types.Log) (domain.OrderSettled, error) {
	user, handle, err := d.parseUserHandle(d.settled, l)
	if err != nil {
		return domain.OrderSettled{}, err
	}
	return domain.OrderSettled{User: user, Handle: handle, TxHash: l.TxHash, BlockNumber: l.BlockNumber}, nil
}

func (d *Decoder) parseUserHandle(ev abi.Event, l types.Log) (common.Address, *big.Int, error) {
	fields, err := d.parse(ev, l)
	if err != nil {
		return common.Address{}, nil, err
	}
	user, ok := fields["user"].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("%w: %s without user", ErrMalformedLog, ev.Name)
	}
	handle, ok := fields["handle"].(*big.Int)
	if !ok || handle == nil {
		return common.Address{}, nil, fmt.Errorf("%w: %s without handle", ErrMalformedLog, ev.Name)
	}
	return user, handle, nil
}

func (d *Decoder) parse(ev abi.Event, l types.Log) (map[string]interface{}, error) {
	if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
		return nil, ErrUnknownEvent
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(l.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("%w: %s expects %d topics, got %d", ErrMalformedLog, ev.Name, len(indexed)+1, len(l.Topics))
	}

	fields := make(map[string]interface{})
	if len(l.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(fields, l.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	return fields, nil
}
