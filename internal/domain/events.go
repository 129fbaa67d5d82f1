package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OrderPlaced is the decoded OrderPlaced(address indexed user, uint256 indexed handle)
// log of the market order hook.
type OrderPlaced struct {
	User        common.Address
	Handle      *big.Int
	TxHash      common.Hash
	BlockNumber uint64
}

// OrderSettled is the decoded OrderSettled(address indexed user, uint256 indexed handle) log.
type OrderSettled struct {
	User        common.Address
	Handle      *big.Int
	TxHash      common.Hash
	BlockNumber uint64
}
