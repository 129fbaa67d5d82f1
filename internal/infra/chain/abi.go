package chain

import (
	"fmt"
	"math/big"
	"strings"

	"cipher_go/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// placeMarketOrderGas is the explicit gas limit of an order transaction.
const placeMarketOrderGas uint64 = 1_000_000

const poolKeyComponents = `[
	{"name":"currency0","type":"address"},
	{"name":"currency1","type":"address"},
	{"name":"fee","type":"uint24"},
	{"name":"tickSpacing","type":"int24"},
	{"name":"hooks","type":"address"}
]`

var marketOrderABIJSON = `[
	{
		"type":"function","name":"placeMarketOrder","stateMutability":"nonpayable",
		"inputs":[
			{"name":"key","type":"tuple","components":` + poolKeyComponents + `},
			{"name":"zeroForOne","type":"bool"},
			{"name":"liquidity","type":"tuple","components":[
				{"name":"ctHash","type":"uint256"},
				{"name":"securityZone","type":"uint8"},
				{"name":"utype","type":"uint8"},
				{"name":"signature","type":"bytes"}
			]}
		],
		"outputs":[]
	},
	{
		"type":"function","name":"getOrderDecryptStatus","stateMutability":"view",
		"inputs":[{"name":"handle","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]
	},
	{
		"type":"event","name":"OrderPlaced","anonymous":false,
		"inputs":[
			{"name":"user","type":"address","indexed":true},
			{"name":"handle","type":"uint256","indexed":true}
		]
	},
	{
		"type":"event","name":"OrderSettled","anonymous":false,
		"inputs":[
			{"name":"user","type":"address","indexed":true},
			{"name":"handle","type":"uint256","indexed":true}
		]
	}
]`

var quoterABIJSON = `[
	{
		"type":"function","name":"quoteExactInputSingle","stateMutability":"nonpayable",
		"inputs":[
			{"name":"params","type":"tuple","components":[
				{"name":"poolKey","type":"tuple","components":` + poolKeyComponents + `},
				{"name":"zeroForOne","type":"bool"},
				{"name":"exactAmount","type":"uint128"},
				{"name":"hookData","type":"bytes"}
			]}
		],
		"outputs":[
			{"name":"amountOut","type":"uint256"},
			{"name":"gasEstimate","type":"uint256"}
		]
	}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	marketOrderABI = mustParseABI("market order hook", marketOrderABIJSON)
	quoterABI      = mustParseABI("quoter", quoterABIJSON)
	erc20ABI       = mustParseABI("erc20", erc20ABIJSON)
)

func mustParseABI(name, def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid %s abi: %v", name, err))
	}
	return parsed
}

// Tuple arguments. Field names follow the abi component names.

type poolKeyArg struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

type encryptedArg struct {
	CtHash       *big.Int
	SecurityZone uint8
	Utype        uint8
	Signature    []byte
}

type quoteParamsArg struct {
	PoolKey     poolKeyArg
	ZeroForOne  bool
	ExactAmount *big.Int
	HookData    []byte
}

func toPoolKeyArg(k domain.PoolKey) poolKeyArg {
	return poolKeyArg{
		Currency0:   k.Currency0,
		Currency1:   k.Currency1,
		Fee:         k.Fee,
		TickSpacing: k.TickSpacing,
		Hooks:       k.Hooks,
	}
}

func toEncryptedArg(in domain.EncryptedInput) encryptedArg {
	sig := in.Signature
	if sig == nil {
		sig = []byte{}
	}
	return encryptedArg{
		CtHash:       in.CtHash,
		SecurityZone: in.SecurityZone,
		Utype:        uint8(in.UType),
		Signature:    sig,
	}
}
