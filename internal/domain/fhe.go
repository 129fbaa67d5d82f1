package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FheType is the encrypted type tag understood by the coprocessor.
// The numeric values match the on-chain utype byte.
type FheType uint8

const (
	FheBool    FheType = 0
	FheUint8   FheType = 2
	FheUint16  FheType = 3
	FheUint32  FheType = 4
	FheUint64  FheType = 5
	FheUint128 FheType = 6
	FheAddress FheType = 7 // uint160
	FheUint256 FheType = 8
)

// MaxUint256 is 2^256-1, the unlimited approval amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// BitWidth returns the plaintext width of the type, or 0 for an unknown tag.
func (t FheType) BitWidth() int {
	switch t {
	case FheBool:
		return 1
	case FheUint8:
		return 8
	case FheUint16:
		return 16
	case FheUint32:
		return 32
	case FheUint64:
		return 64
	case FheUint128:
		return 128
	case FheAddress:
		return 160
	case FheUint256:
		return 256
	default:
		return 0
	}
}

func (t FheType) String() string {
	switch t {
	case FheBool:
		return "ebool"
	case FheAddress:
		return "eaddress"
	default:
		if w := t.BitWidth(); w > 0 {
			return fmt.Sprintf("euint%d", w)
		}
		return fmt.Sprintf("fhe(%d)", uint8(t))
	}
}

// Validate checks that value is representable as a plaintext of type t.
func (t FheType) Validate(value *big.Int) error {
	width := t.BitWidth()
	if width == 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("%w: %s requires a non-negative value", ErrValueOutOfRange, t)
	}
	if value.BitLen() > width {
		return fmt.Errorf("%w: %s does not fit %d bits", ErrValueOutOfRange, value.String(), width)
	}
	return nil
}

// Encryptable is one plaintext queued for encryption.
type Encryptable struct {
	Type  FheType
	Value *big.Int
}

// EncryptedInput is the coprocessor's answer for one Encryptable. CtHash is
// the ciphertext handle passed on-chain.
type EncryptedInput struct {
	CtHash       *big.Int `json:"ctHash"`
	SecurityZone uint8    `json:"securityZone"`
	UType        FheType  `json:"utype"`
	Signature    []byte   `json:"signature"`
}

// BoolPlaintext maps a bool onto the 0/1 plaintext of FheBool.
func BoolPlaintext(v bool) *big.Int {
	if v {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// AddressPlaintext maps an address onto the uint160 plaintext of FheAddress.
func AddressPlaintext(a common.Address) *big.Int {
	return new(big.Int).SetBytes(a.Bytes())
}
