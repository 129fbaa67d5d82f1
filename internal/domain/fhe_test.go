package domain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestFheType_Validate(t *testing.T) {
	tests := []struct {
		name    string
		typ     FheType
		value   *big.Int
		wantErr error
	}{
		{"bool zero", FheBool, big.NewInt(0), nil},
		{"bool one", FheBool, big.NewInt(1), nil},
		{"bool two", FheBool, big.NewInt(2), ErrValueOutOfRange},
		{"uint8 max", FheUint8, big.NewInt(255), nil},
		{"uint8 overflow", FheUint8, big.NewInt(256), ErrValueOutOfRange},
		{"uint128 negative", FheUint128, big.NewInt(-1), ErrValueOutOfRange},
		{"uint256 max", FheUint256, MaxUint256, nil},
		{"nil value", FheUint64, nil, ErrValueOutOfRange},
		{"unknown tag", FheType(42), big.NewInt(1), ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAddressPlaintext(t *testing.T) {
	addr := common.HexToAddress("0x2f4eD4942BdF443aE5da11ac3cAB7bee8d6FaF45")
	v := AddressPlaintext(addr)

	if err := FheAddress.Validate(v); err != nil {
		t.Fatalf("address should fit uint160: %v", err)
	}
	if common.BigToAddress(v) != addr {
		t.Errorf("round trip mismatch: %s", common.BigToAddress(v).Hex())
	}
}

func TestFheType_String(t *testing.T) {
	if FheUint128.String() != "euint128" {
		t.Errorf("got %s", FheUint128.String())
	}
	if FheBool.String() != "ebool" {
		t.Errorf("got %s", FheBool.String())
	}
}
