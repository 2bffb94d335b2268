package externalapi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainAddressSize is the size of a DomainAddress in bytes.
const DomainAddressSize = 20

// DomainAddress identifies an account inside the world state: either the
// hash160 of a public key that controls coins, or the id of a contract.
type DomainAddress [DomainAddressSize]byte

// NewDomainAddressFromByteSlice constructs a DomainAddress out of a byte slice.
func NewDomainAddressFromByteSlice(addressBytes []byte) (DomainAddress, error) {
	var address DomainAddress
	if len(addressBytes) != DomainAddressSize {
		return address, errors.Errorf("invalid address size. Want: %d, got: %d",
			DomainAddressSize, len(addressBytes))
	}
	copy(address[:], addressBytes)
	return address, nil
}

// String returns the address as a hexadecimal string.
func (address DomainAddress) String() string {
	return hex.EncodeToString(address[:])
}

// IsZero returns whether all the bytes of the address are 0x00
func (address DomainAddress) IsZero() bool {
	return address == DomainAddress{}
}
