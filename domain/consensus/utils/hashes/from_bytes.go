package hashes

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// FromBytes creates a DomainHash from the given byte slice
func FromBytes(hashBytes []byte) (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}
