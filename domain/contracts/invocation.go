package contracts

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// InvocationKind tells whether an invocation deploys a new contract or
// calls an existing one.
type InvocationKind uint8

const (
	// InvocationKindCreate deploys the invocation data as the code of a
	// new contract.
	InvocationKindCreate InvocationKind = iota

	// InvocationKindCall calls an existing contract with the invocation
	// data as its input.
	InvocationKindCall
)

func (kind InvocationKind) String() string {
	switch kind {
	case InvocationKindCreate:
		return "create"
	case InvocationKindCall:
		return "call"
	}
	return "unknown"
}

// Invocation is a single contract invocation carried by a transaction output.
type Invocation struct {
	OutputIndex uint32
	Kind        InvocationKind
	Version     uint32
	GasLimit    uint64
	GasPrice    uint64
	Data        []byte

	// Contract is the called contract. For InvocationKindCreate it is the
	// address the new contract is deployed at.
	Contract externalapi.DomainAddress

	// Value is the amount the output sends to the contract.
	Value uint64
}

// ContractPayload is the set of contract invocations carried by a
// transaction, in output order.
type ContractPayload struct {
	Invocations []*Invocation
}

// ContractAddress returns the address of the contract deployed by the given
// output of the given transaction.
func ContractAddress(txID *externalapi.DomainTransactionID, outputIndex uint32) externalapi.DomainAddress {
	var indexBytes [4]byte
	binary.LittleEndian.PutUint32(indexBytes[:], outputIndex)

	preimage := append(txID.ByteSlice(), indexBytes[:]...)
	var address externalapi.DomainAddress
	copy(address[:], btcutil.Hash160(preimage))
	return address
}
