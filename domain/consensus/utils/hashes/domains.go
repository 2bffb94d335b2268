package hashes

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	transcationHashDomain = "TransactionHash"
	transcationIDDomain   = "TransactionID"
	blockDomain           = "BlockHash"
	merkleBranchDomain    = "MerkleBranchHash"
	stateNodeDomain       = "StateNodeHash"
	stateValueDomain      = "StateValueHash"
	stateKeyDomain        = "StateKeyPath"
)

func newDomainWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// NewTransactionHashWriter Returns a new HashWriter used for transaction hashes
func NewTransactionHashWriter() HashWriter {
	return newDomainWriter(transcationHashDomain)
}

// NewTransactionIDWriter Returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return newDomainWriter(transcationIDDomain)
}

// NewBlockHashWriter Returns a new HashWriter used for hashing blocks
func NewBlockHashWriter() HashWriter {
	return newDomainWriter(blockDomain)
}

// NewMerkleBranchHashWriter Returns a new HashWriter used for a merkle tree branch
func NewMerkleBranchHashWriter() HashWriter {
	return newDomainWriter(merkleBranchDomain)
}

// NewStateNodeHashWriter Returns a new HashWriter used for state tree nodes
func NewStateNodeHashWriter() HashWriter {
	return newDomainWriter(stateNodeDomain)
}

// NewStateValueHashWriter Returns a new HashWriter used for values stored in the state tree
func NewStateValueHashWriter() HashWriter {
	return newDomainWriter(stateValueDomain)
}

// NewStateKeyPathWriter Returns a new HashWriter used to turn state keys into tree paths
func NewStateKeyPathWriter() HashWriter {
	return newDomainWriter(stateKeyDomain)
}
