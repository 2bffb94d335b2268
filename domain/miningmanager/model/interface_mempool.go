package model

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// MiningDesc is a mempool transaction together with the metadata the
// block template builder needs
type MiningDesc struct {
	Transaction *externalapi.DomainTransaction
	Fee         uint64
	Mass        uint64
}

// Mempool maintains a set of known transactions that
// are intended to be mined into new blocks
type Mempool interface {
	// MiningDescs returns the pool's transactions in mining priority order
	MiningDescs() []*MiningDesc
	HandleNewBlock(block *externalapi.DomainBlock) error
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error
	RemoveTransactions(transactions []*externalapi.DomainTransaction) error
	Transactions() []*externalapi.DomainTransaction
	TransactionCount() int
}
