package model

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

// MempoolTransaction represents a transaction inside the TransactionsPool
type MempoolTransaction struct {
	transaction   *externalapi.DomainTransaction
	transactionID *externalapi.DomainTransactionID
	arrivalIndex  uint64
}

// NewMempoolTransaction constructs a new MempoolTransaction. transaction
// must have its Fee and Mass populated.
func NewMempoolTransaction(transaction *externalapi.DomainTransaction, arrivalIndex uint64) *MempoolTransaction {
	return &MempoolTransaction{
		transaction:   transaction,
		transactionID: consensushashing.TransactionID(transaction),
		arrivalIndex:  arrivalIndex,
	}
}

// TransactionID returns the ID of this MempoolTransaction
func (mt *MempoolTransaction) TransactionID() *externalapi.DomainTransactionID {
	return mt.transactionID
}

// Transaction return the DomainTransaction associated with this MempoolTransaction
func (mt *MempoolTransaction) Transaction() *externalapi.DomainTransaction {
	return mt.transaction
}

// ArrivalIndex returns the position of this transaction in the order
// transactions were accepted to the mempool
func (mt *MempoolTransaction) ArrivalIndex() uint64 {
	return mt.arrivalIndex
}
