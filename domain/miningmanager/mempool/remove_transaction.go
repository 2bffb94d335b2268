package mempool

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

func (mp *mempool) removeTransactions(transactions []*externalapi.DomainTransaction) error {
	for _, transaction := range transactions {
		err := mp.removeTransaction(consensushashing.TransactionID(transaction))
		if err != nil {
			return err
		}
	}
	return nil
}

// removeTransaction removes the given transaction from the pool. Removing a
// transaction that is not in the pool is a no-op.
func (mp *mempool) removeTransaction(transactionID *externalapi.DomainTransactionID) error {
	mempoolTransaction, ok := mp.transactionsPool.getTransaction(transactionID)
	if !ok {
		return nil
	}
	return mp.transactionsPool.removeTransaction(mempoolTransaction)
}
