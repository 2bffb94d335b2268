package mempool

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/miningmanager/mempool/model"
	miningmanagermodel "github.com/hybridchain/hybridd/domain/miningmanager/model"
)

type transactionsPool struct {
	mempool                        *mempool
	allTransactions                model.IDToTransaction
	transactionsByPreviousOutpoint model.OutpointToTransaction
	transactionsOrderedByFeeRate   model.TransactionsOrderedByFeeRate
	nextArrivalIndex               uint64
}

func newTransactionsPool(mp *mempool) *transactionsPool {
	return &transactionsPool{
		mempool:                        mp,
		allTransactions:                model.IDToTransaction{},
		transactionsByPreviousOutpoint: model.OutpointToTransaction{},
		transactionsOrderedByFeeRate:   model.TransactionsOrderedByFeeRate{},
	}
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) addTransaction(transaction *externalapi.DomainTransaction) (*model.MempoolTransaction, error) {
	mempoolTransaction := model.NewMempoolTransaction(transaction, tp.nextArrivalIndex)
	tp.nextArrivalIndex++

	err := tp.transactionsOrderedByFeeRate.Push(mempoolTransaction)
	if err != nil {
		return nil, err
	}

	tp.allTransactions[*mempoolTransaction.TransactionID()] = mempoolTransaction
	for _, input := range transaction.Inputs {
		tp.transactionsByPreviousOutpoint[input.PreviousOutpoint] = mempoolTransaction
	}

	return mempoolTransaction, nil
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) removeTransaction(transaction *model.MempoolTransaction) error {
	err := tp.transactionsOrderedByFeeRate.Remove(transaction)
	if err != nil {
		return err
	}

	delete(tp.allTransactions, *transaction.TransactionID())
	for _, input := range transaction.Transaction().Inputs {
		delete(tp.transactionsByPreviousOutpoint, input.PreviousOutpoint)
	}

	return nil
}

// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) miningDescs() []*miningmanagermodel.MiningDesc {
	ordered := tp.transactionsOrderedByFeeRate.Copy()
	descs := make([]*miningmanagermodel.MiningDesc, len(ordered))
	for i, mempoolTransaction := range ordered {
		transaction := mempoolTransaction.Transaction()
		descs[i] = &miningmanagermodel.MiningDesc{
			Transaction: transaction.Clone(),
			Fee:         transaction.Fee,
			Mass:        transaction.Mass,
		}
	}
	return descs
}

// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) getSpendingTransaction(outpoint *externalapi.DomainOutpoint) (*model.MempoolTransaction, bool) {
	transaction, ok := tp.transactionsByPreviousOutpoint[*outpoint]
	return transaction, ok
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) limitTransactionCount() error {
	for len(tp.allTransactions) > tp.mempool.config.MaximumTransactionCount {
		lowestFeeRate := tp.transactionsOrderedByFeeRate.GetByIndex(tp.transactionsOrderedByFeeRate.Len() - 1)
		log.Debugf("Evicting transaction %s from the full mempool", lowestFeeRate.TransactionID())
		err := tp.removeTransaction(lowestFeeRate)
		if err != nil {
			return err
		}
	}
	return nil
}

func (tp *transactionsPool) getTransaction(transactionID *externalapi.DomainTransactionID) (*model.MempoolTransaction, bool) {
	mempoolTransaction, ok := tp.allTransactions[*transactionID]
	return mempoolTransaction, ok
}

func (tp *transactionsPool) getAllTransactions() []*externalapi.DomainTransaction {
	ordered := tp.transactionsOrderedByFeeRate.Copy()
	allTransactions := make([]*externalapi.DomainTransaction, len(ordered))
	for i, mempoolTransaction := range ordered {
		allTransactions[i] = mempoolTransaction.Transaction().Clone()
	}
	return allTransactions
}

func (tp *transactionsPool) transactionCount() int {
	return len(tp.allTransactions)
}
