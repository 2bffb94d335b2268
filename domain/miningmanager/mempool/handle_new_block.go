package mempool

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

// handleNewBlock removes the transactions of block from the pool, together
// with every pool transaction that spends an output block spends
func (mp *mempool) handleNewBlock(block *externalapi.DomainBlock) error {
	removedCount := 0
	for _, transaction := range block.Transactions {
		if transaction.IsCoinbase() {
			continue
		}

		transactionID := consensushashing.TransactionID(transaction)
		if _, ok := mp.transactionsPool.getTransaction(transactionID); ok {
			err := mp.removeTransaction(transactionID)
			if err != nil {
				return err
			}
			removedCount++
		}

		for _, input := range transaction.Inputs {
			doubleSpend, ok := mp.transactionsPool.getSpendingTransaction(&input.PreviousOutpoint)
			if !ok {
				continue
			}
			log.Debugf("Removing transaction %s which double spends %s with block transaction %s",
				doubleSpend.TransactionID(), input.PreviousOutpoint, transactionID)
			err := mp.transactionsPool.removeTransaction(doubleSpend)
			if err != nil {
				return err
			}
			removedCount++
		}
	}

	log.Debugf("Removed %d transactions from the mempool after block %s",
		removedCount, consensushashing.BlockHash(block))
	return nil
}
