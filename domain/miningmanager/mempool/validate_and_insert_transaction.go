package mempool

import (
	"fmt"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/consensus/utils/estimatedsize"
	"github.com/hybridchain/hybridd/infrastructure/logger"
)

func (mp *mempool) validateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	transactionID := consensushashing.TransactionID(transaction)
	onEnd := logger.LogAndMeasureExecutionTime(log, fmt.Sprintf("validateAndInsertTransaction %s", transactionID))
	defer onEnd()

	// The pool populates the inputs, fee and mass of its own copy
	transaction = transaction.Clone()

	err := mp.validateTransactionInIsolation(transaction, transactionID)
	if err != nil {
		return err
	}

	// Populate mass in the beginning, it will be used in multiple places throughout the validation and insertion.
	transaction.Mass = estimatedsize.TransactionEstimatedSerializedSize(transaction)

	err = mp.fillInputs(transaction)
	if err != nil {
		return err
	}

	err = mp.populateFee(transaction, transactionID)
	if err != nil {
		return err
	}

	err = mp.validateTransactionInContext(transaction, transactionID)
	if err != nil {
		return err
	}

	_, err = mp.transactionsPool.addTransaction(transaction)
	if err != nil {
		return err
	}
	log.Debugf("Accepted transaction %s with fee %d and mass %d (pool size: %d)",
		transactionID, transaction.Fee, transaction.Mass, mp.transactionsPool.transactionCount())

	err = mp.transactionsPool.limitTransactionCount()
	if err != nil {
		return err
	}
	if _, ok := mp.transactionsPool.getTransaction(transactionID); !ok {
		return transactionRuleError(RejectMempoolFull,
			fmt.Sprintf("transaction %s pays too low a fee rate to enter the full mempool", transactionID))
	}

	return nil
}
