package mempool

import (
	"fmt"
	"math"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
)

// fillInputs populates the UTXOEntry of every input that does not carry
// one from the mempool's coin view
func (mp *mempool) fillInputs(transaction *externalapi.DomainTransaction) error {
	var missingOutpoints []*externalapi.DomainOutpoint
	for _, input := range transaction.Inputs {
		if input.UTXOEntry != nil {
			continue
		}
		utxoEntry, ok := mp.coinView.UTXOEntry(&input.PreviousOutpoint)
		if !ok {
			missingOutpoints = append(missingOutpoints, input.PreviousOutpoint.Clone())
			continue
		}
		input.UTXOEntry = utxoEntry
	}

	if len(missingOutpoints) > 0 {
		return consensusRuleError(ruleerrors.NewErrMissingTxOut(missingOutpoints))
	}
	return nil
}

// populateFee sets the fee of transaction to the amount its inputs spend
// beyond its outputs
func (mp *mempool) populateFee(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	totalIn := uint64(0)
	for _, input := range transaction.Inputs {
		if totalIn > math.MaxUint64-input.UTXOEntry.Amount {
			return transactionRuleError(RejectInvalid,
				fmt.Sprintf("total input value of transaction %s overflows", transactionID))
		}
		totalIn += input.UTXOEntry.Amount
	}

	totalOut := uint64(0)
	for _, output := range transaction.Outputs {
		if totalOut > math.MaxUint64-output.Value {
			return transactionRuleError(RejectInvalid,
				fmt.Sprintf("total output value of transaction %s overflows", transactionID))
		}
		totalOut += output.Value
	}

	if totalOut > totalIn {
		return transactionRuleError(RejectInvalid, fmt.Sprintf("transaction %s spends %d but its inputs "+
			"only hold %d", transactionID, totalOut, totalIn))
	}
	transaction.Fee = totalIn - totalOut
	return nil
}
