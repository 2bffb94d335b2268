package mempool

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/pkg/errors"
)

func (mp *mempool) validateTransactionInIsolation(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	if transaction.IsCoinbase() {
		return consensusRuleError(errors.Wrapf(ruleerrors.ErrNoTxInputs,
			"transaction %s has no inputs", transactionID))
	}
	if transaction.IsInternal() {
		return transactionRuleError(RejectInvalid,
			fmt.Sprintf("internal transaction %s cannot be relayed", transactionID))
	}

	if _, ok := mp.transactionsPool.getTransaction(transactionID); ok {
		return transactionRuleError(RejectDuplicate,
			fmt.Sprintf("transaction %s is already in the mempool", transactionID))
	}

	if !mp.config.AcceptNonStandard {
		if err := mp.checkTransactionStandardInIsolation(transaction); err != nil {
			// Attempt to extract a reject code from the error so
			// it can be retained. When not possible, fall back to
			// a non standard error.
			rejectCode, found := extractRejectCode(err)
			if !found {
				rejectCode = RejectNonstandard
			}
			str := fmt.Sprintf("transaction %s is not standard: %s", transactionID, err)
			return transactionRuleError(rejectCode, str)
		}
	}

	return mp.checkDoubleSpends(transaction, transactionID)
}

func (mp *mempool) checkDoubleSpends(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	for _, input := range transaction.Inputs {
		if existing, ok := mp.transactionsPool.getSpendingTransaction(&input.PreviousOutpoint); ok {
			str := fmt.Sprintf("output %s already spent by transaction %s in the memory pool",
				input.PreviousOutpoint, existing.TransactionID())
			return transactionRuleError(RejectDuplicate, str)
		}
	}
	return nil
}

func (mp *mempool) validateTransactionInContext(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	if transaction.Mass > mp.config.MaximumMassAcceptedByBlock {
		return transactionRuleError(RejectInvalid, fmt.Sprintf("transaction %s mass is %d which is "+
			"higher than the maximum of %d", transactionID, transaction.Mass, mp.config.MaximumMassAcceptedByBlock))
	}

	err := mp.checkContractInvocations(transaction, transactionID)
	if err != nil {
		return err
	}

	if !mp.config.AcceptNonStandard {
		err := mp.checkTransactionStandardInContext(transaction, transactionID)
		if err != nil {
			// Attempt to extract a reject code from the error so
			// it can be retained. When not possible, fall back to
			// a non standard error.
			rejectCode, found := extractRejectCode(err)
			if !found {
				rejectCode = RejectNonstandard
			}
			str := fmt.Sprintf("transaction inputs %s are not standard: %s", transactionID, err)
			return transactionRuleError(rejectCode, str)
		}
	}

	return nil
}

// checkContractInvocations makes sure every contract invocation of
// transaction offers acceptable gas terms, and that the fee of transaction
// prepays the gas of all its invocations.
func (mp *mempool) checkContractInvocations(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	payload := contracts.Classify(transaction)
	if payload == nil {
		return nil
	}

	prepaidGas := new(uint256.Int)
	for _, invocation := range payload.Invocations {
		if invocation.GasLimit > mp.config.MaxGasLimit {
			return transactionRuleError(RejectNonstandard, fmt.Sprintf("output %d of transaction %s reserves "+
				"%d gas which is above the maximum of %d", invocation.OutputIndex, transactionID,
				invocation.GasLimit, mp.config.MaxGasLimit))
		}
		if invocation.GasPrice < mp.config.MinGasPrice {
			return transactionRuleError(RejectInsufficientFee, fmt.Sprintf("output %d of transaction %s offers "+
				"a gas price of %d which is below the minimum of %d", invocation.OutputIndex, transactionID,
				invocation.GasPrice, mp.config.MinGasPrice))
		}

		gas := new(uint256.Int).Mul(uint256.NewInt(invocation.GasLimit), uint256.NewInt(invocation.GasPrice))
		withValue := new(uint256.Int).Add(gas, uint256.NewInt(invocation.Value))
		if !withValue.IsUint64() {
			return consensusRuleError(errors.Wrapf(ruleerrors.ErrContractValueOverflow,
				"output %d of transaction %s", invocation.OutputIndex, transactionID))
		}
		prepaidGas.Add(prepaidGas, gas)
	}

	if !prepaidGas.IsUint64() || prepaidGas.Uint64() > transaction.Fee {
		return transactionRuleError(RejectInsufficientFee, fmt.Sprintf("transaction %s pays a fee of %d "+
			"which does not cover its prepaid gas of %s", transactionID, transaction.Fee, prepaidGas.Dec()))
	}
	return nil
}
