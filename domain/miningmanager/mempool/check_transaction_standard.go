package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/estimatedsize"
	"github.com/hybridchain/hybridd/domain/contracts"
)

const (
	// maximumStandardSignatureScriptSize is the maximum size allowed for a
	// transaction input signature script to be considered standard. This
	// value allows for a 15-of-15 CHECKMULTISIG pay-to-script-hash with
	// compressed keys.
	maximumStandardSignatureScriptSize = 1650

	// maximumStandardTransactionMass is the maximum mass allowed for transactions that
	// are considered standard and will therefore be relayed and considered for mining.
	maximumStandardTransactionMass = 100000
)

func (mp *mempool) checkTransactionStandardInIsolation(transaction *externalapi.DomainTransaction) error {
	// The transaction must be a currently supported version.
	if transaction.Version < 1 || transaction.Version > maximumStandardTransactionVersion {
		str := fmt.Sprintf("transaction version %d is not in the valid range of %d-%d", transaction.Version,
			1, maximumStandardTransactionVersion)
		return transactionRuleError(RejectNonstandard, str)
	}

	// Since extremely large transactions with a lot of inputs can cost
	// almost as much to process as the sender fees, limit the maximum
	// size of a transaction.
	serializedLength := estimatedsize.TransactionEstimatedSerializedSize(transaction)
	if serializedLength > maximumStandardTransactionMass {
		str := fmt.Sprintf("transaction size of %d is larger than max allowed size of %d",
			serializedLength, maximumStandardTransactionMass)
		return transactionRuleError(RejectNonstandard, str)
	}

	for i, input := range transaction.Inputs {
		signatureScriptLen := len(input.SignatureScript)
		if signatureScriptLen > maximumStandardSignatureScriptSize {
			str := fmt.Sprintf("transaction input %d: signature script size of %d bytes is larger than the "+
				"maximum allowed size of %d bytes", i, signatureScriptLen, maximumStandardSignatureScriptSize)
			return transactionRuleError(RejectNonstandard, str)
		}
	}

	// None of the output public key scripts can be a non-standard script or be "dust".
	// Contract invocations are standard and may carry no value.
	for i, output := range transaction.Outputs {
		if contracts.IsContractScript(output.ScriptPublicKey) {
			if _, ok := contracts.ParseContractScript(output.ScriptPublicKey); !ok {
				str := fmt.Sprintf("transaction output %d: malformed contract invocation", i)
				return transactionRuleError(RejectNonstandard, str)
			}
			continue
		}

		scriptClass := txscript.GetScriptClass(output.ScriptPublicKey)
		if scriptClass == txscript.NonStandardTy {
			str := fmt.Sprintf("transaction output %d: non-standard script form", i)
			return transactionRuleError(RejectNonstandard, str)
		}

		if mp.isTransactionOutputDust(output) {
			str := fmt.Sprintf("transaction output %d: payment "+
				"of %d is dust", i, output.Value)
			return transactionRuleError(RejectDust, str)
		}
	}

	return nil
}

// isTransactionOutputDust returns whether or not the passed transaction output amount
// is considered dust or not based on the configured minimum transaction relay fee.
// Dust is defined in terms of the minimum transaction relay fee. In
// particular, if the cost to the network to spend coins is more than 1/3 of the
// minimum transaction relay fee, it is considered dust.
func (mp *mempool) isTransactionOutputDust(output *externalapi.DomainTransactionOutput) bool {
	// Unspendable outputs are considered dust.
	if txscript.IsUnspendable(output.ScriptPublicKey) {
		return true
	}

	// The total serialized size consists of the output and the associated
	// input script to redeem it. Since there is no input script
	// to redeem it yet, use the minimum size of a typical input script.
	totalSerializedSize := estimatedsize.TransactionOutputEstimatedSerializedSize(output) + 148

	// The following is equivalent to (value/totalSerializedSize) * (1/3) * 1000
	// without needing to do floating point math.
	return output.Value/(3*totalSerializedSize)*1000 < mp.config.MinimumRelayTransactionFee
}

// checkTransactionStandardInContext performs a series of checks on a transaction's
// inputs to ensure they are "standard". A standard transaction input within the
// context of this function is one whose referenced public key script is of a
// standard form.
// In addition, makes sure that the transaction's fee is above the minimum for acceptance
// into the mempool and relay
func (mp *mempool) checkTransactionStandardInContext(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	for i, input := range transaction.Inputs {
		// It is safe to elide existence and index checks here since
		// they have already been checked prior to calling this
		// function.
		if txscript.GetScriptClass(input.UTXOEntry.ScriptPublicKey) == txscript.NonStandardTy {
			str := fmt.Sprintf("transaction input #%d has a non-standard script form", i)
			return transactionRuleError(RejectNonstandard, str)
		}
	}

	minimumFee := mp.minimumRequiredTransactionRelayFee(transaction.Mass)
	if transaction.Fee < minimumFee {
		str := fmt.Sprintf("transaction %s has %d fees which is under the required amount of %d",
			transactionID, transaction.Fee, minimumFee)
		return transactionRuleError(RejectInsufficientFee, str)
	}

	return nil
}

// minimumRequiredTransactionRelayFee returns the minimum transaction fee required for a
// transaction with the passed mass to be accepted into the mempool and relayed.
func (mp *mempool) minimumRequiredTransactionRelayFee(mass uint64) uint64 {
	minimumFee := (mass * mp.config.MinimumRelayTransactionFee) / 1000

	if minimumFee == 0 && mp.config.MinimumRelayTransactionFee > 0 {
		minimumFee = mp.config.MinimumRelayTransactionFee
	}

	return minimumFee
}
