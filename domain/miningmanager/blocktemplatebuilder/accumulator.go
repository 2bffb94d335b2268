package blocktemplatebuilder

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/consensus/utils/estimatedsize"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
)

// blockAccumulator collects the transactions of the block under
// construction, starting with its coinbase.
type blockAccumulator struct {
	maxMass uint64

	transactions []*externalapi.DomainTransaction
	fees         []uint64
	masses       []uint64
	totalFees    uint64
	totalMass    uint64

	executedContracts    int
	excludedTransactions []*externalapi.DomainTransactionID
	abortedTransactions  []*externalapi.DomainTransaction
}

func newBlockAccumulator(coinbase *externalapi.DomainTransaction, maxMass uint64) *blockAccumulator {
	coinbaseMass := estimatedsize.TransactionEstimatedSerializedSize(coinbase)
	return &blockAccumulator{
		maxMass:      maxMass,
		transactions: []*externalapi.DomainTransaction{coinbase},
		fees:         []uint64{0},
		masses:       []uint64{coinbaseMass},
		totalMass:    coinbaseMass,
	}
}

func (ba *blockAccumulator) coinbase() *externalapi.DomainTransaction {
	return ba.transactions[0]
}

// fits returns whether mass more can be added without exceeding the
// block's maximum mass
func (ba *blockAccumulator) fits(mass uint64) bool {
	return ba.totalMass+mass <= ba.maxMass && ba.totalMass+mass >= ba.totalMass
}

// add appends a transaction to the block and accounts for its fee and mass
func (ba *blockAccumulator) add(transaction *externalapi.DomainTransaction, fee uint64, mass uint64) {
	ba.transactions = append(ba.transactions, transaction)
	ba.fees = append(ba.fees, fee)
	ba.masses = append(ba.masses, mass)
	ba.totalFees += fee
	ba.totalMass += mass
}

// exclude records a transaction that was selected but left out of the block
func (ba *blockAccumulator) exclude(transaction *externalapi.DomainTransaction) {
	ba.excludedTransactions = append(ba.excludedTransactions, consensushashing.TransactionID(transaction))
}

// abort excludes a transaction whose execution did not complete
func (ba *blockAccumulator) abort(transaction *externalapi.DomainTransaction) {
	ba.exclude(transaction)
	ba.abortedTransactions = append(ba.abortedTransactions, transaction)
}

// addToCoinbaseMass accounts for outputs added to the coinbase
func (ba *blockAccumulator) addToCoinbaseMass(mass uint64) {
	ba.masses[0] += mass
	ba.totalMass += mass
}

// transactionMass returns the mass recorded by the mempool, or the
// estimated size of the transaction when none was recorded
func transactionMass(desc *model.MiningDesc) uint64 {
	if desc.Mass != 0 {
		return desc.Mass
	}
	return estimatedsize.TransactionEstimatedSerializedSize(desc.Transaction)
}

// outputsMass returns the mass the given outputs add to a transaction
func outputsMass(outputs []*externalapi.DomainTransactionOutput) uint64 {
	mass := uint64(0)
	for _, output := range outputs {
		mass += estimatedsize.TransactionOutputEstimatedSerializedSize(output)
	}
	return mass
}
