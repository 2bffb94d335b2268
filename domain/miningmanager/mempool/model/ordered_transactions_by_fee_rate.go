package model

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// TransactionsOrderedByFeeRate represents a set of MempoolTransactions ordered by their fee / mass rate,
// highest first. Transactions with equal rates are ordered by arrival.
type TransactionsOrderedByFeeRate struct {
	slice []*MempoolTransaction
}

// Push inserts a transaction into the set, placing it in the correct place to preserve order
func (tobf *TransactionsOrderedByFeeRate) Push(transaction *MempoolTransaction) error {
	index, err := tobf.findTransactionIndex(transaction)
	if err != nil {
		return err
	}

	tobf.slice = append(tobf.slice[:index],
		append([]*MempoolTransaction{transaction}, tobf.slice[index:]...)...)

	return nil
}

// Remove removes the given transaction from the set.
// Returns an error if transaction does not exist in the set, or if the given transaction does not have mass
// filled in.
func (tobf *TransactionsOrderedByFeeRate) Remove(transaction *MempoolTransaction) error {
	index, err := tobf.findTransactionIndex(transaction)
	if err != nil {
		return err
	}

	txID := transaction.TransactionID()
	if index >= len(tobf.slice) || !tobf.slice[index].TransactionID().Equal(txID) {
		return errors.Errorf("Couldn't find %s in mp.transactionsOrderedByFeeRate", txID)
	}

	return tobf.RemoveAtIndex(index)
}

// RemoveAtIndex removes the transaction at the given index.
// Returns an error in case of out-of-bounds index.
func (tobf *TransactionsOrderedByFeeRate) RemoveAtIndex(index int) error {
	if index < 0 || index > len(tobf.slice)-1 {
		return errors.Errorf("Index %d is out of bound of this TransactionsOrderedByFeeRate", index)
	}
	tobf.slice = append(tobf.slice[:index], tobf.slice[index+1:]...)
	return nil
}

// GetByIndex returns the transaction at the given index
func (tobf *TransactionsOrderedByFeeRate) GetByIndex(index int) *MempoolTransaction {
	return tobf.slice[index]
}

// Len returns the number of transactions in the set
func (tobf *TransactionsOrderedByFeeRate) Len() int {
	return len(tobf.slice)
}

// Copy returns the transactions in the set, in order
func (tobf *TransactionsOrderedByFeeRate) Copy() []*MempoolTransaction {
	transactions := make([]*MempoolTransaction, len(tobf.slice))
	copy(transactions, tobf.slice)
	return transactions
}

func (tobf *TransactionsOrderedByFeeRate) findTransactionIndex(transaction *MempoolTransaction) (int, error) {
	if transaction.Transaction().Mass == 0 {
		return 0, errors.Errorf("findTransactionIndex expects a transaction with populated mass")
	}

	return sort.Search(len(tobf.slice), func(i int) bool {
		return !precedes(tobf.slice[i], transaction)
	}), nil
}

// precedes returns whether a comes before b: a pays a higher fee per unit of
// mass, or pays the same rate and arrived earlier. Rates are compared by
// cross multiplication, which cannot overflow 256 bits.
func precedes(a, b *MempoolTransaction) bool {
	aRate := new(uint256.Int).Mul(uint256.NewInt(a.Transaction().Fee), uint256.NewInt(b.Transaction().Mass))
	bRate := new(uint256.Int).Mul(uint256.NewInt(b.Transaction().Fee), uint256.NewInt(a.Transaction().Mass))
	switch aRate.Cmp(bRate) {
	case 1:
		return true
	case -1:
		return false
	}
	return a.ArrivalIndex() < b.ArrivalIndex()
}
