package utxo

import (
	"sync"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

// CoinView provides the unspent outputs needed to resolve the senders of
// transactions.
type CoinView interface {
	UTXOEntry(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, bool)
}

// CoinStore is a CoinView that follows the chain as blocks are accepted.
type CoinStore interface {
	CoinView
	AddTransaction(tx *externalapi.DomainTransaction, blockHeight uint64)
}

type utxoCollection map[externalapi.DomainOutpoint]*externalapi.UTXOEntry

// MemoryCoinView is an in-memory CoinStore. It is safe for concurrent use.
type MemoryCoinView struct {
	lock    sync.RWMutex
	entries utxoCollection
}

var _ CoinStore = (*MemoryCoinView)(nil)

// NewMemoryCoinView creates an empty MemoryCoinView
func NewMemoryCoinView() *MemoryCoinView {
	return &MemoryCoinView{entries: make(utxoCollection)}
}

// UTXOEntry returns the entry of the given outpoint, if it is unspent
func (mcv *MemoryCoinView) UTXOEntry(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, bool) {
	mcv.lock.RLock()
	defer mcv.lock.RUnlock()

	entry, ok := mcv.entries[*outpoint]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Add adds an unspent output to the view
func (mcv *MemoryCoinView) Add(outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) {
	mcv.lock.Lock()
	defer mcv.lock.Unlock()

	mcv.entries[*outpoint] = entry.Clone()
}

// Remove removes an output from the view
func (mcv *MemoryCoinView) Remove(outpoint *externalapi.DomainOutpoint) {
	mcv.lock.Lock()
	defer mcv.lock.Unlock()

	delete(mcv.entries, *outpoint)
}

// AddTransaction spends the inputs of tx and adds its outputs, as they
// stand after tx is included in a block at the given height.
func (mcv *MemoryCoinView) AddTransaction(tx *externalapi.DomainTransaction, blockHeight uint64) {
	mcv.lock.Lock()
	defer mcv.lock.Unlock()

	for _, input := range tx.Inputs {
		delete(mcv.entries, input.PreviousOutpoint)
	}

	isCoinbase := tx.IsCoinbase()
	transactionID := consensushashing.TransactionID(tx)
	for i, output := range tx.Outputs {
		outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(i))
		mcv.entries[*outpoint] = externalapi.NewUTXOEntry(output.Value, output.ScriptPublicKey, isCoinbase, blockHeight)
	}
}

// Count returns the number of unspent outputs in the view
func (mcv *MemoryCoinView) Count() int {
	mcv.lock.RLock()
	defer mcv.lock.RUnlock()

	return len(mcv.entries)
}
