package miningmanager

import (
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
)

// MiningManager creates block templates for mining as well as maintaining
// known transactions that have no yet been added to any block
type MiningManager interface {
	GetBlockTemplate(ctx context.Context, tip *externalapi.DomainBlockHeader,
		coinbaseData *externalapi.DomainCoinbaseData) (*model.BlockTemplate, error)
	HandleNewBlock(block *externalapi.DomainBlock) error
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error
	AllTransactions() []*externalapi.DomainTransaction
	TransactionCount() int
}

type miningManager struct {
	mempool              model.Mempool
	blockTemplateBuilder model.BlockTemplateBuilder
	stateTree            *statetree.Tree
	stakeStore           stakechain.StakeStore
	coinStore            utxo.CoinStore
}

// GetBlockTemplate creates a block template for a miner to consume
func (mm *miningManager) GetBlockTemplate(ctx context.Context, tip *externalapi.DomainBlockHeader,
	coinbaseData *externalapi.DomainCoinbaseData) (*model.BlockTemplate, error) {

	return mm.blockTemplateBuilder.GetBlockTemplate(ctx, tip, coinbaseData)
}

// HandleNewBlock handles a new block that was just added to the chain. The
// contract state the block commits to is persisted, its stake information
// is recorded and its transactions are applied to the coin store, so that
// templates may build on it.
//
// The block's state root must be readable or pending, that is, the block
// must have been built from a template of this mining manager or commit to
// a state that is already stored.
func (mm *miningManager) HandleNewBlock(block *externalapi.DomainBlock) error {
	header := block.Header
	err := mm.stateTree.CommitRoot(&header.StateRoot)
	if err != nil {
		return err
	}
	err = mm.stakeStore.Insert(stakechain.NewStakeInfoFromHeader(header))
	if err != nil {
		return err
	}
	for _, transaction := range block.Transactions {
		mm.coinStore.AddTransaction(transaction, header.Height)
	}
	return mm.mempool.HandleNewBlock(block)
}

// ValidateAndInsertTransaction validates the given transaction, and
// adds it to the set of known transactions that have not yet been
// added to any block
func (mm *miningManager) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	return mm.mempool.ValidateAndInsertTransaction(transaction)
}

// AllTransactions returns all transactions in the mempool
func (mm *miningManager) AllTransactions() []*externalapi.DomainTransaction {
	return mm.mempool.Transactions()
}

// TransactionCount returns the number of transactions in the mempool
func (mm *miningManager) TransactionCount() int {
	return mm.mempool.TransactionCount()
}
