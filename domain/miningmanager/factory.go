package miningmanager

import (
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager/blocktemplatebuilder"
	mempoolpkg "github.com/hybridchain/hybridd/domain/miningmanager/mempool"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
)

// Factory instantiates new mining managers
type Factory interface {
	NewMiningManager(params *chainconfig.Params, mempoolConfig *mempoolpkg.Config,
		policy *blocktemplatebuilder.Policy, stateTree *statetree.Tree, stakeStore stakechain.StakeStore,
		coinStore utxo.CoinStore, executorFactory contractvm.ExecutorFactory) MiningManager
}

type factory struct{}

// NewMiningManager instantiate a new mining manager
func (f *factory) NewMiningManager(params *chainconfig.Params, mempoolConfig *mempoolpkg.Config,
	policy *blocktemplatebuilder.Policy, stateTree *statetree.Tree, stakeStore stakechain.StakeStore,
	coinStore utxo.CoinStore, executorFactory contractvm.ExecutorFactory) MiningManager {

	mempool := mempoolpkg.New(mempoolConfig, params, coinStore)
	blockTemplateBuilder := blocktemplatebuilder.New(params, policy, mempool, stateTree, stakeStore, coinStore,
		executorFactory)

	return &miningManager{
		mempool:              mempool,
		blockTemplateBuilder: blockTemplateBuilder,
		stateTree:            stateTree,
		stakeStore:           stakeStore,
		coinStore:            coinStore,
	}
}

// NewFactory creates a new mining manager factory
func NewFactory() Factory {
	return &factory{}
}
