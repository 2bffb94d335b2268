package blocktemplatebuilder

import (
	"context"
	"time"

	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
	"github.com/hybridchain/hybridd/infrastructure/logger"
	"github.com/pkg/errors"
)

// blockTemplateBuilder creates block templates for a miner to consume.
// It holds no per-build state, so separate builds may run concurrently.
type blockTemplateBuilder struct {
	params *chainconfig.Params
	policy *Policy

	mempool         model.Mempool
	stateTree       *statetree.Tree
	stakeHistory    stakechain.StakeHistory
	coinView        utxo.CoinView
	executorFactory contractvm.ExecutorFactory

	nowInMilliseconds func() int64
}

// New creates a new blockTemplateBuilder
func New(params *chainconfig.Params, policy *Policy, mempool model.Mempool, stateTree *statetree.Tree,
	stakeHistory stakechain.StakeHistory, coinView utxo.CoinView,
	executorFactory contractvm.ExecutorFactory) model.BlockTemplateBuilder {

	return &blockTemplateBuilder{
		params:            params,
		policy:            policy,
		mempool:           mempool,
		stateTree:         stateTree,
		stakeHistory:      stakeHistory,
		coinView:          coinView,
		executorFactory:   executorFactory,
		nowInMilliseconds: func() int64 { return time.Now().UnixMilli() },
	}
}

// GetBlockTemplate creates a block template on top of tip, paying the
// block's fees to coinbaseData.ScriptPublicKey.
//
// Transactions are taken from the mempool in priority order. Contract
// invocations are executed against a snapshot of the state at tip, and the
// resulting state root is committed to by the template's header. The
// snapshot is kept pending in the state tree, and is persisted only once
// the block is accepted. Transactions whose execution was aborted are
// removed from the mempool, so that later builds do not run them again.
func (btb *blockTemplateBuilder) GetBlockTemplate(ctx context.Context, tip *externalapi.DomainBlockHeader,
	coinbaseData *externalapi.DomainCoinbaseData) (*model.BlockTemplate, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "GetBlockTemplate")
	defer onEnd()

	if tip == nil {
		return nil, errors.New("cannot build a block template without a tip")
	}
	if coinbaseData == nil {
		return nil, errors.New("cannot build a block template without coinbase data")
	}

	buildCtx, err := btb.newBuildContext(tip, coinbaseData)
	if err != nil {
		return nil, err
	}

	template, err := assemble(ctx, buildCtx.accumulator, btb.mempool.MiningDescs(),
		buildCtx.addToBlock, buildCtx.finalize)
	if err != nil {
		buildCtx.snapshot.Discard()
		return nil, err
	}

	err = btb.stateTree.KeepPending(buildCtx.snapshot)
	if err != nil {
		return nil, err
	}

	aborted := buildCtx.accumulator.abortedTransactions
	if len(aborted) > 0 {
		err = btb.mempool.RemoveTransactions(aborted)
		if err != nil {
			return nil, err
		}
		log.Infof("Removed %d transactions whose execution was aborted from the mempool", len(aborted))
	}

	log.Debugf("Built a block template at height %d with %d transactions, %d executed contracts "+
		"and %d refunds", template.Height, len(template.Block.Transactions), template.ExecutedContracts,
		template.RefundCount)
	return template, nil
}
