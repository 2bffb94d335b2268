package blocktemplatebuilder

import (
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/pkg/errors"
)

// entryHandler adds a single mempool entry to the block under construction
type entryHandler func(ctx context.Context, accumulator *blockAccumulator, desc *model.MiningDesc) error

// templateFinalizer completes the block once every entry was handled
type templateFinalizer func(accumulator *blockAccumulator) (*model.BlockTemplate, error)

// assemble walks the mempool entries in priority order, handing every
// entry that may enter a block to addToBlock, and then finalizes the
// template. Coinbase and internal transactions are never taken from the
// mempool, and entries that would push the block over its maximum mass
// are skipped.
func assemble(ctx context.Context, accumulator *blockAccumulator, descs []*model.MiningDesc,
	addToBlock entryHandler, finalize templateFinalizer) (*model.BlockTemplate, error) {

	for _, desc := range descs {
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}

		transaction := desc.Transaction
		if transaction.IsCoinbase() || transaction.IsInternal() {
			log.Tracef("Skipping transaction %s which cannot be taken from the mempool",
				consensushashing.TransactionID(transaction))
			continue
		}
		if !accumulator.fits(transactionMass(desc)) {
			log.Tracef("Skipping transaction %s because it would exceed the maximum block mass",
				consensushashing.TransactionID(transaction))
			continue
		}

		err := addToBlock(ctx, accumulator, desc)
		if err != nil {
			return nil, err
		}
	}

	return finalize(accumulator)
}
