package blocktemplatebuilder

import (
	"bytes"
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/consensus/utils/serialization"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
	"github.com/pkg/errors"
)

const coinbaseTransactionVersion = 1

// buildContext is the scratch space of a single build. It is created
// fresh by every call to GetBlockTemplate.
type buildContext struct {
	*blockTemplateBuilder

	tip               *externalapi.DomainBlockHeader
	tipHash           *externalapi.DomainHash
	height            uint64
	coinbaseRecipient externalapi.DomainAddress
	snapshot          *statetree.Snapshot
	accumulator       *blockAccumulator
	refundOutputs     []*externalapi.DomainTransactionOutput
	refundsFlushed    bool
}

// newBuildContext derives the coinbase recipient before anything else, so
// that an unusable output script fails the build before any state is
// touched.
func (btb *blockTemplateBuilder) newBuildContext(tip *externalapi.DomainBlockHeader,
	coinbaseData *externalapi.DomainCoinbaseData) (*buildContext, error) {

	coinbaseRecipient, err := utxo.ScriptOwner(coinbaseData.ScriptPublicKey, btb.params)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrCoinbaseRecipient, "%s", err)
	}

	snapshot, err := btb.stateTree.SnapshotAt(&tip.StateRoot)
	if err != nil {
		return nil, err
	}

	height := tip.Height + 1
	coinbase, err := newCoinbaseTransaction(coinbaseData, height)
	if err != nil {
		snapshot.Discard()
		return nil, err
	}

	return &buildContext{
		blockTemplateBuilder: btb,
		tip:                  tip,
		tipHash:              consensushashing.HeaderHash(tip),
		height:               height,
		coinbaseRecipient:    coinbaseRecipient,
		snapshot:             snapshot,
		accumulator:          newBlockAccumulator(coinbase, btb.policy.BlockMaxMass),
	}, nil
}

// newCoinbaseTransaction creates a coinbase paying to the script of
// coinbaseData. Its value is set once all fees are known.
func newCoinbaseTransaction(coinbaseData *externalapi.DomainCoinbaseData,
	height uint64) (*externalapi.DomainTransaction, error) {

	payload := &bytes.Buffer{}
	err := serialization.WriteElements(payload, height, coinbaseData.ExtraData)
	if err != nil {
		return nil, err
	}

	scriptPublicKey := make([]byte, len(coinbaseData.ScriptPublicKey))
	copy(scriptPublicKey, coinbaseData.ScriptPublicKey)
	return &externalapi.DomainTransaction{
		Version: coinbaseTransactionVersion,
		Outputs: []*externalapi.DomainTransactionOutput{{ScriptPublicKey: scriptPublicKey}},
		Payload: payload.Bytes(),
	}, nil
}

// addToBlock adds a mempool transaction to the block. A transaction
// invoking contracts is executed before it is added, and is then followed
// by the internal transaction its execution spawned, if any. Refund
// outputs are kept aside until all transactions were handled.
func (bc *buildContext) addToBlock(ctx context.Context, accumulator *blockAccumulator, desc *model.MiningDesc) error {
	transaction := desc.Transaction
	payload := contracts.Classify(transaction)
	if payload == nil {
		accumulator.add(transaction, desc.Fee, transactionMass(desc))
		return nil
	}

	sender, err := utxo.ResolveSender(transaction, bc.coinView, bc.params)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrUnresolvableSender) {
			return err
		}
		return errors.Wrapf(ruleerrors.ErrUnresolvableSender, "%s", err)
	}

	txContext := &contractvm.TransactionContext{
		Height:            bc.height,
		CoinbaseRecipient: bc.coinbaseRecipient,
		Fee:               desc.Fee,
		Sender:            sender,
		Transaction:       transaction,
		Payload:           payload,
	}

	revision := bc.snapshot.Checkpoint()
	result, err := bc.execute(ctx, txContext)
	if err != nil {
		if !errors.Is(err, contractvm.ErrExecutionAborted) {
			return err
		}
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		log.Warnf("Excluding transaction %s from the block template: %s",
			consensushashing.TransactionID(transaction), err)
		err = bc.snapshot.RevertTo(revision)
		if err != nil {
			return err
		}
		accumulator.abort(transaction)
		return nil
	}

	if result.Status == contractvm.StatusFailed && !bc.policy.IncludeFailedContracts {
		log.Debugf("Excluding transaction %s whose contract execution failed",
			consensushashing.TransactionID(transaction))
		return bc.excludeTransaction(accumulator, transaction, revision)
	}

	mass := transactionMass(desc)
	internalTransactionMass := uint64(0)
	if result.InternalTransaction != nil {
		internalTransactionMass = transactionMass(&model.MiningDesc{Transaction: result.InternalTransaction})
	}
	if !accumulator.fits(mass + internalTransactionMass + outputsMass(result.RefundOutputs)) {
		log.Tracef("Excluding transaction %s because its execution outcome exceeds the maximum block mass",
			consensushashing.TransactionID(transaction))
		return bc.excludeTransaction(accumulator, transaction, revision)
	}

	accumulator.add(transaction, result.Fee, mass)
	accumulator.executedContracts++
	if len(result.RefundOutputs) > 0 {
		bc.refundOutputs = append(bc.refundOutputs, result.RefundOutputs...)
		accumulator.addToCoinbaseMass(outputsMass(result.RefundOutputs))
	}
	if result.InternalTransaction != nil {
		accumulator.add(result.InternalTransaction, 0, internalTransactionMass)
	}
	return nil
}

func (bc *buildContext) execute(ctx context.Context,
	txContext *contractvm.TransactionContext) (*contractvm.ExecutionResult, error) {

	executor, err := bc.executorFactory.CreateExecutor(bc.snapshot, txContext)
	if err != nil {
		return nil, err
	}
	return executor.Execute(ctx, txContext)
}

// excludeTransaction leaves transaction out of the block and undoes the
// state changes of its execution
func (bc *buildContext) excludeTransaction(accumulator *blockAccumulator,
	transaction *externalapi.DomainTransaction, revision statetree.Revision) error {

	err := bc.snapshot.RevertTo(revision)
	if err != nil {
		return err
	}
	accumulator.exclude(transaction)
	return nil
}

// flushRefunds pays the collected fees and refund outputs from the
// coinbase. It runs exactly once per build, after every transaction was
// handled.
func (bc *buildContext) flushRefunds(accumulator *blockAccumulator) error {
	if bc.refundsFlushed {
		return errors.New("refund outputs were already added to the coinbase")
	}
	bc.refundsFlushed = true

	coinbase := accumulator.coinbase()
	coinbase.Outputs[0].Value = accumulator.totalFees
	coinbase.Outputs = append(coinbase.Outputs, bc.refundOutputs...)
	return nil
}

// finalize completes the coinbase and the header of the block
func (bc *buildContext) finalize(accumulator *blockAccumulator) (*model.BlockTemplate, error) {
	err := bc.flushRefunds(accumulator)
	if err != nil {
		return nil, err
	}

	block := &externalapi.DomainBlock{Transactions: accumulator.transactions}
	err = bc.finalizeHeader(block)
	if err != nil {
		return nil, err
	}

	return &model.BlockTemplate{
		Block:                block,
		Fees:                 accumulator.fees,
		TxMasses:             accumulator.masses,
		TotalFees:            accumulator.totalFees,
		TotalMass:            accumulator.totalMass,
		Height:               bc.height,
		StateRoot:            bc.snapshot.Root(),
		RefundCount:          len(bc.refundOutputs),
		ExecutedContracts:    accumulator.executedContracts,
		ExcludedTransactions: accumulator.excludedTransactions,
	}, nil
}
