package blocktemplatebuilder

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
)

const testNow = 1_700_000_000_000

var testParams = &chainconfig.RegressionNetParams

// fakeMempool serves a fixed list of entries
type fakeMempool struct {
	lock             sync.Mutex
	descs            []*model.MiningDesc
	miningDescsCalls int
	removed          []*externalapi.DomainTransaction
}

func (fm *fakeMempool) MiningDescs() []*model.MiningDesc {
	fm.lock.Lock()
	defer fm.lock.Unlock()
	fm.miningDescsCalls++
	return append([]*model.MiningDesc(nil), fm.descs...)
}

func (fm *fakeMempool) HandleNewBlock(*externalapi.DomainBlock) error { return nil }

func (fm *fakeMempool) ValidateAndInsertTransaction(*externalapi.DomainTransaction) error { return nil }

func (fm *fakeMempool) RemoveTransactions(transactions []*externalapi.DomainTransaction) error {
	fm.lock.Lock()
	defer fm.lock.Unlock()

	for _, transaction := range transactions {
		fm.removed = append(fm.removed, transaction)
		for i, desc := range fm.descs {
			if desc.Transaction == transaction {
				fm.descs = append(fm.descs[:i], fm.descs[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (fm *fakeMempool) Transactions() []*externalapi.DomainTransaction { return nil }

func (fm *fakeMempool) TransactionCount() int {
	fm.lock.Lock()
	defer fm.lock.Unlock()
	return len(fm.descs)
}

// scriptedExecution is the outcome fakeExecutorFactory produces for a
// transaction. Unless err is set, the execution writes the transaction's
// ID into the state. When readsFrom is set, the execution also records
// whether readsFrom was executed before it.
type scriptedExecution struct {
	result    *contractvm.ExecutionResult
	err       error
	readsFrom *externalapi.DomainTransaction
}

func executedKey(transactionID *externalapi.DomainTransactionID) []byte {
	return append([]byte("executed/"), transactionID.ByteSlice()...)
}

type fakeExecutorFactory struct {
	lock       sync.Mutex
	executions map[externalapi.DomainTransactionID]*scriptedExecution
	calls      int
}

func newFakeExecutorFactory() *fakeExecutorFactory {
	return &fakeExecutorFactory{executions: make(map[externalapi.DomainTransactionID]*scriptedExecution)}
}

func (fef *fakeExecutorFactory) script(transaction *externalapi.DomainTransaction, execution *scriptedExecution) {
	fef.lock.Lock()
	defer fef.lock.Unlock()
	fef.executions[*consensushashing.TransactionID(transaction)] = execution
}

func (fef *fakeExecutorFactory) CreateExecutor(snapshot *statetree.Snapshot,
	_ *contractvm.TransactionContext) (contractvm.Executor, error) {

	fef.lock.Lock()
	defer fef.lock.Unlock()
	fef.calls++
	return &fakeExecutor{factory: fef, snapshot: snapshot}, nil
}

type fakeExecutor struct {
	factory  *fakeExecutorFactory
	snapshot *statetree.Snapshot
}

func (fe *fakeExecutor) Execute(_ context.Context,
	txContext *contractvm.TransactionContext) (*contractvm.ExecutionResult, error) {

	transactionID := consensushashing.TransactionID(txContext.Transaction)
	fe.factory.lock.Lock()
	execution, ok := fe.factory.executions[*transactionID]
	fe.factory.lock.Unlock()
	if !ok {
		execution = &scriptedExecution{}
	}
	result := execution.result
	if result == nil {
		result = &contractvm.ExecutionResult{Status: contractvm.StatusSuccess, Fee: txContext.Fee}
	}

	revision := fe.snapshot.Checkpoint()
	feeBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(feeBytes, txContext.Fee)
	err := fe.snapshot.Put(executedKey(transactionID), feeBytes)
	if err != nil {
		return nil, err
	}
	if execution.readsFrom != nil {
		_, found, err := fe.snapshot.Get(executedKey(consensushashing.TransactionID(execution.readsFrom)))
		if err != nil {
			return nil, err
		}
		observed := []byte{0}
		if found {
			observed[0] = 1
		}
		err = fe.snapshot.Put(append([]byte("observed/"), transactionID.ByteSlice()...), observed)
		if err != nil {
			return nil, err
		}
	}
	if execution.err != nil {
		revertErr := fe.snapshot.RevertTo(revision)
		if revertErr != nil {
			return nil, revertErr
		}
		return nil, execution.err
	}
	return result, nil
}

type testContext struct {
	t               *testing.T
	mempool         *fakeMempool
	executorFactory *fakeExecutorFactory
	stateTree       *statetree.Tree
	stakeStore      stakechain.StakeStore
	coinView        *utxo.MemoryCoinView
	policy          *Policy
	tip             *externalapi.DomainBlockHeader
	nonce           uint32
}

func newTestContext(t *testing.T) *testContext {
	tip := &externalapi.DomainBlockHeader{
		Version:            1,
		TimeInMilliseconds: testNow - 1000,
		Bits:               testParams.PosLimitBits,
	}
	stakeStore := stakechain.NewMemoryStakeStore()
	err := stakeStore.Insert(stakechain.NewStakeInfoFromHeader(tip))
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}

	return &testContext{
		t:               t,
		mempool:         &fakeMempool{},
		executorFactory: newFakeExecutorFactory(),
		stateTree:       statetree.New(statetree.NewMemoryNodeStore()),
		stakeStore:      stakeStore,
		coinView:        utxo.NewMemoryCoinView(),
		policy:          DefaultPolicy(testParams),
		tip:             tip,
	}
}

func (tc *testContext) builder() *blockTemplateBuilder {
	builder := New(testParams, tc.policy, tc.mempool, tc.stateTree, tc.stakeStore, tc.coinView,
		tc.executorFactory).(*blockTemplateBuilder)
	builder.nowInMilliseconds = func() int64 { return testNow }
	return builder
}

func (tc *testContext) build() (*model.BlockTemplate, error) {
	return tc.builder().GetBlockTemplate(context.Background(), tc.tip, tc.coinbaseData())
}

func (tc *testContext) mustBuild() *model.BlockTemplate {
	template, err := tc.build()
	if err != nil {
		tc.t.Fatalf("GetBlockTemplate: %+v", err)
	}
	return template
}

func (tc *testContext) coinbaseData() *externalapi.DomainCoinbaseData {
	return &externalapi.DomainCoinbaseData{ScriptPublicKey: payToAddressScript(tc.t, externalapi.DomainAddress{0xc0})}
}

func payToAddressScript(t *testing.T, address externalapi.DomainAddress) []byte {
	pubKeyHashAddress, err := btcutil.NewAddressPubKeyHash(address[:], testParams.AddressParams)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %s", err)
	}
	script, err := txscript.PayToAddrScript(pubKeyHashAddress)
	if err != nil {
		t.Fatalf("PayToAddrScript: %s", err)
	}
	return script
}

// transaction creates a transaction spending a fresh pay-to-pubkey-hash
// output
func (tc *testContext) transaction(outputScript []byte) *externalapi.DomainTransaction {
	tc.nonce++
	return &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: tc.nonce},
			UTXOEntry: externalapi.NewUTXOEntry(1_000_000,
				payToAddressScript(tc.t, externalapi.DomainAddress{0x5e}), false, 0),
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 100, ScriptPublicKey: outputScript}},
	}
}

func (tc *testContext) plainTransaction() *externalapi.DomainTransaction {
	return tc.transaction(payToAddressScript(tc.t, externalapi.DomainAddress{0x0d}))
}

func (tc *testContext) contractTransaction() *externalapi.DomainTransaction {
	script, err := contracts.BuildCallScript(0, 1000, 1, []byte{1}, externalapi.DomainAddress{0xcc})
	if err != nil {
		tc.t.Fatalf("BuildCallScript: %+v", err)
	}
	return tc.transaction(script)
}

func (tc *testContext) addToMempool(transaction *externalapi.DomainTransaction, fee uint64) {
	tc.mempool.descs = append(tc.mempool.descs, &model.MiningDesc{Transaction: transaction, Fee: fee})
}

func refundOutputs(values ...uint64) []*externalapi.DomainTransactionOutput {
	outputs := make([]*externalapi.DomainTransactionOutput, len(values))
	for i, value := range values {
		outputs[i] = &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: []byte{txscript.OP_TRUE}}
	}
	return outputs
}

func internalTransaction(parent *externalapi.DomainTransaction) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: externalapi.InternalTransactionVersion,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: *externalapi.NewDomainOutpoint(consensushashing.TransactionID(parent), 0),
		}},
		Outputs: refundOutputs(100),
		Payload: consensushashing.TransactionID(parent).ByteSlice(),
	}
}
