package miningmanager_test

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/davecgh/go-spew/spew"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager"
	"github.com/hybridchain/hybridd/domain/miningmanager/blocktemplatebuilder"
	"github.com/hybridchain/hybridd/domain/miningmanager/mempool"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/domain/utxo"
	"github.com/pkg/errors"
)

var params = &chainconfig.RegressionNetParams

func payToAddressScript(t *testing.T, address externalapi.DomainAddress) []byte {
	pubKeyHashAddress, err := btcutil.NewAddressPubKeyHash(address[:], params.AddressParams)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %s", err)
	}
	script, err := txscript.PayToAddrScript(pubKeyHashAddress)
	if err != nil {
		t.Fatalf("PayToAddrScript: %s", err)
	}
	return script
}

func TestMiningManager(t *testing.T) {
	executorFactory, err := contractvm.NewWASMExecutorFactory(context.Background(), params, 10)
	if err != nil {
		t.Fatalf("NewWASMExecutorFactory: %+v", err)
	}
	defer executorFactory.Close(context.Background())

	genesis := &externalapi.DomainBlockHeader{
		Version:            params.BlockVersion,
		TimeInMilliseconds: 1_600_000_000_000,
		Bits:               params.PosLimitBits,
		IsProofOfStake:     true,
	}
	stakeStore := stakechain.NewMemoryStakeStore()
	err = stakeStore.Insert(stakechain.NewStakeInfoFromHeader(genesis))
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}

	senderScript := payToAddressScript(t, externalapi.DomainAddress{0x5e})
	coinView := utxo.NewMemoryCoinView()
	var fundingID externalapi.DomainTransactionID
	plainOutpoint := externalapi.NewDomainOutpoint(&fundingID, 0)
	contractOutpoint := externalapi.NewDomainOutpoint(&fundingID, 1)
	coinView.Add(plainOutpoint, externalapi.NewUTXOEntry(1_000_000, senderScript, false, 0))
	coinView.Add(contractOutpoint, externalapi.NewUTXOEntry(1_000_000, senderScript, false, 0))

	miningManager := miningmanager.NewFactory().NewMiningManager(params, mempool.DefaultConfig(params),
		blocktemplatebuilder.DefaultPolicy(params), statetree.New(statetree.NewMemoryNodeStore()), stakeStore,
		coinView, executorFactory)

	plain := &externalapi.DomainTransaction{
		Version: 1,
		Inputs:  []*externalapi.DomainTransactionInput{{PreviousOutpoint: *plainOutpoint}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 980_000, ScriptPublicKey: payToAddressScript(t, externalapi.DomainAddress{0x0d})},
		},
	}
	// Calls a contract that was never deployed, so the call fails and
	// its value goes back to the sender
	callScript, err := contracts.BuildCallScript(0, 10_000, 1, []byte{1}, externalapi.DomainAddress{0xcc})
	if err != nil {
		t.Fatalf("BuildCallScript: %+v", err)
	}
	call := &externalapi.DomainTransaction{
		Version: 1,
		Inputs:  []*externalapi.DomainTransactionInput{{PreviousOutpoint: *contractOutpoint}},
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 7, ScriptPublicKey: callScript}},
	}
	for _, transaction := range []*externalapi.DomainTransaction{plain, call} {
		err := miningManager.ValidateAndInsertTransaction(transaction)
		if err != nil {
			t.Fatalf("ValidateAndInsertTransaction: %+v", err)
		}
	}
	if miningManager.TransactionCount() != 2 || len(miningManager.AllTransactions()) != 2 {
		t.Fatalf("expected 2 transactions in the mempool")
	}

	coinbaseData := &externalapi.DomainCoinbaseData{
		ScriptPublicKey: payToAddressScript(t, externalapi.DomainAddress{0xc0}),
		ExtraData:       []byte("hybridd"),
	}
	template, err := miningManager.GetBlockTemplate(context.Background(), genesis, coinbaseData)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %+v", err)
	}

	transactions := template.Block.Transactions
	if len(transactions) != 4 {
		t.Fatalf("expected 4 transactions, got %s", spew.Sdump(transactions))
	}
	callID := consensushashing.TransactionID(call)
	if !consensushashing.TransactionID(transactions[1]).Equal(callID) ||
		!transactions[2].IsInternal() ||
		!consensushashing.TransactionID(transactions[3]).Equal(consensushashing.TransactionID(plain)) {
		t.Fatalf("unexpected transaction order %s", spew.Sdump(transactions))
	}
	internal := transactions[2]
	if !internal.Inputs[0].PreviousOutpoint.Equal(externalapi.NewDomainOutpoint(callID, 0)) ||
		len(internal.Outputs) != 1 || internal.Outputs[0].Value != 7 {
		t.Fatalf("unexpected internal transaction %s", spew.Sdump(internal))
	}

	// The failed call consumes all of its gas, so nothing is refunded
	expectedFees := uint64(999_993 + 20_000)
	if template.TotalFees != expectedFees || transactions[0].Outputs[0].Value != expectedFees {
		t.Fatalf("expected total fees %d, got %d", expectedFees, template.TotalFees)
	}
	if template.RefundCount != 0 || len(transactions[0].Outputs) != 1 {
		t.Fatalf("unexpected refunds %s", spew.Sdump(transactions[0].Outputs))
	}
	if template.ExecutedContracts != 1 || !template.StateRoot.IsZero() {
		t.Fatalf("unexpected execution outcome: %d executed, root %s",
			template.ExecutedContracts, template.StateRoot)
	}

	err = miningManager.HandleNewBlock(template.Block)
	if err != nil {
		t.Fatalf("HandleNewBlock: %+v", err)
	}
	if miningManager.TransactionCount() != 0 {
		t.Fatalf("mined transactions were left in the mempool")
	}

	next, err := miningManager.GetBlockTemplate(context.Background(), template.Block.Header, coinbaseData)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %+v", err)
	}
	if next.Height != 2 || len(next.Block.Transactions) != 1 ||
		!next.Block.Header.ParentHash.Equal(consensushashing.HeaderHash(template.Block.Header)) {
		t.Fatalf("unexpected template on top of the mined block %s", spew.Sdump(next.Block.Header))
	}
}

// emptyCallContract is a module exporting a `call` function that returns
// immediately.
var emptyCallContract = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type section: () -> ()
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x08, 0x01, 0x04, 'c', 'a', 'l', 'l', 0x00, 0x00, // export section
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // code section
}

func TestBuildOnAcceptedContractBlock(t *testing.T) {
	executorFactory, err := contractvm.NewWASMExecutorFactory(context.Background(), params, 10)
	if err != nil {
		t.Fatalf("NewWASMExecutorFactory: %+v", err)
	}
	defer executorFactory.Close(context.Background())

	genesis := &externalapi.DomainBlockHeader{
		Version:            params.BlockVersion,
		TimeInMilliseconds: 1_600_000_000_000,
		Bits:               params.PosLimitBits,
		IsProofOfStake:     true,
	}
	stakeStore := stakechain.NewMemoryStakeStore()
	err = stakeStore.Insert(stakechain.NewStakeInfoFromHeader(genesis))
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}

	senderScript := payToAddressScript(t, externalapi.DomainAddress{0x5e})
	coinView := utxo.NewMemoryCoinView()
	var fundingID externalapi.DomainTransactionID
	fundingOutpoint := externalapi.NewDomainOutpoint(&fundingID, 0)
	coinView.Add(fundingOutpoint, externalapi.NewUTXOEntry(1_000_000, senderScript, false, 0))

	stateTree := statetree.New(statetree.NewMemoryNodeStore())
	miningManager := miningmanager.NewFactory().NewMiningManager(params, mempool.DefaultConfig(params),
		blocktemplatebuilder.DefaultPolicy(params), stateTree, stakeStore, coinView, executorFactory)
	coinbaseData := &externalapi.DomainCoinbaseData{
		ScriptPublicKey: payToAddressScript(t, externalapi.DomainAddress{0xc0}),
	}

	createScript, err := contracts.BuildCreateScript(0, 50_000, 1, emptyCallContract)
	if err != nil {
		t.Fatalf("BuildCreateScript: %+v", err)
	}
	deploy := &externalapi.DomainTransaction{
		Version: 1,
		Inputs:  []*externalapi.DomainTransactionInput{{PreviousOutpoint: *fundingOutpoint}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 0, ScriptPublicKey: createScript},
			{Value: 900_000, ScriptPublicKey: senderScript},
		},
	}
	err = miningManager.ValidateAndInsertTransaction(deploy)
	if err != nil {
		t.Fatalf("ValidateAndInsertTransaction: %+v", err)
	}

	first, err := miningManager.GetBlockTemplate(context.Background(), genesis, coinbaseData)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %+v", err)
	}
	if first.ExecutedContracts != 1 || first.RefundCount != 1 || first.StateRoot.IsZero() {
		t.Fatalf("contract deployment did not succeed: %d executed, %d refunds, root %s",
			first.ExecutedContracts, first.RefundCount, first.StateRoot)
	}
	committed, err := stateTree.HasRoot(first.StateRoot)
	if err != nil {
		t.Fatalf("HasRoot: %+v", err)
	}
	if committed {
		t.Fatalf("the state of a template was committed before its block was accepted")
	}

	err = miningManager.HandleNewBlock(first.Block)
	if err != nil {
		t.Fatalf("HandleNewBlock: %+v", err)
	}
	committed, err = stateTree.HasRoot(first.StateRoot)
	if err != nil {
		t.Fatalf("HasRoot: %+v", err)
	}
	if !committed {
		t.Fatalf("the state of an accepted block was not committed")
	}
	deployID := consensushashing.TransactionID(deploy)
	changeOutpoint := externalapi.NewDomainOutpoint(deployID, 1)
	if _, ok := coinView.UTXOEntry(changeOutpoint); !ok {
		t.Fatalf("the outputs of an accepted block were not added to the coin view")
	}
	if _, ok := coinView.UTXOEntry(fundingOutpoint); ok {
		t.Fatalf("an output spent by an accepted block is still in the coin view")
	}

	// The second block calls the contract deployed by the first, paying
	// with the change of the deployment
	callScript, err := contracts.BuildCallScript(0, 10_000, 1, []byte{1}, contracts.ContractAddress(deployID, 0))
	if err != nil {
		t.Fatalf("BuildCallScript: %+v", err)
	}
	call := &externalapi.DomainTransaction{
		Version: 1,
		Inputs:  []*externalapi.DomainTransactionInput{{PreviousOutpoint: *changeOutpoint}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 0, ScriptPublicKey: callScript},
			{Value: 880_000, ScriptPublicKey: senderScript},
		},
	}
	err = miningManager.ValidateAndInsertTransaction(call)
	if err != nil {
		t.Fatalf("ValidateAndInsertTransaction: %+v", err)
	}

	second, err := miningManager.GetBlockTemplate(context.Background(), first.Block.Header, coinbaseData)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %+v", err)
	}
	if second.Height != 2 || second.ExecutedContracts != 1 || len(second.ExcludedTransactions) != 0 {
		t.Fatalf("unexpected template on top of the contract block %s", spew.Sdump(second))
	}
	// Only a successful call is refunded its unused gas
	if second.RefundCount != 1 || len(second.Block.Transactions) != 2 {
		t.Fatalf("the call to the deployed contract failed %s", spew.Sdump(second.Block.Transactions))
	}
	if !second.StateRoot.Equal(first.StateRoot) {
		t.Fatalf("a call that writes nothing changed the state root")
	}

	err = miningManager.HandleNewBlock(second.Block)
	if err != nil {
		t.Fatalf("HandleNewBlock: %+v", err)
	}
}

func TestHandleBlockWithUnknownState(t *testing.T) {
	executorFactory, err := contractvm.NewWASMExecutorFactory(context.Background(), params, 10)
	if err != nil {
		t.Fatalf("NewWASMExecutorFactory: %+v", err)
	}
	defer executorFactory.Close(context.Background())

	coinView := utxo.NewMemoryCoinView()
	miningManager := miningmanager.NewFactory().NewMiningManager(params, mempool.DefaultConfig(params),
		blocktemplatebuilder.DefaultPolicy(params), statetree.New(statetree.NewMemoryNodeStore()),
		stakechain.NewMemoryStakeStore(), coinView, executorFactory)

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:   params.BlockVersion,
			Height:    1,
			StateRoot: *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1}),
		},
		Transactions: []*externalapi.DomainTransaction{{
			Version: 1,
			Outputs: []*externalapi.DomainTransactionOutput{
				{Value: 50, ScriptPublicKey: payToAddressScript(t, externalapi.DomainAddress{0xc0})},
			},
		}},
	}
	err = miningManager.HandleNewBlock(block)
	if !errors.Is(err, ruleerrors.ErrMissingStateRoot) {
		t.Fatalf("expected ErrMissingStateRoot, got %v", err)
	}
	if coinView.Count() != 0 {
		t.Fatalf("a block with an unknown state was applied to the coin view")
	}
}
