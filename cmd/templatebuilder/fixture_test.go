package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/infrastructure/db/database/ldb"
)

const fundingTransactionID = "0101010101010101010101010101010101010101010101010101010101010101"

const testFixture = `{
	"tip": {"version": 1, "timeInMilliseconds": 1600000000000, "bits": 511705087, "height": 7, "isProofOfStake": true},
	"utxos": [
		{"transactionId": "` + fundingTransactionID + `", "index": 2, "amount": 5000,
			"scriptPublicKey": "76a914000000000000000000000000000000000000000088ac", "blockHeight": 3}
	],
	"transactions": [
		{"version": 1,
			"inputs": [{"transactionId": "` + fundingTransactionID + `", "index": 2, "signatureScript": "51"}],
			"outputs": [{"value": 4000, "scriptPublicKey": "51"}],
			"payload": ""}
	]
}`

func writeFixture(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fixture.json")
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	return path
}

func TestReadFixture(t *testing.T) {
	f, err := readFixture(writeFixture(t, testFixture))
	if err != nil {
		t.Fatalf("readFixture: %+v", err)
	}

	tip, err := f.Tip.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %+v", err)
	}
	if tip.Height != 7 || !tip.IsProofOfStake || !tip.StateRoot.IsZero() || !tip.ParentHash.IsZero() {
		t.Fatalf("unexpected tip %+v", tip)
	}

	coinView, err := f.coinView()
	if err != nil {
		t.Fatalf("coinView: %+v", err)
	}
	transactionID, err := externalapi.NewDomainHashFromString(fundingTransactionID)
	if err != nil {
		t.Fatalf("NewDomainHashFromString: %+v", err)
	}
	outpoint := externalapi.NewDomainOutpoint((*externalapi.DomainTransactionID)(transactionID), 2)
	entry, ok := coinView.UTXOEntry(outpoint)
	if !ok {
		t.Fatalf("the fixture's utxo is missing from the coin view")
	}
	if entry.Amount != 5000 || entry.BlockHeight != 3 || len(entry.ScriptPublicKey) != 25 {
		t.Fatalf("unexpected utxo entry %+v", entry)
	}

	transactions, err := f.transactions()
	if err != nil {
		t.Fatalf("transactions: %+v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	transaction := transactions[0]
	if !transaction.Inputs[0].PreviousOutpoint.Equal(outpoint) || transaction.Outputs[0].Value != 4000 ||
		len(transaction.Payload) != 0 {
		t.Fatalf("unexpected transaction %+v", transaction)
	}
}

func TestReadFixtureErrors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError string
	}{
		{
			name:          "unknown field",
			content:       `{"tip": {}, "mempool": []}`,
			expectedError: "unknown field",
		},
		{
			name:          "malformed json",
			content:       `{"tip": `,
			expectedError: "couldn't parse",
		},
	}
	for _, test := range tests {
		_, err := readFixture(writeFixture(t, test.content))
		if err == nil || !strings.Contains(err.Error(), test.expectedError) {
			t.Fatalf("%s: expected an error containing %q, got %v", test.name, test.expectedError, err)
		}
	}

	f, err := readFixture(writeFixture(t, `{"transactions": [{"version": 1, "inputs": [], "outputs": [], "payload": "zz"}]}`))
	if err != nil {
		t.Fatalf("readFixture: %+v", err)
	}
	_, err = f.transactions()
	if err == nil || !strings.Contains(err.Error(), "payload") {
		t.Fatalf("expected a payload decoding error, got %v", err)
	}

	f, err = readFixture(writeFixture(t, `{"tip": {"stateRoot": "1234"}}`))
	if err != nil {
		t.Fatalf("readFixture: %+v", err)
	}
	_, err = f.Tip.toDomain()
	if err == nil || !strings.Contains(err.Error(), "state root") {
		t.Fatalf("expected a state root decoding error, got %v", err)
	}
}

func TestEnsureTipStakeInfo(t *testing.T) {
	db, err := ldb.NewMemLevelDB()
	if err != nil {
		t.Fatalf("NewMemLevelDB: %+v", err)
	}
	defer db.Close()
	stakeStore := stakechain.NewLDBStakeStore(db)

	tip := &externalapi.DomainBlockHeader{Version: 1, TimeInMilliseconds: 1_600_000_000_000, Height: 4}
	for i := 0; i < 2; i++ {
		err = ensureTipStakeInfo(stakeStore, tip)
		if err != nil {
			t.Fatalf("ensureTipStakeInfo: %+v", err)
		}
	}

	expected := stakechain.NewStakeInfoFromHeader(tip)
	stakeInfo, err := stakeStore.StakeInfo(&expected.Hash)
	if err != nil {
		t.Fatalf("StakeInfo: %+v", err)
	}
	if !stakeInfo.Equal(expected) {
		t.Fatalf("expected stake info %+v, got %+v", expected, stakeInfo)
	}
}
