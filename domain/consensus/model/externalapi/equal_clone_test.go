package externalapi

import (
	"reflect"
	"testing"
)

func testHash(b byte) DomainHash {
	return *NewDomainHashFromByteArray(&[DomainHashSize]byte{b})
}

func testHeader() *DomainBlockHeader {
	return &DomainBlockHeader{
		Version:            1,
		ParentHash:         testHash(1),
		HashMerkleRoot:     testHash(2),
		StateRoot:          testHash(3),
		TimeInMilliseconds: 4,
		Bits:               5,
		Nonce:              6,
		Height:             7,
		IsProofOfStake:     true,
	}
}

func testTransaction() *DomainTransaction {
	return &DomainTransaction{
		Version: 1,
		Inputs: []*DomainTransactionInput{{
			PreviousOutpoint: DomainOutpoint{DomainTransactionID(testHash(8)), 2},
			SignatureScript:  []byte{1, 2, 3},
			Sequence:         9,
			UTXOEntry:        NewUTXOEntry(10, []byte{4, 5}, false, 11),
		}},
		Outputs:  []*DomainTransactionOutput{{Value: 12, ScriptPublicKey: []byte{6}}},
		LockTime: 13,
		Payload:  []byte{7},
		Fee:      14,
		Mass:     15,
	}
}

func TestDomainBlockHeaderEqual(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(header *DomainBlockHeader)
		expected bool
	}{
		{"same", func(header *DomainBlockHeader) {}, true},
		{"version", func(header *DomainBlockHeader) { header.Version++ }, false},
		{"parent", func(header *DomainBlockHeader) { header.ParentHash = testHash(0xff) }, false},
		{"merkle root", func(header *DomainBlockHeader) { header.HashMerkleRoot = testHash(0xff) }, false},
		{"state root", func(header *DomainBlockHeader) { header.StateRoot = testHash(0xff) }, false},
		{"time", func(header *DomainBlockHeader) { header.TimeInMilliseconds++ }, false},
		{"bits", func(header *DomainBlockHeader) { header.Bits++ }, false},
		{"nonce", func(header *DomainBlockHeader) { header.Nonce++ }, false},
		{"height", func(header *DomainBlockHeader) { header.Height++ }, false},
		{"proof of stake", func(header *DomainBlockHeader) { header.IsProofOfStake = false }, false},
	}

	for _, test := range tests {
		other := testHeader()
		test.modify(other)
		if result := testHeader().Equal(other); result != test.expected {
			t.Fatalf("%s: expected Equal to return %t, got %t", test.name, test.expected, result)
		}
	}

	var nilHeader *DomainBlockHeader
	if !nilHeader.Equal(nil) || nilHeader.Equal(testHeader()) || testHeader().Equal(nil) {
		t.Fatalf("unexpected Equal result for nil headers")
	}
}

func TestDomainTransactionEqual(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(tx *DomainTransaction)
		expected bool
	}{
		{"same", func(tx *DomainTransaction) {}, true},
		{"version", func(tx *DomainTransaction) { tx.Version = InternalTransactionVersion }, false},
		{"outpoint", func(tx *DomainTransaction) { tx.Inputs[0].PreviousOutpoint.Index++ }, false},
		{"signature script", func(tx *DomainTransaction) { tx.Inputs[0].SignatureScript = nil }, false},
		{"sequence", func(tx *DomainTransaction) { tx.Inputs[0].Sequence++ }, false},
		{"utxo entry", func(tx *DomainTransaction) { tx.Inputs[0].UTXOEntry = nil }, false},
		{"missing input", func(tx *DomainTransaction) { tx.Inputs = nil }, false},
		{"output value", func(tx *DomainTransaction) { tx.Outputs[0].Value++ }, false},
		{"output script", func(tx *DomainTransaction) { tx.Outputs[0].ScriptPublicKey = []byte{0xff} }, false},
		{"lock time", func(tx *DomainTransaction) { tx.LockTime++ }, false},
		{"payload", func(tx *DomainTransaction) { tx.Payload = []byte{0xff} }, false},
		{"fee", func(tx *DomainTransaction) { tx.Fee++ }, false},
		{"mass", func(tx *DomainTransaction) { tx.Mass++ }, false},
	}

	for _, test := range tests {
		other := testTransaction()
		test.modify(other)
		if result := testTransaction().Equal(other); result != test.expected {
			t.Fatalf("%s: expected Equal to return %t, got %t", test.name, test.expected, result)
		}
	}
}

func TestClone(t *testing.T) {
	block := &DomainBlock{Header: testHeader(), Transactions: []*DomainTransaction{testTransaction()}}
	blockClone := block.Clone()
	if !block.Equal(blockClone) || !reflect.DeepEqual(block, blockClone) {
		t.Fatalf("the block clone is not equal to the original")
	}

	blockClone.Header.Nonce++
	blockClone.Transactions[0].Inputs[0].SignatureScript[0] = 0xff
	blockClone.Transactions[0].Inputs[0].UTXOEntry.ScriptPublicKey[0] = 0xff
	blockClone.Transactions[0].Outputs[0].ScriptPublicKey[0] = 0xff
	blockClone.Transactions[0].Payload[0] = 0xff
	if !block.Equal(&DomainBlock{Header: testHeader(), Transactions: []*DomainTransaction{testTransaction()}}) {
		t.Fatalf("modifying the clone changed the original block")
	}

	coinbaseData := &DomainCoinbaseData{ScriptPublicKey: []byte{1}, ExtraData: []byte{2}}
	coinbaseDataClone := coinbaseData.Clone()
	coinbaseDataClone.ExtraData[0] = 0xff
	if coinbaseData.ExtraData[0] != 2 {
		t.Fatalf("modifying the coinbase data clone changed the original")
	}
}

func TestUTXOEntryEqual(t *testing.T) {
	entry := NewUTXOEntry(1, []byte{2}, true, 3)
	tests := []struct {
		other    *UTXOEntry
		expected bool
	}{
		{NewUTXOEntry(1, []byte{2}, true, 3), true},
		{NewUTXOEntry(2, []byte{2}, true, 3), false},
		{NewUTXOEntry(1, []byte{3}, true, 3), false},
		{NewUTXOEntry(1, []byte{2}, false, 3), false},
		{NewUTXOEntry(1, []byte{2}, true, 4), false},
		{nil, false},
	}
	for i, test := range tests {
		if result := entry.Equal(test.other); result != test.expected {
			t.Fatalf("test #%d: expected Equal to return %t, got %t", i, test.expected, result)
		}
	}
}

func TestDomainHashFromString(t *testing.T) {
	hash := testHash(0xab)
	parsed, err := NewDomainHashFromString(hash.String())
	if err != nil {
		t.Fatalf("NewDomainHashFromString: %+v", err)
	}
	if !parsed.Equal(&hash) {
		t.Fatalf("expected %s, got %s", hash, parsed)
	}

	_, err = NewDomainHashFromString("abcd")
	if err == nil {
		t.Fatalf("a short hash string was accepted")
	}
}
