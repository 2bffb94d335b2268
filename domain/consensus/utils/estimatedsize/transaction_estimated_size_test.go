package estimatedsize

import (
	"testing"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

func TestTransactionEstimatedSerializedSize(t *testing.T) {
	coinbase := &externalapi.DomainTransaction{
		Version: 1,
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 50, ScriptPublicKey: make([]byte, 25)}},
	}
	// version + input count + output count + (value + script length + script) + lock time + payload length
	expectedCoinbaseSize := uint64(4 + 8 + 8 + (8 + 8 + 25) + 8 + 8)
	if size := TransactionEstimatedSerializedSize(coinbase); size != expectedCoinbaseSize {
		t.Fatalf("coinbase: expected size %d, got %d", expectedCoinbaseSize, size)
	}

	spending := coinbase.Clone()
	spending.Inputs = []*externalapi.DomainTransactionInput{{SignatureScript: make([]byte, 100)}}
	expectedSpendingSize := expectedCoinbaseSize + (externalapi.DomainHashSize + 4) + 8 + 100 + 8
	if size := TransactionEstimatedSerializedSize(spending); size != expectedSpendingSize {
		t.Fatalf("spending: expected size %d, got %d", expectedSpendingSize, size)
	}
}
