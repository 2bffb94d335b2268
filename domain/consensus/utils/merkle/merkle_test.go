package merkle

import (
	"testing"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

func transactionWithLockTime(lockTime uint64) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version:  1,
		Outputs:  []*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: []byte{0x51}}},
		LockTime: lockTime,
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, out int
	}{
		{1, 1}, {2, 2}, {3, 4}, {5, 8}, {8, 8}, {9, 16},
	}
	for i, test := range tests {
		if result := nextPowerOfTwo(test.in); result != test.out {
			t.Fatalf("Test #%d: nextPowerOfTwo(%d) = %d, want %d", i, test.in, result, test.out)
		}
	}
}

func TestCalculateHashMerkleRoot(t *testing.T) {
	if !CalculateHashMerkleRoot(nil).IsZero() {
		t.Fatalf("merkle root of no transactions is not the zero hash")
	}

	single := transactionWithLockTime(1)
	if !CalculateHashMerkleRoot([]*externalapi.DomainTransaction{single}).Equal(consensushashing.TransactionHash(single)) {
		t.Fatalf("merkle root of a single transaction is not its hash")
	}

	txs := []*externalapi.DomainTransaction{transactionWithLockTime(1), transactionWithLockTime(2),
		transactionWithLockTime(3)}
	root := CalculateHashMerkleRoot(txs)
	reordered := []*externalapi.DomainTransaction{txs[1], txs[0], txs[2]}
	if root.Equal(CalculateHashMerkleRoot(reordered)) {
		t.Fatalf("merkle root does not commit to transaction order")
	}

	h01 := hashMerkleBranches(consensushashing.TransactionHash(txs[0]), consensushashing.TransactionHash(txs[1]))
	h2z := hashMerkleBranches(consensushashing.TransactionHash(txs[2]), externalapi.NewZeroHash())
	if !root.Equal(hashMerkleBranches(h01, h2z)) {
		t.Fatalf("unexpected merkle root for three transactions")
	}
}
