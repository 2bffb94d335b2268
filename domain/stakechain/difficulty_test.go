package stakechain

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

const testBits = 0x1c0fffff

// addChain inserts a chain of blocks on top of a genesis block, one per
// entry of isProofOfStake, spaced by the given intervals, and returns the
// hash of its tip.
func addChain(t *testing.T, store StakeStore, isProofOfStake []bool, spacingsInMilliseconds []int64) *externalapi.DomainHash {
	genesis := &externalapi.DomainBlockHeader{TimeInMilliseconds: 1_000_000, Bits: testBits}
	err := store.Insert(NewStakeInfoFromHeader(genesis))
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}

	parent := NewStakeInfoFromHeader(genesis)
	for i, proofOfStake := range isProofOfStake {
		header := &externalapi.DomainBlockHeader{
			ParentHash:         parent.Hash,
			TimeInMilliseconds: parent.TimeInMilliseconds + spacingsInMilliseconds[i],
			Bits:               testBits,
			Height:             parent.Height + 1,
			IsProofOfStake:     proofOfStake,
		}
		stakeInfo := NewStakeInfoFromHeader(header)
		err := store.Insert(stakeInfo)
		if err != nil {
			t.Fatalf("Insert: %+v", err)
		}
		parent = stakeInfo
	}
	return &parent.Hash
}

func expectedBits(params *chainconfig.Params, actualSpacing int64) uint32 {
	targetSpacing := params.TargetSpacing.Milliseconds()
	interval := params.RetargetInterval()
	target := blockchain.CompactToBig(testBits)
	target.Mul(target, big.NewInt((interval-1)*targetSpacing+2*actualSpacing))
	target.Div(target, big.NewInt((interval+1)*targetSpacing))
	return blockchain.BigToCompact(target)
}

func TestNextDifficultyTarget(t *testing.T) {
	params := &chainconfig.MainnetParams
	spacing := params.TargetSpacing.Milliseconds()

	tests := []struct {
		isProofOfStake []bool
		spacings       []int64
		expected       uint32
	}{
		// Genesis only
		{nil, nil, params.PosLimitBits},
		// A single proof-of-stake block
		{[]bool{true, false}, []int64{spacing, spacing}, params.PosLimitBits},
		// On schedule
		{[]bool{true, true}, []int64{spacing, spacing}, testBits},
		// Proof-of-work blocks in between are skipped
		{[]bool{true, false, true, false}, []int64{spacing, spacing / 2, spacing / 2, 7}, testBits},
		// Too fast
		{[]bool{true, true}, []int64{spacing, spacing / 4}, expectedBits(params, spacing/4)},
		// Too slow
		{[]bool{true, true}, []int64{spacing, spacing * 3}, expectedBits(params, spacing*3)},
		// Clock went backwards
		{[]bool{true, true}, []int64{spacing, -spacing}, testBits},
		// Far too slow, capped by the limit
		{[]bool{true, true}, []int64{spacing, spacing * 1_000_000_000}, params.PosLimitBits},
	}

	for i, test := range tests {
		store := NewMemoryStakeStore()
		tip := addChain(t, store, test.isProofOfStake, test.spacings)
		bits, err := NextDifficultyTarget(store, tip, params)
		if err != nil {
			t.Fatalf("Test #%d: NextDifficultyTarget: %+v", i, err)
		}
		if bits != test.expected {
			t.Fatalf("Test #%d: expected bits %08x, got %08x", i, test.expected, bits)
		}
	}

	if expectedBits(params, spacing/4) >= testBits || expectedBits(params, spacing*3) <= testBits {
		t.Fatalf("retarget moves the target in the wrong direction")
	}
}

func TestNextDifficultyTargetMissingHistory(t *testing.T) {
	store := NewMemoryStakeStore()
	unknownTip := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	_, err := NextDifficultyTarget(store, unknownTip, &chainconfig.MainnetParams)
	if !errors.Is(err, ruleerrors.ErrMissingStakeHistory) {
		t.Fatalf("expected ErrMissingStakeHistory, got %v", err)
	}
}
