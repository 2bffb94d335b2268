package blocktemplatebuilder

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/merkle"
	"github.com/hybridchain/hybridd/domain/stakechain"
)

// finalizeHeader builds the header of block, whose transactions are final
func (bc *buildContext) finalizeHeader(block *externalapi.DomainBlock) error {
	bits, err := bc.newBlockDifficulty()
	if err != nil {
		return err
	}

	block.Header = &externalapi.DomainBlockHeader{
		Version:            bc.params.BlockVersion,
		ParentHash:         *bc.tipHash,
		HashMerkleRoot:     *bc.newBlockHashMerkleRoot(block.Transactions),
		StateRoot:          *bc.snapshot.Root(),
		TimeInMilliseconds: bc.newBlockTime(),
		Bits:               bits,
		Height:             bc.height,
		IsProofOfStake:     true,
	}
	return nil
}

func (bc *buildContext) newBlockTime() int64 {
	// The timestamp of a block must be later than the timestamp of its
	// parent. Thus, choose the maximum between the current time and one
	// millisecond after the tip's time.
	newTimestamp := bc.nowInMilliseconds()
	minTimestamp := bc.tip.TimeInMilliseconds + 1
	if newTimestamp < minTimestamp {
		newTimestamp = minTimestamp
	}
	return newTimestamp
}

func (bc *buildContext) newBlockDifficulty() (uint32, error) {
	return stakechain.NextDifficultyTarget(bc.stakeHistory, bc.tipHash, bc.params)
}

func (bc *buildContext) newBlockHashMerkleRoot(transactions []*externalapi.DomainTransaction) *externalapi.DomainHash {
	return merkle.CalculateHashMerkleRoot(transactions)
}
