package stakechain

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// lastStakeInfo walks back from stakeInfo to the closest block, itself
// included, whose kind matches isProofOfStake. The walk stops at the
// genesis block.
func lastStakeInfo(history StakeHistory, stakeInfo *StakeInfo, isProofOfStake bool) (*StakeInfo, error) {
	for stakeInfo.Height > 0 && stakeInfo.IsProofOfStake != isProofOfStake {
		var err error
		stakeInfo, err = history.StakeInfo(&stakeInfo.ParentHash)
		if err != nil {
			return nil, err
		}
	}
	return stakeInfo, nil
}

// NextDifficultyTarget calculates the compact target of the proof-of-stake
// block following tip.
//
// The target of the last proof-of-stake block is adjusted towards the
// target spacing by the spacing between the last two proof-of-stake blocks:
//   new = last * ((interval-1)*spacing + 2*actual) / ((interval+1)*spacing)
// The result never exceeds the network's proof-of-stake limit.
func NextDifficultyTarget(history StakeHistory, tip *externalapi.DomainHash,
	params *chainconfig.Params) (uint32, error) {

	tipStakeInfo, err := history.StakeInfo(tip)
	if err != nil {
		return 0, err
	}

	last, err := lastStakeInfo(history, tipStakeInfo, true)
	if err != nil {
		return 0, err
	}
	if last.Height == 0 {
		return params.PosLimitBits, nil
	}
	lastParent, err := history.StakeInfo(&last.ParentHash)
	if err != nil {
		return 0, err
	}
	previous, err := lastStakeInfo(history, lastParent, true)
	if err != nil {
		return 0, err
	}
	if previous.Height == 0 {
		return params.PosLimitBits, nil
	}

	targetSpacing := params.TargetSpacing.Milliseconds()
	actualSpacing := last.TimeInMilliseconds - previous.TimeInMilliseconds
	if actualSpacing < 0 {
		actualSpacing = targetSpacing
	}
	interval := params.RetargetInterval()

	newTarget := blockchain.CompactToBig(last.Bits)
	newTarget.
		Mul(newTarget, big.NewInt((interval-1)*targetSpacing+2*actualSpacing)).
		Div(newTarget, big.NewInt((interval+1)*targetSpacing))
	if newTarget.Sign() <= 0 || newTarget.Cmp(params.PosLimit) > 0 {
		return params.PosLimitBits, nil
	}

	newTargetBits := blockchain.BigToCompact(newTarget)
	log.Debugf("Next proof-of-stake target after %s is %08x (spacing %dms)", tip, newTargetBits, actualSpacing)
	return newTargetBits, nil
}
