package stakechain

import (
	"bytes"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/consensus/utils/serialization"
)

// StakeInfo is the part of a block header the difficulty retarget
// depends on.
type StakeInfo struct {
	Hash               externalapi.DomainHash
	ParentHash         externalapi.DomainHash
	Height             uint64
	TimeInMilliseconds int64
	Bits               uint32
	IsProofOfStake     bool
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = StakeInfo{externalapi.DomainHash{}, externalapi.DomainHash{}, 0, 0, 0, false}

// Clone returns a clone of StakeInfo
func (si *StakeInfo) Clone() *StakeInfo {
	clone := *si
	return &clone
}

// Equal returns whether si equals to other
func (si *StakeInfo) Equal(other *StakeInfo) bool {
	if si == nil || other == nil {
		return si == other
	}
	return *si == *other
}

// NewStakeInfoFromHeader extracts the stake info of the given header
func NewStakeInfoFromHeader(header *externalapi.DomainBlockHeader) *StakeInfo {
	return &StakeInfo{
		Hash:               *consensushashing.HeaderHash(header),
		ParentHash:         header.ParentHash,
		Height:             header.Height,
		TimeInMilliseconds: header.TimeInMilliseconds,
		Bits:               header.Bits,
		IsProofOfStake:     header.IsProofOfStake,
	}
}

func (si *StakeInfo) serialize() ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := serialization.WriteElements(buffer, si.Hash, si.ParentHash, si.Height, si.TimeInMilliseconds,
		si.Bits, si.IsProofOfStake)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func deserializeStakeInfo(stakeInfoBytes []byte) (*StakeInfo, error) {
	stakeInfo := &StakeInfo{}
	err := serialization.ReadElements(bytes.NewReader(stakeInfoBytes), &stakeInfo.Hash, &stakeInfo.ParentHash,
		&stakeInfo.Height, &stakeInfo.TimeInMilliseconds, &stakeInfo.Bits, &stakeInfo.IsProofOfStake)
	if err != nil {
		return nil, err
	}
	return stakeInfo, nil
}
