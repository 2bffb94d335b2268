package stakechain

import (
	"sync"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// StakeHistory provides the stake info of past blocks
type StakeHistory interface {
	StakeInfo(blockHash *externalapi.DomainHash) (*StakeInfo, error)
}

// StakeStore is a StakeHistory blocks can be added to
type StakeStore interface {
	StakeHistory
	Insert(stakeInfo *StakeInfo) error
}

var stakeInfoBucket = database.MakeBucket([]byte("stake-info"))

type ldbStakeStore struct {
	db database.Database
}

// NewLDBStakeStore returns a StakeStore persisting into db
func NewLDBStakeStore(db database.Database) StakeStore {
	return &ldbStakeStore{db: db}
}

func (lss *ldbStakeStore) StakeInfo(blockHash *externalapi.DomainHash) (*StakeInfo, error) {
	stakeInfoBytes, err := lss.db.Get(stakeInfoBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, errors.Wrapf(ruleerrors.ErrMissingStakeHistory, "block %s", blockHash)
		}
		return nil, err
	}
	return deserializeStakeInfo(stakeInfoBytes)
}

func (lss *ldbStakeStore) Insert(stakeInfo *StakeInfo) error {
	stakeInfoBytes, err := stakeInfo.serialize()
	if err != nil {
		return err
	}
	err = lss.db.Put(stakeInfoBucket.Key(stakeInfo.Hash.ByteSlice()), stakeInfoBytes)
	if err != nil {
		return err
	}
	log.Tracef("Inserted stake info of block %s at height %d", stakeInfo.Hash, stakeInfo.Height)
	return nil
}

type memoryStakeStore struct {
	lock       sync.RWMutex
	stakeInfos map[externalapi.DomainHash]*StakeInfo
}

// NewMemoryStakeStore returns an in-memory StakeStore
func NewMemoryStakeStore() StakeStore {
	return &memoryStakeStore{stakeInfos: make(map[externalapi.DomainHash]*StakeInfo)}
}

func (mss *memoryStakeStore) StakeInfo(blockHash *externalapi.DomainHash) (*StakeInfo, error) {
	mss.lock.RLock()
	defer mss.lock.RUnlock()

	stakeInfo, ok := mss.stakeInfos[*blockHash]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrMissingStakeHistory, "block %s", blockHash)
	}
	return stakeInfo.Clone(), nil
}

func (mss *memoryStakeStore) Insert(stakeInfo *StakeInfo) error {
	mss.lock.Lock()
	defer mss.lock.Unlock()

	mss.stakeInfos[stakeInfo.Hash] = stakeInfo.Clone()
	return nil
}
