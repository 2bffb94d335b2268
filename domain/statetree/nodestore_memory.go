package statetree

import (
	"sync"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/infrastructure/db/database"
	"github.com/pkg/errors"
)

type memoryNodeStore struct {
	lock   sync.RWMutex
	nodes  map[externalapi.DomainHash]*Node
	values map[externalapi.DomainHash][]byte
}

// NewMemoryNodeStore returns a NodeStore that keeps everything in memory.
func NewMemoryNodeStore() NodeStore {
	return &memoryNodeStore{
		nodes:  make(map[externalapi.DomainHash]*Node),
		values: make(map[externalapi.DomainHash][]byte),
	}
}

func (mns *memoryNodeStore) Node(nodeHash *externalapi.DomainHash) (*Node, error) {
	mns.lock.RLock()
	defer mns.lock.RUnlock()

	node, ok := mns.nodes[*nodeHash]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "state node %s", nodeHash)
	}
	return node, nil
}

func (mns *memoryNodeStore) HasNode(nodeHash *externalapi.DomainHash) (bool, error) {
	mns.lock.RLock()
	defer mns.lock.RUnlock()

	_, ok := mns.nodes[*nodeHash]
	return ok, nil
}

func (mns *memoryNodeStore) Value(valueHash *externalapi.DomainHash) ([]byte, error) {
	mns.lock.RLock()
	defer mns.lock.RUnlock()

	value, ok := mns.values[*valueHash]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "state value %s", valueHash)
	}
	return value, nil
}

func (mns *memoryNodeStore) Write(batch *WriteBatch) error {
	mns.lock.Lock()
	defer mns.lock.Unlock()

	for nodeHash, node := range batch.Nodes {
		mns.nodes[nodeHash] = node
	}
	for valueHash, value := range batch.Values {
		mns.values[valueHash] = value
	}
	return nil
}
