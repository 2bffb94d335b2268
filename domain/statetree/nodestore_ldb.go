package statetree

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var nodesBucket = database.MakeBucket([]byte("state-nodes"))
var valuesBucket = database.MakeBucket([]byte("state-values"))

type ldbNodeStore struct {
	db    database.Database
	cache *lru.Cache[externalapi.DomainHash, *Node]
}

// NewLDBNodeStore returns a NodeStore persisting nodes and values into db.
// Up to cacheSize decoded nodes are kept in memory.
func NewLDBNodeStore(db database.Database, cacheSize int) (NodeStore, error) {
	cache, err := lru.New[externalapi.DomainHash, *Node](cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &ldbNodeStore{db: db, cache: cache}, nil
}

func (lns *ldbNodeStore) Node(nodeHash *externalapi.DomainHash) (*Node, error) {
	if node, ok := lns.cache.Get(*nodeHash); ok {
		return node, nil
	}

	nodeBytes, err := lns.db.Get(nodesBucket.Key(nodeHash.ByteSlice()))
	if err != nil {
		return nil, errors.Wrapf(err, "state node %s", nodeHash)
	}
	node, err := deserializeNode(nodeBytes)
	if err != nil {
		return nil, err
	}
	lns.cache.Add(*nodeHash, node)
	return node, nil
}

func (lns *ldbNodeStore) HasNode(nodeHash *externalapi.DomainHash) (bool, error) {
	if lns.cache.Contains(*nodeHash) {
		return true, nil
	}
	return lns.db.Has(nodesBucket.Key(nodeHash.ByteSlice()))
}

func (lns *ldbNodeStore) Value(valueHash *externalapi.DomainHash) ([]byte, error) {
	value, err := lns.db.Get(valuesBucket.Key(valueHash.ByteSlice()))
	if err != nil {
		return nil, errors.Wrapf(err, "state value %s", valueHash)
	}
	return value, nil
}

func (lns *ldbNodeStore) Write(batch *WriteBatch) error {
	dbBatch := lns.db.NewBatch()
	for nodeHash, node := range batch.Nodes {
		dbBatch.Put(nodesBucket.Key(nodeHash.ByteSlice()), node.serialize())
	}
	for valueHash, value := range batch.Values {
		dbBatch.Put(valuesBucket.Key(valueHash.ByteSlice()), value)
	}
	err := dbBatch.Write()
	if err != nil {
		return err
	}

	for nodeHash, node := range batch.Nodes {
		lns.cache.Add(nodeHash, node)
	}
	return nil
}
