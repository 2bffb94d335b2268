package ldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

type batch struct {
	db       *LevelDB
	ldbBatch *leveldb.Batch
}

func (b *batch) Put(key []byte, value []byte) {
	b.ldbBatch.Put(key, value)
}

func (b *batch) Delete(key []byte) {
	b.ldbBatch.Delete(key)
}

func (b *batch) Len() int {
	return b.ldbBatch.Len()
}

func (b *batch) Write() error {
	return errors.WithStack(b.db.ldb.Write(b.ldbBatch, nil))
}
