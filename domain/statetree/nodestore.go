package statetree

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// NodeStore is the persistent layer underneath the state tree. It only ever
// grows: nodes and values are content addressed, so every root that was
// ever written to it stays readable.
type NodeStore interface {
	// Node returns the node with the given hash. It returns an error
	// matching database.ErrNotFound if no such node exists.
	Node(nodeHash *externalapi.DomainHash) (*Node, error)

	// HasNode returns whether a node with the given hash exists.
	HasNode(nodeHash *externalapi.DomainHash) (bool, error)

	// Value returns the value with the given hash. It returns an error
	// matching database.ErrNotFound if no such value exists.
	Value(valueHash *externalapi.DomainHash) ([]byte, error)

	// Write atomically persists the given nodes and values.
	Write(batch *WriteBatch) error
}

// WriteBatch is a set of nodes and values to be persisted together.
type WriteBatch struct {
	Nodes  map[externalapi.DomainHash]*Node
	Values map[externalapi.DomainHash][]byte
}

func newWriteBatch() *WriteBatch {
	return &WriteBatch{
		Nodes:  make(map[externalapi.DomainHash]*Node),
		Values: make(map[externalapi.DomainHash][]byte),
	}
}
