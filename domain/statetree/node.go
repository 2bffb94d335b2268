package statetree

import (
	"bytes"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/hashes"
	"github.com/pkg/errors"
)

// NodeKind distinguishes the two kinds of stored tree nodes. The empty
// subtree (the terminator) is never stored and is identified by the zero hash.
type NodeKind uint8

const (
	// NodeKindInternal is a node with two children.
	NodeKindInternal NodeKind = iota

	// NodeKindLeaf is a node holding a single key/value pair.
	NodeKindLeaf
)

// pathBits is the number of bits in a key path, and the maximum depth
// of the tree.
const pathBits = externalapi.DomainHashSize * 8

const serializedNodeSize = 1 + 2*externalapi.DomainHashSize

// Node is a node of the state tree. A leaf carries the path of its key and
// the hash of its value; an internal node carries the hashes of its children.
// A node is identified by its hash.
type Node struct {
	Kind NodeKind

	// Leaf fields
	Path      externalapi.DomainHash
	ValueHash externalapi.DomainHash

	// Internal fields
	Left  externalapi.DomainHash
	Right externalapi.DomainHash
}

func newLeafNode(path, valueHash *externalapi.DomainHash) *Node {
	return &Node{Kind: NodeKindLeaf, Path: *path, ValueHash: *valueHash}
}

func newInternalNode(left, right *externalapi.DomainHash) *Node {
	return &Node{Kind: NodeKindInternal, Left: *left, Right: *right}
}

// Hash returns the hash identifying this node.
func (n *Node) Hash() *externalapi.DomainHash {
	writer := hashes.NewStateNodeHashWriter()
	writer.InfallibleWrite(n.serialize())
	return writer.Finalize()
}

func (n *Node) serialize() []byte {
	buf := make([]byte, 0, serializedNodeSize)
	buf = append(buf, byte(n.Kind))
	switch n.Kind {
	case NodeKindLeaf:
		buf = append(buf, n.Path.ByteSlice()...)
		buf = append(buf, n.ValueHash.ByteSlice()...)
	case NodeKindInternal:
		buf = append(buf, n.Left.ByteSlice()...)
		buf = append(buf, n.Right.ByteSlice()...)
	}
	return buf
}

func deserializeNode(nodeBytes []byte) (*Node, error) {
	if len(nodeBytes) != serializedNodeSize {
		return nil, errors.Errorf("state node is %d bytes long, expected %d",
			len(nodeBytes), serializedNodeSize)
	}
	first, err := externalapi.NewDomainHashFromByteSlice(nodeBytes[1 : 1+externalapi.DomainHashSize])
	if err != nil {
		return nil, err
	}
	second, err := externalapi.NewDomainHashFromByteSlice(nodeBytes[1+externalapi.DomainHashSize:])
	if err != nil {
		return nil, err
	}

	switch NodeKind(nodeBytes[0]) {
	case NodeKindLeaf:
		return newLeafNode(first, second), nil
	case NodeKindInternal:
		return newInternalNode(first, second), nil
	}
	return nil, errors.Errorf("unknown state node kind %d", nodeBytes[0])
}

// Equal returns whether n equals to other
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return bytes.Equal(n.serialize(), other.serialize())
}

// KeyPath returns the path in the tree at which the given key is stored.
func KeyPath(key []byte) *externalapi.DomainHash {
	writer := hashes.NewStateKeyPathWriter()
	writer.InfallibleWrite(key)
	return writer.Finalize()
}

// ValueHash returns the hash under which the given value is stored.
func ValueHash(value []byte) *externalapi.DomainHash {
	writer := hashes.NewStateValueHashWriter()
	writer.InfallibleWrite(value)
	return writer.Finalize()
}

// pathBit returns the bit of path at the given depth, most significant
// bit first. 0 means left and 1 means right.
func pathBit(path *externalapi.DomainHash, depth int) byte {
	pathBytes := path.ByteArray()
	return (pathBytes[depth/8] >> (7 - uint(depth%8))) & 1
}
