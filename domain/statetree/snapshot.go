package statetree

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// ErrSnapshotDiscarded is returned by operations on a discarded snapshot.
var ErrSnapshotDiscarded = errors.New("state snapshot was discarded")

// Revision identifies a point in a snapshot's history that it can be
// reverted to.
type Revision int

// Snapshot is a copy-on-write view of the state tree. Nodes created by
// writes live in the snapshot's own arena until Commit; the underlying
// store is never modified before that.
//
// Snapshot is not safe for concurrent use.
type Snapshot struct {
	store     NodeStore
	baseRoot  *externalapi.DomainHash
	root      *externalapi.DomainHash
	nodes     map[externalapi.DomainHash]*Node
	values    map[externalapi.DomainHash][]byte
	revisions []*externalapi.DomainHash
	discarded bool
}

func newSnapshot(store NodeStore, root *externalapi.DomainHash) *Snapshot {
	return &Snapshot{
		store:    store,
		baseRoot: root,
		root:     root,
		nodes:    make(map[externalapi.DomainHash]*Node),
		values:   make(map[externalapi.DomainHash][]byte),
	}
}

// Root returns the root hash of the snapshot's current state.
func (s *Snapshot) Root() *externalapi.DomainHash {
	return s.root
}

// BaseRoot returns the root the snapshot was taken at, or the root of its
// last commit.
func (s *Snapshot) BaseRoot() *externalapi.DomainHash {
	return s.baseRoot
}

// Get returns the value stored under key, and whether it exists.
func (s *Snapshot) Get(key []byte) ([]byte, bool, error) {
	if s.discarded {
		return nil, false, errors.WithStack(ErrSnapshotDiscarded)
	}

	path := KeyPath(key)
	current := s.root
	for depth := 0; !current.IsZero(); depth++ {
		node, err := s.node(current)
		if err != nil {
			return nil, false, err
		}
		if node.Kind == NodeKindLeaf {
			if !node.Path.Equal(path) {
				return nil, false, nil
			}
			value, err := s.value(&node.ValueHash)
			if err != nil {
				return nil, false, err
			}
			return value, true, nil
		}
		if depth >= pathBits {
			return nil, false, errors.Errorf("state tree is deeper than %d at %s", pathBits, current)
		}
		if pathBit(path, depth) == 0 {
			current = &node.Left
		} else {
			current = &node.Right
		}
	}
	return nil, false, nil
}

// Put sets the value stored under key.
func (s *Snapshot) Put(key []byte, value []byte) error {
	if s.discarded {
		return errors.WithStack(ErrSnapshotDiscarded)
	}

	valueClone := make([]byte, len(value))
	copy(valueClone, value)
	valueHash := ValueHash(valueClone)
	s.values[*valueHash] = valueClone

	newRoot, err := s.insert(s.root, 0, KeyPath(key), valueHash)
	if err != nil {
		return err
	}
	s.root = newRoot
	return nil
}

// Delete removes key from the snapshot. Deleting a missing key is a no-op.
func (s *Snapshot) Delete(key []byte) error {
	if s.discarded {
		return errors.WithStack(ErrSnapshotDiscarded)
	}

	newRoot, _, err := s.remove(s.root, 0, KeyPath(key))
	if err != nil {
		return err
	}
	s.root = newRoot
	return nil
}

// Checkpoint records the current state and returns a revision that can later
// be passed to RevertTo.
func (s *Snapshot) Checkpoint() Revision {
	s.revisions = append(s.revisions, s.root)
	return Revision(len(s.revisions) - 1)
}

// RevertTo restores the state recorded by the given revision. The revision
// and any revision taken after it are released.
func (s *Snapshot) RevertTo(revision Revision) error {
	if s.discarded {
		return errors.WithStack(ErrSnapshotDiscarded)
	}
	if revision < 0 || int(revision) >= len(s.revisions) {
		return errors.Errorf("unknown snapshot revision %d", revision)
	}
	s.root = s.revisions[revision]
	s.revisions = s.revisions[:revision]
	return nil
}

// Commit persists the nodes and values reachable from the current root into
// the underlying store, after which the current root can be opened with
// Tree.SnapshotAt. Nodes that were created but are no longer reachable are
// dropped.
func (s *Snapshot) Commit() error {
	if s.discarded {
		return errors.WithStack(ErrSnapshotDiscarded)
	}

	batch := newWriteBatch()
	err := s.collectReachable(s.root, batch)
	if err != nil {
		return err
	}
	err = s.store.Write(batch)
	if err != nil {
		return err
	}
	log.Debugf("Committed state root %s: %d nodes, %d values",
		s.root, len(batch.Nodes), len(batch.Values))

	s.baseRoot = s.root
	s.nodes = make(map[externalapi.DomainHash]*Node)
	s.values = make(map[externalapi.DomainHash][]byte)
	s.revisions = nil
	return nil
}

// Discard drops every uncommitted change. The snapshot cannot be used
// afterwards.
func (s *Snapshot) Discard() {
	s.nodes = nil
	s.values = nil
	s.revisions = nil
	s.discarded = true
}

func (s *Snapshot) collectReachable(nodeHash *externalapi.DomainHash, batch *WriteBatch) error {
	if nodeHash.IsZero() {
		return nil
	}
	node, ok := s.nodes[*nodeHash]
	if !ok {
		// Anything not in the arena is already in the store, and so is
		// everything below it.
		return nil
	}
	batch.Nodes[*nodeHash] = node

	if node.Kind == NodeKindLeaf {
		value, ok := s.values[node.ValueHash]
		if ok {
			batch.Values[node.ValueHash] = value
		}
		return nil
	}
	err := s.collectReachable(&node.Left, batch)
	if err != nil {
		return err
	}
	return s.collectReachable(&node.Right, batch)
}

func (s *Snapshot) node(nodeHash *externalapi.DomainHash) (*Node, error) {
	if node, ok := s.nodes[*nodeHash]; ok {
		return node, nil
	}
	return s.store.Node(nodeHash)
}

func (s *Snapshot) value(valueHash *externalapi.DomainHash) ([]byte, error) {
	if value, ok := s.values[*valueHash]; ok {
		return value, nil
	}
	value, err := s.store.Value(valueHash)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(err, "state tree references a missing value")
	}
	return value, err
}

func (s *Snapshot) stage(node *Node) *externalapi.DomainHash {
	nodeHash := node.Hash()
	s.nodes[*nodeHash] = node
	return nodeHash
}

func (s *Snapshot) insert(nodeHash *externalapi.DomainHash, depth int,
	path *externalapi.DomainHash, valueHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	if nodeHash.IsZero() {
		return s.stage(newLeafNode(path, valueHash)), nil
	}

	node, err := s.node(nodeHash)
	if err != nil {
		return nil, err
	}

	if node.Kind == NodeKindLeaf {
		if node.Path.Equal(path) {
			if node.ValueHash.Equal(valueHash) {
				return nodeHash, nil
			}
			return s.stage(newLeafNode(path, valueHash)), nil
		}
		newLeafHash := s.stage(newLeafNode(path, valueHash))
		return s.split(depth, nodeHash, &node.Path, newLeafHash, path)
	}

	if depth >= pathBits {
		return nil, errors.Errorf("state tree is deeper than %d at %s", pathBits, nodeHash)
	}
	left, right := &node.Left, &node.Right
	if pathBit(path, depth) == 0 {
		left, err = s.insert(left, depth+1, path, valueHash)
	} else {
		right, err = s.insert(right, depth+1, path, valueHash)
	}
	if err != nil {
		return nil, err
	}
	return s.stage(newInternalNode(left, right)), nil
}

// split creates the internal nodes needed to hold two leaves whose paths
// share a prefix down to the given depth.
func (s *Snapshot) split(depth int, existingHash, existingPath *externalapi.DomainHash,
	newHash, newPath *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	if depth >= pathBits {
		return nil, errors.Errorf("distinct paths %s and %s collide", existingPath, newPath)
	}

	existingBit := pathBit(existingPath, depth)
	newBit := pathBit(newPath, depth)
	if existingBit != newBit {
		if newBit == 0 {
			return s.stage(newInternalNode(newHash, existingHash)), nil
		}
		return s.stage(newInternalNode(existingHash, newHash)), nil
	}

	child, err := s.split(depth+1, existingHash, existingPath, newHash, newPath)
	if err != nil {
		return nil, err
	}
	if newBit == 0 {
		return s.stage(newInternalNode(child, externalapi.NewZeroHash())), nil
	}
	return s.stage(newInternalNode(externalapi.NewZeroHash(), child)), nil
}

// remove deletes path from the subtree rooted at nodeHash. A subtree left
// with a single leaf collapses into that leaf, so that the shape of the tree
// depends only on its contents.
func (s *Snapshot) remove(nodeHash *externalapi.DomainHash, depth int,
	path *externalapi.DomainHash) (*externalapi.DomainHash, bool, error) {

	if nodeHash.IsZero() {
		return nodeHash, false, nil
	}

	node, err := s.node(nodeHash)
	if err != nil {
		return nil, false, err
	}

	if node.Kind == NodeKindLeaf {
		if node.Path.Equal(path) {
			return externalapi.NewZeroHash(), true, nil
		}
		return nodeHash, false, nil
	}

	if depth >= pathBits {
		return nil, false, errors.Errorf("state tree is deeper than %d at %s", pathBits, nodeHash)
	}
	left, right := &node.Left, &node.Right
	var found bool
	if pathBit(path, depth) == 0 {
		left, found, err = s.remove(left, depth+1, path)
	} else {
		right, found, err = s.remove(right, depth+1, path)
	}
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nodeHash, false, nil
	}

	switch {
	case left.IsZero() && right.IsZero():
		return externalapi.NewZeroHash(), true, nil
	case left.IsZero():
		return s.collapse(right, left, right)
	case right.IsZero():
		return s.collapse(left, left, right)
	}
	return s.stage(newInternalNode(left, right)), true, nil
}

// collapse returns the only child of an internal node if it is a leaf, or
// a new internal node otherwise.
func (s *Snapshot) collapse(onlyChild, left, right *externalapi.DomainHash) (*externalapi.DomainHash, bool, error) {
	child, err := s.node(onlyChild)
	if err != nil {
		return nil, false, err
	}
	if child.Kind == NodeKindLeaf {
		return onlyChild, true, nil
	}
	return s.stage(newInternalNode(left, right)), true, nil
}
