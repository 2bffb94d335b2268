package statetree

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// maxPendingSnapshots is the number of uncommitted snapshots the tree keeps
// while waiting for their blocks to be accepted.
const maxPendingSnapshots = 16

// Tree is a versioned binary merkle tree mapping arbitrary keys to values.
// Every version is identified by its root hash; the empty tree has the zero
// hash as its root. Nodes are shared between versions, so a write only
// creates the nodes along a single path.
type Tree struct {
	store NodeStore

	pendingLock sync.Mutex
	pending     *lru.Cache[externalapi.DomainHash, *Snapshot]
}

// New returns a Tree on top of the given store.
func New(store NodeStore) *Tree {
	pending, err := lru.NewWithEvict[externalapi.DomainHash, *Snapshot](maxPendingSnapshots,
		func(_ externalapi.DomainHash, snapshot *Snapshot) {
			snapshot.Discard()
		})
	if err != nil {
		// Only returned for a non-positive size
		panic(err)
	}
	return &Tree{store: store, pending: pending}
}

// SnapshotAt returns a copy-on-write snapshot of the tree at the given root.
// Writes to the snapshot are kept in memory until it is committed.
func (t *Tree) SnapshotAt(root *externalapi.DomainHash) (*Snapshot, error) {
	if !root.IsZero() {
		exists, err := t.store.HasNode(root)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.Wrapf(ruleerrors.ErrMissingStateRoot, "state root %s", root)
		}
	}
	rootCopy := *root
	return newSnapshot(t.store, &rootCopy), nil
}

// HasRoot returns whether the given root is readable from the tree.
func (t *Tree) HasRoot(root *externalapi.DomainHash) (bool, error) {
	if root.IsZero() {
		return true, nil
	}
	return t.store.HasNode(root)
}

// KeepPending takes ownership of snapshot and holds its changes in memory
// until CommitRoot is called with its root. The oldest pending snapshots
// are discarded once more than maxPendingSnapshots are held.
func (t *Tree) KeepPending(snapshot *Snapshot) error {
	if snapshot.discarded {
		return errors.WithStack(ErrSnapshotDiscarded)
	}

	t.pendingLock.Lock()
	defer t.pendingLock.Unlock()

	root := *snapshot.Root()
	committed, err := t.HasRoot(&root)
	if err != nil {
		return err
	}
	if committed {
		snapshot.Discard()
		return nil
	}
	if _, ok := t.pending.Peek(root); ok {
		// The same state is already pending
		snapshot.Discard()
		return nil
	}
	t.pending.Add(root, snapshot)
	log.Tracef("Keeping state root %s pending", root)
	return nil
}

// CommitRoot persists the pending snapshot whose root is the given one.
// Committing a root that is already readable does nothing. A root that is
// neither readable nor pending results in ErrMissingStateRoot.
func (t *Tree) CommitRoot(root *externalapi.DomainHash) error {
	t.pendingLock.Lock()
	defer t.pendingLock.Unlock()

	committed, err := t.HasRoot(root)
	if err != nil {
		return err
	}
	if committed {
		return nil
	}

	snapshot, ok := t.pending.Peek(*root)
	if !ok {
		return errors.Wrapf(ruleerrors.ErrMissingStateRoot, "state root %s is neither committed nor pending", root)
	}
	err = snapshot.Commit()
	if err != nil {
		return err
	}
	t.pending.Remove(*root)
	return nil
}

// PendingCount returns the number of snapshots awaiting CommitRoot.
func (t *Tree) PendingCount() int {
	return t.pending.Len()
}
