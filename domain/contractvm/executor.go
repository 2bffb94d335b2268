package contractvm

import (
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/pkg/errors"
)

// ErrExecutionAborted is returned when the execution of a transaction did not
// terminate within its time limit. The transaction must not be included in
// the block being built.
var ErrExecutionAborted = errors.New("contract execution aborted")

// ExecutionStatus is the outcome of executing a transaction's contract
// invocations.
type ExecutionStatus uint8

const (
	// StatusSuccess means every invocation of the transaction succeeded.
	StatusSuccess ExecutionStatus = iota

	// StatusFailed means at least one invocation reverted, ran out of gas
	// or trapped. Its state changes were rolled back and its gas charged.
	StatusFailed
)

func (status ExecutionStatus) String() string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// TransactionContext is the immutable input of a single transaction's
// execution.
type TransactionContext struct {
	// Height is the height of the block being built.
	Height            uint64
	CoinbaseRecipient externalapi.DomainAddress

	// Fee is the fee of the transaction as recorded by the mempool.
	Fee         uint64
	Sender      externalapi.DomainAddress
	Transaction *externalapi.DomainTransaction
	Payload     *contracts.ContractPayload
}

// ExecutionResult is the outcome of executing a transaction's contract
// invocations.
type ExecutionResult struct {
	Status ExecutionStatus

	// Fee is the fee the block collects for the transaction: the mempool
	// fee minus the refunds for unused gas.
	Fee     uint64
	GasUsed uint64

	// RefundOutputs pay the unused gas back to the sender. They belong in
	// the coinbase transaction.
	RefundOutputs []*externalapi.DomainTransactionOutput

	// InternalTransaction, if not nil, carries the value movements caused
	// by the execution, and must directly follow the executed transaction.
	InternalTransaction *externalapi.DomainTransaction
}

// Executor executes the contract invocations of a single transaction
// against a state snapshot.
type Executor interface {
	Execute(ctx context.Context, txContext *TransactionContext) (*ExecutionResult, error)
}

// ExecutorFactory creates an Executor bound to a state snapshot.
type ExecutorFactory interface {
	CreateExecutor(snapshot *statetree.Snapshot, txContext *TransactionContext) (Executor, error)
}
