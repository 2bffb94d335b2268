package ruleerrors

import (
	"fmt"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrCoinbaseRecipient indicates that the fee recipient of a block
	// template could not be derived from the requested output script.
	ErrCoinbaseRecipient = newRuleError("ErrCoinbaseRecipient")

	// ErrUnresolvableSender indicates that the sender address of a
	// transaction selected for a block could not be resolved from the
	// script its first input spends.
	ErrUnresolvableSender = newRuleError("ErrUnresolvableSender")

	// ErrMissingStateRoot indicates that a state root referenced by a
	// block header is unknown to the state tree.
	ErrMissingStateRoot = newRuleError("ErrMissingStateRoot")

	// ErrMissingStakeHistory indicates that a block is unknown to the
	// stake history.
	ErrMissingStakeHistory = newRuleError("ErrMissingStakeHistory")

	// ErrNoTxInputs indicates a transaction does not have any inputs.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrContractValueOverflow indicates that the value sent to a contract
	// together with its prepaid gas does not fit in a uint64.
	ErrContractValueOverflow = newRuleError("ErrContractValueOverflow")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingTxOut",
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}
