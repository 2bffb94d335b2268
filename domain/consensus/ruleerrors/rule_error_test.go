package ruleerrors

import (
	"testing"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

func TestNewErrMissingTxOut(t *testing.T) {
	var txID externalapi.DomainTransactionID
	outer := NewErrMissingTxOut([]*externalapi.DomainOutpoint{externalapi.NewDomainOutpoint(&txID, 5)})
	expectedOuterErr := "ErrMissingTxOut: missing the following outpoint: " +
		"[(0000000000000000000000000000000000000000000000000000000000000000: 5)]"
	inner := &ErrMissingTxOut{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain ErrMissingTxOut in it")
	}

	if len(inner.MissingOutpoints) != 1 {
		t.Fatalf("TestNewErrMissingTxOut: Expected len(inner.MissingOutpoints) 1, found: %d", len(inner.MissingOutpoints))
	}
	if inner.MissingOutpoints[0].Index != 5 {
		t.Fatalf("TestNewErrMissingTxOut: Expected 5. found: %d", inner.MissingOutpoints[0].Index)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain RuleError in it")
	}
	if rule.message != "ErrMissingTxOut" {
		t.Fatalf("TestNewErrMissingTxOut: Expected message = 'ErrMissingTxOut', found: '%s'", rule.message)
	}

	if outer.Error() != expectedOuterErr {
		t.Fatalf("TestNewErrMissingTxOut: Expected %s. found: %s", expectedOuterErr, outer.Error())
	}
}

func TestWrappedRuleErrors(t *testing.T) {
	tests := []struct {
		sentinel RuleError
		wrapped  error
	}{
		{ErrCoinbaseRecipient, errors.Wrapf(ErrCoinbaseRecipient, "script %x", []byte{0x6a})},
		{ErrUnresolvableSender, errors.Wrap(ErrUnresolvableSender, "no inputs")},
		{ErrMissingStateRoot, errors.WithStack(ErrMissingStateRoot)},
		{ErrMissingStakeHistory, errors.Wrapf(ErrMissingStakeHistory, "block %s", externalapi.NewZeroHash())},
	}

	for i, test := range tests {
		if !errors.Is(test.wrapped, test.sentinel) {
			t.Fatalf("Test #%d: expected %s to match %s", i, test.wrapped, test.sentinel)
		}
		rule := RuleError{}
		if !errors.As(test.wrapped, &rule) {
			t.Fatalf("Test #%d: expected %s to be a RuleError", i, test.wrapped)
		}
		if rule.message != test.sentinel.message {
			t.Fatalf("Test #%d: expected message %s, got %s", i, test.sentinel.message, rule.message)
		}
	}
}
