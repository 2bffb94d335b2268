package contractvm

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/pkg/errors"
)

// payToAddressScript returns the P2PKH script paying to the given address.
func payToAddressScript(address externalapi.DomainAddress, params *chainconfig.Params) ([]byte, error) {
	pubKeyHashAddress, err := btcutil.NewAddressPubKeyHash(address[:], params.AddressParams)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	script, err := txscript.PayToAddrScript(pubKeyHashAddress)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return script, nil
}

// condenser collects the value movements of a transaction's invocations and
// turns them into a single internal transaction.
type condenser struct {
	params   *chainconfig.Params
	state    *contractState
	parent   *externalapi.DomainTransaction
	parentID *externalapi.DomainTransactionID

	inputs         []*externalapi.DomainTransactionInput
	valueRefunds   []*externalapi.DomainTransactionOutput
	payouts        []*externalapi.DomainTransactionOutput
	payoutIndexes  map[externalapi.DomainAddress]int
	contracts      []externalapi.DomainAddress
	involved       map[externalapi.DomainAddress]struct{}
	priorCustodies map[externalapi.DomainAddress]*custodyRecord
}

func newCondenser(params *chainconfig.Params, state *contractState,
	parent *externalapi.DomainTransaction) *condenser {

	return &condenser{
		params:         params,
		state:          state,
		parent:         parent,
		parentID:       consensushashing.TransactionID(parent),
		payoutIndexes:  make(map[externalapi.DomainAddress]int),
		involved:       make(map[externalapi.DomainAddress]struct{}),
		priorCustodies: make(map[externalapi.DomainAddress]*custodyRecord),
	}
}

// spendInvocationOutput spends the parent output that sent value to a
// contract.
func (c *condenser) spendInvocationOutput(invocation *contracts.Invocation) {
	output := c.parent.Outputs[invocation.OutputIndex]
	c.inputs = append(c.inputs, &externalapi.DomainTransactionInput{
		PreviousOutpoint: *externalapi.NewDomainOutpoint(c.parentID, invocation.OutputIndex),
		UTXOEntry:        externalapi.NewUTXOEntry(output.Value, output.ScriptPublicKey, false, 0),
	})
}

// refundValue spends the output of a failed invocation back to the sender.
func (c *condenser) refundValue(invocation *contracts.Invocation, senderScript []byte) {
	if invocation.Value == 0 {
		return
	}
	c.spendInvocationOutput(invocation)
	c.valueRefunds = append(c.valueRefunds, &externalapi.DomainTransactionOutput{
		Value:           invocation.Value,
		ScriptPublicKey: senderScript,
	})
}

// involve marks contract as having a changed balance. Its custody output,
// if any, is spent so that a new one can hold the updated balance.
func (c *condenser) involve(contract externalapi.DomainAddress) error {
	if _, ok := c.involved[contract]; ok {
		return nil
	}
	c.involved[contract] = struct{}{}
	c.contracts = append(c.contracts, contract)

	record, err := c.state.custody(contract)
	if err != nil {
		return err
	}
	if record != nil {
		c.priorCustodies[contract] = record
	}
	return nil
}

// acceptInvocation accounts for a successful invocation.
func (c *condenser) acceptInvocation(invocation *contracts.Invocation, transfers []*transfer) error {
	if invocation.Value > 0 {
		c.spendInvocationOutput(invocation)
		err := c.involve(invocation.Contract)
		if err != nil {
			return err
		}
	}
	for _, transfer := range transfers {
		err := c.involve(transfer.from)
		if err != nil {
			return err
		}
		if transfer.toContract {
			err = c.involve(transfer.to)
			if err != nil {
				return err
			}
			continue
		}
		index, ok := c.payoutIndexes[transfer.to]
		if !ok {
			script, err := payToAddressScript(transfer.to, c.params)
			if err != nil {
				return err
			}
			index = len(c.payouts)
			c.payoutIndexes[transfer.to] = index
			c.payouts = append(c.payouts, &externalapi.DomainTransactionOutput{ScriptPublicKey: script})
		}
		c.payouts[index].Value += transfer.amount
	}
	return nil
}

// internalTransaction builds the internal transaction, if any value moved,
// and records the new custody outputs of the involved contracts.
func (c *condenser) internalTransaction() (*externalapi.DomainTransaction, error) {
	inputs := c.inputs
	for _, contract := range c.contracts {
		record, ok := c.priorCustodies[contract]
		if !ok {
			continue
		}
		inputs = append(inputs, &externalapi.DomainTransactionInput{
			PreviousOutpoint: *record.outpoint,
			UTXOEntry:        externalapi.NewUTXOEntry(record.amount, contracts.BuildCustodyScript(contract), false, 0),
		})
	}

	outputs := make([]*externalapi.DomainTransactionOutput, 0, len(c.valueRefunds)+len(c.payouts)+len(c.contracts))
	outputs = append(outputs, c.valueRefunds...)
	outputs = append(outputs, c.payouts...)
	custodyIndexes := make(map[externalapi.DomainAddress]uint32)
	for _, contract := range c.contracts {
		balance, err := c.state.balance(contract)
		if err != nil {
			return nil, err
		}
		if balance == 0 {
			continue
		}
		custodyIndexes[contract] = uint32(len(outputs))
		outputs = append(outputs, &externalapi.DomainTransactionOutput{
			Value:           balance,
			ScriptPublicKey: contracts.BuildCustodyScript(contract),
		})
	}

	if len(inputs) == 0 && len(outputs) == 0 {
		return nil, nil
	}

	internalTransaction := &externalapi.DomainTransaction{
		Version: externalapi.InternalTransactionVersion,
		Inputs:  inputs,
		Outputs: outputs,
		Payload: c.parentID.ByteSlice(),
	}
	internalTransactionID := consensushashing.TransactionID(internalTransaction)

	for _, contract := range c.contracts {
		var record *custodyRecord
		if index, ok := custodyIndexes[contract]; ok {
			record = &custodyRecord{
				outpoint: externalapi.NewDomainOutpoint(internalTransactionID, index),
				amount:   outputs[index].Value,
			}
		}
		err := c.state.setCustody(contract, record)
		if err != nil {
			return nil, err
		}
	}
	return internalTransaction, nil
}
