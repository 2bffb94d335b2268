package contracts

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
)

const (
	// OpCreate terminates an output script that deploys a contract.
	OpCreate = txscript.OP_UNKNOWN193

	// OpCall terminates an output script that calls a contract.
	OpCall = txscript.OP_UNKNOWN194

	// OpSpend terminates an output script holding the balance of a
	// contract. Only internal transactions may spend it.
	OpSpend = txscript.OP_UNKNOWN195
)

// maxScriptNumLen is the longest script number accepted for the numeric
// fields of a contract script.
const maxScriptNumLen = 8

// Classify returns the contract invocations carried by tx, or nil if tx is a
// plain transaction. Outputs that end in a contract opcode but are otherwise
// malformed are treated as plain outputs.
func Classify(tx *externalapi.DomainTransaction) *ContractPayload {
	if tx.IsCoinbase() || tx.IsInternal() {
		return nil
	}

	var payload *ContractPayload
	var txID *externalapi.DomainTransactionID
	for i, output := range tx.Outputs {
		if !IsContractScript(output.ScriptPublicKey) {
			continue
		}
		invocation, ok := ParseContractScript(output.ScriptPublicKey)
		if !ok {
			continue
		}
		invocation.OutputIndex = uint32(i)
		invocation.Value = output.Value
		if invocation.Kind == InvocationKindCreate {
			if txID == nil {
				txID = consensushashing.TransactionID(tx)
			}
			invocation.Contract = ContractAddress(txID, uint32(i))
		}

		if payload == nil {
			payload = &ContractPayload{}
		}
		payload.Invocations = append(payload.Invocations, invocation)
	}
	return payload
}

// IsContractScript is a cheap check for whether script ends in a contract
// opcode. It does not validate the rest of the script.
func IsContractScript(script []byte) bool {
	if len(script) == 0 {
		return false
	}
	last := script[len(script)-1]
	return last == OpCreate || last == OpCall
}

// ParseContractScript parses an output script of either form
//
//	<version> <gasLimit> <gasPrice> <data> OP_CREATE
//	<version> <gasLimit> <gasPrice> <data> <contract> OP_CALL
//
// The returned invocation has no output index or value set.
func ParseContractScript(script []byte) (*Invocation, bool) {
	var opcodes []byte
	var pushes [][]byte
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		opcodes = append(opcodes, tokenizer.Opcode())
		pushes = append(pushes, tokenizer.Data())
	}
	if tokenizer.Err() != nil {
		return nil, false
	}

	invocation := &Invocation{}
	switch {
	case len(opcodes) == 5 && opcodes[4] == OpCreate:
		invocation.Kind = InvocationKindCreate
	case len(opcodes) == 6 && opcodes[5] == OpCall:
		invocation.Kind = InvocationKindCall
		if !isDataPush(opcodes[4]) || len(pushes[4]) != externalapi.DomainAddressSize {
			return nil, false
		}
		copy(invocation.Contract[:], pushes[4])
	default:
		return nil, false
	}

	version, ok := scriptNumber(opcodes[0], pushes[0])
	if !ok || version > 0xffffffff {
		return nil, false
	}
	invocation.Version = uint32(version)

	invocation.GasLimit, ok = scriptNumber(opcodes[1], pushes[1])
	if !ok || invocation.GasLimit == 0 {
		return nil, false
	}
	invocation.GasPrice, ok = scriptNumber(opcodes[2], pushes[2])
	if !ok || invocation.GasPrice == 0 {
		return nil, false
	}

	invocation.Data, ok = pushedData(opcodes[3], pushes[3])
	if !ok {
		return nil, false
	}
	if invocation.Kind == InvocationKindCreate && len(invocation.Data) == 0 {
		return nil, false
	}
	return invocation, true
}

func isDataPush(opcode byte) bool {
	return (opcode >= txscript.OP_DATA_1 && opcode <= txscript.OP_DATA_75) ||
		opcode == txscript.OP_PUSHDATA1 || opcode == txscript.OP_PUSHDATA2 ||
		opcode == txscript.OP_PUSHDATA4
}

// pushedData returns the bytes pushed by a push opcode. Single byte pushes
// are encoded by the small integer opcodes.
func pushedData(opcode byte, data []byte) ([]byte, bool) {
	switch {
	case opcode == txscript.OP_0:
		return nil, true
	case opcode == txscript.OP_1NEGATE:
		return []byte{0x81}, true
	case opcode >= txscript.OP_1 && opcode <= txscript.OP_16:
		return []byte{opcode - txscript.OP_1 + 1}, true
	case isDataPush(opcode):
		return data, true
	}
	return nil, false
}

// scriptNumber decodes a non-negative number pushed either as a small
// integer opcode or as a minimally encoded script number.
func scriptNumber(opcode byte, data []byte) (uint64, bool) {
	switch {
	case opcode == txscript.OP_0:
		return 0, true
	case opcode >= txscript.OP_1 && opcode <= txscript.OP_16:
		return uint64(opcode-txscript.OP_1) + 1, true
	case !isDataPush(opcode):
		return 0, false
	}

	if len(data) == 0 || len(data) > maxScriptNumLen {
		return 0, false
	}
	// The sign bit must be clear, and the most significant byte may only
	// be zero when it carries the sign bit of the byte below it.
	last := data[len(data)-1]
	if last&0x80 != 0 {
		return 0, false
	}
	if last == 0 && (len(data) == 1 || data[len(data)-2]&0x80 == 0) {
		return 0, false
	}

	var number uint64
	for i, b := range data {
		number |= uint64(b) << (8 * uint(i))
	}
	return number, true
}
