package contracts

import (
	"math"

	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// BuildCreateScript returns an output script deploying code as a new contract.
func BuildCreateScript(version uint32, gasLimit, gasPrice uint64, code []byte) ([]byte, error) {
	if len(code) == 0 {
		return nil, errors.New("contract code is empty")
	}
	builder, err := numbersScriptBuilder(version, gasLimit, gasPrice)
	if err != nil {
		return nil, err
	}
	script, err := builder.AddData(code).AddOp(OpCreate).Script()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return script, nil
}

// BuildCallScript returns an output script calling contract with data as its
// input.
func BuildCallScript(version uint32, gasLimit, gasPrice uint64, data []byte,
	contract externalapi.DomainAddress) ([]byte, error) {

	builder, err := numbersScriptBuilder(version, gasLimit, gasPrice)
	if err != nil {
		return nil, err
	}
	script, err := builder.AddData(data).AddData(contract[:]).AddOp(OpCall).Script()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return script, nil
}

// BuildCustodyScript returns the output script holding the balance of
// contract.
func BuildCustodyScript(contract externalapi.DomainAddress) []byte {
	script, err := txscript.NewScriptBuilder().AddData(contract[:]).AddOp(OpSpend).Script()
	if err != nil {
		// A 20 byte push can never exceed the script size limits
		panic(errors.Wrap(err, "this should never happen. custody script is too long"))
	}
	return script
}

// ParseCustodyScript returns the contract whose balance is held by script.
func ParseCustodyScript(script []byte) (externalapi.DomainAddress, bool) {
	var contract externalapi.DomainAddress
	if len(script) != 2+externalapi.DomainAddressSize ||
		script[0] != txscript.OP_DATA_20 || script[len(script)-1] != OpSpend {
		return contract, false
	}
	copy(contract[:], script[1:1+externalapi.DomainAddressSize])
	return contract, true
}

func numbersScriptBuilder(version uint32, gasLimit, gasPrice uint64) (*txscript.ScriptBuilder, error) {
	if gasLimit == 0 || gasPrice == 0 {
		return nil, errors.Errorf("gas limit %d and gas price %d must be positive", gasLimit, gasPrice)
	}
	if gasLimit > math.MaxInt64 || gasPrice > math.MaxInt64 {
		return nil, errors.Errorf("gas limit %d or gas price %d does not fit a script number", gasLimit, gasPrice)
	}
	return txscript.NewScriptBuilder().
		AddInt64(int64(version)).
		AddInt64(int64(gasLimit)).
		AddInt64(int64(gasPrice)), nil
}
