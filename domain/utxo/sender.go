package utxo

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// ResolveSender returns the address that owns the output spent by the
// first input of tx. The input's own UTXOEntry is used when populated,
// and the view is consulted otherwise. Only pay-to-pubkey-hash and
// pay-to-pubkey outputs have a sender.
func ResolveSender(tx *externalapi.DomainTransaction, view CoinView,
	params *chainconfig.Params) (externalapi.DomainAddress, error) {

	if len(tx.Inputs) == 0 {
		return externalapi.DomainAddress{}, errors.Wrapf(ruleerrors.ErrNoTxInputs,
			"transaction %s has no inputs to resolve a sender from", consensushashing.TransactionID(tx))
	}

	input := tx.Inputs[0]
	entry := input.UTXOEntry
	if entry == nil {
		var ok bool
		entry, ok = view.UTXOEntry(&input.PreviousOutpoint)
		if !ok {
			return externalapi.DomainAddress{}, ruleerrors.NewErrMissingTxOut(
				[]*externalapi.DomainOutpoint{&input.PreviousOutpoint})
		}
	}

	address, err := ScriptOwner(entry.ScriptPublicKey, params)
	if err != nil {
		return externalapi.DomainAddress{}, errors.Wrapf(ruleerrors.ErrUnresolvableSender,
			"transaction %s spends %s: %s", consensushashing.TransactionID(tx), input.PreviousOutpoint, err)
	}
	return address, nil
}

// ScriptOwner returns the address that can spend scriptPublicKey, for
// pay-to-pubkey-hash and pay-to-pubkey scripts.
func ScriptOwner(scriptPublicKey []byte, params *chainconfig.Params) (externalapi.DomainAddress, error) {
	class, addresses, _, err := txscript.ExtractPkScriptAddrs(scriptPublicKey, params.AddressParams)
	if err != nil {
		return externalapi.DomainAddress{}, errors.WithStack(err)
	}
	if len(addresses) != 1 {
		return externalapi.DomainAddress{}, errors.Errorf("script of class %s has no single owner", class)
	}

	switch address := addresses[0].(type) {
	case *btcutil.AddressPubKeyHash:
		return externalapi.NewDomainAddressFromByteSlice(address.ScriptAddress())
	case *btcutil.AddressPubKey:
		return externalapi.NewDomainAddressFromByteSlice(address.AddressPubKeyHash().ScriptAddress())
	default:
		return externalapi.DomainAddress{}, errors.Errorf("script of class %s has no sender", class)
	}
}
