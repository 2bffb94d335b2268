package utxo

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func payToPubKeyHash(t *testing.T, address externalapi.DomainAddress) []byte {
	pubKeyHashAddress, err := btcutil.NewAddressPubKeyHash(address[:], chainconfig.RegressionNetParams.AddressParams)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %s", err)
	}
	script, err := txscript.PayToAddrScript(pubKeyHashAddress)
	if err != nil {
		t.Fatalf("PayToAddrScript: %s", err)
	}
	return script
}

func TestResolveSender(t *testing.T) {
	params := &chainconfig.RegressionNetParams

	// The secp256k1 generator point
	serializedPubKey, err := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	if err != nil {
		t.Fatalf("DecodeString: %s", err)
	}
	pubKeyScript, err := txscript.NewScriptBuilder().AddData(serializedPubKey).AddOp(txscript.OP_CHECKSIG).Script()
	if err != nil {
		t.Fatalf("NewScriptBuilder: %s", err)
	}
	var pubKeyOwner externalapi.DomainAddress
	copy(pubKeyOwner[:], btcutil.Hash160(serializedPubKey))

	pubKeyHashOwner := externalapi.DomainAddress{0xaa, 0xbb}
	pubKeyHashScript := payToPubKeyHash(t, pubKeyHashOwner)

	view := NewMemoryCoinView()
	inViewOutpoint := externalapi.DomainOutpoint{Index: 1}
	view.Add(&inViewOutpoint, externalapi.NewUTXOEntry(100, pubKeyHashScript, false, 1))
	missingOutpoint := externalapi.DomainOutpoint{Index: 2}
	anyoneCanSpendOutpoint := externalapi.DomainOutpoint{Index: 3}
	view.Add(&anyoneCanSpendOutpoint, externalapi.NewUTXOEntry(100, []byte{txscript.OP_TRUE}, false, 1))

	tests := []struct {
		name          string
		inputs        []*externalapi.DomainTransactionInput
		expected      externalapi.DomainAddress
		expectedError error
	}{
		{
			name:     "pay to pubkey hash from the view",
			inputs:   []*externalapi.DomainTransactionInput{{PreviousOutpoint: inViewOutpoint}},
			expected: pubKeyHashOwner,
		},
		{
			name: "pay to pubkey from the input's entry",
			inputs: []*externalapi.DomainTransactionInput{{
				PreviousOutpoint: missingOutpoint,
				UTXOEntry:        externalapi.NewUTXOEntry(100, pubKeyScript, false, 1),
			}},
			expected: pubKeyOwner,
		},
		{
			name: "only the first input counts",
			inputs: []*externalapi.DomainTransactionInput{
				{PreviousOutpoint: inViewOutpoint},
				{PreviousOutpoint: missingOutpoint},
			},
			expected: pubKeyHashOwner,
		},
		{
			name:          "no inputs",
			expectedError: ruleerrors.ErrNoTxInputs,
		},
		{
			name:          "missing output",
			inputs:        []*externalapi.DomainTransactionInput{{PreviousOutpoint: missingOutpoint}},
			expectedError: ruleerrors.ErrMissingTxOut{},
		},
		{
			name:          "script without an owner",
			inputs:        []*externalapi.DomainTransactionInput{{PreviousOutpoint: anyoneCanSpendOutpoint}},
			expectedError: ruleerrors.ErrUnresolvableSender,
		},
	}

	for _, test := range tests {
		tx := &externalapi.DomainTransaction{Inputs: test.inputs}
		sender, err := ResolveSender(tx, view, params)
		if test.expectedError != nil {
			if _, isMissingTxOut := test.expectedError.(ruleerrors.ErrMissingTxOut); isMissingTxOut {
				var missingTxOut ruleerrors.ErrMissingTxOut
				if !errors.As(err, &missingTxOut) {
					t.Fatalf("%s: expected ErrMissingTxOut, got %v", test.name, err)
				}
				continue
			}
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("%s: expected %v, got %v", test.name, test.expectedError, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: ResolveSender: %+v", test.name, err)
		}
		if sender != test.expected {
			t.Fatalf("%s: expected sender %s, got %s", test.name, test.expected, sender)
		}
	}
}

func TestMemoryCoinViewAddTransaction(t *testing.T) {
	view := NewMemoryCoinView()
	spent := externalapi.DomainOutpoint{Index: 7}
	view.Add(&spent, externalapi.NewUTXOEntry(50, []byte{txscript.OP_TRUE}, false, 1))

	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.DomainTransactionInput{{PreviousOutpoint: spent}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 20, ScriptPublicKey: []byte{txscript.OP_TRUE}},
			{Value: 30, ScriptPublicKey: []byte{txscript.OP_TRUE}},
		},
	}
	view.AddTransaction(tx, 2)

	if _, ok := view.UTXOEntry(&spent); ok {
		t.Fatalf("spent output is still in the view")
	}
	if view.Count() != 2 {
		t.Fatalf("expected 2 outputs in the view, got %d", view.Count())
	}
}
