package main

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/utxo"
	"github.com/pkg/errors"
)

// fixture is the JSON document a template is built from: the chain tip,
// the outputs spendable on top of it and the transactions to submit to the
// mempool. Hashes and scripts are hex encoded.
type fixture struct {
	Tip          fixtureHeader        `json:"tip"`
	UTXOs        []fixtureUTXO        `json:"utxos"`
	Transactions []fixtureTransaction `json:"transactions"`
}

type fixtureHeader struct {
	Version            uint16 `json:"version"`
	ParentHash         string `json:"parentHash"`
	HashMerkleRoot     string `json:"hashMerkleRoot"`
	StateRoot          string `json:"stateRoot"`
	TimeInMilliseconds int64  `json:"timeInMilliseconds"`
	Bits               uint32 `json:"bits"`
	Nonce              uint64 `json:"nonce"`
	Height             uint64 `json:"height"`
	IsProofOfStake     bool   `json:"isProofOfStake"`
}

type fixtureOutpoint struct {
	TransactionID string `json:"transactionId"`
	Index         uint32 `json:"index"`
}

type fixtureUTXO struct {
	fixtureOutpoint
	Amount          uint64 `json:"amount"`
	ScriptPublicKey string `json:"scriptPublicKey"`
	BlockHeight     uint64 `json:"blockHeight"`
	IsCoinbase      bool   `json:"isCoinbase"`
}

type fixtureInput struct {
	fixtureOutpoint
	SignatureScript string `json:"signatureScript"`
	Sequence        uint64 `json:"sequence"`
}

type fixtureOutput struct {
	Value           uint64 `json:"value"`
	ScriptPublicKey string `json:"scriptPublicKey"`
}

type fixtureTransaction struct {
	Version  int32           `json:"version"`
	Inputs   []fixtureInput  `json:"inputs"`
	Outputs  []fixtureOutput `json:"outputs"`
	LockTime uint64          `json:"lockTime"`
	Payload  string          `json:"payload"`
}

func readFixture(path string) (*fixture, error) {
	fixtureFile, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer fixtureFile.Close()

	decoder := json.NewDecoder(fixtureFile)
	decoder.DisallowUnknownFields()
	f := &fixture{}
	err = decoder.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't parse %s", path)
	}
	return f, nil
}

// hashOrZero decodes a hex hash, treating the empty string as the zero hash
func hashOrZero(hashString string) (*externalapi.DomainHash, error) {
	if hashString == "" {
		return externalapi.NewZeroHash(), nil
	}
	return externalapi.NewDomainHashFromString(hashString)
}

func (fh *fixtureHeader) toDomain() (*externalapi.DomainBlockHeader, error) {
	parentHash, err := hashOrZero(fh.ParentHash)
	if err != nil {
		return nil, errors.Wrap(err, "tip parent hash")
	}
	hashMerkleRoot, err := hashOrZero(fh.HashMerkleRoot)
	if err != nil {
		return nil, errors.Wrap(err, "tip merkle root")
	}
	stateRoot, err := hashOrZero(fh.StateRoot)
	if err != nil {
		return nil, errors.Wrap(err, "tip state root")
	}
	return &externalapi.DomainBlockHeader{
		Version:            fh.Version,
		ParentHash:         *parentHash,
		HashMerkleRoot:     *hashMerkleRoot,
		StateRoot:          *stateRoot,
		TimeInMilliseconds: fh.TimeInMilliseconds,
		Bits:               fh.Bits,
		Nonce:              fh.Nonce,
		Height:             fh.Height,
		IsProofOfStake:     fh.IsProofOfStake,
	}, nil
}

func (fo *fixtureOutpoint) toDomain() (*externalapi.DomainOutpoint, error) {
	transactionID, err := externalapi.NewDomainHashFromString(fo.TransactionID)
	if err != nil {
		return nil, errors.Wrapf(err, "outpoint %s:%d", fo.TransactionID, fo.Index)
	}
	return externalapi.NewDomainOutpoint((*externalapi.DomainTransactionID)(transactionID), fo.Index), nil
}

func decodeHex(field string, hexString string) ([]byte, error) {
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", field)
	}
	return decoded, nil
}

func (ft *fixtureTransaction) toDomain() (*externalapi.DomainTransaction, error) {
	inputs := make([]*externalapi.DomainTransactionInput, len(ft.Inputs))
	for i, input := range ft.Inputs {
		outpoint, err := input.fixtureOutpoint.toDomain()
		if err != nil {
			return nil, err
		}
		signatureScript, err := decodeHex("signature script", input.SignatureScript)
		if err != nil {
			return nil, err
		}
		inputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: *outpoint,
			SignatureScript:  signatureScript,
			Sequence:         input.Sequence,
		}
	}

	outputs := make([]*externalapi.DomainTransactionOutput, len(ft.Outputs))
	for i, output := range ft.Outputs {
		scriptPublicKey, err := decodeHex("script public key", output.ScriptPublicKey)
		if err != nil {
			return nil, err
		}
		outputs[i] = &externalapi.DomainTransactionOutput{Value: output.Value, ScriptPublicKey: scriptPublicKey}
	}

	payload, err := decodeHex("payload", ft.Payload)
	if err != nil {
		return nil, err
	}

	return &externalapi.DomainTransaction{
		Version:  ft.Version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: ft.LockTime,
		Payload:  payload,
	}, nil
}

// coinView builds the CoinView holding the fixture's spendable outputs
func (f *fixture) coinView() (*utxo.MemoryCoinView, error) {
	coinView := utxo.NewMemoryCoinView()
	for _, fixtureEntry := range f.UTXOs {
		outpoint, err := fixtureEntry.fixtureOutpoint.toDomain()
		if err != nil {
			return nil, err
		}
		scriptPublicKey, err := decodeHex("utxo script public key", fixtureEntry.ScriptPublicKey)
		if err != nil {
			return nil, err
		}
		coinView.Add(outpoint, externalapi.NewUTXOEntry(fixtureEntry.Amount, scriptPublicKey,
			fixtureEntry.IsCoinbase, fixtureEntry.BlockHeight))
	}
	return coinView, nil
}

func (f *fixture) transactions() ([]*externalapi.DomainTransaction, error) {
	transactions := make([]*externalapi.DomainTransaction, len(f.Transactions))
	for i := range f.Transactions {
		transaction, err := f.Transactions[i].toDomain()
		if err != nil {
			return nil, errors.Wrapf(err, "transaction #%d", i)
		}
		transactions[i] = transaction
	}
	return transactions, nil
}
