package contractvm

import (
	"encoding/binary"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/pkg/errors"
)

var (
	codePrefix    = []byte("code/")
	storagePrefix = []byte("storage/")
	balancePrefix = []byte("balance/")
	custodyPrefix = []byte("custody/")
)

func stateKey(prefix []byte, address externalapi.DomainAddress, suffix ...byte) []byte {
	key := make([]byte, 0, len(prefix)+len(address)+1+len(suffix))
	key = append(key, prefix...)
	key = append(key, address[:]...)
	if len(suffix) > 0 {
		key = append(key, '/')
		key = append(key, suffix...)
	}
	return key
}

// contractState is the view of contract accounts inside a state snapshot.
type contractState struct {
	snapshot *statetree.Snapshot
}

func (cs *contractState) code(contract externalapi.DomainAddress) ([]byte, bool, error) {
	return cs.snapshot.Get(stateKey(codePrefix, contract))
}

func (cs *contractState) setCode(contract externalapi.DomainAddress, code []byte) error {
	return cs.snapshot.Put(stateKey(codePrefix, contract), code)
}

func (cs *contractState) isContract(address externalapi.DomainAddress) (bool, error) {
	_, exists, err := cs.code(address)
	return exists, err
}

func (cs *contractState) storage(contract externalapi.DomainAddress, key []byte) ([]byte, bool, error) {
	return cs.snapshot.Get(stateKey(storagePrefix, contract, key...))
}

func (cs *contractState) setStorage(contract externalapi.DomainAddress, key, value []byte) error {
	if len(value) == 0 {
		return cs.snapshot.Delete(stateKey(storagePrefix, contract, key...))
	}
	return cs.snapshot.Put(stateKey(storagePrefix, contract, key...), value)
}

func (cs *contractState) balance(contract externalapi.DomainAddress) (uint64, error) {
	balanceBytes, exists, err := cs.snapshot.Get(stateKey(balancePrefix, contract))
	if err != nil || !exists {
		return 0, err
	}
	if len(balanceBytes) != 8 {
		return 0, errors.Errorf("balance of %s is %d bytes long", contract, len(balanceBytes))
	}
	return binary.LittleEndian.Uint64(balanceBytes), nil
}

func (cs *contractState) setBalance(contract externalapi.DomainAddress, balance uint64) error {
	if balance == 0 {
		return cs.snapshot.Delete(stateKey(balancePrefix, contract))
	}
	var balanceBytes [8]byte
	binary.LittleEndian.PutUint64(balanceBytes[:], balance)
	return cs.snapshot.Put(stateKey(balancePrefix, contract), balanceBytes[:])
}

// custodyRecord points at the output holding the coins of a contract's
// balance.
type custodyRecord struct {
	outpoint *externalapi.DomainOutpoint
	amount   uint64
}

const serializedCustodyRecordSize = externalapi.DomainHashSize + 4 + 8

func (cs *contractState) custody(contract externalapi.DomainAddress) (*custodyRecord, error) {
	recordBytes, exists, err := cs.snapshot.Get(stateKey(custodyPrefix, contract))
	if err != nil || !exists {
		return nil, err
	}
	if len(recordBytes) != serializedCustodyRecordSize {
		return nil, errors.Errorf("custody record of %s is %d bytes long", contract, len(recordBytes))
	}
	var txIDBytes [externalapi.DomainHashSize]byte
	copy(txIDBytes[:], recordBytes)
	index := binary.LittleEndian.Uint32(recordBytes[externalapi.DomainHashSize:])
	amount := binary.LittleEndian.Uint64(recordBytes[externalapi.DomainHashSize+4:])
	return &custodyRecord{
		outpoint: externalapi.NewDomainOutpoint(externalapi.NewDomainTransactionIDFromByteArray(&txIDBytes), index),
		amount:   amount,
	}, nil
}

func (cs *contractState) setCustody(contract externalapi.DomainAddress, record *custodyRecord) error {
	if record == nil {
		return cs.snapshot.Delete(stateKey(custodyPrefix, contract))
	}
	recordBytes := make([]byte, serializedCustodyRecordSize)
	copy(recordBytes, record.outpoint.TransactionID.ByteSlice())
	binary.LittleEndian.PutUint32(recordBytes[externalapi.DomainHashSize:], record.outpoint.Index)
	binary.LittleEndian.PutUint64(recordBytes[externalapi.DomainHashSize+4:], record.amount)
	return cs.snapshot.Put(stateKey(custodyPrefix, contract), recordBytes)
}
