package contractvm

import (
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// hostModuleName is the module contracts import host functions from.
const hostModuleName = "env"

var (
	errRevert       = errors.New("contract reverted")
	errMemoryAccess = errors.New("contract memory access out of bounds")
	errHostFault    = errors.New("host function failed")
)

// transfer is a value movement requested by a contract.
type transfer struct {
	from       externalapi.DomainAddress
	to         externalapi.DomainAddress
	amount     uint64
	toContract bool
}

// invocationContext is the state of a single running invocation. Host
// functions find it in their context.
type invocationContext struct {
	state     *contractState
	contract  externalapi.DomainAddress
	input     []byte
	gas       *gasMeter
	transfers []*transfer

	// fault is set when a host function fails for a reason unrelated to
	// the contract, such as a state read error.
	fault error
}

type invocationContextKey struct{}

func withInvocationContext(ctx context.Context, ic *invocationContext) context.Context {
	return context.WithValue(ctx, invocationContextKey{}, ic)
}

func invocationContextFrom(ctx context.Context) *invocationContext {
	ic, ok := ctx.Value(invocationContextKey{}).(*invocationContext)
	if !ok {
		panic(errors.New("host function called outside of a contract invocation"))
	}
	return ic
}

func (ic *invocationContext) charge(amount uint64) {
	if !ic.gas.charge(amount) {
		panic(errOutOfGas)
	}
}

func (ic *invocationContext) failHost(err error) {
	ic.fault = err
	panic(errHostFault)
}

func readMemory(m api.Module, offset, length uint32) []byte {
	view, ok := m.Memory().Read(offset, length)
	if !ok {
		panic(errMemoryAccess)
	}
	data := make([]byte, length)
	copy(data, view)
	return data
}

func writeMemory(m api.Module, offset uint32, data []byte) {
	if !m.Memory().Write(offset, data) {
		panic(errMemoryAccess)
	}
}

func instantiateHostModule(ctx context.Context, runtime wazero.Runtime) error {
	_, err := runtime.NewHostModuleBuilder(hostModuleName).
		NewFunctionBuilder().WithFunc(hostInputSize).Export("input_size").
		NewFunctionBuilder().WithFunc(hostInputCopy).Export("input_copy").
		NewFunctionBuilder().WithFunc(hostStorageLoad).Export("storage_load").
		NewFunctionBuilder().WithFunc(hostStorageStore).Export("storage_store").
		NewFunctionBuilder().WithFunc(hostTransfer).Export("transfer").
		NewFunctionBuilder().WithFunc(hostUseGas).Export("use_gas").
		NewFunctionBuilder().WithFunc(hostRevert).Export("revert").
		Instantiate(ctx)
	return errors.WithStack(err)
}

func hostInputSize(ctx context.Context) uint32 {
	ic := invocationContextFrom(ctx)
	ic.charge(hostCallGas)
	return uint32(len(ic.input))
}

func hostInputCopy(ctx context.Context, m api.Module, ptr uint32) {
	ic := invocationContextFrom(ctx)
	ic.charge(hostCallGas + copyGasPerByte*uint64(len(ic.input)))
	writeMemory(m, ptr, ic.input)
}

// hostStorageLoad copies the value stored under the given key to valuePtr
// and returns its length, or -1 if no value is stored.
func hostStorageLoad(ctx context.Context, m api.Module, keyPtr, keyLen, valuePtr uint32) int32 {
	ic := invocationContextFrom(ctx)
	ic.charge(storageLoadGas + storageGasPerByte*uint64(keyLen))

	key := readMemory(m, keyPtr, keyLen)
	value, exists, err := ic.state.storage(ic.contract, key)
	if err != nil {
		ic.failHost(err)
	}
	if !exists {
		return -1
	}
	ic.charge(copyGasPerByte * uint64(len(value)))
	writeMemory(m, valuePtr, value)
	return int32(len(value))
}

// hostStorageStore stores a value under the given key. An empty value
// deletes the key.
func hostStorageStore(ctx context.Context, m api.Module, keyPtr, keyLen, valuePtr, valueLen uint32) {
	ic := invocationContextFrom(ctx)
	ic.charge(storageStoreGas + storageGasPerByte*(uint64(keyLen)+uint64(valueLen)))
	if valueLen > maxStorageValueLength {
		panic(errors.Errorf("storage value of %d bytes exceeds %d", valueLen, maxStorageValueLength))
	}

	key := readMemory(m, keyPtr, keyLen)
	value := readMemory(m, valuePtr, valueLen)
	err := ic.state.setStorage(ic.contract, key, value)
	if err != nil {
		ic.failHost(err)
	}
}

// hostTransfer moves amount from the running contract's balance to the given
// address. It returns 0 on success and 1 if the balance is insufficient.
func hostTransfer(ctx context.Context, m api.Module, addressPtr uint32, amount uint64) uint32 {
	ic := invocationContextFrom(ctx)
	ic.charge(transferGas)

	to, err := externalapi.NewDomainAddressFromByteSlice(readMemory(m, addressPtr, externalapi.DomainAddressSize))
	if err != nil {
		ic.failHost(err)
	}
	if amount == 0 {
		return 0
	}

	fromBalance, err := ic.state.balance(ic.contract)
	if err != nil {
		ic.failHost(err)
	}
	if fromBalance < amount {
		return 1
	}
	err = ic.state.setBalance(ic.contract, fromBalance-amount)
	if err != nil {
		ic.failHost(err)
	}

	toContract, err := ic.state.isContract(to)
	if err != nil {
		ic.failHost(err)
	}
	if toContract {
		toBalance, err := ic.state.balance(to)
		if err != nil {
			ic.failHost(err)
		}
		newBalance, ok := addAmounts(toBalance, amount)
		if !ok {
			ic.failHost(errors.Errorf("balance of %s overflows", to))
		}
		err = ic.state.setBalance(to, newBalance)
		if err != nil {
			ic.failHost(err)
		}
	}

	ic.transfers = append(ic.transfers, &transfer{from: ic.contract, to: to, amount: amount, toContract: toContract})
	return 0
}

func hostUseGas(ctx context.Context, amount uint64) {
	invocationContextFrom(ctx).charge(amount)
}

func hostRevert(ctx context.Context) {
	invocationContextFrom(ctx).charge(hostCallGas)
	panic(errRevert)
}
