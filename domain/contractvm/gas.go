package contractvm

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Gas schedule
const (
	invocationGas         = 1000
	createGasPerCodeByte  = 20
	hostCallGas           = 10
	functionCallGas       = 5
	copyGasPerByte        = 1
	storageLoadGas        = 200
	storageStoreGas       = 2000
	storageGasPerByte     = 20
	transferGas           = 500
	maxStorageValueLength = 4096
)

// errOutOfGas is the panic value raised by host functions when an
// invocation exceeds its gas limit.
var errOutOfGas = errors.New("out of gas")

// gasMeter tracks the gas used by a single invocation.
type gasMeter struct {
	limit uint64
	used  uint64
}

func newGasMeter(limit uint64) *gasMeter {
	return &gasMeter{limit: limit}
}

// charge consumes amount gas and reports whether the limit was respected.
// Exceeding the limit consumes all of it.
func (gm *gasMeter) charge(amount uint64) bool {
	if amount > gm.limit-gm.used {
		gm.used = gm.limit
		return false
	}
	gm.used += amount
	return true
}

func (gm *gasMeter) remaining() uint64 {
	return gm.limit - gm.used
}

// gasCost returns gas * price, or false if it overflows a uint64.
func gasCost(gas, price uint64) (uint64, bool) {
	cost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(gas), uint256.NewInt(price))
	if overflow || !cost.IsUint64() {
		return 0, false
	}
	return cost.Uint64(), true
}

// addAmounts returns the sum of amounts, or false if it overflows a uint64.
func addAmounts(amounts ...uint64) (uint64, bool) {
	sum := new(uint256.Int)
	for _, amount := range amounts {
		sum.Add(sum, uint256.NewInt(amount))
	}
	if !sum.IsUint64() {
		return 0, false
	}
	return sum.Uint64(), true
}
