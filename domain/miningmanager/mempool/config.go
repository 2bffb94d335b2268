package mempool

import (
	"github.com/hybridchain/hybridd/domain/chainconfig"
)

const (
	defaultMaximumTransactionCount = 1_000_000

	defaultMinimumRelayTransactionFee = 1000

	// maximumStandardTransactionVersion is the highest transaction version
	// considered standard for relay and mining.
	maximumStandardTransactionVersion = 1
)

// Config represents a mempool configuration
type Config struct {
	MaximumTransactionCount    int
	AcceptNonStandard          bool
	MaximumMassAcceptedByBlock uint64

	// MinimumRelayTransactionFee is the minimum fee, in base units per
	// 1000 units of mass, a transaction must pay to be accepted.
	MinimumRelayTransactionFee uint64

	MaxGasLimit uint64
	MinGasPrice uint64
}

// DefaultConfig returns the default mempool configuration for the given
// network
func DefaultConfig(params *chainconfig.Params) *Config {
	return &Config{
		MaximumTransactionCount:    defaultMaximumTransactionCount,
		AcceptNonStandard:          false,
		MaximumMassAcceptedByBlock: params.BlockMaxMass,
		MinimumRelayTransactionFee: defaultMinimumRelayTransactionFee,
		MaxGasLimit:                params.MaxGasLimit,
		MinGasPrice:                params.MinGasPrice,
	}
}
