package chainconfig

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
)

// These variables are the proof-of-work and proof-of-stake limit parameters
// for each default network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a block can have
	// for the main network. It is the value 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// mainPosLimit is the highest proof of stake target a block can have
	// for the main network. It is the value 2^224 - 1.
	mainPosLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// testnetPosLimit is the highest proof of stake target a block can
	// have for the test network. It is the value 2^236 - 1.
	testnetPosLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// regressionPowLimit and regressionPosLimit are the limits used by the
	// regression test and simulation networks. They are the value 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
	regressionPosLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	targetSpacing          = 128 * time.Second
	targetTimespan         = 16 * time.Minute
	blockMaxMass           = 2_000_000
	maxGasLimit            = 40_000_000
	minGasPrice            = 40
	contractExecutionLimit = 2 * time.Second
)

// Params defines a network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// AddressParams is the btcd network definition used to encode and
	// decode the addresses that receive coins on this network.
	AddressParams *chaincfg.Params

	// BlockVersion is the version stamped into new block headers.
	BlockVersion uint16

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// PosLimit defines the highest allowed proof of stake target for a
	// block as a uint256.
	PosLimit *big.Int

	// PosLimitBits defines the highest allowed proof of stake target for a
	// block in compact form. It is also the target of the first blocks of
	// the chain, before enough stake history exists to retarget.
	PosLimitBits uint32

	// TargetSpacing is the desired amount of time between two
	// proof-of-stake blocks.
	TargetSpacing time.Duration

	// TargetTimespan is the window over which the proof-of-stake target
	// converges. The retarget interval is TargetTimespan / TargetSpacing.
	TargetTimespan time.Duration

	// BlockMaxMass is the maximum mass a block is allowed
	BlockMaxMass uint64

	// MaxGasLimit is the maximum gas a single contract invocation may
	// reserve.
	MaxGasLimit uint64

	// MinGasPrice is the minimum price per unit of gas, in base units,
	// a contract invocation must offer.
	MinGasPrice uint64

	// ContractExecutionLimit bounds the wall-clock time a single contract
	// transaction may spend executing while a block template is built.
	ContractExecutionLimit time.Duration
}

// RetargetInterval returns the number of proof-of-stake blocks over which
// the target converges.
func (p *Params) RetargetInterval() int64 {
	return int64(p.TargetTimespan / p.TargetSpacing)
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                   "hybrid-mainnet",
	AddressParams:          &chaincfg.MainNetParams,
	BlockVersion:           1,
	PowLimit:               mainPowLimit,
	PowLimitBits:           blockchain.BigToCompact(mainPowLimit),
	PosLimit:               mainPosLimit,
	PosLimitBits:           blockchain.BigToCompact(mainPosLimit),
	TargetSpacing:          targetSpacing,
	TargetTimespan:         targetTimespan,
	BlockMaxMass:           blockMaxMass,
	MaxGasLimit:            maxGasLimit,
	MinGasPrice:            minGasPrice,
	ContractExecutionLimit: contractExecutionLimit,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                   "hybrid-testnet",
	AddressParams:          &chaincfg.TestNet3Params,
	BlockVersion:           1,
	PowLimit:               mainPowLimit,
	PowLimitBits:           blockchain.BigToCompact(mainPowLimit),
	PosLimit:               testnetPosLimit,
	PosLimitBits:           blockchain.BigToCompact(testnetPosLimit),
	TargetSpacing:          targetSpacing,
	TargetTimespan:         targetTimespan,
	BlockMaxMass:           blockMaxMass,
	MaxGasLimit:            maxGasLimit,
	MinGasPrice:            minGasPrice,
	ContractExecutionLimit: contractExecutionLimit,
}

// RegressionNetParams defines the network parameters for the regression test
// network. Not to be confused with the test network, this network is
// sometimes simply called "regtest".
var RegressionNetParams = Params{
	Name:                   "hybrid-regtest",
	AddressParams:          &chaincfg.RegressionNetParams,
	BlockVersion:           1,
	PowLimit:               regressionPowLimit,
	PowLimitBits:           blockchain.BigToCompact(regressionPowLimit),
	PosLimit:               regressionPosLimit,
	PosLimitBits:           blockchain.BigToCompact(regressionPosLimit),
	TargetSpacing:          16 * time.Second,
	TargetTimespan:         16 * time.Second * 16,
	BlockMaxMass:           blockMaxMass,
	MaxGasLimit:            maxGasLimit,
	MinGasPrice:            1,
	ContractExecutionLimit: contractExecutionLimit,
}

// SimnetParams defines the network parameters for the simulation test network.
// This network is similar to the normal test network except it is intended for
// private use within a group of individuals doing simulation testing.
var SimnetParams = Params{
	Name:                   "hybrid-simnet",
	AddressParams:          &chaincfg.SimNetParams,
	BlockVersion:           1,
	PowLimit:               regressionPowLimit,
	PowLimitBits:           blockchain.BigToCompact(regressionPowLimit),
	PosLimit:               regressionPosLimit,
	PosLimitBits:           blockchain.BigToCompact(regressionPosLimit),
	TargetSpacing:          16 * time.Second,
	TargetTimespan:         16 * time.Second * 16,
	BlockMaxMass:           blockMaxMass,
	MaxGasLimit:            maxGasLimit,
	MinGasPrice:            1,
	ContractExecutionLimit: contractExecutionLimit,
}

// DevnetParams defines the network parameters for the development network.
var DevnetParams = Params{
	Name:                   "hybrid-devnet",
	AddressParams:          &chaincfg.SigNetParams,
	BlockVersion:           1,
	PowLimit:               regressionPowLimit,
	PowLimitBits:           blockchain.BigToCompact(regressionPowLimit),
	PosLimit:               testnetPosLimit,
	PosLimitBits:           blockchain.BigToCompact(testnetPosLimit),
	TargetSpacing:          targetSpacing,
	TargetTimespan:         targetTimespan,
	BlockMaxMass:           blockMaxMass,
	MaxGasLimit:            maxGasLimit,
	MinGasPrice:            1,
	ContractExecutionLimit: contractExecutionLimit,
}
