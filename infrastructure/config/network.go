package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                 bool   `long:"testnet" description:"Use the test network"`
	RegressionTest          bool   `long:"regtest" description:"Use the regression test network"`
	Simnet                  bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet                  bool   `long:"devnet" description:"Use the development test network"`
	OverrideChainParamsFile string `long:"override-chain-params-file" description:"Overrides chain params (allowed only on devnet)"`

	ActiveNetParams *chainconfig.Params
}

type overrideChainParamsConfig struct {
	BlockMaxMass                         *uint64 `json:"blockMaxMass"`
	MaxGasLimit                          *uint64 `json:"maxGasLimit"`
	MinGasPrice                          *uint64 `json:"minGasPrice"`
	ContractExecutionLimitInMilliseconds *int64  `json:"contractExecutionLimitInMilliseconds"`
	TargetSpacingInMilliseconds          *int64  `json:"targetSpacingInMilliseconds"`
	TargetTimespanInMilliseconds         *int64  `json:"targetTimespanInMilliseconds"`
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default net is main net. The selected params are copied, so that
	// overriding them never changes the package-level definitions.
	params := chainconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = chainconfig.TestnetParams
	}
	if networkFlags.RegressionTest {
		numNets++
		params = chainconfig.RegressionNetParams
	}
	if networkFlags.Simnet {
		numNets++
		params = chainconfig.SimnetParams
	}
	if networkFlags.Devnet {
		numNets++
		params = chainconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest, simnet, devnet, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.ActiveNetParams = &params

	return networkFlags.overrideChainParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideChainParams() error {
	if networkFlags.OverrideChainParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet {
		return errors.Errorf("override-chain-params-file is allowed only when using devnet")
	}

	overrideChainParamsFile, err := os.Open(networkFlags.OverrideChainParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideChainParamsFile.Close()

	decoder := json.NewDecoder(overrideChainParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideChainParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "couldn't parse %s", networkFlags.OverrideChainParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.BlockMaxMass != nil {
		params.BlockMaxMass = *config.BlockMaxMass
	}

	if config.MaxGasLimit != nil {
		params.MaxGasLimit = *config.MaxGasLimit
	}

	if config.MinGasPrice != nil {
		params.MinGasPrice = *config.MinGasPrice
	}

	if config.ContractExecutionLimitInMilliseconds != nil {
		params.ContractExecutionLimit = time.Duration(*config.ContractExecutionLimitInMilliseconds) *
			time.Millisecond
	}

	if config.TargetSpacingInMilliseconds != nil {
		params.TargetSpacing = time.Duration(*config.TargetSpacingInMilliseconds) * time.Millisecond
	}

	if config.TargetTimespanInMilliseconds != nil {
		params.TargetTimespan = time.Duration(*config.TargetTimespanInMilliseconds) * time.Millisecond
	}

	if params.TargetSpacing <= 0 || params.TargetTimespan < params.TargetSpacing {
		return errors.Errorf("target timespan %s must be at least one positive target spacing %s",
			params.TargetTimespan, params.TargetSpacing)
	}

	return nil
}
