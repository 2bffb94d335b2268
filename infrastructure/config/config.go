// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/hybridchain/hybridd/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename    = "hybridd.conf"
	defaultDataDirname       = "data"
	defaultLogLevel          = "info"
	defaultLogDirname        = "logs"
	defaultLogFilename       = "hybridd.log"
	defaultErrLogFilename    = "hybridd_err.log"
	defaultContractCacheSize = 100
	defaultStateCacheSize    = 10_000
	blockMaxMassMin          = 1000
)

var (
	// DefaultAppDir is the default home directory for hybridd.
	DefaultAppDir = btcutil.AppDataDir("hybridd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for hybridd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ConfigFile             string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir                string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir                 string `long:"logdir" description:"Directory to log output."`
	DebugLevel             string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	MiningAddr             string `long:"miningaddr" description:"Address that receives the fees of built block templates"`
	CoinbaseExtraData      string `long:"coinbaseextradata" description:"Extra data to place in the coinbase payload"`
	MempoolFile            string `long:"mempoolfile" description:"JSON file holding the tip, the spendable outputs and the mempool transactions to build a template from"`
	BlockMaxMass           uint64 `long:"blockmaxmass" description:"Maximum transaction mass to be used when creating a block"`
	ExcludeFailedContracts bool   `long:"excludefailedcontracts" description:"Leave transactions whose contract execution failed out of block templates"`
	AcceptNonStandard      bool   `long:"acceptnonstd" description:"Accept non-standard transactions to the mempool"`
	ContractCacheSize      int    `long:"contractcachesize" description:"Number of compiled contracts to keep in memory"`
	StateCacheSize         int    `long:"statecachesize" description:"Number of state tree nodes to keep in memory"`
	NetworkFlags
}

// Config defines the configuration options for hybridd, after they were
// parsed and validated.
type Config struct {
	*Flags

	// CoinbaseScript is the script paying MiningAddr
	CoinbaseScript []byte
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:        defaultConfigFile,
		DataDir:           defaultDataDir,
		LogDir:            defaultLogDir,
		DebugLevel:        defaultLogLevel,
		ContractCacheSize: defaultContractCacheSize,
		StateCacheSize:    defaultStateCacheSize,
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// A missing configuration file is not an error.
func LoadConfig(args []string) (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified. Any errors aside from the help message error can
	// be ignored here since they will be caught by the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	parser := flags.NewParser(cfgFlags, flags.HelpFlag|flags.PassDoubleDash)
	err = flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	err = cfgFlags.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}

	// Append the network type to the data and log directories so they
	// are "namespaced" per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	if cfg.MempoolFile != "" {
		cfg.MempoolFile = cleanAndExpandPath(cfg.MempoolFile)
	}

	if cfg.BlockMaxMass == 0 {
		cfg.BlockMaxMass = cfg.NetParams().BlockMaxMass
	}
	if cfg.BlockMaxMass < blockMaxMassMin || cfg.BlockMaxMass > cfg.NetParams().BlockMaxMass {
		return nil, nil, errors.Errorf("the blockmaxmass option must be in between %d and %d -- parsed [%d]",
			blockMaxMassMin, cfg.NetParams().BlockMaxMass, cfg.BlockMaxMass)
	}

	if cfg.ContractCacheSize <= 0 || cfg.StateCacheSize <= 0 {
		return nil, nil, errors.Errorf("cache sizes must be positive")
	}

	if cfg.MiningAddr != "" {
		cfg.CoinbaseScript, err = coinbaseScript(cfg.MiningAddr, cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	return cfg, remainingArgs, nil
}

func coinbaseScript(miningAddr string, cfg *Config) ([]byte, error) {
	address, err := btcutil.DecodeAddress(miningAddr, cfg.NetParams().AddressParams)
	if err != nil {
		return nil, errors.Wrapf(err, "mining address %s", miningAddr)
	}
	if !address.IsForNet(cfg.NetParams().AddressParams) {
		return nil, errors.Errorf("mining address %s is on the wrong network", miningAddr)
	}
	script, err := txscript.PayToAddrScript(address)
	if err != nil {
		return nil, errors.Wrapf(err, "mining address %s", miningAddr)
	}
	return script, nil
}

// InitLog initializes the log files under LogDir and applies DebugLevel.
// The special level "show" lists the available subsystems and returns an
// error.
func (cfg *Config) InitLog() error {
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		return errors.New("subsystems were listed")
	}

	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename), filepath.Join(cfg.LogDir, defaultErrLogFilename))
	return logger.ParseAndSetLogLevels(cfg.DebugLevel)
}
