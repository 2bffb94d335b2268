package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/contractvm"
	"github.com/hybridchain/hybridd/domain/miningmanager"
	"github.com/hybridchain/hybridd/domain/miningmanager/blocktemplatebuilder"
	"github.com/hybridchain/hybridd/domain/miningmanager/mempool"
	"github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/stakechain"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/hybridchain/hybridd/infrastructure/config"
	"github.com/hybridchain/hybridd/infrastructure/db/database/ldb"
	"github.com/hybridchain/hybridd/infrastructure/logger"
	"github.com/hybridchain/hybridd/util/panics"
	"github.com/pkg/errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if cfg.MempoolFile == "" {
		return errors.New("--mempoolfile is required")
	}
	if cfg.CoinbaseScript == nil {
		return errors.New("--miningaddr is required")
	}

	err = cfg.InitLog()
	if err != nil {
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	blockTemplate, err := buildTemplate(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(blockTemplate)
	return nil
}

func buildTemplate(ctx context.Context, cfg *config.Config) (*model.BlockTemplate, error) {
	params := cfg.NetParams()

	f, err := readFixture(cfg.MempoolFile)
	if err != nil {
		return nil, err
	}
	tip, err := f.Tip.toDomain()
	if err != nil {
		return nil, err
	}
	coinView, err := f.coinView()
	if err != nil {
		return nil, err
	}
	transactions, err := f.transactions()
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := ldb.NewLevelDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	nodeStore, err := statetree.NewLDBNodeStore(db, cfg.StateCacheSize)
	if err != nil {
		return nil, err
	}
	stakeStore := stakechain.NewLDBStakeStore(db)
	err = ensureTipStakeInfo(stakeStore, tip)
	if err != nil {
		return nil, err
	}

	executorFactory, err := contractvm.NewWASMExecutorFactory(ctx, params, cfg.ContractCacheSize)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := executorFactory.Close(context.Background())
		if closeErr != nil {
			log.Errorf("Error closing the contract executor: %+v", closeErr)
		}
	}()

	mempoolConfig := mempool.DefaultConfig(params)
	mempoolConfig.AcceptNonStandard = cfg.AcceptNonStandard
	mempoolConfig.MaximumMassAcceptedByBlock = cfg.BlockMaxMass
	policy := &blocktemplatebuilder.Policy{
		BlockMaxMass:           cfg.BlockMaxMass,
		IncludeFailedContracts: !cfg.ExcludeFailedContracts,
	}

	miningManager := miningmanager.NewFactory().NewMiningManager(params, mempoolConfig, policy,
		statetree.New(nodeStore), stakeStore, coinView, executorFactory)

	for _, transaction := range transactions {
		err := miningManager.ValidateAndInsertTransaction(transaction)
		if err != nil {
			transactionID := consensushashing.TransactionID(transaction)
			if !errors.As(err, &mempool.RuleError{}) {
				return nil, errors.Wrapf(err, "transaction %s", transactionID)
			}
			log.Warnf("Rejected transaction %s: %s", transactionID, err)
		}
	}
	log.Infof("Accepted %d out of %d transactions to the mempool",
		miningManager.TransactionCount(), len(transactions))

	coinbaseData := &externalapi.DomainCoinbaseData{
		ScriptPublicKey: cfg.CoinbaseScript,
		ExtraData:       []byte(cfg.CoinbaseExtraData),
	}
	return miningManager.GetBlockTemplate(ctx, tip, coinbaseData)
}

// ensureTipStakeInfo records the tip in the stake history, so that a tip
// read from a fixture can be built upon
func ensureTipStakeInfo(stakeStore stakechain.StakeStore, tip *externalapi.DomainBlockHeader) error {
	_, err := stakeStore.StakeInfo(consensushashing.HeaderHash(tip))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ruleerrors.ErrMissingStakeHistory) {
		return err
	}
	return stakeStore.Insert(stakechain.NewStakeInfoFromHeader(tip))
}

func printSummary(blockTemplate *model.BlockTemplate) {
	header := blockTemplate.Block.Header
	fmt.Printf("Block template at height %d\n", blockTemplate.Height)
	fmt.Printf("  hash:                %s\n", consensushashing.BlockHash(blockTemplate.Block))
	fmt.Printf("  proof of stake:      %t\n", header.IsProofOfStake)
	fmt.Printf("  bits:                %08x\n", header.Bits)
	fmt.Printf("  state root:          %s\n", blockTemplate.StateRoot)
	fmt.Printf("  transactions:        %d\n", len(blockTemplate.Block.Transactions))
	fmt.Printf("  executed contracts:  %d\n", blockTemplate.ExecutedContracts)
	fmt.Printf("  refunds:             %d\n", blockTemplate.RefundCount)
	fmt.Printf("  total fees:          %d\n", blockTemplate.TotalFees)
	fmt.Printf("  total mass:          %d\n", blockTemplate.TotalMass)
	for _, excluded := range blockTemplate.ExcludedTransactions {
		fmt.Printf("  excluded:            %s\n", excluded)
	}
}
