package mempool

import (
	"sync"

	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	miningmanagermodel "github.com/hybridchain/hybridd/domain/miningmanager/model"
	"github.com/hybridchain/hybridd/domain/utxo"
)

type mempool struct {
	mtx sync.RWMutex

	config   *Config
	params   *chainconfig.Params
	coinView utxo.CoinView

	transactionsPool *transactionsPool
}

// New constructs a new mempool. Inputs of incoming transactions that do not
// carry their spent entry are resolved from coinView.
func New(config *Config, params *chainconfig.Params, coinView utxo.CoinView) miningmanagermodel.Mempool {
	mp := &mempool{
		config:   config,
		params:   params,
		coinView: coinView,
	}
	mp.transactionsPool = newTransactionsPool(mp)
	return mp
}

func (mp *mempool) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.validateAndInsertTransaction(transaction)
}

func (mp *mempool) MiningDescs() []*miningmanagermodel.MiningDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.miningDescs()
}

func (mp *mempool) HandleNewBlock(block *externalapi.DomainBlock) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.handleNewBlock(block)
}

func (mp *mempool) RemoveTransactions(transactions []*externalapi.DomainTransaction) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.removeTransactions(transactions)
}

func (mp *mempool) Transactions() []*externalapi.DomainTransaction {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.getAllTransactions()
}

func (mp *mempool) TransactionCount() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.transactionCount()
}
