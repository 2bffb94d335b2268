package model

import (
	"context"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// BlockTemplate is a block ready to be sealed by a miner, together with
// the statistics of its assembly
type BlockTemplate struct {
	Block *externalapi.DomainBlock

	// Fees and TxMasses are indexed like Block.Transactions. The coinbase
	// and internal transactions pay no fee.
	Fees     []uint64
	TxMasses []uint64

	TotalFees uint64
	TotalMass uint64
	Height    uint64
	StateRoot *externalapi.DomainHash

	RefundCount          int
	ExecutedContracts    int
	ExcludedTransactions []*externalapi.DomainTransactionID
}

// BlockTemplateBuilder builds block templates for miners to consume
type BlockTemplateBuilder interface {
	GetBlockTemplate(ctx context.Context, tip *externalapi.DomainBlockHeader,
		coinbaseData *externalapi.DomainCoinbaseData) (*BlockTemplate, error)
}
