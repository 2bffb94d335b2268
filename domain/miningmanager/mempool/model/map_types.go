package model

import (
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
)

// IDToTransaction maps transactionID to a MempoolTransaction
type IDToTransaction map[externalapi.DomainTransactionID]*MempoolTransaction

// OutpointToTransaction maps an outpoint to the MempoolTransaction spending it
type OutpointToTransaction map[externalapi.DomainOutpoint]*MempoolTransaction
