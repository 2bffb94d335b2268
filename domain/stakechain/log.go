package stakechain

import (
	"github.com/hybridchain/hybridd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("STAK")
