package main

import (
	"github.com/hybridchain/hybridd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("HYBD")
