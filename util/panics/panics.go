package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hybridchain/hybridd/infrastructure/logger"
)

const exitHandlerTimeout = 5 * time.Second

// HandlePanic recovers a panic, logs it together with the stack trace
// and exits the process once the log is flushed.
// It must be called directly by a deferred statement.
func HandlePanic(log *logger.Logger) {
	err := recover()
	if err == nil {
		return
	}
	Exit(log, fmt.Sprintf("Fatal error: %+v", err), debug.Stack())
}

// Exit logs reason and the given stack trace, if any, waits for the log
// backend to flush and exits with a non-zero code.
func Exit(log *logger.Logger, reason string, stackTrace []byte) {
	exitHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		if stackTrace != nil {
			log.Criticalf("Stack trace: %s", stackTrace)
		}
		log.Backend().Close()
		close(exitHandlerDone)
	}()

	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-exitHandlerDone:
	}
	os.Exit(1)
}
