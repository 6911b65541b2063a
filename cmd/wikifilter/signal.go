package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/tumuyan/WikiFilter/common"
)

// installSignalHandler arms the cooperative cancellation path spec §5/§8
// calls for: a SIGINT/SIGTERM sets stop, which the Scheduler checks before
// claiming each batch and executor.Run checks after each scanned line, so
// in-flight batches stop early and write the counts they have so far.
func installSignalHandler(stop *common.StopFlag, hooks *common.ProgressHooks) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		hooks.Warn("received interrupt, stopping in-flight batches early and claiming no new ones")
		stop.Stop()
		signal.Stop(ch)
	}()
}
