//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals are the signals that trigger graceful shutdown.
// Process managers (systemd, kubernetes) send SIGTERM to stop the service.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
