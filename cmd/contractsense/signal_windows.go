//go:build windows

package main

import "os"

// terminationSignals are the signals that trigger graceful shutdown.
var terminationSignals = []os.Signal{os.Interrupt}
