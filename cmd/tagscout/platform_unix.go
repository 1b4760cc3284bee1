//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func enableANSI() {
	// Unix terminals render pterm's escape codes natively.
}

// registerSignals routes Ctrl+C and service-manager stops to ch.
func registerSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
}
