//go:build windows

package main

import (
	"os"
	"os/signal"

	"golang.org/x/sys/windows"
)

// enableANSI turns on virtual terminal processing so pterm colors render
// in cmd.exe and older PowerShell hosts.
func enableANSI() {
	out, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(out, &mode); err != nil {
		return
	}
	_ = windows.SetConsoleMode(out, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}

// registerSignals only routes Ctrl+C; Windows has no SIGTERM delivery.
func registerSignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
