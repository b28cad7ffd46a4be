//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVT turns on virtual terminal processing for the account picker: arrow
// keys arrive as ANSI sequences on stdin and the picker's clear-screen and
// report colors render on stdout. The console resets these modes whenever raw
// mode is restored, so the picker calls it again after each details view.
func enableVT() {
	// Input side
	hIn := windows.Handle(os.Stdin.Fd())
	var inMode uint32
	if windows.GetConsoleMode(hIn, &inMode) == nil {
		windows.SetConsoleMode(hIn, inMode|windows.ENABLE_VIRTUAL_TERMINAL_INPUT)
	}

	// Output side
	hOut := windows.Handle(os.Stdout.Fd())
	var outMode uint32
	if windows.GetConsoleMode(hOut, &outMode) == nil {
		windows.SetConsoleMode(hOut, outMode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	}
}
