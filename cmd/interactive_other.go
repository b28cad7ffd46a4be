//go:build !windows

package main

// enableVT is a no-op where terminals already interpret ANSI sequences.
func enableVT() {}
