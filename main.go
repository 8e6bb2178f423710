// Package main provides the entry point for fifocal.
// fifocal characterises the refill queue of the AXI2HDMI display controller.
//
// For the full CLI, use: go run ./cmd/fifocal
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("fifocal - AXI2HDMI refill queue calibration")
	fmt.Println("Runs on real hardware through /dev/mem or on the built-in simulator")
	fmt.Println("")
	fmt.Println("Usage: fifocal [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config       Path to JSON configuration file")
	fmt.Println("  -devmem       Drive the real controller through /dev/mem")
	fmt.Println("  -dump-config  Write the effective configuration and exit")
	fmt.Println("  -cpuprofile   Write a CPU profile to file")
	fmt.Println("  -memprofile   Write a heap profile to file")
	fmt.Println("  -v            Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/fifocal' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/fifocal' instead.")
	}
}
