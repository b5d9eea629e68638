// Command filenode-chaos drives the transfer and connection state machines
// through fault-injected simulations.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
