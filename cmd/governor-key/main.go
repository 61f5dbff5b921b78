// Package main provides a one-shot utility for governor caller key generation.
//
// It prints the private key and matching address used to sign governor calls.
package main

import (
	"os"

	"github.com/arywk40-hue/budget-governor/internal/platform/config"
	"github.com/arywk40-hue/budget-governor/internal/tools/governorkey"
)

func main() {
	if err := governorkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate governor key: %v", err)
	}
}
