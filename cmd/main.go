package main

import (
	"os"

	"github.com/blackvectorops/pano/cmd/pano"
)

func main() {
	if err := pano.Execute(); err != nil {
		os.Exit(1)
	}
}
