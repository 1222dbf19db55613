package main

import (
	"os"

	"github.com/bnema/amplify-rest-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
