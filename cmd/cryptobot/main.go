package main

import (
	"os"

	"github.com/rustyeddy/cryptobot/cmd/cryptobot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
