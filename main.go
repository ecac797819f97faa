package main

import (
	"os"

	"github.com/Kajaqq/SmartSubs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
