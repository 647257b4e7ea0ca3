package main

import (
	"os"

	"github.com/maxkimambo/shellchain/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
