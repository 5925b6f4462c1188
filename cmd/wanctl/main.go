package main

import (
	"os"

	"github.com/wan2gp/wanctl/cmd/wanctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
