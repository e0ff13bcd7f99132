package main

import (
	"os"

	"github.com/clawtrends/claw-trends/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
