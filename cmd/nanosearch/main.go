package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/coffersTech/nanosearch/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
