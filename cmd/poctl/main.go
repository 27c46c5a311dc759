package main

import (
	"fmt"
	"os"

	"github.com/utafrali/purchase-orders/cmd/poctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
