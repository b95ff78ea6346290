package main

import (
	"context"
	"fmt"
	"os"
)

var App *GemFarmApp

func main() {
	App = initApp()
	if err := App.cliCmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
