package main

import (
	"fmt"
	"os"

	"github.com/khaled-program/virtual-registry/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "virtual-registry: %v\n", err)
		os.Exit(1)
	}
}
