package main

import (
	"fmt"
	"os"

	"github.com/sabbirzzaman/go-autocar-server/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "autocar: %v\n", err)
		os.Exit(1)
	}
}
