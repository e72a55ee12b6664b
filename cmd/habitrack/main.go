package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukerupert/habitrack/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "habitrack: %v\n", err)
		os.Exit(1)
	}
}
