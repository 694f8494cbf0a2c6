package main

import (
	"context"
	"fmt"
	"os"

	"github.com/conorfennell/tarottimer/internal/cli"
	"github.com/conorfennell/tarottimer/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
