package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/larder/internal/cli"
	"github.com/eleven-am/larder/pkg/larder"
)

// Set with -ldflags "-X main.commit=... -X main.date=..."
var (
	commit string
	date   string
)

func main() {
	larder.SetBuildInfo(commit, date)

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
