// Package main provides cms, the admin command line for a sitecms data
// directory.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/calvinalkan/sitecms/internal/cli"
	"github.com/calvinalkan/sitecms/internal/config"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: cannot get working directory:", err)
		os.Exit(1)
	}

	env, err := config.Environ(wd, os.Environ())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
