package main

import (
	"os"

	"tasktrack/cmd/tasktrack/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
