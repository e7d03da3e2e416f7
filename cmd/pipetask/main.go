package main

import (
	"os"

	"pipetask-service/cmd/pipetask/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
