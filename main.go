package main

import (
	"os"

	"github.com/fatih/color"

	_ "nudeploy/cmd"
	"nudeploy/cmd/root"
	"nudeploy/internal/logger"
)

func main() {
	err := root.RootCmd.Execute()
	logger.Close()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
