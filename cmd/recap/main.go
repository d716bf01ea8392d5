// main is the entry point of the recap CLI.
package main

import (
	"github.com/huangsam/recap/cmd"
	"github.com/huangsam/recap/internal/contract"
)

func main() {
	err := cmd.Execute()
	if shutdownErr := cmd.Shutdown(); shutdownErr != nil {
		contract.LogWarn("Shutdown failed", shutdownErr)
	}
	if err != nil {
		contract.LogFatal("recap failed", err)
	}
}
