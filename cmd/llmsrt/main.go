package main

import (
	"os"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
