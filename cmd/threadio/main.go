package main

import (
	"os"

	"github.com/vnykmshr/threadio/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
