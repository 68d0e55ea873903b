// Command docstorectl reads and writes documents on a docstore server.
package main

import (
	"os"

	"github.com/gogotex/docstore/internal/config"
	"github.com/gogotex/docstore/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	app := newApp(config.LoadClientConfig())
	if err := app.Run(os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
