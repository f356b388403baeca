// Command api runs the bidtrack HTTP API server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bidtrack/bidtrack/internal/app"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()

	a, err := app.New(app.Options{
		ConfigPath: *configPath,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if err := a.Run(); err != nil {
		os.Exit(1)
	}
}
