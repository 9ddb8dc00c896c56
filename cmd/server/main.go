package main

import "github.com/damacus/bucket-explorer/internal/cmd"

// Set through -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	cmd.Execute()
}
