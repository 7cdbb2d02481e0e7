package main

import (
	"github.com/giantswarm/mcp-podfs/cmd"
)

// version is set at build time.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
