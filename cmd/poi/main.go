package main

import (
	"os"

	"github.com/poi-cli/poi/internal/cli"
)

var (
	version   = "develop"
	revision  = "HEAD"
	buildDate = "unknown"
)

func main() {
	if err := cli.Run(cli.Version{
		AppName:   "poi",
		Version:   version,
		Revision:  revision,
		BuildDate: buildDate,
	}); err != nil {
		os.Exit(1)
	}
}
