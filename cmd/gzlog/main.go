package main

import (
	"os"

	"github.com/iamNilotpal/gzlog/cmd/gzlog/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
