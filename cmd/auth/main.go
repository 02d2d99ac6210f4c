// Command auth runs the Fitra authentication service.
package main

import (
	"os"

	"github.com/aussiebroadwan/fitra/internal/auth/app"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = app.BuildVersion

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
