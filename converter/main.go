package main

import (
	"os"

	"github.com/macterm/prefs-converter/converter/cmd"
	"github.com/macterm/prefs-converter/converter/internal/logging"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logging.Fatal(r, "prefs-converter panicked")
		}
	}()

	os.Exit(cmd.Execute())
}
