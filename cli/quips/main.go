package main

import (
	"os"

	quipscmder "github.com/quipworks/quips/cmd/quips"
)

func main() {
	cmd := quipscmder.NewQuipsCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
