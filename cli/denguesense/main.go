package main

import (
	"os"

	denguesensecmder "github.com/papercomputeco/denguesense/cmd/denguesense"
)

func main() {
	cmd := denguesensecmder.NewDengueSenseCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
