// Command cleanstage runs the basic cleaning stage of the rental-price
// pipeline.
package main

import (
	"os"

	"cleanstage/cmd/cleanstage/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
