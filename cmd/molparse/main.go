// Command molparse validates molecule formulas and counts their atoms.
package main

import (
	"os"

	"github.com/chemform/molparse/cmd/molparse/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
