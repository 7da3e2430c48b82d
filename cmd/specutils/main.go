// specutils is a thin CLI wrapper over the specfile/parsers/serializers
// packages: inspect a spectrum file, convert it to another format, or
// apply an external CALp calibration.
package main

import (
	"fmt"
	"os"

	"specutils/cmd/specutils/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
