// defgen emits the synthetic definition table used by the test suite,
// so it can be inspected, charted, or used as a development fixture:
//
//	go run ./tools/defgen > chars.txt
package main

import (
	"fmt"
	"os"

	"ojitype/internal/tabletest"
)

func main() {
	if _, err := fmt.Print(tabletest.DefinitionText()); err != nil {
		fmt.Fprintf(os.Stderr, "defgen: %v\n", err)
		os.Exit(1)
	}
}
