// Command texdb indexes the texture groups of a project and generates a Go
// helper file naming each of them.
//
// Run "texdb refresh" in a project directory to rebuild the index, or
// "texdb serve" to keep it updated while files change and expose it over
// HTTP. Configuration comes from flags, TEXDB_* environment variables, a
// project .env file and an optional texdb.yaml.
package main

import (
	"fmt"
	"os"

	"texdb/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
