// Command textsearch indexes a directory of text documents into SQLite FTS5
// and searches it from an interactive prompt or a web interface.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
