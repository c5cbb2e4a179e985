// Command blogctl talks to a blog API server and remembers the login session
// between invocations.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
