// Command mimereg serves and maintains the mime type registry.
package main

import (
	"context"
	"os"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		printError(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
