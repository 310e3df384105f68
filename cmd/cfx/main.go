package main

import (
	"fmt"
	"os"

	"filecollect/internal/cfx"
)

func main() {
	if err := cfx.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
