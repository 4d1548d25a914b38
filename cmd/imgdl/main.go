// Command imgdl downloads one or more images from HTTP(S) URLs to disk.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgdl:", err)
		os.Exit(1)
	}
}
