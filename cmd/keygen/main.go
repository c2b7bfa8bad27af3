// catalog keygen: writes a shared session key file.
package main

import (
	"flag"
	"fmt"
	"os"

	"dev.c0redev.catalog/internal/secure"
)

func main() {
	out := flag.String("out", "secret.key", "key file path")
	flag.Parse()

	if _, err := os.Stat(*out); err == nil {
		fmt.Fprintln(os.Stderr, *out, "already exists")
		os.Exit(1)
	}
	if _, err := secure.LoadOrCreateKey(*out); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d-byte key to %s\n", secure.KeySize, *out)
}
