package main

import (
	"fmt"
	"runtime"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "1.0.0"

func printVersion() {
	fmt.Printf("peakinfer-mcp %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
}
