package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/atomozero/venicedaw-core/internal/audiodevice"
)

// printVersion reports the toolchain and every audiodevice.Sink backend
// present in this build, the same build-tag-driven feature report the
// teacher printed for its emulated-CPU/video chip set (features.go).
func printVersion() {
	fmt.Fprintf(os.Stderr, "veniced (VeniceDAW core engine driver)\n")
	fmt.Fprintf(os.Stderr, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(os.Stderr, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Compiled audio backends:")

	backends := append([]string{"oto", "null"}, audiodevice.OptionalBackends()...)
	sort.Strings(backends)
	for _, b := range backends {
		fmt.Fprintf(os.Stderr, "  %s\n", b)
	}
}
