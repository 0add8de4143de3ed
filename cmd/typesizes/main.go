package main

// Dumps the storage sizes of the opaque pthread/semaphore types and the
// special values shmbuf segments depend on. Run it under each toolchain that
// touches a shared segment and diff the output - if the reports differ, the
// layouts don't agree and the segment format is not safe to share.

import (
	"os"

	"ismbuf/pkg/typereport"
)

func main() {
	// Arguments are deliberately ignored, and there's nowhere useful to
	// report a stdout write failure, so the error is too.
	typereport.Write(os.Stdout)
}
