// Package typereport renders the fixed platform-layout report: the storage
// sizes of the opaque synchronization types a shared segment embeds, plus the
// special values clients check against. The output is the contract - other
// tools diff it across toolchains to catch ABI mismatches - so the line text
// and ordering here must never change.
package typereport

import (
	"fmt"
	"io"

	"ismbuf/pkg/pthread"
)

// Lines returns the report in print order: a header, the four type sizes,
// another header, then the two special values. Always exactly eight lines.
func Lines() []string {
	return []string{
		"typename: size_in_bytes",
		fmt.Sprintf("sem_t: %d", pthread.SizeofSemT),
		fmt.Sprintf("pthread_mutexattr_t: %d", pthread.SizeofMutexattrT),
		fmt.Sprintf("pthread_rwlockattr_t: %d", pthread.SizeofRWLockattrT),
		fmt.Sprintf("pthread_rwlock_t: %d", pthread.SizeofRWLockT),
		"MACRO or other special name: value",
		// SEM_FAILED is a pointer sentinel; render it as a hex address.
		fmt.Sprintf("SEM_FAILED: %#x", pthread.SemFailed()),
		fmt.Sprintf("PTHREAD_PROCESS_SHARED: %d", pthread.ProcessShared),
	}
}

// Write emits the report to w, one line per fact.
func Write(w io.Writer) error {
	for _, line := range Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
