// Package pthread exposes the storage sizes and special values of the opaque
// POSIX synchronization types this module embeds in shared memory segments.
// The values come straight from the compiling toolchain's headers via cgo -
// nothing here is hardcoded, because "whatever the platform actually uses" is
// the entire point. It also provides the small set of process-shared rwlock
// operations that shmbuf needs to guard refcounts living inside a mapping.
package pthread

/*
#include <pthread.h>
#include <semaphore.h>

// SEM_FAILED expands to a cast expression, so cgo can't surface it as a
// constant. Hand it back through a function instead.
static sem_t *sem_failed_sentinel(void) { return SEM_FAILED; }
*/
import "C"

import "unsafe"

// Storage sizes, in bytes, of the opaque types as the compiling platform
// defines them. Portable code may rely on these sizes only to allocate
// storage, never on the layout behind them.
const (
	SizeofSemT        = C.sizeof_sem_t
	SizeofMutexattrT  = C.sizeof_pthread_mutexattr_t
	SizeofRWLockattrT = C.sizeof_pthread_rwlockattr_t
	SizeofRWLockT     = C.sizeof_pthread_rwlock_t
)

// ProcessShared is PTHREAD_PROCESS_SHARED: the attribute value marking a
// synchronization object as usable by unrelated processes through shared
// memory, not just threads of one process.
const ProcessShared = C.PTHREAD_PROCESS_SHARED

// SemFailed returns the platform's SEM_FAILED sentinel as a raw pointer
// value. sem_open returns this on failure; glibc defines it as a null
// pointer, but that is a platform choice, so it gets reported rather than
// assumed.
func SemFailed() uintptr {
	return uintptr(unsafe.Pointer(C.sem_failed_sentinel()))
}
