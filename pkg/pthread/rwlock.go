package pthread

/*
#include <pthread.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// RWLock is a handle on a pthread read-write lock living in caller-provided
// memory, usually a shared mapping. The memory must be at least SizeofRWLockT
// bytes and 8-byte aligned, and must stay mapped for the life of the handle.
// Only write locking is exposed: that is all the refcount protocol uses, and
// some platforms historically supported process sharing for nothing more.
type RWLock struct {
	l *C.pthread_rwlock_t
}

// InitProcessShared initializes a process-shared rwlock in the memory at p
// and returns a handle on it. The lock must later be released with Destroy by
// whichever process detaches last.
func InitProcessShared(p unsafe.Pointer) (*RWLock, error) {
	var attr C.pthread_rwlockattr_t
	if rc := C.pthread_rwlockattr_init(&attr); rc != 0 {
		return nil, fmt.Errorf("pthread_rwlockattr_init: %w", unix.Errno(rc))
	}
	defer C.pthread_rwlockattr_destroy(&attr)

	if rc := C.pthread_rwlockattr_setpshared(&attr, C.PTHREAD_PROCESS_SHARED); rc != 0 {
		return nil, fmt.Errorf("pthread_rwlockattr_setpshared: %w", unix.Errno(rc))
	}

	lock := (*C.pthread_rwlock_t)(p)
	if rc := C.pthread_rwlock_init(lock, &attr); rc != 0 {
		return nil, fmt.Errorf("pthread_rwlock_init: %w", unix.Errno(rc))
	}
	return &RWLock{l: lock}, nil
}

// Attach wraps an rwlock that some other process (or an earlier call to
// InitProcessShared) already initialized in the memory at p.
func Attach(p unsafe.Pointer) *RWLock {
	return &RWLock{l: (*C.pthread_rwlock_t)(p)}
}

// WrLock blocks until the write lock is held.
func (l *RWLock) WrLock() error {
	if rc := C.pthread_rwlock_wrlock(l.l); rc != 0 {
		return fmt.Errorf("pthread_rwlock_wrlock: %w", unix.Errno(rc))
	}
	return nil
}

// Unlock releases the lock.
func (l *RWLock) Unlock() error {
	if rc := C.pthread_rwlock_unlock(l.l); rc != 0 {
		return fmt.Errorf("pthread_rwlock_unlock: %w", unix.Errno(rc))
	}
	return nil
}

// Destroy tears the lock down. The lock must not be held, and no process may
// use it afterwards.
func (l *RWLock) Destroy() error {
	if rc := C.pthread_rwlock_destroy(l.l); rc != 0 {
		return fmt.Errorf("pthread_rwlock_destroy: %w", unix.Errno(rc))
	}
	return nil
}
