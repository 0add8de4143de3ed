package pthread

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestOpaqueTypeSizesArePositive(t *testing.T) {
	// No POSIX platform defines a zero-sized synchronization type. The exact
	// numbers are toolchain-dependent, so that's all we can pin down here.
	require.Greater(t, SizeofSemT, 0)
	require.Greater(t, SizeofMutexattrT, 0)
	require.Greater(t, SizeofRWLockattrT, 0)
	require.Greater(t, SizeofRWLockT, 0)
}

func TestProcessSharedValue(t *testing.T) {
	// glibc's pshared enum is PRIVATE=0, SHARED=1. If this ever fails we're on
	// a platform whose constants need a second look before trusting shmbuf.
	require.Equal(t, 1, ProcessShared)
}

func TestRWLockInPlainMemory(t *testing.T) {
	// uint64 backing keeps the storage 8-byte aligned.
	storage := make([]uint64, (SizeofRWLockT+7)/8)

	lock, err := InitProcessShared(unsafe.Pointer(&storage[0]))
	require.NoError(t, err)

	require.NoError(t, lock.WrLock())
	require.NoError(t, lock.Unlock())
	require.NoError(t, lock.Destroy())
}

func TestAttachSeesInitializedLock(t *testing.T) {
	storage := make([]uint64, (SizeofRWLockT+7)/8)

	lock, err := InitProcessShared(unsafe.Pointer(&storage[0]))
	require.NoError(t, err)
	defer lock.Destroy()

	attached := Attach(unsafe.Pointer(&storage[0]))
	require.NoError(t, attached.WrLock())
	require.NoError(t, attached.Unlock())
}
