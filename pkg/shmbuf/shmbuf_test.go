package shmbuf

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"ismbuf/pkg/shmbuf/mocks"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func requireShm(t *testing.T) {
	if _, err := os.Stat(shmDir); err != nil {
		t.Skipf("no %s on this system: %v", shmDir, err)
	}
}

func testSegmentName(t *testing.T) string {
	return fmt.Sprintf("ismbuf-test-%s-%d", t.Name(), os.Getpid())
}

func TestCreateOpenRoundTrip(t *testing.T) {
	requireShm(t)
	name := testSegmentName(t)

	buf, err := Create(name, 128, []byte("descr-blob"))
	require.NoError(t, err)

	rc, err := buf.SharedRefcount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), rc)

	// Writes through one handle must be visible through another.
	copy(buf.Bytes(), "hello from the creator")

	second, err := Open(name)
	require.NoError(t, err)
	require.Equal(t, name, second.Name())
	require.Equal(t, []byte("descr-blob"), second.Descr())
	require.Len(t, second.Bytes(), 128)
	require.Equal(t, []byte("hello from the creator"), second.Bytes()[:22])

	rc, err = second.SharedRefcount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), rc)

	require.NoError(t, second.Close())

	rc, err = buf.SharedRefcount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), rc)

	require.NoError(t, buf.Close())

	// Last close unlinks the segment.
	_, err = Open(name)
	require.Error(t, err)
}

func TestCreateIsExclusive(t *testing.T) {
	requireShm(t)
	name := testSegmentName(t)

	buf, err := Create(name, 16, nil)
	require.NoError(t, err)
	defer buf.Close()

	_, err = Create(name, 16, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, unix.EEXIST))
}

func TestOpenRejectsForeignFile(t *testing.T) {
	requireShm(t)
	name := testSegmentName(t)
	segPath := shmDir + "/" + name

	// A file big enough to pass the length check but carrying no cookie.
	require.NoError(t, ioutil.WriteFile(segPath, make([]byte, 256), 0600))
	defer os.Remove(segPath)

	_, err := Open(name)
	require.Error(t, err)
	require.Contains(t, err.Error(), "magic cookie")
}

func TestOpenRejectsTruncatedSegment(t *testing.T) {
	requireShm(t)
	name := testSegmentName(t)
	segPath := shmDir + "/" + name

	require.NoError(t, ioutil.WriteFile(segPath, make([]byte, 8), 0600))
	defer os.Remove(segPath)

	_, err := Open(name)
	require.Error(t, err)
	require.Contains(t, err.Error(), "too small")
}

func TestNameValidation(t *testing.T) {
	_, err := Create("", 16, nil)
	require.Error(t, err)

	_, err = Create("nested/name", 16, nil)
	require.Error(t, err)

	_, err = Open("also/nested")
	require.Error(t, err)
}

func TestCreateRejectsBadSizes(t *testing.T) {
	_, err := Create("whatever", 0, nil)
	require.Error(t, err)

	_, err = Create("whatever", -3, nil)
	require.Error(t, err)
}

func TestClosedBufferOperations(t *testing.T) {
	requireShm(t)
	name := testSegmentName(t)

	buf, err := Create(name, 16, nil)
	require.NoError(t, err)
	require.NoError(t, buf.Close())

	_, err = buf.SharedRefcount()
	require.Error(t, err)

	// Double close is a no-op, not a crash.
	require.NoError(t, buf.Close())
}

// The mock-driven test pins down the exact syscall sequence of the create
// path and the destroy-on-last-close behavior, without touching /dev/shm.
func TestCreateSyscallSequence(t *testing.T) {
	h := new(mocks.ShmHelperMock)

	// size 32 + 1 descr byte: header 16, data at 17..49, refcount header at
	// the next 8-byte boundary (56), 64 bytes of it -> 120 total.
	backing := make([]byte, 120)

	h.On("Open", "/dev/shm/seg", unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, uint32(0600)).Return(7, nil)
	h.On("Ftruncate", 7, int64(120)).Return(nil)
	h.On("Mmap", 7, 120).Return(backing, nil)
	h.On("Munmap", backing).Return(nil)
	h.On("Close", 7).Return(nil)
	h.On("Unlink", "/dev/shm/seg").Return(nil)

	buf, err := createWithHelper(h, "seg", 32, []byte("d"))
	require.NoError(t, err)

	// The cookie lands only after full initialization.
	require.Equal(t, magicCookie[:], backing[:2])

	rc, err := buf.SharedRefcount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), rc)

	require.NoError(t, buf.Close())

	h.AssertExpectations(t)
	// Refcount hit zero, so the segment must have been unlinked.
	h.AssertCalled(t, "Unlink", "/dev/shm/seg")
}

func TestCreateCleansUpOnFtruncateFailure(t *testing.T) {
	h := new(mocks.ShmHelperMock)

	h.On("Open", "/dev/shm/seg", unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, uint32(0600)).Return(7, nil)
	h.On("Ftruncate", 7, int64(120)).Return(unix.ENOSPC)
	h.On("Close", 7).Return(nil)
	h.On("Unlink", "/dev/shm/seg").Return(nil)

	_, err := createWithHelper(h, "seg", 32, []byte("d"))
	require.Error(t, err)
	require.True(t, errors.Is(err, unix.ENOSPC))

	h.AssertExpectations(t)
}

func TestLayoutOffsets(t *testing.T) {
	descrOff, dataOff, refOff, total := layoutOffsets(1, 32)
	require.Equal(t, 16, descrOff)
	require.Equal(t, 17, dataOff)
	require.Equal(t, 56, refOff)
	require.Equal(t, 56+refHeaderLen, total)

	// Already-aligned layouts get no padding.
	_, _, refOff, _ = layoutOffsets(0, 32)
	require.Equal(t, 48, refOff)
}
