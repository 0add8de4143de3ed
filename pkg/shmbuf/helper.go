package shmbuf

import (
	"golang.org/x/sys/unix"
)

//go:generate mockery --name=shmHelper --structname=ShmHelperMock

// shmHelper wraps the handful of syscalls shmbuf needs. Split out so the
// tests can verify the create/attach sequences without touching /dev/shm.
type shmHelper interface {
	// Open wraps unix.Open.
	Open(path string, flags int, perm uint32) (int, error)
	// Ftruncate wraps unix.Ftruncate.
	Ftruncate(fd int, size int64) error
	// Fstat returns the size of the file behind fd.
	Fstat(fd int) (int64, error)
	// Mmap maps length bytes of fd read-write and shared.
	Mmap(fd int, length int) ([]byte, error)
	// Munmap wraps unix.Munmap.
	Munmap(data []byte) error
	// Close wraps unix.Close.
	Close(fd int) error
	// Unlink wraps unix.Unlink.
	Unlink(path string) error
}

type shmHelperImpl struct{}

func (shmHelperImpl) Open(path string, flags int, perm uint32) (int, error) {
	return unix.Open(path, flags, perm)
}

func (shmHelperImpl) Ftruncate(fd int, size int64) error {
	return unix.Ftruncate(fd, size)
}

func (shmHelperImpl) Fstat(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

func (shmHelperImpl) Mmap(fd int, length int) ([]byte, error) {
	return unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (shmHelperImpl) Munmap(data []byte) error {
	return unix.Munmap(data)
}

func (shmHelperImpl) Close(fd int) error {
	return unix.Close(fd)
}

func (shmHelperImpl) Unlink(path string) error {
	return unix.Unlink(path)
}
