// Package shmbuf implements named, reference counted shared-memory buffers.
// A segment lives under /dev/shm and can be attached by unrelated processes;
// the last process to close it unlinks it. The segment layout is:
//
//	size header | descr | data | refcount header
//
// The size header carries a magic cookie plus the descr/data lengths, descr is
// an opaque blob describing the data (the original clients stored array shape
// information there), and the refcount header holds a process-shared rwlock
// guarding the count of attached handles. The refcount header comes last so
// clients that don't participate in refcounting can simply ignore it.
package shmbuf

import (
	"fmt"
	"math"
	"path"
	"runtime"
	"strings"
	"unsafe"

	"ismbuf/pkg/pthread"

	"golang.org/x/sys/unix"
)

// magicCookie marks a fully initialized segment. Create writes it last, so a
// half-built segment can never be mistaken for a live one.
var magicCookie = [2]byte{0xF0, 0x0A}

const shmDir = "/dev/shm"

// sizeHeader sits at offset 0 of the mapping.
type sizeHeader struct {
	cookie    [2]byte
	descrSize uint16
	dataSize  uint64
}

// refCountHeader sits at the first 8-byte boundary past the data region.
type refCountHeader struct {
	lock     [pthread.SizeofRWLockT]byte
	refcount uint64
}

const (
	sizeHeaderLen = int(unsafe.Sizeof(sizeHeader{}))
	refHeaderLen  = int(unsafe.Sizeof(refCountHeader{}))
)

// layoutOffsets computes where each region of a segment lands. The refcount
// header is pushed to an 8-byte boundary so its lock and counter stay aligned
// no matter what descr/data lengths a client picked.
func layoutOffsets(descrLen, dataLen int) (descrOff, dataOff, refOff, total int) {
	descrOff = sizeHeaderLen
	dataOff = descrOff + descrLen
	refOff = (dataOff + dataLen + 7) &^ 7
	total = refOff + refHeaderLen
	return
}

// Buffer is an open handle on a named shared-memory segment.
type Buffer interface {
	// Name returns the segment's name, without the /dev/shm prefix.
	Name() string
	// Bytes returns the data region. The slice aliases the shared mapping:
	// writes are visible to every attached process, and the slice must not be
	// touched after Close.
	Bytes() []byte
	// Descr returns a copy of the opaque descriptor stored with the data.
	Descr() []byte
	// SharedRefcount returns the number of handles attached across all
	// processes, including this one.
	SharedRefcount() (uint64, error)
	// Close detaches from the segment. The last close across all processes
	// destroys the embedded lock and unlinks the segment. Closing twice is
	// harmless.
	Close() error
}

type buffer struct {
	name   string
	helper shmHelper
	fd     int
	mapped []byte
	descr  []byte
	data   []byte
	ref    *refCountHeader
	lock   *pthread.RWLock
	closed bool
}

// Create makes a new segment named name with room for size data bytes and the
// given descriptor, attaches to it, and returns the handle with the shared
// refcount at 1. Creation is exclusive: an existing segment of the same name
// is an error, not something to silently reuse. The segment is created with
// permissions 0600 (readable/writable by owner only).
func Create(name string, size int, descr []byte) (Buffer, error) {
	return createWithHelper(shmHelperImpl{}, name, size, descr)
}

// Open attaches to an existing segment, bumping its shared refcount.
func Open(name string) (Buffer, error) {
	return openWithHelper(shmHelperImpl{}, name)
}

func createWithHelper(h shmHelper, name string, size int, descr []byte) (Buffer, error) {
	segPath, err := shmPath(name)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("segment %q: data size must be positive, got %d", name, size)
	}
	if len(descr) > math.MaxUint16 {
		return nil, fmt.Errorf("segment %q: descr is %d bytes, limit is %d", name, len(descr), math.MaxUint16)
	}

	_, _, refOff, total := layoutOffsets(len(descr), size)

	fd, err := h.Open(segPath, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0600)
	if err != nil {
		return nil, fmt.Errorf("could not create segment %q: %w", name, err)
	}
	// From here on, any failure has to tear down whatever got built so a
	// half-initialized segment doesn't linger in /dev/shm.
	fail := func(step string, err error) (Buffer, error) {
		h.Close(fd)
		h.Unlink(segPath)
		return nil, fmt.Errorf("%s for segment %q: %w", step, name, err)
	}

	if err := h.Ftruncate(fd, int64(total)); err != nil {
		return fail("ftruncate", err)
	}
	mapped, err := h.Mmap(fd, total)
	if err != nil {
		return fail("mmap", err)
	}

	hdr := (*sizeHeader)(unsafe.Pointer(&mapped[0]))
	hdr.descrSize = uint16(len(descr))
	hdr.dataSize = uint64(size)
	copy(mapped[sizeHeaderLen:], descr)

	ref := (*refCountHeader)(unsafe.Pointer(&mapped[refOff]))
	lock, err := pthread.InitProcessShared(unsafe.Pointer(&ref.lock[0]))
	if err != nil {
		h.Munmap(mapped)
		return fail("lock init", err)
	}
	if err := lock.WrLock(); err != nil {
		lock.Destroy()
		h.Munmap(mapped)
		return fail("lock", err)
	}
	ref.refcount = 1
	lock.Unlock()

	// The segment is fully built; let the world see it.
	hdr.cookie = magicCookie

	return newBuffer(h, name, fd, mapped, descr, refOff, lock), nil
}

func openWithHelper(h shmHelper, name string) (Buffer, error) {
	segPath, err := shmPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := h.Open(segPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open segment %q: %w", name, err)
	}
	fail := func(step string, err error) (Buffer, error) {
		h.Close(fd)
		return nil, fmt.Errorf("%s for segment %q: %w", step, name, err)
	}

	total, err := h.Fstat(fd)
	if err != nil {
		return fail("fstat", err)
	}
	if total < int64(sizeHeaderLen+refHeaderLen) {
		return fail("validate", fmt.Errorf("segment is only %d bytes, too small to hold the headers", total))
	}
	mapped, err := h.Mmap(fd, int(total))
	if err != nil {
		return fail("mmap", err)
	}

	hdr := (*sizeHeader)(unsafe.Pointer(&mapped[0]))
	if hdr.cookie != magicCookie {
		h.Munmap(mapped)
		return fail("validate", fmt.Errorf("bad magic cookie, not an initialized shmbuf segment"))
	}
	_, dataOff, refOff, want := layoutOffsets(int(hdr.descrSize), int(hdr.dataSize))
	if int64(want) != total {
		h.Munmap(mapped)
		return fail("validate", fmt.Errorf("header says %d bytes but segment is %d", want, total))
	}

	descr := make([]byte, hdr.descrSize)
	copy(descr, mapped[sizeHeaderLen:dataOff])

	ref := (*refCountHeader)(unsafe.Pointer(&mapped[refOff]))
	lock := pthread.Attach(unsafe.Pointer(&ref.lock[0]))
	if err := lock.WrLock(); err != nil {
		h.Munmap(mapped)
		return fail("lock", err)
	}
	ref.refcount++
	lock.Unlock()

	return newBuffer(h, name, fd, mapped, descr, refOff, lock), nil
}

func newBuffer(h shmHelper, name string, fd int, mapped, descr []byte, refOff int, lock *pthread.RWLock) *buffer {
	hdr := (*sizeHeader)(unsafe.Pointer(&mapped[0]))
	dataOff := sizeHeaderLen + int(hdr.descrSize)
	buf := &buffer{
		name:   name,
		helper: h,
		fd:     fd,
		mapped: mapped,
		descr:  descr,
		data:   mapped[dataOff : dataOff+int(hdr.dataSize)],
		ref:    (*refCountHeader)(unsafe.Pointer(&mapped[refOff])),
		lock:   lock,
	}
	// Backstop for handles that are dropped without Close. Close both clears
	// the finalizer and runs at exit of a well-behaved caller; this only
	// matters for the rest.
	runtime.SetFinalizer(buf, (*buffer).Close)
	return buf
}

func (b *buffer) Name() string {
	return b.name
}

func (b *buffer) Bytes() []byte {
	return b.data
}

func (b *buffer) Descr() []byte {
	out := make([]byte, len(b.descr))
	copy(out, b.descr)
	return out
}

// SharedRefcount takes the write lock rather than a read lock: the protocol
// only ever uses the write side, which keeps it working on platforms that
// historically shared nothing else across processes.
func (b *buffer) SharedRefcount() (uint64, error) {
	if b.closed {
		return 0, fmt.Errorf("operation on closed buffer %q", b.name)
	}
	if err := b.lock.WrLock(); err != nil {
		return 0, err
	}
	defer b.lock.Unlock()
	return b.ref.refcount, nil
}

func (b *buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	runtime.SetFinalizer(b, nil)

	var firstErr error
	destroy := false
	if err := b.lock.WrLock(); err != nil {
		firstErr = err
	} else {
		b.ref.refcount--
		destroy = b.ref.refcount == 0
		b.lock.Unlock()
	}

	// Destroy has to happen before the mapping goes away.
	if destroy {
		if err := b.lock.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.helper.Munmap(b.mapped); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := b.helper.Close(b.fd); err != nil && firstErr == nil {
		firstErr = err
	}
	if destroy {
		segPath, _ := shmPath(b.name)
		if err := b.helper.Unlink(segPath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// shmPath maps a segment name to its /dev/shm path, the same way shm_open
// does: one leading slash is tolerated, embedded slashes are not.
func shmPath(name string) (string, error) {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" {
		return "", fmt.Errorf("segment name must not be empty")
	}
	if strings.Contains(trimmed, "/") {
		return "", fmt.Errorf("segment name %q must not contain '/'", name)
	}
	return path.Join(shmDir, trimmed), nil
}
