package syscall

import (
	"rvkernel/kernel/fs"
	"rvkernel/kernel/fs/pipe"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
)

// Open flags, matching the access-mode encoding original_source/src/fs.rs
// uses (bits above the low two are reserved for future use and ignored
// here, since creation and truncation are the filesystem library's job,
// not this kernel's).
const (
	OpenReadOnly  = 0
	OpenWriteOnly = 1
	OpenReadWrite = 2
)

func copyOut(space translator, addr uint64, data []byte) *kerr.Error {
	bufs, err := space.TranslatedByteBuffers(mem.VirtAddr(addr), uint64(len(data)))
	if err != nil {
		return err
	}
	off := 0
	for _, b := range bufs {
		off += copy(b, data[off:])
	}
	return nil
}

func copyIn(space translator, addr uint64, length uint64) ([]byte, *kerr.Error) {
	bufs, err := space.TranslatedByteBuffers(mem.VirtAddr(addr), length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, length)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out, nil
}

// translator is the slice of vmm.Space read/write user-memory syscalls
// need, narrowed to let fs.go, process.go and others share copyIn/copyOut
// without importing vmm.Space's full surface.
type translator interface {
	TranslatedByteBuffers(addr mem.VirtAddr, length uint64) ([][]byte, *kerr.Error)
	TranslatedString(addr mem.VirtAddr) (string, *kerr.Error)
}

// sysWrite implements write(fd, buf*, len) -> n|-1.
func (s *Server) sysWrite(fd, bufAddr, length uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	f := t.Process().File(int(fd))
	if f == nil || !f.Writable() {
		return errU64()
	}
	data, err := copyIn(t.Process().Space(), bufAddr, length)
	if err != nil {
		return errU64()
	}
	n, werr := f.Write(data)
	if werr != nil {
		return errU64()
	}
	return uint64(n)
}

// sysRead implements read(fd, buf*, len) -> n|-1.
func (s *Server) sysRead(fd, bufAddr, length uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	f := t.Process().File(int(fd))
	if f == nil || !f.Readable() {
		return errU64()
	}
	buf := make([]byte, length)
	n, rerr := f.Read(buf)
	if rerr != nil {
		return errU64()
	}
	if err := copyOut(t.Process().Space(), bufAddr, buf[:n]); err != nil {
		return errU64()
	}
	return uint64(n)
}

// sysOpen implements open(path*, flags) -> fd|-1, resolving path against
// the in-memory file table a real filesystem library would otherwise own.
func (s *Server) sysOpen(pathAddr, flags uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	path, perr := t.Process().Space().TranslatedString(mem.VirtAddr(pathAddr))
	if perr != nil {
		return errU64()
	}
	inode, ok := s.file(path)
	if !ok {
		return errU64()
	}
	readable := flags == OpenReadOnly || flags == OpenReadWrite
	writable := flags == OpenWriteOnly || flags == OpenReadWrite
	fd := t.Process().AllocFD(fs.NewInodeFile(inode, readable, writable))
	return uint64(fd)
}

// sysClose implements close(fd) -> 0|-1.
func (s *Server) sysClose(fd uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	if err := t.Process().DeallocFD(int(fd)); err != nil {
		return errU64()
	}
	return 0
}

// sysPipe implements pipe(fd[2]*) -> 0|-1: writes the new read and write
// descriptor numbers into the two-uint32 array at userFDAddr.
func (s *Server) sysPipe(userFDAddr uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	read, write := pipe.New(pipeCapacity)
	readFD := t.Process().AllocFD(read)
	writeFD := t.Process().AllocFD(write)

	var out [8]byte
	putU32(out[0:4], uint32(readFD))
	putU32(out[4:8], uint32(writeFD))
	if err := copyOut(t.Process().Space(), userFDAddr, out[:]); err != nil {
		return errU64()
	}
	return 0
}

const pipeCapacity = 4096

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// errU64 is the syscall ABI's universal failure value: -1 reinterpreted as
// uint64, the same sentinel every syscall returns on failure regardless of
// which kerr.Kind caused it.
func errU64() uint64 {
	return ^uint64(0)
}
