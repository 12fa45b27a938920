// Package fs is the file-backed I/O layer spec.md §6 describes: a uniform
// File interface over inode-backed files, pipes, and stdio, sitting on top
// of two named external collaborators (BlockDevice, Inode) the on-disk
// filesystem library would otherwise own (spec.md explicitly puts the
// block-device driver and filesystem library itself out of scope).
package fs

import "rvkernel/kernel/kerr"

// File is the uniform interface every file descriptor entry implements,
// whether it is backed by an inode, a pipe end, or a console stream.
type File interface {
	Readable() bool
	Writable() bool
	Read(buf []byte) (int, *kerr.Error)
	Write(buf []byte) (int, *kerr.Error)
}

// BlockDevice is the narrow contract spec.md names for the block layer:
// fixed-size block reads and writes, nothing else.
type BlockDevice interface {
	ReadBlock(id uint64, buf []byte) error
	WriteBlock(id uint64, buf []byte) error
}

// Inode is the narrow contract spec.md names for the on-disk filesystem:
// byte-range read/write at an offset plus a current size, nothing else
// (no directory traversal, no permissions model).
type Inode interface {
	ReadAt(offset uint64, buf []byte) (int, error)
	WriteAt(offset uint64, buf []byte) (int, error)
	Size() uint64
}

// InodeFile adapts an Inode into a File with its own read/write cursor,
// the shape every opened regular file takes in a task's descriptor table.
type InodeFile struct {
	inode    Inode
	offset   uint64
	readable bool
	writable bool
}

// NewInodeFile opens inode for reading, writing, or both.
func NewInodeFile(inode Inode, readable, writable bool) *InodeFile {
	return &InodeFile{inode: inode, readable: readable, writable: writable}
}

func (f *InodeFile) Readable() bool { return f.readable }
func (f *InodeFile) Writable() bool { return f.writable }

// Read fills buf starting at the file's current offset and advances it.
func (f *InodeFile) Read(buf []byte) (int, *kerr.Error) {
	if !f.readable {
		return 0, kerr.New(kerr.InvalidOpenFlags, "fs", "file not opened for reading")
	}
	n, err := f.inode.ReadAt(f.offset, buf)
	if err != nil {
		return n, kerr.New(kerr.EOB, "fs", err.Error())
	}
	f.offset += uint64(n)
	return n, nil
}

// Write writes buf starting at the file's current offset and advances it.
func (f *InodeFile) Write(buf []byte) (int, *kerr.Error) {
	if !f.writable {
		return 0, kerr.New(kerr.InvalidOpenFlags, "fs", "file not opened for writing")
	}
	n, err := f.inode.WriteAt(f.offset, buf)
	if err != nil {
		return n, kerr.New(kerr.EOB, "fs", err.Error())
	}
	f.offset += uint64(n)
	return n, nil
}
