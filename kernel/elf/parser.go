package elf

import (
	"encoding/binary"
	"fmt"

	"rvkernel/kernel/mem"
)

const (
	ptLoad = 1

	pfExec  = 1
	pfWrite = 2
	pfRead  = 4

	ehSize       = 64
	ehPhoffOff   = 32
	ehEntryOff   = 24
	ehPhentszOff = 54
	ehPhnumOff   = 56

	phTypeOff   = 0
	phFlagsOff  = 4
	phOffsetOff = 8
	phVAddrOff  = 16
	phFilesz    = 32
	phMemsz     = 40
	phEntrySize = 56
)

// Parser implements Loader for 64-bit little-endian ELF executables
// (RV64's ABI), reading only the ELF header and PT_LOAD program headers.
type Parser struct{}

var _ Loader = Parser{}

// Load parses data as a 64-bit LE ELF image.
func (Parser) Load(data []byte) (*Image, error) {
	if len(data) < ehSize || string(data[:4]) != "\x7fELF" {
		return nil, fmt.Errorf("elf: not an ELF image")
	}
	if data[4] != 2 {
		return nil, fmt.Errorf("elf: only 64-bit images are supported")
	}
	if data[5] != 1 {
		return nil, fmt.Errorf("elf: only little-endian images are supported")
	}

	entry := binary.LittleEndian.Uint64(data[ehEntryOff:])
	phoff := binary.LittleEndian.Uint64(data[ehPhoffOff:])
	phentsize := binary.LittleEndian.Uint16(data[ehPhentszOff:])
	phnum := binary.LittleEndian.Uint16(data[ehPhnumOff:])

	img := &Image{Entry: mem.VirtAddr(entry)}
	var maxEnd uint64

	for i := uint16(0); i < phnum; i++ {
		base := phoff + uint64(i)*uint64(phentsize)
		if base+phEntrySize > uint64(len(data)) {
			return nil, fmt.Errorf("elf: program header %d out of bounds", i)
		}
		ph := data[base:]
		typ := binary.LittleEndian.Uint32(ph[phTypeOff:])
		if typ != ptLoad {
			continue
		}
		flags := binary.LittleEndian.Uint32(ph[phFlagsOff:])
		offset := binary.LittleEndian.Uint64(ph[phOffsetOff:])
		vaddr := binary.LittleEndian.Uint64(ph[phVAddrOff:])
		filesz := binary.LittleEndian.Uint64(ph[phFilesz:])
		memsz := binary.LittleEndian.Uint64(ph[phMemsz:])

		if offset+filesz > uint64(len(data)) {
			return nil, fmt.Errorf("elf: segment %d data out of bounds", i)
		}

		var segFlags SegmentFlag
		if flags&pfExec != 0 {
			segFlags |= FlagExec
		}
		if flags&pfWrite != 0 {
			segFlags |= FlagWrite
		}
		if flags&pfRead != 0 {
			segFlags |= FlagRead
		}

		img.Segments = append(img.Segments, Segment{
			VirtAddr: mem.VirtAddr(vaddr),
			Data:     data[offset : offset+filesz],
			MemSize:  memsz,
			Flags:    segFlags,
		})

		if end := vaddr + memsz; end > maxEnd {
			maxEnd = end
		}
	}

	img.BaseSize = maxEnd
	return img, nil
}
