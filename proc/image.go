package proc

import (
	"bytes"
	"encoding/binary"
)

// Executable image format: a 64-byte header followed by 56-byte segment
// headers, little-endian, the ELF64 layout restricted to what the
// loader understands.

const (
	headerSize  = 64
	phdrSize    = 56
	maxSegments = 1024

	imageType    = 2    // executable
	imageMachine = 0x3e // x86-64
	ptLoad       = 1
	pfWrite      = 2
)

var imageMagic = []byte{0x7f, 'E', 'L', 'F', 2, 1, 1}

type header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type phdr struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func (h *header) valid() bool {
	return bytes.Equal(h.Ident[:len(imageMagic)], imageMagic) &&
		h.Type == imageType &&
		h.Machine == imageMachine &&
		h.Phentsize == phdrSize &&
		h.Phnum <= maxSegments
}

// segment is one loadable region handed to the image builder.
type segment struct {
	vaddr    uintptr
	data     []byte
	memsz    int
	writable bool
}

// ImageBuilder assembles executable images. Tests and programs use it
// both to produce valid images and, by corrupting the output, malformed
// ones.
type ImageBuilder struct {
	entry uintptr
	segs  []segment
}

// NewImage starts an image whose entry point is entry.
func NewImage(entry uintptr) *ImageBuilder {
	return &ImageBuilder{entry: entry}
}

// Segment adds a loadable segment backed by data, occupying memsz bytes
// at vaddr. The tail past len(data) is zero-filled at load time.
func (b *ImageBuilder) Segment(vaddr uintptr, data []byte, memsz int, writable bool) *ImageBuilder {
	b.segs = append(b.segs, segment{vaddr: vaddr, data: data, memsz: memsz, writable: writable})
	return b
}

// Build serializes the image.
func (b *ImageBuilder) Build() []byte {
	h := header{
		Type:      imageType,
		Machine:   imageMachine,
		Version:   1,
		Entry:     uint64(b.entry),
		Phoff:     headerSize,
		Ehsize:    headerSize,
		Phentsize: phdrSize,
		Phnum:     uint16(len(b.segs)),
	}
	copy(h.Ident[:], imageMagic)

	// Segment contents follow the headers, page-offset aligned with
	// their virtual addresses so the loader's congruence check holds.
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &h)

	off := uint64(headerSize + phdrSize*len(b.segs))
	offs := make([]uint64, len(b.segs))
	for i, s := range b.segs {
		pad := (uint64(s.vaddr) - off) % pageSize
		off += pad
		offs[i] = off
		off += uint64(len(s.data))
	}
	for i, s := range b.segs {
		flags := uint32(0)
		if s.writable {
			flags |= pfWrite
		}
		binary.Write(&buf, binary.LittleEndian, &phdr{
			Type:   ptLoad,
			Flags:  flags,
			Off:    offs[i],
			Vaddr:  uint64(s.vaddr),
			Filesz: uint64(len(s.data)),
			Memsz:  uint64(s.memsz),
			Align:  pageSize,
		})
	}
	for i, s := range b.segs {
		buf.Write(make([]byte, offs[i]-uint64(buf.Len())))
		buf.Write(s.data)
	}
	return buf.Bytes()
}
