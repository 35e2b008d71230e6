package binstream

import (
	"encoding/binary"
	"errors"
)

var (
	ErrStreamEOF     = errors.New("binstream: unexpected end of data")
	ErrStreamOverrun = errors.New("binstream: value too large")
)

// Stream reads section data using little-endian fixed-width fields and the
// ULEB128/SLEB128 variable-length encodings used by ELF/DWARF/
// SHT_LLVM_BB_ADDR_MAP section formats.
type Stream struct {
	data []byte
	pos  int
	end  int
}

// NewStream creates a stream over the given data.
func NewStream(data []byte) *Stream {
	return &Stream{data: data, pos: 0, end: len(data)}
}

// NewStreamAt creates a stream starting at offset within data.
func NewStreamAt(data []byte, offset int) *Stream {
	if offset > len(data) {
		offset = len(data)
	}
	return &Stream{data: data, pos: offset, end: len(data)}
}

// Position returns the current read position.
func (s *Stream) Position() int { return s.pos }

// SetPosition sets the read position, clamped to the stream's end.
func (s *Stream) SetPosition(pos int) {
	if pos > s.end {
		pos = s.end
	}
	s.pos = pos
}

// Remaining returns the number of bytes left to read.
func (s *Stream) Remaining() int { return s.end - s.pos }

// ReadByte reads a single byte.
func (s *Stream) ReadByte() (byte, error) {
	if s.pos >= s.end {
		return 0, ErrStreamEOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 || s.pos+n > s.end {
		return nil, ErrStreamEOF
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// ReadUint32 reads a little-endian uint32.
func (s *Stream) ReadUint32() (uint32, error) {
	if s.pos+4 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (s *Stream) ReadUint64() (uint64, error) {
	if s.pos+8 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint64(s.data[s.pos:])
	s.pos += 8
	return v, nil
}

// maxULEB128Bytes bounds the number of bytes a single ULEB128/SLEB128
// value may consume; anything longer than this for a 64-bit value is
// malformed input, not a legitimate encoding.
const maxULEB128Bytes = 10

// ReadULEB128 reads an LLVM/DWARF-style unsigned little-endian base-128
// varint: 7 data bits per byte, high bit set means "more bytes follow".
func (s *Stream) ReadULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxULEB128Bytes; i++ {
		b, err := s.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrStreamOverrun
}

// ReadSLEB128 reads a DWARF-style signed little-endian base-128 varint.
func (s *Stream) ReadSLEB128() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for i := 0; i < maxULEB128Bytes; i++ {
		b, err = s.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if b&0x80 != 0 {
		return 0, ErrStreamOverrun
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}
