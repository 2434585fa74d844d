// Package buffer provides a sequential, offset-tracking reader over a byte
// slice, used by the protocol parsers to walk binary payloads.
package buffer

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrOutOfRange is latched by a Reader when a read runs past the end of the
// underlying data. Once latched, every later read returns a zero value.
var ErrOutOfRange = errors.New("read out of range")

// Reader walks a byte slice sequentially. All fixed-width reads use the
// configured byte order (little-endian unless changed with SetOrder).
//
// A read past the end of the data does not panic: it latches ErrOutOfRange
// and returns zero values from then on. Callers check Err once after a parse
// sequence instead of after every read.
type Reader struct {
	order binary.ByteOrder
	err   error
	data  []byte
	pos   int
}

// NewReader returns a little-endian Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, order: binary.LittleEndian}
}

// SetOrder changes the byte order used by fixed-width reads.
func (r *Reader) SetOrder(order binary.ByteOrder) {
	r.order = order
}

// Err returns the latched read error, or nil if every read so far was in range.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Seek moves the read offset to an absolute position.
func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > len(r.data) {
		r.err = ErrOutOfRange
		return
	}
	r.pos = pos
}

// Skip advances the read offset by n bytes.
func (r *Reader) Skip(n int) {
	r.Seek(r.pos + n)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Bytes consumes and returns n bytes starting at the current offset. The
// returned slice aliases the underlying data; callers must not modify it.
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.data) {
		r.err = ErrOutOfRange
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Rest consumes and returns every unread byte.
func (r *Reader) Rest() []byte {
	return r.Bytes(r.Remaining())
}

// Peek returns n bytes at the current offset without advancing. It returns
// nil, without latching an error, when fewer than n bytes remain.
func (r *Reader) Peek(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.data) {
		return nil
	}
	return r.data[r.pos : r.pos+n]
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() uint8 {
	b := r.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() int8 {
	return int8(r.ReadUint8())
}

// ReadUint16 reads a 16-bit unsigned integer.
func (r *Reader) ReadUint16() uint16 {
	b := r.Bytes(2)
	if b == nil {
		return 0
	}
	return r.order.Uint16(b)
}

// ReadInt16 reads a 16-bit signed integer.
func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// ReadUint32 reads a 32-bit unsigned integer.
func (r *Reader) ReadUint32() uint32 {
	b := r.Bytes(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

// ReadInt32 reads a 32-bit signed integer.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadUint64 reads a 64-bit unsigned integer.
func (r *Reader) ReadUint64() uint64 {
	b := r.Bytes(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

// ReadInt64 reads a 64-bit signed integer.
func (r *Reader) ReadInt64() int64 {
	return int64(r.ReadUint64())
}

// ReadFloat32 reads a 32-bit IEEE 754 float.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadFloat64 reads a 64-bit IEEE 754 float.
func (r *Reader) ReadFloat64() float64 {
	return math.Float64frombits(r.ReadUint64())
}

// ReadString reads a null-terminated string and advances past the
// terminator. A missing terminator latches ErrOutOfRange.
func (r *Reader) ReadString() string {
	if r.err != nil {
		return ""
	}
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s
		}
	}
	r.err = ErrOutOfRange
	return ""
}

// TryReadString reads a null-terminated string, reporting false instead of
// latching an error when no terminator remains.
func (r *Reader) TryReadString() (string, bool) {
	if r.err != nil {
		return "", false
	}
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s, true
		}
	}
	return "", false
}
