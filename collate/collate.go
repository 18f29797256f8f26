package collate

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Tag bytes identify the type of the next field. They only need to be
// distinct and self-delimiting for the shapes this package actually
// produces (array[double, map, string]); they are not meant to match any
// other Collatable implementation's tag values.
const (
	tagArray  byte = 0xA0
	tagDouble byte = 0xD0
	tagMap    byte = 0xC0
	tagString byte = 0xE0
)

// Builder accumulates a Collatable-encoded byte sequence. The zero value is
// ready to use.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) BeginArray() *Builder {
	b.buf = append(b.buf, tagArray)
	return b
}

// WriteDouble appends a float64 encoded so that bytewise comparison of the
// encoded bytes matches numeric comparison of the original values (NaN is
// not supported). This is the classic order-preserving float encoding: flip
// the sign bit for positive values, flip every bit for negative ones, then
// store the result big-endian.
func (b *Builder) WriteDouble(v float64) *Builder {
	bits := math.Float64bits(v)
	if v < 0 || (v == 0 && math.Signbit(v)) {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], bits)
	b.buf = append(b.buf, tagDouble)
	b.buf = append(b.buf, enc[:]...)
	return b
}

// WriteEmptyMap appends the reserved empty-map placeholder.
func (b *Builder) WriteEmptyMap() *Builder {
	b.buf = append(b.buf, tagMap)
	return b
}

// WriteString appends a string field. Must be the last field written: the
// reader recovers a string's content by taking every byte after its tag to
// the end of the buffer, so a string cannot be safely followed by more
// fields without a length prefix this format intentionally omits.
func (b *Builder) WriteString(s string) *Builder {
	b.buf = append(b.buf, tagString)
	b.buf = append(b.buf, s...)
	return b
}

// Bytes returns the encoded byte sequence built so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Reader parses a Collatable-encoded byte sequence produced by Builder.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for parsing. buf is not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) expectTag(want byte) error {
	if r.pos >= len(r.buf) {
		return errors.New("collate: unexpected end of buffer")
	}
	got := r.buf[r.pos]
	if got != want {
		return errors.Newf("collate: expected tag 0x%02x, got 0x%02x", want, got)
	}
	r.pos++
	return nil
}

func (r *Reader) SkipArray() error {
	return r.expectTag(tagArray)
}

// ReadDouble reads a double field, undoing Builder.WriteDouble's bit flip.
func (r *Reader) ReadDouble() (float64, error) {
	if err := r.expectTag(tagDouble); err != nil {
		return 0, err
	}
	if r.pos+8 > len(r.buf) {
		return 0, errors.New("collate: truncated double field")
	}
	bits := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

func (r *Reader) SkipEmptyMap() error {
	return r.expectTag(tagMap)
}

// ReadString consumes the string tag and returns every remaining byte as
// the string's content (see Builder.WriteString).
func (r *Reader) ReadString() (string, error) {
	if err := r.expectTag(tagString); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos:])
	r.pos = len(r.buf)
	return s, nil
}
