package bitio

import "encoding/binary"

// wordBits is the width of the bit cache.
const wordBits = 32

// Writer packs bits MSB-first into a 32-bit cache and stores full words in
// big-endian order, so the backing buffer reads as a plain byte stream.
//
// The backing buffer is sized by the caller; the writer never grows it.
// Writing past its end panics, which signals a sizing bug in the caller.
type Writer struct {
	buf   []byte
	pos   int // byte offset of the word the cache will be stored to
	cache uint32
	shift int // free bits remaining in cache
}

// NewWriter returns a Writer that stores into buf.
func NewWriter(buf []byte) *Writer {
	w := &Writer{}
	w.Reset(buf)
	return w
}

// Reset rewinds the writer to the start of buf.
func (w *Writer) Reset(buf []byte) {
	w.buf = buf
	w.pos = 0
	w.cache = 0
	w.shift = wordBits
}

// PutBits appends the low n bits of val (n <= 32). Bits of val above n must
// be zero.
func (w *Writer) PutBits(n int, val uint32) {
	w.shift -= n
	if w.shift < 0 {
		w.cache |= val >> uint(-w.shift)
		binary.BigEndian.PutUint32(w.buf[w.pos:], w.cache)
		w.pos += 4
		w.shift += wordBits
		w.cache = 0
	}
	w.cache |= val << uint(w.shift)
}

// PutBit appends a single bit.
func (w *Writer) PutBit(b uint32) {
	w.PutBits(1, b)
}

// PutUE appends v as an unsigned Exp-Golomb code:
//
//	0 => 1, 1 => 010, 2 => 011, 3 => 00100, ...
func (w *Writer) PutUE(v uint32) {
	w.PutBits(2*UESize(v)-1, v+1)
}

// PutSE appends v as a signed Exp-Golomb code. Values map to the unsigned
// sequence 0, 1, -1, 2, -2, ...
func (w *Writer) PutSE(v int32) {
	u := 2*v - 1
	u ^= u >> 31
	w.PutUE(uint32(u))
}

// UESize returns the number of bits in the info part of the Exp-Golomb code
// of v plus one, i.e. bit length of v+1. The full code is 2*UESize(v)-1 bits.
func UESize(v uint32) int {
	size := 0
	t := v + 1
	for t != 0 {
		size++
		t >>= 1
	}
	return size
}

// UEBits returns the length in bits of the unsigned Exp-Golomb code of v.
func UEBits(v int) int {
	return 2*UESize(uint32(v)) - 1
}

// SEBits returns the length in bits of the signed Exp-Golomb code of v.
func SEBits(v int) int {
	u := 2*v - 1
	if u < 0 {
		u = ^u
	}
	return UEBits(u)
}

// BitPos returns the number of bits written so far.
func (w *Writer) BitPos() int {
	return w.pos*8 + wordBits - w.shift
}

// ByteAlign pads with zero bits up to the next byte boundary and returns the
// aligned bit position.
func (w *Writer) ByteAlign() int {
	pos := w.BitPos()
	pad := -pos & 7
	w.PutBits(pad, 0)
	return pos + pad
}

// Flush stores the partially filled cache word. It does not advance the
// write position, so more bits may follow.
func (w *Writer) Flush() {
	binary.BigEndian.PutUint32(w.buf[w.pos:], w.cache)
}

// Bytes returns the bytes written so far, rounded up to a whole byte. Call
// Flush first when the last word is incomplete.
func (w *Writer) Bytes() []byte {
	return w.buf[:(w.BitPos()+7)>>3]
}
