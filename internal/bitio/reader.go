package bitio

import "encoding/binary"

const (
	// maxNumBitRead is the largest field ReadBits accepts.
	maxNumBitRead = 32
	// lBits is the size of the prefetch register.
	lBits = 64
)

// Reader reads MSB-first fields and Exp-Golomb codes from an RBSP.
//
// The next unread bit is the top bit of val; nbits counts the valid bits
// of val, refilled a byte at a time from buf.
type Reader struct {
	val   uint64
	nbits int
	buf   []byte
	pos   int
	eos   bool
}

// NewReader returns a Reader over data, which must already have its
// emulation prevention bytes removed.
func NewReader(data []byte) *Reader {
	r := &Reader{buf: data}
	r.fill()
	return r
}

// fill tops up val to at least 56 valid bits while input remains.
func (r *Reader) fill() {
	if r.nbits <= lBits-32 && r.pos+4 <= len(r.buf) {
		r.val |= uint64(binary.BigEndian.Uint32(r.buf[r.pos:])) << uint(lBits-32-r.nbits)
		r.pos += 4
		r.nbits += 32
	}
	for r.nbits <= lBits-8 && r.pos < len(r.buf) {
		r.val |= uint64(r.buf[r.pos]) << uint(lBits-8-r.nbits)
		r.pos++
		r.nbits += 8
	}
}

// ReadBits reads an n-bit (0..32) unsigned field. Reading past the end
// returns zero bits and sets the end-of-stream flag.
func (r *Reader) ReadBits(n int) uint32 {
	if n == 0 {
		return 0
	}
	if n < 0 || n > maxNumBitRead {
		r.eos = true
		return 0
	}
	if n > r.nbits {
		r.eos = true
	}
	v := uint32(r.val >> uint(lBits-n))
	r.val <<= uint(n)
	r.nbits = max(r.nbits-n, 0)
	r.fill()
	return v
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() uint32 {
	return r.ReadBits(1)
}

// ReadUE reads an unsigned Exp-Golomb code.
func (r *Reader) ReadUE() uint32 {
	zeros := 0
	for r.ReadBit() == 0 {
		if r.eos || zeros == 31 {
			r.eos = true
			return 0
		}
		zeros++
	}
	return (1<<uint(zeros) - 1) + r.ReadBits(zeros)
}

// ReadSE reads a signed Exp-Golomb code.
func (r *Reader) ReadSE() int32 {
	k := r.ReadUE()
	if k&1 != 0 {
		return int32((k + 1) >> 1)
	}
	return -int32(k >> 1)
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	return r.nbits + 8*(len(r.buf)-r.pos)
}

// MoreRBSPData reports whether anything other than the rbsp trailing bits
// remains.
func (r *Reader) MoreRBSPData() bool {
	n := r.BitsLeft()
	if n <= 0 {
		return false
	}
	// Trailing bits are a one followed by zeros up to the last byte.
	last := len(r.buf) - 1
	for last >= 0 && r.buf[last] == 0 {
		last--
	}
	if last < 0 {
		return false
	}
	stop := 8*last + 7
	for b := r.buf[last]; b&1 == 0; b >>= 1 {
		stop--
	}
	return 8*len(r.buf)-n < stop
}

// IsEndOfStream reports whether a read went past the end of the data.
func (r *Reader) IsEndOfStream() bool {
	return r.eos
}
