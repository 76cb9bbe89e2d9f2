package bitio

// StartCode is the 4-byte Annex-B start code written before every NAL unit.
var StartCode = [4]byte{0, 0, 0, 1}

// NALWriter assembles Annex-B NAL units into a fixed output region.
//
// Payload bits are produced by an embedded Writer over a separate,
// word-aligned payload region. End appends the rbsp trailing bits and copies
// the payload behind the start code, inserting emulation prevention bytes.
type NALWriter struct {
	out     []byte
	n       int
	payload []byte
	bs      Writer
}

// NewNALWriter returns a NALWriter emitting into out and staging payloads in
// payload. A payload region the size of out is always sufficient.
func NewNALWriter(out, payload []byte) *NALWriter {
	return &NALWriter{out: out, payload: payload}
}

// Reset discards all emitted NAL units.
func (nw *NALWriter) Reset() {
	nw.n = 0
}

// Start writes a start code, primes the payload writer and emits the NAL
// header byte. The returned Writer is valid until End.
func (nw *NALWriter) Start(header byte) *Writer {
	if nw.n+len(StartCode) > len(nw.out) {
		panic("bitio: NAL output buffer overrun")
	}
	nw.n += copy(nw.out[nw.n:], StartCode[:])
	nw.bs.Reset(nw.payload)
	nw.bs.PutBits(8, uint32(header))
	return &nw.bs
}

// Bits returns the payload writer of the NAL unit in progress.
func (nw *NALWriter) Bits() *Writer {
	return &nw.bs
}

// End appends the stop bit, byte-aligns and flushes the payload, then copies
// it into the output with emulation prevention applied.
func (nw *NALWriter) End() {
	nw.bs.PutBit(1)
	size := nw.bs.ByteAlign() >> 3
	nw.bs.Flush()
	src := nw.payload[:size]

	esc := CountEscapes(src)
	if nw.n+size+esc > len(nw.out) {
		panic("bitio: NAL output buffer overrun")
	}
	nw.n += PutEscaped(nw.out[nw.n:], src)
}

// Len returns the number of bytes emitted so far.
func (nw *NALWriter) Len() int {
	return nw.n
}

// Bytes returns all NAL units emitted since the last Reset.
func (nw *NALWriter) Bytes() []byte {
	return nw.out[:nw.n]
}

// CountEscapes returns how many emulation prevention bytes PutEscaped would
// insert into s.
func CountEscapes(s []byte) int {
	cnt, zeros := 0, 0
	for _, b := range s {
		if zeros == 2 && b <= 3 {
			cnt++
			zeros = 0
		}
		if b != 0 {
			zeros = 0
		} else {
			zeros++
		}
	}
	return cnt
}

// PutEscaped copies s into d, inserting 0x03 after every 00 00 pair that is
// followed by a byte <= 3. d must hold len(s)+CountEscapes(s) bytes. It
// returns the number of bytes written.
func PutEscaped(d, s []byte) int {
	j, zeros := 0, 0
	for _, b := range s {
		if zeros == 2 && b <= 3 {
			d[j] = 3
			j++
			zeros = 0
		}
		if b != 0 {
			zeros = 0
		} else {
			zeros++
		}
		d[j] = b
		j++
	}
	return j
}
