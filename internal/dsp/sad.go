package dsp

func sadGeneric(a []byte, aOff, aStride int, b []byte, w, h int) int {
	sad := 0
	for y := 0; y < h; y++ {
		ra := a[aOff+y*aStride : aOff+y*aStride+w]
		rb := b[y*BPS : y*BPS+w]
		for x := range ra {
			sad += abs(int(ra[x]) - int(rb[x]))
		}
	}
	return sad
}

func sad8x8Generic(a []byte, aOff, aStride int, b []byte, sad *[4]int) int {
	sad[0] = sadGeneric(a, aOff, aStride, b, 8, 8)
	sad[1] = sadGeneric(a, aOff+8, aStride, b[8:], 8, 8)
	sad[2] = sadGeneric(a, aOff+8*aStride, aStride, b[8*BPS:], 8, 8)
	sad[3] = sadGeneric(a, aOff+8*aStride+8, aStride, b[8*BPS+8:], 8, 8)
	return sad[0] + sad[1] + sad[2] + sad[3]
}

// sad8 returns the SAD of two 8-pixel rows packed little-endian.
func sad8(x, y uint64) int {
	s := 0
	for k := 0; k < 64; k += 8 {
		s += abs(int(x>>k&0xff) - int(y>>k&0xff))
	}
	return s
}

func sadWide(a []byte, aOff, aStride int, b []byte, w, h int) int {
	if w&7 != 0 {
		return sadGeneric(a, aOff, aStride, b, w, h)
	}
	sad := 0
	for y := 0; y < h; y++ {
		pa := aOff + y*aStride
		pb := y * BPS
		for x := 0; x < w; x += 8 {
			sad += sad8(le64(a[pa+x:]), le64(b[pb+x:]))
		}
	}
	return sad
}

func sad8x8Wide(a []byte, aOff, aStride int, b []byte, sad *[4]int) int {
	*sad = [4]int{}
	for y := 0; y < 16; y++ {
		pa := aOff + y*aStride
		pb := y * BPS
		q := y >> 3 << 1
		sad[q] += sad8(le64(a[pa:]), le64(b[pb:]))
		sad[q+1] += sad8(le64(a[pa+8:]), le64(b[pb+8:]))
	}
	return sad[0] + sad[1] + sad[2] + sad[3]
}
