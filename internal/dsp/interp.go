package dsp

// Sub-pel interpolation. Luma positions are in quarter pels, chroma in
// eighth pels. Every destination has stride BPS; sources are addressed as
// (buf, off) so the filters may read the guard band around off.

// tap6 applies the (1, -5, 20, 20, -5, 1) half-pel filter to p[i], p[i+s], ...
func tap6(p []byte, i, s int) int {
	return int(p[i]) - 5*int(p[i+s]) + 20*int(p[i+2*s]) + 20*int(p[i+3*s]) - 5*int(p[i+4*s]) + int(p[i+5*s])
}

func hpelHor(src []byte, off, stride int, dst []byte, w, h int) {
	for y := 0; y < h; y++ {
		row := off + y*stride - 2
		for x := 0; x < w; x++ {
			dst[y*BPS+x] = Clip8((tap6(src, row+x, 1) + 16) >> 5)
		}
	}
}

func hpelVer(src []byte, off, stride int, dst []byte, w, h int) {
	for y := 0; y < h; y++ {
		row := off + (y-2)*stride
		for x := 0; x < w; x++ {
			dst[y*BPS+x] = Clip8((tap6(src, row+x, stride) + 16) >> 5)
		}
	}
}

func hpelDiag(src []byte, off, stride int, dst []byte, w, h int) {
	var tmp [21 * 16]int16
	for y := 0; y < h+5; y++ {
		row := off + (y-2)*stride - 2
		for x := 0; x < w; x++ {
			tmp[y*w+x] = int16(tap6(src, row+x, 1))
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			v := int(tmp[p]) - 5*int(tmp[p+w]) + 20*int(tmp[p+2*w]) +
				20*int(tmp[p+3*w]) - 5*int(tmp[p+4*w]) + int(tmp[p+5*w])
			dst[y*BPS+x] = Clip8((v + 512) >> 10)
		}
	}
}

// InterpolateLuma predicts a w x h luma block at quarter-pel fraction
// (dx, dy) in [0,3] from the full-pel position off of src.
func InterpolateLuma(src []byte, off, stride int, dst []byte, w, h, dx, dy int) {
	// Bit n of pos marks fraction n = dx + 4*dy. Each mask lists the
	// fractions needing that half-pel plane.
	pos := 1 << uint(dx+4*dy)
	if pos == 1 {
		Copy(dst, 0, BPS, src, off, stride, w, h)
		return
	}
	var tmp [16 * BPS]byte
	used := 0
	out := func() []byte {
		used++
		if used == 1 {
			return dst
		}
		return tmp[:]
	}
	if pos&0xe0ee != 0 {
		o := off
		if pos&0xe000 != 0 {
			o += stride
		}
		hpelHor(src, o, stride, out(), w, h)
	}
	if pos&0xbbb0 != 0 {
		o := off
		if pos&0x8880 != 0 {
			o++
		}
		hpelVer(src, o, stride, out(), w, h)
	}
	if pos&0x4e40 != 0 {
		hpelDiag(src, off, stride, out(), w, h)
	}
	if pos&0xfafa == 0 {
		return
	}
	if used == 2 {
		Average(tmp[:], dst, dst, w, h)
		return
	}
	// Quarter position between a half-pel plane and the nearest full pel.
	o := off + (dx+1)>>2 + ((dy+1)>>2)*stride
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*BPS + x
			dst[p] = byte((int(dst[p]) + int(src[o+y*stride+x]) + 1) >> 1)
		}
	}
}

// InterpolateChroma predicts a w x h chroma block at eighth-pel fraction
// (dx, dy) in [0,7] using bilinear weights.
func InterpolateChroma(src []byte, off, stride int, dst []byte, w, h, dx, dy int) {
	if dx == 0 && dy == 0 {
		Copy(dst, 0, BPS, src, off, stride, w, h)
		return
	}
	a := (8 - dx) * (8 - dy)
	b := dx * (8 - dy)
	c := (8 - dx) * dy
	d := dx * dy
	for y := 0; y < h; y++ {
		r0 := off + y*stride
		r1 := r0 + stride
		for x := 0; x < w; x++ {
			v := a*int(src[r0+x]) + b*int(src[r0+x+1]) + c*int(src[r1+x]) + d*int(src[r1+x+1])
			dst[y*BPS+x] = byte((v + 32) >> 6)
		}
	}
}

func averageGeneric(a, b, dst []byte, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*BPS + x
			dst[p] = byte((int(a[p]) + int(b[p]) + 1) >> 1)
		}
	}
}

// averageWide averages eight pixels per step with the carry-free identity
// (a+b+1)>>1 == (a|b) - ((a^b)>>1), applied bytewise.
func averageWide(a, b, dst []byte, w, h int) {
	if w&7 != 0 {
		averageGeneric(a, b, dst, w, h)
		return
	}
	const lo7 = 0x7f7f7f7f7f7f7f7f
	for y := 0; y < h; y++ {
		for x := 0; x < w; x += 8 {
			p := y*BPS + x
			u := le64(a[p:])
			v := le64(b[p:])
			putLE64(dst[p:], (u|v)-((u^v)>>1&lo7))
		}
	}
}
