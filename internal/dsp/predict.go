package dsp

// Intra prediction. Unavailable neighbours are passed as nil slices.

// Luma 16x16 and chroma prediction modes, numbered as luma 16x16 modes.
// Chroma syntax numbers DC and vertical the other way round.
const (
	PredVertical   = 0
	PredHorizontal = 1
	PredDC         = 2
	PredPlane      = 3
)

// PredictDC returns the rounded mean of the available edges, each holding
// 1<<logSide samples, or 128 when none is available.
func PredictDC(left, top []byte, logSide uint) byte {
	side := 1 << logSide
	dc, round := 0, 0
	for _, e := range [2][]byte{left, top} {
		if e == nil {
			continue
		}
		round += side >> 1
		for _, v := range e[:side] {
			dc += int(v)
		}
	}
	if round == 0 {
		return 128
	}
	dc += round
	if round == side {
		dc >>= 1
	}
	return byte(dc >> logSide)
}

func fill(dst []byte, off, w, h int, v byte) {
	for y := 0; y < h; y++ {
		row := dst[off+y*BPS : off+y*BPS+w]
		for x := range row {
			row[x] = v
		}
	}
}

// Predict16x16 writes the 16x16 luma prediction for mode into dst.
func Predict16x16(dst []byte, left, top []byte, topLeft byte, mode int) {
	switch mode {
	case PredVertical:
		for y := 0; y < 16; y++ {
			copy(dst[y*BPS:y*BPS+16], top)
		}
	case PredHorizontal:
		for y := 0; y < 16; y++ {
			fill(dst, y*BPS, 16, 1, left[y])
		}
	case PredPlane:
		predictPlane(dst, 0, left, top, topLeft, 16)
	default:
		fill(dst, 0, 16, 16, PredictDC(left, top, 4))
	}
}

// PredictChroma writes the U (columns 0-7) and V (columns 8-15) prediction
// for mode. left and top hold the U edge followed by the V edge.
func PredictChroma(dst []byte, left, top []byte, topLeft [2]byte, mode int) {
	for c := 0; c < 2; c++ {
		var l, t []byte
		if left != nil {
			l = left[8*c : 8*c+8]
		}
		if top != nil {
			t = top[8*c : 8*c+8]
		}
		off := 8 * c
		switch mode {
		case PredVertical:
			for y := 0; y < 8; y++ {
				copy(dst[off+y*BPS:off+y*BPS+8], t)
			}
		case PredHorizontal:
			for y := 0; y < 8; y++ {
				fill(dst, off+y*BPS, 8, 1, l[y])
			}
		case PredPlane:
			predictPlane(dst, off, l, t, topLeft[c], 8)
		default:
			predictChromaDC(dst, off, l, t)
		}
	}
}

// predictChromaDC predicts each 4x4 quarter of an 8x8 chroma block. The
// top-right quarter prefers the top edge and the bottom-left one the left
// edge.
func predictChromaDC(dst []byte, off int, l, t []byte) {
	half := func(e []byte, i int) []byte {
		if e == nil {
			return nil
		}
		return e[i : i+4]
	}
	dc00 := PredictDC(half(l, 0), half(t, 0), 2)
	dc10, dc01 := dc00, dc00
	if t != nil {
		dc10 = PredictDC(nil, half(t, 4), 2)
	}
	if l != nil {
		dc01 = PredictDC(nil, half(l, 4), 2)
	}
	dc11 := PredictDC(half(l, 4), half(t, 4), 2)
	fill(dst, off, 4, 4, dc00)
	fill(dst, off+4, 4, 4, dc10)
	fill(dst, off+4*BPS, 4, 4, dc01)
	fill(dst, off+4*BPS+4, 4, 4, dc11)
}

// predictPlane fits a gradient plane through the edges of an n x n block
// (n is 16 for luma and 8 for chroma).
func predictPlane(dst []byte, off int, left, top []byte, topLeft byte, n int) {
	at := func(e []byte, i int) int {
		if i < 0 {
			return int(topLeft)
		}
		return int(e[i])
	}
	half := n >> 1
	hs, vs := 0, 0
	for i := 0; i < half; i++ {
		hs += (i + 1) * (at(top, half+i) - at(top, half-2-i))
		vs += (i + 1) * (at(left, half+i) - at(left, half-2-i))
	}
	a := 16 * (int(left[n-1]) + int(top[n-1]))
	var b, c int
	if n == 16 {
		b = (5*hs + 32) >> 6
		c = (5*vs + 32) >> 6
	} else {
		b = (34*hs + 32) >> 6
		c = (34*vs + 32) >> 6
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dst[off+y*BPS+x] = Clip8((a + b*(x-half+1) + c*(y-half+1) + 16) >> 5)
		}
	}
}

// Edge4 holds the reconstructed neighbours of a 4x4 block: the corner, the
// eight pixels above (four of them above-right) and the four to the left.
type Edge4 struct {
	TL byte
	T  [8]byte
	L  [4]byte
}

// at returns the neighbour at (x, y) relative to the block, where exactly
// one of x and y is -1.
func (e *Edge4) at(x, y int) int {
	switch {
	case y < 0 && x < 0:
		return int(e.TL)
	case y < 0:
		return int(e.T[x])
	default:
		return int(e.L[y])
	}
}

// Intra 4x4 modes.
const (
	I4Vertical = iota
	I4Horizontal
	I4DC
	I4DiagDownLeft
	I4DiagDownRight
	I4VerticalRight
	I4HorizontalDown
	I4VerticalLeft
	I4HorizontalUp
)

func predict4(p *[16]byte, e *Edge4, mode int, dc byte) {
	avg2 := func(a, b int) byte { return byte((a + b + 1) >> 1) }
	avg3 := func(a, b, c int) byte { return byte((a + 2*b + c + 2) >> 2) }
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			var v byte
			switch mode {
			case I4Vertical:
				v = e.T[x]
			case I4Horizontal:
				v = e.L[y]
			case I4DC:
				v = dc
			case I4DiagDownLeft:
				if x == 3 && y == 3 {
					v = byte((int(e.T[6]) + 3*int(e.T[7]) + 2) >> 2)
				} else {
					v = avg3(e.at(x+y, -1), e.at(x+y+1, -1), e.at(x+y+2, -1))
				}
			case I4DiagDownRight:
				switch {
				case x > y:
					v = avg3(e.at(x-y-2, -1), e.at(x-y-1, -1), e.at(x-y, -1))
				case x < y:
					v = avg3(e.at(-1, y-x-2), e.at(-1, y-x-1), e.at(-1, y-x))
				default:
					v = avg3(e.at(0, -1), e.at(-1, -1), e.at(-1, 0))
				}
			case I4VerticalRight:
				z := 2*x - y
				k := x - y>>1
				switch {
				case z >= 0 && z&1 == 0:
					v = avg2(e.at(k-1, -1), e.at(k, -1))
				case z >= 0:
					v = avg3(e.at(k-2, -1), e.at(k-1, -1), e.at(k, -1))
				case z == -1:
					v = avg3(e.at(-1, 0), e.at(-1, -1), e.at(0, -1))
				default:
					v = avg3(e.at(-1, y-1), e.at(-1, y-2), e.at(-1, y-3))
				}
			case I4HorizontalDown:
				z := 2*y - x
				k := y - x>>1
				switch {
				case z >= 0 && z&1 == 0:
					v = avg2(e.at(-1, k-1), e.at(-1, k))
				case z >= 0:
					v = avg3(e.at(-1, k-2), e.at(-1, k-1), e.at(-1, k))
				case z == -1:
					v = avg3(e.at(-1, 0), e.at(-1, -1), e.at(0, -1))
				default:
					v = avg3(e.at(x-1, -1), e.at(x-2, -1), e.at(x-3, -1))
				}
			case I4VerticalLeft:
				k := x + y>>1
				if y&1 == 0 {
					v = avg2(e.at(k, -1), e.at(k+1, -1))
				} else {
					v = avg3(e.at(k, -1), e.at(k+1, -1), e.at(k+2, -1))
				}
			case I4HorizontalUp:
				z := x + 2*y
				k := y + x>>1
				switch {
				case z > 5:
					v = e.L[3]
				case z == 5:
					v = byte((int(e.L[2]) + 3*int(e.L[3]) + 2) >> 2)
				case z&1 == 0:
					v = avg2(e.at(-1, k), e.at(-1, k+1))
				default:
					v = avg3(e.at(-1, k), e.at(-1, k+1), e.at(-1, k+2))
				}
			}
			p[y*4+x] = v
		}
	}
}

func sad4(in []byte, p *[16]byte) int {
	s := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			s += abs(int(in[y*BPS+x]) - int(p[y*4+x]))
		}
	}
	return s
}

// Choose4x4 picks the intra 4x4 mode of the block at in (stride BPS) with
// the lowest SAD, adding penalty to every mode other than the predicted
// mode mpred. The winning prediction is written to pred (stride BPS).
// Modes are tried in a fixed order and a later mode must be strictly
// cheaper to win.
func Choose4x4(in, pred []byte, avail int, e *Edge4, mpred, penalty int) (mode, sad int) {
	var left, top []byte
	if avail&AvailL != 0 {
		left = e.L[:]
	}
	if avail&AvailT != 0 {
		top = e.T[:4]
	}
	dc := PredictDC(left, top, 2)

	var best, cand [16]byte
	test := func(m int) {
		predict4(&cand, e, m, dc)
		s := sad4(in, &cand)
		if m != mpred {
			s += penalty
		}
		if s < sad {
			sad, mode, best = s, m, cand
		}
	}
	mode, sad = I4DC, 1<<30
	test(I4DC)

	if avail&AvailT != 0 {
		saved := *e
		if avail&AvailTR == 0 {
			for i := 4; i < 8; i++ {
				e.T[i] = e.T[3]
			}
		}
		test(I4Vertical)
		test(I4DiagDownLeft)
		test(I4VerticalLeft)
		*e = saved
	}
	if avail&AvailL != 0 {
		test(I4Horizontal)
		test(I4HorizontalUp)
	}
	if avail&(AvailT|AvailL|AvailTL) == AvailT|AvailL|AvailTL {
		test(I4DiagDownRight)
		test(I4HorizontalDown)
		test(I4VerticalRight)
	}
	for y := 0; y < 4; y++ {
		copy(pred[y*BPS:y*BPS+4], best[y*4:y*4+4])
	}
	return mode, sad
}
