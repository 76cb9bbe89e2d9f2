package baseline

import (
	"github.com/deepteams/h264/internal/bitio"
	"github.com/deepteams/h264/internal/dsp"
)

// block2avail gives, for every raster 4x4 block, the macroblock
// neighbours it may use (low nibble) and the neighbours that always lie
// inside the macroblock (high nibble).
var block2avail = [16]uint8{
	0x07, 0x23, 0x23, 0x2b, 0x9b, 0x77, 0xff, 0x77,
	0x9b, 0xff, 0xff, 0x77, 0x9b, 0x77, 0xff, 0x77,
}

// edge4 gathers the reconstructed neighbours of 4x4 block (r, c) of the
// macroblock being reconstructed in work.
func (e *Encoder) edge4(work []byte, r, c int, ed *dsp.Edge4) {
	top := e.topLine[e.mbx*32:]
	if r == 0 {
		copy(ed.T[:4], top[4*c:])
		if c < 3 {
			copy(ed.T[4:], top[4*c+4:])
		} else {
			copy(ed.T[4:], e.topLine[(e.mbx+1)*32:])
		}
	} else {
		row := (4*r - 1) * dsp.BPS
		copy(ed.T[:4], work[row+4*c:])
		if c < 3 {
			copy(ed.T[4:], work[row+4*c+4:])
		} else {
			for i := 4; i < 8; i++ {
				ed.T[i] = ed.T[3]
			}
		}
	}
	for i := 0; i < 4; i++ {
		if c == 0 {
			ed.L[i] = e.leftLine[4*r+i]
		} else {
			ed.L[i] = work[(4*r+i)*dsp.BPS+4*c-1]
		}
	}
	switch {
	case r == 0 && c == 0:
		ed.TL = e.topLeft[0]
	case r == 0:
		ed.TL = top[4*c-1]
	case c == 0:
		ed.TL = e.leftLine[4*r-1]
	default:
		ed.TL = work[(4*r-1)*dsp.BPS+4*c-1]
	}
}

// chooseIntra4x4 predicts and reconstructs every 4x4 block in turn and
// takes the result when it is cheaper than the current decision. The
// reconstruction then goes straight to the decoded picture.
func (e *Encoder) chooseIntra4x4() {
	work := e.ptest
	cost := int(lambdaI4Q4[e.qp])
	penalty := 3 * int(lambdaQ4[e.qp]) >> 4
	ctxT := e.i4Top[e.mbx*4:]
	nzMask := 0
	var ed dsp.Edge4

	for n := 0; n < 16; n++ {
		r, c := n>>2, n&3
		b2a := int(block2avail[n])
		a := e.avail&b2a | b2a>>4
		if b2a&dsp.AvailTL == 0 {
			if (n <= 3 && e.avail&dsp.AvailT != 0) || (n > 3 && e.avail&dsp.AvailL != 0) {
				a |= dsp.AvailTL
			}
		}
		if n < 3 && e.avail&dsp.AvailT != 0 {
			a |= dsp.AvailTR
		}

		off := (4*r)*dsp.BPS + 4*c
		e.edge4(work, r, c, &ed)

		mpred := int(min(e.i4Left[r], ctxT[c]))
		if mpred < 0 {
			mpred = dsp.I4DC
		}
		mode, sad := dsp.Choose4x4(e.s.inp[off:], work[off:], a, &ed, mpred, penalty)

		e.i4Left[r], ctxT[c] = int8(mode), int8(mode)
		switch {
		case mode == mpred:
			e.mb.i4Modes[n] = -1
		case mode > mpred:
			e.mb.i4Modes[n] = int8(mode - 1)
		default:
			e.mb.i4Modes[n] = int8(mode)
		}

		nzMask <<= 1
		if sad > int(skipThrI4x4[e.qp]) {
			q := e.s.qy[n : n+1]
			nz := transformQuant(e.s.inp[:], off, dsp.BPS, work[off:], modeIntra4, q, nil, &e.quant[0])
			nzMask |= nz
			if nz != 0 {
				transformAdd(work, off, dsp.BPS, work[off:], q, 1, 0x80000000)
			}
		} else {
			e.s.qy[n] = quantBlock{}
		}
		cost += sad
	}
	e.s.nzMask = uint16(nzMask)

	if cost < e.mb.cost {
		e.mb.cost = cost
		e.mb.typ = mbI4x4
		y := &e.dec[0]
		dsp.Copy(y.Data, e.mbOffset(0), y.Stride, work, 0, dsp.BPS, 16, 16)
	}
}

// i16Valid lists the 16x16 modes usable for each T|L|TL combination.
var i16Valid = [8]int{4, 5, 6, 7, 4, 5, 6, 15}

// estimateIntra16x16 picks a 16x16 mode from the gradients across the
// corners and the middle of the input macroblock.
func estimateIntra16x16(p []byte, s, avail, qp int) int {
	p00, p01 := int(p[0]), int(p[15])
	p10, p11 := int(p[15*s]), int(p[15*s+15])
	v := i16Valid[avail&(dsp.AvailT|dsp.AvailL|dsp.AvailTL)]
	dx := abs(p00-p01) + abs(p10-p11) + abs(int(p[8*s])-int(p[8*s+15]))
	dy := abs(p00-p10) + abs(p01-p11) + abs(int(p[8])-int(p[15*s+8]))
	switch {
	case dx > 30+3*dy && dy < 150-qp && v&1 != 0:
		return dsp.PredVertical
	case dy > 30+3*dx && dx < 150-qp && v&2 != 0:
		return dsp.PredHorizontal
	}
	return dsp.PredDC
}

func (e *Encoder) intra16Cost(pred []byte, mode int) int {
	var sad4 [4]int
	lq := int(lambdaQ4[e.qp])
	return dsp.SAD8x8(e.s.inp[:], 0, dsp.BPS, pred, &sad4) +
		bitio.UEBits(mode+1)*lq>>4 + int(lambdaI16Q4[e.qp])
}

// chooseIntra16x16 evaluates the heuristic 16x16 mode and, at the slowest
// speed, plane prediction.
func (e *Encoder) chooseIntra16x16(left, top []byte) {
	mode := estimateIntra16x16(e.s.inp[:], dsp.BPS, e.avail, e.qp)
	dsp.Predict16x16(e.ptest, left, top, e.topLeft[0], mode)
	cost := e.intra16Cost(e.ptest, mode)

	const planeAvail = dsp.AvailT | dsp.AvailL | dsp.AvailTL
	if e.speed == 0 && e.avail&planeAvail == planeAvail {
		plane := e.s.plane[:]
		dsp.Predict16x16(plane, left, top, e.topLeft[0], dsp.PredPlane)
		if c := e.intra16Cost(plane, dsp.PredPlane); c < cost {
			cost, mode = c, dsp.PredPlane
			copy(e.ptest, plane)
		}
	}

	e.mb.predMode = mode
	if cost < e.mb.cost {
		e.mb.cost = cost
		e.mb.typ = mbI16x16
		e.pbest, e.ptest = e.ptest, e.pbest
	}
}
