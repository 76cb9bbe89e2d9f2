package baseline

import "github.com/deepteams/h264/internal/dsp"

// deblockState carries the loop filter inputs across macroblocks.
//
// flag and mv describe a 5x5 grid of 4x4 blocks: the macroblock's blocks
// at 5*r+c+5, the row above at c and the column to the left at 5*r+4. A
// flag bit is set for blocks with coded luma coefficients.
type deblockState struct {
	flag uint32
	mv   [25]point
	// Per macroblock column: coefficient flags of the bottom block row,
	// type and QP of the macroblock above (then current).
	nz  []uint32
	typ []int8
	qp  []uint8
	par dsp.DeblockParams
}

func newDeblockState(mbw int) deblockState {
	return deblockState{
		nz:  make([]uint32, mbw),
		typ: make([]int8, mbw),
		qp:  make([]uint8, mbw),
	}
}

// reset forgets the row above, at the start of a picture.
func (d *deblockState) reset() {
	clear(d.nz)
	clear(d.typ)
	clear(d.qp)
	d.flag = 0
}

// put records mv for a w x h block partition at (x, y).
func (d *deblockState) put(x, y, w, h int, mv point) {
	for r := y; r < y+h; r++ {
		for c := x; c < x+w; c++ {
			d.mv[r*5+c+5] = mv
		}
	}
}

// strength computes the boundary strengths of the current macroblock.
func (e *Encoder) strength() {
	d := &e.df
	s := &d.par.Strength
	typ := e.mb.typ
	d.nz[e.mbx] = d.flag >> 20

	if typ < mbI4x4 {
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				b := 5*r + c
				f := d.flag >> uint(b)
				switch {
				case f&0x30 != 0:
					s[c*4+r] = 2
				case d.mv[b+4].differs3(d.mv[b+5]):
					s[c*4+r] = 1
				default:
					s[c*4+r] = 0
				}
				switch {
				case f&0x21 != 0:
					s[16+r*4+c] = 2
				case d.mv[b].differs3(d.mv[b+5]):
					s[16+r*4+c] = 1
				default:
					s[16+r*4+c] = 0
				}
			}
		}
	} else {
		for i := 4; i < 16; i++ {
			s[i], s[16+i] = 3, 3
		}
	}

	if typ >= mbI4x4 || (e.mbx > 0 && int(d.typ[e.mbx-1]) >= mbI4x4) {
		for i := 0; i < 4; i++ {
			s[i] = 4
		}
	}
	if typ >= mbI4x4 || int(d.typ[e.mbx]) >= mbI4x4 {
		for i := 16; i < 20; i++ {
			s[i] = 4
		}
	}
	d.typ[e.mbx] = int8(typ)
}

// loadEdges fills alpha, beta and tc0 for the macroblock at qp with
// neighbour QPs qpLeft and qpTop. Slots 0 and 2 are the left and top
// edges, 1 and 3 the internal ones.
func (d *deblockState) loadEdges(qp, qpLeft, qpTop int) {
	p := &d.par
	set := func(slot, q, first, n int) {
		lut := &deblockTable[q-MinQP]
		p.Alpha[slot] = lut[0]
		p.Beta[slot] = lut[4]
		for i := first; i < first+n; i++ {
			p.Tc0[i] = lut[p.Strength[i]]
		}
	}
	if anyStrength(p.Strength[0:4]) {
		set(0, (qpLeft+qp+1)>>1, 0, 4)
	}
	if anyStrength(p.Strength[16:20]) {
		set(2, (qpTop+qp+1)>>1, 16, 4)
	}
	set(1, qp, 4, 12)
	set(3, qp, 20, 12)
}

func anyStrength(s []uint8) bool {
	return s[0]|s[1]|s[2]|s[3] != 0
}

// deblockMB runs the loop filter over the current macroblock of the decoded
// picture. Strengths must have been computed by strength.
func (e *Encoder) deblockMB(qp int) {
	d := &e.df
	s := &d.par.Strength
	if e.mbx == 0 {
		clear(s[0:4])
	}
	if e.mby == 0 {
		clear(s[16:20])
	}

	qpTop := int(d.qp[e.mbx])
	qpLeft := qp
	if e.mbx > 0 {
		qpLeft = int(d.qp[e.mbx-1])
	}
	d.qp[e.mbx] = uint8(qp)

	d.loadEdges(qp, qpLeft, qpTop)
	y := &e.dec[0]
	dsp.DeblockLuma(y.Data, e.mbOffset(0), y.Stride, &d.par)

	d.loadEdges(int(chromaQP[qp]), int(chromaQP[qpLeft]), int(chromaQP[qpTop]))
	for c := 1; c < 3; c++ {
		p := &e.dec[c]
		dsp.DeblockChroma(p.Data, e.mbOffset(c), p.Stride, &d.par)
	}
}
