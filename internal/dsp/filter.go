package dsp

// DeblockParams carries the per-macroblock loop filter decision.
//
// Strength and Tc0 hold 16 vertical-edge entries followed by 16
// horizontal-edge entries. Vertical entry e*4+s is edge column e, segment
// s (four rows each); horizontal entry 16+e*4+s is edge row e, segment s.
// Alpha and Beta index 0 and 2 apply to the macroblock's left and top
// edges, 1 and 3 to its internal edges.
type DeblockParams struct {
	Alpha    [4]uint8
	Beta     [4]uint8
	Tc0      [32]uint8
	Strength [32]uint8
}

func clipRange(r, v int) int {
	if v > r {
		return r
	}
	if v < -r {
		return -r
	}
	return v
}

// Edge filters work on samples p3..p0 | q0..q3 found at off-4*across ...
// off+3*across, repeated n times stepping by along.

func filterLumaNormal(pix []byte, off, across, along int, alpha, beta, tc0 int) {
	for k := 0; k < 4; k++ {
		o := off + k*along
		p1 := int(pix[o-2*across])
		p0 := int(pix[o-across])
		q0 := int(pix[o])
		q1 := int(pix[o+across])
		if abs(p0-q0) >= alpha || abs(p1-p0) >= beta || abs(q1-q0) >= beta {
			continue
		}
		p2 := int(pix[o-3*across])
		q2 := int(pix[o+2*across])
		tc := tc0
		if abs(p2-p0) < beta {
			d := clipRange(tc0, ((p2+(p0+q0+1)>>1)>>1)-p1)
			pix[o-2*across] = byte(p1 + d)
			tc++
		}
		if abs(q2-q0) < beta {
			d := clipRange(tc0, ((q2+(p0+q0+1)>>1)>>1)-q1)
			pix[o+across] = byte(q1 + d)
			tc++
		}
		delta := clipRange(tc, ((q0-p0)*4+(p1-q1)+4)>>3)
		pix[o-across] = Clip8(p0 + delta)
		pix[o] = Clip8(q0 - delta)
	}
}

func filterLumaStrong(pix []byte, off, across, along int, alpha, beta int) {
	for k := 0; k < 16; k++ {
		o := off + k*along
		p2 := int(pix[o-3*across])
		p1 := int(pix[o-2*across])
		p0 := int(pix[o-across])
		q0 := int(pix[o])
		q1 := int(pix[o+across])
		q2 := int(pix[o+2*across])
		if abs(p0-q0) >= alpha || abs(p1-p0) >= beta || abs(q1-q0) >= beta {
			continue
		}
		near := abs(p0-q0) < alpha>>2+2
		if abs(p2-p0) < beta && near {
			p3 := int(pix[o-4*across])
			pix[o-across] = byte((p2 + 2*p1 + 2*p0 + 2*q0 + q1 + 4) >> 3)
			pix[o-2*across] = byte((p2 + p1 + p0 + q0 + 2) >> 2)
			pix[o-3*across] = byte((2*p3 + 3*p2 + p1 + p0 + q0 + 4) >> 3)
		} else {
			pix[o-across] = byte((2*p1 + p0 + q1 + 2) >> 2)
		}
		if abs(q2-q0) < beta && near {
			q3 := int(pix[o+3*across])
			pix[o] = byte((q2 + 2*q1 + 2*q0 + 2*p0 + p1 + 4) >> 3)
			pix[o+across] = byte((q2 + q1 + p0 + q0 + 2) >> 2)
			pix[o+2*across] = byte((2*q3 + 3*q2 + q1 + q0 + p0 + 4) >> 3)
		} else {
			pix[o] = byte((2*q1 + q0 + p1 + 2) >> 2)
		}
	}
}

func filterChroma(pix []byte, o, across int, alpha, beta, tc0, bs int) {
	if bs == 0 {
		return
	}
	p1 := int(pix[o-2*across])
	p0 := int(pix[o-across])
	q0 := int(pix[o])
	q1 := int(pix[o+across])
	if abs(p0-q0) >= alpha || abs(p1-p0) >= beta || abs(q1-q0) >= beta {
		return
	}
	if bs < 4 {
		delta := clipRange(tc0+1, ((q0-p0)*4+(p1-q1)+4)>>3)
		pix[o-across] = Clip8(p0 + delta)
		pix[o] = Clip8(q0 - delta)
		return
	}
	pix[o-across] = byte((2*p1 + p0 + q1 + 2) >> 2)
	pix[o] = byte((2*q1 + q0 + p1 + 2) >> 2)
}

func anySet(s []uint8) bool {
	return s[0]|s[1]|s[2]|s[3] != 0
}

// DeblockLuma filters the vertical then the horizontal edges of the 16x16
// luma macroblock at off.
func DeblockLuma(pix []byte, off, stride int, par *DeblockParams) {
	for dir := 0; dir < 2; dir++ {
		across, along := 1, stride
		if dir == 1 {
			across, along = stride, 1
		}
		for e := 0; e < 4; e++ {
			i := dir*16 + e*4
			ai := dir * 2
			if e > 0 {
				ai++
			}
			a, b := int(par.Alpha[ai]), int(par.Beta[ai])
			str := par.Strength[i : i+4]
			o := off + e*4*across
			if str[0] == 4 {
				filterLumaStrong(pix, o, across, along, a, b)
				continue
			}
			if !anySet(str) || a == 0 {
				continue
			}
			for s := 0; s < 4; s++ {
				if str[s] != 0 {
					filterLumaNormal(pix, o+s*4*along, across, along, a, b, int(par.Tc0[i+s]))
				}
			}
		}
	}
}

// DeblockChroma filters one 8x8 chroma macroblock at off. Chroma edges
// reuse the luma decisions of edges 0 and 2 in each direction.
func DeblockChroma(pix []byte, off, stride int, par *DeblockParams) {
	for dir := 0; dir < 2; dir++ {
		across, along := 1, stride
		if dir == 1 {
			across, along = stride, 1
		}
		for e := 0; e < 2; e++ {
			i := dir*16 + e*8
			ai := dir*2 + e
			a, b := int(par.Alpha[ai]), int(par.Beta[ai])
			str := par.Strength[i : i+4]
			if !anySet(str) || a == 0 {
				continue
			}
			o := off + e*4*across
			for k := 0; k < 8; k++ {
				filterChroma(pix, o+k*along, across, a, b, int(par.Tc0[i+k>>1]), int(str[k>>1]))
			}
		}
	}
}
