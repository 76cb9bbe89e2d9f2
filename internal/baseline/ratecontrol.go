package baseline

// MinQP and MaxQP bound the quantizer. Requests outside are clamped.
const (
	MinQP = 10
	MaxQP = 51
)

// quantCoeff holds, for each QP%6, the (quant, dequant) multipliers of the
// three coefficient classes: even/even positions, odd/odd positions and the
// mixed ones. Quant values are scaled by 1<<16.
var quantCoeff = [6][6]int{
	{13107, 10, 8066, 13, 5243, 16},
	{11916, 11, 7490, 14, 4660, 18},
	{10082, 13, 6554, 16, 4194, 20},
	{9362, 14, 5825, 18, 3647, 23},
	{8192, 16, 5243, 20, 3355, 25},
	{7282, 18, 4559, 23, 2893, 29},
}

// quantParams is the quantizer state of one plane group (luma or chroma)
// at the current QP.
type quantParams struct {
	// q[2k] quantizes and q[2k+1] dequantizes coefficient class k.
	q [6]int
	// round is the rounding offset of regular (non-DC) coefficients.
	round int
	// thr1 and thr2 are the per-coefficient dead zones used by the block
	// and 8x8 group zeroing decisions. Both are indexed by position&7.
	thr1, thr2 [8]int
}

// rnd2thr returns the largest coefficient magnitude that quantizes to zero
// with multiplier q and rounding offset round.
func rnd2thr(round, q int) int {
	thr := (0x10000 - round) / q
	if thr > 0xffff {
		thr = 0xffff
	}
	if thr < 0 {
		thr = 0
	}
	return thr
}

func (p *quantParams) set(qp int, inter bool) {
	div6 := qp * 86 >> 9
	mod6 := qp - 6*div6
	c := &quantCoeff[mod6]
	for k := 0; k < 3; k++ {
		p.q[2*k] = c[2*k] << 1 >> uint(div6)
		p.q[2*k+1] = c[2*k+1] << uint(div6)
	}
	if inter {
		p.round = int(roundInter[qp])
	} else {
		p.round = int(deadzoneIntra[qp])
	}
	t1 := int(thrInter[qp]) - 0x7fff
	t2 := int(thrInter2[qp]) - 0x7fff
	for i := 0; i < 8; i++ {
		k := idxClass[i]
		p.thr1[i] = rnd2thr(t1, p.q[k])
		p.thr2[i] = rnd2thr(t2, p.q[k])
	}
}

// clampQP limits qp to [MinQP, MaxQP].
func clampQP(qp int) int {
	if qp < MinQP {
		return MinQP
	}
	if qp > MaxQP {
		return MaxQP
	}
	return qp
}

// setQP loads the quantizer tables for qp. The slice type must be set
// first since it selects the rounding offsets.
func (e *Encoder) setQP(qp int) {
	e.qp = qp
	e.quant[0].set(qp, e.sliceP)
	e.quant[1].set(int(chromaQP[qp]), e.sliceP)
	e.prevQP = qp
}
