package baseline

import "github.com/deepteams/h264/internal/dsp"

// quantBlock holds one 4x4 block through the residual pipeline: dq starts
// as transform output and ends as dequantized coefficients, qv receives the
// quantized levels. Both use the transposed layout of dsp.FwdTransform.
type quantBlock struct {
	qv [16]int16
	dq [16]int16
}

// Residual modes. side is the block grid width, first the first AC
// position quantized by regular rounding (1 when the DC term is coded
// separately).
type qmode struct {
	side, first int
	// zeroing enables the dead-zone decisions that drop whole blocks.
	zeroing bool
	// groups additionally drops 8x8 groups under the coarser threshold.
	groups bool
}

var (
	modeIntra4  = qmode{side: 1}
	modeInter   = qmode{side: 4, zeroing: true, groups: true}
	modeIntra16 = qmode{side: 4, first: 1}
	modeChroma  = qmode{side: 2, first: 1, zeroing: true}
)

// isZero reports whether every coefficient of d from first on lies inside
// the dead zone thr.
func isZero(d *[16]int16, first int, thr *[8]int) bool {
	for i := first; i < 16; i++ {
		v, t := int(d[i]), thr[i&7]
		if v < -t || v > t {
			return false
		}
	}
	return true
}

// zeroMask returns a raster bit mask (bit n for block n) of the blocks
// that quantize to nothing.
func zeroMask(q []quantBlock, m qmode, p *quantParams) int {
	if !m.zeroing {
		return 0
	}
	zmask := 0
	for i := 0; i < m.side*m.side; i++ {
		if isZero(&q[i].dq, m.first, &p.thr1) {
			zmask |= 1 << uint(i)
		}
	}
	if m.groups {
		for _, g := range [4]int{0, 2, 8, 10} {
			group := 0x33 << uint(g)
			if ^zmask&group == 0 {
				continue
			}
			if isZero(&q[g].dq, m.first, &p.thr2) && isZero(&q[g+1].dq, m.first, &p.thr2) &&
				isZero(&q[g+4].dq, m.first, &p.thr2) && isZero(&q[g+5].dq, m.first, &p.thr2) {
				zmask |= group
			}
		}
	}
	return zmask
}

// idxClass is the offset in quantParams.q of the class of every transposed
// coefficient position.
var idxClass = [16]int{0, 2, 0, 2, 2, 4, 2, 4, 0, 2, 0, 2, 2, 4, 2, 4}

// quantize quantizes and dequantizes the blocks in raster order. The
// returned mask has one bit per block, the first block in the most
// significant position, set when the block has a non-zero level.
func quantize(q []quantBlock, m qmode, p *quantParams, zmask int) int {
	mask := 0
	for n := 0; n < m.side*m.side; n++ {
		b := &q[n]
		nz := false
		if zmask&(1<<uint(n)) != 0 {
			b.qv = [16]int16{}
		} else {
			for i := m.first; i < 16; i++ {
				k := idxClass[i]
				round := p.round
				if b.dq[i] < 0 {
					round = 0xffff - round
				}
				v := (int(b.dq[i])*p.q[k] + round) >> 16
				if v != 0 {
					nz = true
				}
				b.qv[i] = int16(v)
				b.dq[i] = int16(v * p.q[k+1])
			}
		}
		mask <<= 1
		if nz {
			mask |= 1
		}
	}
	return mask
}

// transformQuant transforms inp-pred (pred with stride dsp.BPS) for every
// block of mode m, quantizes and dequantizes the result, and returns the
// non-zero block mask of quantize. When the mode codes DC separately, the
// DC terms are collected into dc in raster block order.
func transformQuant(inp []byte, off, stride int, pred []byte, m qmode, q []quantBlock, dc []int16, p *quantParams) int {
	for r := 0; r < m.side; r++ {
		for c := 0; c < m.side; c++ {
			n := r*m.side + c
			dsp.FwdTransform(inp, off+4*r*stride+4*c, stride, pred[4*r*dsp.BPS+4*c:], &q[n].dq)
			if m.first == 1 {
				dc[n] = q[n].dq[0]
			}
		}
	}
	return quantize(q, m, p, zeroMask(q, m, p))
}

// quantDC quantizes DC terms in place with a Q18 rounding offset and
// copies the levels to levels.
func quantDC(v []int16, levels []int16, quant int16, round int) {
	for i := range v {
		x := int(v[i])
		r := round
		if x < 0 {
			r = 1<<18 - round
		}
		l := int16((x*int(quant) + r) >> 18)
		v[i], levels[i] = l, l
	}
}

// quantLumaDC codes the 16 luma DC terms collected in dc: levels receive
// the quantized Hadamard coefficients and the dequantized DC of every
// block is stored back into q.
func quantLumaDC(q []quantBlock, dc *[16]int16, levels *[16]int16, p *quantParams) {
	dsp.Hadamard4(dc)
	quantDC(dc[:], levels[:], int16(p.q[0]), 0x20000)
	dsp.Hadamard4(dc)
	deq := int16(p.q[1] >> 2)
	for i := range dc {
		q[i].dq[0] = dc[i] * deq
	}
}

// quantChromaDC codes the four chroma DC terms of one plane and reports
// whether any level is non-zero.
func quantChromaDC(q []quantBlock, dc *[4]int16, levels *[4]int16, p *quantParams) bool {
	dsp.Hadamard2(dc)
	quantDC(dc[:], levels[:], int16(p.q[0]<<1), 0xaaaa)
	dsp.Hadamard2(dc)
	deq := int16(p.q[1] >> 1)
	for i := range dc {
		q[i].dq[0] = dc[i] * deq
	}
	return dc[0]|dc[1]|dc[2]|dc[3] != 0
}

// transformAdd reconstructs a side x side grid of blocks into out at off.
// Blocks whose bit in mask (most significant first, 32-bit) is clear copy
// the prediction unchanged.
func transformAdd(out []byte, off, stride int, pred []byte, q []quantBlock, side int, mask uint32) {
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			o := off + 4*r*stride + 4*c
			p := pred[4*r*dsp.BPS+4*c:]
			if mask&0x80000000 != 0 {
				dsp.AddResidual(out, o, stride, p, &q[r*side+c].dq)
			} else {
				dsp.Copy(out, o, stride, p, 0, dsp.BPS, 4, 4)
			}
			mask <<= 1
		}
	}
}
