package baseline

import (
	"github.com/deepteams/h264/internal/bitio"
	"github.com/deepteams/h264/internal/cavlc"
	"github.com/deepteams/h264/internal/dsp"
)

// decodeScan is the coding order of the 4x4 luma blocks as raster indices:
// 8x8 quadrants in raster order, blocks inside each quadrant likewise.
var decodeScan = [16]int{0, 1, 4, 5, 2, 3, 6, 7, 8, 9, 12, 13, 10, 11, 14, 15}

// cbp2code maps coded_block_pattern to its codeNum, for intra 4x4 (row 0)
// and inter (row 1) macroblocks.
var cbp2code = [2][48]uint8{
	{3, 29, 30, 17, 31, 18, 37, 8, 32, 38, 19, 9, 20, 10, 11, 2, 16, 33, 34, 21, 35, 22, 39, 4,
		36, 40, 23, 5, 24, 6, 7, 1, 41, 42, 43, 25, 44, 26, 46, 12, 45, 47, 27, 13, 28, 14, 15, 0},
	{0, 2, 3, 7, 4, 8, 17, 13, 5, 18, 9, 14, 10, 15, 16, 11, 1, 32, 33, 36, 34, 37, 44, 40,
		35, 45, 38, 41, 39, 42, 43, 19, 6, 24, 25, 20, 26, 21, 46, 28, 27, 47, 22, 29, 23, 30, 31, 12},
}

// nzGrid holds coefficient totals of a macroblock's blocks with a border
// row and column for the neighbours above and to the left.
type nzGrid [5][5]int

// nc predicts the context of block (r, c).
func (g *nzGrid) nc(r, c int) int {
	return cavlc.NC(g[r+1][c], g[r][c+1])
}

// load fills the border of an n x n grid from the neighbour counts.
func (g *nzGrid) load(top, left []int8, n int) {
	for i := 0; i < n; i++ {
		g[0][i+1] = int(top[i])
		g[i+1][0] = int(left[i])
	}
}

// store writes the bottom row and the right column of an n x n grid back as
// neighbour counts.
func (g *nzGrid) store(top, left []int8, n int) {
	for i := 0; i < n; i++ {
		top[i] = int8(g[n][i+1])
		left[i] = int8(g[i+1][n])
	}
}

// nnzTop returns the coefficient totals above the current macroblock:
// four luma columns, then two per chroma plane.
func (e *Encoder) nnzTop() []int8 {
	return e.nnzAbove[e.mbx*8 : e.mbx*8+8]
}

// inputChroma returns the chroma input block of the current macroblock,
// copied into a replicated 8x8 scratch block at the right and bottom edges.
func (e *Encoder) inputChroma(c int) ([]byte, int, int) {
	p := &e.in[c]
	off := p.Off + e.mby*8*p.Stride + e.mbx*8
	if !e.cropped {
		return p.Data, off, p.Stride
	}
	w := min(8, e.width/2-e.mbx*8)
	h := min(8, e.height/2-e.mby*8)
	buf := e.s.uvInp[c-1][:]
	dsp.CopyCropped(buf, 8, p.Data, off, p.Stride, w, h)
	return buf, 0, 8
}

// encodeChroma transforms, quantizes and reconstructs one chroma plane and
// returns its coded block pattern contribution: 1 for DC only, 2 with AC.
func (e *Encoder) encodeChroma(c int) int {
	src, off, stride := e.inputChroma(c)
	pred := e.s.predUV[(c-1)*8:]
	q, dc, levels := e.s.qu[:], &e.s.dcU, &e.s.quantDCU
	if c == 2 {
		q, dc, levels = e.s.qv[:], &e.s.dcV, &e.s.quantDCV
	}
	cbp := 0
	nz := transformQuant(src, off, stride, pred, modeChroma, q, dc[:], &e.quant[1])
	if nz != 0 {
		cbp = 2
	}
	hasDC := quantChromaDC(q, dc, levels, &e.quant[1])
	if hasDC {
		cbp |= 1
	}

	d := &e.dec[c]
	dst := e.mbOffset(c)
	if cbp == 0 {
		dsp.Copy(d.Data, dst, d.Stride, pred, 0, dsp.BPS, 8, 8)
		return 0
	}
	if hasDC {
		for i := 0; i < 4; i++ {
			if nz&(8>>uint(i)) == 0 {
				for k := 1; k < 16; k++ {
					q[i].dq[k] = 0
				}
			}
		}
		nz = 15
	}
	transformAdd(d.Data, dst, d.Stride, pred, q, 2, uint32(nz)<<28)
	return min(cbp, 2)
}

// writeMB finishes the residual of the chosen mode, reconstructs the
// macroblock into the decoded picture and writes its syntax.
func (e *Encoder) writeMB() {
	w := e.nal.Bits()
	mb := &e.mb
	top := e.nnzTop()

	if mb.typ != mbI4x4 {
		for i := range e.i4Left {
			e.i4Left[i] = 2
		}
		for i := 0; i < 4; i++ {
			e.i4Top[e.mbx*4+i] = 2
		}
	}

	e.df.flag = (e.df.flag>>4)&0x84210 | e.df.nz[e.mbx]

	var g nzGrid
	g.load(top, e.nnzLeft[:], 4)
	for i := 0; i < 4; i++ {
		top[i], e.nnzLeft[i] = 0, 0
	}

	if mb.typ != mbSkip {
		cbpl, cbpc := e.residual(), 0
		for c := 1; c < 3; c++ {
			cbpc |= e.encodeChroma(c)
		}
		cbpc = min(cbpc, 2)

		if mb.typ == mbP16x16 && cbpl == 0 && cbpc == 0 && mb.mv[0] == mb.mvSkipPred {
			mb.typ = mbSkip
		} else {
			e.writeCoded(w, &g, cbpl, cbpc)
		}
	}

	if mb.typ == mbSkip {
		e.skipRun++
		for i := 4; i < 8; i++ {
			top[i], e.nnzLeft[i] = 0, 0
		}
		e.putMV(0, 0, 4, 4, mb.mv[0])
		e.df.put(0, 0, 4, 4, mb.mv[0])
		y := &e.dec[0]
		dsp.Copy(y.Data, e.mbOffset(0), y.Stride, e.pbest, 0, dsp.BPS, 16, 16)
		for c := 1; c < 3; c++ {
			d := &e.dec[c]
			dsp.Copy(d.Data, e.mbOffset(c), d.Stride, e.s.predUV[(c-1)*8:], 0, dsp.BPS, 8, 8)
		}
	}
	e.saveLines()
}

// residual codes the luma residual of non-intra-4x4 macroblocks,
// reconstructs luma and returns the luma coded block pattern.
func (e *Encoder) residual() int {
	mb := &e.mb
	if mb.typ != mbI4x4 {
		y := &e.dec[0]
		m := modeInter
		if mb.typ == mbI16x16 {
			m = modeIntra16
		}
		mask := transformQuant(e.s.inp[:], 0, dsp.BPS, e.pbest, m, e.s.qy[:], e.s.dcY[:], &e.quant[0])
		e.s.nzMask = uint16(mask)
		if mb.typ == mbI16x16 {
			quantLumaDC(e.s.qy[:], &e.s.dcY, &e.s.quantDC, &e.quant[0])
			mask = 0xffff
		}
		transformAdd(y.Data, e.mbOffset(0), y.Stride, e.pbest, e.s.qy[:], 4, uint32(mask)<<16)
	}
	cbpl := 0
	nz := e.s.nzMask
	if nz&0xcc00 != 0 {
		cbpl |= 1
	}
	if nz&0x3300 != 0 {
		cbpl |= 2
	}
	if nz&0x00cc != 0 {
		cbpl |= 4
	}
	if nz&0x0033 != 0 {
		cbpl |= 8
	}
	return cbpl
}

// writeCoded writes a non-skipped macroblock.
func (e *Encoder) writeCoded(w *bitio.Writer, g *nzGrid, cbpl, cbpc int) {
	mb := &e.mb
	top := e.nnzTop()
	intra16 := mb.typ == mbI16x16

	mbType := mb.typ
	if intra16 {
		if cbpl != 0 {
			cbpl = 15
		}
		mbType = 6 + mb.predMode + 4*cbpc
		if cbpl != 0 {
			mbType += 12
		}
	}
	if mbType >= mbI4x4 && !e.sliceP {
		mbType -= 5
	}
	if e.sliceP {
		w.PutUE(uint32(e.skipRun))
		e.skipRun = 0
	}
	w.PutUE(uint32(mbType))
	if mb.typ == mbP8x8 {
		for i := 0; i < 4; i++ {
			w.PutUE(0)
		}
	}

	if mb.typ >= mbI4x4 {
		if mb.typ == mbI4x4 {
			for _, n := range decodeScan {
				if m := mb.i4Modes[n]; m < 0 {
					w.PutBits(1, 1)
				} else {
					w.PutBits(4, uint32(m))
				}
			}
		}
		mode := mb.predMode
		if mode&1 == 0 {
			mode ^= 2
		}
		w.PutUE(uint32(mode))
		e.putMV(0, 0, 4, 4, mvNA)
	} else {
		dx, dy := 4, 4
		if mb.typ&2 != 0 {
			dx = 2
		}
		if mb.typ&1 != 0 {
			dy = 2
		}
		part := 0
		for y := 0; y < 4; y += dy {
			for x := 0; x < 4; x += dx {
				w.PutSE(int32(mb.mvd[part].x))
				w.PutSE(int32(mb.mvd[part].y))
				e.putMV(x, y, dx, dy, mb.mv[part])
				e.df.put(x, y, dx, dy, mb.mv[part])
				part++
			}
		}
	}

	cbp := cbpl + cbpc<<4
	if !intra16 {
		row := 1
		if mb.typ >= mbI4x4 {
			row = 0
		}
		w.PutUE(uint32(cbp2code[row][cbp]))
	}
	if cbp != 0 || intra16 {
		w.PutSE(int32(e.qp - e.prevQP))
		e.prevQP = e.qp
	}

	if intra16 {
		g[1][1] = cavlc.Encode(w, e.s.quantDC[:], 16, g.nc(0, 0))
	}
	if cbpl != 0 {
		maxCoeff := 16
		if intra16 {
			maxCoeff = 15
		}
		for i, j := range decodeScan {
			r, c := j>>2, j&3
			if cbp&(1<<uint(i>>2)) == 0 {
				g[r+1][c+1] = 0
				continue
			}
			n := cavlc.Encode(w, e.s.qy[j].qv[:], maxCoeff, g.nc(r, c))
			g[r+1][c+1] = n
			if n != 0 {
				e.df.flag |= 1 << uint(5+c+5*r)
			}
		}
		g.store(top, e.nnzLeft[:], 4)
	}

	if cbpc != 0 {
		cavlc.Encode(w, e.s.quantDCU[:], 4, cavlc.ChromaDC)
		cavlc.Encode(w, e.s.quantDCV[:], 4, cavlc.ChromaDC)
	}
	if cbpc > 1 {
		for plane, off := range [2]int{4, 6} {
			q := e.s.qu[:]
			if plane == 1 {
				q = e.s.qv[:]
			}
			var cg nzGrid
			cg.load(top[off:], e.nnzLeft[off:], 2)
			for i := 0; i < 4; i++ {
				r, c := i>>1, i&1
				cg[r+1][c+1] = cavlc.Encode(w, q[i].qv[:], 15, cg.nc(r, c))
			}
			cg.store(top[off:], e.nnzLeft[off:], 2)
		}
	}
	if cbpc != 2 {
		for i := 4; i < 8; i++ {
			top[i], e.nnzLeft[i] = 0, 0
		}
	}
}

// saveLines keeps the reconstructed right column and bottom row of the
// macroblock for intra prediction of its neighbours.
func (e *Encoder) saveLines() {
	for c, base := range [3]int{0, 16, 24} {
		n := 16
		if c > 0 {
			n = 8
		}
		d := &e.dec[c]
		off := e.mbOffset(c)
		top := e.topLine[e.mbx*32+base:]
		e.topLeft[c] = top[n-1]
		for i := 0; i < n; i++ {
			e.leftLine[base+i] = d.Data[off+i*d.Stride+n-1]
		}
		copy(top[:n], d.Data[off+(n-1)*d.Stride:])
	}
}
