// Package cavlc writes residual blocks with the baseline-profile
// context-adaptive variable length code.
package cavlc

import "github.com/deepteams/h264/internal/bitio"

// NA marks a neighbouring block that is unavailable for nC prediction.
const NA = 64

// ChromaDC is the nC value selecting the 2x2 chroma DC tables.
const ChromaDC = -1

// zigzag maps scan position to coefficient index. Coefficients are stored
// transposed (see dsp.FwdTransform), so this is the transposed frame scan.
var zigzag = [16]int{0, 4, 1, 2, 5, 8, 12, 9, 6, 3, 7, 10, 13, 14, 11, 15}

// NC predicts the coefficient-count context from the left (a) and upper (b)
// neighbouring blocks' totals.
func NC(a, b int) int {
	switch {
	case a == NA && b == NA:
		return 0
	case a == NA:
		return b
	case b == NA:
		return a
	}
	return (a + b + 1) >> 1
}

func put(w *bitio.Writer, c vlc) {
	w.PutBits(int(c.n), uint32(c.val))
}

// Encode writes the block coef and returns its total coefficient count.
//
// maxCoeff selects the block kind: 16 for a full 4x4 block, 15 for the AC
// part of a block whose DC is sent separately, 4 for chroma DC (which is
// stored in raster order and must be coded with nc == ChromaDC).
func Encode(w *bitio.Writer, coef []int16, maxCoeff, nc int) int {
	// levels and their 1-based scan positions, highest frequency first.
	var levels [16]int
	var pos [16]int
	nnz := 0
	for k := maxCoeff; k > 0; k-- {
		var v int16
		switch maxCoeff {
		case 16:
			v = coef[zigzag[k-1]]
		case 15:
			v = coef[zigzag[k]]
		default:
			v = coef[k-1]
		}
		if v != 0 {
			levels[nnz] = int(v)
			pos[nnz] = k
			nnz++
		}
	}

	t1, signs := 0, uint32(0)
	for t1 < nnz && t1 < 3 && (levels[t1] == 1 || levels[t1] == -1) {
		signs <<= 1
		if levels[t1] < 0 {
			signs |= 1
		}
		t1++
	}

	switch {
	case nc == ChromaDC:
		put(w, coeffTokenChromaDC[nnz][t1])
	case nc >= 8:
		code := uint32(3)
		if nnz > 0 {
			code = uint32(nnz-1)<<2 | uint32(t1)
		}
		w.PutBits(6, code)
	default:
		class := 0
		if nc >= 4 {
			class = 2
		} else if nc >= 2 {
			class = 1
		}
		put(w, coeffToken[class][nnz][t1])
	}
	if nnz == 0 {
		return 0
	}
	if t1 > 0 {
		w.PutBits(t1, signs)
	}

	suffixLen := 0
	if nnz > 10 && t1 < 3 {
		suffixLen = 1
	}
	for i := t1; i < nnz; i++ {
		putLevel(w, levels[i], suffixLen, i == t1 && t1 < 3)
		if suffixLen == 0 {
			suffixLen = 1
		}
		if abs(levels[i]) > 3<<uint(suffixLen-1) && suffixLen < 6 {
			suffixLen++
		}
	}

	if nnz < maxCoeff {
		tz := pos[0] - nnz
		if maxCoeff == 4 {
			put(w, totalZerosChromaDC[nnz-1][tz])
		} else {
			put(w, totalZeros[nnz-1][tz])
		}
		zerosLeft := tz
		for i := 0; i < nnz-1 && zerosLeft > 0; i++ {
			run := pos[i] - pos[i+1] - 1
			put(w, runBefore[min(zerosLeft, 7)-1][run])
			zerosLeft -= run
		}
	}
	return nnz
}

// putLevel writes one level_prefix/level_suffix pair. first is set for the
// first level after fewer than three trailing ones, whose magnitude is
// known to exceed one.
func putLevel(w *bitio.Writer, level, suffixLen int, first bool) {
	code := 2*level - 2
	if level < 0 {
		code = -2*level - 1
	}
	if first {
		code -= 2
	}

	var prefix, sbits, suffix int
	switch {
	case suffixLen == 0 && code < 14:
		prefix = code
	case suffixLen == 0 && code < 30:
		prefix, sbits, suffix = 14, 4, code-14
	case suffixLen == 0:
		prefix, sbits, suffix = 15, 12, code-30
	case code>>uint(suffixLen) < 15:
		prefix, sbits = code>>uint(suffixLen), suffixLen
		suffix = code & (1<<uint(suffixLen) - 1)
	default:
		prefix, sbits, suffix = 15, 12, code-15<<uint(suffixLen)
	}
	if suffix >= 1<<uint(sbits) && sbits == 12 {
		suffix = 1<<12 - 1
	}
	w.PutBits(prefix+1+sbits, uint32(1<<uint(sbits)|suffix))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
