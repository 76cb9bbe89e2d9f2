package baseline

import "github.com/deepteams/h264/internal/dsp"

// point is a motion vector or position in quarter pixels.
type point struct {
	x, y int
}

// mvNA marks a neighbour without a motion vector (intra or outside).
var mvNA = point{-32768, 0}

func (p point) avail() bool { return p != mvNA }

func (p point) add(q point) point { return point{p.x + q.x, p.y + q.y} }

func (p point) sub(q point) point { return point{p.x - q.x, p.y - q.y} }

// roundQpel rounds p to the nearest full-pel position. Half-pel ties
// round toward minus infinity.
func (p point) roundQpel() point {
	return point{(p.x + 1) &^ 3, (p.y + 1) &^ 3}
}

// differs3 reports whether p and q differ by a full pixel or more in
// either component.
func (p point) differs3(q point) bool {
	return abs(p.x-q.x) > 3 || abs(p.y-q.y) > 3
}

// rect is an inclusive rectangle of positions.
type rect struct {
	tl, br point
}

func (r *rect) contains(p point) bool {
	return p.x >= r.tl.x && p.x <= r.br.x && p.y >= r.tl.y && p.y <= r.br.y
}

func (r *rect) clip(p point) point {
	return point{clamp(p.x, r.tl.x, r.br.x), clamp(p.y, r.tl.y, r.br.y)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func median3(a, b, c int) int {
	return max(min(max(a, b), c), min(a, b))
}

// mvPredictor holds the motion vector neighbourhood of the current
// macroblock in 4x4 block units: the column to its left, the corner
// column (top-left neighbour of each row) and the row above every
// macroblock column.
type mvPredictor struct {
	left   [4]point
	corner [4]point
	top    []point // 4 per macroblock column, plus one column of slack
}

// mvContext is a saved mvPredictor neighbourhood of one macroblock.
type mvContext struct {
	left, corner, top [4]point
}

func (e *Encoder) mvTop() []point {
	return e.mvp.top[e.mbx*4:]
}

func (e *Encoder) saveMV(ctx *mvContext) {
	ctx.left = e.mvp.left
	ctx.corner = e.mvp.corner
	copy(ctx.top[:], e.mvTop())
}

func (e *Encoder) restoreMV(ctx *mvContext) {
	e.mvp.left = ctx.left
	e.mvp.corner = ctx.corner
	copy(e.mvTop(), ctx.top[:])
}

// putMV records mv for the w x h block partition at (x, y).
func (e *Encoder) putMV(x, y, w, h int, mv point) {
	top := e.mvTop()
	e.mvp.corner[y] = top[x+w-1]
	for i := 1; i < h; i++ {
		e.mvp.corner[y+i] = mv
	}
	for i := 0; i < h; i++ {
		e.mvp.left[y+i] = mv
	}
	for i := 0; i < w; i++ {
		top[x+i] = mv
	}
}

// Predictor selections.
const (
	predMedian = iota
	predLeft
	predUp
	predUpRight
)

// predictMV returns the motion vector predictor of the w x h partition at
// (x, y), all in 4x4 block units.
func (e *Encoder) predictMV(x, y, w, h int) point {
	top := e.mvTop()
	flag := e.avail
	a := e.mvp.left[y]
	b := top[x]
	c := top[x+w]
	d := e.mvp.corner[y]

	if x == 0 {
		if flag&dsp.AvailL == 0 {
			a = mvNA
		}
		if flag&dsp.AvailTL == 0 {
			d = mvNA
		}
	}
	if y == 0 {
		if flag&dsp.AvailT == 0 {
			b = mvNA
			if x+w < 4 {
				c = mvNA
			}
			if x > 0 {
				d = mvNA
			}
		}
		if flag&dsp.AvailTL == 0 && x == 0 {
			d = mvNA
		}
		if flag&dsp.AvailTR == 0 && x+w == 4 {
			c = mvNA
		}
	}
	if x+w == 4 && (flag&dsp.AvailTR == 0 || y > 0) {
		c = d
	}

	kind := predMedian
	switch {
	case a.avail() && !b.avail() && !c.avail():
		kind = predLeft
	case !a.avail() && b.avail() && !c.avail():
		kind = predUp
	case !a.avail() && !b.avail() && c.avail():
		kind = predUpRight
	}
	switch {
	case w == 2 && h == 4:
		if x == 0 {
			if a.avail() {
				kind = predLeft
			}
		} else if c.avail() {
			kind = predUpRight
		}
	case w == 4 && h == 2:
		if y == 0 {
			if b.avail() {
				kind = predUp
			}
		} else if a.avail() {
			kind = predLeft
		}
	}

	var ret point
	switch kind {
	case predLeft:
		if a.avail() {
			ret = a
		}
	case predUp:
		if b.avail() {
			ret = b
		}
	case predUpRight:
		if c.avail() {
			ret = c
		}
	default:
		if !b.avail() && !c.avail() {
			if a.avail() {
				ret = a
			}
			break
		}
		if !a.avail() {
			a = point{}
		}
		if !b.avail() {
			b = point{}
		}
		if !c.avail() {
			c = point{}
		}
		ret = point{median3(a.x, b.x, c.x), median3(a.y, b.y, c.y)}
	}
	return ret
}

// predictSkip returns the 16x16 predictor and sets the skip vector, which
// is zero unless both the left and the upper neighbour move.
func (e *Encoder) predictSkip() point {
	pred := e.predictMV(0, 0, 4, 4)
	e.mb.mvSkipPred = point{}
	if e.avail&(dsp.AvailL|dsp.AvailT) == dsp.AvailL|dsp.AvailT {
		if e.mvp.left[0] != (point{}) && e.mvTop()[0] != (point{}) {
			e.mb.mvSkipPred = pred
		}
	}
	return pred
}

// neighbourCandidates appends search seeds from the neighbourhood.
func (e *Encoder) neighbourCandidates(cand []point) []point {
	top := e.mvTop()
	cand = append(cand, point{})
	if e.avail&dsp.AvailL != 0 && e.mvp.left[0].avail() {
		cand = append(cand, e.mvp.left[0])
	}
	if e.avail&dsp.AvailT != 0 && top[0].avail() {
		cand = append(cand, top[0])
	}
	if e.avail&dsp.AvailTR != 0 && top[4].avail() {
		cand = append(cand, top[4])
	}
	return cand
}
