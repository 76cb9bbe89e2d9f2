package baseline

import (
	"math"

	"github.com/deepteams/h264/internal/bitio"
	"github.com/deepteams/h264/internal/dsp"
)

const (
	// mvRange is the diamond search radius around the start point, pixels.
	mvRange = 32
	// mvGuard bounds how far vectors may point outside the picture, pixels.
	mvGuard = 14
)

// absMV converts a macroblock-relative vector to a picture position.
func (e *Encoder) absMV(mv point) point {
	return point{mv.x + e.mbx*64, mv.y + e.mby*64}
}

// mvCost is the lambda-weighted bit cost of coding mv against pred.
func (e *Encoder) mvCost(mv, pred point) int {
	nb := bitio.SEBits(mv.x-pred.x) + bitio.SEBits(mv.y-pred.y)
	return nb * int(lambdaMVQ4[e.qp]) >> 4
}

// interpolate predicts a w x h luma block at picture position mv from
// ref (whose origin is refOff) into dst.
func interpolate(ref []byte, refOff, stride int, mv point, w, h int, dst []byte) {
	off := refOff + (mv.y>>2)*stride + mv.x>>2
	dsp.InterpolateLuma(ref, off, stride, dst, w, h, mv.x&3, mv.y&3)
}

// predictLuma16 writes the whole-macroblock prediction at picture position
// mv into dst.
func (e *Encoder) predictLuma16(mv point, dst []byte) {
	p := &e.ref[0]
	interpolate(p.Data, p.Off, p.Stride, mv, 16, 16, dst)
}

// predictChroma interpolates both chroma planes for the current partition
// vectors into the chroma prediction buffer.
func (e *Encoder) predictChroma() {
	w, h := 8, 8
	if e.mb.typ != mbSkip {
		if e.mb.typ&2 != 0 {
			w = 4
		}
		if e.mb.typ&1 != 0 {
			h = 4
		}
	}
	for c := 1; c < 3; c++ {
		p := &e.ref[c]
		part := 0
		for y := 0; y < 8; y += h {
			for x := 0; x < 8; x += w {
				mv := e.absMV(e.mb.mv[part])
				part++
				off := p.Off + ((mv.y>>3)+y)*p.Stride + mv.x>>3 + x
				dst := e.s.predUV[(c-1)*8+y*dsp.BPS+x:]
				dsp.InterpolateChroma(p.Data, off, p.Stride, dst, w, h, mv.x&7, mv.y&7)
			}
		}
	}
}

// chromaSkipOK reports whether both chroma predictions are close enough
// to the input for a skip decision to stand.
func (e *Encoder) chromaSkipOK() bool {
	for c := 1; c < 3; c++ {
		src, off, stride := e.inputChroma(c)
		if dsp.SAD(src, off, stride, e.s.predUV[(c-1)*8:], 8, 8) >= int(skipThrInter[e.qp]) {
			return false
		}
	}
	return true
}

// setRange clips the search start p to the allowed vector rectangle and
// returns it with the search window around it. mbyq is the vertical
// picture position of the partition, quarter pixels.
func (e *Encoder) setRange(p point, mbyq int) (point, rect) {
	r := e.mvLimit
	r.tl.y = max(r.tl.y, mbyq-63*4)
	r.br.y = min(r.br.y, mbyq+63*4)
	p = r.clip(p)
	return p, rect{
		tl: r.clip(point{p.x - mvRange*4, p.y - mvRange*4}),
		br: r.clip(point{p.x + mvRange*4, p.y + mvRange*4}),
	}
}

// refineCandidates rounds the seeds to full pixels and drops duplicates.
func refineCandidates(p []point) []point {
	p[0] = p[0].roundQpel()
	k := 1
	for j := 1; j < len(p); j++ {
		mv := p[j].roundQpel()
		dup := false
		for i := 0; i < k; i++ {
			if p[i] == mv {
				dup = true
				break
			}
		}
		if !dup {
			p[k] = mv
			k++
		}
	}
	return p[:k]
}

// partitionHints marks the partition modes worth a trial from the SADs of
// the four 8x8 quadrants. The slope term measures a vertical against a
// horizontal gradient, the skew term a diagonal one.
func partitionHints(sad *[4]int, preferred *[4]bool) {
	p00, p01, p10, p11 := sad[0], sad[1], sad[2], sad[3]
	t := (p00 + p01 + p10 + p11) >> 4
	slope := abs((p00-p10)+(p01-p11)) - abs((p00-p01)+(p10-p11))
	skew := abs(p11-p00) - abs(p10-p01)
	if slope > t {
		preferred[mbP16x8] = true
	}
	if slope < -t {
		preferred[mbP8x16] = true
	}
	if abs(skew) > t && abs(slope) <= t {
		preferred[mbP8x8] = true
	}
}

// updateClusters tracks running means of short and long motion.
func (e *Encoder) updateClusters(mv point) {
	norm := mv.x*mv.x + mv.y*mv.y
	c0, c1 := &e.clusters[0], &e.clusters[1]
	n0 := c0.x*c0.x + c0.y*c0.y
	n1 := c1.x*c1.x + c1.y*c1.y
	smooth := func(c *point) {
		c.x = (63*c.x + mv.x + 32) >> 6
		c.y = (63*c.y + mv.y + 32) >> 6
	}
	if norm < n1 {
		smooth(c0)
	}
	if norm >= n0 {
		smooth(c1)
	}
}

const cacheUnset = math.MaxInt32

var dir2mv = [4]point{{4, 0}, {-4, 0}, {0, 4}, {0, -4}}

// diamond searches around *mv for the w x h partition b (stride BPS)
// whose reference origin is refOff. It starts with a small diamond that
// re-centres on every improvement, tries one diagonal step and finally
// refines to quarter pixels. It returns the best cost and prediction.
//
// The cache keeps the costs of the four neighbours of the centre
// (right, left, down, up) and of the previous centre.
func (e *Encoder) diamond(ref []byte, refOff, stride int, b []byte, mv *point, rng *rect,
	pred point, minCost, w, h int) (int, []byte) {
	var cache [8]int
	cost := func(v point) int {
		off := refOff + (v.y>>2)*stride + v.x>>2
		return dsp.SAD(ref, off, stride, b, w, h) + e.mvCost(v, pred)
	}

	for {
		for i := range cache {
			cache[i] = cacheUnset
		}
		dir, prev := 0, -1
		for cloop := 4; cloop > 0; cloop-- {
			v := mv.add(dir2mv[dir])
			if rng.contains(v) && cache[dir] == cacheUnset {
				c := cost(v)
				cache[dir] = c
				if c < minCost {
					corner := cacheUnset
					if prev >= 0 {
						corner = cache[4+dir]
					}
					copy(cache[4:], cache[:4])
					for i := 0; i < 4; i++ {
						cache[i] = cacheUnset
					}
					if prev >= 0 {
						cache[prev^1] = corner
					}
					cache[dir^1] = minCost
					prev = dir
					dir--
					cloop = 5
					*mv = v
					minCost = c
				}
			}
			dir = (dir + 1) & 3
		}

		primary, secondary := 3, 1
		if cache[3] >= cache[2] {
			primary = 2
		}
		if cache[1] >= cache[0] {
			secondary = 0
		}
		if cache[primary] < cache[secondary] {
			primary, secondary = secondary, primary
		}
		v := mv.add(dir2mv[secondary]).add(dir2mv[primary])
		if rng.contains(v) {
			if c := cost(v); c < minCost {
				*mv = v
				minCost = c
				continue
			}
		}
		break
	}

	buf := &e.s.me
	center := buf[0][:]
	interpolate(ref, refOff, stride, *mv, w, h, center)
	best := center
	if e.speed >= 9 || !e.qpelLimit.contains(*mv) {
		return minCost, best
	}

	ms1, ms2 := cache[1], cache[3]
	secondary, primary := point{-1, 0}, point{0, -1}
	if cache[3] >= cache[2] {
		primary, ms2 = point{0, 1}, cache[2]
	}
	if cache[1] >= cache[0] {
		secondary, ms1 = point{1, 0}, cache[0]
	}
	if ms2 > ms1 {
		secondary, primary = primary, secondary
	}
	diag := primary.add(secondary)

	h1, h2, h3 := buf[1][:], buf[2][:], buf[3][:]
	// spare returns an averaging buffer that does not hold the best
	// prediction so far.
	spare := func() []byte {
		if &best[0] == &buf[4][0] {
			return buf[5][:]
		}
		return buf[4][:]
	}
	vbest := *mv
	for i := 0; i < 7; i++ {
		var v point
		var t []byte
		switch i {
		case 0:
			v, t = mv.add(primary).add(primary), h1
			interpolate(ref, refOff, stride, v, w, h, t)
		case 1:
			v, t = mv.add(primary), spare()
			dsp.Average(center, h1, t, w, h)
		case 2:
			v, t = mv.add(secondary).add(secondary), h2
			interpolate(ref, refOff, stride, v, w, h, t)
		case 3:
			v, t = mv.add(secondary), spare()
			dsp.Average(center, h2, t, w, h)
		case 4:
			v, t = mv.add(diag), spare()
			dsp.Average(h1, h2, t, w, h)
		case 5:
			v, t = mv.add(diag).add(diag), h3
			interpolate(ref, refOff, stride, v, w, h, t)
		default:
			v, t = mv.add(primary).add(diag), spare()
			dsp.Average(h3, h1, t, w, h)
		}
		c := dsp.SAD(t, 0, dsp.BPS, b, w, h) + e.mvCost(v, pred)
		if c < minCost {
			minCost, vbest, best = c, v, t
		}
	}
	*mv = vbest
	return minCost, best
}

// partBits approximates the header bits of each partition mode.
var partBits = [4]int{1, 4, 4, 12}

// chooseInter decides between skip and the inter partition modes and
// finds their motion vectors.
func (e *Encoder) chooseInter() {
	preferred := [4]bool{true}
	pred16 := e.predictSkip()
	mvSkip := e.mb.mvSkipPred
	mvSkipAbs := e.absMV(mvSkip)
	ref := &e.ref[0]
	lq := int(lambdaQ4[e.qp])

	sadSkip, sadBest := math.MaxInt32, math.MaxInt32
	mvBest := mvNA
	candCostBest := 0
	first := 0
	cand := e.s.cand[:0]

	top := e.mvTop()
	for i := 0; i < 4; i++ {
		e.df.mv[4+5*i] = e.mvp.left[i]
		e.df.mv[i] = top[i]
	}

	if e.qpelLimit.contains(mvSkipAbs) {
		var sad4 [4]int
		e.predictLuma16(mvSkipAbs, e.ptest)
		sadSkip = dsp.SAD8x8(e.s.inp[:], 0, dsp.BPS, e.ptest, &sad4)
		if max(sad4[0], sad4[1], sad4[2], sad4[3]) < int(skipThrInter[e.qp]) {
			e.pbest, e.ptest = e.ptest, e.pbest
			e.mb.typ = mbSkip
			e.mb.mv[0] = mvSkip
			e.mb.cost = 0
			e.predictChroma()
			if e.chromaSkipOK() {
				return
			}
		}
		if e.speed < 1 {
			partitionHints(&sad4, &preferred)
		}
		mvBest = mvSkip.roundQpel()
		cand = append(cand, mvBest)
		if (mvSkip.x|mvSkip.y)&3 == 0 {
			sadBest = sadSkip
			candCostBest = e.mvCost(mvSkip, pred16)
			first = 1
		}
	}

	cand = append(cand, pred16)
	cand = e.neighbourCandidates(cand)
	if e.mbx == 0 {
		cand = append(cand, point{8 * 4, 0})
	}
	if e.mby == 0 {
		cand = append(cand, point{0, 8 * 4})
	}
	cand = append(cand, e.clusters[0], e.clusters[1])
	cand = refineCandidates(cand)

	for j := first; j < len(cand); j++ {
		mv := e.absMV(cand[j])
		if !e.mvLimit.contains(mv) {
			continue
		}
		candCost := e.mvCost(cand[j], pred16)
		var sad4 [4]int
		off := ref.Off + (mv.y>>2)*ref.Stride + mv.x>>2
		sad := dsp.SAD8x8(ref.Data, off, ref.Stride, e.s.inp[:], &sad4)
		if e.speed < 1 {
			partitionHints(&sad4, &preferred)
		}
		if sad+candCost < sadBest+candCostBest {
			candCostBest = candCost
			sadBest = sad
			mvBest = cand[j]
		}
	}
	sadBest += e.mvCost(mvBest, pred16)

	var ctx mvContext
	var partMV, partMVD [4][4]point
	e.saveMV(&ctx)
	e.mb.cost = 0xffffff
	best, test := e.pbest, e.ptest
	for t := mbP16x16; t <= mbP8x8; t++ {
		if !preferred[t] {
			continue
		}
		partCost := partBits[t] * lq >> 4
		w, h := 16, 16
		if t&2 != 0 {
			w = 8
		}
		if t&1 != 0 {
			h = 8
		}
		n := 0
		for py := 0; py < 16; py += h {
			for px := 0; px < 16; px += w {
				mbyq := e.mby*64 + py*4
				mvAbs, rng := e.setRange(e.absMV(mvBest), mbyq)
				pred := e.predictMV(px>>2, py>>2, w>>2, h>>2)
				predAbs := e.absMV(pred)
				in := e.s.inp[py*dsp.BPS+px:]
				start := sadBest
				if t != mbP16x16 {
					mvAbs, rng = e.setRange(predAbs.roundQpel(), mbyq)
					off := ref.Off + ((mvAbs.y>>2)+py)*ref.Stride + mvAbs.x>>2 + px
					start = dsp.SAD(ref.Data, off, ref.Stride, in, w, h) + e.mvCost(mvAbs, predAbs)
				}
				c, out := e.diamond(ref.Data, ref.Off+py*ref.Stride+px, ref.Stride, in, &mvAbs, &rng, predAbs, start, w, h)
				partCost += c
				dsp.Copy(test, py*dsp.BPS+px, dsp.BPS, out, 0, dsp.BPS, w, h)

				mv := mvAbs.sub(point{e.mbx * 64, e.mby * 64})
				partMV[t][n] = mv
				partMVD[t][n] = mv.sub(pred)
				n++
				e.putMV(px>>2, py>>2, w>>2, h>>2, mv)
			}
		}
		e.restoreMV(&ctx)
		if partCost < e.mb.cost {
			best, test = test, best
			e.mb.cost = partCost
			e.mb.typ = t
		}
	}
	e.pbest, e.ptest = best, test
	e.mb.mv = partMV[e.mb.typ]
	e.mb.mvd = partMVD[e.mb.typ]

	if e.mb.cost > sadSkip {
		e.mb.typ = mbP16x16
		e.mb.cost = sadSkip + e.mvCost(mvSkip, pred16)
		e.mb.mv[0] = mvSkip
		e.mb.mvd[0] = mvSkip.sub(pred16)
		e.predictLuma16(mvSkipAbs, e.pbest)
	}
}
