// Package baseline implements a constant-QP H.264 baseline profile encoder
// producing one CAVLC slice per picture.
//
// The encoder works on padded pictures: every plane is a whole number of
// macroblocks wide and high and is surrounded by a guard band of
// replicated pixels (16 for luma, 8 for chroma) that motion compensation
// may read.
package baseline

import (
	"unsafe"

	"github.com/deepteams/h264/internal/bitio"
	"github.com/deepteams/h264/internal/cavlc"
	"github.com/deepteams/h264/internal/dsp"
)

// FrameType selects how a picture is coded.
type FrameType int

const (
	// FrameP is predicted from the reference picture.
	FrameP FrameType = 2
	// FrameI is intra coded without resetting the decoder.
	FrameI FrameType = 5
	// FrameKey is an IDR picture.
	FrameKey FrameType = 6
)

// Guard band widths around the luma and chroma planes.
const (
	LumaGuard   = 16
	ChromaGuard = 8
)

// Macroblock types. Inter types double as partition selectors: bit 1
// halves the width, bit 0 the height.
const (
	mbSkip    = -1
	mbP16x16  = 0
	mbP16x8   = 1
	mbP8x16   = 2
	mbP8x8    = 3
	mbI4x4    = 5
	mbI16x16  = 6
	maxMVCand = 16
)

// Plane is one image plane. Pixel (0, 0) is Data[Off].
type Plane struct {
	Data   []byte
	Stride int
	Off    int
}

// Frame holds the Y, U and V planes of a picture.
type Frame [3]Plane

// NewFrame allocates a padded picture able to hold width x height pixels.
func NewFrame(width, height int) Frame {
	var f Frame
	w, h := (width+15)&^15, (height+15)&^15
	guard := LumaGuard
	for c := range f {
		stride := w + 2*guard
		f[c] = Plane{
			Data:   make([]byte, stride*(h+2*guard)),
			Stride: stride,
			Off:    guard*stride + guard,
		}
		if c == 0 {
			w, h, guard = w/2, h/2, ChromaGuard
		}
	}
	return f
}

// RunParams controls the coding of one picture.
type RunParams struct {
	Type FrameType
	// QP is clamped to [MinQP, MaxQP].
	QP int
	// Speed trades compression for time, 0 (slowest) to 10. Speeds 8 and 10
	// also disable the loop filter.
	Speed int
	// ParameterSets emits SPS and PPS in front of key pictures.
	ParameterSets bool
	// DisableDeblock turns the loop filter off regardless of Speed.
	DisableDeblock bool
}

// macroblock is the coding decision for the current macroblock.
type macroblock struct {
	typ      int
	cost     int
	predMode int
	i4Modes  [16]int8
	// Per partition, in coding order.
	mv, mvd    [4]point
	mvSkipPred point
}

// Scratch holds the per-call working memory of an Encoder: macroblock
// buffers and the coded output. It may be shared between encoders of the
// same size that do not run concurrently.
type Scratch struct {
	inp   [256]byte
	uvInp [2][64]byte
	store [2][256]byte
	plane [256]byte
	// U in columns 0-7, V in 8-15.
	predUV [8 * dsp.BPS]byte
	me     [6][256]byte
	cand   [maxMVCand]point

	qy                 [16]quantBlock
	qu, qv             [4]quantBlock
	dcY, quantDC       [16]int16
	dcU, dcV           [4]int16
	quantDCU, quantDCV [4]int16
	nzMask             uint16

	out, payload []byte
	nal          *bitio.NALWriter
}

// OutputSize bounds the coded size of one picture, parameter sets included.
func OutputSize(width, height int) int {
	nmb := ((width + 15) >> 4) * ((height + 15) >> 4)
	return nmb*(384+2+10)*3/2 + 64
}

// ScratchSize returns the bytes NewScratch allocates for width x height
// pictures.
func ScratchSize(width, height int) int {
	n := OutputSize(width, height)
	return int(unsafe.Sizeof(Scratch{})) + int(unsafe.Sizeof(bitio.NALWriter{})) + 2*n + 8
}

// StateSize returns the bytes held by an Encoder for width x height
// pictures, per-column prediction contexts included.
func StateSize(width, height int) int {
	mbw := (width + 15) >> 4
	ptSize := int(unsafe.Sizeof(point{}))
	perColumn := 4*ptSize + 4 + 1 + 1 + 8 + 4 + 32
	return int(unsafe.Sizeof(Encoder{})) + mbw*perColumn + 8*ptSize + 32
}

// NewScratch allocates scratch memory for width x height pictures.
func NewScratch(width, height int) *Scratch {
	s := &Scratch{}
	n := OutputSize(width, height)
	s.out = make([]byte, n)
	s.payload = make([]byte, n+8)
	s.nal = bitio.NewNALWriter(s.out, s.payload)
	return s
}

// Encoder holds the state that persists between pictures.
type Encoder struct {
	width, height int
	mbw, mbh, nmb int
	cropping      bool
	mvLimit       rect
	qpelLimit     rect

	picInitQP int
	idrID     int
	frameNum  int
	clusters  [2]point

	// Picture state, valid during Encode.
	s              *Scratch
	nal            *bitio.NALWriter
	in, ref, dec   Frame
	sliceP         bool
	speed          int
	disableDeblock bool
	qp, prevQP     int
	quant          [2]quantParams

	// Macroblock position and slice contexts.
	mbx, mby     int
	mbNum        int
	startMB      int
	avail        int
	cropped      bool
	skipRun      int
	mb           macroblock
	pbest, ptest []byte

	mvp      mvPredictor
	df       deblockState
	nnzAbove []int8
	nnzLeft  [8]int8
	i4Top    []int8
	i4Left   [4]int8
	// Reconstructed neighbour pixels. Per macroblock column topLine holds
	// the bottom rows of Y (0-15), U (16-23) and V (24-31); leftLine holds
	// the right columns in the same layout.
	topLine  []byte
	leftLine [32]byte
	topLeft  [3]byte
}

// New returns an encoder for width x height pictures. The caller is
// responsible for validating the dimensions.
func New(width, height int) *Encoder {
	e := &Encoder{width: width, height: height}
	e.mbw = (width + 15) >> 4
	e.mbh = (height + 15) >> 4
	e.nmb = e.mbw * e.mbh
	e.cropping = (width|height)&15 != 0
	e.mvLimit = rect{
		tl: point{-mvGuard * 4, -mvGuard * 4},
		br: point{(e.mbw*16 - (16 - mvGuard)) * 4, (e.mbh*16 - (16 - mvGuard)) * 4},
	}
	e.qpelLimit = rect{
		tl: e.mvLimit.tl.add(point{16, 16}),
		br: e.mvLimit.br.sub(point{16, 16}),
	}
	e.mvp.top = make([]point, e.mbw*4+8)
	e.df = newDeblockState(e.mbw)
	e.nnzAbove = make([]int8, e.mbw*8)
	e.i4Top = make([]int8, e.mbw*4)
	e.topLine = make([]byte, (e.mbw+1)*32)
	return e
}

// Width returns the picture width in pixels.
func (e *Encoder) Width() int { return e.width }

// Height returns the picture height in pixels.
func (e *Encoder) Height() int { return e.height }

// MBCount returns the number of macroblocks per picture.
func (e *Encoder) MBCount() int { return e.nmb }

// Encode codes in and returns the Annex-B bytes, which stay valid until the
// next call using s. The reconstruction is written to dec, with its guard
// band filled; P pictures predict from ref, which must be the dec of the
// previous call.
func (e *Encoder) Encode(s *Scratch, rp RunParams, in, ref, dec *Frame) []byte {
	e.s = s
	e.nal = s.nal
	e.nal.Reset()
	e.in = *in
	e.dec = *dec
	if ref != nil {
		e.ref = *ref
	}
	e.speed = rp.Speed
	e.disableDeblock = rp.DisableDeblock || rp.Speed == 8 || rp.Speed == 10
	qp := clampQP(rp.QP)

	key := rp.Type == FrameKey
	if key {
		e.picInitQP = qp
		e.idrID ^= 1
		e.frameNum = 0
		if rp.ParameterSets {
			e.writeSPS()
			e.writePPS()
		}
	}
	e.sliceP = rp.Type == FrameP
	e.setQP(qp)

	e.mbx, e.mby, e.mbNum = 0, 0, 0
	e.df.reset()
	e.encodeSlice(key)
	e.addBorders()
	e.frameNum++
	return e.nal.Bytes()
}

func (e *Encoder) encodeSlice(key bool) {
	e.writeSliceHeader(key)
	for e.mby = 0; e.mby < e.mbh; e.mby++ {
		for e.mbx = 0; e.mbx < e.mbw; e.mbx++ {
			e.encodeMB()
			e.mbNum++
		}
		for i := range e.nnzLeft {
			e.nnzLeft[i] = cavlc.NA
		}
		for i := range e.i4Left {
			e.i4Left[i] = -1
		}
	}
	if e.skipRun > 0 {
		e.nal.Bits().PutUE(uint32(e.skipRun))
	}
	e.nal.End()
}

// availFlags returns the neighbours of the current macroblock that lie in
// the slice.
func (e *Encoder) availFlags() int {
	n, start := e.mbNum, e.startMB
	flag := 0
	if n >= start+e.mbw {
		flag |= dsp.AvailT
	}
	if n >= start+e.mbw-1 && e.mbx != e.mbw-1 {
		flag |= dsp.AvailTR
	}
	if n != start && e.mbx != 0 {
		flag |= dsp.AvailL
	}
	if n > start+e.mbw && e.mbx != 0 {
		flag |= dsp.AvailTL
	}
	return flag
}

// mbOffset returns the offset of the current macroblock in plane c.
func (e *Encoder) mbOffset(c int) int {
	p := &e.dec[c]
	n := 16
	if c > 0 {
		n = 8
	}
	return p.Off + e.mby*n*p.Stride + e.mbx*n
}

// loadInput caches the luma input of the current macroblock, replicating
// the picture edge into the part outside it.
func (e *Encoder) loadInput() {
	y := &e.in[0]
	off := y.Off + e.mby*16*y.Stride + e.mbx*16
	if e.cropped {
		w := min(16, e.width-e.mbx*16)
		h := min(16, e.height-e.mby*16)
		dsp.CopyCropped(e.s.inp[:], 16, y.Data, off, y.Stride, w, h)
		return
	}
	dsp.Copy(e.s.inp[:], 0, dsp.BPS, y.Data, off, y.Stride, 16, 16)
}

func (e *Encoder) encodeMB() {
	e.avail = e.availFlags()
	e.cropped = e.cropping && ((e.mbx+1)*16 > e.width || (e.mby+1)*16 > e.height)
	e.loadInput()

	var left, top []byte
	if e.avail&dsp.AvailL != 0 {
		left = e.leftLine[:]
	}
	if e.avail&dsp.AvailT != 0 {
		top = e.topLine[e.mbx*32 : e.mbx*32+32]
	}

	e.pbest, e.ptest = e.s.store[0][:], e.s.store[1][:]
	e.mb.typ = mbP16x16
	e.mb.cost = 0x7fffffff

	if e.sliceP {
		e.chooseInter()
	}
	if e.mb.typ != mbSkip {
		e.chooseIntra16x16(left, top)
		if e.speed < 2 || !e.sliceP {
			e.chooseIntra4x4()
		}
	}

	if e.mb.typ < mbI4x4 {
		e.updateClusters(e.mb.mv[0])
		e.predictChroma()
	} else {
		var l, t []byte
		if left != nil {
			l = left[16:32]
		}
		if top != nil {
			t = top[16:32]
		}
		dsp.PredictChroma(e.s.predUV[:], l, t, [2]byte{e.topLeft[1], e.topLeft[2]}, e.mb.predMode)
	}

	e.writeMB()

	if !e.disableDeblock {
		e.strength()
		e.deblockMB(e.prevQP)
	}
}

// addBorders fills the guard band of the reconstruction.
func (e *Encoder) addBorders() {
	w, h, guard := e.mbw*16, e.mbh*16, LumaGuard
	for c := range e.dec {
		p := &e.dec[c]
		dsp.CopyBorders(p.Data, p.Off, w, h, p.Stride, guard)
		if c == 0 {
			w, h, guard = w/2, h/2, ChromaGuard
		}
	}
}
