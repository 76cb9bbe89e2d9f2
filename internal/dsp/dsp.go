package dsp

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// BPS is the stride of every macroblock-local buffer (input cache,
// prediction candidates, chroma prediction pair).
const BPS = 16

// Neighbour availability flags. The most frequently tested bits sit in the
// low positions so the flags can index small lookup tables.
const (
	AvailT  = 1
	AvailL  = 2
	AvailTL = 4
	AvailTR = 8
)

// Kernels with more than one implementation. Init selects the variant for
// the running CPU; the generic versions are always kept for conformance tests.
var (
	// SAD returns the sum of absolute differences of a w x h block of a
	// (starting at aOff, stride aStride) against b (stride BPS).
	SAD func(a []byte, aOff, aStride int, b []byte, w, h int) int

	// SAD8x8 returns the 16x16 SAD of a against b (stride BPS) and stores
	// the four 8x8 quadrant SADs into sad in raster order.
	SAD8x8 func(a []byte, aOff, aStride int, b []byte, sad *[4]int) int

	// Average stores the rounded mean of two w x h blocks (all stride BPS).
	Average func(a, b, dst []byte, w, h int)
)

var wide bool

// Init selects kernel implementations. It is run from the package init and
// may be called again by tests that toggle the wide variants.
func Init() {
	wide = cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
	useWide(wide)
}

func useWide(on bool) {
	if on {
		SAD = sadWide
		SAD8x8 = sad8x8Wide
		Average = averageWide
		return
	}
	SAD = sadGeneric
	SAD8x8 = sad8x8Generic
	Average = averageGeneric
}

// AlignMask returns the mask that input plane addresses and strides must
// clear. Wide kernels load eight pixels at a time through unaligned
// little-endian reads, so no kernel set constrains alignment and the mask
// is zero.
func AlignMask() int {
	return 0
}

func init() {
	Init()
}

// Clip8 clamps v to [0, 255].
func Clip8(v int) byte {
	if v&^0xff == 0 {
		return byte(v)
	}
	if v < 0 {
		return 0
	}
	return 255
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func le64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func putLE64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}
