package dsp

// 4x4 integer transforms. Forward output is stored transposed: coefficient
// (row v, column h) of the spectrum lives at index v + 4*h. The inverse
// transform consumes that layout and produces a raster-order residual.

func fwd4(x0, x1, x2, x3 int, out []int16, s int) {
	t0 := x0 + x3
	t1 := x0 - x3
	t2 := x1 + x2
	t3 := x1 - x2
	out[0] = int16(t0 + t2)
	out[s] = int16(t1*2 + t3)
	out[2*s] = int16(t0 - t2)
	out[3*s] = int16(t1 - t3*2)
}

// FwdTransform computes the forward core transform of inp - pred, where
// inp starts at off with stride inpStride and pred has stride BPS.
func FwdTransform(inp []byte, off, inpStride int, pred []byte, out *[16]int16) {
	var tmp [16]int16
	for i := 0; i < 4; i++ {
		f0 := int(inp[off+i]) - int(pred[i])
		f1 := int(inp[off+inpStride+i]) - int(pred[BPS+i])
		f2 := int(inp[off+2*inpStride+i]) - int(pred[2*BPS+i])
		f3 := int(inp[off+3*inpStride+i]) - int(pred[3*BPS+i])
		fwd4(f0, f1, f2, f3, tmp[i*4:], 1)
	}
	for i := 0; i < 4; i++ {
		fwd4(int(tmp[i]), int(tmp[i+4]), int(tmp[i+8]), int(tmp[i+12]), out[i:], 4)
	}
}

// InvTransform applies the inverse core transform in place, including the
// final (x+32)>>6 rounding.
func InvTransform(d *[16]int16) {
	var tmp [16]int
	for i := 0; i < 16; i += 4 {
		d0 := int(d[i>>2])
		d1 := int(d[i>>2+4])
		d2 := int(d[i>>2+8])
		d3 := int(d[i>>2+12])
		e0 := d0 + d2
		e1 := d0 - d2
		e2 := d1>>1 - d3
		e3 := d1 + d3>>1
		tmp[i] = e0 + e3
		tmp[i+1] = e1 + e2
		tmp[i+2] = e1 - e2
		tmp[i+3] = e0 - e3
	}
	for i := 0; i < 4; i++ {
		f0, f1, f2, f3 := tmp[i], tmp[i+4], tmp[i+8], tmp[i+12]
		g0 := f0 + f2
		g1 := f0 - f2
		g2 := f1>>1 - f3
		g3 := f1 + f3>>1
		d[i] = int16((g0 + g3 + 32) >> 6)
		d[i+4] = int16((g1 + g2 + 32) >> 6)
		d[i+8] = int16((g1 - g2 + 32) >> 6)
		d[i+12] = int16((g0 - g3 + 32) >> 6)
	}
}

// AddResidual inverse-transforms d and writes clip(pred + residual) to
// out at off. pred has stride BPS.
func AddResidual(out []byte, off, stride int, pred []byte, d *[16]int16) {
	InvTransform(d)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			out[off+j*stride+i] = Clip8(int(d[j*4+i]) + int(pred[j*BPS+i]))
		}
	}
}

func sat16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Hadamard4 is the 4x4 Walsh-Hadamard transform used for luma DC terms.
// Like the core transform it writes its output transposed. Results are
// saturated to int16.
func Hadamard4(x *[16]int16) {
	var tmp [16]int16
	pass := func(in, out *[16]int16, col, step int) {
		for c := 0; c < 4; c++ {
			a, b, cc, d := int(in[c]), int(in[c+4]), int(in[c+8]), int(in[c+12])
			a, cc = a+cc, a-cc
			b, d = b+d, b-d
			a, b = a+b, a-b
			cc, d = cc+d, cc-d
			o := c * col
			out[o] = sat16(a)
			out[o+step] = sat16(cc)
			out[o+2*step] = sat16(d)
			out[o+3*step] = sat16(b)
		}
	}
	pass(x, &tmp, 4, 1)
	pass(&tmp, x, 1, 4)
}

// Hadamard2 is the 2x2 transform used for chroma DC terms.
func Hadamard2(x *[4]int16) {
	a, b, c, d := int(x[0]), int(x[1]), int(x[2]), int(x[3])
	x[0] = int16(a + b + c + d)
	x[1] = int16(a - b + c - d)
	x[2] = int16(a + b - c - d)
	x[3] = int16(a - b - c + d)
}
