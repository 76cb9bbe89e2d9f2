package dsp

// Copy copies a w x h block between two strided buffers.
func Copy(dst []byte, dstOff, dstStride int, src []byte, srcOff, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst[dstOff+y*dstStride:dstOff+y*dstStride+w], src[srcOff+y*srcStride:])
	}
}

// CopyCropped copies a w x h corner of a macroblock into a square
// side x side buffer (stride side), replicating the last column to the
// right and the last row downwards.
func CopyCropped(d []byte, side int, s []byte, sOff, sStride, w, h int) {
	for y := 0; y < h; y++ {
		row := d[y*side : (y+1)*side]
		copy(row[:w], s[sOff+y*sStride:])
		last := row[w-1]
		for x := w; x < side; x++ {
			row[x] = last
		}
	}
	for y := h; y < side; y++ {
		copy(d[y*side:(y+1)*side], d[(h-1)*side:h*side])
	}
}

// CopyBorders replicates the outermost pixels of a w x h picture, whose
// pixel (0,0) sits at off, into a guard-pixel margin on every side.
func CopyBorders(pic []byte, off, w, h, stride, guard int) {
	for y := 0; y < h; y++ {
		row := off + y*stride
		l, r := pic[row], pic[row+w-1]
		for x := 1; x <= guard; x++ {
			pic[row-x] = l
			pic[row+w-1+x] = r
		}
	}
	top := off - guard
	bottom := off + (h-1)*stride - guard
	for y := 1; y <= guard; y++ {
		copy(pic[top-y*stride:top-y*stride+w+2*guard], pic[top:])
		copy(pic[bottom+y*stride:bottom+y*stride+w+2*guard], pic[bottom:])
	}
}
