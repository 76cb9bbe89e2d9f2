// Package h264 provides a pure Go H.264 baseline profile encoder.
//
// The encoder takes YUV 4:2:0 pictures and produces Annex-B byte streams:
// constant QP, one CAVLC slice per picture, intra 4x4/16x16 and P
// macroblocks with quarter-pel motion down to 8x8 partitions, and the
// in-loop deblocking filter. It is single threaded and does no I/O; each
// Encode call codes exactly one picture.
//
// The low level API mirrors a host-managed codec: Sizeof reports memory
// needs, New and NewScratch allocate, and Encoder.Encode takes explicit
// input, reference and reconstruction pictures:
//
//	p := &h264.Params{Width: 640, Height: 480}
//	enc, _ := h264.New(p)
//	s, _ := h264.NewScratch(p)
//	ref, dec := h264.NewPicture(640, 480), h264.NewPicture(640, 480)
//	nal, err := enc.Encode(s, &h264.RunParams{FrameType: h264.FrameKey, QP: 26, ParameterSets: true}, in, nil, dec)
//
// Writer manages the picture pair itself and streams to an io.Writer:
//
//	w, err := h264.NewWriter(out, 640, 480, h264.DefaultOptions())
//	_, err = w.WriteFrame(in)
package h264
