package h264_test

import (
	"bytes"
	"fmt"

	"github.com/deepteams/h264"
	"github.com/deepteams/h264/internal/annexb"
)

func ExampleSizeof() {
	_, _, err := h264.Sizeof(&h264.Params{Width: 641, Height: 480})
	fmt.Println(h264.StatusCode(err), err)
	// Output:
	// 5 641x480: h264: width and height must be even
}

func ExampleEncoder_Encode() {
	p := &h264.Params{Width: 64, Height: 48}
	enc, err := h264.New(p)
	if err != nil {
		fmt.Println(err)
		return
	}
	s, _ := h264.NewScratch(p)
	in := h264.NewPicture(64, 48)
	dec := h264.NewPicture(64, 48)

	rp := &h264.RunParams{FrameType: h264.FrameKey, QP: 26, ParameterSets: true}
	out, err := enc.Encode(s, rp, in, nil, dec)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, nal := range annexb.Split(out) {
		fmt.Println(annexb.TypeName(annexb.Type(nal)))
	}
	// Output:
	// sps
	// pps
	// idr
}

func ExampleWriter() {
	var buf bytes.Buffer
	opts := h264.DefaultOptions()
	opts.KeyframeInterval = 2
	w, err := h264.NewWriter(&buf, 32, 32, opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	in := h264.NewPicture(32, 32)
	for i := 0; i < 3; i++ {
		t, err := w.WriteFrame(in)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(t)
	}
	// Output:
	// IDR
	// P
	// IDR
}
