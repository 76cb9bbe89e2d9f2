package h264

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deepteams/h264/internal/annexb"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		ok   bool
	}{
		{"default", func(*Options) {}, true},
		{"qp 0", func(o *Options) { o.QP = 0 }, true},
		{"qp 51", func(o *Options) { o.QP = 51 }, true},
		{"qp 52", func(o *Options) { o.QP = 52 }, false},
		{"negative qp", func(o *Options) { o.QP = -1 }, false},
		{"speed 10", func(o *Options) { o.Speed = 10 }, true},
		{"speed 11", func(o *Options) { o.Speed = 11 }, false},
		{"negative interval", func(o *Options) { o.KeyframeInterval = -1 }, false},
	}
	for _, tt := range tests {
		o := DefaultOptions()
		tt.mod(o)
		if err := o.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestWriterKeyframeInterval(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.KeyframeInterval = 3
	opts.Speed = 9
	w, err := NewWriter(&buf, 32, 32, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []FrameType{FrameKey, FrameP, FrameP, FrameKey, FrameP, FrameKey, FrameP, FrameP}
	for i := range want {
		if i == 5 {
			w.ForceKeyframe()
		}
		got, err := w.WriteFrame(testPicture(32, 32, i, 1))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != want[i] {
			t.Errorf("frame %d: type %v, want %v", i, got, want[i])
		}
	}
	if w.Frames() != len(want) {
		t.Errorf("Frames() = %d, want %d", w.Frames(), len(want))
	}
	if w.Size() != int64(buf.Len()) {
		t.Errorf("Size() = %d, buffer holds %d", w.Size(), buf.Len())
	}

	var idr, sps int
	for _, nal := range annexb.Split(buf.Bytes()) {
		switch annexb.Type(nal) {
		case annexb.TypeIDR:
			idr++
		case annexb.TypeSPS:
			sps++
		}
	}
	if idr != 3 || sps != 3 {
		t.Errorf("stream has %d IDR slices and %d SPS, want 3 each", idr, sps)
	}
}

func TestWriterStaticSceneShrinks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 64, 64, nil)
	if err != nil {
		t.Fatal(err)
	}
	in := testPicture(64, 64, 0, 5)
	var sizes []int
	for i := 0; i < 3; i++ {
		data, _, err := w.EncodeFrame(in)
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, len(data))
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i]*2 > sizes[0] {
			t.Errorf("repeated frame %d: %d bytes against %d for the keyframe", i, sizes[i], sizes[0])
		}
	}
	if buf.Len() != 0 {
		t.Errorf("EncodeFrame wrote %d bytes", buf.Len())
	}
}

func TestWriterReconstruction(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, 32, 32, &Options{QP: 10, Speed: 5, ParameterSets: true})
	if err != nil {
		t.Fatal(err)
	}
	in := testPicture(32, 32, 0, 2)
	if _, err := w.WriteFrame(in); err != nil {
		t.Fatal(err)
	}
	rec := w.Reconstruction()
	var maxDiff int
	for j := 0; j < 32; j++ {
		for i := 0; i < 32; i++ {
			d := int(in.Y.Data[in.Y.Off+j*in.Y.Stride+i]) - int(rec.Y.Data[rec.Y.Off+j*rec.Y.Stride+i])
			maxDiff = max(maxDiff, d, -d)
		}
	}
	if maxDiff > 12 {
		t.Errorf("reconstruction at QP 10 differs by up to %d", maxDiff)
	}
}

type failWriter struct{}

var errWrite = errors.New("disk full")

func (failWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestWriterErrors(t *testing.T) {
	if _, err := NewWriter(nil, 16, 16, nil); !errors.Is(err, ErrBadArgument) {
		t.Errorf("nil writer: err = %v, want %v", err, ErrBadArgument)
	}
	if _, err := NewWriter(&bytes.Buffer{}, 15, 16, nil); !errors.Is(err, ErrSizeNotMultiple2) {
		t.Errorf("odd width: err = %v, want %v", err, ErrSizeNotMultiple2)
	}
	if _, err := NewWriter(&bytes.Buffer{}, 16, 16, &Options{Speed: 12}); err == nil {
		t.Error("invalid options accepted")
	}

	w, err := NewWriter(failWriter{}, 16, 16, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteFrame(testPicture(16, 16, 0, 1)); !errors.Is(err, errWrite) {
		t.Errorf("write failure: err = %v, want %v", err, errWrite)
	}
}
