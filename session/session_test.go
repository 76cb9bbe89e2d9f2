package session

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/deepteams/h264"
	"github.com/deepteams/h264/internal/annexb"
)

func grayPicture(w, h int, v byte) *h264.Picture {
	p := h264.NewPicture(w, h)
	for _, pl := range []*h264.Plane{&p.Y, &p.U, &p.V} {
		for i := range pl.Data {
			pl.Data[i] = v
		}
	}
	return p
}

func TestCapabilities(t *testing.T) {
	got := Capabilities()
	want := Caps{
		MaxWidth: 4096, MaxHeight: 4096,
		MinWidth: 16, MinHeight: 16,
		GranularityX: 16, GranularityY: 16,
		MinQP: 10, MaxQP: 51,
		MaxSlices:          1,
		MaxL0References:    1,
		MaxDPBSlots:        2,
		BitstreamAlignment: 16,
		ProfileIDC:         66,
		MaxLevelIDC:        51,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsExtent(t *testing.T) {
	for _, cfg := range []Config{
		{Width: 8, Height: 16},
		{Width: 16, Height: 4098},
		{Width: 0, Height: 0},
	} {
		if _, err := New(cfg); !errors.Is(err, h264.ErrBadParameter) {
			t.Errorf("New(%dx%d): err = %v, want %v", cfg.Width, cfg.Height, err, h264.ErrBadParameter)
		}
	}
	if _, err := New(Config{Width: 33, Height: 32}); !errors.Is(err, h264.ErrSizeNotMultiple2) {
		t.Errorf("odd width: err = %v, want %v", err, h264.ErrSizeNotMultiple2)
	}
	if _, err := New(Config{Width: 32, Height: 32, Options: &h264.Options{QP: 99}}); err == nil {
		t.Error("invalid options accepted")
	}
}

func TestEncodeFrameTypes(t *testing.T) {
	opts := h264.DefaultOptions()
	opts.KeyframeInterval = 2
	s, err := New(Config{Width: 32, Height: 32, Options: opts})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	state, scratch := s.MemoryFootprint()
	if state <= 0 || scratch <= 0 {
		t.Errorf("footprint %d/%d, want positive", state, scratch)
	}

	in := grayPicture(32, 32, 128)
	tests := []struct {
		fp   FrameParams
		want h264.FrameType
		nals []int
	}{
		{FrameParams{}, h264.FrameKey, []int{annexb.TypeSPS, annexb.TypePPS, annexb.TypeIDR}},
		{FrameParams{}, h264.FrameP, []int{annexb.TypeSlice}},
		{FrameParams{}, h264.FrameKey, []int{annexb.TypeSPS, annexb.TypePPS, annexb.TypeIDR}},
		{FrameParams{FrameType: h264.FrameI, QP: 30}, h264.FrameI, []int{annexb.TypeSlice}},
		{FrameParams{FrameType: h264.FrameP}, h264.FrameP, []int{annexb.TypeSlice}},
	}
	for i, tt := range tests {
		res, err := s.EncodeFrame(in, tt.fp)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if res.FrameType != tt.want {
			t.Errorf("frame %d: type %v, want %v", i, res.FrameType, tt.want)
		}
		var types []int
		for _, nal := range res.NALs {
			types = append(types, annexb.Type(nal))
		}
		if diff := cmp.Diff(tt.nals, types); diff != "" {
			t.Errorf("frame %d: NAL types (-want +got):\n%s", i, diff)
		}
	}
}

func TestFirstFrameIsKey(t *testing.T) {
	for _, typ := range []h264.FrameType{h264.FrameP, h264.FrameI} {
		s, err := New(Config{Width: 16, Height: 16})
		if err != nil {
			t.Fatal(err)
		}
		res, err := s.EncodeFrame(grayPicture(16, 16, 90), FrameParams{FrameType: typ})
		if err != nil {
			t.Fatalf("first frame as %v: %v", typ, err)
		}
		if res.FrameType != h264.FrameKey {
			t.Errorf("first frame requested as %v coded as %v, want IDR", typ, res.FrameType)
		}
	}
}

func TestResultBytesCopies(t *testing.T) {
	s, err := New(Config{Width: 16, Height: 16})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.EncodeFrame(grayPicture(16, 16, 60), FrameParams{})
	if err != nil {
		t.Fatal(err)
	}
	kept := res.Bytes()
	if !bytes.Equal(kept, res.Data) {
		t.Fatal("Bytes differs from Data")
	}
	if _, err := s.EncodeFrame(grayPicture(16, 16, 200), FrameParams{FrameType: h264.FrameKey}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(kept, []byte{0, 0, 0, 1}) {
		t.Error("copied bytes were overwritten")
	}
}

func TestEncodeAfterClose(t *testing.T) {
	s, err := New(Config{Width: 16, Height: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.EncodeFrame(grayPicture(16, 16, 0), FrameParams{}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want %v", err, ErrClosed)
	}
}

func TestEncodeFrameBufferError(t *testing.T) {
	s, err := New(Config{Width: 32, Height: 32})
	if err != nil {
		t.Fatal(err)
	}
	in := grayPicture(32, 32, 10)
	in.U.Stride = 8
	_, err = s.EncodeFrame(in, FrameParams{})
	if h264.StatusCode(err) != h264.StatusBadChromaStride {
		t.Errorf("status %d (%v), want %d", h264.StatusCode(err), err, h264.StatusBadChromaStride)
	}
}
