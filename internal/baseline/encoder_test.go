package baseline

import (
	"bytes"
	"math"
	"testing"

	"github.com/deepteams/h264/internal/annexb"
)

// --- Helpers ---

// scene fills a frame with a smooth background and a textured square whose
// top-left corner sits at (sx, sy).
func scene(w, h, sx, sy int) Frame {
	f := NewFrame(w, h)
	y := &f[0]
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			v := 40 + (i+j)*120/(w+h)
			if i >= sx && i < sx+24 && j >= sy && j < sy+24 {
				v = 150 + ((i-sx)*7+(j-sy)*13)%80
			}
			y.Data[y.Off+j*y.Stride+i] = byte(v)
		}
	}
	for c := 1; c < 3; c++ {
		p := &f[c]
		for j := 0; j < h/2; j++ {
			for i := 0; i < w/2; i++ {
				p.Data[p.Off+j*p.Stride+i] = byte(100 + c*20 + i/2 - j/3)
			}
		}
	}
	return f
}

func lumaPSNR(a, b *Frame, w, h int) float64 {
	pa, pb := &a[0], &b[0]
	var sse float64
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d := float64(pa.Data[pa.Off+j*pa.Stride+i]) - float64(pb.Data[pb.Off+j*pb.Stride+i])
			sse += d * d
		}
	}
	if sse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255*float64(w*h)/sse)
}

type stream struct {
	sps *annexb.SPS
	pps *annexb.PPS
}

func (st *stream) parse(t *testing.T, data []byte) []*annexb.SliceHeader {
	t.Helper()
	var slices []*annexb.SliceHeader
	for _, nal := range annexb.Split(data) {
		var err error
		switch annexb.Type(nal) {
		case annexb.TypeSPS:
			st.sps, err = annexb.ParseSPS(nal)
		case annexb.TypePPS:
			st.pps, err = annexb.ParsePPS(nal)
		case annexb.TypeSlice, annexb.TypeIDR:
			if st.sps == nil || st.pps == nil {
				t.Fatal("slice before parameter sets")
			}
			var h *annexb.SliceHeader
			h, err = annexb.ParseSliceHeader(nal, st.sps, st.pps)
			slices = append(slices, h)
		}
		if err != nil {
			t.Fatalf("parse NAL type %d: %v", annexb.Type(nal), err)
		}
	}
	return slices
}

// --- Tests ---

func TestEncodeKeyFrameStructure(t *testing.T) {
	const w, h = 64, 48
	e := New(w, h)
	s := NewScratch(w, h)
	in := scene(w, h, 8, 8)
	dec := NewFrame(w, h)

	out := e.Encode(s, RunParams{Type: FrameKey, QP: 26, Speed: 5, ParameterSets: true}, &in, nil, &dec)
	nals := annexb.Split(out)
	want := []int{annexb.TypeSPS, annexb.TypePPS, annexb.TypeIDR}
	if len(nals) != len(want) {
		t.Fatalf("got %d NAL units, want %d", len(nals), len(want))
	}
	for i, nal := range nals {
		if annexb.Type(nal) != want[i] {
			t.Errorf("NAL %d: type %d, want %d", i, annexb.Type(nal), want[i])
		}
		if annexb.RefIDC(nal) != 3 {
			t.Errorf("NAL %d: nal_ref_idc %d, want 3", i, annexb.RefIDC(nal))
		}
	}

	var st stream
	slices := st.parse(t, out)
	if st.sps.ProfileIDC != profileBaseline {
		t.Errorf("profile_idc = %d, want %d", st.sps.ProfileIDC, profileBaseline)
	}
	if st.sps.LevelIDC != 10 {
		t.Errorf("level_idc = %d, want 10", st.sps.LevelIDC)
	}
	if st.sps.Width() != w || st.sps.Height() != h {
		t.Errorf("SPS size %dx%d, want %dx%d", st.sps.Width(), st.sps.Height(), w, h)
	}
	if st.pps.PicInitQP != 26 {
		t.Errorf("pic_init_qp = %d, want 26", st.pps.PicInitQP)
	}
	sh := slices[0]
	if sh.SliceType != annexb.SliceI || sh.FirstMB != 0 || sh.FrameNum != 0 || sh.QP != 26 {
		t.Errorf("slice header = %+v", *sh)
	}
	if sh.IDRPicID != 1 {
		t.Errorf("idr_pic_id = %d, want 1", sh.IDRPicID)
	}
}

func TestEncodeCropping(t *testing.T) {
	sizes := []struct{ w, h int }{{50, 30}, {16, 18}, {34, 64}}
	for _, sz := range sizes {
		e := New(sz.w, sz.h)
		s := NewScratch(sz.w, sz.h)
		in := scene(sz.w, sz.h, 0, 0)
		dec := NewFrame(sz.w, sz.h)
		out := e.Encode(s, RunParams{Type: FrameKey, QP: 30, ParameterSets: true}, &in, nil, &dec)

		var st stream
		st.parse(t, out)
		if st.sps.Width() != sz.w || st.sps.Height() != sz.h {
			t.Errorf("%dx%d: SPS size %dx%d", sz.w, sz.h, st.sps.Width(), st.sps.Height())
		}
		if got := lumaPSNR(&in, &dec, sz.w, sz.h); got < 26 {
			t.Errorf("%dx%d: PSNR %.2f dB, want >= 26", sz.w, sz.h, got)
		}
	}
}

func TestEncodeReconstructionQuality(t *testing.T) {
	const w, h = 96, 64
	tests := []struct {
		qp      int
		minPSNR float64
	}{
		{12, 42},
		{24, 34},
		{40, 24},
	}
	for _, tt := range tests {
		e := New(w, h)
		s := NewScratch(w, h)
		in := scene(w, h, 20, 12)
		dec := NewFrame(w, h)
		e.Encode(s, RunParams{Type: FrameKey, QP: tt.qp, Speed: 0}, &in, nil, &dec)
		if got := lumaPSNR(&in, &dec, w, h); got < tt.minPSNR {
			t.Errorf("qp %d: PSNR %.2f dB, want >= %.0f", tt.qp, got, tt.minPSNR)
		}
	}
}

func TestEncodeStaticPFrame(t *testing.T) {
	const w, h = 64, 64
	e := New(w, h)
	s := NewScratch(w, h)
	in := scene(w, h, 16, 16)
	ref, dec := NewFrame(w, h), NewFrame(w, h)

	var st stream
	key := append([]byte(nil), e.Encode(s, RunParams{Type: FrameKey, QP: 28, ParameterSets: true}, &in, nil, &ref)...)
	st.parse(t, key)

	p := e.Encode(s, RunParams{Type: FrameP, QP: 28, Speed: 3}, &in, &ref, &dec)
	slices := st.parse(t, p)
	if len(slices) != 1 {
		t.Fatalf("got %d slices, want 1", len(slices))
	}
	if slices[0].SliceType != annexb.SliceP || slices[0].FrameNum != 1 {
		t.Errorf("P slice header = %+v", *slices[0])
	}
	if len(p)*2 > len(key) {
		t.Errorf("static P frame is %d bytes against %d for the key frame", len(p), len(key))
	}
	if got := lumaPSNR(&in, &dec, w, h); got < 30 {
		t.Errorf("P reconstruction PSNR %.2f dB, want >= 30", got)
	}
}

func TestEncodeMovingContent(t *testing.T) {
	const w, h = 80, 64
	for _, speed := range []int{0, 1, 5, 9} {
		e := New(w, h)
		s := NewScratch(w, h)
		ref, dec := NewFrame(w, h), NewFrame(w, h)
		f0 := scene(w, h, 20, 16)
		f1 := scene(w, h, 23, 17)

		key := len(e.Encode(s, RunParams{Type: FrameKey, QP: 24, Speed: speed}, &f0, nil, &ref))
		p := len(e.Encode(s, RunParams{Type: FrameP, QP: 24, Speed: speed}, &f1, &ref, &dec))
		if p >= key {
			t.Errorf("speed %d: P frame %d bytes, key frame %d bytes", speed, p, key)
		}
		if got := lumaPSNR(&f1, &dec, w, h); got < 30 {
			t.Errorf("speed %d: PSNR %.2f dB, want >= 30", speed, got)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	const w, h = 48, 48
	run := func() []byte {
		e := New(w, h)
		s := NewScratch(w, h)
		frames := [2]Frame{NewFrame(w, h), NewFrame(w, h)}
		var all []byte
		for i := 0; i < 4; i++ {
			in := scene(w, h, 4+i*2, 6+i)
			rp := RunParams{Type: FrameP, QP: 30, Speed: 1}
			var ref *Frame
			if i == 0 {
				rp.Type, rp.ParameterSets = FrameKey, true
			} else {
				ref = &frames[(i+1)&1]
			}
			all = append(all, e.Encode(s, rp, &in, ref, &frames[i&1])...)
		}
		return all
	}
	a, b := run(), run()
	if !bytes.Equal(a, b) {
		t.Error("two encoder instances produced different streams")
	}
}

func TestEncodeQPClamp(t *testing.T) {
	const w, h = 32, 32
	for _, tt := range []struct{ qp, want int }{{0, MinQP}, {-5, MinQP}, {99, MaxQP}, {33, 33}} {
		e := New(w, h)
		s := NewScratch(w, h)
		in := scene(w, h, 0, 0)
		dec := NewFrame(w, h)
		var st stream
		slices := st.parse(t, e.Encode(s, RunParams{Type: FrameKey, QP: tt.qp, ParameterSets: true}, &in, nil, &dec))
		if slices[0].QP != tt.want {
			t.Errorf("qp %d: slice QP %d, want %d", tt.qp, slices[0].QP, tt.want)
		}
	}
}

func TestEncodeDeblockControl(t *testing.T) {
	const w, h = 32, 32
	for speed := 0; speed <= 10; speed++ {
		e := New(w, h)
		s := NewScratch(w, h)
		in := scene(w, h, 4, 4)
		dec := NewFrame(w, h)
		var st stream
		slices := st.parse(t, e.Encode(s, RunParams{Type: FrameKey, QP: 30, Speed: speed, ParameterSets: true}, &in, nil, &dec))
		want := 0
		if speed == 8 || speed == 10 {
			want = 1
		}
		if slices[0].DisableDeblock != want {
			t.Errorf("speed %d: disable_deblocking_filter_idc %d, want %d", speed, slices[0].DisableDeblock, want)
		}
	}
}

func TestEncodeIDRPicIDToggles(t *testing.T) {
	const w, h = 32, 32
	e := New(w, h)
	s := NewScratch(w, h)
	in := scene(w, h, 0, 0)
	ref, dec := NewFrame(w, h), NewFrame(w, h)
	var st stream
	var ids []int
	for i := 0; i < 3; i++ {
		slices := st.parse(t, e.Encode(s, RunParams{Type: FrameKey, QP: 30, ParameterSets: true}, &in, nil, &dec))
		ids = append(ids, slices[0].IDRPicID)
		ref, dec = dec, ref
	}
	if ids[0] == ids[1] || ids[1] == ids[2] {
		t.Errorf("idr_pic_id sequence %v does not alternate", ids)
	}
}

func TestEncodeIntraFrame(t *testing.T) {
	const w, h = 32, 32
	e := New(w, h)
	s := NewScratch(w, h)
	in := scene(w, h, 0, 0)
	ref, dec := NewFrame(w, h), NewFrame(w, h)
	var st stream
	st.parse(t, e.Encode(s, RunParams{Type: FrameKey, QP: 30, ParameterSets: true}, &in, nil, &ref))
	out := e.Encode(s, RunParams{Type: FrameI, QP: 30}, &in, &ref, &dec)
	nals := annexb.Split(out)
	if len(nals) != 1 || annexb.Type(nals[0]) != annexb.TypeSlice {
		t.Fatalf("I frame: want a single non-IDR slice, got %d units", len(nals))
	}
	slices := st.parse(t, out)
	if slices[0].SliceType != annexb.SliceI || slices[0].FrameNum != 1 {
		t.Errorf("I slice header = %+v", *slices[0])
	}
}

func TestEncodeGuardBand(t *testing.T) {
	const w, h = 32, 32
	e := New(w, h)
	s := NewScratch(w, h)
	in := scene(w, h, 0, 0)
	dec := NewFrame(w, h)
	e.Encode(s, RunParams{Type: FrameKey, QP: 30}, &in, nil, &dec)
	y := &dec[0]
	for g := 1; g <= LumaGuard; g++ {
		if got, want := y.Data[y.Off-g*y.Stride-g], y.Data[y.Off]; got != want {
			t.Fatalf("guard pixel (-%d,-%d) = %d, want %d", g, g, got, want)
		}
	}
	u := &dec[1]
	last := u.Off + (h/2-1)*u.Stride + w/2 - 1
	if got := u.Data[last+ChromaGuard*u.Stride+ChromaGuard]; got != u.Data[last] {
		t.Errorf("chroma guard corner = %d, want %d", got, u.Data[last])
	}
}
