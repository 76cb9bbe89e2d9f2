package h264

import (
	"bytes"
	"fmt"
	"image"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/annexb"
)

// --- Helpers ---

// testPicture returns a w x h picture with a gradient, a noisy square
// shifted by dx pixels and flat chroma.
func testPicture(w, h, dx int, seed int64) *Picture {
	rng := rand.New(rand.NewSource(seed))
	p := NewPicture(w, h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			v := 30 + (i*3+j*2)%160
			if i >= w/4+dx && i < w/2+dx && j >= h/4 && j < h/2 {
				v = 180 + rng.Intn(40)
			}
			p.Y.Data[p.Y.Off+j*p.Y.Stride+i] = byte(v)
		}
	}
	for j := 0; j < h/2; j++ {
		for i := 0; i < w/2; i++ {
			p.U.Data[p.U.Off+j*p.U.Stride+i] = byte(110 + i%16)
			p.V.Data[p.V.Off+j*p.V.Stride+i] = byte(140 - j%16)
		}
	}
	return p
}

func nalTypes(data []byte) []int {
	var types []int
	for _, nal := range annexb.Split(data) {
		types = append(types, annexb.Type(nal))
	}
	return types
}

type fixture struct {
	enc      *Encoder
	s        *Scratch
	ref, dec *Picture
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	p := &Params{Width: w, Height: h}
	enc, err := New(p)
	if err != nil {
		t.Fatalf("New(%dx%d): %v", w, h, err)
	}
	s, err := NewScratch(p)
	if err != nil {
		t.Fatalf("NewScratch(%dx%d): %v", w, h, err)
	}
	return &fixture{enc: enc, s: s, ref: NewPicture(w, h), dec: NewPicture(w, h)}
}

func (f *fixture) encode(t *testing.T, typ FrameType, in *Picture) []byte {
	t.Helper()
	rp := &RunParams{FrameType: typ, QP: 28, Speed: SpeedBalanced, ParameterSets: true}
	out, err := f.enc.Encode(f.s, rp, in, f.ref, f.dec)
	if err != nil {
		t.Fatalf("Encode(%v): %v", typ, err)
	}
	f.ref, f.dec = f.dec, f.ref
	return bytes.Clone(out)
}

// --- Size query ---

func TestSizeof(t *testing.T) {
	tests := []struct {
		name string
		p    *Params
		want error
	}{
		{"nil", nil, ErrBadArgument},
		{"qcif", &Params{176, 144}, nil},
		{"tiny", &Params{2, 2}, nil},
		{"max", &Params{MaxDimension, MaxDimension}, nil},
		{"zero width", &Params{0, 16}, ErrBadParameter},
		{"negative height", &Params{16, -2}, ErrBadParameter},
		{"too wide", &Params{MaxDimension + 2, 16}, ErrBadParameter},
		{"odd width", &Params{17, 16}, ErrSizeNotMultiple2},
		{"odd height", &Params{16, 33}, ErrSizeNotMultiple2},
	}
	for _, tt := range tests {
		state, scratch, err := Sizeof(tt.p)
		if !errors.Is(err, tt.want) || (err == nil) != (tt.want == nil) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
			continue
		}
		if err == nil && (state <= 0 || scratch <= 0) {
			t.Errorf("%s: sizes %d/%d, want positive", tt.name, state, scratch)
		}
	}
}

func TestSizeofGrowsWithPicture(t *testing.T) {
	s1, c1, _ := Sizeof(&Params{176, 144})
	s2, c2, _ := Sizeof(&Params{1280, 720})
	if s2 <= s1 || c2 <= c1 {
		t.Errorf("sizes for 1280x720 (%d, %d) not above 176x144 (%d, %d)", s2, c2, s1, c1)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrBadArgument, 1},
		{ErrBadParameter, 2},
		{ErrSizeNotMultiple2, 5},
		{ErrBadLumaAlign, 6},
		{ErrBadLumaStride, 7},
		{ErrBadChromaAlign, 8},
		{ErrBadChromaStride, 9},
		{errors.Wrap(ErrBadChromaStride, "input"), 9},
		{fmt.Errorf("outer: %w", ErrSizeNotMultiple2), 5},
		{errors.New("other"), StatusUnknown},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// --- Encode ---

func TestEncodeSizes(t *testing.T) {
	sizes := [][2]int{{2, 2}, {16, 16}, {18, 34}, {48, 32}, {176, 144}, {100, 62}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		f := newFixture(t, w, h)
		for i, typ := range []FrameType{FrameKey, FrameP, FrameI, FrameP} {
			out := f.encode(t, typ, testPicture(w, h, i, int64(i)))
			if len(out) < 5 || !bytes.HasPrefix(out, []byte{0, 0, 0, 1}) {
				t.Fatalf("%dx%d frame %d: output %x does not start with a start code", w, h, i, out[:min(len(out), 8)])
			}
		}
	}
}

func TestEncodeNALSequence(t *testing.T) {
	f := newFixture(t, 64, 48)
	tests := []struct {
		typ  FrameType
		want []int
	}{
		{FrameKey, []int{annexb.TypeSPS, annexb.TypePPS, annexb.TypeIDR}},
		{FrameP, []int{annexb.TypeSlice}},
		{FrameI, []int{annexb.TypeSlice}},
		{FrameKey, []int{annexb.TypeSPS, annexb.TypePPS, annexb.TypeIDR}},
	}
	for i, tt := range tests {
		got := nalTypes(f.encode(t, tt.typ, testPicture(64, 48, i, 1)))
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("frame %d (%v): NAL types %v, want %v", i, tt.typ, got, tt.want)
		}
	}
}

func TestEncodeNoStartCodeEmulation(t *testing.T) {
	f := newFixture(t, 96, 64)
	for i, typ := range []FrameType{FrameKey, FrameP, FrameP} {
		out := f.encode(t, typ, testPicture(96, 64, 3*i, int64(i)))
		for _, nal := range annexb.Split(out) {
			for k := 0; k+2 < len(nal); k++ {
				if nal[k] != 0 || nal[k+1] != 0 {
					continue
				}
				if nal[k+2] <= 2 {
					t.Fatalf("frame %d: unescaped 00 00 %02x at %d", i, nal[k+2], k)
				}
				if nal[k+2] == 3 && k+3 < len(nal) && nal[k+3] > 3 {
					t.Fatalf("frame %d: escape followed by %02x at %d", i, nal[k+3], k)
				}
			}
		}
	}
}

func TestEncodeHeadersRoundTrip(t *testing.T) {
	// 40 P pictures wrap the 5-bit frame_num; each key restarts it and
	// flips idr_pic_id.
	var types []FrameType
	for _, run := range []int{40, 5, 1} {
		types = append(types, FrameKey)
		for i := 0; i < run; i++ {
			types = append(types, FrameP)
		}
	}
	f := newFixture(t, 32, 32)
	var hs headers
	frameNum, idrID := 0, 0
	for i, typ := range types {
		qp := 4 + (i*7)%56
		rp := &RunParams{FrameType: typ, QP: qp, Speed: SpeedFastest, ParameterSets: true}
		out, err := f.enc.Encode(f.s, rp, testPicture(32, 32, i%4, int64(i)), f.ref, f.dec)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		f.ref, f.dec = f.dec, f.ref
		hdr := hs.parse(t, out)
		if len(hdr) != 1 {
			t.Fatalf("frame %d: %d slices, want 1", i, len(hdr))
		}
		h := hdr[0]
		wantType := annexb.SliceP
		if typ == FrameKey {
			wantType = annexb.SliceI
			frameNum = 0
			idrID ^= 1
			if h.IDRPicID != idrID {
				t.Errorf("frame %d: idr_pic_id %d, want %d", i, h.IDRPicID, idrID)
			}
			if want := min(max(qp, MinQP), MaxQP); hs.pps.PicInitQP != want {
				t.Errorf("frame %d: pic_init_qp %d, want %d", i, hs.pps.PicInitQP, want)
			}
		}
		if h.SliceType != wantType {
			t.Errorf("frame %d: slice type %d, want %d", i, h.SliceType, wantType)
		}
		if h.FrameNum != frameNum%32 {
			t.Errorf("frame %d: frame_num %d, want %d", i, h.FrameNum, frameNum%32)
		}
		if want := min(max(qp, MinQP), MaxQP); h.QP != want {
			t.Errorf("frame %d: slice QP %d, want %d", i, h.QP, want)
		}
		frameNum++
	}
}

func TestEncodeDeterministic(t *testing.T) {
	var outs [2][]byte
	for r := range outs {
		f := newFixture(t, 80, 48)
		var all []byte
		for i, typ := range []FrameType{FrameKey, FrameP, FrameP} {
			all = append(all, f.encode(t, typ, testPicture(80, 48, 2*i, 9))...)
		}
		outs[r] = all
	}
	if !bytes.Equal(outs[0], outs[1]) {
		t.Error("identical inputs produced different streams")
	}
}

func TestEncodeFromYCbCr(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 32, 32), image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = byte(i)
	}
	for i := range img.Cb {
		img.Cb[i], img.Cr[i] = 128, 128
	}
	in, err := FromYCbCr(img)
	if err != nil {
		t.Fatalf("FromYCbCr: %v", err)
	}
	f := newFixture(t, 32, 32)
	if out := f.encode(t, FrameKey, in); len(out) == 0 {
		t.Error("empty output")
	}

	if _, err := FromYCbCr(image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio444)); !errors.Is(err, ErrBadParameter) {
		t.Errorf("4:4:4 image: err = %v, want %v", err, ErrBadParameter)
	}
}

// --- Buffer contract ---

func TestEncodeArgumentErrors(t *testing.T) {
	const w, h = 32, 32
	f := newFixture(t, w, h)
	in := testPicture(w, h, 0, 1)
	other, _ := NewScratch(&Params{48, 32})

	tests := []struct {
		name    string
		s       *Scratch
		rp      *RunParams
		in, ref *Picture
		want    error
	}{
		{"nil params", f.s, nil, in, f.ref, ErrBadArgument},
		{"nil input", f.s, &RunParams{FrameType: FrameKey}, nil, f.ref, ErrBadArgument},
		{"foreign scratch", other, &RunParams{FrameType: FrameKey}, in, f.ref, ErrBadArgument},
		{"P without reference", f.s, &RunParams{FrameType: FrameP}, in, nil, ErrBadArgument},
		{"unknown frame type", f.s, &RunParams{FrameType: 3}, in, f.ref, ErrBadParameter},
	}
	for _, tt := range tests {
		_, err := f.enc.Encode(tt.s, tt.rp, tt.in, tt.ref, f.dec)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestEncodeRequiresKeyFirst(t *testing.T) {
	const w, h = 32, 32
	in := testPicture(w, h, 0, 1)
	f := newFixture(t, w, h)
	for _, typ := range []FrameType{FrameP, FrameI} {
		rp := &RunParams{FrameType: typ, QP: 28}
		if _, err := f.enc.Encode(f.s, rp, in, f.ref, f.dec); !errors.Is(err, ErrBadParameter) {
			t.Errorf("%v before any key picture: err = %v, want %v", typ, err, ErrBadParameter)
		}
	}
	got := f.encode(t, FrameKey, in)
	if _, err := f.enc.Encode(f.s, &RunParams{FrameType: FrameI, QP: 28}, in, nil, f.dec); err != nil {
		t.Errorf("I after a key picture: %v", err)
	}

	fresh := newFixture(t, w, h)
	if !bytes.Equal(got, fresh.encode(t, FrameKey, in)) {
		t.Error("rejected pictures changed the encoder state")
	}
}

func TestEncodeRejectsOverlap(t *testing.T) {
	const w, h = 32, 32
	f := newFixture(t, w, h)
	in := testPicture(w, h, 0, 1)
	f.encode(t, FrameKey, in)
	rp := &RunParams{FrameType: FrameP, QP: 28}

	if _, err := f.enc.Encode(f.s, rp, in, f.dec, f.dec); !errors.Is(err, ErrBadParameter) {
		t.Errorf("ref == dec: err = %v, want %v", err, ErrBadParameter)
	}

	// A reference whose V plane lives inside the reconstruction's luma.
	alias := *f.ref
	alias.V.Data = f.dec.Y.Data[len(f.dec.Y.Data)-len(f.ref.V.Data):]
	if _, err := f.enc.Encode(f.s, rp, in, &alias, f.dec); !errors.Is(err, ErrBadParameter) {
		t.Errorf("chroma aliasing luma: err = %v, want %v", err, ErrBadParameter)
	}

	if _, err := f.enc.Encode(f.s, rp, in, f.ref, f.dec); err != nil {
		t.Errorf("separate pictures: %v", err)
	}
}

func TestEncodeStrideErrors(t *testing.T) {
	const w, h = 32, 32
	f := newFixture(t, w, h)
	rp := &RunParams{FrameType: FrameKey, QP: 26}

	narrow := testPicture(w, h, 0, 1)
	narrow.Y.Stride = w - 2
	if _, err := f.enc.Encode(f.s, rp, narrow, nil, f.dec); !errors.Is(err, ErrBadLumaStride) {
		t.Errorf("narrow luma: err = %v, want %v", err, ErrBadLumaStride)
	}

	narrow = testPicture(w, h, 0, 1)
	narrow.V.Stride = w/2 - 2
	if _, err := f.enc.Encode(f.s, rp, narrow, nil, f.dec); !errors.Is(err, ErrBadChromaStride) {
		t.Errorf("narrow chroma: err = %v, want %v", err, ErrBadChromaStride)
	}

	// A reconstruction without guard band.
	bare := &Picture{
		Y: Plane{Data: make([]byte, w*h), Stride: w},
		U: Plane{Data: make([]byte, w*h/4), Stride: w / 2},
		V: Plane{Data: make([]byte, w*h/4), Stride: w / 2},
	}
	if _, err := f.enc.Encode(f.s, rp, testPicture(w, h, 0, 1), nil, bare); StatusCode(err) == StatusOK {
		t.Error("reconstruction without guard band accepted")
	}

	// Short input data.
	short := testPicture(w, h, 0, 1)
	short.Y.Data = short.Y.Data[:short.Y.Off+(h-1)*short.Y.Stride]
	if _, err := f.enc.Encode(f.s, rp, short, nil, f.dec); !errors.Is(err, ErrBadArgument) {
		t.Errorf("short luma: err = %v, want %v", err, ErrBadArgument)
	}
}

func TestEncodeUnalignedPlanes(t *testing.T) {
	// An 18 pixel wide image.YCbCr has 18 and 9 byte strides.
	const w, h = 18, 18
	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = byte(i * 5)
	}
	for i := range img.Cb {
		img.Cb[i], img.Cr[i] = byte(100+i%32), byte(150-i%16)
	}
	in, err := FromYCbCr(img)
	if err != nil {
		t.Fatalf("FromYCbCr: %v", err)
	}
	f := newFixture(t, w, h)
	if out := f.encode(t, FrameKey, in); len(out) == 0 {
		t.Error("empty key picture")
	}
	if out := f.encode(t, FrameP, in); len(out) == 0 {
		t.Error("empty P picture")
	}

	// Planes one byte off their allocation code the same as aligned ones.
	const pw, ph = 32, 32
	aligned := testPicture(pw, ph, 0, 1)
	shifted := testPicture(pw, ph, 0, 1)
	for _, pl := range []*Plane{&shifted.Y, &shifted.U, &shifted.V} {
		pl.Data = append([]byte{0}, pl.Data...)
		pl.Off++
	}
	a, b := newFixture(t, pw, ph), newFixture(t, pw, ph)
	if !bytes.Equal(a.encode(t, FrameKey, aligned), b.encode(t, FrameKey, shifted)) {
		t.Error("shifted planes coded differently")
	}
}

func TestEncodeErrorKeepsState(t *testing.T) {
	const w, h = 48, 32
	frames := []*Picture{testPicture(w, h, 0, 1), testPicture(w, h, 2, 1)}

	a := newFixture(t, w, h)
	a.encode(t, FrameKey, frames[0])
	bad := testPicture(w, h, 0, 1)
	bad.Y.Stride = 4
	if _, err := a.enc.Encode(a.s, &RunParams{FrameType: FrameKey, QP: 40}, bad, nil, a.dec); err == nil {
		t.Fatal("bad stride accepted")
	}
	got := a.encode(t, FrameP, frames[1])

	b := newFixture(t, w, h)
	b.encode(t, FrameKey, frames[0])
	want := b.encode(t, FrameP, frames[1])
	if !bytes.Equal(got, want) {
		t.Error("rejected call changed the encoder state")
	}
}
