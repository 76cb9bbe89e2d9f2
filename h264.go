package h264

import (
	"image"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/baseline"
	"github.com/deepteams/h264/internal/dsp"
)

// MaxDimension is the largest accepted width or height, in pixels.
const MaxDimension = 4096

// QP range of the encoder. Requested QPs are clamped into it.
const (
	MinQP = baseline.MinQP
	MaxQP = baseline.MaxQP
)

// Speed dial limits.
const (
	SpeedSlowest  = 0
	SpeedBalanced = 5
	SpeedFastest  = 10
)

// FrameType selects how a picture is coded. The values match the status
// interface the encoder was first exposed through.
type FrameType int

const (
	// FrameP predicts from the previous reconstruction.
	FrameP FrameType = FrameType(baseline.FrameP)
	// FrameI is intra coded but keeps the decoder state.
	FrameI FrameType = FrameType(baseline.FrameI)
	// FrameKey is an IDR picture.
	FrameKey FrameType = FrameType(baseline.FrameKey)
)

// String returns "P", "I" or "IDR".
func (t FrameType) String() string {
	switch t {
	case FrameP:
		return "P"
	case FrameI:
		return "I"
	case FrameKey:
		return "IDR"
	}
	return "FrameType(?)"
}

// Params are the create-time parameters of an encoder.
type Params struct {
	Width, Height int
}

// validate checks the dimensions. Width and height must be positive, even
// and at most MaxDimension.
func (p *Params) validate() error {
	if p == nil {
		return ErrBadArgument
	}
	if p.Width <= 0 || p.Height <= 0 || p.Width > MaxDimension || p.Height > MaxDimension {
		return errors.Wrapf(ErrBadParameter, "%dx%d", p.Width, p.Height)
	}
	if (p.Width|p.Height)&1 != 0 {
		return errors.Wrapf(ErrSizeNotMultiple2, "%dx%d", p.Width, p.Height)
	}
	return nil
}

// Sizeof returns the memory held by an encoder for p and by its scratch
// area.
func Sizeof(p *Params) (state, scratch int, err error) {
	if err := p.validate(); err != nil {
		return 0, 0, err
	}
	return baseline.StateSize(p.Width, p.Height), baseline.ScratchSize(p.Width, p.Height), nil
}

// OutputBound returns the largest size Encode can return for one
// width x height picture, parameter sets included.
func OutputBound(width, height int) int {
	return baseline.OutputSize(width, height)
}

// RunParams control the coding of one picture.
type RunParams struct {
	// Speed trades compression for time, SpeedSlowest to SpeedFastest.
	// Out-of-range values are clamped.
	Speed int
	// FrameType of the picture. FrameP requires a reference.
	FrameType FrameType
	// QP is clamped to [MinQP, MaxQP].
	QP int
	// ParameterSets emits SPS and PPS NAL units in front of a key picture.
	ParameterSets bool
	// DisableDeblock turns the loop filter off. Speeds 8 and 10 always
	// disable it.
	DisableDeblock bool
}

// Plane is one image plane: pixel (0, 0) is Data[Off] and rows are Stride
// bytes apart.
type Plane struct {
	Data   []byte
	Stride int
	Off    int
}

// Picture is a YUV 4:2:0 picture. Pictures used as reference or
// reconstruction need a guard band around each plane and macroblock
// aligned extents; NewPicture allocates them that way. Input pictures
// only need to cover the coded size.
type Picture struct {
	Y, U, V Plane
}

// NewPicture allocates a picture usable as input, reference or
// reconstruction for width x height frames.
func NewPicture(width, height int) *Picture {
	f := baseline.NewFrame(width, height)
	return fromFrame(f)
}

// FromYCbCr wraps the planes of img without copying. img must use 4:2:0
// subsampling.
func FromYCbCr(img *image.YCbCr) (*Picture, error) {
	if img == nil {
		return nil, ErrBadArgument
	}
	if img.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		return nil, errors.Wrapf(ErrBadParameter, "subsample ratio %v", img.SubsampleRatio)
	}
	r := img.Rect
	return &Picture{
		Y: Plane{Data: img.Y, Stride: img.YStride, Off: img.YOffset(r.Min.X, r.Min.Y)},
		U: Plane{Data: img.Cb, Stride: img.CStride, Off: img.COffset(r.Min.X, r.Min.Y)},
		V: Plane{Data: img.Cr, Stride: img.CStride, Off: img.COffset(r.Min.X, r.Min.Y)},
	}, nil
}

func fromFrame(f baseline.Frame) *Picture {
	return &Picture{
		Y: Plane(f[0]),
		U: Plane(f[1]),
		V: Plane(f[2]),
	}
}

func (p *Picture) frame() baseline.Frame {
	return baseline.Frame{
		baseline.Plane(p.Y),
		baseline.Plane(p.U),
		baseline.Plane(p.V),
	}
}

// Encoder is a baseline profile encoder for one picture size. It is not
// safe for concurrent use.
type Encoder struct {
	enc   *baseline.Encoder
	p     Params
	keyed bool // a key picture has been coded
}

// New returns an encoder for pictures of the given size.
func New(p *Params) (*Encoder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Encoder{enc: baseline.New(p.Width, p.Height), p: *p}, nil
}

// Width returns the coded width in pixels.
func (e *Encoder) Width() int { return e.p.Width }

// Height returns the coded height in pixels.
func (e *Encoder) Height() int { return e.p.Height }

// Scratch is the working memory of Encode. One Scratch may serve several
// encoders of the same size as long as they do not run concurrently.
type Scratch struct {
	s *baseline.Scratch
	p Params
}

// NewScratch allocates working memory for pictures of the given size.
func NewScratch(p *Params) (*Scratch, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Scratch{s: baseline.NewScratch(p.Width, p.Height), p: *p}, nil
}

// Encode codes one picture and returns its Annex-B NAL units. The bytes
// are valid until the next call using s.
//
// The reconstruction is written to dec, guard band included. P pictures
// predict from ref, which must hold the reconstruction of the previous
// picture; ref is ignored for I and key pictures and may be nil. ref and
// dec must not share memory. The first picture of an encoder must be a key
// picture.
//
// Buffer errors are reported before any encoder state changes.
func (e *Encoder) Encode(s *Scratch, rp *RunParams, in, ref, dec *Picture) ([]byte, error) {
	if s == nil || rp == nil || in == nil || dec == nil {
		return nil, ErrBadArgument
	}
	if s.p != e.p {
		return nil, errors.Wrapf(ErrBadArgument, "scratch sized for %dx%d", s.p.Width, s.p.Height)
	}
	switch rp.FrameType {
	case FrameKey:
		ref = nil
	case FrameI:
		if !e.keyed {
			return nil, errors.Wrap(ErrBadParameter, "I picture before the first key picture")
		}
		ref = nil
	case FrameP:
		if ref == nil {
			return nil, errors.Wrap(ErrBadArgument, "P picture without reference")
		}
		if !e.keyed {
			return nil, errors.Wrap(ErrBadParameter, "P picture before the first key picture")
		}
	default:
		return nil, errors.Wrapf(ErrBadParameter, "frame type %d", rp.FrameType)
	}

	w, h := e.p.Width, e.p.Height
	if err := checkPicture(in, w, h, 0); err != nil {
		return nil, errors.WithMessage(err, "input")
	}
	pw, ph := (w+15)&^15, (h+15)&^15
	if ref != nil {
		if err := checkPicture(ref, pw, ph, baseline.LumaGuard); err != nil {
			return nil, errors.WithMessage(err, "reference")
		}
	}
	if err := checkPicture(dec, pw, ph, baseline.LumaGuard); err != nil {
		return nil, errors.WithMessage(err, "reconstruction")
	}
	if ref != nil && sharesMemory(ref, dec) {
		return nil, errors.Wrap(ErrBadParameter, "reference and reconstruction overlap")
	}

	speed := min(max(rp.Speed, SpeedSlowest), SpeedFastest)
	in0, dec0 := in.frame(), dec.frame()
	var ref0 *baseline.Frame
	if ref != nil {
		f := ref.frame()
		ref0 = &f
	}
	out := e.enc.Encode(s.s, baseline.RunParams{
		Type:           baseline.FrameType(rp.FrameType),
		QP:             rp.QP,
		Speed:          speed,
		ParameterSets:  rp.ParameterSets,
		DisableDeblock: rp.DisableDeblock,
	}, &in0, ref0, &dec0)
	if rp.FrameType == FrameKey {
		e.keyed = true
	}
	return out, nil
}

// checkPicture validates the planes of p for a w x h luma extent. guard is
// the border required around luma; chroma needs half of it.
func checkPicture(p *Picture, w, h, guard int) error {
	mask := dsp.AlignMask()
	if err := checkPlane(&p.Y, w, h, guard, mask, ErrBadLumaAlign, ErrBadLumaStride); err != nil {
		return err
	}
	for _, c := range []*Plane{&p.U, &p.V} {
		if err := checkPlane(c, w/2, h/2, guard/2, mask, ErrBadChromaAlign, ErrBadChromaStride); err != nil {
			return err
		}
	}
	return nil
}

// sharesMemory reports whether any plane of a overlaps any plane of b.
func sharesMemory(a, b *Picture) bool {
	for _, pa := range []*Plane{&a.Y, &a.U, &a.V} {
		for _, pb := range []*Plane{&b.Y, &b.U, &b.V} {
			if overlaps(pa.Data, pb.Data) {
				return true
			}
		}
	}
	return false
}

func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	pa := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	pb := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return pa < pb+uintptr(len(b)) && pb < pa+uintptr(len(a))
}

func checkPlane(pl *Plane, w, h, guard, mask int, errAlign, errStride error) error {
	if pl.Stride < w+2*guard || pl.Stride&mask != 0 {
		return errors.Wrapf(errStride, "stride %d for width %d", pl.Stride, w)
	}
	if pl.Off < guard*pl.Stride+guard || pl.Off >= len(pl.Data) {
		return errors.Wrapf(ErrBadArgument, "plane offset %d", pl.Off)
	}
	if need := pl.Off + (h+guard-1)*pl.Stride + w + guard; need > len(pl.Data) {
		return errors.Wrapf(ErrBadArgument, "plane holds %d bytes, need %d", len(pl.Data), need)
	}
	if addr := uintptr(unsafe.Pointer(unsafe.SliceData(pl.Data))) + uintptr(pl.Off); int(addr)&mask != 0 {
		return errAlign
	}
	return nil
}
