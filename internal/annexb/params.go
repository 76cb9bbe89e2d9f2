package annexb

import (
	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/bitio"
)

// SPS holds the sequence parameter set fields of a baseline stream.
type SPS struct {
	ProfileIDC      int
	ConstraintFlags int
	LevelIDC        int
	ID              int
	Log2MaxFrameNum int
	PicOrderCntType int
	NumRefFrames    int
	WidthMBs        int
	HeightMBs       int
	FrameMBsOnly    bool
	Crop            [4]int // left, right, top, bottom, in chroma sample pairs
	VUI             bool
}

// Width returns the displayed luma width.
func (s *SPS) Width() int {
	return s.WidthMBs*16 - 2*(s.Crop[0]+s.Crop[1])
}

// Height returns the displayed luma height.
func (s *SPS) Height() int {
	return s.HeightMBs*16 - 2*(s.Crop[2]+s.Crop[3])
}

// ParseSPS decodes a sequence parameter set NAL unit.
func ParseSPS(nal []byte) (*SPS, error) {
	if Type(nal) != TypeSPS {
		return nil, errors.Errorf("annexb: NAL type %d is not an SPS", Type(nal))
	}
	r := bitio.NewReader(Unescape(nal)[1:])
	s := &SPS{}
	s.ProfileIDC = int(r.ReadBits(8))
	s.ConstraintFlags = int(r.ReadBits(8))
	s.LevelIDC = int(r.ReadBits(8))
	s.ID = int(r.ReadUE())
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	switch s.ProfileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128:
		return nil, errors.Wrapf(ErrUnsupported, "profile_idc %d", s.ProfileIDC)
	}
	s.Log2MaxFrameNum = int(r.ReadUE()) + 4
	s.PicOrderCntType = int(r.ReadUE())
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	switch s.PicOrderCntType {
	case 0:
		r.ReadUE()
	case 1:
		return nil, errors.Wrap(ErrUnsupported, "pic_order_cnt_type 1")
	}
	s.NumRefFrames = int(r.ReadUE())
	r.ReadBit() // gaps_in_frame_num_value_allowed_flag
	s.WidthMBs = int(r.ReadUE()) + 1
	s.HeightMBs = int(r.ReadUE()) + 1
	s.FrameMBsOnly = r.ReadBit() == 1
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	if !s.FrameMBsOnly {
		return nil, errors.Wrap(ErrUnsupported, "field coding")
	}
	r.ReadBit() // direct_8x8_inference_flag
	if r.ReadBit() == 1 {
		for i := range s.Crop {
			s.Crop[i] = int(r.ReadUE())
		}
	}
	s.VUI = r.ReadBit() == 1
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	if 2*(s.Crop[0]+s.Crop[1]) >= 16*s.WidthMBs || 2*(s.Crop[2]+s.Crop[3]) >= 16*s.HeightMBs {
		return nil, errors.Wrapf(ErrInvalid, "cropping %v of %dx%d macroblocks", s.Crop, s.WidthMBs, s.HeightMBs)
	}
	return s, nil
}

// PPS holds the picture parameter set fields of a baseline stream.
type PPS struct {
	ID                     int
	SPSID                  int
	CABAC                  bool
	PicInitQP              int
	ChromaQPIndexOffset    int
	DeblockingFilterCtrl   bool
	ConstrainedIntraPred   bool
	RedundantPicCntPresent bool
}

// ParsePPS decodes a picture parameter set NAL unit.
func ParsePPS(nal []byte) (*PPS, error) {
	if Type(nal) != TypePPS {
		return nil, errors.Errorf("annexb: NAL type %d is not a PPS", Type(nal))
	}
	r := bitio.NewReader(Unescape(nal)[1:])
	p := &PPS{}
	p.ID = int(r.ReadUE())
	p.SPSID = int(r.ReadUE())
	p.CABAC = r.ReadBit() == 1
	r.ReadBit() // bottom_field_pic_order_in_frame_present_flag
	groups := r.ReadUE()
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	if groups != 0 {
		return nil, errors.Wrap(ErrUnsupported, "slice groups")
	}
	r.ReadUE() // num_ref_idx_l0_default_active_minus1
	r.ReadUE() // num_ref_idx_l1_default_active_minus1
	r.ReadBit()
	r.ReadBits(2)
	p.PicInitQP = 26 + int(r.ReadSE())
	r.ReadSE() // pic_init_qs_minus26
	p.ChromaQPIndexOffset = int(r.ReadSE())
	p.DeblockingFilterCtrl = r.ReadBit() == 1
	p.ConstrainedIntraPred = r.ReadBit() == 1
	p.RedundantPicCntPresent = r.ReadBit() == 1
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	return p, nil
}

// Slice types as coded in slice_type modulo 5.
const (
	SliceP = 0
	SliceI = 2
)

// SliceHeader holds the leading slice header fields.
type SliceHeader struct {
	FirstMB        int
	SliceType      int
	PPSID          int
	FrameNum       int
	IDRPicID       int
	QP             int
	DisableDeblock int
}

// ParseSliceHeader decodes the header of a slice NAL unit coded with the
// given parameter sets.
func ParseSliceHeader(nal []byte, sps *SPS, pps *PPS) (*SliceHeader, error) {
	t := Type(nal)
	if t != TypeSlice && t != TypeIDR {
		return nil, errors.Errorf("annexb: NAL type %d is not a slice", t)
	}
	if sps == nil || pps == nil {
		return nil, errors.Wrap(ErrInvalid, "slice without parameter sets")
	}
	r := bitio.NewReader(Unescape(nal)[1:])
	h := &SliceHeader{}
	h.FirstMB = int(r.ReadUE())
	h.SliceType = int(r.ReadUE()) % 5
	h.PPSID = int(r.ReadUE())
	h.FrameNum = int(r.ReadBits(sps.Log2MaxFrameNum))
	if t == TypeIDR {
		h.IDRPicID = int(r.ReadUE())
	}
	if sps.PicOrderCntType == 0 {
		return nil, errors.Wrap(ErrUnsupported, "pic_order_cnt_type 0")
	}
	if pps.RedundantPicCntPresent {
		r.ReadUE()
	}
	if h.SliceType == SliceP {
		if r.ReadBit() == 1 {
			r.ReadUE()
		}
		modification := r.ReadBit() == 1
		if r.IsEndOfStream() {
			return nil, ErrTruncated
		}
		if modification {
			return nil, errors.Wrap(ErrUnsupported, "reference list modification")
		}
	}
	if RefIDC(nal) != 0 {
		if t == TypeIDR {
			r.ReadBit()
			r.ReadBit()
		} else {
			adaptive := r.ReadBit() == 1
			if r.IsEndOfStream() {
				return nil, ErrTruncated
			}
			if adaptive {
				return nil, errors.Wrap(ErrUnsupported, "adaptive reference marking")
			}
		}
	}
	h.QP = pps.PicInitQP + int(r.ReadSE())
	if pps.DeblockingFilterCtrl {
		h.DisableDeblock = int(r.ReadUE())
		if h.DisableDeblock != 1 {
			r.ReadSE()
			r.ReadSE()
		}
	}
	if r.IsEndOfStream() {
		return nil, ErrTruncated
	}
	return h, nil
}
