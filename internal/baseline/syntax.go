package baseline

import "github.com/deepteams/h264/internal/cavlc"

// NAL unit headers: nal_ref_idc 3 with the unit type in the low bits.
const (
	nalSPS      = 0x67
	nalPPS      = 0x68
	nalSliceIDR = 0x65
	nalSlice    = 0x61
)

const (
	profileBaseline = 66
	// constraintFlags sets constraint_set0 and constraint_set1: the stream
	// also decodes with main-profile decoders.
	constraintFlags = 0xc0

	log2MaxFrameNumMinus4 = 1
	numRefFrames          = 1

	sliceTypeP = 0
	sliceTypeI = 2
)

type levelLimit struct {
	level  int
	maxFS  int // macroblocks per frame
	maxDPB int // macroblocks across reference frames
}

var levelLimits = [...]levelLimit{
	{10, 99, 396},
	{11, 396, 900},
	{12, 396, 2376},
	{13, 396, 2376},
	{20, 396, 2376},
	{21, 792, 4752},
	{22, 1620, 8100},
	{30, 1620, 8100},
	{31, 3600, 18000},
	{32, 5120, 20480},
	{40, 8192, 32768},
	{41, 8192, 32768},
	{42, 8704, 34816},
	{50, 22080, 110400},
	{51, 36864, 184320},
}

// Level returns the lowest level_idc whose frame size and reference buffer
// limits admit nmb macroblocks per frame. Pictures too large for any level
// are signalled as level 5.1.
func Level(nmb int) int {
	for _, l := range levelLimits {
		if nmb <= l.maxFS && nmb*numRefFrames <= l.maxDPB {
			return l.level
		}
	}
	return levelLimits[len(levelLimits)-1].level
}

// writeSPS emits the sequence parameter set.
func (e *Encoder) writeSPS() {
	w := e.nal.Start(nalSPS)
	w.PutBits(8, profileBaseline)
	w.PutBits(8, constraintFlags)
	w.PutBits(8, uint32(Level(e.nmb)))
	w.PutUE(0) // seq_parameter_set_id
	w.PutUE(log2MaxFrameNumMinus4)
	w.PutUE(2) // pic_order_cnt_type
	w.PutUE(numRefFrames)
	w.PutBit(0) // gaps_in_frame_num_value_allowed_flag
	w.PutUE(uint32(e.mbw - 1))
	w.PutUE(uint32(e.mbh - 1))
	// frame_mbs_only, direct_8x8_inference, frame_cropping
	crop := uint32(0)
	if e.cropping {
		crop = 1
	}
	w.PutBits(3, 6+crop)
	if e.cropping {
		w.PutUE(0)
		w.PutUE(uint32(e.mbw*16-e.width) >> 1)
		w.PutUE(0)
		w.PutUE(uint32(e.mbh*16-e.height) >> 1)
	}
	w.PutBit(0) // vui_parameters_present_flag
	e.nal.End()
}

// writePPS emits the picture parameter set.
func (e *Encoder) writePPS() {
	w := e.nal.Start(nalPPS)
	w.PutUE(0)      // pic_parameter_set_id
	w.PutUE(0)      // seq_parameter_set_id
	w.PutBit(0)     // entropy_coding_mode_flag
	w.PutBit(0)     // bottom_field_pic_order_in_frame_present_flag
	w.PutUE(0)      // num_slice_groups_minus1
	w.PutUE(0)      // num_ref_idx_l0_default_active_minus1
	w.PutUE(0)      // num_ref_idx_l1_default_active_minus1
	w.PutBit(0)     // weighted_pred_flag
	w.PutBits(2, 0) // weighted_bipred_idc
	w.PutSE(int32(e.picInitQP - 26))
	// pic_init_qs, chroma_qp_index_offset, deblocking_filter_control_present,
	// constrained_intra_pred, redundant_pic_cnt_present
	w.PutBits(5, 0x1c)
	e.nal.End()
}

// writeSliceHeader resets the slice-scoped prediction contexts and starts
// the slice NAL unit.
func (e *Encoder) writeSliceHeader(key bool) {
	e.startMB = e.mbNum
	e.skipRun = 0
	for i := range e.i4Left {
		e.i4Left[i] = -1
	}
	for i := range e.i4Top {
		e.i4Top[i] = -1
	}
	for i := range e.nnzLeft {
		e.nnzLeft[i] = cavlc.NA
	}
	for i := range e.nnzAbove {
		e.nnzAbove[i] = cavlc.NA
	}

	hdr := byte(nalSlice)
	if key {
		hdr = nalSliceIDR
	}
	w := e.nal.Start(hdr)
	w.PutUE(uint32(e.startMB))
	if e.sliceP {
		w.PutUE(sliceTypeP)
	} else {
		w.PutUE(sliceTypeI)
	}
	w.PutUE(0) // pic_parameter_set_id
	w.PutBits(4+log2MaxFrameNumMinus4, uint32(e.frameNum)&(1<<(4+log2MaxFrameNumMinus4)-1))
	if key {
		w.PutUE(uint32(e.idrID))
	}
	if e.sliceP {
		w.PutBit(0) // num_ref_idx_active_override_flag
		w.PutBit(0) // ref_pic_list_modification_flag_l0
	}
	// dec_ref_pic_marking
	if key {
		w.PutBit(0) // no_output_of_prior_pics_flag
		w.PutBit(0) // long_term_reference_flag
	} else {
		w.PutBit(0) // adaptive_ref_pic_marking_mode_flag
	}
	w.PutSE(int32(e.prevQP - e.picInitQP))
	deblock := uint32(0)
	if e.disableDeblock {
		deblock = 1
	}
	w.PutUE(deblock)
	if deblock != 1 {
		w.PutBits(2, 3) // zero alpha and beta offsets
	}
}
