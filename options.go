package h264

import "fmt"

// Options control a stream produced by Writer or a session.
type Options struct {
	// QP is the quantizer of every picture (10-51, default 26). Lower
	// values give larger, higher quality output. Values below 10 are
	// accepted and clamped.
	QP int

	// Speed trades compression for encoding time (0-10, default 5):
	//   0  = partition and plane-prediction search on every macroblock
	//   1  = intra 4x4 still tried in P pictures
	//   5  = balanced (default)
	//   9  = no quarter-pel refinement
	//   10 = fastest, loop filter off
	// Speed 8 also disables the loop filter.
	Speed int

	// KeyframeInterval is the distance between IDR pictures. 0 codes only
	// the first picture as IDR.
	KeyframeInterval int

	// ParameterSets repeats SPS and PPS in front of every IDR picture.
	// DefaultOptions enables it; a stream without parameter sets needs
	// them from out of band.
	ParameterSets bool

	// DisableDeblock turns the in-loop deblocking filter off.
	DisableDeblock bool
}

// DefaultOptions returns QP 26, speed 5, a single IDR and in-band
// parameter sets.
func DefaultOptions() *Options {
	return &Options{
		QP:            26,
		Speed:         SpeedBalanced,
		ParameterSets: true,
	}
}

// Validate returns an error describing the first invalid field, or nil.
func (o *Options) Validate() error {
	if o.QP < 0 || o.QP > MaxQP {
		return fmt.Errorf("h264: invalid QP %d (must be 0-%d)", o.QP, MaxQP)
	}
	if o.Speed < SpeedSlowest || o.Speed > SpeedFastest {
		return fmt.Errorf("h264: invalid Speed %d (must be %d-%d)", o.Speed, SpeedSlowest, SpeedFastest)
	}
	if o.KeyframeInterval < 0 {
		return fmt.Errorf("h264: invalid KeyframeInterval %d (must be >= 0)", o.KeyframeInterval)
	}
	return nil
}

func (o *Options) runParams(t FrameType) RunParams {
	return RunParams{
		Speed:          o.Speed,
		FrameType:      t,
		QP:             o.QP,
		ParameterSets:  o.ParameterSets && t == FrameKey,
		DisableDeblock: o.DisableDeblock,
	}
}
