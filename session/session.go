// Package session wraps one encoder behind the interface a video session
// host expects: a capability query, create and destroy, per-frame encode
// and retrieval of the produced NAL units.
package session

import (
	"github.com/pkg/errors"

	"github.com/deepteams/h264"
	"github.com/deepteams/h264/internal/annexb"
)

// ErrClosed is returned by EncodeFrame after Close.
var ErrClosed = errors.New("session: closed")

// Caps describes what the encoder supports.
type Caps struct {
	MaxWidth, MaxHeight int
	MinWidth, MinHeight int
	// Granularity of the coded picture size; smaller pictures are cropped.
	GranularityX, GranularityY int
	MinQP, MaxQP               int
	MaxSlices                  int
	MaxL0References            int
	MaxDPBSlots                int
	// BitstreamAlignment is the alignment of the returned bitstream offset
	// and size.
	BitstreamAlignment int
	ProfileIDC         int
	MaxLevelIDC        int
}

// Capabilities returns the encoder limits.
func Capabilities() Caps {
	return Caps{
		MaxWidth:           h264.MaxDimension,
		MaxHeight:          h264.MaxDimension,
		MinWidth:           16,
		MinHeight:          16,
		GranularityX:       16,
		GranularityY:       16,
		MinQP:              h264.MinQP,
		MaxQP:              h264.MaxQP,
		MaxSlices:          1,
		MaxL0References:    1,
		MaxDPBSlots:        2,
		BitstreamAlignment: 16,
		ProfileIDC:         66,
		MaxLevelIDC:        51,
	}
}

// Config is the create-time configuration of a session.
type Config struct {
	Width, Height int
	// Options apply to every frame; nil uses h264.DefaultOptions.
	Options *h264.Options
}

// FrameParams override the session options for one frame.
type FrameParams struct {
	// FrameType of the picture. The zero value lets the session decide
	// from the keyframe interval.
	FrameType h264.FrameType
	// QP overrides Options.QP when positive. It is clamped to the
	// capability range.
	QP int
}

// Result is the output of one EncodeFrame call.
type Result struct {
	// Data holds the Annex-B NAL units. It is valid until the next call.
	Data      []byte
	FrameType h264.FrameType
	// NALs alias Data, one entry per NAL unit without start code.
	NALs [][]byte
}

// Bytes returns a copy of the coded data.
func (r *Result) Bytes() []byte {
	return append([]byte(nil), r.Data...)
}

// Session owns one encoder with its scratch memory and picture pair.
type Session struct {
	cfg      Config
	opts     h264.Options
	enc      *h264.Encoder
	s        *h264.Scratch
	ref, dec *h264.Picture
	state    int
	scratch  int
	frames   int
	sinceKey int
	closed   bool
}

// New validates cfg against Capabilities and allocates a session.
func New(cfg Config) (*Session, error) {
	caps := Capabilities()
	if cfg.Width < caps.MinWidth || cfg.Height < caps.MinHeight ||
		cfg.Width > caps.MaxWidth || cfg.Height > caps.MaxHeight {
		return nil, errors.Wrapf(h264.ErrBadParameter, "session: extent %dx%d outside %dx%d..%dx%d",
			cfg.Width, cfg.Height, caps.MinWidth, caps.MinHeight, caps.MaxWidth, caps.MaxHeight)
	}
	opts := h264.DefaultOptions()
	if cfg.Options != nil {
		opts = cfg.Options
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "session")
	}
	p := &h264.Params{Width: cfg.Width, Height: cfg.Height}
	state, scratch, err := h264.Sizeof(p)
	if err != nil {
		return nil, errors.Wrap(err, "session")
	}
	enc, err := h264.New(p)
	if err != nil {
		return nil, errors.Wrap(err, "session")
	}
	s, err := h264.NewScratch(p)
	if err != nil {
		return nil, errors.Wrap(err, "session")
	}
	return &Session{
		cfg:     cfg,
		opts:    *opts,
		enc:     enc,
		s:       s,
		ref:     h264.NewPicture(cfg.Width, cfg.Height),
		dec:     h264.NewPicture(cfg.Width, cfg.Height),
		state:   state,
		scratch: scratch,
	}, nil
}

// Config returns the configuration the session was created with.
func (s *Session) Config() Config { return s.cfg }

// MemoryFootprint returns the encoder state and scratch sizes reported by
// the size query.
func (s *Session) MemoryFootprint() (state, scratch int) {
	return s.state, s.scratch
}

// EncodeFrame codes one picture.
func (s *Session) EncodeFrame(frame *h264.Picture, fp FrameParams) (*Result, error) {
	if s.closed {
		return nil, ErrClosed
	}
	t := fp.FrameType
	if t == 0 {
		t = h264.FrameP
		if s.frames == 0 || (s.opts.KeyframeInterval > 0 && s.sinceKey >= s.opts.KeyframeInterval) {
			t = h264.FrameKey
		}
	}
	if (t == h264.FrameP || t == h264.FrameI) && s.frames == 0 {
		t = h264.FrameKey
	}
	qp := s.opts.QP
	if fp.QP > 0 {
		qp = fp.QP
	}
	rp := &h264.RunParams{
		Speed:          s.opts.Speed,
		FrameType:      t,
		QP:             qp,
		ParameterSets:  s.opts.ParameterSets && t == h264.FrameKey,
		DisableDeblock: s.opts.DisableDeblock,
	}
	data, err := s.enc.Encode(s.s, rp, frame, s.ref, s.dec)
	if err != nil {
		return nil, errors.Wrapf(err, "session: frame %d", s.frames)
	}
	s.ref, s.dec = s.dec, s.ref
	s.frames++
	if t == h264.FrameKey {
		s.sinceKey = 0
	}
	s.sinceKey++
	return &Result{Data: data, FrameType: t, NALs: annexb.Split(data)}, nil
}

// Reconstruction returns the decoded picture of the last frame.
func (s *Session) Reconstruction() *h264.Picture { return s.ref }

// Close releases the encoder. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.enc, s.s, s.ref, s.dec = nil, nil, nil, nil
	return nil
}
