package h264

import (
	"io"

	"github.com/pkg/errors"
)

// Writer encodes a sequence of pictures into an Annex-B stream. It owns
// the reference and reconstruction pictures and swaps them after every
// frame.
type Writer struct {
	w    io.Writer
	opts Options
	enc  *Encoder
	s    *Scratch

	ref, dec *Picture
	frames   int
	sinceKey int
	force    bool
	size     int64
}

// NewWriter returns a Writer for width x height pictures writing to w.
// A nil opts uses DefaultOptions.
func NewWriter(w io.Writer, width, height int, opts *Options) (*Writer, error) {
	if w == nil {
		return nil, ErrBadArgument
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := &Params{Width: width, Height: height}
	enc, err := New(p)
	if err != nil {
		return nil, err
	}
	s, err := NewScratch(p)
	if err != nil {
		return nil, err
	}
	return &Writer{
		w:    w,
		opts: *opts,
		enc:  enc,
		s:    s,
		ref:  NewPicture(width, height),
		dec:  NewPicture(width, height),
	}, nil
}

// ForceKeyframe makes the next picture an IDR.
func (w *Writer) ForceKeyframe() { w.force = true }

// nextType returns the type of the next picture.
func (w *Writer) nextType() FrameType {
	switch {
	case w.frames == 0, w.force:
		return FrameKey
	case w.opts.KeyframeInterval > 0 && w.sinceKey >= w.opts.KeyframeInterval:
		return FrameKey
	}
	return FrameP
}

// WriteFrame encodes in and writes its NAL units. It returns the type the
// picture was coded as.
func (w *Writer) WriteFrame(in *Picture) (FrameType, error) {
	data, t, err := w.EncodeFrame(in)
	if err != nil {
		return t, err
	}
	n, err := w.w.Write(data)
	w.size += int64(n)
	if err != nil {
		return t, errors.Wrap(err, "h264: writing frame")
	}
	return t, nil
}

// EncodeFrame encodes in without writing it. The returned bytes are valid
// until the next call.
func (w *Writer) EncodeFrame(in *Picture) ([]byte, FrameType, error) {
	t := w.nextType()
	rp := w.opts.runParams(t)
	data, err := w.enc.Encode(w.s, &rp, in, w.ref, w.dec)
	if err != nil {
		return nil, t, err
	}
	w.ref, w.dec = w.dec, w.ref
	w.frames++
	if t == FrameKey {
		w.sinceKey = 0
		w.force = false
	}
	w.sinceKey++
	return data, t, nil
}

// Reconstruction returns the decoded picture of the last frame, as a
// conforming decoder would output it. It is overwritten by the frame
// after next.
func (w *Writer) Reconstruction() *Picture { return w.ref }

// Frames returns the number of pictures encoded so far.
func (w *Writer) Frames() int { return w.frames }

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 { return w.size }
