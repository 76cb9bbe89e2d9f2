package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/deepteams/h264"
	"github.com/deepteams/h264/internal/pool"
	"github.com/deepteams/h264/rtpsink"
	"github.com/deepteams/h264/session"
)

// --- enc ---

func runEnc(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	size := fs.String("s", "", "frame size WxH (required)")
	qp := fs.Int("qp", 26, "quantizer 10-51")
	speed := fs.Int("speed", h264.SpeedBalanced, "speed 0 (best) to 10 (fastest)")
	gop := fs.Int("g", 0, "keyframe interval (0 = first frame only)")
	noDeblock := fs.Bool("nodeblock", false, "disable the loop filter")
	noPS := fs.Bool("nops", false, "omit in-band SPS/PPS")
	maxFrames := fs.Int("frames", 0, "stop after this many frames (0 = all)")
	rtpOut := fs.String("rtp", "", `also send RTP: "udp://host:port", or a path for RFC 4571 framed packets`)
	mtu := fs.Int("mtu", rtpsink.DefaultMTU, "RTP packet size limit")
	fps := fs.Int("fps", 30, "frame rate for RTP timestamps")
	output := fs.String("o", "", `output path (default: <input>.264, "-" for stdout)`)
	verbose := fs.Bool("v", false, "log every frame")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("enc: missing input file\nUsage: h264enc enc -s WxH [options] <input.yuv>")
	}
	inputPath := fs.Arg(0)
	w, h, err := parseSize(*size)
	if err != nil {
		return errors.Wrap(err, "enc")
	}
	if *mtu < 64 || *mtu > 0xffff {
		return errors.Errorf("enc: invalid mtu %d", *mtu)
	}

	opts := h264.DefaultOptions()
	opts.QP = *qp
	opts.Speed = *speed
	opts.KeyframeInterval = *gop
	opts.DisableDeblock = *noDeblock
	opts.ParameterSets = !*noPS
	sess, err := session.New(session.Config{Width: w, Height: h, Options: opts})
	if err != nil {
		return errors.Wrap(err, "enc")
	}
	defer sess.Close()

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".264")
	}
	var out io.Writer = stdout
	var file *os.File
	if outputPath != "-" {
		file, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		out = file
	}

	var sink *rtpsink.Sink
	if *rtpOut != "" {
		c, framed, err := openRTP(*rtpOut)
		if err != nil {
			closeOutput(file, outputPath, true)
			return errors.Wrap(err, "enc")
		}
		defer c.Close()
		sink = rtpsink.New(c, rtpsink.Config{MTU: uint16(*mtu), FrameRate: *fps, Framed: framed})
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(stderr, "h264enc: ", log.Lmicroseconds)
	}

	frames, total, err := encodeStream(in, out, sess, sink, *maxFrames, logger)
	if err != nil {
		closeOutput(file, outputPath, true)
		return errors.Wrap(err, "enc")
	}
	if err := closeOutput(file, outputPath, false); err != nil {
		return err
	}
	if sink != nil {
		packets, _ := sink.Stats()
		fmt.Fprintf(stderr, "Sent %d RTP packets to %s\n", packets, *rtpOut)
	}
	fmt.Fprintf(stderr, "Encoded %s → %s (%d frames, %d bytes)\n", inputPath, outputPath, frames, total)
	return nil
}

// encodeStream reads raw I420 frames from r until EOF or limit frames and
// writes their coded form to out and sink.
func encodeStream(r io.Reader, out io.Writer, sess *session.Session, sink *rtpsink.Sink, limit int, logger *log.Logger) (frames int, total int64, err error) {
	cfg := sess.Config()
	w, h := cfg.Width, cfg.Height
	buf := pool.Frame(w, h)
	defer pool.Put(buf)
	pic := h264.NewPicture(w, h)

	for limit <= 0 || frames < limit {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				return frames, total, errors.Errorf("truncated frame %d", frames)
			}
			return frames, total, err
		}
		loadI420(pic, buf, w, h)

		res, err := sess.EncodeFrame(pic, session.FrameParams{})
		if err != nil {
			return frames, total, err
		}
		n, err := out.Write(res.Data)
		total += int64(n)
		if err != nil {
			return frames, total, errors.Wrap(err, "writing output")
		}
		if sink != nil {
			if _, err := sink.WriteAccessUnit(res.Data); err != nil {
				return frames, total, err
			}
		}
		logger.Printf("frame %d %s %d bytes in %d NAL units", frames, res.FrameType, len(res.Data), len(res.NALs))
		frames++
	}
	if frames == 0 {
		return 0, 0, errors.New("no complete frame in input")
	}
	return frames, total, nil
}

// loadI420 copies a packed I420 frame into pic.
func loadI420(pic *h264.Picture, buf []byte, w, h int) {
	cw, ch := (w+1)/2, (h+1)/2
	copyPlane(&pic.Y, buf[:w*h], w, h)
	copyPlane(&pic.U, buf[w*h:w*h+cw*ch], cw, ch)
	copyPlane(&pic.V, buf[w*h+cw*ch:], cw, ch)
}

func copyPlane(p *h264.Plane, src []byte, w, h int) {
	for y := 0; y < h; y++ {
		copy(p.Data[p.Off+y*p.Stride:p.Off+y*p.Stride+w], src[y*w:])
	}
}

func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.Errorf("invalid size %q (want WxH)", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, errors.Errorf("invalid width %q", ws)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, errors.Errorf("invalid height %q", hs)
	}
	return w, h, nil
}

// openRTP opens the RTP destination. UDP destinations get one packet per
// datagram, files get length-framed packets.
func openRTP(dest string) (io.WriteCloser, bool, error) {
	if addr, ok := strings.CutPrefix(dest, "udp://"); ok {
		c, err := net.Dial("udp", addr)
		return c, false, err
	}
	f, err := os.Create(dest)
	return f, true, err
}

func defaultOutput(inputPath, ext string) string {
	if inputPath == "-" {
		return "output" + ext
	}
	return strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ext
}

// closeOutput closes file, removing it when failed is set or the close
// fails. A nil file (stdout) is left alone.
func closeOutput(file *os.File, path string, failed bool) error {
	if file == nil {
		return nil
	}
	err := file.Close()
	if failed || err != nil {
		os.Remove(path)
	}
	return err
}
