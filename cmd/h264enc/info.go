package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/annexb"
	"github.com/deepteams/h264/rtpsink"
)

// streamInfo accumulates what runInfo prints.
type streamInfo struct {
	sps    *annexb.SPS
	pps    *annexb.PPS
	nals   int
	bytes  int
	slices map[string]int
}

// --- info ---

func runInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	rtpIn := fs.Bool("rtp", false, "input holds RFC 4571 framed RTP packets")
	quiet := fs.Bool("q", false, "print the summary only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("info: missing input file\nUsage: h264enc info [options] <input.264>")
	}
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	list := stdout
	if *quiet {
		list = io.Discard
	}
	st := &streamInfo{slices: map[string]int{}}
	if *rtpIn {
		r := rtpsink.NewReader(in)
		for au := 0; ; au++ {
			data, ts, err := r.ReadAccessUnit()
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.Wrapf(err, "info: access unit %d", au)
			}
			fmt.Fprintf(list, "access unit %d, timestamp %d\n", au, ts)
			if err := st.add(list, data); err != nil {
				return errors.Wrap(err, "info")
			}
		}
	} else {
		data, err := io.ReadAll(in)
		if err != nil {
			return errors.Wrap(err, "info: reading input")
		}
		if err := st.add(list, data); err != nil {
			return errors.Wrap(err, "info")
		}
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}
	fmt.Fprintf(stdout, "File:       %s\n", name)
	if st.sps != nil {
		fmt.Fprintf(stdout, "Profile:    %d level %d.%d\n", st.sps.ProfileIDC, st.sps.LevelIDC/10, st.sps.LevelIDC%10)
		fmt.Fprintf(stdout, "Dimensions: %d x %d\n", st.sps.Width(), st.sps.Height())
	}
	fmt.Fprintf(stdout, "NAL units:  %d (%d bytes)\n", st.nals, st.bytes)
	fmt.Fprintf(stdout, "Pictures:   %d IDR, %d I, %d P\n", st.slices["IDR"], st.slices["I"], st.slices["P"])
	return nil
}

// add lists the NAL units of data.
func (st *streamInfo) add(w io.Writer, data []byte) error {
	for _, nal := range annexb.Split(data) {
		t := annexb.Type(nal)
		fmt.Fprintf(w, "#%-4d %-5s ref=%d %7d bytes", st.nals, annexb.TypeName(t), annexb.RefIDC(nal), len(nal))
		st.nals++
		st.bytes += len(nal)

		var err error
		switch t {
		case annexb.TypeSPS:
			st.sps, err = annexb.ParseSPS(nal)
			if err == nil {
				fmt.Fprintf(w, "  profile %d level %d %dx%d refs %d", st.sps.ProfileIDC, st.sps.LevelIDC,
					st.sps.Width(), st.sps.Height(), st.sps.NumRefFrames)
			}
		case annexb.TypePPS:
			st.pps, err = annexb.ParsePPS(nal)
			if err == nil {
				fmt.Fprintf(w, "  init qp %d", st.pps.PicInitQP)
			}
		case annexb.TypeSlice, annexb.TypeIDR:
			if st.sps == nil || st.pps == nil {
				fmt.Fprintln(w, "  (no parameter sets)")
				continue
			}
			var hdr *annexb.SliceHeader
			hdr, err = annexb.ParseSliceHeader(nal, st.sps, st.pps)
			if err == nil {
				kind := "P"
				switch {
				case t == annexb.TypeIDR:
					kind = "IDR"
				case hdr.SliceType == annexb.SliceI:
					kind = "I"
				}
				st.slices[kind]++
				fmt.Fprintf(w, "  %s frame_num %d qp %d", kind, hdr.FrameNum, hdr.QP)
				if t == annexb.TypeIDR {
					fmt.Fprintf(w, " idr_id %d", hdr.IDRPicID)
				}
				if hdr.DisableDeblock == 1 {
					fmt.Fprint(w, " nodeblock")
				}
			}
		}
		fmt.Fprintln(w)
		if err != nil {
			return errors.Wrapf(err, "NAL unit %d", st.nals-1)
		}
	}
	return nil
}
