package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"math"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/deepteams/h264"
	"github.com/deepteams/h264/internal/dsp"
)

// --- img ---

func runImg(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("img", flag.ContinueOnError)
	fs.SetOutput(stderr)
	qp := fs.Int("qp", 24, "quantizer 10-51")
	speed := fs.Int("speed", 0, "speed 0 (best) to 10 (fastest)")
	noDeblock := fs.Bool("nodeblock", false, "disable the loop filter")
	output := fs.String("o", "", `output path (default: <input>.264, "-" for stdout)`)
	verbose := fs.Bool("v", false, "log the luma PSNR of the coded picture")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("img: missing input file\nUsage: h264enc img [options] <image>")
	}
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(in)
	in.Close()
	if err != nil {
		return errors.Wrap(err, "img: decoding input")
	}
	pic, w, h, err := imageToPicture(img)
	if err != nil {
		return errors.Wrap(err, "img")
	}

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

	opts := h264.DefaultOptions()
	opts.QP = *qp
	opts.Speed = *speed
	opts.DisableDeblock = *noDeblock
	enc, err := h264.NewWriter(out, w, h, opts)
	if err == nil {
		_, err = enc.WriteFrame(pic)
	}
	if err != nil {
		closeOutput(file, outputPath, true)
		return errors.Wrap(err, "img")
	}
	if err := closeOutput(file, outputPath, false); err != nil {
		return err
	}
	if *verbose {
		logger := log.New(stderr, "h264enc: ", 0)
		logger.Printf("%s %dx%d, luma PSNR %.2f dB", format, w, h, lumaPSNR(pic, enc.Reconstruction(), w, h))
	}
	fmt.Fprintf(stderr, "Encoded %s → %s (%dx%d, %d bytes)\n", inputPath, outputPath, w, h, enc.Size())
	return nil
}

// imageToPicture converts img to 4:2:0, dropping a trailing odd row or
// column.
func imageToPicture(img image.Image) (*h264.Picture, int, int, error) {
	b := img.Bounds()
	w, h := b.Dx()&^1, b.Dy()&^1
	if w == 0 || h == 0 {
		return nil, 0, 0, errors.Errorf("image %dx%d too small", b.Dx(), b.Dy())
	}
	if w > h264.MaxDimension || h > h264.MaxDimension {
		return nil, 0, 0, errors.Errorf("image %dx%d too large", w, h)
	}
	pic := h264.NewPicture(w, h)
	if yc, ok := img.(*image.YCbCr); ok && yc.SubsampleRatio == image.YCbCrSubsampleRatio420 && b.Min.X&1 == 0 && b.Min.Y&1 == 0 {
		for y := 0; y < h; y++ {
			copy(pic.Y.Data[pic.Y.Off+y*pic.Y.Stride:][:w], yc.Y[yc.YOffset(b.Min.X, b.Min.Y+y):])
		}
		for y := 0; y < h/2; y++ {
			off := yc.COffset(b.Min.X, b.Min.Y+2*y)
			copy(pic.U.Data[pic.U.Off+y*pic.U.Stride:][:w/2], yc.Cb[off:])
			copy(pic.V.Data[pic.V.Off+y*pic.V.Stride:][:w/2], yc.Cr[off:])
		}
		return pic, w, h, nil
	}

	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x += 2 {
			var rs, gs, bs int
			for k := 0; k < 4; k++ {
				px, py := x+k&1, y+k>>1
				r, g, bl, _ := img.At(b.Min.X+px, b.Min.Y+py).RGBA()
				ri, gi, bi := int(r>>8), int(g>>8), int(bl>>8)
				pic.Y.Data[pic.Y.Off+py*pic.Y.Stride+px] = dsp.RGBToY(ri, gi, bi)
				rs += ri
				gs += gi
				bs += bi
			}
			pic.U.Data[pic.U.Off+(y/2)*pic.U.Stride+x/2] = dsp.RGBToU(rs, gs, bs)
			pic.V.Data[pic.V.Off+(y/2)*pic.V.Stride+x/2] = dsp.RGBToV(rs, gs, bs)
		}
	}
	return pic, w, h, nil
}

func lumaPSNR(a, b *h264.Picture, w, h int) float64 {
	var sse float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float64(a.Y.Data[a.Y.Off+y*a.Y.Stride+x]) - float64(b.Y.Data[b.Y.Off+y*b.Y.Stride+x])
			sse += d * d
		}
	}
	if sse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255*float64(w*h)/sse)
}
