// Command h264enc encodes raw video and still images to H.264 from the
// command line.
//
// Usage:
//
//	h264enc enc [options] <input.yuv>   Raw I420 → Annex-B (use "-" for stdin)
//	h264enc img [options] <image>       PNG/JPEG/GIF/BMP/TIFF/WebP → one IDR picture
//	h264enc info [options] <input.264>  List the NAL units of a stream
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:], os.Stdout, os.Stderr)
	case "img":
		err = runImg(os.Args[2:], os.Stdout, os.Stderr)
	case "info":
		err = runInfo(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		printUsage(os.Stderr)
		return
	default:
		fmt.Fprintf(os.Stderr, "h264enc: unknown command %q\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "h264enc: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  h264enc enc [options] <input.yuv>   Encode raw I420 video to H.264
  h264enc img [options] <image>       Encode a still image as one IDR picture
  h264enc info [options] <input.264>  List the NAL units of a stream

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "h264enc <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
