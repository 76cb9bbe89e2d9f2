package h264

import "github.com/pkg/errors"

// Errors returned by the encoder. Each maps to a stable numeric status
// code through StatusCode.
var (
	ErrBadArgument      = errors.New("h264: bad argument")
	ErrBadParameter     = errors.New("h264: bad parameter")
	ErrSizeNotMultiple2 = errors.New("h264: width and height must be even")
	ErrBadLumaAlign     = errors.New("h264: misaligned luma plane")
	ErrBadLumaStride    = errors.New("h264: bad luma stride")
	ErrBadChromaAlign   = errors.New("h264: misaligned chroma plane")
	ErrBadChromaStride  = errors.New("h264: bad chroma stride")
)

// Status codes.
const (
	StatusOK              = 0
	StatusBadArgument     = 1
	StatusBadParameter    = 2
	StatusSizeNotMultiple = 5
	StatusBadLumaAlign    = 6
	StatusBadLumaStride   = 7
	StatusBadChromaAlign  = 8
	StatusBadChromaStride = 9
	StatusUnknown         = -1
)

var statusCodes = []struct {
	err  error
	code int
}{
	{ErrBadArgument, StatusBadArgument},
	{ErrBadParameter, StatusBadParameter},
	{ErrSizeNotMultiple2, StatusSizeNotMultiple},
	{ErrBadLumaAlign, StatusBadLumaAlign},
	{ErrBadLumaStride, StatusBadLumaStride},
	{ErrBadChromaAlign, StatusBadChromaAlign},
	{ErrBadChromaStride, StatusBadChromaStride},
}

// StatusCode returns the numeric status of err, which may wrap one of the
// package errors. A nil error is StatusOK; errors from outside the package
// are StatusUnknown.
func StatusCode(err error) int {
	if err == nil {
		return StatusOK
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return StatusUnknown
}
