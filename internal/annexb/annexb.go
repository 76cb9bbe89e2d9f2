// Package annexb splits H.264 Annex-B byte streams into NAL units and
// parses the headers the encoder writes: sequence and picture parameter
// sets and slice headers.
package annexb

import "github.com/pkg/errors"

// NAL unit types.
const (
	TypeSlice = 1
	TypeIDR   = 5
	TypeSEI   = 6
	TypeSPS   = 7
	TypePPS   = 8
	TypeAUD   = 9
)

// Common errors.
var (
	ErrTruncated   = errors.New("annexb: truncated NAL unit")
	ErrUnsupported = errors.New("annexb: unsupported syntax")
	ErrInvalid     = errors.New("annexb: invalid syntax")
	ErrNotFound    = errors.New("annexb: NAL unit not found")
)

// Type returns the nal_unit_type of nal.
func Type(nal []byte) int {
	if len(nal) == 0 {
		return 0
	}
	return int(nal[0] & 0x1f)
}

// RefIDC returns the nal_ref_idc of nal.
func RefIDC(nal []byte) int {
	if len(nal) == 0 {
		return 0
	}
	return int(nal[0]>>5) & 3
}

// TypeName returns a short name for a NAL unit type.
func TypeName(t int) string {
	switch t {
	case TypeSlice:
		return "slice"
	case TypeIDR:
		return "idr"
	case TypeSEI:
		return "sei"
	case TypeSPS:
		return "sps"
	case TypePPS:
		return "pps"
	case TypeAUD:
		return "aud"
	}
	return "other"
}

// Split returns the NAL units of an Annex-B stream, without start codes
// and trailing zero bytes. The units alias data.
func Split(data []byte) [][]byte {
	var nals [][]byte
	start := -1
	i := 0
	for i+2 < len(data) {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			if start >= 0 {
				nals = appendNAL(nals, data[start:i])
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 {
		nals = appendNAL(nals, data[start:])
	}
	return nals
}

func appendNAL(nals [][]byte, nal []byte) [][]byte {
	n := len(nal)
	for n > 0 && nal[n-1] == 0 {
		n--
	}
	if n == 0 {
		return nals
	}
	return append(nals, nal[:n])
}

// Unescape returns the RBSP of nal with its emulation prevention bytes
// removed. The header byte is kept.
func Unescape(nal []byte) []byte {
	out := make([]byte, 0, len(nal))
	zeros := 0
	for _, b := range nal {
		if zeros >= 2 && b == 3 {
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}

// Find returns the first NAL unit of type t in data.
func Find(data []byte, t int) ([]byte, error) {
	for _, nal := range Split(data) {
		if Type(nal) == t {
			return nal, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "type %d", t)
}
