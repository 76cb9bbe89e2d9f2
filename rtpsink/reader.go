package rtpsink

import (
	"encoding/binary"
	"io"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/pool"
)

// Reader reassembles Annex-B access units from a length-framed RTP
// stream, the inverse of a Sink with Framed set.
type Reader struct {
	r   io.Reader
	hdr [2]byte
	pkt rtp.Packet
	dep codecs.H264Packet
	au  []byte
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadAccessUnit returns the NAL units of the next picture, with start
// codes, and its RTP timestamp. The bytes are valid until the next call.
// It returns io.EOF at the end of the stream.
func (r *Reader) ReadAccessUnit() ([]byte, uint32, error) {
	r.au = r.au[:0]
	for {
		if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
			if err == io.EOF && len(r.au) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, 0, err
		}
		marker, err := r.readPacket(int(binary.BigEndian.Uint16(r.hdr[:])))
		if err != nil {
			return nil, 0, err
		}
		if marker {
			return r.au, r.pkt.Timestamp, nil
		}
	}
}

func (r *Reader) readPacket(n int) (bool, error) {
	buf := pool.Get(n)
	defer pool.Put(buf)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return false, err
	}
	if err := r.pkt.Unmarshal(buf); err != nil {
		return false, errors.Wrap(err, "rtpsink: bad packet")
	}
	nals, err := r.dep.Unmarshal(r.pkt.Payload)
	if err != nil {
		return false, errors.Wrapf(err, "rtpsink: packet %d", r.pkt.SequenceNumber)
	}
	r.au = append(r.au, nals...)
	return r.pkt.Marker, nil
}
