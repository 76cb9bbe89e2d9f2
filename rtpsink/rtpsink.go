// Package rtpsink packetizes encoded access units into RTP (RFC 6184) and
// writes them to a packet or stream transport.
//
// Single NAL units that fit the MTU are sent as is, larger ones as FU-A
// fragments, and parameter sets are aggregated into STAP-A packets. On
// stream transports every packet is prefixed with its 16-bit length as in
// RFC 4571.
package rtpsink

import (
	"encoding/binary"
	"io"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pkg/errors"

	"github.com/deepteams/h264/internal/pool"
)

// ClockRate is the RTP clock of H.264 video.
const ClockRate = 90000

// DefaultMTU leaves room for IP and UDP headers on a 1500 byte link.
const DefaultMTU = 1200

// Config selects the RTP stream parameters.
type Config struct {
	// MTU bounds the size of one marshalled packet, DefaultMTU when zero.
	MTU uint16
	// PayloadType is the dynamic payload type, 96 when zero.
	PayloadType uint8
	// SSRC of the stream.
	SSRC uint32
	// FrameRate converts frames to timestamp increments, 30 when zero.
	FrameRate int
	// Framed prefixes every packet with a 2-byte big-endian length.
	Framed bool
}

// Sink writes the RTP packets of each access unit to an io.Writer. When
// the writer is a datagram socket each Write carries one packet.
type Sink struct {
	w       io.Writer
	cfg     Config
	p       rtp.Packetizer
	samples uint32

	packets int
	bytes   int64
}

// New returns a Sink writing to w.
func New(w io.Writer, cfg Config) *Sink {
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.PayloadType == 0 {
		cfg.PayloadType = 96
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	return &Sink{
		w:       w,
		cfg:     cfg,
		p:       rtp.NewPacketizer(cfg.MTU, cfg.PayloadType, cfg.SSRC, &codecs.H264Payloader{}, rtp.NewRandomSequencer(), ClockRate),
		samples: uint32(ClockRate / cfg.FrameRate),
	}
}

// WriteAccessUnit sends the Annex-B NAL units of one picture. All packets
// share a timestamp and the last one carries the marker bit. It returns
// the number of packets written.
func (s *Sink) WriteAccessUnit(au []byte) (int, error) {
	pkts := s.p.Packetize(au, s.samples)
	for i, pkt := range pkts {
		if err := s.writePacket(pkt); err != nil {
			return i, errors.Wrapf(err, "rtpsink: packet %d of %d", i, len(pkts))
		}
	}
	s.packets += len(pkts)
	return len(pkts), nil
}

func (s *Sink) writePacket(pkt *rtp.Packet) error {
	hdr := 0
	if s.cfg.Framed {
		hdr = 2
	}
	n := pkt.MarshalSize()
	if n > 0xffff {
		return errors.Errorf("packet of %d bytes", n)
	}
	buf := pool.Get(hdr + n)
	defer pool.Put(buf)
	if _, err := pkt.MarshalTo(buf[hdr:]); err != nil {
		return err
	}
	if s.cfg.Framed {
		binary.BigEndian.PutUint16(buf, uint16(n))
	}
	m, err := s.w.Write(buf)
	s.bytes += int64(m)
	return err
}

// Stats returns the packets and bytes written so far.
func (s *Sink) Stats() (packets int, bytes int64) {
	return s.packets, s.bytes
}
