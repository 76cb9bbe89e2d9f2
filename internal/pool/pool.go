// Package pool keeps size-classed byte buffers for packet and frame I/O so
// that streaming loops do not allocate per packet or per picture.
package pool

import "sync"

// Size classes. Packet covers one RTP packet at any common MTU; the larger
// classes cover raw pictures up to 4096x4096 in 4:2:0.
const (
	Packet  = 2048
	Size64K = 65536
	Size1M  = 1 << 20
	Size4M  = 4 << 20
	Size32M = 32 << 20
)

var sizes = [...]int{Packet, Size64K, Size1M, Size4M, Size32M}

var pools [len(sizes)]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i].New = func() any {
			b := make([]byte, sz)
			return &b
		}
	}
}

// bucket returns the index of the smallest class holding size bytes, or
// len(sizes) when none does.
func bucket(size int) int {
	for i, sz := range sizes {
		if size <= sz {
			return i
		}
	}
	return len(sizes)
}

// Get returns a slice of length size. Buffers larger than the biggest
// class are allocated directly. Release it with Put.
func Get(size int) []byte {
	idx := bucket(size)
	if idx == len(sizes) {
		return make([]byte, size)
	}
	bp := pools[idx].Get().(*[]byte)
	return (*bp)[:size]
}

// Put returns b to its class. Slices whose capacity is not exactly a class
// size are dropped.
func Put(b []byte) {
	c := cap(b)
	idx := bucket(c)
	if idx == len(sizes) || sizes[idx] != c {
		return
	}
	b = b[:c]
	pools[idx].Put(&b)
}

// Frame returns a buffer for one raw 4:2:0 picture of width x height.
func Frame(width, height int) []byte {
	return Get(width*height + 2*((width+1)/2)*((height+1)/2))
}
