package baseline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRefineCandidates(t *testing.T) {
	in := []point{{1, 1}, {0, 0}, {4, 5}, {3, 4}, {-8, 0}, {-7, -1}, {2, 2}}
	got := refineCandidates(in)
	want := []point{{0, 0}, {4, 4}, {-8, 0}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(point{})); diff != "" {
		t.Errorf("refineCandidates mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionHints(t *testing.T) {
	tests := []struct {
		name string
		sad  [4]int
		want [4]bool
	}{
		{"flat", [4]int{100, 100, 100, 100}, [4]bool{true}},
		{"left half differs", [4]int{400, 10, 400, 10}, [4]bool{true, false, true, false}},
		{"top half differs", [4]int{400, 400, 10, 10}, [4]bool{true, true, false, false}},
		{"diagonal", [4]int{400, 10, 10, 10}, [4]bool{true, false, false, true}},
	}
	for _, tt := range tests {
		got := [4]bool{true}
		partitionHints(&tt.sad, &got)
		if got != tt.want {
			t.Errorf("%s: preferred = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSetRange(t *testing.T) {
	e := New(64, 64)
	p, rng := e.setRange(point{-400, 0}, 0)
	if p.x != e.mvLimit.tl.x {
		t.Errorf("start x = %d, want clipped to %d", p.x, e.mvLimit.tl.x)
	}
	if rng.tl.x != e.mvLimit.tl.x || rng.br.x != p.x+mvRange*4 {
		t.Errorf("window x = [%d, %d]", rng.tl.x, rng.br.x)
	}
	if !e.mvLimit.contains(rng.tl) || !e.mvLimit.contains(rng.br) {
		t.Errorf("window %+v leaves the vector limit %+v", rng, e.mvLimit)
	}

	// Vertical reach is bounded around the partition row.
	tall := New(64, 1024)
	p, _ = tall.setRange(point{0, 4000}, 64)
	if p.y != 64+63*4 {
		t.Errorf("start y = %d, want %d", p.y, 64+63*4)
	}
}

func TestMVCostGrowsWithDistance(t *testing.T) {
	e := New(32, 32)
	e.setQP(30)
	pred := point{4, 4}
	if c := e.mvCost(pred, pred); c >= e.mvCost(point{8, 4}, pred) {
		t.Errorf("cost of the predictor %d not below a neighbour", c)
	}
	if e.mvCost(point{64, 0}, pred) <= e.mvCost(point{8, 0}, pred) {
		t.Error("far vector is not more expensive than a near one")
	}
}

func TestUpdateClusters(t *testing.T) {
	// The running mean moves one unit per update at most and stalls where
	// the rounded step no longer reaches the next integer.
	for _, tt := range []struct{ mv, want int }{{40, 9}, {-40, -8}} {
		e := New(32, 32)
		prev := 0
		for i := 0; i < 100; i++ {
			e.updateClusters(point{tt.mv, 0})
			c := e.clusters[1].x
			if step := c - prev; step != 0 && step*tt.mv < 0 || abs(step) > 1 {
				t.Fatalf("mv %d, update %d: long cluster jumped from %d to %d", tt.mv, i, prev, c)
			}
			prev = c
		}
		if got := e.clusters[1]; got != (point{tt.want, 0}) {
			t.Errorf("mv %d: long cluster settled at %v, want {%d 0}", tt.mv, got, tt.want)
		}
		if e.clusters[0] != (point{}) {
			t.Errorf("mv %d: short cluster %v moved on long vectors", tt.mv, e.clusters[0])
		}
	}
}

func TestDiamondFindsShift(t *testing.T) {
	// A bowl-shaped reference and an input cut out of it 6 pixels to the
	// right and 3 down: the search must land on (24, 12) quarter pixels.
	const w, h = 64, 64
	e := New(w, h)
	e.setQP(26)
	e.speed = 9
	ref := NewFrame(w, h)
	y := &ref[0]
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d := (i-32)*(i-32) + (j-32)*(j-32)
			y.Data[y.Off+j*y.Stride+i] = byte(min(d/8, 255))
		}
	}
	e.ref = ref
	e.mbx, e.mby = 1, 1
	var b [256]byte
	base := y.Off + (16+3)*y.Stride + 16 + 6
	for j := 0; j < 16; j++ {
		copy(b[j*16:j*16+16], y.Data[base+j*y.Stride:])
	}

	mv, rng := e.setRange(e.absMV(point{}), e.mby*64)
	start := e.mvCost(mv, mv) + sadAt(e, b[:], mv)
	e.s = NewScratch(w, h)
	cost, _ := e.diamond(y.Data, y.Off, y.Stride, b[:], &mv, &rng, e.absMV(point{}), start, 16, 16)
	want := e.absMV(point{24, 12})
	if mv != want {
		t.Errorf("diamond ended at %v (cost %d), want %v", mv, cost, want)
	}
}

func sadAt(e *Encoder, b []byte, mv point) int {
	p := &e.ref[0]
	var sad int
	off := p.Off + (mv.y>>2)*p.Stride + mv.x>>2
	for j := 0; j < 16; j++ {
		for i := 0; i < 16; i++ {
			d := int(p.Data[off+j*p.Stride+i]) - int(b[j*16+i])
			if d < 0 {
				d = -d
			}
			sad += d
		}
	}
	return sad
}
