package brush

import (
	"math"
	"testing"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	tsmath "github.com/Faultbox/terrasculpt/pkg/math"
)

func newFlatTerrain() *terrain.Terrain {
	ter := terrain.New(256, 256, 1, 64)
	ter.InitializeFlat(0, 4, 4)
	return ter
}

func constantBrush(size float32) *HeightBrush {
	b := NewHeightBrush(16, 1)
	s := b.Settings()
	s.Size = size
	s.Strength = 1
	s.Falloff = FalloffConstant
	b.SetSettings(s)
	return b
}

func TestHeightBrushRaise(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)

	center := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, center)
	b.EndStroke()

	// One dab at full weight moves the sample by rate/60.
	got := ter.HeightAt(center)
	want := float32(10.0 / 60.0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("height after raise dab = %v, want %v", got, want)
	}

	// Outside the footprint nothing moved.
	if h := ter.HeightAt(tsmath.Vec3{X: 50, Z: 50}); h != 0 {
		t.Errorf("height outside footprint = %v, want 0", h)
	}
}

func TestHeightBrushLower(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)
	p := b.Params()
	p.Operation = OpLower
	b.SetParams(p)

	center := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, center)
	b.EndStroke()

	got := ter.HeightAt(center)
	want := float32(-10.0 / 60.0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("height after lower dab = %v, want %v", got, want)
	}
}

func TestHeightBrushUndoRedo(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)

	center := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, center)
	b.EndStroke()

	raised := ter.HeightAt(center)
	if raised == 0 {
		t.Fatal("stroke should have raised the terrain")
	}

	if !b.Undo(ter) {
		t.Fatal("Undo should succeed")
	}
	if h := ter.HeightAt(center); h != 0 {
		t.Errorf("height after undo = %v, want 0", h)
	}

	if !b.Redo(ter) {
		t.Fatal("Redo should succeed")
	}
	if h := ter.HeightAt(center); math.Abs(float64(h-raised)) > 1e-6 {
		t.Errorf("height after redo = %v, want %v", h, raised)
	}
}

func TestHeightBrushFlatten(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)
	p := b.Params()
	p.Operation = OpFlatten
	p.TargetHeight = 0.05
	b.SetParams(p)

	center := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, center)
	b.EndStroke()

	// The target is within one dab's reach, so the sample lands on it.
	if h := ter.HeightAt(center); math.Abs(float64(h-0.05)) > 1e-5 {
		t.Errorf("height after flatten = %v, want 0.05", h)
	}

	// Flattening again at the target changes nothing.
	b.BeginStroke(ter, center)
	b.EndStroke()
	if h := ter.HeightAt(center); math.Abs(float64(h-0.05)) > 1e-5 {
		t.Errorf("height after second flatten = %v, want 0.05", h)
	}
}

func TestHeightBrushSet(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)
	p := b.Params()
	p.Operation = OpSet
	p.TargetHeight = 7
	b.SetParams(p)

	center := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, center)
	b.EndStroke()

	if h := ter.HeightAt(center); h != 7 {
		t.Errorf("height after set = %v, want 7", h)
	}
}

func TestHeightBrushSmooth(t *testing.T) {
	ter := newFlatTerrain()
	c := ter.Chunk(0, 0)
	c.SetHeight(32, 32, 9)

	b := constantBrush(3)
	p := b.Params()
	p.Operation = OpSmooth
	b.SetParams(p)

	before := c.Height(32, 32)
	b.BeginStroke(ter, tsmath.Vec3{X: 32, Z: 32})
	b.EndStroke()

	after := c.Height(32, 32)
	if after >= before {
		t.Errorf("smoothing a spike should lower it: before %v, after %v", before, after)
	}
	if after < 0 {
		t.Errorf("smoothing should not overshoot below the neighborhood: %v", after)
	}
}

func TestHeightBrushSmoothSeamCoherence(t *testing.T) {
	ter := newFlatTerrain()
	left := ter.Chunk(0, 0)
	right := ter.Chunk(1, 0)
	if left == nil || right == nil {
		t.Fatal("expected chunks on both sides of the seam")
	}
	left.SetHeight(63, 32, 9)

	b := constantBrush(3)
	p := b.Params()
	p.Operation = OpSmooth
	b.SetParams(p)

	b.BeginStroke(ter, tsmath.Vec3{X: 64, Z: 32})
	b.EndStroke()

	// Samples on the chunk seam exist in both chunks and must stay
	// equal, or the rendered surface cracks along the boundary.
	n := left.LatticeSize()
	for z := 30; z <= 34; z++ {
		l := left.Height(n-1, z)
		r := right.Height(0, z)
		if l != r {
			t.Errorf("seam sample z=%d diverged: left %v, right %v", z, l, r)
		}
	}
	if got := left.Height(n-1, 32); got <= 0 {
		t.Errorf("seam sample next to the spike should rise, got %v", got)
	}

	if !b.Undo(ter) {
		t.Fatal("Undo should succeed")
	}
	if l, r := left.Height(n-1, 32), right.Height(0, 32); l != 0 || r != 0 {
		t.Errorf("undo should restore both seam copies to 0: left %v, right %v", l, r)
	}
	if got := left.Height(63, 32); got != 9 {
		t.Errorf("undo should restore the spike, got %v", got)
	}
}

func TestHeightBrushNoiseDeterministic(t *testing.T) {
	center := tsmath.Vec3{X: 32, Z: 32}

	run := func() float32 {
		ter := newFlatTerrain()
		b := constantBrush(5)
		p := b.Params()
		p.Operation = OpNoise
		b.SetParams(p)
		b.BeginStroke(ter, center)
		b.EndStroke()
		return ter.HeightAt(center)
	}

	if run() != run() {
		t.Error("same seed should reproduce the same noise result")
	}
}

func TestHeightBrushSpacingGate(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)
	s := b.Settings()
	s.Spacing = 1 // dab every 5 units traveled
	b.SetSettings(s)

	start := tsmath.Vec3{X: 32, Z: 32}
	b.BeginStroke(ter, start)

	// Moves shorter than spacing*size do not emit a dab.
	b.ContinueStroke(tsmath.Vec3{X: 33, Z: 32})
	b.ContinueStroke(tsmath.Vec3{X: 34, Z: 32})
	b.EndStroke()

	got := ter.HeightAt(start)
	want := float32(10.0 / 60.0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("height with gated moves = %v, want single-dab %v", got, want)
	}
}

func TestHeightBrushSlopeGate(t *testing.T) {
	ter := terrain.New(256, 256, 1, 64)
	c := ter.CreateChunk(0, 0)
	// Steep ramp along X.
	for z := 0; z < c.LatticeSize(); z++ {
		for x := 0; x < c.LatticeSize(); x++ {
			c.SetHeight(x, z, float32(x)*3)
		}
	}

	b := constantBrush(3)
	p := b.Params()
	p.RespectMaxSlope = true
	p.MaxSlopeAngle = 10
	b.SetParams(p)

	center := tsmath.Vec3{X: 32, Z: 32}
	before := ter.HeightAt(center)
	b.BeginStroke(ter, center)
	b.EndStroke()

	if after := ter.HeightAt(center); after != before {
		t.Errorf("slope gate should skip steep samples: before %v, after %v", before, after)
	}
}

func TestHeightBrushPreview(t *testing.T) {
	ter := newFlatTerrain()
	b := constantBrush(5)

	vertices, indices := b.GeneratePreview(ter, tsmath.Vec3{X: 32, Z: 32})
	if len(vertices) != previewSegments+1 {
		t.Fatalf("preview vertex count = %d, want %d", len(vertices), previewSegments+1)
	}
	if len(indices) != previewSegments*3 {
		t.Fatalf("preview index count = %d, want %d", len(indices), previewSegments*3)
	}

	// The fan closes: the last triangle reuses the first ring vertex.
	last := indices[len(indices)-1]
	if last != 1 {
		t.Errorf("closing triangle should wrap to the first ring vertex, got %d", last)
	}
}
