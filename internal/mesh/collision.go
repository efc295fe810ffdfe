package mesh

import (
	"github.com/Faultbox/terrasculpt/internal/terrain"
)

// CollisionShape selects the physics geometry generated for a chunk.
type CollisionShape int

const (
	CollisionNone CollisionShape = iota
	CollisionHeightfield
	CollisionTrimesh
	CollisionConvexHull
	CollisionSimplified
)

func (s CollisionShape) String() string {
	switch s {
	case CollisionNone:
		return "None"
	case CollisionHeightfield:
		return "Heightfield"
	case CollisionTrimesh:
		return "Trimesh"
	case CollisionConvexHull:
		return "ConvexHull"
	case CollisionSimplified:
		return "Simplified"
	}
	return "Unknown"
}

// CollisionSettings parameterize collision export. Friction and
// restitution are clamped to [0,1] when building.
type CollisionSettings struct {
	Shape       CollisionShape
	Layer       uint32
	Mask        uint32
	Margin      float32
	Friction    float32
	Restitution float32

	// SimplifyStep is the lattice stride used by the Simplified shape.
	SimplifyStep int
}

// DefaultCollisionSettings returns a trimesh setup on layer 1 colliding
// with everything.
func DefaultCollisionSettings() CollisionSettings {
	return CollisionSettings{
		Shape:        CollisionTrimesh,
		Layer:        1,
		Mask:         0xFFFFFFFF,
		Margin:       0.04,
		Friction:     0.8,
		Restitution:  0,
		SimplifyStep: 4,
	}
}

// HeightfieldData is a chunk's height lattice in the row-major layout
// physics engines take for heightfield shapes.
type HeightfieldData struct {
	Rows      int
	Cols      int
	CellSize  float32
	MinHeight float32
	MaxHeight float32
	Heights   []float32
}

// Collision is the CPU geometry for one chunk. Exactly one of
// Heightfield or Vertices is populated, depending on the shape. Hull
// shapes carry a point cloud with no indices; the physics engine
// computes the hull.
type Collision struct {
	ChunkX      int32
	ChunkZ      int32
	Shape       CollisionShape
	Layer       uint32
	Mask        uint32
	Margin      float32
	Friction    float32
	Restitution float32

	Heightfield *HeightfieldData
	Vertices    []float32
	Indices     []uint32
}

// BuildCollision generates collision geometry for one chunk per the
// settings. CollisionNone yields a record with no geometry.
func BuildCollision(c *terrain.Chunk, settings CollisionSettings) Collision {
	cx, cz := c.Coords()
	out := Collision{
		ChunkX:      cx,
		ChunkZ:      cz,
		Shape:       settings.Shape,
		Layer:       settings.Layer,
		Mask:        settings.Mask,
		Margin:      settings.Margin,
		Friction:    clamp01(settings.Friction),
		Restitution: clamp01(settings.Restitution),
	}

	switch settings.Shape {
	case CollisionHeightfield:
		out.Heightfield = buildHeightfield(c)
	case CollisionTrimesh:
		out.Vertices, out.Indices = c.GenerateMesh(false, false)
	case CollisionConvexHull:
		out.Vertices, _ = c.GenerateMesh(false, false)
	case CollisionSimplified:
		step := settings.SimplifyStep
		if step < 1 {
			step = 1
		}
		out.Vertices, out.Indices = buildSimplified(c, step)
	}
	return out
}

// BuildAllCollision generates collision geometry for every chunk.
func BuildAllCollision(t *terrain.Terrain, settings CollisionSettings) []Collision {
	chunks := t.Chunks()
	out := make([]Collision, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, BuildCollision(c, settings))
	}
	return out
}

func buildHeightfield(c *terrain.Chunk) *HeightfieldData {
	n := c.LatticeSize()
	hf := &HeightfieldData{
		Rows:     n,
		Cols:     n,
		CellSize: c.Size() / float32(n-1),
		Heights:  make([]float32, n*n),
	}

	first := true
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			h := c.Height(x, z)
			hf.Heights[z*n+x] = h
			if first || h < hf.MinHeight {
				hf.MinHeight = h
			}
			if first || h > hf.MaxHeight {
				hf.MaxHeight = h
			}
			first = false
		}
	}
	return hf
}

// buildSimplified samples the lattice every step points, always keeping
// the border rows so adjacent chunks stay sealed.
func buildSimplified(c *terrain.Chunk, step int) ([]float32, []uint32) {
	n := c.LatticeSize()

	coords := sampleCoords(n, step)
	m := len(coords)

	vertices := make([]float32, 0, m*m*3)
	for _, z := range coords {
		for _, x := range coords {
			pos := c.LocalToWorld(x, z, c.Height(x, z))
			vertices = append(vertices, pos.X, pos.Y, pos.Z)
		}
	}

	indices := make([]uint32, 0, 6*(m-1)*(m-1))
	for zi := 0; zi < m-1; zi++ {
		for xi := 0; xi < m-1; xi++ {
			i0 := uint32(zi*m + xi)
			i1 := uint32(zi*m + xi + 1)
			i2 := uint32((zi+1)*m + xi)
			i3 := uint32((zi+1)*m + xi + 1)

			indices = append(indices, i0, i2, i1)
			indices = append(indices, i1, i2, i3)
		}
	}
	return vertices, indices
}

// sampleCoords returns 0, step, 2*step, ... plus the last lattice index.
func sampleCoords(n, step int) []int {
	coords := make([]int, 0, n/step+2)
	for i := 0; i < n-1; i += step {
		coords = append(coords, i)
	}
	coords = append(coords, n-1)
	return coords
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
