package mesh

import (
	"testing"

	"github.com/Faultbox/terrasculpt/internal/terrain"
)

func slopedChunk(t *testing.T) *terrain.Chunk {
	t.Helper()
	c := terrain.NewChunk(0, 0, 16, 1, 0)
	n := c.LatticeSize()
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			c.SetHeight(x, z, float32(x))
		}
	}
	return c
}

func TestCollisionShapeString(t *testing.T) {
	tests := []struct {
		shape CollisionShape
		want  string
	}{
		{CollisionNone, "None"},
		{CollisionHeightfield, "Heightfield"},
		{CollisionTrimesh, "Trimesh"},
		{CollisionConvexHull, "ConvexHull"},
		{CollisionSimplified, "Simplified"},
		{CollisionShape(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.shape.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.shape), got, tt.want)
		}
	}
}

func TestCollisionNone(t *testing.T) {
	c := slopedChunk(t)
	settings := DefaultCollisionSettings()
	settings.Shape = CollisionNone

	col := BuildCollision(c, settings)
	if col.Heightfield != nil || col.Vertices != nil || col.Indices != nil {
		t.Error("None shape should carry no geometry")
	}
}

func TestCollisionHeightfield(t *testing.T) {
	c := slopedChunk(t)
	settings := DefaultCollisionSettings()
	settings.Shape = CollisionHeightfield

	col := BuildCollision(c, settings)
	hf := col.Heightfield
	if hf == nil {
		t.Fatal("heightfield not generated")
	}
	n := c.LatticeSize()
	if hf.Rows != n || hf.Cols != n || len(hf.Heights) != n*n {
		t.Fatalf("heightfield %dx%d with %d samples", hf.Rows, hf.Cols, len(hf.Heights))
	}
	if hf.MinHeight != 0 || hf.MaxHeight != float32(n-1) {
		t.Errorf("height range [%v,%v], want [0,%d]", hf.MinHeight, hf.MaxHeight, n-1)
	}
	if hf.CellSize != 1 {
		t.Errorf("cell size = %v, want 1", hf.CellSize)
	}
	if hf.Heights[5] != 5 {
		t.Errorf("sample (5,0) = %v, want 5", hf.Heights[5])
	}
}

func TestCollisionTrimesh(t *testing.T) {
	c := slopedChunk(t)
	col := BuildCollision(c, DefaultCollisionSettings())

	n := c.LatticeSize()
	if len(col.Vertices) != n*n*3 {
		t.Errorf("trimesh floats = %d, want %d", len(col.Vertices), n*n*3)
	}
	if len(col.Indices) != 6*(n-1)*(n-1) {
		t.Errorf("trimesh indices = %d, want %d", len(col.Indices), 6*(n-1)*(n-1))
	}
}

func TestCollisionConvexHullPointCloud(t *testing.T) {
	c := slopedChunk(t)
	settings := DefaultCollisionSettings()
	settings.Shape = CollisionConvexHull

	col := BuildCollision(c, settings)
	n := c.LatticeSize()
	if len(col.Vertices) != n*n*3 {
		t.Errorf("hull point floats = %d, want %d", len(col.Vertices), n*n*3)
	}
	if col.Indices != nil {
		t.Error("hull shapes carry no indices")
	}
}

func TestCollisionSimplified(t *testing.T) {
	c := slopedChunk(t)
	settings := DefaultCollisionSettings()
	settings.Shape = CollisionSimplified
	settings.SimplifyStep = 4

	col := BuildCollision(c, settings)

	// Lattice 17 sampled at 0,4,8,12,16 gives a 5x5 grid.
	if len(col.Vertices) != 5*5*3 {
		t.Errorf("simplified floats = %d, want %d", len(col.Vertices), 5*5*3)
	}
	if len(col.Indices) != 6*4*4 {
		t.Errorf("simplified indices = %d, want %d", len(col.Indices), 6*4*4)
	}

	// Border columns survive simplification.
	last := col.Vertices[len(col.Vertices)-3:]
	if last[0] != 16 {
		t.Errorf("last sampled x = %v, want chunk border 16", last[0])
	}
}

func TestCollisionClampsMaterial(t *testing.T) {
	c := slopedChunk(t)
	settings := DefaultCollisionSettings()
	settings.Friction = 3
	settings.Restitution = -1

	col := BuildCollision(c, settings)
	if col.Friction != 1 || col.Restitution != 0 {
		t.Errorf("material = (%v,%v), want clamped (1,0)", col.Friction, col.Restitution)
	}
}

func TestBuildAllCollision(t *testing.T) {
	ter := terrain.New(128, 128, 1, 64)
	ter.InitializeFlat(0, 2, 2)

	cols := BuildAllCollision(ter, DefaultCollisionSettings())
	if len(cols) != 4 {
		t.Errorf("built %d collision records, want 4", len(cols))
	}
}
