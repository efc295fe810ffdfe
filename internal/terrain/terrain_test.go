package terrain

import (
	"math"
	"testing"

	tsmath "github.com/Faultbox/terrasculpt/pkg/math"
)

func TestChunkKeyRoundTrip(t *testing.T) {
	coords := [][2]int32{
		{0, 0},
		{1, -1},
		{-1, 1},
		{-2147483648, 2147483647},
		{123456, -654321},
	}
	for _, c := range coords {
		key := ChunkKey(c[0], c[1])
		cx, cz := ChunkKeyCoords(key)
		if cx != c[0] || cz != c[1] {
			t.Errorf("key round trip (%d,%d) -> (%d,%d)", c[0], c[1], cx, cz)
		}
	}
}

func TestCreateChunkIdempotent(t *testing.T) {
	ter := New(256, 256, 1, 64)

	c1 := ter.CreateChunk(1, 2)
	c2 := ter.CreateChunk(1, 2)
	if c1 != c2 {
		t.Error("CreateChunk should return the existing chunk")
	}
	if ter.ChunkCount() != 1 {
		t.Errorf("chunk count = %d, want 1", ter.ChunkCount())
	}
}

func TestChunksSorted(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.CreateChunk(1, 0)
	ter.CreateChunk(-1, 0)
	ter.CreateChunk(0, 1)
	ter.CreateChunk(0, -1)

	chunks := ter.Chunks()
	if len(chunks) != 4 {
		t.Fatalf("chunk count = %d, want 4", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevX, prevZ := chunks[i-1].Coords()
		curX, curZ := chunks[i].Coords()
		if ChunkKey(prevX, prevZ) >= ChunkKey(curX, curZ) {
			t.Fatal("Chunks should iterate in stable key order")
		}
	}
}

func TestInitializeFlat(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.InitializeFlat(10, 4, 4)

	if ter.ChunkCount() != 16 {
		t.Fatalf("chunk count = %d, want 16", ter.ChunkCount())
	}

	h := ter.HeightAt(tsmath.Vec3{X: 100, Z: 100})
	if h != 10 {
		t.Errorf("HeightAt(100,_,100) = %v, want 10", h)
	}

	n := ter.NormalAt(tsmath.Vec3{X: 100, Z: 100})
	if math.Abs(float64(n.Y-1)) > 1e-6 {
		t.Errorf("flat terrain normal = %v, want up", n)
	}

	for _, c := range ter.Chunks() {
		if !c.Loaded() || c.Dirty() {
			cx, cz := c.Coords()
			t.Errorf("chunk (%d,%d) should be loaded and clean", cx, cz)
		}
	}
}

func TestHeightAtOutsideBounds(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.InitializeFlat(5, 4, 4)

	for _, p := range []tsmath.Vec3{
		{X: -1, Z: 100},
		{X: 100, Z: -1},
		{X: 257, Z: 100},
		{X: 100, Z: 257},
	} {
		if h := ter.HeightAt(p); !math.IsNaN(float64(h)) {
			t.Errorf("HeightAt(%v) = %v, want NaN", p, h)
		}
		n := ter.NormalAt(p)
		if n != tsmath.Up() {
			t.Errorf("NormalAt(%v) = %v, want up", p, n)
		}
	}
}

func TestHeightAtMissingChunk(t *testing.T) {
	ter := New(256, 256, 1, 64)
	if h := ter.HeightAt(tsmath.Vec3{X: 10, Z: 10}); h != 0 {
		t.Errorf("HeightAt over missing chunk = %v, want 0", h)
	}
}

func TestSetHeightAtCreatesChunk(t *testing.T) {
	ter := New(256, 256, 1, 64)

	ter.SetHeightAt(tsmath.Vec3{X: 10, Z: 10}, 3)
	if ter.ChunkCount() != 1 {
		t.Fatalf("chunk count = %d, want 1", ter.ChunkCount())
	}
	if h := ter.HeightAt(tsmath.Vec3{X: 10, Z: 10}); h != 3 {
		t.Errorf("HeightAt after SetHeightAt = %v, want 3", h)
	}

	// Out-of-bounds writes are ignored.
	ter.SetHeightAt(tsmath.Vec3{X: -10, Z: 10}, 3)
	if ter.ChunkCount() != 1 {
		t.Error("out-of-bounds SetHeightAt should not create chunks")
	}
}

func TestHeightAtBilinear(t *testing.T) {
	ter := New(256, 256, 1, 64)
	c := ter.CreateChunk(0, 0)
	c.SetHeight(0, 0, 0)
	c.SetHeight(1, 0, 4)

	if h := ter.HeightAt(tsmath.Vec3{X: 0.5, Z: 0}); math.Abs(float64(h-2)) > 1e-5 {
		t.Errorf("HeightAt midpoint = %v, want 2", h)
	}
}

func TestLayerManagement(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.CreateChunk(0, 0)

	idx := ter.AddLayer(NewTextureLayer("textures/grass.png"))
	if idx != 0 {
		t.Errorf("first layer index = %d, want 0", idx)
	}
	ter.AddLayer(NewTextureLayer("textures/rock.png"))

	if ter.LayerCount() != 2 {
		t.Fatalf("layer count = %d, want 2", ter.LayerCount())
	}
	if got := ter.Chunk(0, 0).LayerCount(); got != 2 {
		t.Errorf("chunk blend width = %d, want 2", got)
	}

	layer := ter.Layer(1)
	layer.Opacity = 0.5
	ter.UpdateLayer(1, layer)
	if ter.Layer(1).Opacity != 0.5 {
		t.Error("UpdateLayer should replace the layer record")
	}

	ter.RemoveLayer(0)
	if ter.LayerCount() != 1 {
		t.Fatalf("layer count after removal = %d, want 1", ter.LayerCount())
	}
	if ter.Layer(0).TexturePath != "textures/rock.png" {
		t.Errorf("remaining layer = %q, want rock", ter.Layer(0).TexturePath)
	}
	if got := ter.Chunk(0, 0).LayerCount(); got != 1 {
		t.Errorf("chunk blend width after removal = %d, want 1", got)
	}
}

func TestDirtyChunks(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.InitializeFlat(0, 2, 2)

	if got := len(ter.DirtyChunks()); got != 0 {
		t.Fatalf("dirty count after flat init = %d, want 0", got)
	}

	ter.Chunk(0, 0).SetDirty(true)
	dirty := ter.DirtyChunks()
	if len(dirty) != 1 {
		t.Fatalf("dirty count = %d, want 1", len(dirty))
	}
	if cx, cz := dirty[0].Coords(); cx != 0 || cz != 0 {
		t.Errorf("dirty chunk = (%d,%d), want (0,0)", cx, cz)
	}
}

func TestAssetCount(t *testing.T) {
	ter := New(256, 256, 1, 64)
	ter.CreateChunk(0, 0).AddAsset(Asset{Path: "props/tree.obj"})
	ter.CreateChunk(1, 0).AddAsset(Asset{Path: "props/rock.obj"})
	ter.CreateChunk(1, 0).AddAsset(Asset{Path: "props/bush.obj"})

	if got := ter.AssetCount(); got != 3 {
		t.Errorf("asset count = %d, want 3", got)
	}
}
