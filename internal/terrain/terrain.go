package terrain

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/terrasculpt/pkg/math"
)

// TextureLayer describes one entry of the terrain's texture layer table.
// Blend weight indices refer to this table's order, which is stable across
// sessions.
type TextureLayer struct {
	TexturePath   string
	NormalPath    string
	RoughnessPath string
	MetallicPath  string
	TilingScale   float32
	Opacity       float32
	Enabled       bool
	ColorTint     [4]float32
}

// NewTextureLayer returns a layer with default tiling, full opacity and a
// white tint.
func NewTextureLayer(texturePath string) TextureLayer {
	return TextureLayer{
		TexturePath: texturePath,
		TilingScale: 1,
		Opacity:     1,
		Enabled:     true,
		ColorTint:   [4]float32{1, 1, 1, 1},
	}
}

// Terrain owns a sparse grid of chunks and the texture layer table.
// Brushes, history and the codec hold non-owning references to it; chunk
// lifetime is bound to the terrain.
type Terrain struct {
	width      float32
	depth      float32
	resolution float32
	chunkSize  float32

	chunks map[uint64]*Chunk
	layers []TextureLayer
}

// New creates an empty terrain covering [0,width] x [0,depth] in XZ.
// resolution is height samples per world unit, chunkSize the edge length
// of one chunk in world units.
func New(width, depth, resolution, chunkSize float32) *Terrain {
	return &Terrain{
		width:      width,
		depth:      depth,
		resolution: resolution,
		chunkSize:  chunkSize,
		chunks:     make(map[uint64]*Chunk),
	}
}

// Width returns the terrain width in world units.
func (t *Terrain) Width() float32 { return t.width }

// Depth returns the terrain depth in world units.
func (t *Terrain) Depth() float32 { return t.depth }

// Resolution returns height samples per world unit.
func (t *Terrain) Resolution() float32 { return t.resolution }

// ChunkSize returns the chunk edge length in world units.
func (t *Terrain) ChunkSize() float32 { return t.chunkSize }

// ChunkKey packs chunk coordinates into the 64-bit map key.
func ChunkKey(cx, cz int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cz))
}

// ChunkKeyCoords unpacks a 64-bit chunk key.
func ChunkKeyCoords(key uint64) (int32, int32) {
	return int32(key >> 32), int32(key & 0xFFFFFFFF)
}

// Chunk returns the chunk at the given chunk coordinates, or nil.
func (t *Terrain) Chunk(cx, cz int32) *Chunk {
	return t.chunks[ChunkKey(cx, cz)]
}

// CreateChunk returns the chunk at the given coordinates, constructing an
// all-zero chunk if absent. It is idempotent.
func (t *Terrain) CreateChunk(cx, cz int32) *Chunk {
	key := ChunkKey(cx, cz)
	if c, ok := t.chunks[key]; ok {
		return c
	}
	c := NewChunk(cx, cz, t.chunkSize, t.resolution, len(t.layers))
	t.chunks[key] = c
	return c
}

// ChunkCount returns the number of chunks currently held.
func (t *Terrain) ChunkCount() int { return len(t.chunks) }

// Chunks returns all chunks ordered by packed key, so iteration order is
// deterministic for serialization and tests.
func (t *Terrain) Chunks() []*Chunk {
	keys := make([]uint64, 0, len(t.chunks))
	for k := range t.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]*Chunk, len(keys))
	for i, k := range keys {
		out[i] = t.chunks[k]
	}
	return out
}

// DirtyChunks returns the chunks whose dirty flag is set, in key order.
func (t *Terrain) DirtyChunks() []*Chunk {
	var out []*Chunk
	for _, c := range t.Chunks() {
		if c.Dirty() {
			out = append(out, c)
		}
	}
	return out
}

// Clear removes all chunks.
func (t *Terrain) Clear() {
	t.chunks = make(map[uint64]*Chunk)
}

// InBounds reports whether the world position lies inside the terrain's
// XZ bounds.
func (t *Terrain) InBounds(p math.Vec3) bool {
	return p.X >= 0 && p.X <= t.width && p.Z >= 0 && p.Z <= t.depth
}

// Bounds returns the terrain's world bounds. The Y range spans the
// minimum and maximum height over all chunks; it is zero when no chunk
// exists.
func (t *Terrain) Bounds() (math.Vec3, math.Vec3) {
	min := math.Vec3{}
	max := math.Vec3{X: t.width, Z: t.depth}

	first := true
	for _, c := range t.chunks {
		cmin, cmax := c.WorldBounds()
		if first || cmin.Y < min.Y {
			min.Y = cmin.Y
		}
		if first || cmax.Y > max.Y {
			max.Y = cmax.Y
		}
		first = false
	}
	return min, max
}

// WorldToChunk returns the chunk coordinates containing the world position.
func (t *Terrain) WorldToChunk(p math.Vec3) (int32, int32) {
	cx := int32(gomath.Floor(float64(p.X / t.chunkSize)))
	cz := int32(gomath.Floor(float64(p.Z / t.chunkSize)))
	return cx, cz
}

// WorldToLocalChunk returns fractional lattice coordinates of the world
// position inside its containing chunk.
func (t *Terrain) WorldToLocalChunk(p math.Vec3) (float32, float32) {
	cx, cz := t.WorldToChunk(p)
	lx := (p.X - float32(cx)*t.chunkSize) * t.resolution
	lz := (p.Z - float32(cz)*t.chunkSize) * t.resolution
	return lx, lz
}

// HeightAt returns the interpolated height at a world position. Positions
// outside the terrain bounds return NaN; positions over a missing chunk
// return 0.
func (t *Terrain) HeightAt(p math.Vec3) float32 {
	if !t.InBounds(p) {
		return nan32
	}
	cx, cz := t.WorldToChunk(p)
	c := t.Chunk(cx, cz)
	if c == nil {
		return 0
	}
	lx, lz := t.WorldToLocalChunk(p)
	return c.HeightInterpolated(lx, lz)
}

// NormalAt returns the surface normal at a world position. Positions
// outside the bounds or over a missing chunk return world up.
func (t *Terrain) NormalAt(p math.Vec3) math.Vec3 {
	if !t.InBounds(p) {
		return math.Up()
	}
	cx, cz := t.WorldToChunk(p)
	c := t.Chunk(cx, cz)
	if c == nil {
		return math.Up()
	}
	lx, lz := t.WorldToLocalChunk(p)
	x := int(gomath.Round(float64(lx)))
	z := int(gomath.Round(float64(lz)))
	return c.Normal(x, z)
}

// SetHeightAt writes the height at the lattice sample nearest to the world
// position, creating the chunk if needed. Out-of-bounds writes are ignored.
func (t *Terrain) SetHeightAt(p math.Vec3, height float32) {
	if !t.InBounds(p) {
		return
	}
	cx, cz := t.WorldToChunk(p)
	c := t.CreateChunk(cx, cz)
	lx, lz := t.WorldToLocalChunk(p)
	x := int(gomath.Round(float64(lx)))
	z := int(gomath.Round(float64(lz)))
	c.SetHeight(x, z, height)
}

// BlendWeightsAt returns the interpolated blend weight vector at a world
// position. Outside the bounds or over a missing chunk the vector is all
// zeros.
func (t *Terrain) BlendWeightsAt(p math.Vec3) []float32 {
	out := make([]float32, len(t.layers))
	if !t.InBounds(p) {
		return out
	}
	cx, cz := t.WorldToChunk(p)
	c := t.Chunk(cx, cz)
	if c == nil {
		return out
	}
	lx, lz := t.WorldToLocalChunk(p)
	copy(out, c.BlendInterpolated(lx, lz))
	return out
}

// InitializeFlat replaces all chunks with an nx x nz block centered on the
// origin, every sample set to height. The created chunks are marked loaded
// and clean.
func (t *Terrain) InitializeFlat(height float32, nx, nz int) {
	t.Clear()

	startX := -nx / 2
	startZ := -nz / 2

	for cz := startZ; cz < startZ+nz; cz++ {
		for cx := startX; cx < startX+nx; cx++ {
			c := t.CreateChunk(int32(cx), int32(cz))
			for i := range c.heights {
				c.heights[i] = height
			}
			c.SetLoaded(true)
			c.SetDirty(false)
		}
	}
}

// LayerCount returns the number of texture layers.
func (t *Terrain) LayerCount() int { return len(t.layers) }

// Layers returns the texture layer table in blend-index order.
func (t *Terrain) Layers() []TextureLayer { return t.layers }

// Layer returns the texture layer at the given index, or a zero layer if
// out of range.
func (t *Terrain) Layer(index int) TextureLayer {
	if index < 0 || index >= len(t.layers) {
		return TextureLayer{}
	}
	return t.layers[index]
}

// AddLayer appends a texture layer and widens every chunk's blend vectors
// with a zero slot. It returns the new layer's index.
func (t *Terrain) AddLayer(layer TextureLayer) int {
	t.layers = append(t.layers, layer)
	for _, c := range t.chunks {
		c.setLayerCount(len(t.layers))
	}
	return len(t.layers) - 1
}

// RemoveLayer removes the texture layer at the given index and drops the
// corresponding blend slot from every chunk sample.
func (t *Terrain) RemoveLayer(index int) {
	if index < 0 || index >= len(t.layers) {
		return
	}
	t.layers = append(t.layers[:index], t.layers[index+1:]...)
	for _, c := range t.chunks {
		for i, w := range c.blend {
			c.blend[i] = append(w[:index], w[index+1:]...)
		}
		c.dirty = true
	}
}

// UpdateLayer replaces the texture layer at the given index.
func (t *Terrain) UpdateLayer(index int, layer TextureLayer) {
	if index < 0 || index >= len(t.layers) {
		return
	}
	t.layers[index] = layer
}

// SetLayers replaces the whole layer table, resizing chunk blend vectors
// to match. The codec uses it when loading.
func (t *Terrain) SetLayers(layers []TextureLayer) {
	t.layers = layers
	for _, c := range t.chunks {
		c.setLayerCount(len(layers))
	}
}

// HeightRange returns the minimum and maximum height over all chunk
// lattices. ok is false when the terrain has no chunks.
func (t *Terrain) HeightRange() (min, max float32, ok bool) {
	for _, c := range t.chunks {
		for _, h := range c.heights {
			if !ok {
				min, max = h, h
				ok = true
				continue
			}
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	return min, max, ok
}

// AssetCount returns the total number of asset records across all chunks.
func (t *Terrain) AssetCount() int {
	total := 0
	for _, c := range t.chunks {
		total += len(c.assets)
	}
	return total
}
