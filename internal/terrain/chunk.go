// Package terrain owns the chunked terrain data model: a sparse grid of
// fixed-size chunks, each holding a regular height lattice with parallel
// texture blend weights and scattered asset records.
package terrain

import (
	gomath "math"

	"github.com/Faultbox/terrasculpt/pkg/math"
)

// Asset is one scattered asset instance anchored to a chunk.
// Rotation is stored as euler degrees, matching the file format.
type Asset struct {
	Path         string
	Position     math.Vec3
	Rotation     math.Vec3
	Scale        math.Vec3
	HeightOffset float32
	Visible      bool
	ID           uint32
}

// Chunk is one cell of the terrain grid: an N x N lattice of heights and
// blend weights plus the asset records scattered inside it. N is fixed at
// construction as floor(chunkSize*resolution)+1.
type Chunk struct {
	cx, cz     int32
	chunkSize  float32
	resolution float32
	n          int

	heights []float32
	blend   [][]float32
	assets  []Asset

	nextAssetID uint32
	dirty       bool
	loaded      bool
}

// NewChunk creates an all-zero chunk at the given chunk coordinates.
// layerCount sizes each sample's blend weight vector.
func NewChunk(cx, cz int32, chunkSize, resolution float32, layerCount int) *Chunk {
	n := int(chunkSize*resolution) + 1
	total := n * n

	blend := make([][]float32, total)
	for i := range blend {
		blend[i] = make([]float32, layerCount)
	}

	return &Chunk{
		cx:          cx,
		cz:          cz,
		chunkSize:   chunkSize,
		resolution:  resolution,
		n:           n,
		heights:     make([]float32, total),
		blend:       blend,
		nextAssetID: 1,
		dirty:       true,
	}
}

// Coords returns the chunk coordinates (cx, cz).
func (c *Chunk) Coords() (int32, int32) { return c.cx, c.cz }

// Size returns the chunk edge length in world units.
func (c *Chunk) Size() float32 { return c.chunkSize }

// Resolution returns height samples per world unit.
func (c *Chunk) Resolution() float32 { return c.resolution }

// LatticeSize returns N, the number of samples along each axis.
func (c *Chunk) LatticeSize() int { return c.n }

// LayerCount returns the length of each sample's blend weight vector.
func (c *Chunk) LayerCount() int {
	if len(c.blend) == 0 {
		return 0
	}
	return len(c.blend[0])
}

// Dirty reports whether the chunk was written since the last acknowledgement.
func (c *Chunk) Dirty() bool { return c.dirty }

// SetDirty sets or clears the dirty flag.
func (c *Chunk) SetDirty(dirty bool) { c.dirty = dirty }

// Loaded reports whether the chunk holds authored data.
func (c *Chunk) Loaded() bool { return c.loaded }

// SetLoaded marks the chunk as holding authored data.
func (c *Chunk) SetLoaded(loaded bool) { c.loaded = loaded }

// WorldBounds returns the chunk's axis-aligned world bounds. The Y range
// spans the minimum and maximum height sample.
func (c *Chunk) WorldBounds() (math.Vec3, math.Vec3) {
	worldX := float32(c.cx) * c.chunkSize
	worldZ := float32(c.cz) * c.chunkSize

	min := math.Vec3{X: worldX, Y: 0, Z: worldZ}
	max := math.Vec3{X: worldX + c.chunkSize, Y: 0, Z: worldZ + c.chunkSize}

	if len(c.heights) > 0 {
		min.Y = c.heights[0]
		max.Y = c.heights[0]
		for _, h := range c.heights[1:] {
			if h < min.Y {
				min.Y = h
			}
			if h > max.Y {
				max.Y = h
			}
		}
	}
	return min, max
}

func (c *Chunk) index(x, z int) int { return z*c.n + x }

func (c *Chunk) valid(x, z int) bool {
	return x >= 0 && x < c.n && z >= 0 && z < c.n
}

// Height returns the height at integer lattice coordinates.
// Out-of-range reads return 0.
func (c *Chunk) Height(x, z int) float32 {
	if !c.valid(x, z) {
		return 0
	}
	return c.heights[c.index(x, z)]
}

// SetHeight writes the height at integer lattice coordinates and marks the
// chunk dirty. Out-of-range writes are ignored.
func (c *Chunk) SetHeight(x, z int, height float32) {
	if !c.valid(x, z) {
		return
	}
	c.heights[c.index(x, z)] = height
	c.dirty = true
}

// HeightInterpolated returns the bilinearly interpolated height at
// fractional lattice coordinates. Coordinates are clamped to the lattice;
// border samples replicate edge values.
func (c *Chunk) HeightInterpolated(x, z float32) float32 {
	x = math.Clamp(x, 0, float32(c.n-1))
	z = math.Clamp(z, 0, float32(c.n-1))

	x0 := int(x)
	z0 := int(z)
	x1 := minInt(x0+1, c.n-1)
	z1 := minInt(z0+1, c.n-1)

	fx := x - float32(x0)
	fz := z - float32(z0)

	h00 := c.Height(x0, z0)
	h10 := c.Height(x1, z0)
	h01 := c.Height(x0, z1)
	h11 := c.Height(x1, z1)

	h0 := h00*(1-fx) + h10*fx
	h1 := h01*(1-fx) + h11*fx
	return h0*(1-fz) + h1*fz
}

// HeightData returns the chunk's height array in row-major order.
func (c *Chunk) HeightData() []float32 { return c.heights }

// SetHeightData replaces the whole height array. The replacement must have
// exactly N*N samples; anything else is ignored.
func (c *Chunk) SetHeightData(data []float32) {
	if len(data) != len(c.heights) {
		return
	}
	copy(c.heights, data)
	c.dirty = true
}

// BlendWeights returns a copy of the blend weight vector at integer lattice
// coordinates. Out-of-range reads return a zero vector.
func (c *Chunk) BlendWeights(x, z int) []float32 {
	out := make([]float32, c.LayerCount())
	if c.valid(x, z) {
		copy(out, c.blend[c.index(x, z)])
	}
	return out
}

// SetBlendWeights writes the blend weight vector at integer lattice
// coordinates, clamping each weight to [0,1]. Extra weights beyond the
// chunk's layer count are dropped; out-of-range writes are ignored.
func (c *Chunk) SetBlendWeights(x, z int, weights []float32) {
	if !c.valid(x, z) {
		return
	}
	dst := c.blend[c.index(x, z)]
	for i := range dst {
		if i < len(weights) {
			dst[i] = math.Clamp(weights[i], 0, 1)
		}
	}
	c.dirty = true
}

// BlendInterpolated returns the bilinearly interpolated blend weight vector
// at fractional lattice coordinates.
func (c *Chunk) BlendInterpolated(x, z float32) []float32 {
	x = math.Clamp(x, 0, float32(c.n-1))
	z = math.Clamp(z, 0, float32(c.n-1))

	x0 := int(x)
	z0 := int(z)
	x1 := minInt(x0+1, c.n-1)
	z1 := minInt(z0+1, c.n-1)

	fx := x - float32(x0)
	fz := z - float32(z0)

	w00 := c.blend[c.index(x0, z0)]
	w10 := c.blend[c.index(x1, z0)]
	w01 := c.blend[c.index(x0, z1)]
	w11 := c.blend[c.index(x1, z1)]

	out := make([]float32, c.LayerCount())
	for i := range out {
		w0 := w00[i]*(1-fx) + w10[i]*fx
		w1 := w01[i]*(1-fx) + w11[i]*fx
		out[i] = w0*(1-fz) + w1*fz
	}
	return out
}

// setLayerCount resizes every sample's blend vector, preserving existing
// weights where slots survive.
func (c *Chunk) setLayerCount(n int) {
	for i, w := range c.blend {
		if len(w) == n {
			continue
		}
		next := make([]float32, n)
		copy(next, w)
		c.blend[i] = next
	}
	c.dirty = true
}

// AddAsset appends an asset record, assigning it the chunk's next
// monotonic id. The assigned id is returned.
func (c *Chunk) AddAsset(asset Asset) uint32 {
	asset.ID = c.nextAssetID
	c.nextAssetID++
	c.assets = append(c.assets, asset)
	c.dirty = true
	return asset.ID
}

// RestoreAsset re-adds an asset keeping its recorded id. Undo and the
// codec use it so ids stay stable across redo and reload.
func (c *Chunk) RestoreAsset(asset Asset) {
	if asset.ID >= c.nextAssetID {
		c.nextAssetID = asset.ID + 1
	}
	c.assets = append(c.assets, asset)
	c.dirty = true
}

// RemoveAsset removes the asset with the given id. It reports whether an
// asset was removed.
func (c *Chunk) RemoveAsset(id uint32) bool {
	for i, a := range c.assets {
		if a.ID == id {
			c.assets = append(c.assets[:i], c.assets[i+1:]...)
			c.dirty = true
			return true
		}
	}
	return false
}

// Assets returns the chunk's asset records in placement order.
func (c *Chunk) Assets() []Asset { return c.assets }

// Normal returns the surface normal at integer lattice coordinates,
// computed from central differences of the cardinal neighbors with edge
// replication.
func (c *Chunk) Normal(x, z int) math.Vec3 {
	left := c.Height(maxInt(0, x-1), z)
	right := c.Height(minInt(c.n-1, x+1), z)
	down := c.Height(x, maxInt(0, z-1))
	up := c.Height(x, minInt(c.n-1, z+1))

	scale := 1.0 / c.resolution
	return math.Vec3{X: left - right, Y: 2 * scale, Z: down - up}.Normalize()
}

// LocalToWorld converts integer lattice coordinates plus a height into a
// world position.
func (c *Chunk) LocalToWorld(x, z int, height float32) math.Vec3 {
	return math.Vec3{
		X: float32(c.cx)*c.chunkSize + float32(x)/c.resolution,
		Y: height,
		Z: float32(c.cz)*c.chunkSize + float32(z)/c.resolution,
	}
}

// GenerateMesh emits the chunk's render geometry: N*N vertices in
// row-major order and 2*(N-1)^2 triangles wound counter-clockwise when
// viewed from +Y. The vertex buffer is flat; its stride depends on the
// include flags (3 floats position, +3 normal, +2 UV).
func (c *Chunk) GenerateMesh(includeNormals, includeUVs bool) ([]float32, []uint32) {
	stride := 3
	if includeNormals {
		stride += 3
	}
	if includeUVs {
		stride += 2
	}

	vertices := make([]float32, 0, c.n*c.n*stride)
	for z := 0; z < c.n; z++ {
		for x := 0; x < c.n; x++ {
			pos := c.LocalToWorld(x, z, c.Height(x, z))
			vertices = append(vertices, pos.X, pos.Y, pos.Z)

			if includeNormals {
				normal := c.Normal(x, z)
				vertices = append(vertices, normal.X, normal.Y, normal.Z)
			}
			if includeUVs {
				u := float32(x) / float32(c.n-1)
				v := float32(z) / float32(c.n-1)
				vertices = append(vertices, u, v)
			}
		}
	}

	indices := make([]uint32, 0, 6*(c.n-1)*(c.n-1))
	for z := 0; z < c.n-1; z++ {
		for x := 0; x < c.n-1; x++ {
			i0 := uint32(z*c.n + x)
			i1 := uint32(z*c.n + x + 1)
			i2 := uint32((z+1)*c.n + x)
			i3 := uint32((z+1)*c.n + x + 1)

			indices = append(indices, i0, i2, i1)
			indices = append(indices, i1, i2, i3)
		}
	}

	return vertices, indices
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var nan32 = float32(gomath.NaN())
