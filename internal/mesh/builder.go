// Package mesh builds render and collision geometry from terrain chunks.
// The builder only produces CPU-side buffers; uploading them and clearing
// chunk dirty flags after a successful upload is the caller's job.
package mesh

import (
	"github.com/Faultbox/terrasculpt/internal/terrain"
)

// VertexStride is floats per vertex in a full render buffer: position,
// normal, and UV interleaved.
const VertexStride = 8

// ChunkMesh holds one chunk's render geometry ready for GPU upload.
type ChunkMesh struct {
	ChunkX   int32
	ChunkZ   int32
	Vertices []float32
	Indices  []uint32
	Stride   int
}

// UploadFunc receives one built chunk mesh. Returning true marks the
// upload as successful, which lets the builder clear the chunk's dirty
// flag.
type UploadFunc func(ChunkMesh) bool

// Builder converts chunks into interleaved vertex/index buffers.
type Builder struct {
	IncludeNormals bool
	IncludeUVs     bool
}

// NewBuilder returns a builder producing full stride-8 buffers.
func NewBuilder() *Builder {
	return &Builder{IncludeNormals: true, IncludeUVs: true}
}

func (b *Builder) stride() int {
	stride := 3
	if b.IncludeNormals {
		stride += 3
	}
	if b.IncludeUVs {
		stride += 2
	}
	return stride
}

// Build generates the render mesh for a single chunk.
func (b *Builder) Build(c *terrain.Chunk) ChunkMesh {
	vertices, indices := c.GenerateMesh(b.IncludeNormals, b.IncludeUVs)
	cx, cz := c.Coords()
	return ChunkMesh{
		ChunkX:   cx,
		ChunkZ:   cz,
		Vertices: vertices,
		Indices:  indices,
		Stride:   b.stride(),
	}
}

// BuildDirty generates meshes for every chunk currently flagged dirty.
// Dirty flags are left set; see UpdateAllDirty.
func (b *Builder) BuildDirty(t *terrain.Terrain) []ChunkMesh {
	dirty := t.DirtyChunks()
	meshes := make([]ChunkMesh, 0, len(dirty))
	for _, c := range dirty {
		meshes = append(meshes, b.Build(c))
	}
	return meshes
}

// UpdateAllDirty rebuilds every dirty chunk and hands each mesh to
// upload. A chunk's dirty flag is cleared only when upload reports
// success, so failed uploads are retried on the next call. Returns the
// number of chunks uploaded.
func (b *Builder) UpdateAllDirty(t *terrain.Terrain, upload UploadFunc) int {
	uploaded := 0
	for _, c := range t.DirtyChunks() {
		if upload == nil || upload(b.Build(c)) {
			c.SetDirty(false)
			uploaded++
		}
	}
	return uploaded
}
