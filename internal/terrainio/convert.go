package terrainio

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/formats"
	"github.com/Faultbox/terrasculpt/pkg/math"
)

// toContainer copies a terrain into its file representation. Chunks are
// emitted in key order so identical terrains produce identical files.
func toContainer(ter *terrain.Terrain) *formats.TERR {
	c := &formats.TERR{
		Header: formats.TERRHeader{
			TerrainWidth: ter.Width(),
			TerrainDepth: ter.Depth(),
			Resolution:   ter.Resolution(),
			ChunkSize:    ter.ChunkSize(),
		},
	}

	for _, layer := range ter.Layers() {
		var flags uint32
		if layer.Enabled {
			flags |= formats.TERRLayerEnabled
		}
		c.Layers = append(c.Layers, formats.TERRLayer{
			TexturePath: layer.TexturePath,
			Scale:       layer.TilingScale,
			Opacity:     layer.Opacity,
			Flags:       flags,
		})
	}

	layerCount := ter.LayerCount()
	for _, ch := range ter.Chunks() {
		cx, cz := ch.Coords()
		n := ch.LatticeSize()

		rec := formats.TERRChunk{X: cx, Z: cz}
		rec.Heights = make([]float32, n*n)
		copy(rec.Heights, ch.HeightData())

		if layerCount > 0 {
			rec.Blend = make([]float32, 0, n*n*layerCount)
			for z := 0; z < n; z++ {
				for x := 0; x < n; x++ {
					rec.Blend = append(rec.Blend, ch.BlendWeights(x, z)...)
				}
			}
		}

		for _, asset := range ch.Assets() {
			var flags uint32
			if asset.Visible {
				flags |= formats.TERRAssetVisible
			}
			rec.Assets = append(rec.Assets, formats.TERRAsset{
				Path:         asset.Path,
				Position:     [3]float32{asset.Position.X, asset.Position.Y, asset.Position.Z},
				Rotation:     [3]float32{asset.Rotation.X, asset.Rotation.Y, asset.Rotation.Z},
				Scale:        [3]float32{asset.Scale.X, asset.Scale.Y, asset.Scale.Z},
				HeightOffset: asset.HeightOffset,
				Flags:        flags,
			})
		}
		c.Chunks = append(c.Chunks, rec)
	}
	return c
}

// fromContainer builds a fresh terrain from a parsed file. Chunks come
// out flagged dirty so the mesh builder regenerates them. Asset records
// get fresh ids; ids are a session concept and are not persisted.
func fromContainer(c *formats.TERR) (*terrain.Terrain, error) {
	h := c.Header
	if h.TerrainWidth <= 0 || h.TerrainDepth <= 0 || h.Resolution <= 0 || h.ChunkSize <= 0 {
		return nil, errors.Errorf("invalid terrain geometry %gx%g res %g chunk %g",
			h.TerrainWidth, h.TerrainDepth, h.Resolution, h.ChunkSize)
	}

	ter := terrain.New(h.TerrainWidth, h.TerrainDepth, h.Resolution, h.ChunkSize)

	layers := make([]terrain.TextureLayer, 0, len(c.Layers))
	for _, rec := range c.Layers {
		layer := terrain.NewTextureLayer(rec.TexturePath)
		layer.TilingScale = rec.Scale
		layer.Opacity = rec.Opacity
		layer.Enabled = rec.Flags&formats.TERRLayerEnabled != 0
		layers = append(layers, layer)
	}
	ter.SetLayers(layers)

	for _, rec := range c.Chunks {
		ch := ter.CreateChunk(rec.X, rec.Z)
		n := ch.LatticeSize()

		if len(rec.Heights) != n*n {
			return nil, errors.Errorf("chunk (%d,%d): %d height samples, lattice needs %d",
				rec.X, rec.Z, len(rec.Heights), n*n)
		}
		ch.SetHeightData(rec.Heights)

		if len(layers) > 0 && len(rec.Blend) > 0 {
			if len(rec.Blend) != n*n*len(layers) {
				return nil, errors.Errorf("chunk (%d,%d): %d blend floats, lattice needs %d",
					rec.X, rec.Z, len(rec.Blend), n*n*len(layers))
			}
			i := 0
			for z := 0; z < n; z++ {
				for x := 0; x < n; x++ {
					ch.SetBlendWeights(x, z, rec.Blend[i:i+len(layers)])
					i += len(layers)
				}
			}
		}

		for _, arec := range rec.Assets {
			ch.AddAsset(terrain.Asset{
				Path:         arec.Path,
				Position:     math.Vec3{X: arec.Position[0], Y: arec.Position[1], Z: arec.Position[2]},
				Rotation:     math.Vec3{X: arec.Rotation[0], Y: arec.Rotation[1], Z: arec.Rotation[2]},
				Scale:        math.Vec3{X: arec.Scale[0], Y: arec.Scale[1], Z: arec.Scale[2]},
				HeightOffset: arec.HeightOffset,
				Visible:      arec.Flags&formats.TERRAssetVisible != 0,
			})
		}

		ch.SetLoaded(true)
		ch.SetDirty(true)
	}
	return ter, nil
}
