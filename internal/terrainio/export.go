package terrainio

import (
	"fmt"
	gomath "math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/terrasculpt/internal/mesh"
	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/formats"
	"github.com/Faultbox/terrasculpt/pkg/math"
)

// ExportOBJOptions control mesh export.
type ExportOBJOptions struct {
	// MergeChunks emits a single group instead of one per chunk.
	MergeChunks bool
	// IncludeMaterials writes an MTL sidecar with one material per
	// texture layer and references it from the OBJ.
	IncludeMaterials bool
}

// ExportOBJ writes the terrain's render mesh as a Wavefront OBJ, with
// an optional MTL sidecar next to it.
func (m *Manager) ExportOBJ(ter *terrain.Terrain, path string, opts ExportOBJOptions) error {
	builder := mesh.NewBuilder()

	var groups []formats.OBJGroup
	material := ""
	if opts.IncludeMaterials && ter.LayerCount() > 0 {
		material = layerMaterialName(0)
	}

	if opts.MergeChunks {
		merged := formats.OBJGroup{Name: "terrain", Material: material}
		for _, c := range ter.Chunks() {
			cm := builder.Build(c)
			base := uint32(len(merged.Vertices) / mesh.VertexStride)
			merged.Vertices = append(merged.Vertices, cm.Vertices...)
			for _, idx := range cm.Indices {
				merged.Indices = append(merged.Indices, base+idx)
			}
		}
		groups = append(groups, merged)
	} else {
		for _, c := range ter.Chunks() {
			cm := builder.Build(c)
			groups = append(groups, formats.OBJGroup{
				Name:     fmt.Sprintf("chunk_%d_%d", cm.ChunkX, cm.ChunkZ),
				Material: material,
				Vertices: cm.Vertices,
				Indices:  cm.Indices,
			})
		}
	}

	mtlName := ""
	if opts.IncludeMaterials && ter.LayerCount() > 0 {
		mtlPath := strings.TrimSuffix(path, ".obj") + ".mtl"
		if err := m.writeMTL(ter, mtlPath); err != nil {
			return err
		}
		mtlName = baseName(mtlPath)
	}

	f, err := os.Create(path)
	if err != nil {
		return m.fail(errors.Wrapf(err, "creating %s", path))
	}
	defer f.Close()

	if err := formats.WriteOBJ(f, groups, mtlName); err != nil {
		return m.fail(errors.Wrapf(err, "exporting %s", path))
	}

	m.ok()
	m.log.Info("mesh exported",
		zap.String("path", path),
		zap.Int("groups", len(groups)))
	return nil
}

func (m *Manager) writeMTL(ter *terrain.Terrain, path string) error {
	materials := make([]formats.OBJMaterial, 0, ter.LayerCount())
	for i, layer := range ter.Layers() {
		materials = append(materials, formats.OBJMaterial{
			Name:       layerMaterialName(i),
			DiffuseMap: layer.TexturePath,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return m.fail(errors.Wrapf(err, "creating %s", path))
	}
	defer f.Close()

	if err := formats.WriteMTL(f, materials); err != nil {
		return m.fail(errors.Wrapf(err, "writing %s", path))
	}
	return nil
}

func layerMaterialName(index int) string {
	return fmt.Sprintf("layer_%d", index)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ExportHeightmap samples the terrain over a width x height grid and
// writes it as a raw heightmap, bit depth taken from the extension.
// Heights are normalized over the terrain's current range.
func (m *Manager) ExportHeightmap(ter *terrain.Terrain, path string, width, height int) error {
	depth, err := formats.RawBitDepth(path)
	if err != nil {
		return m.fail(errors.Wrapf(err, "exporting %s", path))
	}
	if width < 2 || height < 2 {
		return m.fail(errors.Errorf("heightmap export needs at least a 2x2 grid, got %dx%d", width, height))
	}

	minH, maxH, ok := ter.HeightRange()
	span := maxH - minH
	if !ok || span <= 0 {
		span = 1
	}

	hm := &formats.Heightmap{
		Width:   width,
		Height:  height,
		Samples: make([]float32, width*height),
	}
	// Samples on the far edges stay just inside the last chunk so they
	// hit its border lattice row instead of a nonexistent neighbor.
	maxX := ter.Width() * (1 - 1e-5)
	maxZ := ter.Depth() * (1 - 1e-5)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			wx := float32(x) / float32(width-1) * ter.Width()
			wz := float32(y) / float32(height-1) * ter.Depth()
			if wx > maxX {
				wx = maxX
			}
			if wz > maxZ {
				wz = maxZ
			}
			h := ter.HeightAt(math.Vec3{X: wx, Z: wz})
			if gomath.IsNaN(float64(h)) {
				h = minH
			}
			hm.Samples[y*width+x] = (h - minH) / span
		}
	}

	data, err := formats.EncodeRawHeightmap(hm, depth)
	if err != nil {
		return m.fail(errors.Wrapf(err, "exporting %s", path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return m.fail(errors.Wrapf(err, "writing %s", path))
	}

	m.ok()
	m.log.Info("heightmap exported",
		zap.String("path", path),
		zap.Int("width", width),
		zap.Int("height", height))
	return nil
}
