package terrainio

import (
	"bytes"
	gomath "math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/formats"
)

// ImportOptions control heightmap import.
type ImportOptions struct {
	// HeightScale is the world height of a full-range sample. Zero
	// means 1.
	HeightScale float32
	// WorldScale stretches the source over a multiple of the terrain
	// footprint. Zero means 1 (source covers the terrain exactly).
	WorldScale float32
	// AutoDetectFormat sniffs the payload instead of trusting the
	// extension.
	AutoDetectFormat bool
	// PreserveAspectRatio center-crops the source instead of
	// stretching it when its aspect differs from the terrain's.
	PreserveAspectRatio bool
	// SizeOverride gives raw heightmap dimensions when the file is not
	// square. Ignored for image sources.
	SizeOverride [2]int
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}
var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// ImportHeightmap reads a heightmap file and writes its samples over
// the terrain's height lattice, resampling bilinearly to the terrain's
// resolution. An empty terrain gets a full chunk grid created first.
func (m *Manager) ImportHeightmap(ter *terrain.Terrain, path string, opts ImportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return m.fail(errors.Wrapf(err, "reading %s", path))
	}

	hm, err := m.decodeHeightmap(data, path, opts)
	if err != nil {
		return m.fail(errors.Wrapf(err, "importing %s", path))
	}

	applyHeightmap(ter, hm, opts)
	m.ok()
	m.log.Info("heightmap imported",
		zap.String("path", path),
		zap.Int("width", hm.Width),
		zap.Int("height", hm.Height),
		zap.Int("chunks", ter.ChunkCount()))
	return nil
}

func (m *Manager) decodeHeightmap(data []byte, path string, opts ImportOptions) (*formats.Heightmap, error) {
	format := DetectFormat(path)
	if opts.AutoDetectFormat {
		format = sniffHeightmapFormat(data, format)
	}

	switch format {
	case FormatRawHeightmap:
		depth, err := formats.RawBitDepth(path)
		if err != nil {
			// Sniffed raw without a telling extension; assume 16-bit,
			// the most common export depth.
			depth = 16
		}
		return formats.ParseRawHeightmap(data, depth, opts.SizeOverride[0], opts.SizeOverride[1])
	case FormatImageHeightmap:
		return formats.ParseImageHeightmap(data, path)
	}
	return nil, errors.Errorf("no heightmap decoder for %s", path)
}

// sniffHeightmapFormat checks image magic bytes and falls back to the
// extension-derived guess, then to raw.
func sniffHeightmapFormat(data []byte, fromExt Format) Format {
	if bytes.HasPrefix(data, pngMagic) || bytes.HasPrefix(data, jpegMagic) {
		return FormatImageHeightmap
	}
	if fromExt != FormatUnknown {
		return fromExt
	}
	return FormatRawHeightmap
}

func applyHeightmap(ter *terrain.Terrain, hm *formats.Heightmap, opts ImportOptions) {
	heightScale := opts.HeightScale
	if heightScale == 0 {
		heightScale = 1
	}
	worldScale := opts.WorldScale
	if worldScale == 0 {
		worldScale = 1
	}

	if ter.ChunkCount() == 0 {
		createCoverageGrid(ter)
	}

	uAdjust, vAdjust := float32(1), float32(1)
	if opts.PreserveAspectRatio && hm.Height > 0 && ter.Depth() > 0 {
		imgAspect := float32(hm.Width) / float32(hm.Height)
		terAspect := ter.Width() / ter.Depth()
		if imgAspect > terAspect {
			uAdjust = terAspect / imgAspect
		} else if imgAspect < terAspect {
			vAdjust = imgAspect / terAspect
		}
	}

	for _, c := range ter.Chunks() {
		n := c.LatticeSize()
		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				pos := c.LocalToWorld(x, z, 0)
				u := pos.X / (ter.Width() * worldScale)
				v := pos.Z / (ter.Depth() * worldScale)

				// Center-crop when preserving aspect.
				u = 0.5 + (u-0.5)*uAdjust
				v = 0.5 + (v-0.5)*vAdjust

				c.SetHeight(x, z, hm.SampleBilinear(u, v)*heightScale)
			}
		}
	}
}

// createCoverageGrid creates the chunk grid spanning the terrain's
// world footprint, anchored at the origin.
func createCoverageGrid(ter *terrain.Terrain) {
	nx := int(gomath.Ceil(float64(ter.Width() / ter.ChunkSize())))
	nz := int(gomath.Ceil(float64(ter.Depth() / ter.ChunkSize())))
	for cz := 0; cz < nz; cz++ {
		for cx := 0; cx < nx; cx++ {
			c := ter.CreateChunk(int32(cx), int32(cz))
			c.SetLoaded(true)
		}
	}
}
