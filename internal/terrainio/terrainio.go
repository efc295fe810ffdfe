// Package terrainio is the file facade for terrain data: it loads and
// saves the native container, imports heightmaps, and exports meshes
// and heightmaps, dispatching on file extension. All errors pass
// through the facade's last-error slot so editor UI can surface them
// without threading error values through every call site.
package terrainio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/terrasculpt/internal/logger"
	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/formats"
)

// Format identifies a terrain-related file kind.
type Format int

const (
	FormatUnknown Format = iota
	FormatTerrain
	FormatRawHeightmap
	FormatImageHeightmap
	FormatOBJ
)

// DetectFormat classifies a path by extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".terrain", ".terr":
		return FormatTerrain
	case ".raw", ".r8", ".r16", ".r32":
		return FormatRawHeightmap
	case ".png", ".jpg", ".jpeg", ".tga", ".exr":
		return FormatImageHeightmap
	case ".obj":
		return FormatOBJ
	}
	return FormatUnknown
}

// Options configure a Manager.
type Options struct {
	// Compress enables per-chunk payload compression on save.
	Compress bool
	// Limits bound decode sizes; zero fields mean codec defaults.
	Limits formats.DecodeLimits
}

// Manager is the IO facade. Not safe for concurrent use; the editor
// owns one and calls it from its main thread.
type Manager struct {
	compress bool
	limits   formats.DecodeLimits
	log      *zap.Logger
	lastErr  string
}

// New creates a manager. Zero limit fields fall back to defaults.
func New(opts Options) *Manager {
	limits := opts.Limits
	def := formats.DefaultDecodeLimits()
	if limits.MaxChunkPayload == 0 {
		limits.MaxChunkPayload = def.MaxChunkPayload
	}
	if limits.MaxChunks == 0 {
		limits.MaxChunks = def.MaxChunks
	}
	if limits.MaxAssets == 0 {
		limits.MaxAssets = def.MaxAssets
	}
	return &Manager{
		compress: opts.Compress,
		limits:   limits,
		log:      logger.Named("terrainio"),
	}
}

// LastError returns the message of the most recent failure, or "" if
// the last operation succeeded.
func (m *Manager) LastError() string { return m.lastErr }

func (m *Manager) fail(err error) error {
	m.lastErr = err.Error()
	m.log.Error("terrain io failed", zap.String("error", m.lastErr))
	return err
}

func (m *Manager) ok() {
	m.lastErr = ""
}

// Load reads a terrain container from disk. A failed or cancelled load
// returns nil and leaves nothing half-built; the caller's current
// terrain is never touched.
func (m *Manager) Load(path string, progress formats.ProgressFunc) (*terrain.Terrain, error) {
	if DetectFormat(path) != FormatTerrain {
		return nil, m.fail(errors.Errorf("not a terrain file: %s", path))
	}

	c, err := formats.ParseTERRFile(path, m.limits, progress)
	if err != nil {
		return nil, m.fail(errors.Wrapf(err, "loading %s", path))
	}

	ter, err := fromContainer(c)
	if err != nil {
		return nil, m.fail(errors.Wrapf(err, "loading %s", path))
	}

	m.warnMissingResources(ter, filepath.Dir(path))
	m.ok()
	m.log.Info("terrain loaded",
		zap.String("path", path),
		zap.Int("chunks", ter.ChunkCount()),
		zap.Int("layers", ter.LayerCount()),
		zap.Int("assets", ter.AssetCount()))
	return ter, nil
}

// Save writes a terrain container to disk. A cancelled save may leave
// a partial file behind; callers should remove it.
func (m *Manager) Save(ter *terrain.Terrain, path string, progress formats.ProgressFunc) error {
	data, err := formats.EncodeTERR(toContainer(ter), formats.TERREncodeOptions{
		Compress: m.compress,
		Progress: progress,
	})
	if err != nil {
		return m.fail(errors.Wrapf(err, "encoding %s", path))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return m.fail(errors.Wrapf(err, "writing %s", path))
	}

	m.ok()
	m.log.Info("terrain saved",
		zap.String("path", path),
		zap.Int("chunks", ter.ChunkCount()),
		zap.Int("bytes", len(data)))
	return nil
}

// Info reads just the header of a terrain file.
func (m *Manager) Info(path string) (*formats.TERRHeader, error) {
	header, err := formats.TERRFileInfo(path)
	if err != nil {
		return nil, m.fail(errors.Wrapf(err, "reading %s", path))
	}
	m.ok()
	return header, nil
}

// Validate reports whether the file parses under the manager's limits.
func (m *Manager) Validate(path string) bool {
	return formats.ValidateTERRFile(path, m.limits)
}

// warnMissingResources logs layers whose textures do not resolve next
// to the terrain file. Dangling references load fine; the renderer
// substitutes a placeholder.
func (m *Manager) warnMissingResources(ter *terrain.Terrain, baseDir string) {
	for i, layer := range ter.Layers() {
		if layer.TexturePath == "" {
			continue
		}
		p := layer.TexturePath
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if _, err := os.Stat(p); err != nil {
			m.log.Warn("layer texture missing",
				zap.Int("layer", i),
				zap.String("path", layer.TexturePath))
		}
	}
}
