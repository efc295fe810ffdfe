package brush

import (
	gomath "math"
	"math/rand"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/math"
)

// ScatterPattern selects how candidate positions are distributed inside
// the brush disc.
type ScatterPattern int

const (
	PatternRandom ScatterPattern = iota
	PatternGrid
	PatternPoisson
	PatternCluster
	// PatternCustom falls back to PatternRandom until caller-supplied
	// generators are wired in.
	PatternCustom
)

func (p ScatterPattern) String() string {
	switch p {
	case PatternRandom:
		return "random"
	case PatternGrid:
		return "grid"
	case PatternPoisson:
		return "poisson"
	case PatternCluster:
		return "cluster"
	case PatternCustom:
		return "custom"
	}
	return "unknown"
}

// SnappingMode selects how a scattered asset finds the surface under it.
type SnappingMode int

const (
	SnapTerrainNormals SnappingMode = iota
	SnapTerrainFlat
	SnapMeshSurface
	SnapWorldUp
	SnapCustom
)

func (m SnappingMode) String() string {
	switch m {
	case SnapTerrainNormals:
		return "terrain-normals"
	case SnapTerrainFlat:
		return "terrain-flat"
	case SnapMeshSurface:
		return "mesh-surface"
	case SnapWorldUp:
		return "world-up"
	case SnapCustom:
		return "custom"
	}
	return "unknown"
}

// ScatterParams configures asset scattering.
type ScatterParams struct {
	SnappingMode SnappingMode
	Pattern      ScatterPattern

	Density     float32
	MinDistance float32
	MaxDistance float32

	ScaleMin     float32
	ScaleMax     float32
	UniformScale bool

	RotationRange  math.Vec3
	AlignToSurface bool

	HeightOffsetMin float32
	HeightOffsetMax float32

	FollowTerrainSlope bool
	MinSlopeDeg        float32
	MaxSlopeDeg        float32

	AvoidWater bool
	WaterLevel float32

	UseLOD       bool
	LODDistance1 float32
	LODDistance2 float32
	CullDistance float32
}

// DefaultScatterParams returns the editor defaults.
func DefaultScatterParams() ScatterParams {
	return ScatterParams{
		SnappingMode:    SnapTerrainNormals,
		Pattern:         PatternRandom,
		Density:         1,
		MinDistance:     0.5,
		MaxDistance:     10,
		ScaleMin:        0.8,
		ScaleMax:        1.2,
		UniformScale:    true,
		RotationRange:   math.Vec3{Y: 360},
		HeightOffsetMin: -0.2,
		HeightOffsetMax: 0.2,
		MaxSlopeDeg:     45,
		AvoidWater:      true,
		UseLOD:          true,
		LODDistance1:    50,
		LODDistance2:    100,
		CullDistance:    200,
	}
}

// ScatterAssetInfo is one palette entry the brush can draw from.
type ScatterAssetInfo struct {
	Path            string
	LOD1Path        string
	LOD2Path        string
	Weight          float32
	PivotOffset     math.Vec3
	CollisionRadius float32
	Enabled         bool
}

// NewScatterAssetInfo returns a palette entry with default weight and
// collision radius.
func NewScatterAssetInfo(path string) ScatterAssetInfo {
	return ScatterAssetInfo{
		Path:            path,
		Weight:          1,
		CollisionRadius: 1,
		Enabled:         true,
	}
}

// SurfaceResolver resolves a surface point and normal for mesh-surface
// snapping. Resolve reports false when nothing lies under the position.
type SurfaceResolver interface {
	Resolve(pos math.Vec3) (math.Vec3, math.Vec3, bool)
}

// Placement describes one asset instance produced by a scatter dab, for
// callers that mirror placements into a scene graph.
type Placement struct {
	ChunkX, ChunkZ int32
	ID             uint32
	Asset          terrain.Asset
	Info           ScatterAssetInfo
}

// placedAsset is the undo record of one placement.
type placedAsset struct {
	cx, cz int32
	asset  terrain.Asset
}

// ScatterStroke is one completed scatter or erase gesture.
type ScatterStroke struct {
	Settings  Settings
	Params    ScatterParams
	Positions []math.Vec3

	placed  []placedAsset
	removed []placedAsset
}

// ScatterBrush distributes assets over the terrain surface. Placements
// land in the chunk asset lists so they persist with the terrain;
// callers may also observe them through the placement callback.
type ScatterBrush struct {
	settings Settings
	params   ScatterParams
	palette  []ScatterAssetInfo
	resolver SurfaceResolver
	rng      *rand.Rand

	active      bool
	terrain     *terrain.Terrain
	lastPos     math.Vec3
	accumulated float32
	current     *ScatterStroke

	onPlace func(Placement)

	history *History[*ScatterStroke]
}

// NewScatterBrush returns a brush with default settings, an undo
// history bounded to historyLimit strokes and a deterministic random
// source seeded with seed.
func NewScatterBrush(historyLimit int, seed int64) *ScatterBrush {
	settings := DefaultSettings()
	settings.Size = 10
	settings.Spacing = 0.5
	return &ScatterBrush{
		settings: settings,
		params:   DefaultScatterParams(),
		rng:      rand.New(rand.NewSource(seed)),
		history:  NewHistory[*ScatterStroke](historyLimit),
	}
}

// Settings returns the current brush settings.
func (b *ScatterBrush) Settings() Settings { return b.settings }

// SetSettings replaces the brush settings.
func (b *ScatterBrush) SetSettings(s Settings) { b.settings = s }

// Params returns the current scatter parameters.
func (b *ScatterBrush) Params() ScatterParams { return b.params }

// SetParams replaces the scatter parameters.
func (b *ScatterBrush) SetParams(p ScatterParams) { b.params = p }

// SetSurfaceResolver installs the collaborator used for mesh-surface
// snapping.
func (b *ScatterBrush) SetSurfaceResolver(r SurfaceResolver) { b.resolver = r }

// SetPlacementCallback installs a callback invoked for every placed
// asset.
func (b *ScatterBrush) SetPlacementCallback(fn func(Placement)) { b.onPlace = fn }

// AddPaletteAsset appends a palette entry and returns its index.
func (b *ScatterBrush) AddPaletteAsset(info ScatterAssetInfo) int {
	b.palette = append(b.palette, info)
	return len(b.palette) - 1
}

// RemovePaletteAsset removes the palette entry at index.
func (b *ScatterBrush) RemovePaletteAsset(index int) {
	if index < 0 || index >= len(b.palette) {
		return
	}
	b.palette = append(b.palette[:index], b.palette[index+1:]...)
}

// PaletteAsset returns the palette entry at index.
func (b *ScatterBrush) PaletteAsset(index int) ScatterAssetInfo {
	if index < 0 || index >= len(b.palette) {
		return ScatterAssetInfo{}
	}
	return b.palette[index]
}

// UpdatePaletteAsset replaces the palette entry at index.
func (b *ScatterBrush) UpdatePaletteAsset(index int, info ScatterAssetInfo) {
	if index < 0 || index >= len(b.palette) {
		return
	}
	b.palette[index] = info
}

// PaletteSize returns the number of palette entries.
func (b *ScatterBrush) PaletteSize() int { return len(b.palette) }

// Active reports whether a stroke is in progress.
func (b *ScatterBrush) Active() bool { return b.active }

// BeginStroke starts a scatter gesture at pos and applies the first dab.
func (b *ScatterBrush) BeginStroke(ter *terrain.Terrain, pos math.Vec3) {
	if ter == nil || len(b.palette) == 0 {
		return
	}
	b.active = true
	b.terrain = ter
	b.lastPos = pos
	b.accumulated = 0
	b.current = &ScatterStroke{
		Settings:  b.settings,
		Params:    b.params,
		Positions: []math.Vec3{pos},
	}
	b.applyDab(pos, 1)
}

// ContinueStroke extends the gesture with the same spacing gate as the
// other brushes.
func (b *ScatterBrush) ContinueStroke(pos math.Vec3) {
	if !b.active || b.terrain == nil {
		return
	}
	b.accumulated += pos.Sub(b.lastPos).Length()
	if b.accumulated >= b.settings.Size*b.settings.Spacing {
		b.applyDab(pos, 1)
		b.current.Positions = append(b.current.Positions, pos)
		b.accumulated = 0
	}
	b.lastPos = pos
}

// EndStroke finishes the gesture and pushes it onto the undo history.
func (b *ScatterBrush) EndStroke() {
	if !b.active {
		return
	}
	b.active = false

	if len(b.current.placed) > 0 || len(b.current.removed) > 0 {
		b.history.Push(b.current)
	}
	b.current = nil
	b.terrain = nil
}

// Erase removes every asset whose XZ position lies within radius of
// pos and records the removals as one undoable stroke.
func (b *ScatterBrush) Erase(ter *terrain.Terrain, pos math.Vec3, radius float32) int {
	if ter == nil {
		return 0
	}
	stroke := &ScatterStroke{
		Settings:  b.settings,
		Params:    b.params,
		Positions: []math.Vec3{pos},
	}

	for _, c := range affectedChunks(ter, pos, radius) {
		cx, cz := c.Coords()

		var doomed []placedAsset
		for _, asset := range c.Assets() {
			if asset.Position.XZDistance(pos) <= radius {
				doomed = append(doomed, placedAsset{cx: cx, cz: cz, asset: asset})
			}
		}
		for _, rec := range doomed {
			c.RemoveAsset(rec.asset.ID)
		}
		if len(doomed) > 0 {
			c.SetDirty(true)
			stroke.removed = append(stroke.removed, doomed...)
		}
	}

	if len(stroke.removed) > 0 {
		b.history.Push(stroke)
	}
	return len(stroke.removed)
}

// Undo reverts the most recent stroke: placed assets are removed,
// erased assets are restored with their original ids.
func (b *ScatterBrush) Undo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Undo()
	if !ok {
		return false
	}
	removeAssets(ter, stroke.placed)
	restoreAssets(ter, stroke.removed)
	return true
}

// Redo reapplies the most recently undone stroke.
func (b *ScatterBrush) Redo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Redo()
	if !ok {
		return false
	}
	restoreAssets(ter, stroke.placed)
	removeAssets(ter, stroke.removed)
	return true
}

// CanUndo reports whether an undoable stroke exists.
func (b *ScatterBrush) CanUndo() bool { return b.history.CanUndo() }

// CanRedo reports whether a redoable stroke exists.
func (b *ScatterBrush) CanRedo() bool { return b.history.CanRedo() }

// ClearHistory drops all recorded strokes.
func (b *ScatterBrush) ClearHistory() { b.history.Clear() }

// GeneratePreview builds the brush cursor overlay disc.
func (b *ScatterBrush) GeneratePreview(ter *terrain.Terrain, pos math.Vec3) ([]math.Vec3, []uint32) {
	return generatePreview(ter, pos, b.settings.Size)
}

func removeAssets(ter *terrain.Terrain, records []placedAsset) {
	if ter == nil {
		return
	}
	for _, rec := range records {
		if c := ter.Chunk(rec.cx, rec.cz); c != nil {
			c.RemoveAsset(rec.asset.ID)
			c.SetDirty(true)
		}
	}
}

func restoreAssets(ter *terrain.Terrain, records []placedAsset) {
	if ter == nil {
		return
	}
	for _, rec := range records {
		c := ter.Chunk(rec.cx, rec.cz)
		if c == nil {
			c = ter.CreateChunk(rec.cx, rec.cz)
		}
		c.RestoreAsset(rec.asset)
		c.SetDirty(true)
	}
}

func (b *ScatterBrush) applyDab(pos math.Vec3, strengthMultiplier float32) {
	radius := b.settings.Size
	area := gomath.Pi * float64(radius) * float64(radius)
	count := int(gomath.Ceil(area * float64(b.params.Density) * float64(b.settings.Strength) * float64(strengthMultiplier)))
	if count < 1 {
		count = 1
	}

	candidates := b.generatePositions(pos, radius, count)

	placed := make([]math.Vec3, 0, len(candidates))
	for _, candidate := range candidates {
		if !b.terrain.InBounds(candidate) {
			continue
		}
		if tooClose(candidate, placed, b.params.MinDistance) {
			continue
		}

		surface, normal, ok := b.snapToSurface(candidate)
		if !ok {
			continue
		}
		slope := normal.AngleFromUp()
		if slope < b.params.MinSlopeDeg || slope > b.params.MaxSlopeDeg {
			continue
		}
		if b.params.AvoidWater && surface.Y <= b.params.WaterLevel {
			continue
		}

		info, ok := b.drawPaletteAsset()
		if !ok {
			continue
		}

		surface.Y += b.randomRange(b.params.HeightOffsetMin, b.params.HeightOffsetMax)

		asset := terrain.Asset{
			Path:         info.Path,
			Position:     surface.Add(info.PivotOffset),
			Rotation:     b.assetRotation(normal),
			Scale:        b.assetScale(),
			HeightOffset: 0,
			Visible:      true,
		}

		cx, cz := b.terrain.WorldToChunk(surface)
		c := b.terrain.CreateChunk(cx, cz)
		id := c.AddAsset(asset)
		asset.ID = id
		c.SetDirty(true)

		placed = append(placed, surface)
		b.current.placed = append(b.current.placed, placedAsset{cx: cx, cz: cz, asset: asset})

		if b.onPlace != nil {
			b.onPlace(Placement{ChunkX: cx, ChunkZ: cz, ID: id, Asset: asset, Info: info})
		}
	}
}

func tooClose(pos math.Vec3, placed []math.Vec3, minDistance float32) bool {
	for _, p := range placed {
		if pos.XZDistance(p) < minDistance {
			return true
		}
	}
	return false
}

func (b *ScatterBrush) snapToSurface(pos math.Vec3) (math.Vec3, math.Vec3, bool) {
	switch b.params.SnappingMode {
	case SnapTerrainNormals:
		surface := pos
		surface.Y = surfaceHeight(b.terrain, pos)
		return surface, b.terrain.NormalAt(pos), true
	case SnapTerrainFlat:
		surface := pos
		surface.Y = surfaceHeight(b.terrain, pos)
		return surface, math.Up(), true
	case SnapMeshSurface:
		if b.resolver != nil {
			return b.resolver.Resolve(pos)
		}
		surface := pos
		surface.Y = surfaceHeight(b.terrain, pos)
		return surface, math.Up(), true
	case SnapWorldUp, SnapCustom:
		return pos, math.Up(), true
	}
	return pos, math.Up(), true
}

// drawPaletteAsset picks an enabled palette entry with probability
// proportional to its weight.
func (b *ScatterBrush) drawPaletteAsset() (ScatterAssetInfo, bool) {
	var total float32
	for _, info := range b.palette {
		if info.Enabled {
			total += info.Weight
		}
	}
	if total <= 0 {
		if len(b.palette) == 0 {
			return ScatterAssetInfo{}, false
		}
		return b.palette[0], true
	}

	value := b.rng.Float32() * total
	var cursor float32
	for _, info := range b.palette {
		if !info.Enabled {
			continue
		}
		cursor += info.Weight
		if value <= cursor {
			return info, true
		}
	}
	return b.palette[0], true
}

// assetRotation draws a random per-axis rotation within the configured
// range, then folds in the tilt that carries world up onto the surface
// normal when alignment is requested.
func (b *ScatterBrush) assetRotation(normal math.Vec3) math.Vec3 {
	rotation := math.Vec3{
		X: b.rng.Float32() * b.params.RotationRange.X,
		Y: b.rng.Float32() * b.params.RotationRange.Y,
		Z: b.rng.Float32() * b.params.RotationRange.Z,
	}

	if b.params.AlignToSurface && b.params.SnappingMode == SnapTerrainNormals {
		tilt := math.QuatBetween(math.Up(), normal).ToEuler()
		rotation = rotation.Add(tilt)
	}
	return rotation
}

func (b *ScatterBrush) assetScale() math.Vec3 {
	factor := b.randomRange(b.params.ScaleMin, b.params.ScaleMax)
	if b.params.UniformScale {
		return math.Vec3{X: factor, Y: factor, Z: factor}
	}
	return math.Vec3{
		X: b.randomRange(b.params.ScaleMin, b.params.ScaleMax),
		Y: factor,
		Z: b.randomRange(b.params.ScaleMin, b.params.ScaleMax),
	}
}

func (b *ScatterBrush) randomRange(lo, hi float32) float32 {
	return lo + b.rng.Float32()*(hi-lo)
}

func (b *ScatterBrush) generatePositions(center math.Vec3, radius float32, count int) []math.Vec3 {
	switch b.params.Pattern {
	case PatternGrid:
		return b.gridPattern(center, radius, count)
	case PatternPoisson:
		return b.poissonPattern(center, radius, count)
	case PatternCluster:
		return b.clusterPattern(center, radius, count)
	default:
		return b.randomPattern(center, radius, count)
	}
}

// randomPattern draws count positions uniformly over the disc. The
// sqrt on the radial draw corrects for area growing with radius.
func (b *ScatterBrush) randomPattern(center math.Vec3, radius float32, count int) []math.Vec3 {
	positions := make([]math.Vec3, 0, count)
	for i := 0; i < count; i++ {
		positions = append(positions, b.randomInDisc(center, radius))
	}
	return positions
}

func (b *ScatterBrush) randomInDisc(center math.Vec3, radius float32) math.Vec3 {
	angle := float64(b.rng.Float32()) * 2 * gomath.Pi
	distance := float32(gomath.Sqrt(float64(b.rng.Float32()))) * radius
	return math.Vec3{
		X: center.X + float32(gomath.Cos(angle))*distance,
		Z: center.Z + float32(gomath.Sin(angle))*distance,
	}
}

// gridPattern lays a square grid over the disc and keeps the cells
// inside it.
func (b *ScatterBrush) gridPattern(center math.Vec3, radius float32, count int) []math.Vec3 {
	gridSize := int(gomath.Ceil(gomath.Sqrt(float64(count))))
	if gridSize < 1 {
		gridSize = 1
	}
	spacing := radius * 2 / float32(gridSize)

	positions := make([]math.Vec3, 0, count)
	for x := 0; x < gridSize && len(positions) < count; x++ {
		for z := 0; z < gridSize && len(positions) < count; z++ {
			pos := math.Vec3{
				X: center.X + (float32(x)-float32(gridSize)*0.5)*spacing,
				Z: center.Z + (float32(z)-float32(gridSize)*0.5)*spacing,
			}
			if pos.XZDistance(center) <= radius {
				positions = append(positions, pos)
			}
		}
	}
	return positions
}

// poissonPattern dart-throws candidates and keeps the ones at least
// minDistance from every kept position, bounded by a fixed attempt
// budget per placement.
func (b *ScatterBrush) poissonPattern(center math.Vec3, radius float32, count int) []math.Vec3 {
	const attemptsPerPoint = 16

	positions := make([]math.Vec3, 0, count)
	for i := 0; i < count; i++ {
		for attempt := 0; attempt < attemptsPerPoint; attempt++ {
			candidate := b.randomInDisc(center, radius)
			if !tooClose(candidate, positions, b.params.MinDistance) {
				positions = append(positions, candidate)
				break
			}
		}
	}
	return positions
}

// clusterPattern groups positions around sub-centers drawn within 0.7r.
func (b *ScatterBrush) clusterPattern(center math.Vec3, radius float32, count int) []math.Vec3 {
	clusterCount := count / 5
	if clusterCount < 1 {
		clusterCount = 1
	}

	centers := make([]math.Vec3, 0, clusterCount)
	for i := 0; i < clusterCount; i++ {
		angle := float64(b.rng.Float32()) * 2 * gomath.Pi
		distance := b.rng.Float32() * radius * 0.7
		centers = append(centers, math.Vec3{
			X: center.X + float32(gomath.Cos(angle))*distance,
			Z: center.Z + float32(gomath.Sin(angle))*distance,
		})
	}

	perCluster := count / clusterCount
	positions := make([]math.Vec3, 0, count)
	for _, cc := range centers {
		for i := 0; i < perCluster; i++ {
			angle := float64(b.rng.Float32()) * 2 * gomath.Pi
			distance := b.rng.Float32() * radius * 0.3
			positions = append(positions, math.Vec3{
				X: cc.X + float32(gomath.Cos(angle))*distance,
				Z: cc.Z + float32(gomath.Sin(angle))*distance,
			})
		}
	}
	return positions
}
