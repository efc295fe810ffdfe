package brush

import (
	gomath "math"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/math"
)

// HeightOperation selects what a height brush dab does to the samples it
// covers.
type HeightOperation int

const (
	OpRaise HeightOperation = iota
	OpLower
	OpFlatten
	OpSmooth
	OpNoise
	OpSet
)

func (op HeightOperation) String() string {
	switch op {
	case OpRaise:
		return "raise"
	case OpLower:
		return "lower"
	case OpFlatten:
		return "flatten"
	case OpSmooth:
		return "smooth"
	case OpNoise:
		return "noise"
	case OpSet:
		return "set"
	}
	return "unknown"
}

// heightRate is the sculpt speed in height units per second at full
// brush weight.
const heightRate = 10.0

// dabDeltaTime is the fixed frame time assumed per dab.
const dabDeltaTime = 1.0 / 60.0

// HeightOperationParams configures the active height operation.
type HeightOperationParams struct {
	Operation       HeightOperation
	TargetHeight    float32
	NoiseScale      float32
	NoiseFrequency  float32
	RespectMaxSlope bool
	MaxSlopeAngle   float32
}

// DefaultHeightOperationParams returns the editor defaults.
func DefaultHeightOperationParams() HeightOperationParams {
	return HeightOperationParams{
		Operation:      OpRaise,
		TargetHeight:   0,
		NoiseScale:     1,
		NoiseFrequency: 0.1,
		MaxSlopeAngle:  45,
	}
}

// sampleKey identifies a height sample within a terrain.
type sampleKey struct {
	cx, cz int32
	x, z   int
}

// HeightStroke is one completed sculpt gesture. It remembers both the
// heights before the stroke and the heights it produced, so undo and
// redo restore exact values.
type HeightStroke struct {
	Settings  Settings
	Params    HeightOperationParams
	Positions []math.Vec3

	prior  map[sampleKey]float32
	result map[sampleKey]float32
}

// HeightBrush sculpts terrain heights through a start/continue/end
// stroke protocol with spacing-gated dabs.
type HeightBrush struct {
	settings Settings
	params   HeightOperationParams
	noise    *noiseField

	active      bool
	terrain     *terrain.Terrain
	lastPos     math.Vec3
	accumulated float32
	current     *HeightStroke

	history *History[*HeightStroke]
}

// NewHeightBrush returns a brush with default settings, an undo history
// bounded to historyLimit strokes, and a noise field seeded with seed.
func NewHeightBrush(historyLimit int, seed int64) *HeightBrush {
	return &HeightBrush{
		settings: DefaultSettings(),
		params:   DefaultHeightOperationParams(),
		noise:    newNoiseField(seed),
		history:  NewHistory[*HeightStroke](historyLimit),
	}
}

// Settings returns the current brush settings.
func (b *HeightBrush) Settings() Settings { return b.settings }

// SetSettings replaces the brush settings.
func (b *HeightBrush) SetSettings(s Settings) { b.settings = s }

// Params returns the current operation parameters.
func (b *HeightBrush) Params() HeightOperationParams { return b.params }

// SetParams replaces the operation parameters.
func (b *HeightBrush) SetParams(p HeightOperationParams) { b.params = p }

// Active reports whether a stroke is in progress.
func (b *HeightBrush) Active() bool { return b.active }

// BeginStroke starts a sculpt gesture at pos and applies the first dab.
func (b *HeightBrush) BeginStroke(ter *terrain.Terrain, pos math.Vec3) {
	if ter == nil {
		return
	}
	b.active = true
	b.terrain = ter
	b.lastPos = pos
	b.accumulated = 0
	b.current = &HeightStroke{
		Settings:  b.settings,
		Params:    b.params,
		Positions: []math.Vec3{pos},
		prior:     make(map[sampleKey]float32),
		result:    make(map[sampleKey]float32),
	}
	b.applyDab(pos)
}

// ContinueStroke extends the gesture. A dab lands once the traveled
// distance since the last dab reaches spacing*size.
func (b *HeightBrush) ContinueStroke(pos math.Vec3) {
	if !b.active || b.terrain == nil {
		return
	}
	b.accumulated += pos.Sub(b.lastPos).Length()
	if b.accumulated >= b.settings.Size*b.settings.Spacing {
		b.applyDab(pos)
		b.current.Positions = append(b.current.Positions, pos)
		b.accumulated = 0
	}
	b.lastPos = pos
}

// EndStroke finishes the gesture, records the resulting heights and
// pushes the stroke onto the undo history.
func (b *HeightBrush) EndStroke() {
	if !b.active {
		return
	}
	b.active = false

	for key := range b.current.prior {
		if c := b.terrain.Chunk(key.cx, key.cz); c != nil {
			b.current.result[key] = c.Height(key.x, key.z)
		}
	}
	if len(b.current.prior) > 0 {
		b.history.Push(b.current)
	}
	b.current = nil
	b.terrain = nil
}

// Undo reverts the most recent stroke.
func (b *HeightBrush) Undo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Undo()
	if !ok {
		return false
	}
	applyHeightRecord(ter, stroke.prior)
	return true
}

// Redo reapplies the most recently undone stroke.
func (b *HeightBrush) Redo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Redo()
	if !ok {
		return false
	}
	applyHeightRecord(ter, stroke.result)
	return true
}

// CanUndo reports whether an undoable stroke exists.
func (b *HeightBrush) CanUndo() bool { return b.history.CanUndo() }

// CanRedo reports whether a redoable stroke exists.
func (b *HeightBrush) CanRedo() bool { return b.history.CanRedo() }

// ClearHistory drops all recorded strokes.
func (b *HeightBrush) ClearHistory() { b.history.Clear() }

func applyHeightRecord(ter *terrain.Terrain, record map[sampleKey]float32) {
	if ter == nil {
		return
	}
	for key, h := range record {
		c := ter.Chunk(key.cx, key.cz)
		if c == nil {
			c = ter.CreateChunk(key.cx, key.cz)
		}
		c.SetHeight(key.x, key.z, h)
		c.SetDirty(true)
	}
}

func (b *HeightBrush) applyDab(pos math.Vec3) {
	// Smooth reads neighbor heights, so a seam sample must be computed
	// exactly once per dab and the value written to every chunk copy,
	// or the copies drift apart and crack the surface.
	var smoothed map[[2]int]bool
	if b.params.Operation == OpSmooth {
		smoothed = make(map[[2]int]bool)
	}

	for _, c := range affectedChunks(b.terrain, pos, b.settings.Size) {
		cx, cz := c.Coords()
		n := c.LatticeSize()

		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				sample := c.LocalToWorld(x, z, 0)
				w := b.settings.WeightAt(pos, sample)
				if w <= 0 {
					continue
				}
				if b.params.RespectMaxSlope && b.slopeAt(sample) > b.params.MaxSlopeAngle {
					continue
				}

				h := c.Height(x, z)
				if smoothed != nil {
					g := [2]int{int(cx)*(n-1) + x, int(cz)*(n-1) + z}
					if smoothed[g] {
						continue
					}
					smoothed[g] = true
					b.writeShared(cx, cz, x, z, n, b.operate(h, sample, w))
					continue
				}

				key := sampleKey{cx: cx, cz: cz, x: x, z: z}
				if _, seen := b.current.prior[key]; !seen {
					b.current.prior[key] = h
				}
				c.SetHeight(x, z, b.operate(h, sample, w))
			}
		}
		c.SetDirty(true)
	}
}

// writeShared stores a height into every loaded chunk owning the lattice
// sample at (x, z) of chunk (cx, cz), recording priors per copy.
func (b *HeightBrush) writeShared(cx, cz int32, x, z, n int, v float32) {
	for _, o := range sharedCopies(b.terrain, cx, cz, x, z, n) {
		key := sampleKey{cx: o.cx, cz: o.cz, x: o.x, z: o.z}
		if _, seen := b.current.prior[key]; !seen {
			b.current.prior[key] = o.c.Height(o.x, o.z)
		}
		o.c.SetHeight(o.x, o.z, v)
		o.c.SetDirty(true)
	}
}

type sampleCopy struct {
	c      *terrain.Chunk
	cx, cz int32
	x, z   int
}

// sharedCopies lists every existing chunk copy of one lattice sample.
// Edge samples are duplicated in the adjacent chunk at the opposite
// edge; corner samples exist in up to four chunks.
func sharedCopies(ter *terrain.Terrain, cx, cz int32, x, z, n int) []sampleCopy {
	type edge struct {
		c int32
		i int
	}
	xs := []edge{{cx, x}}
	if x == 0 {
		xs = append(xs, edge{cx - 1, n - 1})
	} else if x == n-1 {
		xs = append(xs, edge{cx + 1, 0})
	}
	zs := []edge{{cz, z}}
	if z == 0 {
		zs = append(zs, edge{cz - 1, n - 1})
	} else if z == n-1 {
		zs = append(zs, edge{cz + 1, 0})
	}

	copies := make([]sampleCopy, 0, len(xs)*len(zs))
	for _, ex := range xs {
		for _, ez := range zs {
			if c := ter.Chunk(ex.c, ez.c); c != nil {
				copies = append(copies, sampleCopy{c: c, cx: ex.c, cz: ez.c, x: ex.i, z: ez.i})
			}
		}
	}
	return copies
}

func (b *HeightBrush) slopeAt(p math.Vec3) float32 {
	return b.terrain.NormalAt(p).AngleFromUp()
}

// operate returns the new height for one sample under the active
// operation. maxChange caps how far a single dab may move the sample.
func (b *HeightBrush) operate(h float32, sample math.Vec3, w float32) float32 {
	maxChange := float32(heightRate * dabDeltaTime * float64(w))

	switch b.params.Operation {
	case OpRaise:
		return h + maxChange
	case OpLower:
		return h - maxChange
	case OpFlatten:
		diff := b.params.TargetHeight - h
		change := math.Clamp(diff, -maxChange, maxChange)
		return h + change
	case OpSmooth:
		diff := b.smoothTarget(sample, h) - h
		return h + math.Clamp(diff, -maxChange, maxChange)
	case OpNoise:
		noise := b.noise.Sample(sample.X, sample.Z, b.params.NoiseFrequency)
		return h + noise*b.params.NoiseScale*maxChange
	case OpSet:
		return b.params.TargetHeight
	}
	return h
}

// smoothTarget averages the 3x3 neighborhood one lattice step around
// sample, read through the terrain so the result does not depend on
// which chunk copy is being written. Neighbors past the terrain edge or
// over an unloaded chunk reuse the center height.
func (b *HeightBrush) smoothTarget(sample math.Vec3, h float32) float32 {
	step := 1 / b.terrain.Resolution()
	var sum float32
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			p := math.Vec3{X: sample.X + float32(dx)*step, Z: sample.Z + float32(dz)*step}
			sum += b.heightOr(p, h)
		}
	}
	return sum / 9
}

func (b *HeightBrush) heightOr(p math.Vec3, fallback float32) float32 {
	if cx, cz := b.terrain.WorldToChunk(p); b.terrain.Chunk(cx, cz) == nil {
		return fallback
	}
	h := b.terrain.HeightAt(p)
	if gomath.IsNaN(float64(h)) {
		return fallback
	}
	return h
}

// affectedChunks returns the chunks whose bounds intersect a brush
// footprint of the given radius around pos, creating any that do not
// exist yet.
func affectedChunks(ter *terrain.Terrain, pos math.Vec3, radius float32) []*terrain.Chunk {
	if ter == nil {
		return nil
	}
	minX, minZ := ter.WorldToChunk(math.Vec3{X: pos.X - radius, Z: pos.Z - radius})
	maxX, maxZ := ter.WorldToChunk(math.Vec3{X: pos.X + radius, Z: pos.Z + radius})

	chunks := make([]*terrain.Chunk, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for cz := minZ; cz <= maxZ; cz++ {
		for cx := minX; cx <= maxX; cx++ {
			chunks = append(chunks, ter.CreateChunk(cx, cz))
		}
	}
	return chunks
}

// previewSegments is the ring resolution of the brush cursor overlay.
const previewSegments = 32

// GeneratePreview builds a triangle-fan disc hugging the terrain surface
// under the brush cursor, lifted slightly to avoid z-fighting.
func (b *HeightBrush) GeneratePreview(ter *terrain.Terrain, pos math.Vec3) ([]math.Vec3, []uint32) {
	return generatePreview(ter, pos, b.settings.Size)
}

func generatePreview(ter *terrain.Terrain, pos math.Vec3, radius float32) ([]math.Vec3, []uint32) {
	if ter == nil {
		return nil, nil
	}

	const lift = 0.1
	vertices := make([]math.Vec3, 0, previewSegments+1)

	center := surfaceHeight(ter, pos)
	vertices = append(vertices, math.Vec3{X: pos.X, Y: center + lift, Z: pos.Z})

	for i := 0; i < previewSegments; i++ {
		angle := float64(i) / previewSegments * 2 * gomath.Pi
		x := pos.X + float32(gomath.Cos(angle))*radius
		z := pos.Z + float32(gomath.Sin(angle))*radius
		h := surfaceHeight(ter, math.Vec3{X: x, Z: z})
		vertices = append(vertices, math.Vec3{X: x, Y: h + lift, Z: z})
	}

	indices := make([]uint32, 0, previewSegments*3)
	for i := 0; i < previewSegments; i++ {
		indices = append(indices, 0, uint32(i+1), uint32((i+1)%previewSegments+1))
	}
	return vertices, indices
}

// surfaceHeight samples the terrain height under p, treating NaN (out of
// bounds) as 0 so the preview stays drawable at the terrain edge.
func surfaceHeight(ter *terrain.Terrain, p math.Vec3) float32 {
	h := ter.HeightAt(p)
	if gomath.IsNaN(float64(h)) {
		return 0
	}
	return h
}
