package brush

import (
	gomath "math"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/pkg/math"
)

// TextureBlendMode selects how painted weight combines with the weight
// already on the target layer.
type TextureBlendMode int

const (
	BlendReplace TextureBlendMode = iota
	BlendAdd
	BlendSubtract
	BlendMultiply
	BlendOverlay
	BlendSoftLight
	BlendHardLight
)

func (m TextureBlendMode) String() string {
	switch m {
	case BlendReplace:
		return "replace"
	case BlendAdd:
		return "add"
	case BlendSubtract:
		return "subtract"
	case BlendMultiply:
		return "multiply"
	case BlendOverlay:
		return "overlay"
	case BlendSoftLight:
		return "softlight"
	case BlendHardLight:
		return "hardlight"
	}
	return "unknown"
}

// TexturePaintParams configures texture painting.
type TexturePaintParams struct {
	TargetLayer      int
	BlendMode        TextureBlendMode
	Opacity          float32
	NormalizeWeights bool
	FlowRate         float32

	// RespectExistingWeights is carried as data; no blend mode consults
	// it yet.
	RespectExistingWeights bool
}

// DefaultTexturePaintParams returns the editor defaults.
func DefaultTexturePaintParams() TexturePaintParams {
	return TexturePaintParams{
		TargetLayer:            0,
		BlendMode:              BlendReplace,
		Opacity:                1,
		NormalizeWeights: true,
		FlowRate:         1,
	}
}

// TextureStroke is one completed paint gesture with the blend weights
// before and after it, keyed per sample.
type TextureStroke struct {
	Settings  Settings
	Params    TexturePaintParams
	Positions []math.Vec3

	prior  map[sampleKey][]float32
	result map[sampleKey][]float32
}

// TextureBrush paints texture layer blend weights. Dabs are gated by
// spacing like the height brush, and additionally metered by the flow
// rate so slow strokes deposit at most full strength per dab.
type TextureBrush struct {
	settings Settings
	params   TexturePaintParams

	active          bool
	terrain         *terrain.Terrain
	lastPos         math.Vec3
	accumulated     float32
	accumulatedFlow float32
	current         *TextureStroke

	history *History[*TextureStroke]
}

// NewTextureBrush returns a brush with default settings and an undo
// history bounded to historyLimit strokes.
func NewTextureBrush(historyLimit int) *TextureBrush {
	settings := DefaultSettings()
	settings.Strength = 0.5
	return &TextureBrush{
		settings: settings,
		params:   DefaultTexturePaintParams(),
		history:  NewHistory[*TextureStroke](historyLimit),
	}
}

// Settings returns the current brush settings.
func (b *TextureBrush) Settings() Settings { return b.settings }

// SetSettings replaces the brush settings.
func (b *TextureBrush) SetSettings(s Settings) { b.settings = s }

// Params returns the current paint parameters.
func (b *TextureBrush) Params() TexturePaintParams { return b.params }

// SetParams replaces the paint parameters.
func (b *TextureBrush) SetParams(p TexturePaintParams) { b.params = p }

// Active reports whether a stroke is in progress.
func (b *TextureBrush) Active() bool { return b.active }

// BeginStroke starts a paint gesture at pos and applies the first dab at
// full flow.
func (b *TextureBrush) BeginStroke(ter *terrain.Terrain, pos math.Vec3) {
	if ter == nil {
		return
	}
	b.active = true
	b.terrain = ter
	b.lastPos = pos
	b.accumulated = 0
	b.accumulatedFlow = 0
	b.current = &TextureStroke{
		Settings:  b.settings,
		Params:    b.params,
		Positions: []math.Vec3{pos},
		prior:     make(map[sampleKey][]float32),
		result:    make(map[sampleKey][]float32),
	}
	b.applyDab(pos, 1)
}

// ContinueStroke extends the gesture. deltaTime feeds the flow bucket;
// once spacing is reached a dab lands at the accumulated flow strength,
// capped at 1.
func (b *TextureBrush) ContinueStroke(pos math.Vec3, deltaTime float32) {
	if !b.active || b.terrain == nil {
		return
	}
	b.accumulated += pos.Sub(b.lastPos).Length()
	b.accumulatedFlow += deltaTime * b.params.FlowRate

	if b.accumulated >= b.settings.Size*b.settings.Spacing {
		flow := b.accumulatedFlow
		if flow > 1 {
			flow = 1
		}
		b.applyDab(pos, flow)
		b.current.Positions = append(b.current.Positions, pos)
		b.accumulated = 0
		b.accumulatedFlow = 0
	}
	b.lastPos = pos
}

// EndStroke finishes the gesture, records the resulting weights and
// pushes the stroke onto the undo history.
func (b *TextureBrush) EndStroke() {
	if !b.active {
		return
	}
	b.active = false

	for key := range b.current.prior {
		if c := b.terrain.Chunk(key.cx, key.cz); c != nil {
			b.current.result[key] = c.BlendWeights(key.x, key.z)
		}
	}
	if len(b.current.prior) > 0 {
		b.history.Push(b.current)
	}
	b.current = nil
	b.terrain = nil
}

// Undo reverts the most recent stroke.
func (b *TextureBrush) Undo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Undo()
	if !ok {
		return false
	}
	applyWeightRecord(ter, stroke.prior)
	return true
}

// Redo reapplies the most recently undone stroke.
func (b *TextureBrush) Redo(ter *terrain.Terrain) bool {
	stroke, ok := b.history.Redo()
	if !ok {
		return false
	}
	applyWeightRecord(ter, stroke.result)
	return true
}

// CanUndo reports whether an undoable stroke exists.
func (b *TextureBrush) CanUndo() bool { return b.history.CanUndo() }

// CanRedo reports whether a redoable stroke exists.
func (b *TextureBrush) CanRedo() bool { return b.history.CanRedo() }

// ClearHistory drops all recorded strokes.
func (b *TextureBrush) ClearHistory() { b.history.Clear() }

// WeightsAt returns the interpolated blend weight vector under a world
// position.
func (b *TextureBrush) WeightsAt(ter *terrain.Terrain, pos math.Vec3) []float32 {
	if ter == nil {
		return nil
	}
	return ter.BlendWeightsAt(pos)
}

// DominantLayerAt returns the layer index with the highest blend weight
// under a world position. Ties and all-zero weights resolve to the
// lowest index.
func (b *TextureBrush) DominantLayerAt(ter *terrain.Terrain, pos math.Vec3) int {
	weights := b.WeightsAt(ter, pos)
	dominant := 0
	var best float32
	for i, w := range weights {
		if w > best {
			best = w
			dominant = i
		}
	}
	return dominant
}

// GeneratePreview builds the brush cursor overlay disc.
func (b *TextureBrush) GeneratePreview(ter *terrain.Terrain, pos math.Vec3) ([]math.Vec3, []uint32) {
	return generatePreview(ter, pos, b.settings.Size)
}

func applyWeightRecord(ter *terrain.Terrain, record map[sampleKey][]float32) {
	if ter == nil {
		return
	}
	for key, weights := range record {
		c := ter.Chunk(key.cx, key.cz)
		if c == nil {
			c = ter.CreateChunk(key.cx, key.cz)
		}
		c.SetBlendWeights(key.x, key.z, weights)
		c.SetDirty(true)
	}
}

func (b *TextureBrush) applyDab(pos math.Vec3, flowStrength float32) {
	if b.params.TargetLayer < 0 || b.params.TargetLayer >= b.terrain.LayerCount() {
		return
	}

	for _, c := range affectedChunks(b.terrain, pos, b.settings.Size) {
		cx, cz := c.Coords()
		n := c.LatticeSize()

		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				sample := c.LocalToWorld(x, z, 0)
				w := b.settings.WeightAt(pos, sample) * flowStrength
				if w <= 0 {
					continue
				}

				key := sampleKey{cx: cx, cz: cz, x: x, z: z}
				weights := c.BlendWeights(x, z)
				if _, seen := b.current.prior[key]; !seen {
					prior := make([]float32, len(weights))
					copy(prior, weights)
					b.current.prior[key] = prior
				}

				c.SetBlendWeights(x, z, b.paint(weights, w))
			}
		}
		c.SetDirty(true)
	}
}

// paint applies the blend mode to the target layer of weights and
// normalizes if requested. The slice is modified in place and returned.
func (b *TextureBrush) paint(weights []float32, brushWeight float32) []float32 {
	strength := math.Clamp(b.params.Opacity*brushWeight, 0, 1)

	target := b.params.TargetLayer
	if target < len(weights) {
		weights[target] = math.Clamp(blendWeight(weights[target], strength, b.params.BlendMode), 0, 1)
	}
	if b.params.NormalizeWeights {
		normalizeWeights(weights)
	}
	return weights
}

func blendWeight(original, paint float32, mode TextureBlendMode) float32 {
	switch mode {
	case BlendReplace:
		return math.Lerp(original, 1, paint)
	case BlendAdd:
		return original + paint
	case BlendSubtract:
		return original - paint
	case BlendMultiply:
		return original*(1-paint) + original*paint
	case BlendOverlay:
		if original < 0.5 {
			return 2 * original * paint
		}
		return 1 - 2*(1-original)*(1-paint)
	case BlendSoftLight:
		return original*(1-paint) + float32(gomath.Sqrt(float64(original)))*paint
	case BlendHardLight:
		if paint < 0.5 {
			return 2 * original * paint
		}
		return 1 - 2*(1-original)*(1-paint)
	}
	return math.Lerp(original, 1, paint)
}

// normalizeWeights rescales weights to sum to 1. An all-zero vector gets
// full weight on the first layer.
func normalizeWeights(weights []float32) {
	var total float32
	for _, w := range weights {
		total += w
	}
	if total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	} else if len(weights) > 0 {
		weights[0] = 1
	}
}
