package brush

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/terrasculpt/internal/terrain"
	tsmath "github.com/Faultbox/terrasculpt/pkg/math"
)

func newScatterBrush(seed int64) *ScatterBrush {
	b := NewScatterBrush(16, seed)
	s := b.Settings()
	s.Size = 5
	b.SetSettings(s)
	p := b.Params()
	p.AvoidWater = false
	b.SetParams(p)
	b.AddPaletteAsset(NewScatterAssetInfo("props/tree.obj"))
	return b
}

func allAssets(ter *terrain.Terrain) []terrain.Asset {
	var assets []terrain.Asset
	for _, c := range ter.Chunks() {
		assets = append(assets, c.Assets()...)
	}
	return assets
}

func TestScatterDensity(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	placed := ter.AssetCount()
	area := gomath.Pi * 5 * 5
	target := int(gomath.Ceil(area))
	if placed > target {
		t.Errorf("placed %d assets, more than the target count %d", placed, target)
	}
	if float64(placed) < area*0.3 {
		t.Errorf("placed %d assets, expected at least %v after rejections", placed, area*0.3)
	}
}

func TestScatterMinDistance(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	assets := allAssets(ter)
	for i := 0; i < len(assets); i++ {
		for j := i + 1; j < len(assets); j++ {
			d := assets[i].Position.XZDistance(assets[j].Position)
			if d < b.Params().MinDistance-1e-5 {
				t.Fatalf("assets %d and %d are %v apart, closer than min distance", i, j, d)
			}
		}
	}
}

func TestScatterStaysInBounds(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	// Brush hanging over the terrain edge.
	b.BeginStroke(ter, tsmath.Vec3{X: 2, Z: 2})
	b.EndStroke()

	for _, asset := range allAssets(ter) {
		p := asset.Position
		if p.X < 0 || p.X > ter.Width() || p.Z < 0 || p.Z > ter.Depth() {
			t.Fatalf("asset placed out of bounds at %v", p)
		}
	}
}

func TestScatterWaterFilter(t *testing.T) {
	ter := newFlatTerrain() // height 0 everywhere
	b := newScatterBrush(1)
	p := b.Params()
	p.AvoidWater = true
	p.WaterLevel = 0.5
	b.SetParams(p)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	if got := ter.AssetCount(); got != 0 {
		t.Errorf("placed %d assets below water level, want 0", got)
	}
}

func TestScatterSlopeFilter(t *testing.T) {
	ter := terrain.New(256, 256, 1, 64)
	c := ter.CreateChunk(0, 0)
	for z := 0; z < c.LatticeSize(); z++ {
		for x := 0; x < c.LatticeSize(); x++ {
			c.SetHeight(x, z, float32(x)*3)
		}
	}

	b := newScatterBrush(1)
	p := b.Params()
	p.MaxSlopeDeg = 10
	b.SetParams(p)

	b.BeginStroke(ter, tsmath.Vec3{X: 32, Z: 32})
	b.EndStroke()

	if got := ter.AssetCount(); got != 0 {
		t.Errorf("placed %d assets on a steep ramp, want 0", got)
	}
}

func TestScatterDeterministic(t *testing.T) {
	run := func() []terrain.Asset {
		ter := newFlatTerrain()
		b := newScatterBrush(42)
		b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
		b.EndStroke()
		return allAssets(ter)
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("seeded runs placed %d and %d assets", len(first), len(second))
	}
	for i := range first {
		if first[i].Position != second[i].Position {
			t.Fatalf("seeded runs diverged at asset %d: %v vs %v", i, first[i].Position, second[i].Position)
		}
	}
}

func TestScatterWeightedPalette(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)
	heavy := NewScatterAssetInfo("props/rock.obj")
	heavy.Weight = 1000
	b.AddPaletteAsset(heavy)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	rocks := 0
	assets := allAssets(ter)
	for _, a := range assets {
		if a.Path == "props/rock.obj" {
			rocks++
		}
	}
	if len(assets) == 0 {
		t.Fatal("no assets placed")
	}
	if rocks <= len(assets)/2 {
		t.Errorf("heavily weighted asset drawn %d of %d times", rocks, len(assets))
	}
}

func TestScatterDisabledPaletteEntry(t *testing.T) {
	ter := newFlatTerrain()
	b := NewScatterBrush(16, 1)
	s := b.Settings()
	s.Size = 5
	b.SetSettings(s)
	p := b.Params()
	p.AvoidWater = false
	b.SetParams(p)

	disabled := NewScatterAssetInfo("props/dead.obj")
	disabled.Enabled = false
	b.AddPaletteAsset(disabled)
	b.AddPaletteAsset(NewScatterAssetInfo("props/tree.obj"))

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	for _, a := range allAssets(ter) {
		if a.Path == "props/dead.obj" {
			t.Fatal("disabled palette entry was placed")
		}
	}
}

func TestScatterUndoRedo(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	placed := ter.AssetCount()
	if placed == 0 {
		t.Fatal("no assets placed")
	}

	if !b.Undo(ter) {
		t.Fatal("Undo should succeed")
	}
	if got := ter.AssetCount(); got != 0 {
		t.Errorf("asset count after undo = %d, want 0", got)
	}

	if !b.Redo(ter) {
		t.Fatal("Redo should succeed")
	}
	if got := ter.AssetCount(); got != placed {
		t.Errorf("asset count after redo = %d, want %d", got, placed)
	}
}

func TestScatterEraseRestoresIDs(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	center := tsmath.Vec3{X: 100, Z: 100}
	b.BeginStroke(ter, center)
	b.EndStroke()

	before := make(map[uint32]string)
	for _, a := range allAssets(ter) {
		before[a.ID] = a.Path
	}

	removed := b.Erase(ter, center, 50)
	if removed != len(before) {
		t.Fatalf("erased %d assets, want %d", removed, len(before))
	}
	if ter.AssetCount() != 0 {
		t.Fatal("erase should have emptied the terrain")
	}

	if !b.Undo(ter) {
		t.Fatal("Undo of erase should succeed")
	}
	after := make(map[uint32]string)
	for _, a := range allAssets(ter) {
		after[a.ID] = a.Path
	}
	if len(after) != len(before) {
		t.Fatalf("restored %d assets, want %d", len(after), len(before))
	}
	for id, path := range before {
		if after[id] != path {
			t.Errorf("asset id %d restored as %q, want %q", id, after[id], path)
		}
	}
}

func TestScatterPlacementCallback(t *testing.T) {
	ter := newFlatTerrain()
	b := newScatterBrush(1)

	var observed int
	b.SetPlacementCallback(func(p Placement) {
		if p.Asset.Path == "" {
			t.Error("placement callback received an empty asset")
		}
		observed++
	})

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	b.EndStroke()

	if observed != ter.AssetCount() {
		t.Errorf("callback observed %d placements, terrain holds %d", observed, ter.AssetCount())
	}
}

func TestScatterEmptyPaletteNoStroke(t *testing.T) {
	ter := newFlatTerrain()
	b := NewScatterBrush(16, 1)

	b.BeginStroke(ter, tsmath.Vec3{X: 100, Z: 100})
	if b.Active() {
		t.Error("stroke should not start with an empty palette")
	}
}
