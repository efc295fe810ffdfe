package brush

import (
	"github.com/aquilax/go-perlin"
)

const (
	noiseAlpha   = 2
	noiseBeta    = 2
	noiseOctaves = 3
)

// noiseField is a seeded 2D Perlin field sampled over the terrain XZ
// plane. The same seed always reproduces the same field.
type noiseField struct {
	gen *perlin.Perlin
}

func newNoiseField(seed int64) *noiseField {
	return &noiseField{gen: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

// Sample returns a noise value in [-1, 1] at the given XZ position and
// frequency.
func (n *noiseField) Sample(x, z, frequency float32) float32 {
	v := n.gen.Noise2D(float64(x*frequency), float64(z*frequency))
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return float32(v)
}
