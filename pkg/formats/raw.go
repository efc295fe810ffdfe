package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"path/filepath"
	"strings"
)

// Raw heightmap errors.
var (
	ErrRawSizeMismatch     = errors.New("raw heightmap size does not match declared dimensions")
	ErrRawNotSquare        = errors.New("raw heightmap is not square and no dimensions were given")
	ErrUnsupportedBitDepth = errors.New("unsupported raw heightmap bit depth")
)

// Heightmap is a normalized height grid in row-major order. Samples are
// in [0,1]; callers apply their own height scale.
type Heightmap struct {
	Width   int
	Height  int
	Samples []float32
}

// At returns the sample at pixel coordinates, clamped to the grid.
func (h *Heightmap) At(x, y int) float32 {
	if h.Width == 0 || h.Height == 0 {
		return 0
	}
	if x < 0 {
		x = 0
	} else if x >= h.Width {
		x = h.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h.Height {
		y = h.Height - 1
	}
	return h.Samples[y*h.Width+x]
}

// SampleBilinear samples the grid at normalized coordinates u,v in
// [0,1] with bilinear filtering, used when resampling onto a terrain
// lattice of a different density.
func (h *Heightmap) SampleBilinear(u, v float32) float32 {
	if h.Width == 0 || h.Height == 0 {
		return 0
	}
	fx := u * float32(h.Width-1)
	fy := v * float32(h.Height-1)

	x0 := int(gomath.Floor(float64(fx)))
	y0 := int(gomath.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	h00 := h.At(x0, y0)
	h10 := h.At(x0+1, y0)
	h01 := h.At(x0, y0+1)
	h11 := h.At(x0+1, y0+1)

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*ty
}

// RawBitDepth maps a raw heightmap extension to its sample width.
func RawBitDepth(path string) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".r8":
		return 8, nil
	case ".r16":
		return 16, nil
	case ".r32":
		return 32, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedBitDepth, filepath.Ext(path))
}

// ParseRawHeightmap decodes a sequence of little-endian unsigned
// integers into a normalized heightmap. Pass zero dimensions to
// auto-detect a square layout.
func ParseRawHeightmap(data []byte, bitDepth, width, height int) (*Heightmap, error) {
	bytesPerSample := bitDepth / 8
	switch bitDepth {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if len(data)%bytesPerSample != 0 {
		return nil, ErrRawSizeMismatch
	}
	count := len(data) / bytesPerSample

	if width == 0 || height == 0 {
		side := int(gomath.Sqrt(float64(count)))
		if side*side != count {
			return nil, ErrRawNotSquare
		}
		width, height = side, side
	}
	if width*height != count {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrRawSizeMismatch, count, width, height)
	}

	hm := &Heightmap{
		Width:   width,
		Height:  height,
		Samples: make([]float32, count),
	}
	switch bitDepth {
	case 8:
		for i, b := range data {
			hm.Samples[i] = float32(b) / 255
		}
	case 16:
		for i := 0; i < count; i++ {
			v := binary.LittleEndian.Uint16(data[i*2:])
			hm.Samples[i] = float32(v) / 65535
		}
	case 32:
		for i := 0; i < count; i++ {
			v := binary.LittleEndian.Uint32(data[i*4:])
			hm.Samples[i] = float32(float64(v) / float64(gomath.MaxUint32))
		}
	}
	return hm, nil
}

// EncodeRawHeightmap serializes a normalized heightmap as little-endian
// unsigned integers of the given bit depth. Samples are clamped to
// [0,1] before quantization.
func EncodeRawHeightmap(hm *Heightmap, bitDepth int) ([]byte, error) {
	switch bitDepth {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	out := make([]byte, len(hm.Samples)*bitDepth/8)
	for i, s := range hm.Samples {
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		switch bitDepth {
		case 8:
			out[i] = uint8(s*255 + 0.5)
		case 16:
			binary.LittleEndian.PutUint16(out[i*2:], uint16(s*65535+0.5))
		case 32:
			binary.LittleEndian.PutUint32(out[i*4:], uint32(float64(s)*float64(gomath.MaxUint32)+0.5))
		}
	}
	return out, nil
}
