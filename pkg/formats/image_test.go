package formats

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// createTestTGA builds an uncompressed true-color TGA with top-to-bottom
// row order.
func createTestTGA(width, height, bpp int, pixels []byte) []byte {
	header := make([]byte, 18)
	header[2] = 2
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = byte(bpp)
	header[17] = 0x20
	return append(header, pixels...)
}

func createTestGrayTGA(width, height int, pixels []byte) []byte {
	header := make([]byte, 18)
	header[2] = 3
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = 8
	header[17] = 0x20
	return append(header, pixels...)
}

func TestParseImageHeightmapPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 128})
	img.SetGray(0, 1, color.Gray{Y: 64})
	img.SetGray(1, 1, color.Gray{Y: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	hm, err := ParseImageHeightmap(buf.Bytes(), "height.png")
	if err != nil {
		t.Fatalf("ParseImageHeightmap failed: %v", err)
	}
	if hm.Width != 2 || hm.Height != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", hm.Width, hm.Height)
	}

	// Gray pixels have equal RGB, so luminance reduces to Y/255.
	want := []float32{0, 128.0 / 255, 64.0 / 255, 1}
	for i, w := range want {
		if diff := math.Abs(float64(hm.Samples[i] - w)); diff > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, hm.Samples[i], w)
		}
	}
}

func TestParseImageHeightmapGrayTGA(t *testing.T) {
	data := createTestGrayTGA(2, 2, []byte{0, 255, 51, 102})
	hm, err := ParseImageHeightmap(data, "height.tga")
	if err != nil {
		t.Fatalf("ParseImageHeightmap failed: %v", err)
	}

	want := []float32{0, 1, 51.0 / 255, 102.0 / 255}
	for i, w := range want {
		if diff := math.Abs(float64(hm.Samples[i] - w)); diff > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, hm.Samples[i], w)
		}
	}
}

func TestParseImageHeightmapTrueColorTGA(t *testing.T) {
	// One white and one black pixel, BGR order.
	data := createTestTGA(2, 1, 24, []byte{255, 255, 255, 0, 0, 0})
	hm, err := ParseImageHeightmap(data, "height.tga")
	if err != nil {
		t.Fatalf("ParseImageHeightmap failed: %v", err)
	}
	if math.Abs(float64(hm.Samples[0])-1) > 1e-3 {
		t.Errorf("white sample = %v, want 1", hm.Samples[0])
	}
	if hm.Samples[1] != 0 {
		t.Errorf("black sample = %v, want 0", hm.Samples[1])
	}
}

func TestParseImageHeightmapBottomUpTGA(t *testing.T) {
	data := createTestGrayTGA(1, 2, []byte{255, 0})
	data[17] = 0 // bottom-to-top row order

	hm, err := ParseImageHeightmap(data, "height.tga")
	if err != nil {
		t.Fatalf("ParseImageHeightmap failed: %v", err)
	}
	if hm.Samples[0] != 0 || math.Abs(float64(hm.Samples[1])-1) > 1e-3 {
		t.Errorf("samples = %v, want bottom row flipped to top", hm.Samples)
	}
}

func TestParseImageHeightmapRLETGA(t *testing.T) {
	header := make([]byte, 18)
	header[2] = 10
	header[12] = 4
	header[14] = 1
	header[16] = 24
	header[17] = 0x20
	// One run packet covering all four pixels with mid-gray.
	data := append(header, 0x83, 100, 100, 100)

	hm, err := ParseImageHeightmap(data, "height.tga")
	if err != nil {
		t.Fatalf("ParseImageHeightmap failed: %v", err)
	}
	for i, s := range hm.Samples {
		if diff := math.Abs(float64(s) - 100.0/255); diff > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, s, 100.0/255)
		}
	}
}

func TestParseImageHeightmapUnsupported(t *testing.T) {
	if _, err := ParseImageHeightmap(nil, "height.bmp"); !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Errorf("error = %v, want ErrUnsupportedImageFormat", err)
	}
}

func TestParseImageHeightmapTruncatedTGA(t *testing.T) {
	data := createTestGrayTGA(4, 4, []byte{1, 2, 3})
	if _, err := ParseImageHeightmap(data, "height.tga"); !errors.Is(err, ErrTruncatedTGAData) {
		t.Errorf("error = %v, want ErrTruncatedTGAData", err)
	}
}
