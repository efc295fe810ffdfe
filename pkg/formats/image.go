package formats

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
)

// Image heightmap errors.
var (
	ErrUnsupportedImageFormat = errors.New("unsupported heightmap image format")
	ErrTruncatedTGAData       = errors.New("truncated TGA data")
)

// ParseImageHeightmap decodes an image by extension and converts its
// luminance channel into a normalized heightmap.
func ParseImageHeightmap(data []byte, path string) (*Heightmap, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s heightmap: %w", ext, err)
		}
		return luminanceHeightmap(img), nil
	case ".tga":
		img, err := decodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding TGA heightmap: %w", err)
		}
		return luminanceHeightmap(img), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageFormat, ext)
}

// luminanceHeightmap converts an image to normalized heights using the
// Rec. 601 luma weights.
func luminanceHeightmap(img image.Image) *Heightmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	hm := &Heightmap{
		Width:   width,
		Height:  height,
		Samples: make([]float32, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)
			hm.Samples[y*width+x] = luma / 65535
		}
	}
	return hm
}

// decodeTGA decodes uncompressed or RLE true-color TGA (types 2 and
// 10) and uncompressed grayscale TGA (type 3), the variants heightmap
// tools commonly emit.
func decodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, ErrTruncatedTGAData
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, ErrTruncatedTGAData
	}
	pixelData := data[offset:]
	topToBottom := descriptor&0x20 != 0

	switch imageType {
	case 3:
		if bpp != 8 {
			return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d", bpp)
		}
		if len(pixelData) < width*height {
			return nil, ErrTruncatedTGAData
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			destY := y
			if !topToBottom {
				destY = height - 1 - y
			}
			copy(img.Pix[destY*img.Stride:destY*img.Stride+width], pixelData[y*width:])
		}
		return img, nil

	case 2:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
		}
		bytesPerPixel := bpp / 8
		if len(pixelData) < width*height*bytesPerPixel {
			return nil, ErrTruncatedTGAData
		}
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			destY := y
			if !topToBottom {
				destY = height - 1 - y
			}
			for x := 0; x < width; x++ {
				i := (y*width + x) * bytesPerPixel
				setTGAPixel(img, x, destY, pixelData[i:], bytesPerPixel)
			}
		}
		return img, nil

	case 10:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
		}
		return decodeTGARLE(pixelData, width, height, bpp/8, topToBottom)
	}
	return nil, fmt.Errorf("unsupported TGA type %d", imageType)
}

func setTGAPixel(img *image.RGBA, x, y int, px []byte, bytesPerPixel int) {
	i := img.PixOffset(x, y)
	img.Pix[i] = px[2]
	img.Pix[i+1] = px[1]
	img.Pix[i+2] = px[0]
	if bytesPerPixel == 4 {
		img.Pix[i+3] = px[3]
	} else {
		img.Pix[i+3] = 255
	}
}

func decodeTGARLE(pixelData []byte, width, height, bytesPerPixel int, topToBottom bool) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pixelCount := width * height
	pixelIdx := 0
	dataIdx := 0

	put := func(px []byte) {
		x := pixelIdx % width
		y := pixelIdx / width
		if !topToBottom {
			y = height - 1 - y
		}
		setTGAPixel(img, x, y, px, bytesPerPixel)
		pixelIdx++
	}

	for pixelIdx < pixelCount && dataIdx < len(pixelData) {
		packet := pixelData[dataIdx]
		dataIdx++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if dataIdx+bytesPerPixel > len(pixelData) {
				return nil, ErrTruncatedTGAData
			}
			px := pixelData[dataIdx : dataIdx+bytesPerPixel]
			dataIdx += bytesPerPixel
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				put(px)
			}
		} else {
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				if dataIdx+bytesPerPixel > len(pixelData) {
					return nil, ErrTruncatedTGAData
				}
				put(pixelData[dataIdx : dataIdx+bytesPerPixel])
				dataIdx += bytesPerPixel
			}
		}
	}
	return img, nil
}
