package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
)

// TERR format errors.
var (
	ErrInvalidTERRMagic       = errors.New("invalid TERR magic: expected 'TERR'")
	ErrUnsupportedTERRVersion = errors.New("unsupported TERR version")
	ErrTruncatedTERRData      = errors.New("truncated TERR data")
	ErrTERRPathUnterminated   = errors.New("TERR path not NUL-terminated within 256 bytes")
	ErrTERRLimitExceeded      = errors.New("TERR record exceeds decode limit")
	ErrTERRCancelled          = errors.New("TERR operation cancelled")
)

// TERRMagic is the file identifier, ASCII "TERR".
const TERRMagic uint32 = 0x54455252

// TERRVersion is the only supported container version.
const TERRVersion uint32 = 1

// File-level feature flags.
const (
	TERRFlagCompressed uint32 = 1 << 0
	TERRFlagTextures   uint32 = 1 << 1
	TERRFlagAssets     uint32 = 1 << 2
	TERRFlagNormals    uint32 = 1 << 3
	TERRFlagLOD        uint32 = 1 << 4
	TERRFlagStreaming  uint32 = 1 << 5
)

// Layer record flags.
const TERRLayerEnabled uint32 = 1 << 0

// Asset record flags.
const TERRAssetVisible uint32 = 1 << 0

const terrPathLen = 256

// TERRHeader is the fixed 64-byte file header.
type TERRHeader struct {
	Magic             uint32
	Version           uint32
	Flags             uint32
	ChunkCount        uint32
	TextureLayerCount uint32
	AssetCount        uint32
	TerrainWidth      float32
	TerrainDepth      float32
	Resolution        float32
	ChunkSize         float32
	Reserved          [6]uint32
}

// TERRLayer is one texture layer record.
type TERRLayer struct {
	TexturePath string
	Scale       float32
	Opacity     float32
	Flags       uint32
}

// TERRAsset is one asset instance record.
type TERRAsset struct {
	Path         string
	Position     [3]float32
	Rotation     [3]float32
	Scale        [3]float32
	HeightOffset float32
	Flags        uint32
}

// TERRChunk is one chunk record with its decoded payloads. Blend holds
// layerCount floats per sample, flattened sample-major.
type TERRChunk struct {
	X, Z    int32
	Flags   uint32
	Heights []float32
	Blend   []float32
	Assets  []TERRAsset
}

// TERR is a parsed terrain container.
type TERR struct {
	Header TERRHeader
	Layers []TERRLayer
	Chunks []TERRChunk
}

// DecodeLimits are the ceilings a decoder enforces on untrusted input.
type DecodeLimits struct {
	MaxChunkPayload uint32
	MaxChunks       uint32
	MaxAssets       uint32
}

// DefaultDecodeLimits returns ceilings generous enough for any terrain
// an editor produces.
func DefaultDecodeLimits() DecodeLimits {
	return DecodeLimits{
		MaxChunkPayload: 64 << 20,
		MaxChunks:       65536,
		MaxAssets:       1 << 20,
	}
}

// ProgressFunc reports progress as a 0..1 fraction with a status line.
// Returning false requests cancellation; the codec honors it between
// chunks.
type ProgressFunc func(fraction float32, status string) bool

// TERREncodeOptions control encoding.
type TERREncodeOptions struct {
	Compress bool
	Progress ProgressFunc
}

// EncodeTERR serializes a terrain container. The header's magic,
// version, counts and flags are derived from the container contents, so
// callers only need to fill the geometry fields.
func EncodeTERR(t *TERR, opts TERREncodeOptions) ([]byte, error) {
	header := t.Header
	header.Magic = TERRMagic
	header.Version = TERRVersion
	header.ChunkCount = uint32(len(t.Chunks))
	header.TextureLayerCount = uint32(len(t.Layers))
	header.Reserved = [6]uint32{}

	header.Flags = 0
	if opts.Compress {
		header.Flags |= TERRFlagCompressed
	}
	if len(t.Layers) > 0 {
		header.Flags |= TERRFlagTextures
	}
	var assetTotal uint32
	for _, c := range t.Chunks {
		assetTotal += uint32(len(c.Assets))
	}
	header.AssetCount = assetTotal
	if assetTotal > 0 {
		header.Flags |= TERRFlagAssets
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("writing TERR header: %w", err)
	}

	for i, layer := range t.Layers {
		if err := writeTERRLayer(buf, layer); err != nil {
			return nil, fmt.Errorf("writing layer %d: %w", i, err)
		}
	}

	for i, chunk := range t.Chunks {
		if opts.Progress != nil {
			fraction := float32(i) / float32(len(t.Chunks))
			if !opts.Progress(fraction, fmt.Sprintf("encoding chunk (%d,%d)", chunk.X, chunk.Z)) {
				return nil, ErrTERRCancelled
			}
		}
		if err := writeTERRChunk(buf, chunk, opts.Compress); err != nil {
			return nil, fmt.Errorf("writing chunk (%d,%d): %w", chunk.X, chunk.Z, err)
		}
	}

	if opts.Progress != nil {
		opts.Progress(1, "encoded")
	}
	return buf.Bytes(), nil
}

// ParseTERR parses a terrain container from raw bytes, enforcing the
// given decode limits. The progress callback may be nil.
func ParseTERR(data []byte, limits DecodeLimits, progress ProgressFunc) (*TERR, error) {
	r := bytes.NewReader(data)

	var header TERRHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTERRData)
	}
	if header.Magic != TERRMagic {
		return nil, ErrInvalidTERRMagic
	}
	if header.Version != TERRVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTERRVersion, header.Version)
	}
	if header.ChunkCount > limits.MaxChunks {
		return nil, fmt.Errorf("%w: %d chunks", ErrTERRLimitExceeded, header.ChunkCount)
	}
	if header.AssetCount > limits.MaxAssets {
		return nil, fmt.Errorf("%w: %d assets", ErrTERRLimitExceeded, header.AssetCount)
	}

	t := &TERR{Header: header}

	t.Layers = make([]TERRLayer, header.TextureLayerCount)
	for i := range t.Layers {
		layer, err := readTERRLayer(r)
		if err != nil {
			return nil, fmt.Errorf("reading layer %d: %w", i, err)
		}
		t.Layers[i] = layer
	}

	t.Chunks = make([]TERRChunk, 0, header.ChunkCount)
	for i := uint32(0); i < header.ChunkCount; i++ {
		if progress != nil {
			fraction := float32(i) / float32(header.ChunkCount)
			if !progress(fraction, fmt.Sprintf("decoding chunk %d/%d", i+1, header.ChunkCount)) {
				return nil, ErrTERRCancelled
			}
		}
		chunk, err := readTERRChunk(r, limits)
		if err != nil {
			return nil, fmt.Errorf("reading chunk %d: %w", i, err)
		}
		t.Chunks = append(t.Chunks, chunk)
	}

	if progress != nil {
		progress(1, "decoded")
	}
	return t, nil
}

// ParseTERRFile parses a terrain container from disk.
func ParseTERRFile(path string, limits DecodeLimits, progress ProgressFunc) (*TERR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TERR file: %w", err)
	}
	return ParseTERR(data, limits, progress)
}

// TERRFileInfo reads just the header of a terrain file.
func TERRFileInfo(path string) (*TERRHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening TERR file: %w", err)
	}
	defer f.Close()

	var header TERRHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTERRData)
	}
	if header.Magic != TERRMagic {
		return nil, ErrInvalidTERRMagic
	}
	if header.Version != TERRVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTERRVersion, header.Version)
	}
	return &header, nil
}

// ValidateTERRFile reports whether the file parses as a terrain
// container under the given limits.
func ValidateTERRFile(path string, limits DecodeLimits) bool {
	_, err := ParseTERRFile(path, limits, nil)
	return err == nil
}

func writeTERRLayer(buf *bytes.Buffer, layer TERRLayer) error {
	if err := writeTERRPath(buf, layer.TexturePath); err != nil {
		return err
	}
	for _, v := range []interface{}{layer.Scale, layer.Opacity, layer.Flags} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	var reserved [16]byte
	_, err := buf.Write(reserved[:])
	return err
}

func readTERRLayer(r *bytes.Reader) (TERRLayer, error) {
	var layer TERRLayer

	path, err := readTERRPath(r)
	if err != nil {
		return TERRLayer{}, err
	}
	layer.TexturePath = path

	if err := binary.Read(r, binary.LittleEndian, &layer.Scale); err != nil {
		return TERRLayer{}, fmt.Errorf("%w: reading layer scale", ErrTruncatedTERRData)
	}
	if err := binary.Read(r, binary.LittleEndian, &layer.Opacity); err != nil {
		return TERRLayer{}, fmt.Errorf("%w: reading layer opacity", ErrTruncatedTERRData)
	}
	if err := binary.Read(r, binary.LittleEndian, &layer.Flags); err != nil {
		return TERRLayer{}, fmt.Errorf("%w: reading layer flags", ErrTruncatedTERRData)
	}

	var reserved [16]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return TERRLayer{}, fmt.Errorf("%w: reading layer reserved", ErrTruncatedTERRData)
	}
	return layer, nil
}

func writeTERRChunk(buf *bytes.Buffer, chunk TERRChunk, compress bool) error {
	heightData, err := packFloats(chunk.Heights, compress)
	if err != nil {
		return err
	}
	blendData, err := packFloats(chunk.Blend, compress)
	if err != nil {
		return err
	}

	var flags uint32
	if compress {
		flags |= TERRFlagCompressed
	}

	for _, v := range []interface{}{
		chunk.X, chunk.Z,
		uint32(len(heightData)), uint32(len(blendData)),
		uint32(len(chunk.Assets)), flags,
		[2]uint32{},
	} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	buf.Write(heightData)
	buf.Write(blendData)

	for i, asset := range chunk.Assets {
		if err := writeTERRAsset(buf, asset); err != nil {
			return fmt.Errorf("writing asset %d: %w", i, err)
		}
	}
	return nil
}

func readTERRChunk(r *bytes.Reader, limits DecodeLimits) (TERRChunk, error) {
	var chunk TERRChunk
	var heightSize, blendSize, assetCount, flags uint32
	var reserved [2]uint32

	for _, v := range []interface{}{&chunk.X, &chunk.Z, &heightSize, &blendSize, &assetCount, &flags, &reserved} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return TERRChunk{}, fmt.Errorf("%w: reading chunk header", ErrTruncatedTERRData)
		}
	}
	chunk.Flags = flags

	if heightSize > limits.MaxChunkPayload {
		return TERRChunk{}, fmt.Errorf("%w: height payload %d bytes", ErrTERRLimitExceeded, heightSize)
	}
	if blendSize > limits.MaxChunkPayload {
		return TERRChunk{}, fmt.Errorf("%w: blend payload %d bytes", ErrTERRLimitExceeded, blendSize)
	}
	if assetCount > limits.MaxAssets {
		return TERRChunk{}, fmt.Errorf("%w: %d assets", ErrTERRLimitExceeded, assetCount)
	}

	compressed := flags&TERRFlagCompressed != 0

	heights, err := unpackFloats(r, heightSize, compressed, limits.MaxChunkPayload)
	if err != nil {
		return TERRChunk{}, fmt.Errorf("height payload: %w", err)
	}
	chunk.Heights = heights

	blend, err := unpackFloats(r, blendSize, compressed, limits.MaxChunkPayload)
	if err != nil {
		return TERRChunk{}, fmt.Errorf("blend payload: %w", err)
	}
	chunk.Blend = blend

	chunk.Assets = make([]TERRAsset, assetCount)
	for i := range chunk.Assets {
		asset, err := readTERRAsset(r)
		if err != nil {
			return TERRChunk{}, fmt.Errorf("reading asset %d: %w", i, err)
		}
		chunk.Assets[i] = asset
	}
	return chunk, nil
}

func writeTERRAsset(buf *bytes.Buffer, asset TERRAsset) error {
	if err := writeTERRPath(buf, asset.Path); err != nil {
		return err
	}
	for _, v := range []interface{}{
		asset.Position, asset.Rotation, asset.Scale,
		asset.HeightOffset, asset.Flags,
		[3]uint32{},
	} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readTERRAsset(r *bytes.Reader) (TERRAsset, error) {
	var asset TERRAsset

	path, err := readTERRPath(r)
	if err != nil {
		return TERRAsset{}, err
	}
	asset.Path = path

	var reserved [3]uint32
	for _, v := range []interface{}{&asset.Position, &asset.Rotation, &asset.Scale, &asset.HeightOffset, &asset.Flags, &reserved} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return TERRAsset{}, fmt.Errorf("%w: reading asset record", ErrTruncatedTERRData)
		}
	}
	return asset, nil
}

// writeTERRPath emits a fixed 256-byte NUL-terminated path field.
func writeTERRPath(buf *bytes.Buffer, path string) error {
	if len(path) >= terrPathLen {
		return fmt.Errorf("path %q exceeds %d bytes", path, terrPathLen-1)
	}
	var field [terrPathLen]byte
	copy(field[:], path)
	_, err := buf.Write(field[:])
	return err
}

func readTERRPath(r *bytes.Reader) (string, error) {
	var field [terrPathLen]byte
	if _, err := io.ReadFull(r, field[:]); err != nil {
		return "", fmt.Errorf("%w: reading path", ErrTruncatedTERRData)
	}
	idx := bytes.IndexByte(field[:], 0)
	if idx < 0 {
		return "", ErrTERRPathUnterminated
	}
	return string(field[:idx]), nil
}

// packFloats serializes values little-endian, optionally zlib
// compressed.
func packFloats(values []float32, compress bool) ([]byte, error) {
	raw := new(bytes.Buffer)
	raw.Grow(len(values) * 4)
	if err := binary.Write(raw, binary.LittleEndian, values); err != nil {
		return nil, err
	}
	if !compress {
		return raw.Bytes(), nil
	}

	out := new(bytes.Buffer)
	w := zlib.NewWriter(out)
	if _, err := w.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// unpackFloats reads size bytes of payload and decodes it into floats,
// inflating first when compressed. maxPayload bounds the inflated size.
func unpackFloats(r *bytes.Reader, size uint32, compressed bool, maxPayload uint32) ([]float32, error) {
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading payload", ErrTruncatedTERRData)
	}

	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("inflating payload: %w", err)
		}
		inflated, err := io.ReadAll(io.LimitReader(zr, int64(maxPayload)+1))
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("inflating payload: %w", err)
		}
		if len(inflated) > int(maxPayload) {
			return nil, fmt.Errorf("%w: inflated payload", ErrTERRLimitExceeded)
		}
		payload = inflated
	}

	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: payload not float-aligned", ErrTruncatedTERRData)
	}
	values := make([]float32, len(payload)/4)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, values); err != nil {
		return nil, fmt.Errorf("%w: decoding payload", ErrTruncatedTERRData)
	}
	return values, nil
}
