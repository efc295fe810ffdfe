// terrainctl is a CLI utility for working with terrain files: header
// inspection, validation, recompression, and heightmap/mesh conversion.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/terrasculpt/internal/brush"
	"github.com/Faultbox/terrasculpt/internal/config"
	"github.com/Faultbox/terrasculpt/internal/logger"
	"github.com/Faultbox/terrasculpt/internal/terrain"
	"github.com/Faultbox/terrasculpt/internal/terrainio"
	"github.com/Faultbox/terrasculpt/pkg/formats"
	tsmath "github.com/Faultbox/terrasculpt/pkg/math"
)

func main() {
	// Global flags come before the command; flag parsing stops at the
	// first non-flag argument.
	config.ParseFlags()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	logOpts := logger.Options{Level: cfg.Logging.Level, Console: true}
	if cfg.Logging.LogFile != "" {
		logOpts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(logOpts); err != nil {
		fatal(err)
	}
	defer logger.Sync()

	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		cmdInfo(cfg, rest)
	case "validate":
		cmdValidate(cfg, rest)
	case "convert":
		cmdConvert(cfg, rest)
	case "import":
		cmdImport(cfg, rest)
	case "export":
		cmdExport(cfg, rest)
	case "generate":
		cmdGenerate(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// managerOptions builds terrainio options from the loaded config.
func managerOptions(cfg *config.Config, compress bool) terrainio.Options {
	return terrainio.Options{
		Compress: compress,
		Limits:   cfg.Codec.DecodeLimits(),
	}
}

func printUsage() {
	fmt.Println(`terrainctl - terrain file utility

Usage:
  terrainctl <command> [options]

Commands:
  info <file.terrain>                 Show terrain file header
  validate <file.terrain>             Check that a file parses cleanly
  convert <in.terrain> <out.terrain>  Rewrite a terrain file (recompress)
  import <heightmap> <out.terrain>    Build a terrain from a heightmap
  export <in.terrain> <out>           Export mesh (.obj) or heightmap (.raw/.r16/.r32)
  generate <out.terrain>              Sculpt a procedural noise terrain

Global flags go before the command: -config, -debug, -no-compress,
-brush-size, -noise-seed, -undo-steps, -logfile.

Examples:
  terrainctl info island.terrain
  terrainctl convert -no-compress island.terrain island_flat.terrain
  terrainctl import -size 512 -height-scale 80 ridge.r16 ridge.terrain
  terrainctl export -merge island.terrain island.obj
  terrainctl -noise-seed 7 generate -amplitude 60 rolling.terrain`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl info <file.terrain>")
		os.Exit(1)
	}

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress))
	header, err := m.Info(args[0])
	if err != nil {
		fatal(err)
	}

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Version:    %d\n", header.Version)
	fmt.Printf("Terrain:    %g x %g world units\n", header.TerrainWidth, header.TerrainDepth)
	fmt.Printf("Resolution: %g samples/unit\n", header.Resolution)
	fmt.Printf("Chunk size: %g\n", header.ChunkSize)
	fmt.Printf("Chunks:     %d\n", header.ChunkCount)
	fmt.Printf("Layers:     %d\n", header.TextureLayerCount)
	fmt.Printf("Assets:     %d\n", header.AssetCount)
	fmt.Printf("Compressed: %v\n", header.Flags&formats.TERRFlagCompressed != 0)
}

func cmdValidate(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl validate <file.terrain>")
		os.Exit(1)
	}

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress))
	if !m.Validate(args[0]) {
		fmt.Printf("%s: INVALID (%s)\n", args[0], m.LastError())
		os.Exit(1)
	}
	fmt.Printf("%s: ok\n", args[0])
}

func cmdConvert(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	noCompress := fs.Bool("no-compress", false, "Write output uncompressed")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl convert [options] <in.terrain> <out.terrain>")
		os.Exit(1)
	}

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress && !*noCompress))
	ter, err := m.Load(fs.Arg(0), progressPrinter())
	if err != nil {
		fatal(err)
	}
	if err := m.Save(ter, fs.Arg(1), progressPrinter()); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s (%d chunks)\n", fs.Arg(1), ter.ChunkCount())
}

func cmdImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	size := fs.Float64("size", 256, "Terrain width and depth in world units")
	resolution := fs.Float64("resolution", 1, "Height samples per world unit")
	chunkSize := fs.Float64("chunk-size", 64, "Chunk edge length in world units")
	heightScale := fs.Float64("height-scale", 50, "World height of a full-range sample")
	width := fs.Int("raw-width", 0, "Raw heightmap width (non-square files)")
	height := fs.Int("raw-height", 0, "Raw heightmap height (non-square files)")
	noCompress := fs.Bool("no-compress", false, "Write output uncompressed")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl import [options] <heightmap> <out.terrain>")
		os.Exit(1)
	}

	ter := terrain.New(float32(*size), float32(*size), float32(*resolution), float32(*chunkSize))

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress && !*noCompress))
	err := m.ImportHeightmap(ter, fs.Arg(0), terrainio.ImportOptions{
		HeightScale:  float32(*heightScale),
		SizeOverride: [2]int{*width, *height},
	})
	if err != nil {
		fatal(err)
	}
	if err := m.Save(ter, fs.Arg(1), progressPrinter()); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s (%d chunks)\n", fs.Arg(1), ter.ChunkCount())
}

func cmdExport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	merge := fs.Bool("merge", false, "Merge chunks into a single OBJ group")
	materials := fs.Bool("materials", false, "Write an MTL sidecar for OBJ export")
	mapSize := fs.Int("map-size", 512, "Heightmap export resolution")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl export [options] <in.terrain> <out>")
		os.Exit(1)
	}

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress))
	ter, err := m.Load(fs.Arg(0), progressPrinter())
	if err != nil {
		fatal(err)
	}

	out := fs.Arg(1)
	switch terrainio.DetectFormat(out) {
	case terrainio.FormatOBJ:
		err = m.ExportOBJ(ter, out, terrainio.ExportOBJOptions{
			MergeChunks:      *merge,
			IncludeMaterials: *materials,
		})
	case terrainio.FormatRawHeightmap:
		err = m.ExportHeightmap(ter, out, *mapSize, *mapSize)
	default:
		err = fmt.Errorf("unsupported export target: %s", out)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s\n", out)
}

func cmdGenerate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	size := fs.Float64("size", 256, "Terrain width and depth in world units")
	resolution := fs.Float64("resolution", 1, "Height samples per world unit")
	chunkSize := fs.Float64("chunk-size", 64, "Chunk edge length in world units")
	amplitude := fs.Float64("amplitude", 40, "Noise height scale")
	frequency := fs.Float64("frequency", 0.05, "Noise frequency")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainctl generate [options] <out.terrain>")
		os.Exit(1)
	}

	ter := terrain.New(float32(*size), float32(*size), float32(*resolution), float32(*chunkSize))

	b := brush.NewHeightBrush(cfg.History.MaxUndoSteps, cfg.Brush.NoiseSeed)
	b.SetSettings(cfg.Brush.Settings())
	p := b.Params()
	p.Operation = brush.OpNoise
	p.NoiseScale = float32(*amplitude)
	p.NoiseFrequency = float32(*frequency)
	b.SetParams(p)

	// One noise stroke per row; rows a brush radius apart overlap so no
	// sample is left untouched.
	s := b.Settings()
	step := s.Size * s.Spacing
	for z := float32(0); z <= float32(*size); z += s.Size {
		b.BeginStroke(ter, tsmath.Vec3{Z: z})
		for x := step; x <= float32(*size); x += step {
			b.ContinueStroke(tsmath.Vec3{X: x, Z: z})
		}
		b.EndStroke()
	}

	m := terrainio.New(managerOptions(cfg, cfg.Codec.Compress))
	if err := m.Save(ter, fs.Arg(0), progressPrinter()); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s (%d chunks)\n", fs.Arg(0), ter.ChunkCount())
}

// progressPrinter reports codec progress on one rewritten line.
func progressPrinter() formats.ProgressFunc {
	return func(fraction float32, status string) bool {
		fmt.Printf("\r%3.0f%% %-40s", fraction*100, status)
		if fraction >= 1 {
			fmt.Println()
		}
		return true
	}
}
