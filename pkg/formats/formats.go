// Package formats implements the terrain file formats: the native TERR
// container, raw and image heightmaps, and Wavefront OBJ/MTL export.
// Parsers take raw bytes and return plain structs; they never touch the
// editor's live terrain state.
package formats
