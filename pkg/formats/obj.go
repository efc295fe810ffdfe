package formats

import (
	"errors"
	"fmt"
	"io"
)

// OBJ export errors.
var ErrOBJBadStride = errors.New("OBJ group vertex data is not stride-8")

// objStride is floats per vertex: position, normal, UV.
const objStride = 8

// OBJGroup is one named mesh group with interleaved vertex data
// (position, normal, UV) and triangle indices into it.
type OBJGroup struct {
	Name     string
	Material string
	Vertices []float32
	Indices  []uint32
}

// OBJMaterial is one MTL sidecar entry.
type OBJMaterial struct {
	Name       string
	DiffuseMap string
}

// WriteOBJ emits Wavefront OBJ geometry. Groups share one global
// vertex numbering, as OBJ requires. mtlName, when non-empty, is
// referenced with an mtllib directive.
func WriteOBJ(w io.Writer, groups []OBJGroup, mtlName string) error {
	if mtlName != "" {
		if _, err := fmt.Fprintf(w, "mtllib %s\n", mtlName); err != nil {
			return err
		}
	}

	// Vertex records for all groups first, then faces with global
	// 1-based indices.
	for _, g := range groups {
		if len(g.Vertices)%objStride != 0 {
			return fmt.Errorf("%w: group %q", ErrOBJBadStride, g.Name)
		}
		for i := 0; i < len(g.Vertices); i += objStride {
			v := g.Vertices[i : i+objStride]
			if _, err := fmt.Fprintf(w, "v %g %g %g\n", v[0], v[1], v[2]); err != nil {
				return err
			}
		}
	}
	for _, g := range groups {
		for i := 0; i < len(g.Vertices); i += objStride {
			v := g.Vertices[i : i+objStride]
			if _, err := fmt.Fprintf(w, "vn %g %g %g\n", v[3], v[4], v[5]); err != nil {
				return err
			}
		}
	}
	for _, g := range groups {
		for i := 0; i < len(g.Vertices); i += objStride {
			v := g.Vertices[i : i+objStride]
			if _, err := fmt.Fprintf(w, "vt %g %g\n", v[6], v[7]); err != nil {
				return err
			}
		}
	}

	base := uint32(1)
	for _, g := range groups {
		if g.Name != "" {
			if _, err := fmt.Fprintf(w, "g %s\n", g.Name); err != nil {
				return err
			}
		}
		if g.Material != "" {
			if _, err := fmt.Fprintf(w, "usemtl %s\n", g.Material); err != nil {
				return err
			}
		}
		for i := 0; i+2 < len(g.Indices); i += 3 {
			a := base + g.Indices[i]
			b := base + g.Indices[i+1]
			c := base + g.Indices[i+2]
			if _, err := fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c); err != nil {
				return err
			}
		}
		base += uint32(len(g.Vertices) / objStride)
	}
	return nil
}

// WriteMTL emits the material sidecar, one material per texture layer.
func WriteMTL(w io.Writer, materials []OBJMaterial) error {
	for _, m := range materials {
		if _, err := fmt.Fprintf(w, "newmtl %s\n", m.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Kd 1 1 1\n"); err != nil {
			return err
		}
		if m.DiffuseMap != "" {
			if _, err := fmt.Fprintf(w, "map_Kd %s\n", m.DiffuseMap); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
