package mesh

import (
	"fmt"
	"io"
	"os"

	"github.com/hschendel/stl"
)

// Solid converts a stride-5 triangle list into an STL solid. Texture
// coordinates are dropped and normals are recomputed.
func Solid(vertices []float32, name string) (*stl.Solid, error) {
	const triStride = 3 * Stride
	if len(vertices)%triStride != 0 {
		return nil, fmt.Errorf("vertex buffer length %d is not a whole number of triangles", len(vertices))
	}
	solid := &stl.Solid{Name: name}
	for i := 0; i < len(vertices); i += triStride {
		var tri stl.Triangle
		for k := 0; k < 3; k++ {
			o := i + k*Stride
			tri.Vertices[k] = stl.Vec3{vertices[o], vertices[o+1], vertices[o+2]}
		}
		solid.AppendTriangle(tri)
	}
	solid.RecalculateNormals()
	return solid, nil
}

// WriteSTL writes vertices as binary STL.
func WriteSTL(w io.Writer, vertices []float32, name string) error {
	solid, err := Solid(vertices, name)
	if err != nil {
		return err
	}
	return solid.WriteAll(w)
}

// WriteSTLFile writes vertices as a binary STL file.
func WriteSTLFile(path string, vertices []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteSTL(f, vertices, "terrain"); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
