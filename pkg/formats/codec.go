package formats

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/modelkit/pkg/scene"
)

// Codec reads and writes one family of formats.
type Codec interface {
	// Read loads the file at path.
	Read(path string) (*scene.Scene, error)
	// Write saves s to path in format f.
	Write(s *scene.Scene, f Format, path string) error
}

var (
	writers = map[Format]Codec{}
	readers = map[string]Codec{} // by lower-case extension
)

// Register makes c the codec for writing the given formats and reading
// files with the given extensions.
func Register(c Codec, formats []Format, extensions []string) {
	for _, f := range formats {
		writers[f] = c
	}
	for _, ext := range extensions {
		readers[strings.ToLower(ext)] = c
	}
}

func init() {
	Register(gltfCodec{}, []Format{GLTF2, GLB2}, []string{"gltf", "glb"})
	Register(objCodec{}, []Format{OBJ, OBJNoMtl}, []string{"obj"})
	Register(stlCodec{}, []Format{STL, STLB}, []string{"stl"})
}

// CanWrite reports whether a codec is registered for f.
func CanWrite(f Format) bool {
	_, ok := writers[f]
	return ok
}

// CanRead reports whether a codec reads files with the extension of path.
func CanRead(path string) bool {
	_, ok := readers[extOf(path)]
	return ok
}

// Read loads a scene, choosing the codec from the file extension.
func Read(path string) (*scene.Scene, error) {
	c, ok := readers[extOf(path)]
	if !ok {
		return nil, fmt.Errorf("%w: reading %s", ErrUnsupportedFormat, path)
	}
	s, err := c.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// Write saves a scene in the given format.
func Write(s *scene.Scene, f Format, path string) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	c, ok := writers[f]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err := c.Write(s, f, path); err != nil {
		return fmt.Errorf("writing %s as %s: %w", path, f, err)
	}
	return nil
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
