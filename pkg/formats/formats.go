// Package formats catalogues the interchange formats models can be exported
// to and provides codecs that read and write scene graphs.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format errors.
var (
	ErrUnknownFormat     = errors.New("unknown format")
	ErrUnsupportedFormat = errors.New("no codec for format")
)

// Format identifies an interchange format by its short id.
type Format string

// Known formats.
const (
	Collada  Format = "collada"
	FBX      Format = "fbx"
	FBXA     Format = "fbxa"
	OBJ      Format = "obj"
	X        Format = "x"
	STP      Format = "stp"
	OBJNoMtl Format = "objnomtl"
	STL      Format = "stl"
	STLB     Format = "stlb"
	PLY      Format = "ply"
	PLYB     Format = "plyb"
	GLTF2    Format = "gltf2"
	GLB2     Format = "glb2"
	GLTF     Format = "gltf"
	GLB      Format = "glb"
	AssBin   Format = "assbin"
	AssXML   Format = "assxml"
	X3D      Format = "x3d"
	M3D      Format = "m3d"
	M3DA     Format = "m3da"
	PBRT     Format = "pbrt"
	AssJSON  Format = "assjson"
)

type formatInfo struct {
	description string
	schema      string
}

var catalogue = map[Format]formatInfo{
	Collada:  {"COLLADA - Digital Asset Exchange Schema", ""},
	FBX:      {"Autodesk FBX (binary)", ""},
	FBXA:     {"Autodesk FBX (ascii)", ""},
	OBJ:      {"Wavefront OBJ format", ""},
	X:        {"X Files", ""},
	STP:      {"Step Files", ""},
	OBJNoMtl: {"Wavefront OBJ format without material file", ""},
	STL:      {"Stereolithography", ""},
	STLB:     {"Stereolithography (binary)", ""},
	PLY:      {"Stanford Polygon Library", ""},
	PLYB:     {"Stanford Polygon Library (binary)", ""},
	GLTF2:    {"GL Transmission Format v. 2", "2.0"},
	GLB2:     {"GL Transmission Format v. 2 (binary)", "2.0"},
	GLTF:     {"GL Transmission Format", "1.0"},
	GLB:      {"GL Transmission Format (binary)", "1.0"},
	AssBin:   {"Asset Importer Binary", ""},
	AssXML:   {"Asset Importer XML", ""},
	X3D:      {"Extensible 3D", ""},
	M3D:      {"Model 3D (binary)", ""},
	M3DA:     {"Model 3D (ascii)", ""},
	PBRT:     {"pbrt-v4 scene description file", ""},
	AssJSON:  {"Asset Importer JSON", ""},
}

// order is the catalogue's listing order: common formats first.
var order = []Format{
	Collada, FBX, FBXA, OBJ,
	X, STP, OBJNoMtl, STL, STLB, PLY, PLYB, GLTF2, GLB2, GLTF, GLB,
	AssBin, AssXML, X3D, M3D, M3DA, PBRT, AssJSON,
}

// All returns every known format in listing order.
func All() []Format {
	return append([]Format(nil), order...)
}

// ParseFormat returns the format with the given id. Ids are case-insensitive.
func ParseFormat(id string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(id)))
	if _, ok := catalogue[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	return f, nil
}

// FormatForPath picks the format for a file extension. Extensions that are
// not a format id themselves map to Collada (.dae), binary FBX (.fbx) and
// glTF 2 (.gltf, .glb).
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "dae":
		return Collada, nil
	case "gltf":
		return GLTF2, nil
	case "glb":
		return GLB2, nil
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
	}
	return f, nil
}

// String returns the format id.
func (f Format) String() string {
	return string(f)
}

// Description returns a human-readable name.
func (f Format) Description() string {
	return catalogue[f].description
}

// Extension returns the file extension without the leading dot. Formats
// other than Collada and FBX use their id.
func (f Format) Extension() string {
	switch f {
	case Collada:
		return "dae"
	case FBX, FBXA:
		return "fbx"
	default:
		return string(f)
	}
}

// SchemaVersion returns the schema version the format writes, or "" when
// the format has none.
func (f Format) SchemaVersion() string {
	return catalogue[f].schema
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := catalogue[f]
	return ok
}
