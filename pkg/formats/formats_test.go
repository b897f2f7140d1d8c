package formats

import (
	"errors"
	"testing"
)

func TestFormatExtension(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{Collada, "dae"},
		{FBX, "fbx"},
		{FBXA, "fbx"},
		{OBJ, "obj"},
		{OBJNoMtl, "objnomtl"},
		{STLB, "stlb"},
		{GLTF2, "gltf2"},
		{GLB, "glb"},
		{AssJSON, "assjson"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.Extension(); got != tt.want {
				t.Errorf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalogueComplete(t *testing.T) {
	all := All()
	if len(all) != 22 {
		t.Fatalf("All() returned %d formats, want 22", len(all))
	}
	seen := make(map[Format]bool)
	for _, f := range all {
		if seen[f] {
			t.Errorf("format %q listed twice", f)
		}
		seen[f] = true
		if !f.Valid() {
			t.Errorf("format %q not in catalogue", f)
		}
		if f.Description() == "" {
			t.Errorf("format %q has no description", f)
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" GLB2 ")
	if err != nil {
		t.Fatalf("ParseFormat() error = %v", err)
	}
	if f != GLB2 {
		t.Errorf("ParseFormat() = %q, want %q", f, GLB2)
	}

	if _, err := ParseFormat("3ds"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(3ds) error = %v, want ErrUnknownFormat", err)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"scene.dae", Collada, false},
		{"hero.FBX", FBX, false},
		{"a/b/mesh.obj", OBJ, false},
		{"mesh.gltf", GLTF2, false},
		{"mesh.glb", GLB2, false},
		{"part.stl", STL, false},
		{"cloud.ply", PLY, false},
		{"image.png", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatForPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatForPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSchemaVersion(t *testing.T) {
	tests := map[Format]string{
		GLTF:  "1.0",
		GLB:   "1.0",
		GLTF2: "2.0",
		GLB2:  "2.0",
		OBJ:   "",
	}
	for f, want := range tests {
		if got := f.SchemaVersion(); got != want {
			t.Errorf("%s.SchemaVersion() = %q, want %q", f, got, want)
		}
	}
}

func TestWriteWithoutCodec(t *testing.T) {
	err := Write(nil, Collada, t.TempDir()+"/out.dae")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Write(collada) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Read("model.fbx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Read(fbx) error = %v, want ErrUnsupportedFormat", err)
	}
	if !CanWrite(GLB2) || CanWrite(PLY) {
		t.Error("CanWrite() does not match the registered codecs")
	}
}
