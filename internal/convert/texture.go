package convert

import (
	"path/filepath"
	"strings"
)

// TextureExtension is appended to every imported texture reference.
const TextureExtension = ".png"

// TexturePath maps a texture reference from a scene file to the file the
// converted model uses: the reference's base name, without its extension,
// in the scene's directory, with a .png extension. Both / and \ are
// treated as separators. An empty reference stays empty.
func TexturePath(sceneDir, original string) string {
	if original == "" {
		return ""
	}
	return filepath.Join(sceneDir, textureBase(original)+TextureExtension)
}

// textureBase returns the final path element of ref without its extension.
func textureBase(ref string) string {
	if i := strings.LastIndexAny(ref, `/\`); i >= 0 {
		ref = ref[i+1:]
	}
	return strings.TrimSuffix(ref, filepath.Ext(ref))
}
