package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/modelkit/pkg/math"
	"github.com/Faultbox/modelkit/pkg/scene"
)

// ErrMalformedOBJ is returned for OBJ statements that cannot be parsed.
var ErrMalformedOBJ = errors.New("malformed OBJ statement")

type objCodec struct{}

var white = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}

// objKey identifies a unique position/uv/normal combination.
type objKey struct {
	v, vt, vn int
}

type objReader struct {
	dir       string
	scene     *scene.Scene
	positions []math.Vec3
	colors    []math.Vec4
	uvs       []math.Vec2
	normals   []math.Vec3
	materials map[string]int

	mesh   *scene.Mesh
	remap  map[objKey]int
	object string
}

// Read loads a Wavefront OBJ file and the material libraries it names.
// Every object, group or material switch starts a new mesh under its own
// node. Polygons keep their arity.
func (objCodec) Read(path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := &objReader{
		dir:       filepath.Dir(path),
		scene:     scene.NewScene(),
		materials: make(map[string]int),
		object:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	if err := r.read(f); err != nil {
		return nil, err
	}
	// Attributes only some face references supplied are dropped.
	for _, m := range r.scene.Meshes {
		if len(m.TexCoords) != len(m.Vertices) {
			m.TexCoords = nil
		}
		if len(m.Normals) != len(m.Vertices) {
			m.Normals = nil
		}
		if len(m.Colors) != len(m.Vertices) {
			m.Colors = nil
		}
	}
	return r.scene, nil
}

func (r *objReader) read(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	material := -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		args := fields[1:]

		var err error
		switch fields[0] {
		case "v":
			err = r.vertex(args)
		case "vt":
			var f []float32
			if f, err = parseFloats(args, 1); err == nil {
				uv := math.Vec2{X: f[0]}
				if len(f) > 1 {
					uv.Y = f[1]
				}
				r.uvs = append(r.uvs, uv)
			}
		case "vn":
			var f []float32
			if f, err = parseFloats(args, 3); err == nil {
				r.normals = append(r.normals, math.Vec3{X: f[0], Y: f[1], Z: f[2]})
			}
		case "f":
			err = r.face(args, material)
		case "o", "g":
			if len(args) > 0 {
				r.object = strings.Join(args, " ")
			}
			r.mesh = nil
		case "usemtl":
			name := strings.Join(args, " ")
			idx, ok := r.materials[name]
			if !ok {
				idx = r.scene.AddMaterial(&scene.Material{Name: name})
				r.materials[name] = idx
			}
			material = idx
			r.mesh = nil
		case "mtllib":
			for _, lib := range args {
				if err = r.readMaterialLibrary(filepath.Join(r.dir, lib)); err != nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func (r *objReader) vertex(args []string) error {
	f, err := parseFloats(args, 3)
	if err != nil {
		return err
	}
	// Some exporters append an RGB color to the position.
	if len(f) >= 6 {
		for len(r.colors) < len(r.positions) {
			r.colors = append(r.colors, white)
		}
		r.colors = append(r.colors, math.Vec4{X: f[3], Y: f[4], Z: f[5], W: 1})
	}
	r.positions = append(r.positions, math.Vec3{X: f[0], Y: f[1], Z: f[2]})
	return nil
}

func (r *objReader) currentMesh(material int) *scene.Mesh {
	if r.mesh != nil {
		return r.mesh
	}
	r.mesh = &scene.Mesh{Name: r.object, MaterialIndex: material}
	r.remap = make(map[objKey]int)
	node := r.scene.Root.AddChild(scene.NewNode(r.object, math.Identity()))
	node.MeshIndices = append(node.MeshIndices, r.scene.AddMesh(r.mesh))
	return r.mesh
}

func (r *objReader) face(args []string, material int) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: empty face", ErrMalformedOBJ)
	}
	mesh := r.currentMesh(material)
	face := scene.Face{Indices: make([]int, 0, len(args))}
	for _, ref := range args {
		key, err := r.parseRef(ref)
		if err != nil {
			return err
		}
		idx, ok := r.remap[key]
		if !ok {
			idx = len(mesh.Vertices)
			r.remap[key] = idx
			mesh.Vertices = append(mesh.Vertices, r.positions[key.v])
			if len(r.colors) > 0 {
				c := white
				if key.v < len(r.colors) {
					c = r.colors[key.v]
				}
				mesh.Colors = append(mesh.Colors, c)
			}
			if key.vt >= 0 {
				mesh.TexCoords = append(mesh.TexCoords, r.uvs[key.vt])
			}
			if key.vn >= 0 {
				mesh.Normals = append(mesh.Normals, r.normals[key.vn])
			}
		}
		face.Indices = append(face.Indices, idx)
	}
	mesh.Faces = append(mesh.Faces, face)
	return nil
}

// parseRef parses v, v/vt, v//vn or v/vt/vn into zero-based indices, -1
// for an absent attribute. Negative references count back from the end.
func (r *objReader) parseRef(ref string) (objKey, error) {
	parts := strings.Split(ref, "/")
	key := objKey{v: -1, vt: -1, vn: -1}
	lists := []struct {
		dst *int
		n   int
	}{{&key.v, len(r.positions)}, {&key.vt, len(r.uvs)}, {&key.vn, len(r.normals)}}
	for i, p := range parts {
		if i >= len(lists) || p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return key, fmt.Errorf("%w: face reference %q", ErrMalformedOBJ, ref)
		}
		if n < 0 {
			n = lists[i].n + n
		} else {
			n--
		}
		if n < 0 || n >= lists[i].n {
			return key, fmt.Errorf("%w: face reference %q out of range", ErrMalformedOBJ, ref)
		}
		*lists[i].dst = n
	}
	if key.v < 0 {
		return key, fmt.Errorf("%w: face reference %q has no position", ErrMalformedOBJ, ref)
	}
	return key, nil
}

// readMaterialLibrary loads newmtl and map_Kd statements. A missing library
// is not an error; the materials keep their names without textures.
func (r *objReader) readMaterialLibrary(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	var current *scene.Material
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value := strings.Join(fields[1:], " ")
		switch fields[0] {
		case "newmtl":
			idx, ok := r.materials[value]
			if !ok {
				idx = r.scene.AddMaterial(&scene.Material{Name: value})
				r.materials[value] = idx
			}
			current = r.scene.Materials[idx]
		case "map_Kd":
			if current != nil {
				// Options such as -s or -o precede the file name.
				current.DiffuseTexture = fields[len(fields)-1]
			}
		}
	}
	return scanner.Err()
}

func parseFloats(args []string, want int) ([]float32, error) {
	if len(args) < want {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrMalformedOBJ, want, len(args))
	}
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedOBJ, a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// Write saves s as OBJ. Vertices are baked into scene space since OBJ has
// no node hierarchy, and bones are dropped. Format OBJ also writes a .mtl
// library next to the file.
func (objCodec) Write(s *scene.Scene, f Format, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	withMtl := f == OBJ && len(s.Materials) > 0
	if withMtl {
		fmt.Fprintf(w, "mtllib %s.mtl\n", base)
	}

	var nv, nvt, nvn int
	var werr error
	s.Walk(func(n *scene.Node) bool {
		if werr != nil {
			return false
		}
		global := n.GlobalTransform()
		for _, mi := range n.MeshIndices {
			mesh := s.Meshes[mi]
			if werr = writeOBJMesh(w, s, mesh, global, withMtl, nv, nvt, nvn); werr != nil {
				return false
			}
			nv += len(mesh.Vertices)
			if len(mesh.TexCoords) == len(mesh.Vertices) {
				nvt += len(mesh.TexCoords)
			}
			if len(mesh.Normals) == len(mesh.Vertices) {
				nvn += len(mesh.Normals)
			}
		}
		return true
	})
	if werr != nil {
		return werr
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if withMtl {
		return writeMTL(filepath.Join(filepath.Dir(path), base+".mtl"), s.Materials)
	}
	return nil
}

func writeOBJMesh(w io.Writer, s *scene.Scene, mesh *scene.Mesh, global math.Mat4, withMtl bool, nv, nvt, nvn int) error {
	n := len(mesh.Vertices)
	hasUV := n > 0 && len(mesh.TexCoords) == n
	hasNormal := n > 0 && len(mesh.Normals) == n
	hasColor := n > 0 && len(mesh.Colors) == n

	fmt.Fprintf(w, "o %s\n", mesh.Name)
	if withMtl && mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(s.Materials) {
		fmt.Fprintf(w, "usemtl %s\n", s.Materials[mesh.MaterialIndex].Name)
	}
	for i, v := range mesh.Vertices {
		p := global.TransformPoint(v)
		if hasColor {
			c := mesh.Colors[i]
			fmt.Fprintf(w, "v %g %g %g %g %g %g\n", p.X, p.Y, p.Z, c.X, c.Y, c.Z)
		} else {
			fmt.Fprintf(w, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
	}
	if hasUV {
		for _, uv := range mesh.TexCoords {
			fmt.Fprintf(w, "vt %g %g\n", uv.X, uv.Y)
		}
	}
	if hasNormal {
		for _, nm := range mesh.Normals {
			d := global.TransformDirection(nm).Normalize()
			fmt.Fprintf(w, "vn %g %g %g\n", d.X, d.Y, d.Z)
		}
	}

	for i, f := range mesh.Faces {
		if len(f.Indices) < 3 {
			return fmt.Errorf("mesh %q face %d: %w", mesh.Name, i, ErrNonTriangleFace)
		}
		refs := make([]string, len(f.Indices))
		for k, idx := range f.Indices {
			if idx < 0 || idx >= n {
				return fmt.Errorf("mesh %q face %d: vertex %d out of range", mesh.Name, i, idx)
			}
			switch {
			case hasUV && hasNormal:
				refs[k] = fmt.Sprintf("%d/%d/%d", nv+idx+1, nvt+idx+1, nvn+idx+1)
			case hasUV:
				refs[k] = fmt.Sprintf("%d/%d", nv+idx+1, nvt+idx+1)
			case hasNormal:
				refs[k] = fmt.Sprintf("%d//%d", nv+idx+1, nvn+idx+1)
			default:
				refs[k] = strconv.Itoa(nv + idx + 1)
			}
		}
		fmt.Fprintf(w, "f %s\n", strings.Join(refs, " "))
	}
	return nil
}

func writeMTL(path string, materials []*scene.Material) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, m := range materials {
		fmt.Fprintf(w, "newmtl %s\n", m.Name)
		fmt.Fprintln(w, "Kd 1 1 1")
		if m.DiffuseTexture != "" {
			fmt.Fprintf(w, "map_Kd %s\n", m.DiffuseTexture)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
