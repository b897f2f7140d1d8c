package formats

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/modelkit/pkg/math"
	"github.com/Faultbox/modelkit/pkg/scene"
)

// glTF codec errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported glTF asset version")
	ErrUnsupportedMode    = errors.New("primitive is not a triangle list")
	ErrNonTriangleFace    = errors.New("face is not a triangle")
	ErrMissingBoneNode    = errors.New("bone has no node of the same name")
)

// gltfVersions is the range of asset versions the codec reads.
const gltfVersions = ">= 2.0, < 3.0"

// maxInfluences is the number of joints a glTF vertex can reference.
const maxInfluences = 4

type gltfCodec struct{}

func checkAssetVersion(version string) error {
	constraint, err := semver.NewConstraint(gltfVersions)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	return nil
}

// Document index fields are typed by the gltf package; these helpers take
// plain ints.
type gltfIndex interface {
	~int | ~uint32
}

func setRef[T gltfIndex](dst **T, n int) {
	v := T(n)
	*dst = &v
}

func setIndex[T gltfIndex](dst *T, n int) {
	*dst = T(n)
}

func appendRef[T gltfIndex](dst *[]T, n int) {
	*dst = append(*dst, T(n))
}

func setAttribute[M ~map[string]T, T gltfIndex](attrs *M, name string, accessor T) {
	if *attrs == nil {
		*attrs = make(M)
	}
	(*attrs)[name] = accessor
}

func setMatrix[F ~float32 | ~float64](dst *[16]F, m math.Mat4) {
	for i, v := range m {
		dst[i] = F(v)
	}
}

// Read loads a .gltf or .glb file. Every primitive becomes its own mesh.
// The file's root nodes are placed under a RootNode unless the file has a
// single root with that name.
func (gltfCodec) Read(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	if err := checkAssetVersion(doc.Asset.Version); err != nil {
		return nil, err
	}

	r := &gltfReader{doc: doc, scene: scene.NewScene()}
	if err := r.read(); err != nil {
		return nil, err
	}
	return r.scene, nil
}

type gltfReader struct {
	doc   *gltf.Document
	scene *scene.Scene
	nodes []*scene.Node
}

func (r *gltfReader) read() error {
	r.readMaterials()

	r.nodes = make([]*scene.Node, len(r.doc.Nodes))
	hasParent := make([]bool, len(r.doc.Nodes))
	for i, gn := range r.doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node%d", i)
		}
		r.nodes[i] = scene.NewNode(name, nodeTransform(gn))
	}
	for i, gn := range r.doc.Nodes {
		for _, c := range gn.Children {
			r.nodes[i].AddChild(r.nodes[c])
			hasParent[c] = true
		}
	}

	var roots []*scene.Node
	if r.doc.Scene != nil && int(*r.doc.Scene) < len(r.doc.Scenes) {
		for _, n := range r.doc.Scenes[*r.doc.Scene].Nodes {
			roots = append(roots, r.nodes[n])
		}
	} else {
		for i, n := range r.nodes {
			if !hasParent[i] {
				roots = append(roots, n)
			}
		}
	}
	if len(roots) == 1 && roots[0].Name == scene.RootName {
		r.scene.Root = roots[0]
	} else {
		for _, n := range roots {
			r.scene.Root.AddChild(n)
		}
	}

	for i, gn := range r.doc.Nodes {
		if gn.Mesh == nil {
			continue
		}
		var skin *gltf.Skin
		if gn.Skin != nil {
			skin = r.doc.Skins[*gn.Skin]
		}
		gm := r.doc.Meshes[*gn.Mesh]
		for p, prim := range gm.Primitives {
			mesh, err := r.readPrimitive(gm.Name, prim, skin)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", gm.Name, p, err)
			}
			r.nodes[i].MeshIndices = append(r.nodes[i].MeshIndices, r.scene.AddMesh(mesh))
		}
	}
	return nil
}

func (r *gltfReader) readMaterials() {
	for _, gm := range r.doc.Materials {
		mat := &scene.Material{Name: gm.Name}
		if pbr := gm.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
			tex := r.doc.Textures[pbr.BaseColorTexture.Index]
			if tex.Source != nil {
				mat.DiffuseTexture = imagePath(r.doc.Images[*tex.Source])
			}
		}
		r.scene.AddMaterial(mat)
	}
}

// imagePath returns the file reference of an image. Embedded images are
// referred to by name.
func imagePath(img *gltf.Image) string {
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		return img.Name
	}
	if p, err := url.PathUnescape(img.URI); err == nil {
		return p
	}
	return img.URI
}

func nodeTransform(gn *gltf.Node) math.Mat4 {
	var m math.Mat4
	for i := range m {
		m[i] = float32(gn.Matrix[i])
	}
	if m != (math.Mat4{}) && m != math.Identity() {
		return m
	}

	trs := math.IdentityTRS()
	trs.Translation = math.Vec3{X: float32(gn.Translation[0]), Y: float32(gn.Translation[1]), Z: float32(gn.Translation[2])}
	if s := (math.Vec3{X: float32(gn.Scale[0]), Y: float32(gn.Scale[1]), Z: float32(gn.Scale[2])}); s != (math.Vec3{}) {
		trs.Scale = s
	}
	if q := (math.Quat{X: float32(gn.Rotation[0]), Y: float32(gn.Rotation[1]), Z: float32(gn.Rotation[2]), W: float32(gn.Rotation[3])}); q != (math.Quat{}) {
		trs.Rotation = q.Normalize()
	}
	return trs.Matrix(false)
}

func (r *gltfReader) readPrimitive(name string, prim *gltf.Primitive, skin *gltf.Skin) (*scene.Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, ErrUnsupportedMode
	}
	if extras, ok := prim.Extras.(map[string]any); ok {
		if n, ok := extras["name"].(string); ok {
			name = n
		}
	}
	mesh := &scene.Mesh{Name: name, MaterialIndex: -1}
	if prim.Material != nil {
		mesh.MaterialIndex = int(*prim.Material)
	}

	posAcc, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh, nil
	}
	positions, err := modeler.ReadPosition(r.doc, r.doc.Accessors[posAcc], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	for _, p := range positions {
		mesh.Vertices = append(mesh.Vertices, math.Vec3FromArray(p))
	}

	if acc, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(r.doc, r.doc.Accessors[acc], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		for _, n := range normals {
			mesh.Normals = append(mesh.Normals, math.Vec3FromArray(n))
		}
	}

	if acc, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(r.doc, r.doc.Accessors[acc], nil)
		if err != nil {
			return nil, fmt.Errorf("texture coordinates: %w", err)
		}
		for _, uv := range uvs {
			mesh.TexCoords = append(mesh.TexCoords, math.Vec2{X: uv[0], Y: uv[1]})
		}
	}

	if acc, ok := prim.Attributes[gltf.COLOR_0]; ok {
		colors, err := modeler.ReadColor(r.doc, r.doc.Accessors[acc], nil)
		if err != nil {
			return nil, fmt.Errorf("colors: %w", err)
		}
		for _, c := range colors {
			mesh.Colors = append(mesh.Colors, math.Vec4{
				X: float32(c[0]) / 255, Y: float32(c[1]) / 255,
				Z: float32(c[2]) / 255, W: float32(c[3]) / 255,
			})
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(r.doc, r.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		mesh.Faces = append(mesh.Faces, scene.Face{Indices: []int{int(indices[i]), int(indices[i+1]), int(indices[i+2])}})
	}

	if skin != nil {
		if err := r.readBones(mesh, prim, skin); err != nil {
			return nil, err
		}
	}
	return mesh, nil
}

func (r *gltfReader) readBones(mesh *scene.Mesh, prim *gltf.Primitive, skin *gltf.Skin) error {
	jointAcc, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightAcc, hasWeights := prim.Attributes[gltf.WEIGHTS_0]

	var inverseBind [][4][4]float32
	if skin.InverseBindMatrices != nil {
		data, err := modeler.ReadAccessor(r.doc, r.doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return fmt.Errorf("inverse bind matrices: %w", err)
		}
		inverseBind, _ = data.([][4][4]float32)
	}

	bones := make([]*scene.Bone, len(skin.Joints))
	for i, j := range skin.Joints {
		offset := math.Identity()
		if i < len(inverseBind) {
			for c := 0; c < 4; c++ {
				for row := 0; row < 4; row++ {
					offset[c*4+row] = inverseBind[i][c][row]
				}
			}
		}
		bones[i] = &scene.Bone{Name: r.nodes[j].Name, Offset: offset}
	}

	if hasJoints && hasWeights {
		joints, err := modeler.ReadJoints(r.doc, r.doc.Accessors[jointAcc], nil)
		if err != nil {
			return fmt.Errorf("joints: %w", err)
		}
		weights, err := modeler.ReadWeights(r.doc, r.doc.Accessors[weightAcc], nil)
		if err != nil {
			return fmt.Errorf("weights: %w", err)
		}
		for v := range joints {
			if v >= len(weights) {
				break
			}
			for k := 0; k < maxInfluences; k++ {
				w, j := weights[v][k], int(joints[v][k])
				if w <= 0 || j >= len(bones) {
					continue
				}
				bones[j].Weights = append(bones[j].Weights, scene.VertexWeight{VertexID: v, Weight: w})
			}
		}
	}
	mesh.Bones = bones
	return nil
}

// Write saves s as glTF 2.0, embedding buffers as data URIs for .gltf and
// as the binary chunk for .glb. Texture references are written as image
// URIs; images themselves are not copied.
func (gltfCodec) Write(s *scene.Scene, f Format, path string) error {
	w := &gltfWriter{doc: gltf.NewDocument(), scene: s, index: make(map[string]int)}
	if err := w.write(); err != nil {
		return err
	}

	var buffers []*gltf.Buffer
	for _, b := range w.doc.Buffers {
		if b.ByteLength > 0 {
			buffers = append(buffers, b)
		}
	}
	w.doc.Buffers = buffers

	if f == GLB2 {
		return gltf.SaveBinary(w.doc, path)
	}
	for _, b := range w.doc.Buffers {
		b.EmbeddedResource()
	}
	return gltf.Save(w.doc, path)
}

type gltfWriter struct {
	doc   *gltf.Document
	scene *scene.Scene
	index map[string]int // node name to first node index
}

func (w *gltfWriter) write() error {
	if len(w.doc.Scenes) == 0 {
		w.doc.Scenes = append(w.doc.Scenes, &gltf.Scene{})
		setRef(&w.doc.Scene, 0)
	}

	w.writeMaterials()
	if w.scene.Root == nil {
		return nil
	}

	type pending struct {
		node *scene.Node
		gn   *gltf.Node
	}
	var withMeshes []pending
	var add func(n *scene.Node) int
	add = func(n *scene.Node) int {
		idx := len(w.doc.Nodes)
		gn := &gltf.Node{Name: n.Name}
		if n.Transform != math.Identity() {
			setMatrix(&gn.Matrix, n.Transform)
		}
		w.doc.Nodes = append(w.doc.Nodes, gn)
		if _, ok := w.index[n.Name]; !ok {
			w.index[n.Name] = idx
		}
		if n.HasMeshes() {
			withMeshes = append(withMeshes, pending{n, gn})
		}
		for _, c := range n.Children {
			appendRef(&gn.Children, add(c))
		}
		return idx
	}
	appendRef(&w.doc.Scenes[0].Nodes, add(w.scene.Root))

	for _, p := range withMeshes {
		if err := w.writeMeshes(p.node, p.gn); err != nil {
			return fmt.Errorf("node %q: %w", p.node.Name, err)
		}
	}
	return nil
}

func (w *gltfWriter) writeMaterials() {
	for _, mat := range w.scene.Materials {
		gm := &gltf.Material{Name: mat.Name}
		if mat.DiffuseTexture != "" {
			w.doc.Images = append(w.doc.Images, &gltf.Image{Name: mat.DiffuseTexture, URI: mat.DiffuseTexture})
			tex := &gltf.Texture{}
			setRef(&tex.Source, len(w.doc.Images)-1)
			w.doc.Textures = append(w.doc.Textures, tex)

			info := &gltf.TextureInfo{}
			setIndex(&info.Index, len(w.doc.Textures)-1)
			gm.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{BaseColorTexture: info}
		}
		w.doc.Materials = append(w.doc.Materials, gm)
	}
}

func (w *gltfWriter) writeMeshes(n *scene.Node, gn *gltf.Node) error {
	// One skin per node, covering every bone of its meshes.
	var jointNames []string
	slot := make(map[string]int)
	var offsets [][4][4]float32
	for _, mi := range n.MeshIndices {
		for _, b := range w.scene.Meshes[mi].Bones {
			if _, ok := slot[b.Name]; ok {
				continue
			}
			slot[b.Name] = len(jointNames)
			jointNames = append(jointNames, b.Name)
			var m [4][4]float32
			for c := 0; c < 4; c++ {
				for row := 0; row < 4; row++ {
					m[c][row] = b.Offset[c*4+row]
				}
			}
			offsets = append(offsets, m)
		}
	}

	gm := &gltf.Mesh{}
	for k, mi := range n.MeshIndices {
		mesh := w.scene.Meshes[mi]
		if k == 0 {
			gm.Name = mesh.Name
		}
		prim, err := w.writePrimitive(mesh, slot)
		if err != nil {
			return fmt.Errorf("mesh %q: %w", mesh.Name, err)
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	w.doc.Meshes = append(w.doc.Meshes, gm)
	setRef(&gn.Mesh, len(w.doc.Meshes)-1)

	if len(jointNames) == 0 {
		return nil
	}
	skin := &gltf.Skin{Name: n.Name}
	for _, name := range jointNames {
		idx, ok := w.index[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingBoneNode, name)
		}
		appendRef(&skin.Joints, idx)
	}
	acc := modeler.WriteAccessor(w.doc, gltf.TargetNone, offsets)
	skin.InverseBindMatrices = &acc
	w.doc.Skins = append(w.doc.Skins, skin)
	setRef(&gn.Skin, len(w.doc.Skins)-1)
	return nil
}

func (w *gltfWriter) writePrimitive(mesh *scene.Mesh, slot map[string]int) (*gltf.Primitive, error) {
	prim := &gltf.Primitive{Extras: map[string]any{"name": mesh.Name}}
	if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(w.doc.Materials) {
		setRef(&prim.Material, mesh.MaterialIndex)
	}

	n := len(mesh.Vertices)
	positions := make([][3]float32, n)
	for i, v := range mesh.Vertices {
		positions[i] = v.Array()
	}
	setAttribute(&prim.Attributes, gltf.POSITION, modeler.WritePosition(w.doc, positions))

	if len(mesh.Normals) == n && n > 0 {
		normals := make([][3]float32, n)
		for i, v := range mesh.Normals {
			normals[i] = v.Array()
		}
		setAttribute(&prim.Attributes, gltf.NORMAL, modeler.WriteNormal(w.doc, normals))
	}
	if len(mesh.TexCoords) == n && n > 0 {
		uvs := make([][2]float32, n)
		for i, v := range mesh.TexCoords {
			uvs[i] = [2]float32{v.X, v.Y}
		}
		setAttribute(&prim.Attributes, gltf.TEXCOORD_0, modeler.WriteTextureCoord(w.doc, uvs))
	}
	if len(mesh.Colors) == n && n > 0 {
		colors := make([][4]uint8, n)
		for i, c := range mesh.Colors {
			colors[i] = [4]uint8{unorm8(c.X), unorm8(c.Y), unorm8(c.Z), unorm8(c.W)}
		}
		setAttribute(&prim.Attributes, gltf.COLOR_0, modeler.WriteColor(w.doc, colors))
	}

	if len(slot) > 0 && n > 0 {
		joints, weights := vertexInfluences(mesh, slot)
		setAttribute(&prim.Attributes, gltf.JOINTS_0, modeler.WriteJoints(w.doc, joints))
		setAttribute(&prim.Attributes, gltf.WEIGHTS_0, modeler.WriteWeights(w.doc, weights))
	}

	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for i, f := range mesh.Faces {
		if len(f.Indices) != 3 {
			return nil, fmt.Errorf("face %d: %w", i, ErrNonTriangleFace)
		}
		for _, v := range f.Indices {
			indices = append(indices, uint32(v))
		}
	}
	if len(indices) > 0 {
		acc := modeler.WriteIndices(w.doc, indices)
		prim.Indices = &acc
	}
	return prim, nil
}

type influence struct {
	joint  int
	weight float32
}

// vertexInfluences keeps the four strongest influences of every vertex and
// normalizes them to sum to one.
func vertexInfluences(mesh *scene.Mesh, slot map[string]int) ([][4]uint16, [][4]float32) {
	per := make([][]influence, len(mesh.Vertices))
	for _, b := range mesh.Bones {
		j := slot[b.Name]
		for _, vw := range b.Weights {
			if vw.VertexID < 0 || vw.VertexID >= len(per) || vw.Weight <= 0 {
				continue
			}
			per[vw.VertexID] = append(per[vw.VertexID], influence{j, vw.Weight})
		}
	}

	joints := make([][4]uint16, len(per))
	weights := make([][4]float32, len(per))
	for v, infl := range per {
		sort.SliceStable(infl, func(a, b int) bool { return infl[a].weight > infl[b].weight })
		if len(infl) > maxInfluences {
			infl = infl[:maxInfluences]
		}
		var sum float32
		for _, in := range infl {
			sum += in.weight
		}
		for k, in := range infl {
			joints[v][k] = uint16(in.joint)
			weights[v][k] = in.weight / sum
		}
	}
	return joints, weights
}

func unorm8(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
