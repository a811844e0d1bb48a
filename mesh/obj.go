package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const blanks = "\r\n\t "

// Load reads a Wavefront OBJ file. A material library it names is read from
// the same directory; failing to read it is recorded in Mesh.MaterialErr and
// does not fail the load.
func Load(path string, flipUVs bool) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(f, filepath.Dir(path), flipUVs)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Decode parses OBJ data. dir resolves mtllib and texture paths.
// Polygons are fanned into triangles; missing normals are computed.
func Decode(r io.Reader, dir string, flipUVs bool) (*Mesh, error) {
	dec := &decoder{
		dir:      dir,
		flipUVs:  flipUVs,
		mesh:     &Mesh{},
		vertexOf: make(map[[3]int]uint32),
		material: -1,
	}
	if err := dec.parse(r, dec.parseObjLine); err != nil {
		return nil, err
	}
	if len(dec.mesh.Indices) == 0 {
		return nil, ErrNoVertices
	}

	dec.resolveMaterials()
	if !dec.mesh.HasNormals {
		dec.mesh.computeNormals()
	}
	return dec.mesh, nil
}

type decoder struct {
	dir     string
	flipUVs bool
	mesh    *Mesh

	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2

	// (position, uv, normal) index triple to render vertex
	vertexOf map[[3]int]uint32
	// usemtl names in order of appearance; FaceMaterials indexes them until
	// resolveMaterials maps them onto the library
	materialNames []string
	material      int

	line uint
}

func (dec *decoder) parse(reader io.Reader, parseLine func(string) error) error {
	bufin := bufio.NewReader(reader)
	dec.line = 1
	for {
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if perr := parseLine(strings.Trim(line, blanks)); perr != nil {
			return perr
		}
		if err == io.EOF {
			break
		}
		dec.line++
	}
	return nil
}

func (dec *decoder) parseObjLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "mtllib":
		if len(fields) < 2 {
			return dec.formatError("mtllib with no name")
		}
		dec.mesh.MaterialLib = filepath.Join(dec.dir, strings.Join(fields[1:], " "))
	case "o", "g":
		// objects and groups are merged into one mesh; the first name wins
		if dec.mesh.Name == "" && len(fields) > 1 {
			dec.mesh.Name = fields[1]
		}
	case "v":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.positions = append(dec.positions, mgl32.Vec3{v[0], v[1], v[2]})
	case "vn":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.normals = append(dec.normals, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := dec.parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		if dec.flipUVs {
			v[1] = 1 - v[1]
		}
		dec.uvs = append(dec.uvs, mgl32.Vec2{v[0], v[1]})
	case "f":
		return dec.parseFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return dec.formatError("usemtl with no name")
		}
		dec.material = dec.materialIndex(fields[1])
	}
	return nil
}

func (dec *decoder) parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, dec.formatError(fmt.Sprintf("expected %d values, got %d", n, len(fields)))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		val, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, dec.formatError(err.Error())
		}
		out[i] = float32(val)
	}
	return out, nil
}

// parseFace reads v, v/vt, v//vn or v/vt/vn corners and fans them
func (dec *decoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return dec.formatError("face with less than 3 corners")
	}

	corners := make([]uint32, len(fields))
	for pos, f := range fields {
		parts := strings.Split(f, "/")
		key := [3]int{-1, -1, -1}
		lists := [3]int{len(dec.positions), len(dec.uvs), len(dec.normals)}
		for i := 0; i < len(parts) && i < 3; i++ {
			if parts[i] == "" {
				if i == 0 {
					return dec.formatError("face corner with no vertex index")
				}
				continue
			}
			idx, err := dec.resolveIndex(parts[i], lists[i])
			if err != nil {
				return err
			}
			key[i] = idx
		}
		corners[pos] = dec.vertex(key)
	}

	for i := 1; i+1 < len(corners); i++ {
		dec.mesh.Indices = append(dec.mesh.Indices, corners[0], corners[i], corners[i+1])
		dec.mesh.FaceMaterials = append(dec.mesh.FaceMaterials, dec.material)
	}
	return nil
}

// resolveIndex converts a 1-based or negative (relative to the end) index
func (dec *decoder) resolveIndex(field string, count int) (int, error) {
	val, err := strconv.Atoi(field)
	if err != nil {
		return 0, dec.formatError(err.Error())
	}
	var idx int
	switch {
	case val > 0:
		idx = val - 1
	case val < 0:
		idx = count + val
	default:
		return 0, dec.formatError("index value equal to 0")
	}
	if idx < 0 || idx >= count {
		return 0, dec.formatError(fmt.Sprintf("index %d out of range", val))
	}
	return idx, nil
}

func (dec *decoder) vertex(key [3]int) uint32 {
	if idx, ok := dec.vertexOf[key]; ok {
		return idx
	}
	v := Vertex{Position: dec.positions[key[0]]}
	if key[1] >= 0 {
		v.UV = dec.uvs[key[1]]
		dec.mesh.HasUVs = true
	}
	if key[2] >= 0 {
		v.Normal = dec.normals[key[2]]
		dec.mesh.HasNormals = true
	}
	idx := uint32(len(dec.mesh.Vertices))
	dec.mesh.Vertices = append(dec.mesh.Vertices, v)
	dec.vertexOf[key] = idx
	return idx
}

func (dec *decoder) materialIndex(name string) int {
	for i, n := range dec.materialNames {
		if n == name {
			return i
		}
	}
	dec.materialNames = append(dec.materialNames, name)
	return len(dec.materialNames) - 1
}

// resolveMaterials reads the material library and maps every usemtl name
// onto it. Names missing from the library keep a default material.
func (dec *decoder) resolveMaterials() {
	if len(dec.materialNames) == 0 && dec.mesh.MaterialLib == "" {
		return
	}

	library := map[string]Material{}
	if dec.mesh.MaterialLib != "" {
		lib, err := LoadMaterials(dec.mesh.MaterialLib)
		if err != nil {
			dec.mesh.MaterialErr = err
		}
		for _, mat := range lib {
			library[mat.Name] = mat
		}
	}

	dec.mesh.Materials = make([]Material, len(dec.materialNames))
	for i, name := range dec.materialNames {
		mat, ok := library[name]
		if !ok {
			mat = DefaultMaterial(name)
		}
		dec.mesh.Materials[i] = mat
	}
}

func (dec *decoder) formatError(msg string) error {
	return fmt.Errorf("%s in line:%d", msg, dec.line)
}

// DefaultMaterial is a plain light grey
func DefaultMaterial(name string) Material {
	return Material{Name: name, Diffuse: mgl32.Vec3{0.8, 0.8, 0.8}}
}

// LoadMaterials reads an MTL file. Only newmtl, Kd and map_Kd are used.
func LoadMaterials(path string) ([]Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: material library: %w", err)
	}
	defer f.Close()

	dec := &decoder{dir: filepath.Dir(path)}
	var materials []Material
	err = dec.parse(f, func(line string) error {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			return nil
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return dec.formatError("newmtl with no name")
			}
			materials = append(materials, DefaultMaterial(fields[1]))
			return nil
		}
		if len(materials) == 0 {
			return nil
		}
		current := &materials[len(materials)-1]
		switch fields[0] {
		case "Kd":
			v, err := dec.parseFloats(fields[1:], 3)
			if err != nil {
				return err
			}
			current.Diffuse = mgl32.Vec3{v[0], v[1], v[2]}
		case "map_Kd":
			if len(fields) < 2 {
				return dec.formatError("map_Kd with no file")
			}
			// options such as -bm come first, the file name is last
			current.Texture = filepath.Join(dec.dir, fields[len(fields)-1])
		}
		return nil
	})
	if err != nil {
		return materials, fmt.Errorf("mesh: material library %s: %w", path, err)
	}
	return materials, nil
}
