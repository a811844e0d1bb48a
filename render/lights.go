package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the default capacity of a light set
const MaxLights = 8

const shininess = 16

var (
	// ErrNoLight is returned for an index that holds no light
	ErrNoLight = errors.New("render: no such light")
	// ErrLightsFull is returned by Add when every slot is taken
	ErrLightsFull = errors.New("render: light set full")
)

// Light is a point light in world space
type Light struct {
	Position mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
	Ambient  mgl32.Vec3
}

// Lights is a bounded set of point lights. Add hands out a stable index;
// removed indices are recycled oldest first. The lights themselves stay
// packed in insertion order.
type Lights struct {
	lights []Light
	// slot index -> position in lights, -1 when free
	slots []int
	free  []int
}

// NewLights makes a set holding at most capacity lights
func NewLights(capacity int) *Lights {
	capacity = max(capacity, 0)
	l := &Lights{slots: make([]int, capacity), free: make([]int, capacity)}
	for i := range l.slots {
		l.slots[i] = -1
		l.free[i] = i
	}
	return l
}

// Add stores light and returns its index
func (l *Lights) Add(light Light) (int, error) {
	if len(l.free) == 0 {
		return -1, ErrLightsFull
	}
	idx := l.free[0]
	l.free = l.free[1:]
	l.slots[idx] = len(l.lights)
	l.lights = append(l.lights, light)
	return idx, nil
}

// Remove frees index idx for a later Add
func (l *Lights) Remove(idx int) error {
	pos, err := l.position(idx)
	if err != nil {
		return err
	}
	l.lights = append(l.lights[:pos], l.lights[pos+1:]...)
	for i, p := range l.slots {
		if p > pos {
			l.slots[i] = p - 1
		}
	}
	l.slots[idx] = -1
	l.free = append(l.free, idx)
	return nil
}

func (l *Lights) position(idx int) (int, error) {
	if idx < 0 || idx >= len(l.slots) || l.slots[idx] < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNoLight, idx)
	}
	return l.slots[idx], nil
}

// Set replaces the light at idx
func (l *Lights) Set(idx int, light Light) error {
	return l.update(idx, func(dst *Light) { *dst = light })
}

func (l *Lights) SetPosition(idx int, position mgl32.Vec3) error {
	return l.update(idx, func(dst *Light) { dst.Position = position })
}

func (l *Lights) SetDiffuse(idx int, diffuse mgl32.Vec3) error {
	return l.update(idx, func(dst *Light) { dst.Diffuse = diffuse })
}

func (l *Lights) SetSpecular(idx int, specular mgl32.Vec3) error {
	return l.update(idx, func(dst *Light) { dst.Specular = specular })
}

func (l *Lights) SetAmbient(idx int, ambient mgl32.Vec3) error {
	return l.update(idx, func(dst *Light) { dst.Ambient = ambient })
}

func (l *Lights) update(idx int, fn func(*Light)) error {
	pos, err := l.position(idx)
	if err != nil {
		return err
	}
	fn(&l.lights[pos])
	return nil
}

// Get returns the light at idx
func (l *Lights) Get(idx int) (Light, bool) {
	pos, err := l.position(idx)
	if err != nil {
		return Light{}, false
	}
	return l.lights[pos], true
}

func (l *Lights) Exists(idx int) bool {
	_, err := l.position(idx)
	return err == nil
}

func (l *Lights) Len() int {
	return len(l.lights)
}

// ViewSpace returns a copy of the lights with positions moved into eye
// coordinates by view
func (l *Lights) ViewSpace(view mgl32.Mat4) []Light {
	out := make([]Light, len(l.lights))
	for i, light := range l.lights {
		light.Position = mgl32.TransformCoordinate(light.Position, view)
		out[i] = light
	}
	return out
}

// phong lights a surface point given in eye coordinates. It returns the lit
// colour and the brightness used to pick a shade glyph.
func phong(lights []Light, point, normal, base mgl32.Vec3) (mgl32.Vec3, float32) {
	toEye := point.Mul(-1)
	if toEye.Len() > 1e-6 {
		toEye = toEye.Normalize()
	}

	var color mgl32.Vec3
	var brightness float32
	for _, light := range lights {
		toLight := light.Position.Sub(point)
		if toLight.Len() > 1e-6 {
			toLight = toLight.Normalize()
		}
		diffuse := max(0, normal.Dot(toLight))
		var specular float32
		if diffuse > 0 {
			reflected := normal.Mul(2 * normal.Dot(toLight)).Sub(toLight)
			specular = float32(math.Pow(float64(max(0, reflected.Dot(toEye))), shininess))
		}

		lit := light.Ambient.Add(light.Diffuse.Mul(diffuse))
		color = color.Add(mulVec(lit, base)).Add(light.Specular.Mul(specular))
		brightness += luma(light.Ambient) + luma(light.Diffuse)*diffuse + luma(light.Specular)*specular
	}
	return color, min(brightness, 1)
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func luma(c mgl32.Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
