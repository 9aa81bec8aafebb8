// Package ornament loads the style table that decides how each entity kind
// looks: mesh, palette and size range.
package ornament

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/particle"
)

//go:embed ornaments.yaml
var defaultTable []byte

// Style is one row of the table.
type Style struct {
	Kind     string   `yaml:"kind"`
	Mesh     string   `yaml:"mesh"`
	Weight   float32  `yaml:"weight,omitempty"`
	ScaleMin float32  `yaml:"scale_min"`
	ScaleMax float32  `yaml:"scale_max"`
	Colors   []string `yaml:"colors,omitempty"`

	kind    particle.Kind
	palette [][4]uint8
}

// Table is a parsed style table.
type Table struct {
	Styles []Style `yaml:"styles"`
}

// Default returns the embedded table.
func Default() Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("ornament: embedded table: %v", err))
	}
	return t
}

// Load reads a table from path.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("ornament: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML style table.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("ornament: %w", err)
	}
	for i := range t.Styles {
		s := &t.Styles[i]
		k, ok := particle.ParseKind(s.Kind)
		if !ok {
			return Table{}, fmt.Errorf("ornament: unknown kind %q", s.Kind)
		}
		s.kind = k
		if s.Mesh == "" {
			return Table{}, fmt.Errorf("ornament: %s: missing mesh", s.Kind)
		}
		if s.ScaleMax < s.ScaleMin {
			s.ScaleMin, s.ScaleMax = s.ScaleMax, s.ScaleMin
		}
		if len(s.Colors) == 0 {
			s.Colors = []string{"#ffffff"}
		}
		for _, c := range s.Colors {
			rgba, err := ParseHexColor(c)
			if err != nil {
				return Table{}, fmt.Errorf("ornament: %s: %w", s.Kind, err)
			}
			s.palette = append(s.palette, rgba)
		}
	}
	return t, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) ([4]uint8, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return [4]uint8{}, fmt.Errorf("bad color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return [4]uint8{}, fmt.Errorf("bad color %q", s)
	}
	return [4]uint8{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// ForKind returns the style for k.
func (t Table) ForKind(k particle.Kind) (Style, bool) {
	for _, s := range t.Styles {
		if s.kind == k {
			return s, true
		}
	}
	return Style{}, false
}

// PickOrnament chooses a tree ornament style by weight. Rows with no weight
// (dust, photo) are never picked.
func (t Table) PickOrnament(rng *rand.Rand) (Style, bool) {
	var total float32
	for _, s := range t.Styles {
		total += s.Weight
	}
	if total <= 0 {
		return Style{}, false
	}
	x := rng.Float32() * total
	for _, s := range t.Styles {
		if s.Weight <= 0 {
			continue
		}
		if x < s.Weight {
			return s, true
		}
		x -= s.Weight
	}
	for i := len(t.Styles) - 1; i >= 0; i-- {
		if t.Styles[i].Weight > 0 {
			return t.Styles[i], true
		}
	}
	return Style{}, false
}

// EntityKind returns the parsed entity kind.
func (s Style) EntityKind() particle.Kind {
	return s.kind
}

// Handle samples a colour and returns the renderable handle for this style.
func (s Style) Handle(rng *rand.Rand) particle.Handle {
	h := particle.Handle{Mesh: s.Mesh, Color: [4]uint8{255, 255, 255, 255}}
	if len(s.palette) > 0 {
		h.Color = s.palette[rng.IntN(len(s.palette))]
	}
	return h
}

// Scale samples a base scale in the style's range.
func (s Style) Scale(rng *rand.Rand) float32 {
	return s.ScaleMin + rng.Float32()*(s.ScaleMax-s.ScaleMin)
}

// Photo frame geometry in model units (before the entity scale). The photo
// itself is 1 high and aspect wide; the frame adds a border around it.
const (
	FrameBorder = 0.08
	FrameDepth  = 0.04
)

// FrameHalfExtents is the pick box of a framed photo.
func FrameHalfExtents(aspect float32) mathutil.Vec3 {
	if aspect <= 0 {
		aspect = 1
	}
	return mathutil.Vec3{aspect/2 + FrameBorder, 0.5 + FrameBorder, FrameDepth / 2}
}
