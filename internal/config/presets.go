package config

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// Template describes a starting system: fixed seed bodies, then bodies added
// through the insertion heuristic, then randomly scattered bodies.
type Template struct {
	Description string       `yaml:"description"`
	Bodies      []BodySpec   `yaml:"bodies"`
	Pair        bool         `yaml:"pair"`
	Inserts     []InsertSpec `yaml:"inserts,omitempty"`
	Scatter     ScatterSpec  `yaml:"scatter,omitempty"`
}

type BodySpec struct {
	Position [3]float64 `yaml:"position"`
	Velocity [3]float64 `yaml:"velocity"`
	Mass     float64    `yaml:"mass"`
}

type InsertSpec struct {
	Position [3]float64 `yaml:"position"`
	Class    string     `yaml:"class"`
}

type ScatterSpec struct {
	Count  int     `yaml:"count"`
	Class  string  `yaml:"class"`
	Spread float64 `yaml:"spread"`
}

func Vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// Seed returns the fixed bodies. With Pair set, the first two bodies are put
// on a mutual circular orbit under g.
func (t *Template) Seed(g float64) ([]gravity.Body, error) {
	bodies := make([]gravity.Body, len(t.Bodies))
	for i, b := range t.Bodies {
		bodies[i] = gravity.Body{Position: Vec(b.Position), Velocity: Vec(b.Velocity), Mass: b.Mass}
	}
	if t.Pair {
		if len(bodies) < 2 {
			return nil, fmt.Errorf("pair needs two bodies, template has %d", len(bodies))
		}
		a, b, err := gravity.MutualOrbit(bodies[0], bodies[1], g)
		if err != nil {
			return nil, err
		}
		bodies[0], bodies[1] = a, b
	}
	return bodies, nil
}

var binaryBodies = []BodySpec{
	{Position: [3]float64{10, 0, 0}, Mass: 1e7},
	{Position: [3]float64{-20, 0, 0}, Mass: 5e6},
}

var Presets = map[string]*Template{
	"binary": {
		Description: "two bodies in mutual orbit",
		Bodies:      binaryBodies,
		Pair:        true,
	},
	"unary": {
		Description: "a single heavy body at rest",
		Bodies:      []BodySpec{{Mass: 1e7}},
	},
	"planets": {
		Description: "a star with three planets",
		Bodies:      []BodySpec{{Mass: 1e8}},
		Inserts: []InsertSpec{
			{Position: [3]float64{25, 0, 0}, Class: "small"},
			{Position: [3]float64{0, 45, 0}, Class: "medium"},
			{Position: [3]float64{-70, 0, 0}, Class: "large"},
		},
	},
	"moon": {
		Description: "binary with a moon around the heavier body",
		Bodies:      binaryBodies,
		Pair:        true,
		Inserts: []InsertSpec{
			{Position: [3]float64{14, 0, 0}, Class: "small"},
		},
	},
	"cloud": {
		Description: "binary inside a cloud of small bodies",
		Bodies:      binaryBodies,
		Pair:        true,
		Scatter:     ScatterSpec{Count: 24, Class: "small", Spread: 70},
	},
}

// LookupTemplate resolves name against the config's own templates first,
// then the presets.
func (c *Config) LookupTemplate(name string) (*Template, error) {
	if t, ok := c.Templates[name]; ok && t != nil {
		return t, nil
	}
	if t, ok := Presets[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown template: %s (available: %v)", name, c.ListTemplates())
}

func (c *Config) ListTemplates() []string {
	names := make([]string, 0, len(Presets)+len(c.Templates))
	for name := range Presets {
		names = append(names, name)
	}
	for name := range c.Templates {
		if _, ok := Presets[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
