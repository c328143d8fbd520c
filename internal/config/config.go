// Package config loads constellation definitions from YAML and builds the
// corresponding deciders.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeongseonghan/constel/constellation"
)

// Point is one complex constellation point.
type Point struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

// Decider selects and parameterizes the hard-decision strategy.
type Decider struct {
	// Type is one of "nearest", "rect", "explicit-rect", "psk".
	Type string `yaml:"type"`

	// Rectangular sector geometry.
	RealSectors int     `yaml:"realSectors"`
	ImagSectors int     `yaml:"imagSectors"`
	WidthReal   float64 `yaml:"widthReal"`
	WidthImag   float64 `yaml:"widthImag"`

	// Explicit sector-to-symbol table for "explicit-rect".
	SectorValues []int `yaml:"sectorValues"`

	// Angular sector count for "psk".
	Sectors int `yaml:"sectors"`
}

// SoftDecision parameterizes LLR computation.
type SoftDecision struct {
	NoisePower float64 `yaml:"noisePower"`
	Precision  int     `yaml:"precision"`
}

// Constellation is a complete constellation definition. Either Builtin names
// a registered closed-form variant, or Points describes a custom layout.
type Constellation struct {
	Name    string `yaml:"name"`
	Builtin string `yaml:"builtin"`

	Points             []Point `yaml:"points"`
	PreDiffCode        []int   `yaml:"preDiffCode"`
	RotationalSymmetry int     `yaml:"rotationalSymmetry"`
	Dimensionality     int     `yaml:"dimensionality"`

	Decider      Decider      `yaml:"decider"`
	SoftDecision SoftDecision `yaml:"softDecision"`
}

// Load reads a constellation definition from a YAML file.
func Load(path string) (*Constellation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a constellation definition from YAML bytes and applies
// defaults: dimensionality 1, nearest-point decision, noise power 1.
func Parse(data []byte) (*Constellation, error) {
	var c Constellation
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if c.Builtin == "" && len(c.Points) == 0 {
		return nil, fmt.Errorf("config: either builtin or points must be set")
	}
	if c.Builtin != "" && len(c.Points) > 0 {
		return nil, fmt.Errorf("config: builtin and points are mutually exclusive")
	}
	if c.Dimensionality == 0 {
		c.Dimensionality = 1
	}
	if c.Decider.Type == "" {
		c.Decider.Type = "nearest"
	}
	if c.SoftDecision.NoisePower == 0 {
		c.SoftDecision.NoisePower = 1
	}
	return &c, nil
}

// PointSet builds the point set for a custom definition. Builtin definitions
// take their point set from the built decider instead.
func (c *Constellation) PointSet() (*constellation.PointSet, error) {
	points := make([]complex128, len(c.Points))
	for i, p := range c.Points {
		points[i] = complex(p.Re, p.Im)
	}
	return constellation.NewPointSet(points, c.PreDiffCode, c.RotationalSymmetry, c.Dimensionality)
}

// Build constructs the configured decider.
func (c *Constellation) Build() (constellation.Decider, error) {
	if c.Builtin != "" {
		return constellation.NewDeciderByName(c.Builtin)
	}

	ps, err := c.PointSet()
	if err != nil {
		return nil, err
	}

	switch c.Decider.Type {
	case "nearest":
		return constellation.NewNearestPoint(ps), nil
	case "rect":
		return constellation.NewRectSectors(ps,
			c.Decider.RealSectors, c.Decider.ImagSectors,
			c.Decider.WidthReal, c.Decider.WidthImag)
	case "explicit-rect":
		return constellation.NewExplicitRectSectors(ps,
			c.Decider.RealSectors, c.Decider.ImagSectors,
			c.Decider.WidthReal, c.Decider.WidthImag,
			c.Decider.SectorValues)
	case "psk":
		return constellation.NewPSKSectors(ps, c.Decider.Sectors)
	default:
		return nil, fmt.Errorf("config: unknown decider type %q", c.Decider.Type)
	}
}

// BuildSoftDecider constructs a soft decider over the same point set,
// generating a lookup table when a precision is configured.
func (c *Constellation) BuildSoftDecider() (*constellation.SoftDecider, error) {
	d, err := c.Build()
	if err != nil {
		return nil, err
	}
	sd := constellation.NewSoftDecider(d.PointSet(), c.SoftDecision.NoisePower)
	if c.SoftDecision.Precision > 0 {
		sd.Generate(c.SoftDecision.Precision)
	}
	return sd, nil
}
