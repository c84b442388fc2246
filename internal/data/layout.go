package data

import (
	"fmt"
	"os"

	"github.com/hvz-game/server/internal/geom"
	"gopkg.in/yaml.v3"
)

// Point is a YAML-friendly position.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Vec() geom.Vec { return geom.Vec{X: p.X, Y: p.Y} }

// DuctPair links two duct openings.
type DuctPair struct {
	A Point `yaml:"a"`
	B Point `yaml:"b"`
}

// FurnitureSpawn places a movable object.
type FurnitureSpawn struct {
	Kind string    `yaml:"kind"`
	Rect geom.Rect `yaml:",inline"`
	Mass float64   `yaml:"mass"`
}

// GroundSpawn places an item on the ground at round start.
type GroundSpawn struct {
	Item string  `yaml:"item"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Layout is the static map geometry.
type Layout struct {
	Width       float64          `yaml:"width"`
	Height      float64          `yaml:"height"`
	Sea         geom.Rect        `yaml:"sea"`
	Sand        []geom.Rect      `yaml:"sand"`
	Hazards     []geom.Rect      `yaml:"hazards"`
	Walls       []geom.Rect      `yaml:"walls"`
	Shade       []geom.Rect      `yaml:"shade"`
	Ducts       []DuctPair       `yaml:"ducts"`
	HidingSpots []Point          `yaml:"hiding_spots"`
	Furniture   []FurnitureSpawn `yaml:"furniture"`
	Sharks      []Point          `yaml:"sharks"`
	Ground      []GroundSpawn    `yaml:"ground_items"`
	Spawn       geom.Rect        `yaml:"spawn"`
}

// Center is the world mid point, used as the safe reset position.
func (l *Layout) Center() geom.Vec {
	return geom.Vec{X: l.Width / 2, Y: l.Height / 2}
}

// LoadLayout reads map.yaml.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	l, err := ParseLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	return l, nil
}

// ParseLayout decodes layout YAML and validates bounds.
func ParseLayout(raw []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	if l.Width <= 0 || l.Height <= 0 {
		return nil, fmt.Errorf("map size %.0fx%.0f is invalid", l.Width, l.Height)
	}
	if l.Spawn.W <= 0 || l.Spawn.H <= 0 {
		l.Spawn = geom.Rect{X: 0, Y: 0, W: l.Width, H: l.Height}
	}
	for i, f := range l.Furniture {
		if f.Mass <= 0 {
			l.Furniture[i].Mass = 5
		}
	}
	return &l, nil
}
