// Package hexmap provides the axial hex grid the tactical map runs on.
package hexmap

import "fmt"

// Axial addresses a hex cell using axial coordinates. The third cube
// coordinate is implicit: s = -q - r.
type Axial struct {
	Q int
	R int
}

// S returns the derived third cube coordinate.
func (a Axial) S() int {
	return -a.Q - a.R
}

func (a Axial) String() string {
	return fmt.Sprintf("%d,%d", a.Q, a.R)
}

// MarshalText renders the "q,r" form, letting Axial key JSON maps.
func (a Axial) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the "q,r" form.
func (a *Axial) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%d,%d", &a.Q, &a.R)
	return err
}

// neighborDirections holds the six axial neighbor offsets.
var neighborDirections = [6]Axial{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent coordinates.
func (a Axial) Neighbors() [6]Axial {
	var out [6]Axial
	for i, d := range neighborDirections {
		out[i] = Axial{Q: a.Q + d.Q, R: a.R + d.R}
	}
	return out
}

// Distance returns the cube distance between two coordinates.
func Distance(a, b Axial) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	max := dq
	if dr > max {
		max = dr
	}
	if ds > max {
		max = ds
	}
	return max
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Zone classifies a hex by its distance from the map center.
type Zone string

const (
	ZoneCore      Zone = "core"
	ZoneMid       Zone = "mid"
	ZonePerimeter Zone = "perimeter"
)

// ZoneFor maps a coordinate to its zone band on a map of the given radius.
// The inner third of the disc is core, the middle third mid, the rest
// perimeter.
func ZoneFor(a Axial, radius int) Zone {
	if radius <= 0 {
		return ZoneCore
	}
	d := Distance(Axial{}, a)
	switch {
	case d*3 <= radius:
		return ZoneCore
	case d*3 <= radius*2:
		return ZoneMid
	default:
		return ZonePerimeter
	}
}
