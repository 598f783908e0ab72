package hexmap

import (
	"math/rand"
	"sort"
)

// POIKind distinguishes the flavors of points of interest.
type POIKind string

const (
	POIWreck    POIKind = "wreck"
	POIDepot    POIKind = "depot"
	POIBeacon   POIKind = "beacon"
	POIDerelict POIKind = "derelict"
)

// POI is a special hex offering salvage.
type POI struct {
	Coord Axial   `json:"coord"`
	Kind  POIKind `json:"kind"`
}

// Hex is a single map cell.
type Hex struct {
	Coord    Axial `json:"coord"`
	Zone     Zone  `json:"zone"`
	Passable bool  `json:"passable"`
}

// Map describes the hex grid for one run. It is immutable once generated.
type Map struct {
	Tier   int           `json:"tier"`
	Radius int           `json:"radius"`
	Seed   int64         `json:"seed"`
	Hexes  map[Axial]Hex `json:"hexes"`
	Gates  []Axial       `json:"gates"`
	POIs   map[Axial]POI `json:"pois"`
}

// HexAt returns the hex at the coordinate, if present.
func (m *Map) HexAt(a Axial) (Hex, bool) {
	h, ok := m.Hexes[a]
	return h, ok
}

// IsGate reports whether the coordinate is an extraction gate.
func (m *Map) IsGate(a Axial) bool {
	for _, g := range m.Gates {
		if g == a {
			return true
		}
	}
	return false
}

// POIAt returns the point of interest at the coordinate, if any.
func (m *Map) POIAt(a Axial) (POI, bool) {
	p, ok := m.POIs[a]
	return p, ok
}

var poiKinds = []POIKind{POIWreck, POIDepot, POIBeacon, POIDerelict}

// Generate builds a hex disc of the given radius. Gates sit on the
// perimeter, POIs are scattered deterministically from the seed, and a
// small fraction of hexes is voidlocked (impassable). The center hex,
// gates, and POIs are always passable.
func Generate(tier, radius int, seed int64) *Map {
	rng := rand.New(rand.NewSource(seed))
	m := &Map{
		Tier:   tier,
		Radius: radius,
		Seed:   seed,
		Hexes:  make(map[Axial]Hex),
		POIs:   make(map[Axial]POI),
	}
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			a := Axial{Q: q, R: r}
			if Distance(Axial{}, a) > radius {
				continue
			}
			m.Hexes[a] = Hex{
				Coord:    a,
				Zone:     ZoneFor(a, radius),
				Passable: rng.Float64() >= voidlockChance,
			}
		}
	}

	// Gates: up to four perimeter hexes at the cardinal-ish extremes.
	gateCandidates := []Axial{
		{Q: radius, R: 0},
		{Q: -radius, R: 0},
		{Q: 0, R: radius},
		{Q: 0, R: -radius},
	}
	for _, g := range gateCandidates {
		m.forcePassable(g)
		m.Gates = append(m.Gates, g)
	}

	// POI count scales with tier.
	count := basePOICount + tier*2
	coords := m.passableCoords()
	rng.Shuffle(len(coords), func(i, j int) { coords[i], coords[j] = coords[j], coords[i] })
	for _, c := range coords {
		if len(m.POIs) >= count {
			break
		}
		if c == (Axial{}) || m.IsGate(c) {
			continue
		}
		m.POIs[c] = POI{Coord: c, Kind: poiKinds[rng.Intn(len(poiKinds))]}
	}

	m.forcePassable(Axial{})
	return m
}

const (
	voidlockChance = 0.08
	basePOICount   = 4
)

func (m *Map) forcePassable(a Axial) {
	h := m.Hexes[a]
	h.Coord = a
	h.Zone = ZoneFor(a, m.Radius)
	h.Passable = true
	m.Hexes[a] = h
}

func (m *Map) passableCoords() []Axial {
	out := make([]Axial, 0, len(m.Hexes))
	for a, h := range m.Hexes {
		if h.Passable {
			out = append(out, a)
		}
	}
	// Stable order before shuffling so generation is seed-deterministic.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].R < out[j].R
	})
	return out
}
