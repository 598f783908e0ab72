// Package movement computes hex paths and their traversal costs. It is
// pure: all randomness lives with the encounter controller.
package movement

import (
	"container/heap"

	"eremos-run/internal/hexmap"
)

// Path is an ordered traversal. Origin is the hex already occupied and
// is excluded from all cost math; Steps are the hexes entered in order.
type Path struct {
	Origin hexmap.Axial
	Steps  []hexmap.Axial
}

// Len returns the number of hexes entered.
func (p *Path) Len() int {
	return len(p.Steps)
}

// Dest returns the final hex, or the origin for an empty path.
func (p *Path) Dest() hexmap.Axial {
	if len(p.Steps) == 0 {
		return p.Origin
	}
	return p.Steps[len(p.Steps)-1]
}

// CalculatePath returns a fewest-hops path from one hex to another over
// passable hexes, or nil when unreachable. From and to may be equal, in
// which case the path has no steps.
func CalculatePath(from, to hexmap.Axial, m *hexmap.Map) *Path {
	if !passable(m, to) {
		return nil
	}
	if from == to {
		return &Path{Origin: from}
	}

	prev := map[hexmap.Axial]hexmap.Axial{from: from}
	queue := []hexmap.Axial{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return rebuild(from, to, prev)
		}
		for _, n := range cur.Neighbors() {
			if _, seen := prev[n]; seen || !passable(m, n) {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}
	return nil
}

// weightFunc prices entering a hex. Weights must be non-negative.
type weightFunc func(hexmap.Hex) float64

// pqItem is a node in the Dijkstra frontier.
type pqItem struct {
	coord hexmap.Axial
	cost  float64
	index int
}

type frontier []*pqItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].cost < f[j].cost }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i]; f[i].index = i; f[j].index = j }
func (f *frontier) Push(x interface{}) { n := x.(*pqItem); n.index = len(*f); *f = append(*f, n) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*f = old[:len(old)-1]
	return n
}

// weightedPath runs Dijkstra over the passable hexes with per-hex entry
// weights. Returns nil when unreachable.
func weightedPath(from, to hexmap.Axial, m *hexmap.Map, weight weightFunc) *Path {
	if !passable(m, to) {
		return nil
	}
	if from == to {
		return &Path{Origin: from}
	}

	dist := map[hexmap.Axial]float64{from: 0}
	prev := map[hexmap.Axial]hexmap.Axial{from: from}
	done := map[hexmap.Axial]bool{}

	f := &frontier{}
	heap.Init(f)
	heap.Push(f, &pqItem{coord: from, cost: 0})

	for f.Len() > 0 {
		cur := heap.Pop(f).(*pqItem)
		if done[cur.coord] {
			continue
		}
		done[cur.coord] = true
		if cur.coord == to {
			return rebuild(from, to, prev)
		}
		for _, n := range cur.coord.Neighbors() {
			h, ok := m.HexAt(n)
			if !ok || !h.Passable || done[n] {
				continue
			}
			next := cur.cost + weight(h)
			if old, seen := dist[n]; !seen || next < old {
				dist[n] = next
				prev[n] = cur.coord
				heap.Push(f, &pqItem{coord: n, cost: next})
			}
		}
	}
	return nil
}

func rebuild(from, to hexmap.Axial, prev map[hexmap.Axial]hexmap.Axial) *Path {
	var steps []hexmap.Axial
	for cur := to; cur != from; cur = prev[cur] {
		steps = append(steps, cur)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return &Path{Origin: from, Steps: steps}
}

func passable(m *hexmap.Map, a hexmap.Axial) bool {
	h, ok := m.HexAt(a)
	return ok && h.Passable
}
