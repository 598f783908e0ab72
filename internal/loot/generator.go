package loot

import (
	"eremos-run/internal/rng"
)

// Generator draws loot items from quality-weighted tables.
type Generator struct {
	quality int
	rand    *rng.Service
}

// NewGenerator creates a generator for a loot quality level (1..3) using
// the run's random service.
func NewGenerator(quality int, rand *rng.Service) *Generator {
	if quality < 1 {
		quality = 1
	}
	return &Generator{quality: quality, rand: rand}
}

type tableEntry struct {
	weight int
	draw   func(g *Generator) Item
}

var cardNames = []string{
	"Splinter Volley", "Null Veil", "Ash Protocol", "Lattice Ward", "Howling Relay",
}
var cardRarities = []string{"common", "uncommon", "rare"}

var blueprintNames = []string{
	"Skiff Interceptor", "Mantis Frame", "Cinder Array", "Vault Plating",
}

var componentNames = []string{
	"flux coupler", "drift servo", "ablative mesh", "signal core",
}

var salvageNames = []string{
	"scorched manifold", "sealed cargo pod", "intact nav relay", "stripped drive coil",
}

var tokenNames = []string{"eremos sigil", "warden mark"}

var table = []tableEntry{
	{weight: 30, draw: func(g *Generator) Item {
		return Credits{Amount: g.rand.IntInclusive(20, 60) * g.quality}
	}},
	{weight: 25, draw: func(g *Generator) Item {
		return SalvageItem{
			Name:  pick(g.rand, salvageNames),
			Value: g.rand.IntInclusive(10, 40) * g.quality,
		}
	}},
	{weight: 20, draw: func(g *Generator) Item {
		rarity := cardRarities[min(g.quality, len(cardRarities))-1]
		return Card{Name: pick(g.rand, cardNames), Rarity: rarity}
	}},
	{weight: 12, draw: func(g *Generator) Item {
		return Component{Name: pick(g.rand, componentNames), Grade: g.quality}
	}},
	{weight: 8, draw: func(g *Generator) Item {
		return Blueprint{Name: pick(g.rand, blueprintNames), Tier: g.quality}
	}},
	{weight: 5, draw: func(g *Generator) Item {
		return Token{Name: pick(g.rand, tokenNames)}
	}},
}

// Draw returns one item from the weighted table.
func (g *Generator) Draw() Item {
	total := 0
	for _, e := range table {
		total += e.weight
	}
	roll := g.rand.IntInclusive(1, total)
	for _, e := range table {
		roll -= e.weight
		if roll <= 0 {
			return e.draw(g)
		}
	}
	return table[0].draw(g)
}

func pick(r *rng.Service, names []string) string {
	return names[r.IntInclusive(0, len(names)-1)]
}
