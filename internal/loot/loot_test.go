package loot

import (
	"testing"

	"eremos-run/internal/rng"
)

func TestBundleCreditValue(t *testing.T) {
	b := Bundle{Items: []Item{
		Credits{Amount: 50},
		SalvageItem{Name: "pod", Value: 30},
		Card{Name: "Null Veil", Rarity: "rare"},
		Token{Name: "sigil"},
	}}
	if got := b.CreditValue(); got != 80 {
		t.Fatalf("CreditValue = %d, want 80", got)
	}
}

func TestBundleCounts(t *testing.T) {
	b := Bundle{Items: []Item{
		Credits{Amount: 10},
		Credits{Amount: 20},
		Blueprint{Name: "Mantis Frame", Tier: 2},
	}}
	counts := b.Counts()
	if counts[KindCredits] != 2 || counts[KindBlueprint] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(2, rng.New(77))
	b := NewGenerator(2, rng.New(77))
	for i := 0; i < 30; i++ {
		if a.Draw().Label() != b.Draw().Label() {
			t.Fatalf("draw %d differs between identical seeds", i)
		}
	}
}

func TestGeneratorQualityScalesCredits(t *testing.T) {
	g := NewGenerator(3, rng.New(5))
	for i := 0; i < 100; i++ {
		if c, ok := g.Draw().(Credits); ok {
			if c.Amount < 60 || c.Amount > 180 {
				t.Fatalf("quality-3 credits %d outside [60,180]", c.Amount)
			}
		}
	}
}
