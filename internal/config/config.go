// YAML run configuration loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"eremos-run/internal/hexmap"
)

// ZoneTuning holds per-zone traversal rates.
type ZoneTuning struct {
	DetectionCost   float64 `yaml:"detection_cost"`
	EncounterChance float64 `yaml:"encounter_chance"`
}

// TierMod scales zone rates and loot quality for one map tier.
type TierMod struct {
	Tier          int     `yaml:"tier"`
	DetectionMult float64 `yaml:"detection_mult"`
	EncounterMult float64 `yaml:"encounter_mult"`
	LootQuality   int     `yaml:"loot_quality"`
}

// ThreatBand maps a detection range to a named AI difficulty pool.
// Bands are ordered; a band covers detection values up to MaxDetection.
type ThreatBand struct {
	Name         string  `yaml:"name"`
	MaxDetection float64 `yaml:"max_detection"`
}

// EscapeDamage bounds the hit sequence an AI deals during an escape.
type EscapeDamage struct {
	MinHits   int `yaml:"min_hits"`
	MaxHits   int `yaml:"max_hits"`
	MinDamage int `yaml:"min_damage"`
	MaxDamage int `yaml:"max_damage"`
}

// AIPersonality describes one opposing AI identity.
type AIPersonality struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Band         string       `yaml:"band"`
	Weight       int          `yaml:"weight"`
	EscapeDamage EscapeDamage `yaml:"escape_damage"`
}

// SalvageSettings tunes the slot-reveal mini-process at POIs.
type SalvageSettings struct {
	Slots              map[string]int     `yaml:"slots"`
	BaseChance         map[string]float64 `yaml:"base_encounter_chance"`
	PerRevealIncrement float64            `yaml:"per_reveal_increment"`
	AlertBonus         float64            `yaml:"alert_bonus"`
}

// ExtractionSettings tunes extraction-slot limits.
type ExtractionSettings struct {
	BaseSlots       int `yaml:"base_slots"`
	ReputationBonus int `yaml:"reputation_bonus"`
}

// ShipSection defines one hull section's starting state.
type ShipSection struct {
	Name              string `yaml:"name"`
	Hull              int    `yaml:"hull"`
	CriticalThreshold int    `yaml:"critical_threshold"`
}

// ItemSettings defines consumable item effects and starting counts.
type ItemSettings struct {
	DampenerMinReduction float64 `yaml:"dampener_min_reduction"`
	DampenerMaxReduction float64 `yaml:"dampener_max_reduction"`
	DampenerCount        int     `yaml:"dampener_count"`
	BypassCount          int     `yaml:"bypass_count"`
}

// QuickDeploySettings bounds drone placement templates.
type QuickDeploySettings struct {
	Budget    int `yaml:"budget"`
	CPULimit  int `yaml:"cpu_limit"`
	Lanes     int `yaml:"lanes"`
	LaneLimit int `yaml:"lane_limit"`
}

// Timing holds the journey loop delays. Values are milliseconds.
type Timing struct {
	ScanDelayMS    int `yaml:"scan_delay_ms"`
	MoveDelayMS    int `yaml:"move_delay_ms"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// RunConfig is the root configuration for one run.
type RunConfig struct {
	Tier        int                   `yaml:"tier"`
	MapRadius   int                   `yaml:"map_radius"`
	Seed        int64                 `yaml:"seed"`
	Zones       map[string]ZoneTuning `yaml:"zones"`
	Tiers       []TierMod             `yaml:"tiers"`
	ThreatBands []ThreatBand          `yaml:"threat_bands"`
	AIs         []AIPersonality       `yaml:"ais"`
	Salvage     SalvageSettings       `yaml:"salvage"`
	Extraction  ExtractionSettings    `yaml:"extraction"`
	Sections    []ShipSection         `yaml:"ship_sections"`
	Items       ItemSettings          `yaml:"items"`
	QuickDeploy QuickDeploySettings   `yaml:"quick_deploy"`
	Timing      Timing                `yaml:"timing"`
}

// Load loads a YAML run config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*RunConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// check enforces constraints the schema cannot express.
func (c *RunConfig) check() error {
	if c.MapRadius < 3 {
		return fmt.Errorf("map_radius %d too small, need at least 3", c.MapRadius)
	}
	for _, z := range []hexmap.Zone{hexmap.ZoneCore, hexmap.ZoneMid, hexmap.ZonePerimeter} {
		if _, ok := c.Zones[string(z)]; !ok {
			return fmt.Errorf("zone %q missing from zones", z)
		}
	}
	if len(c.AIs) == 0 {
		return fmt.Errorf("no AI personalities configured")
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("no ship sections configured")
	}
	return nil
}

// ZoneFor returns the tuning for a zone, tier-adjusted.
func (c *RunConfig) ZoneFor(z hexmap.Zone) ZoneTuning {
	t := c.Zones[string(z)]
	mod := c.TierModFor(c.Tier)
	return ZoneTuning{
		DetectionCost:   t.DetectionCost * mod.DetectionMult,
		EncounterChance: t.EncounterChance * mod.EncounterMult,
	}
}

// TierModFor returns the modifier row for a tier, defaulting to neutral.
func (c *RunConfig) TierModFor(tier int) TierMod {
	for _, m := range c.Tiers {
		if m.Tier == tier {
			return m
		}
	}
	return TierMod{Tier: tier, DetectionMult: 1, EncounterMult: 1, LootQuality: 1}
}

// BandFor maps a detection value to a threat band name.
func (c *RunConfig) BandFor(detection float64) string {
	for _, b := range c.ThreatBands {
		if detection <= b.MaxDetection {
			return b.Name
		}
	}
	if len(c.ThreatBands) > 0 {
		return c.ThreatBands[len(c.ThreatBands)-1].Name
	}
	return ""
}

// AIPool returns the AI personalities in a band.
func (c *RunConfig) AIPool(band string) []AIPersonality {
	var out []AIPersonality
	for _, ai := range c.AIs {
		if ai.Band == band {
			out = append(out, ai)
		}
	}
	return out
}

// AIByID looks up a personality by ID.
func (c *RunConfig) AIByID(id string) (AIPersonality, bool) {
	for _, ai := range c.AIs {
		if ai.ID == id {
			return ai, true
		}
	}
	return AIPersonality{}, false
}
