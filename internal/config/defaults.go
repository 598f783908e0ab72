package config

// Default returns the built-in run configuration used when no YAML file
// is supplied. Values mirror config/run.yaml.
func Default() *RunConfig {
	return &RunConfig{
		Tier:      1,
		MapRadius: 9,
		Zones: map[string]ZoneTuning{
			"core":      {DetectionCost: 5, EncounterChance: 12},
			"mid":       {DetectionCost: 2, EncounterChance: 7},
			"perimeter": {DetectionCost: 1, EncounterChance: 3},
		},
		Tiers: []TierMod{
			{Tier: 1, DetectionMult: 1, EncounterMult: 1, LootQuality: 1},
			{Tier: 2, DetectionMult: 1.3, EncounterMult: 1.25, LootQuality: 2},
			{Tier: 3, DetectionMult: 1.6, EncounterMult: 1.5, LootQuality: 3},
		},
		ThreatBands: []ThreatBand{
			{Name: "low", MaxDetection: 40},
			{Name: "medium", MaxDetection: 75},
			{Name: "high", MaxDetection: 100},
		},
		AIs: []AIPersonality{
			{ID: "drift-watcher", Name: "Drift Watcher", Band: "low", Weight: 3,
				EscapeDamage: EscapeDamage{MinHits: 1, MaxHits: 2, MinDamage: 3, MaxDamage: 8}},
			{ID: "rust-corsair", Name: "Rust Corsair", Band: "low", Weight: 2,
				EscapeDamage: EscapeDamage{MinHits: 1, MaxHits: 3, MinDamage: 4, MaxDamage: 9}},
			{ID: "pale-warden", Name: "Pale Warden", Band: "medium", Weight: 3,
				EscapeDamage: EscapeDamage{MinHits: 2, MaxHits: 3, MinDamage: 5, MaxDamage: 11}},
			{ID: "gallows-choir", Name: "Gallows Choir", Band: "medium", Weight: 1,
				EscapeDamage: EscapeDamage{MinHits: 2, MaxHits: 4, MinDamage: 6, MaxDamage: 12}},
			{ID: "eremos-shade", Name: "Eremos Shade", Band: "high", Weight: 2,
				EscapeDamage: EscapeDamage{MinHits: 3, MaxHits: 5, MinDamage: 7, MaxDamage: 14}},
		},
		Salvage: SalvageSettings{
			Slots: map[string]int{
				"wreck": 4, "depot": 6, "beacon": 3, "derelict": 5,
			},
			BaseChance: map[string]float64{
				"core": 20, "mid": 12, "perimeter": 8,
			},
			PerRevealIncrement: 6,
			AlertBonus:         10,
		},
		Extraction: ExtractionSettings{BaseSlots: 5, ReputationBonus: 0},
		Sections: []ShipSection{
			{Name: "bridge", Hull: 30, CriticalThreshold: 8},
			{Name: "power-cell", Hull: 25, CriticalThreshold: 6},
			{Name: "drone-bay", Hull: 35, CriticalThreshold: 10},
			{Name: "engines", Hull: 28, CriticalThreshold: 7},
		},
		Items: ItemSettings{
			DampenerMinReduction: 10,
			DampenerMaxReduction: 25,
			DampenerCount:        2,
			BypassCount:          1,
		},
		QuickDeploy: QuickDeploySettings{Budget: 20, CPULimit: 10, Lanes: 3, LaneLimit: 3},
		Timing:      Timing{ScanDelayMS: 400, MoveDelayMS: 300, PollIntervalMS: 25},
	}
}
