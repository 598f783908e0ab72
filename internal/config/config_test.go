package config

import (
	"testing"

	"eremos-run/internal/hexmap"
)

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load("../../config/run.yaml", "../../schemas/run.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Tier != 1 || cfg.MapRadius != 9 {
		t.Errorf("unexpected run settings: tier=%d radius=%d", cfg.Tier, cfg.MapRadius)
	}
	if len(cfg.AIs) == 0 {
		t.Error("no AI personalities loaded")
	}
	if len(cfg.Sections) != 4 {
		t.Errorf("expected 4 ship sections, got %d", len(cfg.Sections))
	}
}

func TestZoneForAppliesTierMult(t *testing.T) {
	cfg := Default()
	cfg.Tier = 2
	z := cfg.ZoneFor(hexmap.ZoneCore)
	want := 5 * 1.3
	if z.DetectionCost != want {
		t.Errorf("core detection cost = %v, want %v", z.DetectionCost, want)
	}
}

func TestBandFor(t *testing.T) {
	cfg := Default()
	cases := []struct {
		detection float64
		want      string
	}{
		{0, "low"},
		{40, "low"},
		{41, "medium"},
		{75, "medium"},
		{99, "high"},
		{100, "high"},
	}
	for _, c := range cases {
		if got := cfg.BandFor(c.detection); got != c.want {
			t.Errorf("BandFor(%v) = %s, want %s", c.detection, got, c.want)
		}
	}
}

func TestAIPoolFiltersByBand(t *testing.T) {
	cfg := Default()
	for _, ai := range cfg.AIPool("medium") {
		if ai.Band != "medium" {
			t.Errorf("AI %s in medium pool has band %s", ai.ID, ai.Band)
		}
	}
	if len(cfg.AIPool("high")) == 0 {
		t.Error("high band pool is empty")
	}
}

func TestCheckRejectsMissingZones(t *testing.T) {
	cfg := Default()
	delete(cfg.Zones, "mid")
	if err := cfg.check(); err == nil {
		t.Error("expected error for missing zone")
	}
}
