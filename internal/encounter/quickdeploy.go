package encounter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"eremos-run/internal/config"
)

// Placement is one drone slotted into a combat lane.
type Placement struct {
	DroneID string `yaml:"drone_id"`
	Lane    int    `yaml:"lane"`
	Cost    int    `yaml:"cost"`
	CPU     int    `yaml:"cpu"`
}

// DeployTemplate is a saved drone-placement layout validated against the
// current roster and budget before combat.
type DeployTemplate struct {
	Name       string      `yaml:"name"`
	Placements []Placement `yaml:"placements"`
}

// ReasonCode classifies why a template is invalid.
type ReasonCode string

const (
	ReasonRosterMismatch ReasonCode = "roster_mismatch"
	ReasonBudgetExceeded ReasonCode = "budget_exceeded"
	ReasonCPUExceeded    ReasonCode = "cpu_limit_exceeded"
	ReasonLaneLimit      ReasonCode = "lane_limit_exceeded"
	ReasonLaneRange      ReasonCode = "lane_out_of_range"
	ReasonDuplicate      ReasonCode = "duplicate_placement"
)

// Reason is one structured validation failure. Invalid templates yield
// reasons, never errors; callers filter or display them.
type Reason struct {
	Code   ReasonCode `json:"code"`
	Detail string     `json:"detail"`
}

// ValidateQuickDeploy checks a template against the player's roster and
// the configured limits. An empty result means the template is usable.
func ValidateQuickDeploy(tpl DeployTemplate, roster []string, qd config.QuickDeploySettings) []Reason {
	var reasons []Reason

	inRoster := make(map[string]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}

	seen := make(map[string]bool)
	laneCounts := make(map[int]int)
	budget, cpu := 0, 0

	for _, p := range tpl.Placements {
		if !inRoster[p.DroneID] {
			reasons = append(reasons, Reason{
				Code:   ReasonRosterMismatch,
				Detail: fmt.Sprintf("drone %s is not in the current roster", p.DroneID),
			})
		}
		if seen[p.DroneID] {
			reasons = append(reasons, Reason{
				Code:   ReasonDuplicate,
				Detail: fmt.Sprintf("drone %s placed more than once", p.DroneID),
			})
		}
		seen[p.DroneID] = true

		if p.Lane < 1 || p.Lane > qd.Lanes {
			reasons = append(reasons, Reason{
				Code:   ReasonLaneRange,
				Detail: fmt.Sprintf("lane %d outside 1..%d", p.Lane, qd.Lanes),
			})
		} else {
			laneCounts[p.Lane]++
		}

		budget += p.Cost
		cpu += p.CPU
	}

	if budget > qd.Budget {
		reasons = append(reasons, Reason{
			Code:   ReasonBudgetExceeded,
			Detail: fmt.Sprintf("total cost %d exceeds budget %d", budget, qd.Budget),
		})
	}
	if cpu > qd.CPULimit {
		reasons = append(reasons, Reason{
			Code:   ReasonCPUExceeded,
			Detail: fmt.Sprintf("total CPU %d exceeds limit %d", cpu, qd.CPULimit),
		})
	}
	for lane, n := range laneCounts {
		if n > qd.LaneLimit {
			reasons = append(reasons, Reason{
				Code:   ReasonLaneLimit,
				Detail: fmt.Sprintf("lane %d holds %d drones, limit %d", lane, n, qd.LaneLimit),
			})
		}
	}
	return reasons
}

// FilterValid returns only the templates with no validation failures.
func FilterValid(tpls []DeployTemplate, roster []string, qd config.QuickDeploySettings) []DeployTemplate {
	var out []DeployTemplate
	for _, t := range tpls {
		if len(ValidateQuickDeploy(t, roster, qd)) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// LoadTemplates reads saved deploy templates from a YAML file.
func LoadTemplates(path string) ([]DeployTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deploy templates: %w", err)
	}
	var doc struct {
		Templates []DeployTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse deploy templates: %w", err)
	}
	return doc.Templates, nil
}
