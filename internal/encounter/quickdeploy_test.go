package encounter

import (
	"os"
	"path/filepath"
	"testing"

	"eremos-run/internal/config"
)

var qdSettings = config.QuickDeploySettings{Budget: 10, CPULimit: 6, Lanes: 3, LaneLimit: 2}

func hasReason(rs []Reason, code ReasonCode) bool {
	for _, r := range rs {
		if r.Code == code {
			return true
		}
	}
	return false
}

func TestValidateQuickDeployAccepts(t *testing.T) {
	tpl := DeployTemplate{Name: "standard", Placements: []Placement{
		{DroneID: "skiff", Lane: 1, Cost: 4, CPU: 2},
		{DroneID: "mantis", Lane: 2, Cost: 5, CPU: 3},
	}}
	rs := ValidateQuickDeploy(tpl, []string{"skiff", "mantis", "cinder"}, qdSettings)
	if len(rs) != 0 {
		t.Fatalf("valid template rejected: %+v", rs)
	}
}

func TestValidateQuickDeployReasons(t *testing.T) {
	tpl := DeployTemplate{Name: "broken", Placements: []Placement{
		{DroneID: "skiff", Lane: 1, Cost: 6, CPU: 4},
		{DroneID: "skiff", Lane: 1, Cost: 6, CPU: 4}, // duplicate, overspends
		{DroneID: "ghost", Lane: 7, Cost: 1, CPU: 1}, // not in roster, bad lane
	}}
	rs := ValidateQuickDeploy(tpl, []string{"skiff"}, qdSettings)

	for _, code := range []ReasonCode{
		ReasonDuplicate, ReasonRosterMismatch, ReasonLaneRange,
		ReasonBudgetExceeded, ReasonCPUExceeded,
	} {
		if !hasReason(rs, code) {
			t.Errorf("missing reason %s in %+v", code, rs)
		}
	}
}

func TestValidateQuickDeployLaneLimit(t *testing.T) {
	tpl := DeployTemplate{Name: "stacked", Placements: []Placement{
		{DroneID: "a", Lane: 2, Cost: 1, CPU: 1},
		{DroneID: "b", Lane: 2, Cost: 1, CPU: 1},
		{DroneID: "c", Lane: 2, Cost: 1, CPU: 1},
	}}
	rs := ValidateQuickDeploy(tpl, []string{"a", "b", "c"}, qdSettings)
	if !hasReason(rs, ReasonLaneLimit) {
		t.Fatalf("lane limit violation not reported: %+v", rs)
	}
}

func TestFilterValid(t *testing.T) {
	good := DeployTemplate{Name: "good", Placements: []Placement{
		{DroneID: "a", Lane: 1, Cost: 2, CPU: 1},
	}}
	bad := DeployTemplate{Name: "bad", Placements: []Placement{
		{DroneID: "zz", Lane: 1, Cost: 2, CPU: 1},
	}}
	out := FilterValid([]DeployTemplate{good, bad}, []string{"a"}, qdSettings)
	if len(out) != 1 || out[0].Name != "good" {
		t.Fatalf("FilterValid returned %+v", out)
	}
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploys.yaml")
	doc := `
templates:
  - name: opener
    placements:
      - drone_id: skiff
        lane: 1
        cost: 4
        cpu: 2
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	tpls, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	if len(tpls) != 1 || tpls[0].Name != "opener" || tpls[0].Placements[0].DroneID != "skiff" {
		t.Fatalf("unexpected templates: %+v", tpls)
	}
}
