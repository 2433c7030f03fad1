package station

import (
	"encoding/json"
	"fmt"
	"sort"
)

// OpMode is one entry of the robot's op-mode list.
type OpMode struct {
	Flavor                  string `json:"flavor"`
	Group                   string `json:"group"`
	Name                    string `json:"name"`
	Source                  string `json:"source,omitempty"`
	SystemOpModeDisplayName string `json:"systemOpModeDisplayName,omitempty"`
}

// Flavors reported by the robot.
const (
	FlavorAutonomous = "AUTONOMOUS"
	FlavorTeleOp     = "TELEOP"
	FlavorSystem     = "SYSTEM"
)

// parseOpModes decodes the CMD_NOTIFY_OP_MODE_LIST payload, ordered by
// flavor, group, then name.
func parseOpModes(data string) ([]OpMode, error) {
	var modes []OpMode
	if err := json.Unmarshal([]byte(data), &modes); err != nil {
		return nil, fmt.Errorf("parse op mode list: %w", err)
	}
	sort.SliceStable(modes, func(i, j int) bool {
		a, b := modes[i], modes[j]
		if a.Flavor != b.Flavor {
			return a.Flavor < b.Flavor
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Name < b.Name
	})
	return modes, nil
}
