package director

import (
	"github.com/ivlev/timer2video/internal/distortion"
)

// Scenario is the complete pre-planned run: everything random that was
// decided before the frame loop. Replaying a scenario reproduces the
// exact same timeline of jumps and animations.
type Scenario struct {
	Version string                 `yaml:"version"`
	Seed    int64                  `yaml:"seed"`
	Zones   []distortion.SpeedZone `yaml:"zones,omitempty"`
	Jumps   []distortion.JumpEvent `yaml:"jumps,omitempty"`
	Events  []Event                `yaml:"events,omitempty"`
}

// ScenarioVersion is the current scenario file format.
const ScenarioVersion = "1.0"
