// Package distortion decouples the displayed countdown value from real
// elapsed video time: speed zones dilate or reverse the flow, jump events
// snap the countdown to an arbitrary value.
package distortion

import (
	"math"
	"math/rand"
	"sort"
)

// SpeedZone applies a time-flow multiplier to the half-open frame range
// [Start, End). A negative multiplier runs the countdown backward.
type SpeedZone struct {
	Start      int     `yaml:"start"`
	End        int     `yaml:"end"`
	Multiplier float64 `yaml:"multiplier"`
}

// JumpEvent snaps the countdown to TargetSeconds at TriggerFrame.
type JumpEvent struct {
	TriggerFrame  int     `yaml:"trigger_frame"`
	TargetSeconds float64 `yaml:"target_seconds"`
}

// Distortion maps a frame index to the displayed countdown value.
// The whole timeline is integrated once at construction; lookups are pure.
type Distortion struct {
	displayDuration float64
	seconds         []int
	triggers        []int
}

// New integrates virtual time over the full timeline. The step landing on
// frame f advances at multiplier(f)/fps; outside any zone the multiplier
// is 1. Each jump resets the integration baseline unconditionally so the
// displayed value equals the target at the trigger frame exactly.
func New(displayDuration float64, fps int, totalFrames int, zones []SpeedZone, jumps []JumpEvent) *Distortion {
	sortedZones := make([]SpeedZone, len(zones))
	copy(sortedZones, zones)
	sort.Slice(sortedZones, func(i, j int) bool { return sortedZones[i].Start < sortedZones[j].Start })

	sortedJumps := make([]JumpEvent, len(jumps))
	copy(sortedJumps, jumps)
	sort.Slice(sortedJumps, func(i, j int) bool { return sortedJumps[i].TriggerFrame < sortedJumps[j].TriggerFrame })

	d := &Distortion{
		displayDuration: displayDuration,
		seconds:         make([]int, totalFrames),
		triggers:        make([]int, 0, len(sortedJumps)),
	}
	for _, j := range sortedJumps {
		d.triggers = append(d.triggers, j.TriggerFrame)
	}

	dt := 1.0 / float64(fps)
	virtual := 0.0
	zi, ji := 0, 0
	for f := 0; f < totalFrames; f++ {
		if f > 0 {
			virtual += multiplierAt(sortedZones, &zi, f) * dt
		}
		for ji < len(sortedJumps) && sortedJumps[ji].TriggerFrame == f {
			virtual = displayDuration - sortedJumps[ji].TargetSeconds
			ji++
		}
		remaining := displayDuration - virtual
		if remaining < 0 {
			remaining = 0
		}
		if remaining > displayDuration {
			remaining = displayDuration
		}
		d.seconds[f] = int(math.Floor(remaining))
	}
	return d
}

// multiplierAt advances zi monotonically; frames are visited in order.
func multiplierAt(zones []SpeedZone, zi *int, frame int) float64 {
	for *zi < len(zones) && frame >= zones[*zi].End {
		*zi++
	}
	if *zi < len(zones) && frame >= zones[*zi].Start {
		return zones[*zi].Multiplier
	}
	return 1.0
}

// DisplayedSeconds returns the countdown value for a frame, clamped to
// [0, display_duration].
func (d *Distortion) DisplayedSeconds(frame int) int {
	return d.seconds[frame]
}

// TotalFrames reports the length of the integrated timeline.
func (d *Distortion) TotalFrames() int {
	return len(d.seconds)
}

// JumpPressure reports how close the frame is to the next jump trigger:
// 0 outside the window, rising linearly to 1 at the trigger itself.
// The glitch track uses it to ramp corruption before each jump.
func (d *Distortion) JumpPressure(frame, windowFrames int) float64 {
	if windowFrames <= 0 || len(d.triggers) == 0 {
		return 0
	}
	i := sort.SearchInts(d.triggers, frame+1)
	if i >= len(d.triggers) {
		return 0
	}
	dist := d.triggers[i] - frame
	if dist > windowFrames {
		return 0
	}
	return 1 - float64(dist-1)/float64(windowFrames)
}

const jumpRetries = 32

// PlanJumps selects collision-free trigger frames by rejection sampling.
// Candidates too close to an accepted jump (or to either end of the
// timeline) are re-drawn; when the retry budget runs out the jump is
// dropped rather than failing the run. Targets are whole seconds in
// [0, maxTarget].
func PlanJumps(rng *rand.Rand, count, totalFrames, minSpacing int, maxTarget float64) []JumpEvent {
	if count <= 0 || totalFrames <= 2*minSpacing {
		return nil
	}
	jumps := make([]JumpEvent, 0, count)
	for n := 0; n < count; n++ {
		for attempt := 0; attempt < jumpRetries; attempt++ {
			cand := minSpacing + rng.Intn(totalFrames-2*minSpacing)
			ok := true
			for _, j := range jumps {
				if abs(cand-j.TriggerFrame) < minSpacing {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			jumps = append(jumps, JumpEvent{
				TriggerFrame:  cand,
				TargetSeconds: float64(rng.Intn(int(maxTarget) + 1)),
			})
			break
		}
	}
	sort.Slice(jumps, func(i, j int) bool { return jumps[i].TriggerFrame < jumps[j].TriggerFrame })
	return jumps
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
