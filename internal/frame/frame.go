// Package frame assembles the complete per-frame description of what the
// renderer should draw: countdown value, character slots, segment
// patterns and the active animation transform.
package frame

import (
	"fmt"

	"github.com/ivlev/timer2video/internal/director"
	"github.com/ivlev/timer2video/internal/distortion"
	"github.com/ivlev/timer2video/internal/effects"
	"github.com/ivlev/timer2video/internal/glitch"
	"github.com/ivlev/timer2video/internal/segments"
)

// FrameState is the immutable output record for one frame. It is produced
// fresh each frame and can be discarded once rendered.
type FrameState struct {
	Index       int
	DisplayTime int
	Slots       []glitch.CharacterSlot
	Patterns    []segments.Pattern
	Active      *director.Event
	Progress    float64
	Transform   effects.Transform
}

// FormatTime renders integer seconds as MM:SS glyphs.
func FormatTime(seconds int) []rune {
	return []rune(fmt.Sprintf("%02d:%02d", seconds/60, seconds%60))
}

// SlotCount is the number of glyph positions in the MM:SS layout.
const SlotCount = 5

// Generator drives the sequential frame loop. The sequence is lazy,
// finite and not restartable: the track and the schedule carry run-scoped
// state and PRNG draws, so a restart needs a fresh Generator.
type Generator struct {
	total      int
	dist       *distortion.Distortion
	track      *glitch.Track
	synth      *segments.Synthesizer
	sched      director.Schedule
	rampFrames int
	next       int
}

// NewGenerator wires the per-frame components together. rampFrames is the
// length of the pre-jump window over which corruption pressure builds;
// 0 disables the ramp.
func NewGenerator(dist *distortion.Distortion, track *glitch.Track, synth *segments.Synthesizer, sched director.Schedule, rampFrames int) *Generator {
	return &Generator{
		total:      dist.TotalFrames(),
		dist:       dist,
		track:      track,
		synth:      synth,
		sched:      sched,
		rampFrames: rampFrames,
	}
}

// Total returns the length of the frame sequence.
func (g *Generator) Total() int {
	return g.total
}

// Next produces the state for the next frame index, or ok=false once the
// sequence is exhausted. The character track is advanced exactly once per
// call, in order; the remaining components are pure per frame.
func (g *Generator) Next() (*FrameState, bool) {
	if g.next >= g.total {
		return nil, false
	}
	f := g.next
	g.next++

	displayed := g.dist.DisplayedSeconds(f)
	pressure := g.dist.JumpPressure(f, g.rampFrames)
	slots := g.track.Advance(f, FormatTime(displayed), pressure)

	patterns := make([]segments.Pattern, len(slots))
	for i, slot := range slots {
		patterns[i] = g.synth.PatternFor(slot.Glyph, slot.Corrupted)
	}

	active, progress := g.sched.ActiveAt(f)

	return &FrameState{
		Index:       f,
		DisplayTime: displayed,
		Slots:       slots,
		Patterns:    patterns,
		Active:      active,
		Progress:    progress,
		Transform:   effects.Resolve(active, progress),
	}, true
}
