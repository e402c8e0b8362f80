// Package glitch maintains per-character corruption and recolor state that
// persists across frames, so visual glitches last long enough to read
// instead of flickering for a single frame.
package glitch

import (
	"fmt"
	"math/rand"

	"github.com/ivlev/timer2video/internal/config"
)

// CharacterSlot is the per-frame snapshot of one glyph position.
type CharacterSlot struct {
	Glyph          rune
	Corrupted      bool
	CorruptionLeft int
	Color          config.RGB
	ColorLeft      int
}

// TrackConfig bounds the two hold/expire machines of every slot.
type TrackConfig struct {
	CorruptionChance float64
	CorruptMin       int
	CorruptMax       int
	ColorChance      float64
	ColorMin         int
	ColorMax         int
	BaseColor        config.RGB
	Palette          []config.RGB

	// RampChance is the extra corruption probability added at full jump
	// pressure; the moment before a time jump corrupts at
	// CorruptionChance+RampChance.
	RampChance float64
}

// Glyph substitutions that read as a broken digital display.
// The true glyph is never among its own substitutes.
var corruptionAlphabet = map[rune][]rune{
	'0': {'O', 'D'},
	'1': {'I', '|', 'l'},
	'2': {'Z', 'z'},
	'3': {'E'},
	'4': {'A'},
	'5': {'S', 's'},
	'6': {'G', 'b'},
	'7': {'T'},
	'8': {'B'},
	'9': {'g', 'q'},
	':': {';'},
}

// slotState is idle when a remaining counter is 0 and active otherwise;
// the Corrupted flag in snapshots is derived, never stored.
type slotState struct {
	corruptLeft  int
	corruptGlyph rune
	colorLeft    int
	color        config.RGB
}

// Track owns the slot states for one run. Advance must be called exactly
// once per frame in increasing order.
type Track struct {
	rng   *rand.Rand
	cfg   TrackConfig
	slots []slotState
	next  int
}

func NewTrack(cfg TrackConfig, slotCount int, rng *rand.Rand) *Track {
	return &Track{
		rng:   rng,
		cfg:   cfg,
		slots: make([]slotState, slotCount),
	}
}

// Advance evolves every slot by one frame and returns the snapshots.
// Pressure in [0, 1] raises corruption probability and duration toward
// their ramp maxima; pass 0 when no jump is near. Out-of-order calls are
// a programming error and fail loudly.
func (t *Track) Advance(frame int, trueGlyphs []rune, pressure float64) []CharacterSlot {
	if frame != t.next {
		panic(fmt.Sprintf("glitch: Advance для кадра %d, ожидался %d", frame, t.next))
	}
	if len(trueGlyphs) != len(t.slots) {
		panic(fmt.Sprintf("glitch: %d глифов для %d слотов", len(trueGlyphs), len(t.slots)))
	}
	t.next++

	chance := t.cfg.CorruptionChance + pressure*t.cfg.RampChance
	durMin := t.cfg.CorruptMin
	if pressure > 0 {
		// Чем ближе прыжок, тем дольше держится порча.
		durMin += int(pressure * float64(t.cfg.CorruptMax-t.cfg.CorruptMin))
	}

	out := make([]CharacterSlot, len(t.slots))
	for i := range t.slots {
		s := &t.slots[i]
		truth := trueGlyphs[i]

		if s.corruptLeft > 0 {
			s.corruptLeft--
		} else if t.rng.Float64() < chance {
			if sub, ok := t.substitute(truth); ok {
				s.corruptGlyph = sub
				s.corruptLeft = randIn(t.rng, durMin, t.cfg.CorruptMax)
			}
		}

		if s.colorLeft > 0 {
			s.colorLeft--
		} else if len(t.cfg.Palette) > 0 && t.rng.Float64() < t.cfg.ColorChance {
			s.color = t.cfg.Palette[t.rng.Intn(len(t.cfg.Palette))]
			s.colorLeft = randIn(t.rng, t.cfg.ColorMin, t.cfg.ColorMax)
		}

		slot := CharacterSlot{
			Glyph:          truth,
			Corrupted:      s.corruptLeft > 0,
			CorruptionLeft: s.corruptLeft,
			Color:          t.cfg.BaseColor,
			ColorLeft:      s.colorLeft,
		}
		if slot.Corrupted {
			slot.Glyph = s.corruptGlyph
		}
		if s.colorLeft > 0 {
			slot.Color = s.color
		}
		out[i] = slot
	}
	return out
}

// SlotCount returns the number of tracked glyph positions.
func (t *Track) SlotCount() int {
	return len(t.slots)
}

func (t *Track) substitute(truth rune) (rune, bool) {
	subs, ok := corruptionAlphabet[truth]
	if !ok || len(subs) == 0 {
		return 0, false
	}
	return subs[t.rng.Intn(len(subs))], true
}

func randIn(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}
