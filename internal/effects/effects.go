// Package effects turns an animation event and its progress fraction into
// renderer-facing transform data. Everything here is a pure function of
// (kind, params, progress); no pixels are touched.
package effects

import (
	"math"

	"github.com/ivlev/timer2video/internal/director"
)

// Transform describes what the renderer should do to the current frame.
// Fields not used by the active kind keep their neutral values.
type Transform struct {
	// WaveAmplitude is the vertical offset as a fraction of glyph height;
	// WavePhase is the wave position in cycles. The renderer adds a fixed
	// per-slot phase step so the offset travels through the digits.
	WaveAmplitude float64
	WavePhase     float64
	// Angle is the spin rotation in radians.
	Angle float64
	// Scale is the pulse factor applied around the frame center.
	Scale float64
	// Visible toggles the whole time string (lightning flicker).
	Visible bool
	// SnakeStep indexes the running-segments animation; -1 when inactive.
	SnakeStep int
	// RevealStage drives the odd/even build-up: 0 hides even positions
	// behind blanks and odd ones behind eights, 1 reveals the even
	// positions, 2 shows everything. -1 when inactive.
	RevealStage int
	// CountUpSeconds replaces the whole display with a rapid count from
	// zero; -1 when inactive.
	CountUpSeconds int
}

// Neutral is the identity transform.
func Neutral() Transform {
	return Transform{Scale: 1, Visible: true, SnakeStep: -1, RevealStage: -1, CountUpSeconds: -1}
}

// Resolve computes the transform for an event at the given progress.
// A nil event yields the neutral transform.
func Resolve(ev *director.Event, progress float64) Transform {
	t := Neutral()
	if ev == nil {
		return t
	}
	p := ev.Params
	dir := float64(p.Direction)
	if dir == 0 {
		dir = 1
	}

	switch ev.Kind {
	case director.KindWave:
		t.WaveAmplitude = p.Amplitude
		t.WavePhase = progress * p.Period * dir
	case director.KindSpin:
		t.Angle = progress * 2 * math.Pi * p.Period * dir
	case director.KindLightning:
		// Флики: видимость переключается p.Period раз за событие.
		t.Visible = int(progress*p.Period)%2 == 0
	case director.KindPulse:
		t.Scale = 1 + p.Amplitude*math.Sin(progress*2*math.Pi*p.Period)
	case director.KindSnake:
		t.SnakeStep = int(progress * p.Period)
	case director.KindOddEven:
		switch {
		case progress < 0.4:
			t.RevealStage = 0
		case progress < 0.7:
			t.RevealStage = 1
		default:
			t.RevealStage = 2
		}
	case director.KindCountUp:
		limit := p.Period
		if limit <= 0 {
			limit = 30
		}
		t.CountUpSeconds = int(progress * limit)
	}
	return t
}
