// Package segments synthesizes seven-segment lit/unlit bit patterns for
// the simulated digital display.
package segments

import "math/rand"

// Pattern is a 7-bit mask of lit segments, laid out in the conventional
// order:
//
//	 aaa
//	f   b
//	f   b
//	 ggg
//	e   c
//	e   c
//	 ddd
type Pattern uint8

const (
	SegA Pattern = 1 << iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
)

// SegmentCount is the number of addressable segments per digit.
const SegmentCount = 7

var canonical = [10]Pattern{
	SegA | SegB | SegC | SegD | SegE | SegF,        // 0
	SegB | SegC,                                    // 1
	SegA | SegB | SegG | SegE | SegD,               // 2
	SegA | SegB | SegG | SegC | SegD,               // 3
	SegF | SegG | SegB | SegC,                      // 4
	SegA | SegF | SegG | SegC | SegD,               // 5
	SegA | SegF | SegG | SegE | SegC | SegD,        // 6
	SegA | SegB | SegC,                             // 7
	SegA | SegB | SegC | SegD | SegE | SegF | SegG, // 8
	SegA | SegB | SegC | SegD | SegF | SegG,        // 9
}

// Canonical returns the table entry for a digit glyph. Non-digits report
// ok=false and a blank pattern.
func Canonical(glyph rune) (Pattern, bool) {
	if glyph < '0' || glyph > '9' {
		return 0, false
	}
	return canonical[glyph-'0'], true
}

// Lit reports whether a given segment bit is on.
func (p Pattern) Lit(seg Pattern) bool {
	return p&seg != 0
}

// RotateOuter cycles the six perimeter segments by n steps (a→b→c→d→e→f→a),
// keeping the middle bar. This is how a segment display "spins".
func (p Pattern) RotateOuter(n int) Pattern {
	outer := [6]Pattern{SegA, SegB, SegC, SegD, SegE, SegF}
	n = ((n % 6) + 6) % 6
	var out Pattern
	for i, seg := range outer {
		if p.Lit(seg) {
			out |= outer[(i+n)%6]
		}
	}
	return out | (p & SegG)
}

// Synthesizer produces per-frame patterns, layering random bit-flips on
// top of the canonical encoding while a slot is corrupted. A corrupted
// display can show segment combinations no digit maps to.
type Synthesizer struct {
	rng *rand.Rand
}

func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// PatternFor maps a glyph to its pattern. Corruption flips 1–3 segment
// bits via XOR; corruption symbols outside 0–9 degrade to a blank base.
func (s *Synthesizer) PatternFor(glyph rune, corrupted bool) Pattern {
	p, _ := Canonical(glyph)
	if !corrupted {
		return p
	}
	flips := 1 + s.rng.Intn(3)
	for _, seg := range s.rng.Perm(SegmentCount)[:flips] {
		p ^= 1 << uint(seg)
	}
	return p
}
