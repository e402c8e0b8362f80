package frame

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/timer2video/internal/config"
	"github.com/ivlev/timer2video/internal/director"
	"github.com/ivlev/timer2video/internal/distortion"
	"github.com/ivlev/timer2video/internal/glitch"
	"github.com/ivlev/timer2video/internal/segments"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{59, "00:59"},
		{60, "01:00"},
		{150, "02:30"},
		{599, "09:59"},
		{600, "10:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, string(FormatTime(tc.seconds)), "seconds=%d", tc.seconds)
	}
}

func newTestGenerator(seed int64, totalFrames int, trackCfg glitch.TrackConfig,
	zones []distortion.SpeedZone, sched director.Schedule) *Generator {

	rng := rand.New(rand.NewSource(seed))
	dist := distortion.New(float64(totalFrames), 1, totalFrames, zones, nil)
	track := glitch.NewTrack(trackCfg, SlotCount, rng)
	synth := segments.NewSynthesizer(rng)
	return NewGenerator(dist, track, synth, sched, 0)
}

func cleanTrackConfig() glitch.TrackConfig {
	return glitch.TrackConfig{BaseColor: config.RGB{R: 255}}
}

func TestPlainCountdownSequence(t *testing.T) {
	g := newTestGenerator(1, 10, cleanTrackConfig(), nil, director.Schedule{})
	require.Equal(t, 10, g.Total())

	for f := 0; f < 10; f++ {
		fs, ok := g.Next()
		require.True(t, ok, "frame %d", f)
		assert.Equal(t, f, fs.Index)
		assert.Equal(t, 10-f, fs.DisplayTime)
		require.Len(t, fs.Slots, SlotCount)
		require.Len(t, fs.Patterns, SlotCount)

		want := FormatTime(10 - f)
		for i, slot := range fs.Slots {
			assert.Equal(t, want[i], slot.Glyph, "frame %d slot %d", f, i)
			assert.False(t, slot.Corrupted)
		}
		assert.Nil(t, fs.Active)
		assert.True(t, fs.Transform.Visible)
	}
}

func TestSequenceExhaustion(t *testing.T) {
	g := newTestGenerator(1, 3, cleanTrackConfig(), nil, director.Schedule{})
	for f := 0; f < 3; f++ {
		_, ok := g.Next()
		require.True(t, ok)
	}
	for i := 0; i < 3; i++ {
		fs, ok := g.Next()
		assert.False(t, ok)
		assert.Nil(t, fs)
	}
}

func TestReversalThroughGenerator(t *testing.T) {
	zones := []distortion.SpeedZone{{Start: 3, End: 5, Multiplier: -1}}
	rng := rand.New(rand.NewSource(2))
	dist := distortion.New(10, 1, 8, zones, nil)
	track := glitch.NewTrack(cleanTrackConfig(), SlotCount, rng)
	g := NewGenerator(dist, track, segments.NewSynthesizer(rng), director.Schedule{}, 0)

	expected := []int{10, 9, 8, 9, 10, 9, 8, 7}
	for f, want := range expected {
		fs, ok := g.Next()
		require.True(t, ok)
		assert.Equal(t, want, fs.DisplayTime, "frame %d", f)
	}
}

func TestCorruptedSlotsGetGlitchedPatterns(t *testing.T) {
	trackCfg := cleanTrackConfig()
	trackCfg.CorruptionChance = 1.0
	trackCfg.CorruptMin = 100
	trackCfg.CorruptMax = 100

	g := newTestGenerator(3, 50, trackCfg, nil, director.Schedule{})

	for f := 0; f < 50; f++ {
		fs, ok := g.Next()
		require.True(t, ok)
		for i, slot := range fs.Slots {
			if !slot.Corrupted {
				continue
			}
			truth := FormatTime(fs.DisplayTime)[i]
			assert.NotEqual(t, truth, slot.Glyph, "frame %d slot %d", f, i)
			// Символы подмены не цифры: база пуста, так что биты порчи
			// обязаны что-то зажечь.
			assert.NotZero(t, fs.Patterns[i],
				"frame %d slot %d: corrupted slot must light some segments", f, i)
		}
	}
}

func TestActiveEventDrivesTransform(t *testing.T) {
	sched := director.Schedule{Events: []director.Event{{
		StartFrame:     2,
		DurationFrames: 4,
		Kind:           director.KindLightning,
		Params:         director.Params{Period: 2},
	}}}
	g := newTestGenerator(4, 10, cleanTrackConfig(), nil, sched)

	for f := 0; f < 10; f++ {
		fs, ok := g.Next()
		require.True(t, ok)
		if f >= 2 && f < 6 {
			require.NotNil(t, fs.Active, "frame %d", f)
			assert.Equal(t, director.KindLightning, fs.Active.Kind)
			assert.InDelta(t, float64(f-2)/4, fs.Progress, 1e-9)
		} else {
			assert.Nil(t, fs.Active, "frame %d", f)
			assert.Equal(t, 0.0, fs.Progress)
			assert.True(t, fs.Transform.Visible)
		}
	}
}

func TestCorruptionRampsBeforeJump(t *testing.T) {
	trackCfg := cleanTrackConfig()
	trackCfg.RampChance = 0.9
	trackCfg.CorruptMin = 1
	trackCfg.CorruptMax = 3

	jumps := []distortion.JumpEvent{{TriggerFrame: 60, TargetSeconds: 10}}
	rng := rand.New(rand.NewSource(7))
	dist := distortion.New(100, 1, 80, nil, jumps)
	track := glitch.NewTrack(trackCfg, SlotCount, rng)
	g := NewGenerator(dist, track, segments.NewSynthesizer(rng), director.Schedule{}, 10)

	corruptedInWindow := 0
	for f := 0; f < 80; f++ {
		fs, ok := g.Next()
		require.True(t, ok)
		corrupted := false
		for _, slot := range fs.Slots {
			if slot.Corrupted {
				corrupted = true
			}
		}
		switch {
		case f < 50 || f >= 60:
			// Вне окна базовая вероятность нулевая: порча, начавшаяся в
			// окне, может дожить максимум 3 кадра после прыжка.
			if f < 50 || f >= 63 {
				assert.False(t, corrupted, "frame %d: corruption outside the pre-jump window", f)
			}
		default:
			if corrupted {
				corruptedInWindow++
			}
		}
	}
	assert.Greater(t, corruptedInWindow, 0, "the pre-jump window must glitch")
}

func TestGeneratorDeterminism(t *testing.T) {
	trackCfg := cleanTrackConfig()
	trackCfg.CorruptionChance = 0.1
	trackCfg.CorruptMin = 3
	trackCfg.CorruptMax = 12
	trackCfg.ColorChance = 0.05
	trackCfg.ColorMin = 5
	trackCfg.ColorMax = 10
	trackCfg.Palette = []config.RGB{{R: 255, B: 255}}

	a := newTestGenerator(55, 300, trackCfg, nil, director.Schedule{})
	b := newTestGenerator(55, 300, trackCfg, nil, director.Schedule{})

	for f := 0; f < 300; f++ {
		fa, okA := a.Next()
		fb, okB := b.Next()
		require.True(t, okA)
		require.True(t, okB)
		require.Equal(t, fa, fb, "frame %d", f)
	}
}
