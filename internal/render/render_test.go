package render

import (
	"image"
	"testing"

	"github.com/ivlev/timer2video/internal/config"
	"github.com/ivlev/timer2video/internal/effects"
	"github.com/ivlev/timer2video/internal/frame"
	"github.com/ivlev/timer2video/internal/glitch"
	"github.com/ivlev/timer2video/internal/segments"
)

const (
	testW = 320
	testH = 180
)

var red = config.RGB{R: 255}

// stateFor builds a frame state showing the given glyphs with the
// canonical patterns and a neutral transform.
func stateFor(glyphs string) *frame.FrameState {
	fs := &frame.FrameState{Transform: effects.Neutral()}
	for _, g := range glyphs {
		p, _ := segments.Canonical(g)
		fs.Slots = append(fs.Slots, glitch.CharacterSlot{Glyph: g, Color: red})
		fs.Patterns = append(fs.Patterns, p)
	}
	return fs
}

func countLit(img *image.RGBA) int {
	lit := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R != 0 || c.G != 0 || c.B != 0 {
				lit++
			}
		}
	}
	return lit
}

func TestDrawLightsSegments(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	img := r.Draw(stateFor("88:88"))
	defer r.Release(img)

	if img.Bounds() != image.Rect(0, 0, testW, testH) {
		t.Fatalf("unexpected frame bounds %v", img.Bounds())
	}
	if lit := countLit(img); lit == 0 {
		t.Error("all-eights frame must light pixels")
	}
}

func TestDrawMoreSegmentsMorePixels(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	eights := r.Draw(stateFor("88:88"))
	ones := r.Draw(stateFor("11:11"))
	defer r.Release(eights)
	defer r.Release(ones)

	if countLit(eights) <= countLit(ones) {
		t.Error("an 8 lights more pixels than a 1")
	}
}

func TestDrawInvisibleFrameIsBlack(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Transform.Visible = false

	img := r.Draw(fs)
	defer r.Release(img)

	if lit := countLit(img); lit != 0 {
		t.Errorf("invisible frame must be fully black, %d pixels lit", lit)
	}
}

func TestDrawUsesSlotColor(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Slots[0].Color = config.RGB{G: 255}

	img := r.Draw(fs)
	defer r.Release(img)

	green := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.G != 0 && c.R == 0 {
				green++
			}
		}
	}
	if green == 0 {
		t.Error("recolored slot must produce green pixels")
	}
}

func TestDrawPulseKeepsBounds(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Transform.Scale = 1.3

	img := r.Draw(fs)
	defer r.Release(img)

	if img.Bounds() != image.Rect(0, 0, testW, testH) {
		t.Fatalf("pulse must not change frame bounds, got %v", img.Bounds())
	}
	if countLit(img) == 0 {
		t.Error("scaled frame must still light pixels")
	}
}

func TestDrawSnake(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Transform.SnakeStep = 1

	img := r.Draw(fs)
	defer r.Release(img)

	lit := countLit(img)
	if lit == 0 {
		t.Fatal("snake frame must light pixels")
	}

	full := r.Draw(stateFor("88:88"))
	defer r.Release(full)
	if lit >= countLit(full) {
		t.Error("the snake trail lights fewer pixels than the full display")
	}
}

func TestDrawWaveShiftsDigits(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	flat := r.Draw(stateFor("88:88"))
	defer r.Release(flat)

	fs := stateFor("88:88")
	fs.Transform.WaveAmplitude = 0.3
	fs.Transform.WavePhase = 0.4
	waved := r.Draw(fs)
	defer r.Release(waved)

	diff := 0
	b := flat.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if flat.RGBAAt(x, y) != waved.RGBAAt(x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Error("wave transform must move pixels")
	}
}

func TestDrawOddEvenReveal(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	full := r.Draw(stateFor("88:88"))
	defer r.Release(full)

	hidden := stateFor("88:88")
	hidden.Transform.RevealStage = 0
	masked := r.Draw(hidden)
	defer r.Release(masked)

	// Стадия 0 гасит четные позиции, так что пикселей меньше.
	if countLit(masked) >= countLit(full) {
		t.Error("reveal stage 0 must hide the even digit positions")
	}

	done := stateFor("88:88")
	done.Transform.RevealStage = 2
	settled := r.Draw(done)
	defer r.Release(settled)

	if countLit(settled) != countLit(full) {
		t.Error("reveal stage 2 must show the full display")
	}
}

func TestDrawCountUpOverridesDisplay(t *testing.T) {
	r, err := New(testW, testH, "")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Transform.CountUpSeconds = 0
	counting := r.Draw(fs)
	defer r.Release(counting)

	if countLit(counting) == 0 {
		t.Fatal("count-up frame must light pixels")
	}

	// «00:00» зажигает меньше сегментов, чем «88:88» под слотами.
	full := r.Draw(stateFor("88:88"))
	defer r.Release(full)
	if countLit(counting) >= countLit(full) {
		t.Error("count-up must draw its own digits, not the countdown")
	}
}

func TestQRStamp(t *testing.T) {
	r, err := New(testW, testH, "https://example.com/feed")
	if err != nil {
		t.Fatal(err)
	}

	fs := stateFor("88:88")
	fs.Transform.Visible = false

	img := r.Draw(fs)
	defer r.Release(img)

	// Видимость выключена, так что все горящие пиксели — QR-код
	// в правом нижнем углу.
	lit := countLit(img)
	if lit == 0 {
		t.Fatal("expected QR pixels on an otherwise black frame")
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if (c.R != 0 || c.G != 0 || c.B != 0) && (x < testW/2 || y < testH/2) {
				t.Fatalf("QR pixel (%d, %d) outside the bottom-right quadrant", x, y)
			}
		}
	}
}

func TestNewRejectsOversizedQRContent(t *testing.T) {
	long := make([]byte, 8000)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := New(testW, testH, string(long)); err == nil {
		t.Error("expected an error for content beyond QR capacity")
	}
}
