// Package render rasterizes frame states: a simulated seven-segment
// display on a black background, per-character colors, animation
// transforms and an optional QR watermark.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/timer2video/internal/config"
	"github.com/ivlev/timer2video/internal/frame"
	"github.com/ivlev/timer2video/internal/segments"
	"github.com/ivlev/timer2video/internal/system"
)

// wavePhaseStep is the per-slot phase offset that makes the wave travel
// through the digits.
const wavePhaseStep = 0.15

type Renderer struct {
	width  int
	height int
	pool   *system.FramePool
	qr     *image.RGBA
}

func New(width, height int, qrContent string) (*Renderer, error) {
	r := &Renderer{
		width:  width,
		height: height,
		pool:   system.NewFramePool(width, height),
	}
	if qrContent != "" {
		q, err := qrcode.New(qrContent, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать QR-код: %w", err)
		}
		size := height / 6
		if size < 64 {
			size = 64
		}
		src := q.Image(size)
		r.qr = image.NewRGBA(src.Bounds())
		draw.Draw(r.qr, src.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	return r, nil
}

// Release returns a frame buffer to the pool once it has been encoded.
func (r *Renderer) Release(img *image.RGBA) {
	r.pool.Put(img)
}

// Draw rasterizes one frame state. The returned buffer comes from the
// frame pool; hand it back via Release after use.
func (r *Renderer) Draw(fs *frame.FrameState) *image.RGBA {
	img := r.pool.Get()
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	if fs.Transform.Visible {
		switch {
		case fs.Transform.SnakeStep >= 0:
			r.drawSnake(img, fs)
		case fs.Transform.CountUpSeconds >= 0:
			r.drawCountUp(img, fs)
		default:
			r.drawSlots(img, fs)
		}
	}

	if fs.Transform.Scale != 1 && fs.Transform.Scale > 0 {
		img = r.pulse(img, fs.Transform.Scale)
	}

	if r.qr != nil {
		r.stampQR(img)
	}
	return img
}

type layout struct {
	glyphH int
	digitW int
	colonW int
	gap    int
	startX int
	baseY  int
}

func (r *Renderer) layoutFor(slots int) layout {
	l := layout{}
	l.glyphH = int(float64(r.height) * 0.55)
	l.digitW = l.glyphH / 2
	l.colonW = l.glyphH / 4
	l.gap = l.glyphH / 6

	totalW := 0
	for i := 0; i < slots; i++ {
		if i == 2 {
			totalW += l.colonW
		} else {
			totalW += l.digitW
		}
		if i != slots-1 {
			totalW += l.gap
		}
	}
	l.startX = (r.width - totalW) / 2
	l.baseY = (r.height - l.glyphH) / 2
	return l
}

func (r *Renderer) drawSlots(img *image.RGBA, fs *frame.FrameState) {
	l := r.layoutFor(len(fs.Slots))
	spinSteps := 0
	if fs.Transform.Angle != 0 {
		// Шесть положений внешних сегментов на полный оборот.
		spinSteps = int(math.Round(fs.Transform.Angle / (math.Pi / 3)))
	}

	x := l.startX
	for i, slot := range fs.Slots {
		dy := 0
		if fs.Transform.WaveAmplitude != 0 {
			phase := fs.Transform.WavePhase + float64(i)*wavePhaseStep
			dy = int(fs.Transform.WaveAmplitude * float64(l.glyphH) * math.Sin(2*math.Pi*phase))
		}
		c := rgba(slot.Color)

		if slot.Glyph == ':' || slot.Glyph == ';' {
			r.drawColon(img, x, l.baseY+dy, l.colonW, l.glyphH, c, slot.Glyph == ';')
			x += l.colonW + l.gap
			continue
		}

		pattern := fs.Patterns[i]
		// Проявление по нечетным/четным позициям: сначала восьмерки на
		// нечетных, потом настоящие цифры на четных, потом все.
		switch fs.Transform.RevealStage {
		case 0:
			if i%2 == 1 {
				pattern, _ = segments.Canonical('8')
			} else {
				pattern = 0
			}
		case 1:
			if i%2 == 1 {
				pattern, _ = segments.Canonical('8')
			}
		}
		if spinSteps != 0 {
			pattern = pattern.RotateOuter(spinSteps)
		}
		r.drawPattern(img, x, l.baseY+dy, l.digitW, l.glyphH, pattern, c)
		x += l.digitW + l.gap
	}
}

// snakeFrames is the running-lights sequence: a lit trail crawling across
// all five display cells.
var snakeFrames = [][frame.SlotCount]segments.Pattern{
	{segments.SegG, 0, 0, 0, segments.SegG},
	{segments.SegB | segments.SegC, segments.SegG, 0, 0, segments.SegG},
	{segments.SegB | segments.SegC, segments.SegB | segments.SegC, 0, 0, segments.SegG},
	{segments.SegB | segments.SegC, segments.SegB | segments.SegC, segments.SegG, 0, segments.SegG},
	{segments.SegB | segments.SegC, segments.SegB | segments.SegC, segments.SegG, segments.SegG, segments.SegB | segments.SegC},
	{segments.SegB | segments.SegC, segments.SegB | segments.SegC, segments.SegG, segments.SegB | segments.SegC, segments.SegB | segments.SegC},
	{segments.SegG, segments.SegB | segments.SegC, segments.SegG, segments.SegB | segments.SegC, segments.SegB | segments.SegC},
	{0, segments.SegG, segments.SegG, segments.SegB | segments.SegC, segments.SegB | segments.SegC},
	{0, 0, segments.SegG, segments.SegB | segments.SegC, segments.SegB | segments.SegC},
	{0, 0, segments.SegG, segments.SegG, segments.SegB | segments.SegC},
	{0, 0, segments.SegG, segments.SegG, 0},
}

func (r *Renderer) drawSnake(img *image.RGBA, fs *frame.FrameState) {
	l := r.layoutFor(frame.SlotCount)
	patterns := snakeFrames[fs.Transform.SnakeStep%len(snakeFrames)]

	x := l.startX
	for i, p := range patterns {
		var c color.RGBA
		if i < len(fs.Slots) {
			c = rgba(fs.Slots[i].Color)
		} else {
			c = color.RGBA{R: 255, A: 255}
		}
		if i == 2 {
			if p != 0 {
				r.drawColon(img, x, l.baseY, l.colonW, l.glyphH, c, false)
			}
			x += l.colonW + l.gap
			continue
		}
		r.drawPattern(img, x, l.baseY, l.digitW, l.glyphH, p, c)
		x += l.digitW + l.gap
	}
}

// drawCountUp replaces the countdown with a rapid count from zero,
// keeping the per-slot colors of the underlying state.
func (r *Renderer) drawCountUp(img *image.RGBA, fs *frame.FrameState) {
	glyphs := frame.FormatTime(fs.Transform.CountUpSeconds)
	l := r.layoutFor(len(glyphs))

	x := l.startX
	for i, g := range glyphs {
		c := color.RGBA{R: 255, A: 255}
		if i < len(fs.Slots) {
			c = rgba(fs.Slots[i].Color)
		}
		if g == ':' {
			r.drawColon(img, x, l.baseY, l.colonW, l.glyphH, c, false)
			x += l.colonW + l.gap
			continue
		}
		p, _ := segments.Canonical(g)
		r.drawPattern(img, x, l.baseY, l.digitW, l.glyphH, p, c)
		x += l.digitW + l.gap
	}
}

// drawPattern paints the lit segments of one digit cell.
func (r *Renderer) drawPattern(img *image.RGBA, x, y, w, h int, p segments.Pattern, c color.RGBA) {
	t := int(float64(h) * 0.12)
	if t < 2 {
		t = 2
	}
	mid := y + (h-t)/2

	if p.Lit(segments.SegA) {
		fillRect(img, x+t, y, x+w-t, y+t, c)
	}
	if p.Lit(segments.SegG) {
		fillRect(img, x+t, mid, x+w-t, mid+t, c)
	}
	if p.Lit(segments.SegD) {
		fillRect(img, x+t, y+h-t, x+w-t, y+h, c)
	}
	if p.Lit(segments.SegF) {
		fillRect(img, x, y+t, x+t, mid, c)
	}
	if p.Lit(segments.SegB) {
		fillRect(img, x+w-t, y+t, x+w, mid, c)
	}
	if p.Lit(segments.SegE) {
		fillRect(img, x, mid+t, x+t, y+h-t, c)
	}
	if p.Lit(segments.SegC) {
		fillRect(img, x+w-t, mid+t, x+w, y+h-t, c)
	}
}

// drawColon paints the two separator dots; a corrupted colon (";") sags.
func (r *Renderer) drawColon(img *image.RGBA, x, y, w, h int, c color.RGBA, sag bool) {
	d := w / 2
	if d < 2 {
		d = 2
	}
	cx := x + (w-d)/2
	drop := 0
	if sag {
		drop = h / 10
	}
	fillRect(img, cx, y+h/3-d/2+drop, cx+d, y+h/3+d/2+drop, c)
	fillRect(img, cx, y+2*h/3-d/2+drop, cx+d, y+2*h/3+d/2+drop, c)
}

// pulse rescales the frame around its center and swaps buffers.
func (r *Renderer) pulse(img *image.RGBA, scale float64) *image.RGBA {
	dst := r.pool.Get()
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	sw := int(float64(r.width) * scale)
	sh := int(float64(r.height) * scale)
	x0 := (r.width - sw) / 2
	y0 := (r.height - sh) / 2
	target := image.Rect(x0, y0, x0+sw, y0+sh)

	xdraw.ApproxBiLinear.Scale(dst, target, img, img.Bounds(), draw.Over, nil)
	r.pool.Put(img)
	return dst
}

func (r *Renderer) stampQR(img *image.RGBA) {
	margin := r.height / 36
	b := r.qr.Bounds()
	target := image.Rect(r.width-b.Dx()-margin, r.height-b.Dy()-margin, r.width-margin, r.height-margin)
	draw.Draw(img, target, r.qr, b.Min, draw.Over)
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func rgba(c config.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
