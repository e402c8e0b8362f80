package config

import (
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// RGB is a plain 8-bit color triple. The core makes no assumption about
// color space beyond this.
type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Zone describes a contiguous frame range with a fixed time-flow multiplier.
// The range is half-open: [Start, End).
type Zone struct {
	Start      int     `yaml:"start"`
	End        int     `yaml:"end"`
	Multiplier float64 `yaml:"multiplier"`
}

type Config struct {
	OutputVideo     string  `yaml:"output"`
	DisplayDuration float64 `yaml:"display_duration"`
	ActualDuration  float64 `yaml:"actual_duration"`
	FPS             int     `yaml:"fps"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Seed            int64   `yaml:"seed"`

	Zones            []Zone  `yaml:"zones"`
	JumpCount        int     `yaml:"jump_count"`
	JumpMinSpacing   float64 `yaml:"jump_min_spacing"`   // секунды между прыжками
	JumpGlitchWindow float64 `yaml:"jump_glitch_window"` // секунды нарастания порчи перед прыжком
	JumpGlitchChance float64 `yaml:"jump_glitch_chance"` // пиковая добавка к вероятности порчи у прыжка

	CorruptionChance float64 `yaml:"corruption_chance"`
	CorruptMinFrames int     `yaml:"corrupt_min_frames"`
	CorruptMaxFrames int     `yaml:"corrupt_max_frames"`
	ColorChance      float64 `yaml:"color_chance"`
	ColorMinFrames   int     `yaml:"color_min_frames"`
	ColorMaxFrames   int     `yaml:"color_max_frames"`
	TextColor        RGB     `yaml:"text_color"`
	Palette          []RGB   `yaml:"palette"`

	AnimationCount     int      `yaml:"animation_count"`
	AnimationMinFrames int      `yaml:"animation_min_frames"`
	AnimationMaxFrames int      `yaml:"animation_max_frames"`
	AnimationMinGap    int      `yaml:"animation_min_gap"`
	Catalog            []string `yaml:"catalog"`

	VideoEncoder string `yaml:"encoder"`
	Quality      int    `yaml:"quality"`
	Workers      int    `yaml:"workers"`
	QRContent    string `yaml:"qr"`
	ShowStats    bool   `yaml:"stats"`

	ScenarioInput    string `yaml:"-"`
	GenerateScenario bool   `yaml:"-"`
	ScenarioOutput   string `yaml:"-"`
	BuildVersion     string `yaml:"-"`
}

// Default returns the settings the original timer scripts shipped with.
func Default() *Config {
	return &Config{
		DisplayDuration:  150,
		ActualDuration:   110,
		FPS:              15,
		Width:            1920,
		Height:           1080,
		JumpMinSpacing:   5.0,
		JumpGlitchWindow: 5.0,
		JumpGlitchChance: 0.1,

		CorruptionChance: 0.003,
		CorruptMinFrames: 5,
		CorruptMaxFrames: 38,
		ColorChance:      0.002,
		ColorMinFrames:   15,
		ColorMaxFrames:   45,
		TextColor:        RGB{R: 255},
		Palette: []RGB{
			{R: 255, G: 0, B: 255},
			{R: 255, G: 255, B: 255},
			{R: 255, G: 255, B: 0},
		},

		AnimationMinFrames: 30,
		AnimationMaxFrames: 90,
		AnimationMinGap:    20,
		Quality:            23,
		Workers:            runtime.NumCPU(),
	}
}

// TotalFrames derives the frame count from the actual duration and FPS.
func (c *Config) TotalFrames() int {
	return int(math.Round(c.ActualDuration * float64(c.FPS)))
}

// Load reads a YAML config over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects malformed input before any generation starts.
// Each failure mode gets its own error so the caller can report precisely.
func (c *Config) Validate() error {
	if c.DisplayDuration <= 0 {
		return fmt.Errorf("display_duration должен быть > 0, получено %.2f", c.DisplayDuration)
	}
	// Дисплей фиксированный, MM:SS: больше 99:59 не помещается.
	if c.DisplayDuration >= 6000 {
		return fmt.Errorf("display_duration %.0f не помещается в формат MM:SS (максимум 5999)", c.DisplayDuration)
	}
	if c.ActualDuration <= 0 {
		return fmt.Errorf("actual_duration должен быть > 0, получено %.2f", c.ActualDuration)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps должен быть > 0, получено %d", c.FPS)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("разрешение %dx%d некорректно", c.Width, c.Height)
	}
	total := c.TotalFrames()
	prevEnd := 0
	for i, z := range c.Zones {
		if z.Start < 0 || z.End > total || z.Start >= z.End {
			return fmt.Errorf("зона %d: диапазон [%d, %d) вне [0, %d)", i, z.Start, z.End, total)
		}
		if z.Multiplier == 0 {
			return fmt.Errorf("зона %d: множитель не может быть 0", i)
		}
		if z.Start < prevEnd {
			return fmt.Errorf("зона %d: пересекается с предыдущей или нарушен порядок", i)
		}
		prevEnd = z.End
	}
	if c.JumpCount < 0 {
		return fmt.Errorf("jump_count не может быть отрицательным")
	}
	if c.JumpGlitchWindow < 0 {
		return fmt.Errorf("jump_glitch_window не может быть отрицательным")
	}
	if c.JumpGlitchChance < 0 || c.JumpGlitchChance > 1 {
		return fmt.Errorf("jump_glitch_chance %.4f вне [0, 1]", c.JumpGlitchChance)
	}
	if c.CorruptionChance < 0 || c.CorruptionChance > 1 {
		return fmt.Errorf("corruption_chance %.4f вне [0, 1]", c.CorruptionChance)
	}
	if c.CorruptMinFrames > c.CorruptMaxFrames {
		return fmt.Errorf("corrupt_min_frames %d > corrupt_max_frames %d", c.CorruptMinFrames, c.CorruptMaxFrames)
	}
	if c.ColorChance < 0 || c.ColorChance > 1 {
		return fmt.Errorf("color_chance %.4f вне [0, 1]", c.ColorChance)
	}
	if c.ColorMinFrames > c.ColorMaxFrames {
		return fmt.Errorf("color_min_frames %d > color_max_frames %d", c.ColorMinFrames, c.ColorMaxFrames)
	}
	if c.ColorChance > 0 && len(c.Palette) == 0 {
		return fmt.Errorf("палитра пуста при ненулевом color_chance")
	}
	if c.AnimationCount < 0 {
		return fmt.Errorf("animation_count не может быть отрицательным")
	}
	if c.AnimationCount > 0 && c.AnimationMinFrames > c.AnimationMaxFrames {
		return fmt.Errorf("animation_min_frames %d > animation_max_frames %d", c.AnimationMinFrames, c.AnimationMaxFrames)
	}
	return nil
}
