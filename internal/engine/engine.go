package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/timer2video/internal/config"
	"github.com/ivlev/timer2video/internal/director"
	"github.com/ivlev/timer2video/internal/distortion"
	"github.com/ivlev/timer2video/internal/frame"
	"github.com/ivlev/timer2video/internal/glitch"
	"github.com/ivlev/timer2video/internal/render"
	"github.com/ivlev/timer2video/internal/segments"
	"github.com/ivlev/timer2video/internal/system"
	"github.com/ivlev/timer2video/internal/video"
)

type VideoProject struct {
	Config   *config.Config
	Renderer *render.Renderer
	Encoder  video.Encoder
}

func NewVideoProject(cfg *config.Config, r *render.Renderer, enc video.Encoder) *VideoProject {
	return &VideoProject{
		Config:   cfg,
		Renderer: r,
		Encoder:  enc,
	}
}

func (p *VideoProject) Run(ctx context.Context) error {
	startTime := time.Now()

	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	plan, err := p.buildPlan()
	if err != nil {
		return err
	}

	// Режим генерации сценария: записываем план и выходим.
	if p.Config.GenerateScenario {
		return p.writeScenario(plan)
	}

	totalFrames := p.Config.TotalFrames()
	fmt.Println("--- [PROJECT: TIMER ENGINE] ---")
	fmt.Printf("[*] Кадров: %d | %dx%d @ %d FPS\n", totalFrames, p.Config.Width, p.Config.Height, p.Config.FPS)
	fmt.Printf("[*] Таймер: %.0fs на дисплее за %.0fs видео | Seed: %d\n", p.Config.DisplayDuration, p.Config.ActualDuration, plan.Seed)
	fmt.Printf("[*] Зоны: %d | Прыжки: %d | Анимации: %d\n", len(plan.Zones), len(plan.Jumps), len(plan.Events))
	fmt.Println("-----------------------------")

	encodeErr := p.encodePass(ctx, plan, p.Config.VideoEncoder)
	if encodeErr != nil && p.Config.VideoEncoder != "libx264" {
		log.Printf("[!] Кодирование %s не удалось: %v", p.Config.VideoEncoder, encodeErr)
		fmt.Println("[!] Повторная попытка через libx264 (CPU)...")
		// Детерминизм: второй проход с тем же seed воспроизводит кадры байт в байт.
		encodeErr = p.encodePass(ctx, plan, "libx264")
	}
	if encodeErr != nil {
		return encodeErr
	}

	if p.Config.ShowStats {
		p.reportStats(startTime, totalFrames)
	}
	return nil
}

// buildPlan fixes everything random that precedes the frame loop: jump
// triggers, the animation schedule, the seed. A scenario file replays a
// previous plan verbatim.
func (p *VideoProject) buildPlan() (*director.Scenario, error) {
	cfg := p.Config

	if cfg.ScenarioInput != "" {
		plan, err := director.ReadScenario(cfg.ScenarioInput)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения сценария: %v", err)
		}
		fmt.Printf("[*] Используется сценарий: %s\n", cfg.ScenarioInput)
		return plan, nil
	}

	// Пустой список остается nil: сценарий с omitempty читается так же.
	var zones []distortion.SpeedZone
	for _, z := range cfg.Zones {
		zones = append(zones, distortion.SpeedZone{Start: z.Start, End: z.End, Multiplier: z.Multiplier})
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	totalFrames := cfg.TotalFrames()
	spacing := int(cfg.JumpMinSpacing * float64(cfg.FPS))

	catalog := director.DefaultCatalog
	if len(cfg.Catalog) > 0 {
		catalog = make([]director.Kind, len(cfg.Catalog))
		for i, k := range cfg.Catalog {
			catalog[i] = director.Kind(k)
		}
	}

	sched := director.BuildSchedule(rng, totalFrames, cfg.AnimationCount, catalog, director.Options{
		MinDuration: cfg.AnimationMinFrames,
		MaxDuration: cfg.AnimationMaxFrames,
		MinGap:      cfg.AnimationMinGap,
	})

	return &director.Scenario{
		Version: director.ScenarioVersion,
		Seed:    cfg.Seed,
		Zones:   zones,
		Jumps:   distortion.PlanJumps(rng, cfg.JumpCount, totalFrames, spacing, cfg.DisplayDuration),
		Events:  sched.Events,
	}, nil
}

func (p *VideoProject) writeScenario(plan *director.Scenario) error {
	outputPath := p.Config.ScenarioOutput
	if outputPath == "" {
		outputPath = director.GenerateScenarioPath()
	}
	os.MkdirAll(filepath.Dir(outputPath), 0755)

	if err := director.WriteScenario(plan, outputPath); err != nil {
		return err
	}
	fmt.Printf("[+++] Успех! Сценарий сохранен: %s\n", outputPath)
	return nil
}

// NewGenerator assembles the frame-state generator for one pass. Every
// random draw of the pass flows through the single seeded source, so a
// pass is reproducible from (plan, seed) alone.
func NewGenerator(cfg *config.Config, plan *director.Scenario) *frame.Generator {
	rng := rand.New(rand.NewSource(plan.Seed))
	dist := distortion.New(cfg.DisplayDuration, cfg.FPS, cfg.TotalFrames(), plan.Zones, plan.Jumps)
	track := glitch.NewTrack(glitch.TrackConfig{
		CorruptionChance: cfg.CorruptionChance,
		CorruptMin:       cfg.CorruptMinFrames,
		CorruptMax:       cfg.CorruptMaxFrames,
		ColorChance:      cfg.ColorChance,
		ColorMin:         cfg.ColorMinFrames,
		ColorMax:         cfg.ColorMaxFrames,
		BaseColor:        cfg.TextColor,
		Palette:          cfg.Palette,
		RampChance:       cfg.JumpGlitchChance,
	}, frame.SlotCount, rng)
	synth := segments.NewSynthesizer(rng)
	rampFrames := int(cfg.JumpGlitchWindow * float64(cfg.FPS))
	return frame.NewGenerator(dist, track, synth, director.Schedule{Events: plan.Events}, rampFrames)
}

type renderedFrame struct {
	index int
	img   *image.RGBA
}

// encodePass runs the full pipeline once with the given encoder:
// последовательная генерация состояний -> пул рендер-воркеров ->
// восстановление порядка -> ffmpeg.
func (p *VideoProject) encodePass(ctx context.Context, plan *director.Scenario, encoderName string) error {
	cfg := p.Config
	gen := NewGenerator(cfg, plan)
	totalFrames := gen.Total()

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > totalFrames {
		workers = totalFrames
	}

	states := make(chan *frame.FrameState, workers)
	rendered := make(chan renderedFrame, workers)
	encodeIn := make(chan *image.RGBA, workers)

	g, ctx := errgroup.WithContext(ctx)

	// 1. Генерация состояний (строго последовательная: трек символов
	// зависит от предыдущего кадра).
	g.Go(func() error {
		defer close(states)
		progressStep := cfg.FPS * 5
		if progressStep <= 0 {
			progressStep = 100
		}
		for {
			fs, ok := gen.Next()
			if !ok {
				return nil
			}
			if fs.Index > 0 && fs.Index%progressStep == 0 {
				fmt.Printf("[>] Кадры: %d/%d\n", fs.Index, totalFrames)
			}
			select {
			case states <- fs:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// 2. Рендер-пул (CPU bound). Состояния независимы после генерации.
	renderGroup, renderCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		renderGroup.Go(func() error {
			for fs := range states {
				img := p.Renderer.Draw(fs)
				select {
				case rendered <- renderedFrame{index: fs.Index, img: img}:
				case <-renderCtx.Done():
					return renderCtx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		err := renderGroup.Wait()
		close(rendered)
		return err
	})

	// 3. Восстановление порядка кадров перед потоковым кодированием.
	g.Go(func() error {
		defer close(encodeIn)
		pending := make(map[int]*image.RGBA)
		next := 0
		for rf := range rendered {
			pending[rf.index] = rf.img
			for {
				img, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				select {
				case encodeIn <- img:
				case <-ctx.Done():
					return ctx.Err()
				}
				next++
			}
		}
		return nil
	})

	// 4. Кодирование (GPU/CPU bound).
	g.Go(func() error {
		return p.Encoder.EncodeStream(ctx, encodeIn, p.Renderer.Release, video.StreamParams{
			Width:   cfg.Width,
			Height:  cfg.Height,
			FPS:     cfg.FPS,
			Output:  cfg.OutputVideo,
			Encoder: encoderName,
			Quality: cfg.Quality,
		})
	})

	return g.Wait()
}

func (p *VideoProject) reportStats(startTime time.Time, totalFrames int) {
	totalTime := time.Since(startTime)
	fps := float64(totalFrames) / totalTime.Seconds()
	snap := system.SnapshotResources()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"%s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), totalFrames, fps, snap,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Total: %.2fs | FPS: %.2f | %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.OutputVideo),
		totalFrames,
		totalTime.Seconds(),
		fps,
		snap,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
