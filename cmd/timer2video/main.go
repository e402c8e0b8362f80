package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ivlev/timer2video/internal/config"
	"github.com/ivlev/timer2video/internal/director"
	"github.com/ivlev/timer2video/internal/engine"
	"github.com/ivlev/timer2video/internal/render"
	"github.com/ivlev/timer2video/internal/system"
	"github.com/ivlev/timer2video/internal/video"
)

var buildVersion = "dev"

// applyFlagOverrides накладывает значения флагов на конфигурацию: при
// загрузке из файла побеждают только явно указанные флаги, иначе — все.
func applyFlagOverrides(cfg *config.Config, fromFile bool, explicit map[string]bool, overrides map[string]func(*config.Config)) {
	for name, apply := range overrides {
		if !fromFile || explicit[name] {
			apply(cfg)
		}
	}
}

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	os.MkdirAll("output", 0755)

	configPtr := flag.String("config", "", "Путь к YAML-конфигурации (флаги имеют приоритет)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	displayPtr := flag.Float64("display", 150, "Время на дисплее таймера (сек)")
	durationPtr := flag.Float64("duration", 110, "Реальная длительность видео (сек)")
	fpsPtr := flag.Int("fps", 15, "FPS")
	widthPtr := flag.Int("width", 1920, "Ширина")
	heightPtr := flag.Int("height", 1080, "Высота")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	seedPtr := flag.Int64("seed", 0, "Seed генератора (0 — случайный)")
	jumpsPtr := flag.Int("jumps", 0, "Число случайных прыжков времени")
	animationsPtr := flag.Int("animations", 0, "Число анимационных событий")
	corruptionPtr := flag.Float64("corruption", 0.003, "Вероятность порчи символа за кадр")
	colorPtr := flag.Float64("color-chance", 0.002, "Вероятность цветового глитча за кадр")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки рендеринга")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	qrPtr := flag.String("qr", "", "Содержимое QR-кода в углу кадра (пусто — без QR)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	genScenarioPtr := flag.Bool("gen-scenario", false, "Сгенерировать YAML-сценарий и выйти")
	scenarioPtr := flag.String("scenario", "", "Воспроизвести сценарий из YAML (latest — самый свежий)")
	scenarioOutPtr := flag.String("scenario-out", "", "Куда записать сценарий при -gen-scenario")

	flag.Parse()

	var cfg *config.Config
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		cfg = loaded
		fmt.Printf("[*] Конфигурация: %s\n", *configPtr)
	} else {
		cfg = config.Default()
	}

	// Явно указанные флаги перекрывают конфигурацию из файла.
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	applyFlagOverrides(cfg, *configPtr != "", explicit, map[string]func(*config.Config){
		"display":      func(c *config.Config) { c.DisplayDuration = *displayPtr },
		"duration":     func(c *config.Config) { c.ActualDuration = *durationPtr },
		"fps":          func(c *config.Config) { c.FPS = *fpsPtr },
		"width":        func(c *config.Config) { c.Width = *widthPtr },
		"height":       func(c *config.Config) { c.Height = *heightPtr },
		"seed":         func(c *config.Config) { c.Seed = *seedPtr },
		"jumps":        func(c *config.Config) { c.JumpCount = *jumpsPtr },
		"animations":   func(c *config.Config) { c.AnimationCount = *animationsPtr },
		"corruption":   func(c *config.Config) { c.CorruptionChance = *corruptionPtr },
		"color-chance": func(c *config.Config) { c.ColorChance = *colorPtr },
		"quality":      func(c *config.Config) { c.Quality = *qualityPtr },
		"qr":           func(c *config.Config) { c.QRContent = *qrPtr },
		"output":       func(c *config.Config) { c.OutputVideo = *outputPtr },
		"workers":      func(c *config.Config) { c.Workers = *workersPtr },
		"stats":        func(c *config.Config) { c.ShowStats = *statsPtr },
	})

	switch *presetPtr {
	case "16:9":
		cfg.Width, cfg.Height = 1920, 1080
	case "9:16":
		cfg.Width, cfg.Height = 1080, 1920
	case "4:5":
		cfg.Width, cfg.Height = 1080, 1350
	}

	cfg.GenerateScenario = *genScenarioPtr
	cfg.ScenarioOutput = *scenarioOutPtr
	cfg.BuildVersion = buildVersion

	if *scenarioPtr != "" {
		scenarioPath := *scenarioPtr
		if scenarioPath == "latest" {
			latest, err := director.FindLatestScenario(director.DefaultScenariosDir)
			if err != nil {
				log.Fatalf("[-] Ошибка: %v", err)
			}
			scenarioPath = latest
		}
		cfg.ScenarioInput = scenarioPath
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		fmt.Printf("[*] Seed выбран случайно: %d\n", cfg.Seed)
	}

	if cfg.OutputVideo == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("timer_%s.mp4", timestamp))
	}

	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}
	cfg.VideoEncoder = encoderName

	if cfg.Quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality := 75 // Хорошее качество для VideoToolbox
			cfg.Quality = quality
		case "h264_nvenc":
			cfg.Quality = 28 // Эквивалент CRF для NVENC
		default:
			cfg.Quality = 23 // Стандартный CRF для x264
		}
	}

	renderer, err := render.New(cfg.Width, cfg.Height, cfg.QRContent)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации рендерера: %v", err)
	}

	project := engine.NewVideoProject(cfg, renderer, &video.FFmpegEncoder{})
	if err := project.Run(context.Background()); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if !cfg.GenerateScenario {
		fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	}
}
