package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
)

// StreamParams описывает единый выходной поток: все кадры одного размера
// подаются как rawvideo через stdin.
type StreamParams struct {
	Width   int
	Height  int
	FPS     int
	Output  string
	Encoder string
	Quality int
}

// Encoder принимает упорядоченный поток кадров и собирает из него видео.
type Encoder interface {
	EncodeStream(ctx context.Context, frames <-chan *image.RGBA, release func(*image.RGBA), params StreamParams) error
}

type FFmpegEncoder struct{}

func (e *FFmpegEncoder) EncodeStream(ctx context.Context, frames <-chan *image.RGBA, release func(*image.RGBA), params StreamParams) error {
	args := buildFFmpegArgs(params)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	writeErr := func() error {
		defer stdin.Close()
		var firstErr error
		for img := range frames {
			if firstErr == nil {
				if _, err := stdin.Write(img.Pix); err != nil {
					// Дочитываем канал, чтобы не заблокировать продюсера.
					firstErr = fmt.Errorf("write raw error: %w", err)
				}
			}
			if release != nil {
				release(img)
			}
		}
		return firstErr
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v\nLog: %s", err, out.String())
	}
	return writeErr
}

func buildFFmpegArgs(params StreamParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-r", fmt.Sprintf("%d", params.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", params.Encoder,
	}

	// Качество в зависимости от энкодера
	switch params.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := params.Quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", params.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", params.Quality), "-preset", "medium")
	}

	args = append(args, params.Output)
	return args
}
