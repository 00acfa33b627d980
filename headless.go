package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/echoflaresat/spacescroll/host"
	"github.com/echoflaresat/spacescroll/loop"
	"github.com/echoflaresat/spacescroll/texture"
)

type headless struct {
	Frames  int
	Scrolls []float64
	// OutDir receives frame_NNNN.png per frame; empty skips writing.
	OutDir string
}

// runHeadless waits for the textures, then scrolls and renders one frame
// per entry of cfg.Scrolls (cycling) as fast as it can.
func runHeadless(ctx context.Context, s *host.Session, loader *texture.Loader, cfg headless, logger *slog.Logger) error {
	if err := loader.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("rendering with missing textures", "err", err)
	}

	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.OutDir, err)
		}
	}

	frame := 0
	err := loop.Step(cfg.Frames, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(cfg.Scrolls) > 0 {
			if err := s.ScrollTo(cfg.Scrolls[frame%len(cfg.Scrolls)]); err != nil {
				return err
			}
		}
		if err := s.Frame(); err != nil {
			return err
		}
		if cfg.OutDir != "" {
			path := filepath.Join(cfg.OutDir, fmt.Sprintf("frame_%04d.png", frame))
			if err := writePNG(path, s.Composite()); err != nil {
				return err
			}
			logger.Debug("frame written", "path", path, "scrollY", s.Page.ScrollY())
		}
		frame++
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("headless run finished", "frames", frame, "out", cfg.OutDir)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(f, img)
}
