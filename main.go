package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-isatty"

	"github.com/echoflaresat/spacescroll/astro"
	"github.com/echoflaresat/spacescroll/choreo"
	"github.com/echoflaresat/spacescroll/cue"
	"github.com/echoflaresat/spacescroll/host"
	"github.com/echoflaresat/spacescroll/host/term"
	"github.com/echoflaresat/spacescroll/host/window"
	"github.com/echoflaresat/spacescroll/journal"
	"github.com/echoflaresat/spacescroll/loop"
	"github.com/echoflaresat/spacescroll/page"
	"github.com/echoflaresat/spacescroll/render"
	"github.com/echoflaresat/spacescroll/texture"
)

type config struct {
	host              *string
	width, height     *int
	dpr               *float64
	hero, pageHeight  *float64
	moonGating        *bool
	sunTime           *string
	supersample       *int
	workers           *int
	earth, clouds     *string
	moon, mars        *string
	frames            *int
	scroll            *string
	out               *string
	journal, replay   *string
	sound             *bool
	logJSON, showHelp *bool
}

func defineFlags() config {
	a := choreo.DefaultAssets()
	return config{
		host:       flag.String("host", "window", "Where to show the page: window, term or headless"),
		width:      flag.Int("width", 1280, "Viewport width in CSS pixels (window, headless)"),
		height:     flag.Int("height", 720, "Viewport height in CSS pixels (window, headless)"),
		dpr:        flag.Float64("dpr", 1, "Device pixel ratio"),
		hero:       flag.Float64("hero", 0, "Hero section height in CSS pixels; 0 follows the viewport height"),
		pageHeight: flag.Float64("page", 3000, "Total page height in CSS pixels"),

		moonGating: flag.Bool("moon-gating", true, "Hide the Moon once the page scrolls past the hero section"),
		sunTime:    flag.String("sun-time", "", "Place the light at the Sun's position at this RFC3339 time"),

		supersample: flag.Int("supersample", 1, "Supersampling factor (higher is slower but smoother)"),
		workers:     flag.Int("workers", 0, "Render workers; 0 uses GOMAXPROCS"),

		earth:  flag.String("earth", a.EarthSurface, "Earth surface texture path"),
		clouds: flag.String("clouds", a.EarthClouds, "Cloud layer texture path"),
		moon:   flag.String("moon", a.MoonSurface, "Moon surface texture path"),
		mars:   flag.String("mars", a.MarsSurface, "Mars surface texture path"),

		frames:  flag.Int("frames", 0, "Stop after N frames; headless defaults to one per scroll offset"),
		scroll:  flag.String("scroll", "0", "Headless: comma-separated scroll offsets, one per frame, cycling"),
		out:     flag.String("out", "frames", "Headless: PNG output directory (empty to skip writing)"),
		journal: flag.String("journal", "", "Record every event to this SQLite file"),
		replay:  flag.String("replay", "", "Replay a journal session (id or \"latest\") and report divergence"),

		sound:    flag.Bool("sound", false, "Chime when the Moon appears or hides (term host)"),
		logJSON:  flag.Bool("log-json", false, "Log JSON even on a terminal"),
		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `spacescroll - scroll-driven solar system landing page

Usage:
  %[1]s [options]

`, os.Args[0])

	printGroup("Host Options", []string{"host", "width", "height", "dpr", "hero", "page"})
	printGroup("Choreography", []string{"moon-gating", "sun-time"})
	printGroup("Rendering Options", []string{"supersample", "workers"})
	printGroup("Assets", []string{"earth", "clouds", "moon", "mars"})
	printGroup("Headless & Journal", []string{"frames", "scroll", "out", "journal", "replay"})
	printGroup("Misc", []string{"sound", "log-json", "h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-12s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func newLogger(forceJSON bool) *slog.Logger {
	fd := os.Stderr.Fd()
	if !forceJSON && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func main() {
	cfg := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *cfg.showHelp {
		printHelp()
		return
	}

	logger := newLogger(*cfg.logJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *cfg.replay != "" {
		if err := replay(*cfg.journal, *cfg.replay, logger); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	choreoCfg := choreo.DefaultConfig()
	choreoCfg.Assets = choreo.Assets{
		EarthSurface: *cfg.earth,
		EarthClouds:  *cfg.clouds,
		MoonSurface:  *cfg.moon,
		MarsSurface:  *cfg.mars,
	}
	choreoCfg.MoonGating = *cfg.moonGating
	if *cfg.sunTime != "" {
		t, err := time.Parse(time.RFC3339, *cfg.sunTime)
		if err != nil {
			return fmt.Errorf("invalid -sun-time: %w", err)
		}
		choreoCfg.LightPosition = astro.LightPosition(t, choreo.DefaultLightPosition.Norm())
		logger.Info("light placed at solar position", "time", t, "position", choreoCfg.LightPosition)
	}
	choreoCfg.OnMoonToggle = func(visible bool) {
		logger.Debug("moon visibility changed", "visible", visible)
	}

	var screen tcell.Screen
	width, height, dpr := *cfg.width, *cfg.height, *cfg.dpr
	if *cfg.host == "term" {
		s, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := s.Init(); err != nil {
			return err
		}
		defer s.Fini()
		screen = s
		width, height = term.ViewportSize(screen)
		dpr = 1

		if *cfg.sound {
			player := cue.New(0.3, logger)
			if err := player.Initialize(); err != nil {
				// Non-fatal, the page works without sound.
				logger.Warn("audio initialization failed", "err", err)
			}
			defer player.Close()
			choreoCfg.OnMoonToggle = player.MoonToggled
		}
	}

	p := page.New(width, height, dpr, *cfg.pageHeight)
	if *cfg.hero > 0 {
		p.HeroFraction = 0
		p.HeroHeight = *cfg.hero
	}

	loader, err := texture.NewLoader(8, logger)
	if err != nil {
		return err
	}
	renderer := render.New(render.Options{
		Supersampling: *cfg.supersample,
		Workers:       *cfg.workers,
	})
	c := choreo.New(choreoCfg, p.Viewport(), renderer, loader)

	handlers := host.Direct(c)
	if *cfg.journal != "" {
		db, err := journal.Open(*cfg.journal)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err := db.Record(c, p.Viewport(), choreoCfg.MoonGating, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("journal flush failed", "err", err)
			}
		}()
		handlers = rec
	}

	s := host.NewSession(p, handlers, renderer)

	logger.Info("starting",
		"host", *cfg.host,
		"viewport", fmt.Sprintf("%dx%d@%g", p.Width, p.Height, p.DevicePixelRatio),
		"hero", p.HeroHeight,
		"moonGating", choreoCfg.MoonGating,
	)

	switch *cfg.host {
	case "window":
		return window.Run(s, window.Config{Frames: uint64(max(*cfg.frames, 0))}, logger)
	case "term":
		ticker, err := loop.NewTicker(30)
		if err != nil {
			return err
		}
		return term.New(screen, s, logger).Run(ctx, ticker, loop.Config{Frames: uint64(max(*cfg.frames, 0))})
	case "headless":
		scrolls, err := parseScrolls(*cfg.scroll)
		if err != nil {
			return err
		}
		frames := *cfg.frames
		if frames <= 0 {
			frames = len(scrolls)
		}
		return runHeadless(ctx, s, loader, headless{Frames: frames, Scrolls: scrolls, OutDir: *cfg.out}, logger)
	default:
		return fmt.Errorf("unknown host %q (want window, term or headless)", *cfg.host)
	}
}

// parseScrolls reads a comma-separated list of scroll offsets.
func parseScrolls(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scroll offset %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scroll offsets in %q", s)
	}
	return out, nil
}

func replay(path, id string, logger *slog.Logger) error {
	if path == "" {
		return fmt.Errorf("-replay needs -journal")
	}
	db, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if id == "latest" {
		if id, err = db.Latest(); err != nil {
			return err
		}
	}
	s, events, err := db.Load(id)
	if err != nil {
		return err
	}
	if d := journal.Replay(s, events); d != nil {
		return d
	}
	logger.Info("replay matched recording", "session", s.ID, "events", len(events), "recorded", s.Created())
	return nil
}
