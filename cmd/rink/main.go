// Command rink runs the air hockey table in a terminal, or headless for a
// fixed number of frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/akmonengine/rink/app"
	"github.com/akmonengine/rink/audio"
	"github.com/akmonengine/rink/config"
	"github.com/akmonengine/rink/logx"
	"github.com/akmonengine/rink/render"
	"github.com/gdamore/tcell/v2"
)

const headlessFrames = 600

func main() {
	configPath := flag.String("config", "", "TOML or YAML settings file")
	headless := flag.Bool("headless", false, "simulate without a terminal")
	frames := flag.Int("frames", 0, "stop after this many frames (headless default 600)")
	flag.Parse()

	if err := run(*configPath, *headless, *frames); err != nil {
		slog.Error("rink failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, headless bool, frames int) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if headless {
		cfg.Render.Renderer = "headless"
	}

	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.Render.Renderer == "headless" {
		return runHeadless(cfg, frames, logger)
	}
	return runTerminal(cfg, frames, logger)
}

// setupLogger writes to the configured file. Without one, the terminal mode
// only reports errors, on stderr after the screen is restored.
func setupLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	logx.UserLevel = level

	var w io.Writer = os.Stderr
	closeLog := func() {}
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	case cfg.Render.Renderer == "term":
		return logx.Discard(), closeLog, nil
	}
	return logx.Default(w), closeLog, nil
}

func runHeadless(cfg config.Config, frames int, logger *slog.Logger) error {
	if frames <= 0 {
		frames = headlessFrames
	}
	recorder := render.NewRecorder(80, 40, renderOptions(cfg))
	game, err := app.New(cfg, recorder, nil, logger)
	if err != nil {
		return err
	}
	defer game.Close()

	started := time.Now()
	if err := game.RunFrames(frames); err != nil {
		return err
	}

	origin := game.Puck().Transform().Origin
	score := game.Score()
	fmt.Printf("frames %d in %s, score %d:%d, puck at (%.3f, %.3f, %.3f)\n",
		game.Frames(), time.Since(started).Round(time.Millisecond), score[0], score[1], origin.X(), origin.Y(), origin.Z())
	return nil
}

func runTerminal(cfg config.Config, frames int, logger *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	// drag with the primary button to look around
	screen.EnableMouse()
	renderer := render.NewTerm(screen, renderOptions(cfg), logger)

	var clicker *audio.Clicker
	if cfg.Audio.Enabled {
		clicker = audio.NewClicker(audioParams(cfg), logger)
		if err := clicker.Start(); err != nil {
			logger.Warn("audio disabled", "error", err)
			clicker = nil
		}
	}

	game, err := app.New(cfg, renderer, clicker, logger)
	if err != nil {
		renderer.Close()
		return err
	}
	defer game.Close()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if frames > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(frames)*time.Second/time.Duration(cfg.Physics.TickRate))
		defer cancel()
	}
	return game.Run(ctx, events)
}

func renderOptions(cfg config.Config) render.Options {
	return render.Options{
		Wireframe:    cfg.Render.Wireframe,
		Normals:      cfg.Render.Normals,
		PhysicsDebug: cfg.Render.PhysicsDebug,
	}
}

func audioParams(cfg config.Config) audio.Params {
	return audio.Params{
		SampleRate: cfg.Audio.SampleRate,
		Frequency:  cfg.Audio.Frequency,
		Duration:   time.Duration(cfg.Audio.ClickMs) * time.Millisecond,
		Volume:     cfg.Audio.Volume,
		MinSpeed:   cfg.Audio.MinSpeed,
		FullSpeed:  cfg.Audio.FullSpeed,
	}
}
