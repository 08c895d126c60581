package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gordonklaus/portaudio"

	"github.com/Danondso/ambience/internal/chime"
	"github.com/Danondso/ambience/internal/clipboard"
	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/engine"
	"github.com/Danondso/ambience/internal/focus"
	"github.com/Danondso/ambience/internal/hotkey"
	"github.com/Danondso/ambience/internal/output"
	"github.com/Danondso/ambience/internal/server"
	"github.com/Danondso/ambience/internal/synth"
	"github.com/Danondso/ambience/internal/tui"
)

// outputChecker adapts the output package probes to tui.OutputChecker.
// Without PortAudio there is nothing to probe, so the device is assumed.
type outputChecker struct {
	portaudio bool
}

func (o outputChecker) OutputAvailable() bool {
	if !o.portaudio {
		return true
	}
	return output.OutputAvailable()
}

func (o outputChecker) DeviceName() string {
	return output.DeviceName()
}

func newLogger(debug bool) *log.Logger {
	if debug {
		return log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

// applyOverrides folds command-line choices into cfg. share takes
// precedence over vibe.
func applyOverrides(cfg *config.Config, vibe, backend, share string) (autoplay bool, err error) {
	if vibe != "" {
		cfg.Audio.Vibe = vibe
	}
	if backend != "" {
		cfg.Audio.Backend = backend
	}
	if share != "" {
		sh, err := clipboard.ParseShare(share)
		if err != nil {
			return false, err
		}
		cfg.Audio.Vibe = sh.Vibe.String()
		cfg.Audio.Seed = sh.Seed
		cfg.Audio.Volume = sh.Volume
		autoplay = true
	}
	return autoplay, cfg.Validate()
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "render" {
		if err := runRender(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfgPath := flag.String("config", config.DefaultPath(), "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging to stderr")
	vibeFlag := flag.String("vibe", "", "vibe to select ("+strings.Join(vibeNames(), ", ")+")")
	backendFlag := flag.String("backend", "", "output backend ("+strings.Join(output.Backends(), ", ")+")")
	share := flag.String("share", "", `play a shared setting, e.g. "vibe=rain seed=123 volume=0.50"`)
	play := flag.Bool("play", false, "start playing immediately")
	flag.Parse()

	dbg := newLogger(*debug)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	autoplay, err := applyOverrides(cfg, *vibeFlag, *backendFlag, *share)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	tui.RegisterCustomThemes(cfg.CustomThemes)

	// Initialize PortAudio (Linux suppresses ALSA/JACK stderr noise). Only
	// the portaudio backend needs it; the others use it for device probing.
	paOK := true
	if err := initPortAudio(); err != nil {
		if cfg.Audio.Backend == output.BackendPortAudio {
			log.Fatalf("portaudio init: %v", err)
		}
		dbg.Printf("portaudio: init failed, device probe disabled: %v", err)
		paOK = false
	} else {
		defer func() { _ = portaudio.Terminate() }()
		dbg.Printf("portaudio: initialized")
	}

	sink, err := output.New(cfg.Audio.Backend, float64(cfg.Audio.SampleRate), cfg.Audio.BufferFrames, dbg)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	eng := engine.New(sink,
		engine.WithLogger(dbg),
		engine.WithVolume(cfg.Audio.Volume),
		engine.WithSeed(cfg.Audio.Seed),
	)

	// The beep speaker runs on its own oto context; oto allows only one.
	chimesOn := cfg.Audio.ChimeEnabled
	if chimesOn && cfg.Audio.Backend == output.BackendOto {
		dbg.Printf("chime: disabled with the oto backend")
		chimesOn = false
	}
	chimePlayer, err := chime.New(cfg.Audio.ChimeStart, cfg.Audio.ChimeStop, chimesOn, dbg)
	if err != nil {
		log.Fatalf("create chime player: %v", err)
	}

	timer := focus.New(eng, chimePlayer, cfg.Focus.StopOnFinish, dbg)

	vibe, _ := synth.ParseVibe(cfg.Audio.Vibe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(&cfg.Server, eng, dbg)
		srv.DefaultVibe = vibe
		srv.Focus = timer
		if err := srv.Start(ctx); err != nil {
			log.Printf("WARNING: remote control disabled: %v", err)
			srv = nil
		}
	}

	model := tui.NewModel(cfg, eng, timer, chimePlayer, outputChecker{portaudio: paOK}, dbg, *debug)
	model.ConfigPath = *cfgPath
	p := tea.NewProgram(model, tea.WithAltScreen())

	// When debug is enabled, redirect logger output into the TUI debug panel
	if *debug {
		dbg.SetOutput(tui.NewLogWriter(p))
	}

	if cfg.Hotkey.Key != "" {
		listener, err := createListener(cfg, dbg)
		if err != nil {
			log.Printf("WARNING: hotkey disabled: %v", err)
		} else {
			deb := &hotkey.Debouncer{Window: hotkey.DefaultDebounce}
			go func() {
				err := listener.Start(ctx, deb.Wrap(func() {
					dbg.Printf("hotkey: press %s", listener.KeyName())
					p.Send(tui.HotkeyToggleMsg{})
				}))
				if err != nil && ctx.Err() == nil {
					dbg.Printf("hotkey: listener error: %v", err)
				}
			}()
		}
	}

	if autoplay || *play {
		eng.Start(vibe)
	}

	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}

	// Clean shutdown
	cancel()
	eng.Stop()
	if srv != nil {
		_ = srv.Stop()
	}
}

func vibeNames() []string {
	var names []string
	for _, v := range synth.Vibes() {
		names = append(names, v.String())
	}
	return names
}
